package appointments

import (
	"time"

	"pet-clinic-appointments/internal/platform/apperr"
)

type Event string

const (
	EventConfirm  Event = "confirm"
	EventCancel   Event = "cancel"
	EventComplete Event = "complete"
)

type transitionKey struct {
	from  Status
	event Event
}

var transitions = map[transitionKey]Status{
	{StatusPending, EventConfirm}:    StatusConfirmed,
	{StatusPending, EventCancel}:     StatusCanceled,
	{StatusConfirmed, EventCancel}:   StatusCanceled,
	{StatusConfirmed, EventComplete}: StatusCompleted,
}

// rejections tiene mensajes específicos; lo que no esté aquí usa el genérico.
var rejections = map[transitionKey]string{
	{StatusConfirmed, EventConfirm}:  "appointment is already confirmed",
	{StatusCanceled, EventConfirm}:   "cannot confirm a canceled appointment",
	{StatusCompleted, EventConfirm}:  "cannot confirm a completed appointment",
	{StatusCanceled, EventCancel}:    "appointment is already canceled",
	{StatusCompleted, EventCancel}:   "cannot cancel a completed appointment",
	{StatusPending, EventComplete}:   "only confirmed appointments can be completed",
	{StatusCanceled, EventComplete}:  "cannot complete a canceled appointment",
	{StatusCompleted, EventComplete}: "appointment is already completed",
}

// Next aplica event sobre from. Una transición inválida es un error de validación (400).
func Next(from Status, event Event) (Status, error) {
	k := transitionKey{from: from, event: event}
	if to, ok := transitions[k]; ok {
		return to, nil
	}
	if msg, ok := rejections[k]; ok {
		return "", apperr.Validation(msg)
	}
	return "", apperr.Validationf("invalid transition: cannot %s when appointment is %s", event, from)
}

// CanTransition responde si from -> to es alcanzable con un solo evento.
// Repetir el mismo estado no terminal se considera no-op válido.
func CanTransition(from, to Status) bool {
	if from == to {
		return !from.Terminal()
	}
	for k, dest := range transitions {
		if k.from == from && dest == to {
			return true
		}
	}
	return false
}

func eventFor(to Status) Event {
	switch to {
	case StatusConfirmed:
		return EventConfirm
	case StatusCanceled:
		return EventCancel
	case StatusCompleted:
		return EventComplete
	default:
		return ""
	}
}

// stamp marca el timestamp que corresponde al estado destino.
func stamp(p *Patch, to Status, at time.Time) {
	t := at
	switch to {
	case StatusConfirmed:
		p.ConfirmedAt = &t
	case StatusCanceled:
		p.CanceledAt = &t
	case StatusCompleted:
		p.CompletedAt = &t
	}
}
