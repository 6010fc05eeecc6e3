package appointments

import (
	"strings"
	"time"
)

// Status usa el vocabulario de la API (portugués).
type Status string

const (
	StatusPending   Status = "pendente"
	StatusConfirmed Status = "confirmado"
	StatusCanceled  Status = "cancelado"
	StatusCompleted Status = "concluido"
)

func ParseStatus(s string) (Status, bool) {
	switch st := Status(strings.TrimSpace(s)); st {
	case StatusPending, StatusConfirmed, StatusCanceled, StatusCompleted:
		return st, true
	default:
		return "", false
	}
}

// Terminal: cancelado y concluido no admiten más transiciones.
func (s Status) Terminal() bool {
	return s == StatusCanceled || s == StatusCompleted
}

// Active: todo lo que no está cancelado ocupa agenda y bloquea deletes.
func (s Status) Active() bool {
	return s != StatusCanceled
}

// Appointment es una cita de una mascota con su dueño.
type Appointment struct {
	ID      string
	PetID   string
	OwnerID string

	ScheduledAt time.Time
	Status      Status
	Notes       string

	CreatedAt time.Time
	UpdatedAt time.Time

	ConfirmedAt *time.Time
	CanceledAt  *time.Time
	CompletedAt *time.Time
}

// CountActive cuenta citas no canceladas.
func CountActive(items []Appointment) int {
	n := 0
	for _, a := range items {
		if a.Status.Active() {
			n++
		}
	}
	return n
}
