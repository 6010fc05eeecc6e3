package appointments

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"pet-clinic-appointments/internal/authz"
	"pet-clinic-appointments/internal/middleware"
	"pet-clinic-appointments/internal/platform/apperr"
	"pet-clinic-appointments/internal/platform/logger"
	"pet-clinic-appointments/internal/platform/respond"
	"pet-clinic-appointments/internal/ports/auth"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes monta /appointments sobre r (ya posicionado en /appointments).
func RegisterRoutes(r chi.Router, svc *Service, log logger.Logger) {
	r.Get("/", listHandler(svc, log))
	r.Post("/", createHandler(svc, log))

	r.Get("/{id}", getHandler(svc, log))
	r.Put("/{id}", updateHandler(svc, log))
	r.Delete("/{id}", deleteHandler(svc, log))

	r.Post("/{id}/confirm", transitionHandler(svc.Confirm, log))
	r.Post("/{id}/cancel", transitionHandler(svc.Cancel, log))
	r.Post("/{id}/complete", transitionHandler(svc.Complete, log))
}

type createRequest struct {
	PetID    string `json:"petId"`
	OwnerID  string `json:"ownerId"`
	DataHora string `json:"dataHora"` // RFC3339
	Notes    string `json:"observacoes"`
}

type updateRequest struct {
	// Punteros para update parcial: nil = no tocar.
	Status   *string `json:"status"`
	DataHora *string `json:"dataHora"`
	Notes    *string `json:"observacoes"`
}

type appointmentResponse struct {
	ID          string     `json:"appointmentId"`
	PetID       string     `json:"petId"`
	OwnerID     string     `json:"ownerId"`
	DataHora    time.Time  `json:"dataHora"`
	Status      Status     `json:"status"`
	Notes       string     `json:"observacoes,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	ConfirmedAt *time.Time `json:"confirmedAt,omitempty"`
	CanceledAt  *time.Time `json:"canceledAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

type relationResponse struct {
	Appointments []appointmentResponse `json:"appointments"`
}

func createHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller := middleware.Caller(r.Context())
		// el rol se valida antes de mirar el body
		if err := authz.RequireOperator(caller); err != nil {
			respond.Error(w, r, log, err)
			return
		}

		var req createRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respond.BadJSON(w, r, log)
			return
		}

		in := CreateInput{PetID: req.PetID, OwnerID: req.OwnerID, Notes: req.Notes}
		if strings.TrimSpace(req.DataHora) != "" {
			at, err := parseDataHora(req.DataHora)
			if err != nil {
				respond.Error(w, r, log, err)
				return
			}
			in.ScheduledAt = &at
		}

		a, err := svc.Create(r.Context(), caller, in)
		if err != nil {
			respond.Error(w, r, log, err)
			return
		}
		respond.JSON(w, http.StatusCreated, toResponse(a))
	}
}

func listHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller := middleware.Caller(r.Context())
		if err := authz.RequireOperator(caller); err != nil {
			respond.Error(w, r, log, err)
			return
		}

		page, err := respond.PageFromQuery(r)
		if err != nil {
			respond.Error(w, r, log, err)
			return
		}
		f, err := filterFromQuery(r)
		if err != nil {
			respond.Error(w, r, log, err)
			return
		}

		res, err := svc.List(r.Context(), caller, f, page)
		if err != nil {
			respond.Error(w, r, log, err)
			return
		}
		respond.List(w, res, toResponse)
	}
}

func getHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, err := svc.Get(r.Context(), middleware.Caller(r.Context()), chi.URLParam(r, "id"))
		if err != nil {
			respond.Error(w, r, log, err)
			return
		}
		respond.JSON(w, http.StatusOK, toResponse(a))
	}
}

func updateHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller := middleware.Caller(r.Context())
		if err := authz.RequireOperator(caller); err != nil {
			respond.Error(w, r, log, err)
			return
		}

		var req updateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respond.BadJSON(w, r, log)
			return
		}

		in := UpdateInput{Status: req.Status, Notes: req.Notes}
		if req.DataHora != nil {
			at, err := parseDataHora(*req.DataHora)
			if err != nil {
				respond.Error(w, r, log, err)
				return
			}
			in.ScheduledAt = &at
		}

		a, err := svc.Update(r.Context(), caller, chi.URLParam(r, "id"), in)
		if err != nil {
			respond.Error(w, r, log, err)
			return
		}
		respond.JSON(w, http.StatusOK, toResponse(a))
	}
}

func deleteHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Delete(r.Context(), middleware.Caller(r.Context()), chi.URLParam(r, "id")); err != nil {
			respond.Error(w, r, log, err)
			return
		}
		respond.NoContent(w)
	}
}

type transitionFunc func(ctx context.Context, caller *auth.Claims, id string) (Appointment, error)

// transitionHandler sirve confirm/cancel/complete; el body se ignora.
func transitionHandler(apply transitionFunc, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, err := apply(r.Context(), middleware.Caller(r.Context()), chi.URLParam(r, "id"))
		if err != nil {
			respond.Error(w, r, log, err)
			return
		}
		respond.JSON(w, http.StatusOK, toResponse(a))
	}
}

// PetAppointmentsHandler sirve GET /pets/{id}/appointments.
func PetAppointmentsHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.ListByPet(r.Context(), middleware.Caller(r.Context()), chi.URLParam(r, "id"))
		if err != nil {
			respond.Error(w, r, log, err)
			return
		}
		respond.JSON(w, http.StatusOK, toRelation(items))
	}
}

// OwnerAppointmentsHandler sirve GET /owners/{id}/appointments.
func OwnerAppointmentsHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.ListByOwner(r.Context(), middleware.Caller(r.Context()), chi.URLParam(r, "id"))
		if err != nil {
			respond.Error(w, r, log, err)
			return
		}
		respond.JSON(w, http.StatusOK, toRelation(items))
	}
}

func filterFromQuery(r *http.Request) (Filter, error) {
	q := r.URL.Query()
	f := Filter{
		PetID:   strings.TrimSpace(q.Get("petId")),
		OwnerID: strings.TrimSpace(q.Get("ownerId")),
	}

	if v := strings.TrimSpace(q.Get("status")); v != "" {
		st, ok := ParseStatus(v)
		if !ok {
			return Filter{}, apperr.Validation("invalid status")
		}
		f.Status = st
	}

	for key, dst := range map[string]**time.Time{"dataInicio": &f.From, "dataFim": &f.To} {
		v := strings.TrimSpace(q.Get(key))
		if v == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return Filter{}, apperr.Validationf("%s must be RFC3339", key)
		}
		t = t.UTC()
		*dst = &t
	}
	return f, nil
}

func parseDataHora(v string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, strings.TrimSpace(v))
	if err != nil {
		return time.Time{}, apperr.Validation("dataHora must be RFC3339")
	}
	return t.UTC(), nil
}

func toResponse(a Appointment) appointmentResponse {
	return appointmentResponse{
		ID:          a.ID,
		PetID:       a.PetID,
		OwnerID:     a.OwnerID,
		DataHora:    a.ScheduledAt,
		Status:      a.Status,
		Notes:       a.Notes,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
		ConfirmedAt: a.ConfirmedAt,
		CanceledAt:  a.CanceledAt,
		CompletedAt: a.CompletedAt,
	}
}

func toRelation(items []Appointment) relationResponse {
	out := make([]appointmentResponse, 0, len(items))
	for _, a := range items {
		out = append(out, toResponse(a))
	}
	return relationResponse{Appointments: out}
}
