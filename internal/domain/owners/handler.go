package owners

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"pet-clinic-appointments/internal/authz"
	"pet-clinic-appointments/internal/middleware"
	"pet-clinic-appointments/internal/platform/logger"
	"pet-clinic-appointments/internal/platform/respond"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes monta /owners sobre r (ya posicionado en /owners).
func RegisterRoutes(r chi.Router, svc *Service, log logger.Logger) {
	r.Get("/", listOwnersHandler(svc, log))
	r.Post("/", createOwnerHandler(svc, log))

	r.Get("/{id}", getOwnerHandler(svc, log))
	r.Put("/{id}", updateOwnerHandler(svc, log))
	r.Delete("/{id}", deleteOwnerHandler(svc, log))
}

type createOwnerRequest struct {
	OwnerID  string `json:"ownerId"`
	Nome     string `json:"nome"`
	Email    string `json:"email"`
	Telefone string `json:"telefone"`
	CPF      string `json:"cpf"`
	Endereco string `json:"endereco"`
}

type updateOwnerRequest struct {
	Nome     *string `json:"nome"`
	Email    *string `json:"email"`
	Telefone *string `json:"telefone"`
	CPF      *string `json:"cpf"`
	Endereco *string `json:"endereco"`
}

type ownerResponse struct {
	ID        string    `json:"ownerId"`
	Nome      string    `json:"nome"`
	Email     string    `json:"email"`
	Telefone  string    `json:"telefone,omitempty"`
	CPF       string    `json:"cpf,omitempty"`
	Endereco  string    `json:"endereco,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func createOwnerHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller := middleware.Caller(r.Context())
		if err := authz.RequireAdmin(caller); err != nil {
			respond.Error(w, r, log, err)
			return
		}

		var req createOwnerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respond.BadJSON(w, r, log)
			return
		}

		o, err := svc.Create(r.Context(), caller, CreateInput{
			ID:      req.OwnerID,
			Name:    req.Nome,
			Email:   req.Email,
			Phone:   req.Telefone,
			CPF:     req.CPF,
			Address: req.Endereco,
		})
		if err != nil {
			respond.Error(w, r, log, err)
			return
		}
		respond.JSON(w, http.StatusCreated, toOwnerResponse(o))
	}
}

func listOwnersHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller := middleware.Caller(r.Context())
		if err := authz.RequireAdmin(caller); err != nil {
			respond.Error(w, r, log, err)
			return
		}

		page, err := respond.PageFromQuery(r)
		if err != nil {
			respond.Error(w, r, log, err)
			return
		}

		res, err := svc.List(r.Context(), caller, Filter{Email: strings.TrimSpace(r.URL.Query().Get("email"))}, page)
		if err != nil {
			respond.Error(w, r, log, err)
			return
		}
		respond.List(w, res, toOwnerResponse)
	}
}

func getOwnerHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		o, err := svc.Get(r.Context(), middleware.Caller(r.Context()), chi.URLParam(r, "id"))
		if err != nil {
			respond.Error(w, r, log, err)
			return
		}
		respond.JSON(w, http.StatusOK, toOwnerResponse(o))
	}
}

func updateOwnerHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller := middleware.Caller(r.Context())
		if err := authz.RequireAdmin(caller); err != nil {
			respond.Error(w, r, log, err)
			return
		}

		var req updateOwnerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respond.BadJSON(w, r, log)
			return
		}

		o, err := svc.Update(r.Context(), caller, chi.URLParam(r, "id"), UpdateInput{
			Name:    req.Nome,
			Email:   req.Email,
			Phone:   req.Telefone,
			CPF:     req.CPF,
			Address: req.Endereco,
		})
		if err != nil {
			respond.Error(w, r, log, err)
			return
		}
		respond.JSON(w, http.StatusOK, toOwnerResponse(o))
	}
}

func deleteOwnerHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Delete(r.Context(), middleware.Caller(r.Context()), chi.URLParam(r, "id")); err != nil {
			respond.Error(w, r, log, err)
			return
		}
		respond.NoContent(w)
	}
}

func toOwnerResponse(o Owner) ownerResponse {
	return ownerResponse{
		ID:        o.ID,
		Nome:      o.Name,
		Email:     o.Email,
		Telefone:  o.Phone,
		CPF:       o.CPF,
		Endereco:  o.Address,
		CreatedAt: o.CreatedAt,
		UpdatedAt: o.UpdatedAt,
	}
}
