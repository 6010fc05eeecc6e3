package pets

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"pet-clinic-appointments/internal/authz"
	"pet-clinic-appointments/internal/middleware"
	"pet-clinic-appointments/internal/platform/apperr"
	"pet-clinic-appointments/internal/platform/logger"
	"pet-clinic-appointments/internal/platform/respond"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes monta /pets sobre r (ya posicionado en /pets).
func RegisterRoutes(r chi.Router, svc *Service, log logger.Logger) {
	r.Post("/", createPetHandler(svc, log))
	r.Get("/", listPetsHandler(svc, log))

	r.Get("/{id}", getPetHandler(svc, log))
	r.Put("/{id}", updatePetHandler(svc, log))
	r.Delete("/{id}", deletePetHandler(svc, log))
}

type createPetRequest struct {
	Nome        string   `json:"nome"`
	Foto        string   `json:"foto"`
	Idade       *int     `json:"idade"`
	Raca        string   `json:"raca"`
	Peso        *float64 `json:"peso"`
	Medicacoes  string   `json:"medicacoes"`
	Informacoes string   `json:"informacoes"`
}

type updatePetRequest struct {
	// Punteros para update parcial: nil = no tocar.
	Nome        *string  `json:"nome"`
	Foto        *string  `json:"foto"`
	Idade       *int     `json:"idade"`
	Raca        *string  `json:"raca"`
	Peso        *float64 `json:"peso"`
	Medicacoes  *string  `json:"medicacoes"`
	Informacoes *string  `json:"informacoes"`
}

type petResponse struct {
	ID          string    `json:"petId"`
	OwnerID     *string   `json:"ownerId"`
	Nome        string    `json:"nome"`
	Foto        string    `json:"foto"`
	Idade       int       `json:"idade"`
	Raca        string    `json:"raca"`
	Peso        float64   `json:"peso"`
	Medicacoes  string    `json:"medicacoes"`
	Informacoes string    `json:"informacoes"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func createPetHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller := middleware.Caller(r.Context())
		if err := authz.RequireOperator(caller); err != nil {
			respond.Error(w, r, log, err)
			return
		}

		var req createPetRequest
		owner, err := decodeWithOwner(r, &req)
		if err != nil {
			respond.Error(w, r, log, err)
			return
		}

		p, err := svc.Create(r.Context(), caller, CreateInput{
			Name:        req.Nome,
			Photo:       req.Foto,
			Age:         req.Idade,
			Breed:       req.Raca,
			Weight:      req.Peso,
			Medications: req.Medicacoes,
			Info:        req.Informacoes,
			Owner:       owner,
		})
		if err != nil {
			respond.Error(w, r, log, err)
			return
		}
		respond.JSON(w, http.StatusCreated, toPetResponse(p))
	}
}

func listPetsHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller := middleware.Caller(r.Context())
		if err := authz.RequireAuthenticated(caller); err != nil {
			respond.Error(w, r, log, err)
			return
		}

		page, err := respond.PageFromQuery(r)
		if err != nil {
			respond.Error(w, r, log, err)
			return
		}

		q := r.URL.Query()
		f := Filter{
			Name:    strings.TrimSpace(q.Get("name")),
			OwnerID: strings.TrimSpace(q.Get("ownerId")),
		}
		if v := strings.TrimSpace(q.Get("ageGroup")); v != "" {
			g, err := ParseAgeGroup(v)
			if err != nil {
				respond.Error(w, r, log, apperr.Validation("ageGroup must look like 0-5 or 15+"))
				return
			}
			f.AgeGroup = &g
		}

		res, err := svc.List(r.Context(), caller, f, page)
		if err != nil {
			respond.Error(w, r, log, err)
			return
		}
		respond.List(w, res, toPetResponse)
	}
}

func getPetHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := svc.Get(r.Context(), middleware.Caller(r.Context()), chi.URLParam(r, "id"))
		if err != nil {
			respond.Error(w, r, log, err)
			return
		}
		respond.JSON(w, http.StatusOK, toPetResponse(p))
	}
}

func updatePetHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller := middleware.Caller(r.Context())
		if err := authz.RequireOperator(caller); err != nil {
			respond.Error(w, r, log, err)
			return
		}

		var req updatePetRequest
		owner, err := decodeWithOwner(r, &req)
		if err != nil {
			respond.Error(w, r, log, err)
			return
		}

		p, err := svc.Update(r.Context(), caller, chi.URLParam(r, "id"), UpdateInput{
			Name:        req.Nome,
			Photo:       req.Foto,
			Age:         req.Idade,
			Breed:       req.Raca,
			Weight:      req.Peso,
			Medications: req.Medicacoes,
			Info:        req.Informacoes,
			Owner:       owner,
		})
		if err != nil {
			respond.Error(w, r, log, err)
			return
		}
		respond.JSON(w, http.StatusOK, toPetResponse(p))
	}
}

func deletePetHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Delete(r.Context(), middleware.Caller(r.Context()), chi.URLParam(r, "id")); err != nil {
			respond.Error(w, r, log, err)
			return
		}
		respond.NoContent(w)
	}
}

// decodeWithOwner decodifica el body en dst y detecta si "ownerId" vino
// (incluido null, que significa "sin dueño").
func decodeWithOwner(r *http.Request, dst any) (OwnerChange, error) {
	var raw map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		return OwnerChange{}, apperr.Validation("invalid json")
	}

	// re-marshal para reutilizar los tags del struct
	b, _ := json.Marshal(raw)
	if err := json.Unmarshal(b, dst); err != nil {
		return OwnerChange{}, apperr.Validation("invalid json")
	}

	v, exists := raw["ownerId"]
	if !exists {
		return OwnerChange{}, nil
	}
	if string(v) == "null" {
		return OwnerChange{Set: true}, nil
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return OwnerChange{}, apperr.Validation("ownerId must be a string or null")
	}
	return OwnerChange{Set: true, OwnerID: strings.TrimSpace(s)}, nil
}

func toPetResponse(p Pet) petResponse {
	var owner *string
	if p.OwnerID != "" {
		o := p.OwnerID
		owner = &o
	}
	return petResponse{
		ID:          p.ID,
		OwnerID:     owner,
		Nome:        p.Name,
		Foto:        p.Photo,
		Idade:       p.Age,
		Raca:        p.Breed,
		Peso:        p.Weight,
		Medicacoes:  p.Medications,
		Informacoes: p.Info,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}
