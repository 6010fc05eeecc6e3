package respond

import (
	"encoding/json"
	"net/http"

	"pet-clinic-appointments/internal/platform/apperr"
	"pet-clinic-appointments/internal/platform/logger"

	chimw "github.com/go-chi/chi/v5/middleware"
)

type errorBody struct {
	Error string `json:"error"`
}

func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// Error traduce err a {status, {"error": msg}} y lo loguea con el contexto del request.
// Los internos siempre salen como "internal"; el detalle queda en el log.
func Error(w http.ResponseWriter, r *http.Request, log logger.Logger, err error) {
	kind := apperr.KindOf(err)
	status := apperr.HTTPStatus(kind)

	if log != nil {
		fields := map[string]any{
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     status,
			"kind":       string(kind),
			"request_id": chimw.GetReqID(r.Context()),
			"error":      err,
		}
		if status >= http.StatusInternalServerError {
			log.Error("request failed", fields)
		} else {
			log.Warn("request rejected", fields)
		}
	}

	JSON(w, status, errorBody{Error: apperr.PublicMessage(err)})
}

// BadJSON es el 400 estándar para bodies que no decodifican.
func BadJSON(w http.ResponseWriter, r *http.Request, log logger.Logger) {
	Error(w, r, log, apperr.Validation("invalid json"))
}
