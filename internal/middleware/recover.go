package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"pet-clinic-appointments/internal/platform/apperr"
	"pet-clinic-appointments/internal/platform/logger"
	"pet-clinic-appointments/internal/platform/respond"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// Recover convierte un panic en 500 {"error":"internal"} y lo loguea con stack.
func Recover(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				log.Error("panic recovered", map[string]any{
					"method":     r.Method,
					"path":       r.URL.Path,
					"request_id": chimw.GetReqID(r.Context()),
					"panic":      fmt.Sprint(rec),
					"stack":      string(debug.Stack()),
				})
				respond.Error(w, r, nil, apperr.Internal(fmt.Errorf("panic: %v", rec)))
			}()

			next.ServeHTTP(w, r)
		})
	}
}
