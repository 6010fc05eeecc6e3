package respond

import (
	"net/http"
	"strconv"
	"strings"

	"pet-clinic-appointments/internal/platform/apperr"
	"pet-clinic-appointments/internal/ports/storage"
)

type listBody[R any] struct {
	Items []R `json:"items"`
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// List escribe {items, total, page, limit} convirtiendo cada item con conv.
func List[T, R any](w http.ResponseWriter, res storage.Result[T], conv func(T) R) {
	items := make([]R, 0, len(res.Items))
	for _, it := range res.Items {
		items = append(items, conv(it))
	}
	JSON(w, http.StatusOK, listBody[R]{
		Items: items,
		Total: res.Total,
		Page:  res.Page,
		Limit: res.Limit,
	})
}

// PageFromQuery lee ?page=&limit=. Ausentes usan defaults; no numéricos son 400.
func PageFromQuery(r *http.Request) (storage.Page, error) {
	q := r.URL.Query()
	page, err := intParam(q.Get("page"))
	if err != nil {
		return storage.Page{}, apperr.Validation("page must be an integer")
	}
	limit, err := intParam(q.Get("limit"))
	if err != nil {
		return storage.Page{}, apperr.Validation("limit must be an integer")
	}
	return storage.NewPage(page, limit), nil
}

func intParam(v string) (int, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, nil
	}
	return strconv.Atoi(v)
}
