package storage

import "errors"

// Errores que cualquier adapter de storage debe devolver (memory/postgres).
// Los services los traducen a errores de API.
var (
	ErrNotFound  = errors.New("storage: not found")
	ErrDuplicate = errors.New("storage: duplicate key")
)

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// Page es la página pedida (1-indexed).
type Page struct {
	Number int
	Limit  int
}

// NewPage normaliza page/limit: valores <= 0 usan defaults, limit se acota a MaxLimit.
func NewPage(number, limit int) Page {
	if number <= 0 {
		number = 1
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return Page{Number: number, Limit: limit}
}

func (p Page) Offset() int {
	p = NewPage(p.Number, p.Limit)
	return (p.Number - 1) * p.Limit
}

// Result es una página de resultados. Total se calcula después de filtrar
// y antes de paginar.
type Result[T any] struct {
	Items []T
	Total int
	Page  int
	Limit int
}

// Paginate corta items (ya filtrados y ordenados) según la página.
func Paginate[T any](items []T, p Page) Result[T] {
	p = NewPage(p.Number, p.Limit)
	total := len(items)

	start := p.Offset()
	if start > total {
		start = total
	}
	end := start + p.Limit
	if end > total {
		end = total
	}

	out := make([]T, end-start)
	copy(out, items[start:end])

	return Result[T]{
		Items: out,
		Total: total,
		Page:  p.Number,
		Limit: p.Limit,
	}
}
