package owners

import "time"

// Owner es el tutor de una o más mascotas. ID coincide con el subject del
// token cuando el admin lo vincula al crear.
type Owner struct {
	ID      string
	Name    string
	Email   string
	Phone   string
	CPF     string
	Address string

	CreatedAt time.Time
	UpdatedAt time.Time
}
