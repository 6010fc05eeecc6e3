package auth

// Claims es la identidad ya verificada del caller.
// Subject es el id del dueño de recursos (coincide con Owner.ID).
type Claims struct {
	Subject string
	Email   string
	Roles   []string
}
