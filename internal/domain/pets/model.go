package pets

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Pet representa el perfil de una mascota de la clínica.
// OwnerID vacío = mascota sin dueño (válido).
type Pet struct {
	ID      string
	OwnerID string

	Name   string
	Photo  string // referencia a la foto (URL o key), no el binario
	Age    int
	Breed  string
	Weight float64

	Medications string
	Info        string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// AgeGroup es un rango de edad inclusivo.
type AgeGroup struct {
	Min int
	Max int
}

// "15+" se acota a 30 años.
const openAgeGroupMax = 30

// ParseAgeGroup acepta "a-b" (inclusivo) o "a+".
func ParseAgeGroup(s string) (AgeGroup, error) {
	s = strings.TrimSpace(s)
	if strings.HasSuffix(s, "+") {
		min, err := strconv.Atoi(strings.TrimSuffix(s, "+"))
		if err != nil || min < 0 {
			return AgeGroup{}, fmt.Errorf("invalid age group %q", s)
		}
		max := openAgeGroupMax
		if min > max {
			max = min
		}
		return AgeGroup{Min: min, Max: max}, nil
	}

	lo, hi, ok := strings.Cut(s, "-")
	if !ok {
		return AgeGroup{}, fmt.Errorf("invalid age group %q", s)
	}
	min, err1 := strconv.Atoi(strings.TrimSpace(lo))
	max, err2 := strconv.Atoi(strings.TrimSpace(hi))
	if err1 != nil || err2 != nil || min < 0 || max < min {
		return AgeGroup{}, fmt.Errorf("invalid age group %q", s)
	}
	return AgeGroup{Min: min, Max: max}, nil
}

func (g AgeGroup) Contains(age int) bool {
	return age >= g.Min && age <= g.Max
}
