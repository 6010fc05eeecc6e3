package memory

import "time"

// clock lo comparten los repos para refrescar UpdatedAt. Sobrescribible en tests.
type clock func() time.Time

func (c clock) now() time.Time {
	if c == nil {
		return time.Now().UTC()
	}
	return c().UTC()
}
