package lock

import (
	"context"
	"sort"
	"strings"
)

// Locker serializa secuencias leer-luego-escribir (chequeo de conflicto + insert,
// guard de integridad + delete) sobre un conjunto de claves.
// Acquire toma todas las claves en orden estable; release es idempotente.
type Locker interface {
	Acquire(ctx context.Context, keys ...string) (release func(), err error)
}

func PetKey(petID string) string     { return "pet:" + strings.TrimSpace(petID) }
func OwnerKey(ownerID string) string { return "owner:" + strings.TrimSpace(ownerID) }

// NormalizeKeys deduplica y ordena. Los adapters lo usan para evitar deadlocks
// cuando dos requests piden las mismas claves en distinto orden.
func NormalizeKeys(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
