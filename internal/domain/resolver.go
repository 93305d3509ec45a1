package domain

import "context"

// NameResolver looks up a human-readable place name for a coordinate.
// Implementations are best-effort: an empty name with a nil error means the
// provider had nothing for that coordinate.
type NameResolver interface {
	ResolveName(ctx context.Context, lat, lon float64) (string, error)
}

// ResolvedName pairs a point identity with a resolved place name.
type ResolvedName struct {
	ID   string
	Name string
}
