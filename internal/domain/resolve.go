package domain

import (
	"context"
	"log/slog"
)

// ResolveNames resolves place names for the given points that do not have
// one yet. It returns whatever the resolver produced; individual failures
// are logged and skipped rather than failing the batch (graceful
// degradation), and a nil resolver resolves nothing. The resolver may
// return fewer names than requested.
//
// Callers run this off the refresh path and apply the results later with
// ApplyResolvedNames, which revalidates identities.
func ResolveNames(ctx context.Context, points []*GeoPoint, resolver NameResolver, logger *slog.Logger) []ResolvedName {
	if resolver == nil {
		return nil
	}

	var resolved []ResolvedName
	for _, p := range points {
		if p.Name != "" {
			continue
		}
		if ctx.Err() != nil {
			return resolved
		}
		name, err := resolver.ResolveName(ctx, p.Latitude, p.Longitude)
		if err != nil {
			logger.Warn("name resolution failed",
				"point_id", p.ID,
				"lat", p.Latitude,
				"lon", p.Longitude,
				"error", err,
			)
			continue
		}
		if name == "" {
			continue
		}
		resolved = append(resolved, ResolvedName{ID: p.ID, Name: name})
	}
	return resolved
}

// ApplyResolvedNames applies asynchronously resolved names onto the current
// point set and returns how many were applied. A result whose identity is
// no longer present (the cell vanished from a newer forecast) is discarded,
// and a point that already carries a name keeps it: application is
// idempotent per identity, so a late duplicate resolution cannot overwrite
// an earlier one.
func ApplyResolvedNames(points []*GeoPoint, resolved []ResolvedName) int {
	if len(resolved) == 0 {
		return 0
	}

	byID := make(map[string]*GeoPoint, len(points))
	for _, p := range points {
		byID[p.ID] = p
	}

	applied := 0
	for _, r := range resolved {
		if r.Name == "" {
			continue
		}
		p, ok := byID[r.ID]
		if !ok || p.Name != "" {
			continue
		}
		p.Name = r.Name
		applied++
	}
	return applied
}
