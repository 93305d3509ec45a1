package domain

import (
	"math"
	"sort"
)

// BestPick is the outcome of SelectBest: the winning point, the geometry
// that was computed for it, and its personalized viewing chance.
type BestPick struct {
	Point  *GeoPoint
	Look   LookResult
	Chance float64
}

// SelectBest returns the point in the given hemisphere with the highest
// personal viewing chance from the observer, along with its look geometry.
// Ties go to the first point encountered in slice order, which keeps the
// selection stable across recomputation as long as the input ordering is.
// The second return value is false when no point survives the hemisphere
// filter; that is a normal outcome, not an error.
//
// This runs on every observer or heading update, so it stays a single
// linear pass over the filtered set.
func (c ScoringConfig) SelectBest(points []*GeoPoint, observer Observer, hemisphere Hemisphere, targetAltMeters float64) (BestPick, bool) {
	var best BestPick
	found := false
	for _, p := range points {
		if !hemisphere.Contains(p.Latitude) {
			continue
		}
		look := ComputeLookGeometry(
			observer.Latitude, observer.Longitude, observer.AltitudeMeters,
			p.Latitude, p.Longitude, targetAltMeters,
		)
		chance := c.ViewingChance(p.Probability, look)
		if !found || chance > best.Chance {
			best = BestPick{Point: p, Look: look, Chance: chance}
			found = true
		}
	}
	return best, found
}

// SelectBest scores with the stock calibration. See ScoringConfig.SelectBest.
func SelectBest(points []*GeoPoint, observer Observer, hemisphere Hemisphere, targetAltMeters float64) (BestPick, bool) {
	return DefaultScoring().SelectBest(points, observer, hemisphere, targetAltMeters)
}

// binKey is a spatial grid cell used to enforce geographic spread.
type binKey struct {
	lat int
	lon int
}

// Bin resolutions for the two diversity passes. The coarse grid spreads
// selections out; the fine grid backfills when the coarse pass under-fills.
const (
	coarseBinLatDeg = 8
	coarseBinLonDeg = 15
	fineBinLatDeg   = 5
	fineBinLonDeg   = 10
)

func binFor(p *GeoPoint, latDeg, lonDeg float64) binKey {
	return binKey{
		lat: int(math.Floor(p.Latitude / latDeg)),
		lon: int(math.Floor(p.Longitude / lonDeg)),
	}
}

// SelectDiverseTop reduces a point set to at most maxCount geographically
// distinct, high-probability representatives, ordered by probability
// descending.
//
// A plain top-N pick clusters around the most active sector of the oval,
// and a single coarse grid can under-fill. So: filter to the hemisphere and to
// probability >= minProbability, sort descending, keep the first point per
// 8x15 degree coarse bin, and only if that under-fills, backfill from a
// finer 5x10 degree grid, skipping points already selected by identity and
// fine bins the coarse picks already occupy. Fewer qualifying points than
// maxCount returns all of them with no padding.
func SelectDiverseTop(points []*GeoPoint, hemisphere Hemisphere, maxCount int, minProbability float64) []*GeoPoint {
	if maxCount <= 0 {
		return nil
	}

	candidates := make([]*GeoPoint, 0, len(points))
	for _, p := range points {
		if hemisphere.Contains(p.Latitude) && p.Probability >= minProbability {
			candidates = append(candidates, p)
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Probability > candidates[j].Probability
	})

	selected := make([]*GeoPoint, 0, maxCount)
	selectedIDs := make(map[string]struct{}, maxCount)
	coarseSeen := make(map[binKey]struct{})

	// Coarse pass: first point per 8x15 degree bin, best probability first.
	for _, p := range candidates {
		if len(selected) == maxCount {
			break
		}
		key := binFor(p, coarseBinLatDeg, coarseBinLonDeg)
		if _, ok := coarseSeen[key]; ok {
			continue
		}
		coarseSeen[key] = struct{}{}
		selected = append(selected, p)
		selectedIDs[p.ID] = struct{}{}
	}

	// Fine pass: backfill at 5x10 resolution. The coarse selections count as
	// consumed fine bins so the backfill never lands on top of one of them.
	if len(selected) < maxCount {
		fineSeen := make(map[binKey]struct{}, len(selected))
		for _, p := range selected {
			fineSeen[binFor(p, fineBinLatDeg, fineBinLonDeg)] = struct{}{}
		}
		for _, p := range candidates {
			if len(selected) == maxCount {
				break
			}
			if _, ok := selectedIDs[p.ID]; ok {
				continue
			}
			key := binFor(p, fineBinLatDeg, fineBinLonDeg)
			if _, ok := fineSeen[key]; ok {
				continue
			}
			fineSeen[key] = struct{}{}
			selected = append(selected, p)
			selectedIDs[p.ID] = struct{}{}
		}
	}

	sort.SliceStable(selected, func(i, j int) bool {
		return selected[i].Probability > selected[j].Probability
	})
	return selected
}
