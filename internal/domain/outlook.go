package domain

import "time"

// OutlookParams are the per-deployment knobs for building an outlook.
type OutlookParams struct {
	// TargetAltMeters is the altitude the aurora is assumed to render at,
	// typically around 110 km.
	TargetAltMeters float64

	// MaxHighlights caps the diverse display list.
	MaxHighlights int

	// MinProbability drops forecast cells below this base probability from
	// the display list (the best-point search still sees them).
	MinProbability float64
}

// BestView is a scored best point together with the geometry used to score it.
type BestView struct {
	Point  *GeoPoint  `json:"point"`
	Look   LookResult `json:"look"`
	Chance float64    `json:"chance"`
}

// Outlook is the personalized result of one snapshot refresh for one
// observer: the single best point per hemisphere plus a geographically
// diverse ranked display list.
type Outlook struct {
	Observer     Observer   `json:"observer"`
	ForecastTime time.Time  `json:"forecast_time"`
	ComputedAt   time.Time  `json:"computed_at"`
	NorthBest    *BestView  `json:"north_best,omitempty"`
	SouthBest    *BestView  `json:"south_best,omitempty"`
	Highlights   []BestView `json:"highlights"`
}

// BuildOutlook computes an Outlook from a forecast snapshot and an observer.
// Best points are picked independently per hemisphere; the highlight list is
// sampled from the observer's own hemisphere. Empty hemispheres simply leave
// the corresponding fields empty.
//
// The returned outlook holds copies of the snapshot points, never the
// snapshot's own pointers. ApplyResolvedNames mutates snapshot points after
// the fact, so an outlook that shared them could not be serialized or read
// without holding the snapshot lock.
func (c ScoringConfig) BuildOutlook(snapshot ForecastSnapshot, observer Observer, params OutlookParams) Outlook {
	outlook := Outlook{
		Observer:     observer,
		ForecastTime: snapshot.ForecastTime,
		ComputedAt:   clock.Now().UTC(),
	}

	if pick, ok := c.SelectBest(snapshot.Points, observer, NorthernHemisphere, params.TargetAltMeters); ok {
		pt := *pick.Point
		outlook.NorthBest = &BestView{Point: &pt, Look: pick.Look, Chance: pick.Chance}
	}
	if pick, ok := c.SelectBest(snapshot.Points, observer, SouthernHemisphere, params.TargetAltMeters); ok {
		pt := *pick.Point
		outlook.SouthBest = &BestView{Point: &pt, Look: pick.Look, Chance: pick.Chance}
	}

	hemisphere := NorthernHemisphere
	if observer.Latitude < 0 {
		hemisphere = SouthernHemisphere
	}

	diverse := SelectDiverseTop(snapshot.Points, hemisphere, params.MaxHighlights, params.MinProbability)
	outlook.Highlights = make([]BestView, 0, len(diverse))
	for _, p := range diverse {
		look := ComputeLookGeometry(
			observer.Latitude, observer.Longitude, observer.AltitudeMeters,
			p.Latitude, p.Longitude, params.TargetAltMeters,
		)
		pt := *p
		outlook.Highlights = append(outlook.Highlights, BestView{
			Point:  &pt,
			Look:   look,
			Chance: c.ViewingChance(p.Probability, look),
		})
	}

	return outlook
}
