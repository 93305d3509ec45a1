package domain

// CurveNode is one node of a piecewise-linear preference curve over
// elevation degrees. The factor is interpolated between successive nodes
// and held flat beyond the last node.
type CurveNode struct {
	Deg    float64
	Factor float64
}

// DistanceTier maps a maximum surface distance to a multiplicative factor.
// Tiers must be ordered by increasing MaxMeters.
type DistanceTier struct {
	MaxMeters float64
	Factor    float64
}

// ScoringConfig holds the tunable breakpoints of the personal viewing-chance
// heuristic. The numbers are calibration values, not physics; what matters
// is the shape: aurora is best seen low on the horizon rather than overhead,
// and closer is better though the arc stays visible hundreds of kilometers
// away thanks to its altitude. Start from DefaultScoring when tuning.
type ScoringConfig struct {
	// HorizonCutoffDeg is the elevation below which the chance is zero.
	// Slightly negative: near-horizon aurora is often still visible.
	HorizonCutoffDeg float64

	// BelowHorizonFactor applies between the cutoff and the first
	// elevation curve node.
	BelowHorizonFactor float64

	// ElevationCurve is the preference curve for elevations at or above
	// the first node's degree.
	ElevationCurve []CurveNode

	// DistanceTiers give flat factors up to each tier's distance. Beyond
	// the last tier the factor decays linearly from the last tier's
	// factor at DecayPerMeter, floored at FloorFactor.
	DistanceTiers []DistanceTier
	DecayPerMeter float64
	FloorFactor   float64
}

// DefaultScoring returns the stock calibration of the viewing-chance curve.
func DefaultScoring() ScoringConfig {
	return ScoringConfig{
		HorizonCutoffDeg:   -2,
		BelowHorizonFactor: 0.1,
		ElevationCurve: []CurveNode{
			{Deg: 0, Factor: 0.5},
			{Deg: 5, Factor: 0.8},
			{Deg: 25, Factor: 1.0},
			{Deg: 30, Factor: 0.9},
		},
		DistanceTiers: []DistanceTier{
			{MaxMeters: 200_000, Factor: 1.0},
			{MaxMeters: 500_000, Factor: 0.95},
			{MaxMeters: 1_000_000, Factor: 0.85},
			{MaxMeters: 1_500_000, Factor: 0.7},
		},
		DecayPerMeter: 0.4 / 2_000_000, // 0.7 at 1500 km down to 0.3 at 3500 km
		FloorFactor:   0.3,
	}
}

// ViewingChance converts a base forecast probability plus look geometry into
// a personalized viewing chance in [0, 100]. Out-of-range base probabilities
// are clamped, never rejected. Targets more than HorizonCutoffDeg below the
// horizon score zero.
func (c ScoringConfig) ViewingChance(baseProbability float64, look LookResult) float64 {
	if look.ElevationDegrees < c.HorizonCutoffDeg {
		return 0
	}
	base := clamp(baseProbability, 0, 100)
	chance := base * c.elevationFactor(look.ElevationDegrees) * c.distanceFactor(look.SurfaceDistanceMeters)
	return clamp(chance, 0, 100)
}

// ViewingChance scores with the stock calibration. See ScoringConfig.
func ViewingChance(baseProbability float64, look LookResult) float64 {
	return DefaultScoring().ViewingChance(baseProbability, look)
}

func (c ScoringConfig) elevationFactor(elevationDeg float64) float64 {
	curve := c.ElevationCurve
	if len(curve) == 0 {
		return 1
	}
	if elevationDeg < curve[0].Deg {
		return c.BelowHorizonFactor
	}
	for i := 1; i < len(curve); i++ {
		prev, next := curve[i-1], curve[i]
		if elevationDeg < next.Deg {
			span := next.Deg - prev.Deg
			if span <= 0 {
				return next.Factor
			}
			t := (elevationDeg - prev.Deg) / span
			return prev.Factor + t*(next.Factor-prev.Factor)
		}
	}
	return curve[len(curve)-1].Factor
}

func (c ScoringConfig) distanceFactor(distanceMeters float64) float64 {
	for _, tier := range c.DistanceTiers {
		if distanceMeters < tier.MaxMeters {
			return tier.Factor
		}
	}
	if len(c.DistanceTiers) == 0 {
		return 1
	}
	last := c.DistanceTiers[len(c.DistanceTiers)-1]
	factor := last.Factor - c.DecayPerMeter*(distanceMeters-last.MaxMeters)
	if factor < c.FloorFactor {
		return c.FloorFactor
	}
	return factor
}
