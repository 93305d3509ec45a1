// Command validate loads an OVATION forecast fixture, runs the full compute
// path for a reference observer, and checks the engine's invariants: grid
// integrity, look-geometry ranges, scoring bounds, highlight diversity, and
// heading continuity.
//
// Usage:
//
//	go run ./cmd/validate -fixture data/mock/ovation_snapshot.json
//	go run ./cmd/validate -fixture snapshot.json -lat 69.65 -lon 18.96
package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/couchcryptid/aurora-sight/internal/domain"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	fixture := flag.String("fixture", "", "path to an OVATION forecast JSON fixture")
	lat := flag.Float64("lat", 64.84, "reference observer latitude")
	lon := flag.Float64("lon", -147.72, "reference observer longitude")
	alt := flag.Float64("alt", 136, "reference observer altitude, meters")
	auroraAlt := flag.Float64("aurora-alt", 110_000, "assumed aurora altitude, meters")
	maxHighlights := flag.Int("max-highlights", 10, "highlight list cap")
	minProbability := flag.Float64("min-probability", 5, "highlight probability threshold")
	flag.Parse()

	if *fixture == "" {
		flag.Usage()
		os.Exit(1)
	}

	observer := domain.Observer{Latitude: *lat, Longitude: *lon, AltitudeMeters: *alt}
	params := domain.OutlookParams{
		TargetAltMeters: *auroraAlt,
		MaxHighlights:   *maxHighlights,
		MinProbability:  *minProbability,
	}

	if code := run(*fixture, observer, params); code != 0 {
		os.Exit(code)
	}
}

func run(fixturePath string, observer domain.Observer, params domain.OutlookParams) int {
	fmt.Println("=== Aurora Outlook Invariant Validation ===")
	fmt.Println()

	data, err := os.ReadFile(fixturePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: read fixture: %v\n", err)
		return 1
	}

	snapshot, err := domain.ParseForecast(domain.RawSnapshot{Value: data, Timestamp: time.Now().UTC()})
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: parse fixture: %v\n", err)
		return 1
	}

	scoring := domain.DefaultScoring()

	phases := []*phase{
		validateGrid(snapshot),
		validateGeometry(snapshot, observer, params),
		validateScoring(snapshot, observer, params, scoring),
		validateDiversity(snapshot, observer, params),
		validateHeadingContinuity(snapshot, observer, params, scoring),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Points: %d non-zero forecast cells, observer (%.2f, %.2f)\n",
		len(snapshot.Points), observer.Latitude, observer.Longitude)

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// ── Phase 1: Grid Integrity ──
// Every parsed point holds the coordinate and probability contracts and
// carries a unique identity.

func validateGrid(snapshot domain.ForecastSnapshot) *phase {
	p := &phase{name: "Phase 1: Grid Integrity"}

	seen := make(map[string]int, len(snapshot.Points))
	for i, pt := range snapshot.Points {
		if pt.Latitude < -90 || pt.Latitude > 90 {
			p.errorf("point %d: latitude %g out of range", i, pt.Latitude)
		}
		if pt.Longitude < -180 || pt.Longitude >= 180 {
			p.errorf("point %d: longitude %g out of range", i, pt.Longitude)
		}
		if pt.Probability <= 0 || pt.Probability > 100 {
			p.errorf("point %d: probability %g out of (0, 100]", i, pt.Probability)
		}
		if pt.ID == "" {
			p.errorf("point %d: missing ID", i)
		} else if j, dup := seen[pt.ID]; dup {
			p.errorf("point %d: ID %s duplicates point %d", i, pt.ID, j)
		} else {
			seen[pt.ID] = i
		}
	}
	return p
}

// ── Phase 2: Look Geometry ──
// Azimuth, elevation, and distance stay inside their documented ranges for
// every point, and the degenerate same-coordinate case is exact.

func validateGeometry(snapshot domain.ForecastSnapshot, observer domain.Observer, params domain.OutlookParams) *phase {
	p := &phase{name: "Phase 2: Look Geometry"}

	for i, pt := range snapshot.Points {
		look := domain.ComputeLookGeometry(
			observer.Latitude, observer.Longitude, observer.AltitudeMeters,
			pt.Latitude, pt.Longitude, params.TargetAltMeters,
		)
		if look.AzimuthDegrees < 0 || look.AzimuthDegrees >= 360 {
			p.errorf("point %d: azimuth %g out of [0, 360)", i, look.AzimuthDegrees)
		}
		if look.ElevationDegrees < -90 || look.ElevationDegrees > 90 {
			p.errorf("point %d: elevation %g out of [-90, 90]", i, look.ElevationDegrees)
		}
		if look.SurfaceDistanceMeters < 0 {
			p.errorf("point %d: negative surface distance %g", i, look.SurfaceDistanceMeters)
		}
	}

	overhead := domain.ComputeLookGeometry(
		observer.Latitude, observer.Longitude, observer.AltitudeMeters,
		observer.Latitude, observer.Longitude, params.TargetAltMeters,
	)
	if overhead.AzimuthDegrees != 0 || overhead.ElevationDegrees != 90 || overhead.SurfaceDistanceMeters != 0 {
		p.errorf("overhead case: got az=%g el=%g dist=%g, want 0/90/0",
			overhead.AzimuthDegrees, overhead.ElevationDegrees, overhead.SurfaceDistanceMeters)
	}
	return p
}

// ── Phase 3: Scoring Bounds ──
// Viewing chance never exceeds the base probability, stays in [0, 100], and
// is exactly zero below the horizon cutoff.

func validateScoring(snapshot domain.ForecastSnapshot, observer domain.Observer, params domain.OutlookParams, scoring domain.ScoringConfig) *phase {
	p := &phase{name: "Phase 3: Scoring Bounds"}

	for i, pt := range snapshot.Points {
		look := domain.ComputeLookGeometry(
			observer.Latitude, observer.Longitude, observer.AltitudeMeters,
			pt.Latitude, pt.Longitude, params.TargetAltMeters,
		)
		chance := scoring.ViewingChance(pt.Probability, look)

		if chance < 0 || chance > 100 {
			p.errorf("point %d: chance %g out of [0, 100]", i, chance)
		}
		if chance > pt.Probability+1e-9 {
			p.errorf("point %d: chance %g exceeds base probability %g", i, chance, pt.Probability)
		}
		if look.ElevationDegrees < -2 && chance != 0 {
			p.errorf("point %d: elevation %g below cutoff but chance is %g",
				i, look.ElevationDegrees, chance)
		}
	}
	return p
}

// ── Phase 4: Highlight Diversity ──
// The diverse sample respects the cap, the probability threshold, descending
// order, and its coarse-bin spread matches what the two-pass selection
// guarantees.

func validateDiversity(snapshot domain.ForecastSnapshot, observer domain.Observer, params domain.OutlookParams) *phase {
	p := &phase{name: "Phase 4: Highlight Diversity"}

	hemisphere := domain.NorthernHemisphere
	if observer.Latitude < 0 {
		hemisphere = domain.SouthernHemisphere
	}

	selected := domain.SelectDiverseTop(snapshot.Points, hemisphere, params.MaxHighlights, params.MinProbability)

	if len(selected) > params.MaxHighlights {
		p.errorf("selected %d points, cap is %d", len(selected), params.MaxHighlights)
	}

	seen := map[string]bool{}
	for i, pt := range selected {
		if !hemisphere.Contains(pt.Latitude) {
			p.errorf("selected %d: latitude %g outside the %s hemisphere", i, pt.Latitude, hemisphere)
		}
		if pt.Probability < params.MinProbability {
			p.errorf("selected %d: probability %g below threshold %g", i, pt.Probability, params.MinProbability)
		}
		if i > 0 && selected[i-1].Probability < pt.Probability {
			p.errorf("selected %d: not sorted by probability descending", i)
		}
		if seen[pt.ID] {
			p.errorf("selected %d: duplicate identity %s", i, pt.ID)
		}
		seen[pt.ID] = true
	}

	// The coarse pass visits every coarse bin before the fine backfill may
	// reuse one, so the selection's coarse-bin count equals the smaller of
	// the cap and the eligible bin count.
	eligibleBins := map[[2]int]bool{}
	for _, pt := range snapshot.Points {
		if hemisphere.Contains(pt.Latitude) && pt.Probability >= params.MinProbability {
			eligibleBins[coarseBin(pt)] = true
		}
	}
	selectedBins := map[[2]int]bool{}
	for _, pt := range selected {
		selectedBins[coarseBin(pt)] = true
	}
	want := min(params.MaxHighlights, len(eligibleBins))
	if len(selectedBins) != want {
		p.errorf("coarse-bin spread: %d distinct bins, want %d", len(selectedBins), want)
	}
	return p
}

func coarseBin(pt *domain.GeoPoint) [2]int {
	return [2]int{
		int(math.Floor(pt.Latitude / 8)),
		int(math.Floor(pt.Longitude / 15)),
	}
}

// ── Phase 5: Heading Continuity ──
// A rotating device heading never produces a rotation jump larger than 180
// degrees, including across the 360/0 wrap.

func validateHeadingContinuity(snapshot domain.ForecastSnapshot, observer domain.Observer, params domain.OutlookParams, scoring domain.ScoringConfig) *phase {
	p := &phase{name: "Phase 5: Heading Continuity"}

	hemisphere := domain.NorthernHemisphere
	if observer.Latitude < 0 {
		hemisphere = domain.SouthernHemisphere
	}
	pick, ok := scoring.SelectBest(snapshot.Points, observer, hemisphere, params.TargetAltMeters)
	if !ok {
		p.errorf("no best point to track")
		return p
	}

	tracker := domain.HeadingTracker{}
	prev := 0.0
	first := true
	// Two full clockwise spins in 10-degree steps, crossing north twice.
	for step := 0; step <= 72; step++ {
		heading := math.Mod(float64(step*10)+350, 360)
		rotation := tracker.Update(heading, pick.Look.AzimuthDegrees)
		if !first {
			if delta := math.Abs(rotation - prev); delta > 180 {
				p.errorf("step %d: rotation jumped %g degrees (from %g to %g)", step, delta, prev, rotation)
			}
		}
		prev = rotation
		first = false
	}
	return p
}
