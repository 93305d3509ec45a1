package domain

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPoint(lat, lon, probability float64) *GeoPoint {
	return &GeoPoint{
		ID:          pointID(lat, lon),
		Latitude:    lat,
		Longitude:   lon,
		Probability: probability,
	}
}

var fairbanks = Observer{Latitude: 64.8378, Longitude: -147.7164}

// --- SelectBest ---

func TestSelectBest_EmptyAfterFilter(t *testing.T) {
	points := []*GeoPoint{
		testPoint(65, -150, 80),
		testPoint(70, 20, 60),
	}

	_, ok := SelectBest(points, fairbanks, SouthernHemisphere, auroraAltMeters)
	assert.False(t, ok, "all points are northern; southern selection must be empty")

	_, ok = SelectBest(nil, fairbanks, NorthernHemisphere, auroraAltMeters)
	assert.False(t, ok)
}

func TestSelectBest_NeverCrossesHemisphere(t *testing.T) {
	points := []*GeoPoint{
		testPoint(65, -150, 100), // very strong, but northern
		testPoint(-68, 140, 5),   // weak southern point
	}

	pick, ok := SelectBest(points, fairbanks, SouthernHemisphere, auroraAltMeters)
	require.True(t, ok)
	assert.Equal(t, -68.0, pick.Point.Latitude)
}

func TestSelectBest_PrefersHighestChance(t *testing.T) {
	near := testPoint(66, -148, 60)     // close to Fairbanks
	far := testPoint(66, 15, 60)        // same probability, Scandinavia
	stronger := testPoint(65, -150, 90) // close and stronger

	pick, ok := SelectBest([]*GeoPoint{far, near, stronger}, fairbanks, NorthernHemisphere, auroraAltMeters)
	require.True(t, ok)
	assert.Same(t, stronger, pick.Point)
	assert.Positive(t, pick.Chance)
	assert.GreaterOrEqual(t, pick.Look.AzimuthDegrees, 0.0)
	assert.Less(t, pick.Look.AzimuthDegrees, 360.0)
}

// Equator latitude 0 counts as northern.
func TestSelectBest_EquatorIsNorthern(t *testing.T) {
	equatorial := testPoint(0, -150, 50)

	_, ok := SelectBest([]*GeoPoint{equatorial}, fairbanks, SouthernHemisphere, auroraAltMeters)
	assert.False(t, ok)

	pick, ok := SelectBest([]*GeoPoint{equatorial}, fairbanks, NorthernHemisphere, auroraAltMeters)
	require.True(t, ok)
	assert.Same(t, equatorial, pick.Point)
}

func TestSelectBest_TieGoesToFirstEncountered(t *testing.T) {
	// Identical coordinates and probability from two IDs: equal chances,
	// slice order decides.
	first := testPoint(66, -148, 70)
	second := testPoint(66, -148, 70)
	second.ID = "pt-duplicate"

	pick, ok := SelectBest([]*GeoPoint{first, second}, fairbanks, NorthernHemisphere, auroraAltMeters)
	require.True(t, ok)
	assert.Same(t, first, pick.Point)
}

// --- SelectDiverseTop ---

func TestSelectDiverseTop_CoarseBinSpread(t *testing.T) {
	// Two points share the 8x15 degree coarse bin; a third sits in its own.
	// With maxCount 2 the distinct-bin point and the stronger of the pair win.
	strongCluster := testPoint(65, -150, 80)
	weakCluster := testPoint(65.5, -149, 70)
	distinct := testPoint(60, -120, 60)

	got := SelectDiverseTop([]*GeoPoint{weakCluster, distinct, strongCluster}, NorthernHemisphere, 2, 50)

	require.Len(t, got, 2)
	assert.Same(t, strongCluster, got[0])
	assert.Same(t, distinct, got[1])
}

func TestSelectDiverseTop_FinePassBackfills(t *testing.T) {
	// Only two coarse bins exist, so a maxCount of 3 under-fills the coarse
	// pass; the fine 5x10 pass picks up the cluster's second point.
	strongCluster := testPoint(65, -150, 80)
	clusterNeighbor := testPoint(69, -139, 70) // same coarse bin, different fine bin
	distinct := testPoint(60, -120, 60)

	got := SelectDiverseTop([]*GeoPoint{clusterNeighbor, distinct, strongCluster}, NorthernHemisphere, 3, 50)

	require.Len(t, got, 3)
	assert.Same(t, strongCluster, got[0])
	assert.Same(t, clusterNeighbor, got[1])
	assert.Same(t, distinct, got[2])
}

func TestSelectDiverseTop_FinePassSkipsOccupiedFineBins(t *testing.T) {
	// The cluster's second point shares even the fine bin, so it stays out
	// and the result under-fills rather than duplicating a cell.
	strongCluster := testPoint(65, -150, 80)
	sameFineBin := testPoint(66, -148, 70)

	got := SelectDiverseTop([]*GeoPoint{sameFineBin, strongCluster}, NorthernHemisphere, 3, 50)

	require.Len(t, got, 1)
	assert.Same(t, strongCluster, got[0])
}

func TestSelectDiverseTop_FiltersProbabilityAndHemisphere(t *testing.T) {
	points := []*GeoPoint{
		testPoint(65, -150, 80),
		testPoint(64, -100, 10), // below threshold
		testPoint(-65, -150, 90), // southern
	}

	got := SelectDiverseTop(points, NorthernHemisphere, 5, 50)

	require.Len(t, got, 1)
	assert.Equal(t, 80.0, got[0].Probability)
}

func TestSelectDiverseTop_FewerThanMaxCount(t *testing.T) {
	points := []*GeoPoint{
		testPoint(65, -150, 80),
		testPoint(60, -120, 60),
	}

	got := SelectDiverseTop(points, NorthernHemisphere, 10, 50)
	assert.Len(t, got, 2, "no padding when qualifying points run out")

	assert.Empty(t, SelectDiverseTop(nil, NorthernHemisphere, 10, 50))
	assert.Empty(t, SelectDiverseTop(points, NorthernHemisphere, 0, 50))
}

func TestSelectDiverseTop_OrderedByProbabilityDescending(t *testing.T) {
	var points []*GeoPoint
	for i := 0; i < 12; i++ {
		// Spread across coarse bins with mixed probabilities.
		points = append(points, testPoint(45+float64(i%6)*8, -170+float64(i)*25, float64(20+(i*13)%70)))
	}

	got := SelectDiverseTop(points, NorthernHemisphere, 8, 0)
	require.NotEmpty(t, got)
	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i-1].Probability, got[i].Probability)
	}
}

func TestSelectDiverseTop_CoarseBinsUniqueWithoutBackfill(t *testing.T) {
	// Plenty of distinct coarse bins: the coarse pass fills maxCount on its
	// own and no two selections may share an 8x15 bin.
	var points []*GeoPoint
	for lat := 40.0; lat <= 80; lat += 9 {
		for lon := -170.0; lon < 180; lon += 16 {
			points = append(points, testPoint(lat, lon, 30+normalizeDegrees(lat*lon)/6))
		}
	}

	got := SelectDiverseTop(points, NorthernHemisphere, 10, 0)
	require.Len(t, got, 10)

	seen := make(map[string]bool)
	for _, p := range got {
		key := fmt.Sprintf("%v", binFor(p, coarseBinLatDeg, coarseBinLonDeg))
		assert.False(t, seen[key], "coarse bin reused for %v,%v", p.Latitude, p.Longitude)
		seen[key] = true
	}
}
