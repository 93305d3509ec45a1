// Package domain models aurora forecast data and the pure geometry and
// scoring math behind personalized aurora visibility.
//
// # Data Source
//
// Forecasts originate from the NOAA SWPC OVATION aurora model, available at
// https://services.swpc.noaa.gov/json/ovation_aurora_latest.json. The
// upstream collector fetches the latest forecast on a schedule and publishes
// each snapshot verbatim to the Kafka source topic.
//
// # OVATION Data Conventions
//
// Grid format:
//
//	"coordinates": [[longitude, latitude, probability], ...]
//	A global 1-degree grid. Longitude is 0-359 degrees east (normalized to
//	[-180, 180) during parsing), latitude -90 to 90, probability 0-100.
//	Most of the grid is zero; zero-probability cells are dropped so the
//	working set stays in the low thousands of points.
//
// Forecast time:
//
//	"Forecast Time" is RFC 3339. When it fails to parse, the Kafka message
//	timestamp (set by the collector) is used instead.
//
// # Geometry and Scoring
//
// ComputeLookGeometry treats Earth as a sphere of mean radius 6371 km and
// answers where to look: compass azimuth, elevation above the local horizon
// accounting for the aurora's altitude and for curvature dropping it below
// the horizon with distance, and great-circle surface distance.
//
// ViewingChance turns a base forecast probability plus that geometry into a
// 0-100 personal viewing chance. The factor curves are calibration values,
// not physics: aurora reads best low on the horizon rather than overhead,
// and stays visible hundreds of kilometers away because of its altitude.
// The breakpoints live in ScoringConfig; DefaultScoring is the stock tuning.
//
// # Selection
//
// SelectBest picks the highest-chance point per hemisphere. SelectDiverseTop
// reduces the grid to a small display list using two-resolution spatial
// binning (8x15 degree coarse grid, 5x10 degree fine backfill) so one strong
// sector of the oval cannot monopolize the list.
//
// # ID Generation
//
// Point IDs are deterministic SHA-256 hashes of the rounded coordinate, so
// the same grid cell keeps its identity across forecast refreshes. That is
// what lets resolved place names and display animations survive a refresh,
// and what makes ApplyResolvedNames idempotent. See [pointID].
package domain
