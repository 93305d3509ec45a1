package domain

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// RawSnapshot represents an unprocessed forecast message from the source topic.
type RawSnapshot struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// GeoPoint is one cell of the aurora forecast grid. Coordinates and
// probability are fixed at parse time; Name is filled in at most once per
// identity by the name-resolution service (see ApplyResolvedNames).
type GeoPoint struct {
	ID          string  `json:"id"`
	Latitude    float64 `json:"lat"`
	Longitude   float64 `json:"lon"`
	Probability float64 `json:"probability"` // base aurora probability, 0-100
	Name        string  `json:"name,omitempty"`
}

// Observer is the viewer's current position. It is replaced wholesale on
// each location update; no history is kept.
type Observer struct {
	Latitude       float64 `json:"lat"`
	Longitude      float64 `json:"lon"`
	AltitudeMeters float64 `json:"alt_m"`
}

// Hemisphere splits the globe at the equator. Points with latitude >= 0
// belong to the north.
type Hemisphere int

const (
	NorthernHemisphere Hemisphere = iota
	SouthernHemisphere
)

func (h Hemisphere) String() string {
	if h == NorthernHemisphere {
		return "north"
	}
	return "south"
}

// Contains reports whether a latitude falls in the hemisphere.
func (h Hemisphere) Contains(latitude float64) bool {
	if h == NorthernHemisphere {
		return latitude >= 0
	}
	return latitude < 0
}

// ForecastSnapshot is one parsed forecast refresh. Point ordering and count
// are not stable between snapshots; identity continuity comes from the
// coordinate-derived point IDs.
type ForecastSnapshot struct {
	ForecastTime time.Time
	Points       []*GeoPoint
}

// ovationPayload mirrors the NOAA OVATION latest-forecast JSON: a global
// 1-degree grid of [longitude, latitude, probability] triples with
// longitude in 0-359 degrees east.
type ovationPayload struct {
	ForecastTime string      `json:"Forecast Time"`
	Coordinates  [][]float64 `json:"coordinates"`
}

// ParseForecast deserializes a RawSnapshot's value into a ForecastSnapshot.
// Zero-probability cells are dropped (the vast majority of the grid), east
// longitudes are normalized into [-180, 180), and probabilities are clamped
// to [0, 100]. A malformed forecast timestamp falls back to the message
// timestamp.
func ParseForecast(raw RawSnapshot) (ForecastSnapshot, error) {
	var payload ovationPayload
	if err := json.Unmarshal(raw.Value, &payload); err != nil {
		return ForecastSnapshot{}, fmt.Errorf("parse forecast: %w", err)
	}

	forecastTime := raw.Timestamp
	if t, err := time.Parse(time.RFC3339, payload.ForecastTime); err == nil {
		forecastTime = t
	}

	points := make([]*GeoPoint, 0, len(payload.Coordinates)/8)
	for _, cell := range payload.Coordinates {
		if len(cell) < 3 {
			continue
		}
		lon, lat, probability := cell[0], cell[1], cell[2]
		if probability <= 0 {
			continue
		}
		if lat < -90 || lat > 90 {
			continue
		}
		if lon >= 180 && lon < 360 {
			lon -= 360
		}
		if lon < -180 || lon >= 180 {
			continue
		}
		points = append(points, &GeoPoint{
			ID:          pointID(lat, lon),
			Latitude:    lat,
			Longitude:   lon,
			Probability: clamp(probability, 0, 100),
		})
	}

	return ForecastSnapshot{ForecastTime: forecastTime, Points: points}, nil
}

// pointID produces a deterministic identity from the grid coordinate.
// The same cell keeps the same ID across forecast refreshes, which is what
// lets cached place names and display animations survive a refresh, and
// what makes name application idempotent per identity.
func pointID(lat, lon float64) string {
	input := fmt.Sprintf("%.2f|%.2f", lat, lon)
	hash := sha256.Sum256([]byte(input))
	return "pt-" + hex.EncodeToString(hash[:8])
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
