// Command genforecast generates a synthetic OVATION-style aurora forecast
// fixture: two auroral ovals with longitudinal structure and noise on the
// standard 1-degree grid. It uses the actual domain parser to verify the
// fixture and print stats, so test assertions can be copied from its output.
//
// Usage:
//
//	go run ./cmd/genforecast -out data/mock/ovation_snapshot.json
//	go run ./cmd/genforecast -brokers localhost:9092 -topic ovation-forecasts
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/couchcryptid/aurora-sight/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// ovationFixture matches the NOAA OVATION latest-forecast JSON shape.
type ovationFixture struct {
	ForecastTime string      `json:"Forecast Time"`
	Coordinates  [][]float64 `json:"coordinates"`
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "", "output path for the forecast JSON fixture")
	brokers := flag.String("brokers", "", "comma-separated Kafka brokers to publish to")
	topic := flag.String("topic", "ovation-forecasts", "Kafka topic for publishing")
	forecastTime := flag.String("forecast-time", "2026-03-14T09:35:00Z", "forecast timestamp (RFC3339)")
	seed := flag.Int64("seed", 1, "random seed for reproducible fixtures")
	peak := flag.Float64("peak", 85, "peak probability at the oval center")
	ovalLat := flag.Float64("oval-lat", 67, "magnetic latitude of the oval center, degrees")
	ovalWidth := flag.Float64("oval-width", 5, "oval half-width, degrees of latitude")
	flag.Parse()

	if *out == "" && *brokers == "" {
		flag.Usage()
		return fmt.Errorf("at least one of -out or -brokers is required")
	}

	ft, err := time.Parse(time.RFC3339, *forecastTime)
	if err != nil {
		return fmt.Errorf("invalid -forecast-time: %w", err)
	}

	fixture := generate(rand.New(rand.NewSource(*seed)), ft, *peak, *ovalLat, *ovalWidth)

	data, err := json.Marshal(fixture)
	if err != nil {
		return fmt.Errorf("marshal fixture: %w", err)
	}

	if *out != "" {
		if err := writeFixture(*out, fixture); err != nil {
			return fmt.Errorf("writing fixture: %w", err)
		}
		log.Printf("wrote fixture: %s", *out)
	}

	if *brokers != "" {
		if err := publish(strings.Split(*brokers, ","), *topic, ft, data); err != nil {
			return fmt.Errorf("publishing fixture: %w", err)
		}
		log.Printf("published to %s", *topic)
	}

	return printStats(data, ft)
}

// generate builds two auroral ovals mirrored across the equator. Intensity
// falls off as a Gaussian in latitude around the oval center and is
// modulated in longitude so one sector peaks, matching the night-side bias
// of real OVATION output.
func generate(rng *rand.Rand, ft time.Time, peak, ovalLat, ovalWidth float64) ovationFixture {
	coords := make([][]float64, 0, 360*181)
	for lon := 0; lon < 360; lon++ {
		sector := 0.55 + 0.45*math.Cos(float64(lon-210)*math.Pi/180)
		for lat := -90; lat <= 90; lat++ {
			dist := math.Abs(math.Abs(float64(lat)) - ovalLat)
			p := peak * sector * math.Exp(-(dist*dist)/(2*ovalWidth*ovalWidth))
			p += rng.Float64()*4 - 2
			prob := math.Round(p)
			if prob < 0 {
				prob = 0
			}
			if prob > 100 {
				prob = 100
			}
			coords = append(coords, []float64{float64(lon), float64(lat), prob})
		}
	}
	return ovationFixture{
		ForecastTime: ft.Format(time.RFC3339),
		Coordinates:  coords,
	}
}

func writeFixture(path string, fixture ovationFixture) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(fixture, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}

func publish(brokers []string, topic string, ft time.Time, data []byte) error {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		RequiredAcks: kafkago.RequireAll,
	}
	defer w.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return w.WriteMessages(ctx, kafkago.Message{
		Key:   []byte(ft.Format(time.RFC3339)),
		Value: data,
	})
}

// printStats runs the fixture through the real parser and reports the
// numbers the test suites assert on.
func printStats(data []byte, ft time.Time) error {
	snapshot, err := domain.ParseForecast(domain.RawSnapshot{Value: data, Timestamp: ft})
	if err != nil {
		return fmt.Errorf("fixture does not parse: %w", err)
	}

	var north, south int
	var maxProb float64
	var maxPoint *domain.GeoPoint
	for _, p := range snapshot.Points {
		if domain.NorthernHemisphere.Contains(p.Latitude) {
			north++
		} else {
			south++
		}
		if p.Probability > maxProb {
			maxProb = p.Probability
			maxPoint = p
		}
	}

	fmt.Println("\n=== Stats for updating test assertions ===")
	fmt.Printf("Forecast time: %s\n", snapshot.ForecastTime.Format(time.RFC3339))
	fmt.Printf("Non-zero points: %d (north=%d, south=%d)\n", len(snapshot.Points), north, south)
	if maxPoint != nil {
		fmt.Printf("Peak: %.0f%% at (%.0f, %.0f), id %s\n",
			maxProb, maxPoint.Latitude, maxPoint.Longitude, maxPoint.ID)
	}
	return nil
}
