package fakeapi

import (
	_ "embed"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/Domenick1991/skyclient/internal/domain"
	"gopkg.in/yaml.v3"
)

//go:embed seed/catalog.yaml
var defaultCatalog []byte

type seedAirport struct {
	City     string `yaml:"city"`
	LongName string `yaml:"longName"`
}

type seedLeg struct {
	From     string `yaml:"from"`
	To       string `yaml:"to"`
	Day      int    `yaml:"day"`
	At       string `yaml:"at"`
	Duration string `yaml:"duration"`
}

type seedFlight struct {
	ID       int64     `yaml:"id"`
	FlightNr string    `yaml:"flightNr"`
	Airline  string    `yaml:"airline"`
	Price    float64   `yaml:"price"`
	Legs     []seedLeg `yaml:"legs"`
}

type seedCatalog struct {
	Airports map[string]seedAirport `yaml:"airports"`
	Flights  []seedFlight           `yaml:"flights"`
}

// LoadCatalog reads the YAML catalog at path, or the built-in one when path
// is empty. Leg days are counted from the UTC midnight of now.
func LoadCatalog(path string, now time.Time) ([]domain.Flight, error) {
	if path == "" {
		return ParseCatalog(defaultCatalog, now)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return ParseCatalog(data, now)
}

// ParseCatalog decodes a catalog and validates every flight with
// domain.ParseFlight.
func ParseCatalog(data []byte, now time.Time) ([]domain.Flight, error) {
	var catalog seedCatalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	base := now.UTC().Truncate(24 * time.Hour)
	flights := make([]domain.Flight, 0, len(catalog.Flights))
	for _, sf := range catalog.Flights {
		raw := domain.RawFlight{ID: sf.ID, FlightNr: sf.FlightNr, Airline: sf.Airline, Price: sf.Price}
		for i, sl := range sf.Legs {
			leg, err := catalog.leg(base, sl)
			if err != nil {
				return nil, fmt.Errorf("flight %d leg %d: %w", sf.ID, i, err)
			}
			raw.Legs = append(raw.Legs, leg)
		}
		flight, err := domain.ParseFlight(raw)
		if err != nil {
			return nil, fmt.Errorf("flight %d: %w", sf.ID, err)
		}
		flights = append(flights, flight)
	}
	return flights, nil
}

func (c seedCatalog) leg(base time.Time, sl seedLeg) (domain.RawLeg, error) {
	from, err := c.airport(sl.From)
	if err != nil {
		return domain.RawLeg{}, err
	}
	to, err := c.airport(sl.To)
	if err != nil {
		return domain.RawLeg{}, err
	}
	clock, err := time.Parse("15:04", sl.At)
	if err != nil {
		return domain.RawLeg{}, fmt.Errorf("departure time %q: %w", sl.At, err)
	}
	duration, err := time.ParseDuration(sl.Duration)
	if err != nil {
		return domain.RawLeg{}, fmt.Errorf("duration %q: %w", sl.Duration, err)
	}

	departure := base.AddDate(0, 0, sl.Day).Add(time.Duration(clock.Hour())*time.Hour + time.Duration(clock.Minute())*time.Minute)
	return domain.RawLeg{
		DepartureAirport: from,
		ArrivalAirport:   to,
		DepartureTime:    departure.Format(time.RFC3339),
		ArrivalTime:      departure.Add(duration).Format(time.RFC3339),
	}, nil
}

func (c seedCatalog) airport(code string) (*domain.Airport, error) {
	a, ok := c.Airports[code]
	if !ok {
		return nil, fmt.Errorf("unknown airport %q", code)
	}
	return &domain.Airport{City: a.City, ShortName: code, LongName: a.LongName}, nil
}
