package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Airport is an immutable value identified by all three fields.
type Airport struct {
	City      string `json:"city"`
	ShortName string `json:"shortName"`
	LongName  string `json:"longName"`
}

func (a Airport) String() string {
	return fmt.Sprintf("%s (%s)", a.City, a.ShortName)
}

// FlightLeg is one direct segment between two airports.
type FlightLeg struct {
	DepartureAirport Airport
	ArrivalAirport   Airport
	DepartureTime    time.Time
	ArrivalTime      time.Time
}

func (l FlightLeg) Duration() time.Duration {
	return l.ArrivalTime.Sub(l.DepartureTime)
}

// RawLeg and RawFlight are the unvalidated wire shape of an itinerary.
// Times are RFC 3339 strings.
type RawLeg struct {
	DepartureAirport *Airport `json:"departureAirport"`
	ArrivalAirport   *Airport `json:"arrivalAirport"`
	DepartureTime    string   `json:"departureTime"`
	ArrivalTime      string   `json:"arrivalTime"`
}

type RawFlight struct {
	ID       int64    `json:"id"`
	FlightNr string   `json:"flightNr"`
	Airline  string   `json:"airline"`
	Price    float64  `json:"price"`
	Legs     []RawLeg `json:"legs"`
}

// Flight is a validated, immutable chain of legs. Build it with ParseFlight.
type Flight struct {
	id       int64
	flightNr string
	airline  string
	price    float64
	legs     []FlightLeg
}

// ParseFlight validates raw and returns the Flight it describes.
// Every adjacent leg pair must share the connecting airport and the next leg
// must not depart before the previous one lands.
func ParseFlight(raw RawFlight) (Flight, error) {
	verr := &ValidationError{}

	if raw.ID <= 0 {
		verr.add("id", "must be a positive identifier", nil)
	}
	if strings.TrimSpace(raw.FlightNr) == "" {
		verr.add("flightNr", "is required", nil)
	}
	if strings.TrimSpace(raw.Airline) == "" {
		verr.add("airline", "is required", nil)
	}
	if raw.Price <= 0 {
		verr.add("price", "must be positive", nil)
	}
	if len(raw.Legs) == 0 {
		verr.add("legs", "at least one leg is required", nil)
	}

	legs := make([]FlightLeg, 0, len(raw.Legs))
	for i, rl := range raw.Legs {
		leg, ok := parseLeg(fmt.Sprintf("legs[%d]", i), rl, verr)
		if !ok {
			continue
		}
		if i > 0 && len(legs) == i {
			prev := legs[i-1]
			field := fmt.Sprintf("legs[%d]", i)
			if prev.ArrivalAirport != leg.DepartureAirport {
				verr.add(field+".departureAirport",
					fmt.Sprintf("departs from %s but the previous leg arrives at %s", leg.DepartureAirport.ShortName, prev.ArrivalAirport.ShortName),
					ErrDiscontinuousChain)
			}
			if leg.DepartureTime.Before(prev.ArrivalTime) {
				verr.add(field+".departureTime",
					fmt.Sprintf("departs at %s before the previous leg arrives at %s", leg.DepartureTime.Format(time.RFC3339), prev.ArrivalTime.Format(time.RFC3339)),
					ErrLegSequence)
			}
		}
		legs = append(legs, leg)
	}

	if err := verr.orNil(); err != nil {
		return Flight{}, err
	}

	return Flight{
		id:       raw.ID,
		flightNr: raw.FlightNr,
		airline:  raw.Airline,
		price:    raw.Price,
		legs:     legs,
	}, nil
}

func parseLeg(field string, rl RawLeg, verr *ValidationError) (FlightLeg, bool) {
	ok := true
	var leg FlightLeg

	if rl.DepartureAirport == nil || rl.DepartureAirport.ShortName == "" {
		verr.add(field+".departureAirport", "is required", nil)
		ok = false
	} else {
		leg.DepartureAirport = *rl.DepartureAirport
	}
	if rl.ArrivalAirport == nil || rl.ArrivalAirport.ShortName == "" {
		verr.add(field+".arrivalAirport", "is required", nil)
		ok = false
	} else {
		leg.ArrivalAirport = *rl.ArrivalAirport
	}

	dep, err := time.Parse(time.RFC3339, rl.DepartureTime)
	if err != nil {
		verr.add(field+".departureTime", "must be an RFC 3339 timestamp", nil)
		ok = false
	}
	arr, err := time.Parse(time.RFC3339, rl.ArrivalTime)
	if err != nil {
		verr.add(field+".arrivalTime", "must be an RFC 3339 timestamp", nil)
		ok = false
	}
	if !ok {
		return FlightLeg{}, false
	}

	if !arr.After(dep) {
		verr.add(field+".arrivalTime", "must be after the departure time", nil)
		return FlightLeg{}, false
	}
	leg.DepartureTime = dep
	leg.ArrivalTime = arr
	return leg, true
}

func (f Flight) ID() int64        { return f.id }
func (f Flight) FlightNr() string { return f.flightNr }
func (f Flight) Airline() string  { return f.airline }
func (f Flight) Price() float64   { return f.price }

// Legs returns a copy of the leg chain.
func (f Flight) Legs() []FlightLeg {
	out := make([]FlightLeg, len(f.legs))
	copy(out, f.legs)
	return out
}

func (f Flight) IsZero() bool { return len(f.legs) == 0 }

func (f Flight) DepartureAirport() Airport { return f.legs[0].DepartureAirport }
func (f Flight) ArrivalAirport() Airport   { return f.legs[len(f.legs)-1].ArrivalAirport }
func (f Flight) DepartureTime() time.Time  { return f.legs[0].DepartureTime }
func (f Flight) ArrivalTime() time.Time    { return f.legs[len(f.legs)-1].ArrivalTime }

func (f Flight) IsDirect() bool { return len(f.legs) == 1 }

// Stops is the number of intermediary airports.
func (f Flight) Stops() int { return len(f.legs) - 1 }

func (f Flight) TotalDuration() time.Duration {
	return f.ArrivalTime().Sub(f.DepartureTime())
}

// Layovers returns the ground time at each intermediary airport, in order.
func (f Flight) Layovers() []time.Duration {
	if len(f.legs) < 2 {
		return nil
	}
	out := make([]time.Duration, 0, len(f.legs)-1)
	for i := 1; i < len(f.legs); i++ {
		out = append(out, f.legs[i].DepartureTime.Sub(f.legs[i-1].ArrivalTime))
	}
	return out
}

// AirTime is the sum of leg durations, excluding layovers.
func (f Flight) AirTime() time.Duration {
	var total time.Duration
	for _, l := range f.legs {
		total += l.Duration()
	}
	return total
}

// HasDeparted reports whether the first leg left at or before now.
func (f Flight) HasDeparted(now time.Time) bool {
	return !f.DepartureTime().After(now)
}

// Equal compares flights by identifier only.
func (f Flight) Equal(other Flight) bool {
	return f.id == other.id
}

// Raw returns the wire shape of f.
func (f Flight) Raw() RawFlight {
	legs := make([]RawLeg, 0, len(f.legs))
	for _, l := range f.legs {
		dep, arr := l.DepartureAirport, l.ArrivalAirport
		legs = append(legs, RawLeg{
			DepartureAirport: &dep,
			ArrivalAirport:   &arr,
			DepartureTime:    l.DepartureTime.Format(time.RFC3339),
			ArrivalTime:      l.ArrivalTime.Format(time.RFC3339),
		})
	}
	return RawFlight{
		ID:       f.id,
		FlightNr: f.flightNr,
		Airline:  f.airline,
		Price:    f.price,
		Legs:     legs,
	}
}

func (f Flight) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.Raw())
}

// UnmarshalJSON runs the decoded value through ParseFlight.
func (f *Flight) UnmarshalJSON(data []byte) error {
	var raw RawFlight
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: flight: %v", ErrValidation, err)
	}
	parsed, err := ParseFlight(raw)
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// FormatDuration renders d as "<h>h <m>m".
func FormatDuration(d time.Duration) string {
	d = d.Round(time.Minute)
	return fmt.Sprintf("%dh %dm", int(d.Hours()), int(d.Minutes())%60)
}
