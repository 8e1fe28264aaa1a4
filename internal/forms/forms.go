// Package forms validates user input before it reaches the session or the
// booking services. Every failure is reported as a *domain.ValidationError
// carrying the first message per field.
package forms

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/Domenick1991/skyclient/internal/domain"
	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

type LoginForm struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=3"`
}

type RegisterForm struct {
	FullName        string `json:"fullName" validate:"required,min=2"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=3"`
	ConfirmPassword string `json:"confirmPassword" validate:"eqfield=Password"`
}

type PassengerForm struct {
	FlightID      int64  `json:"flightId" validate:"required,gt=0"`
	PassengerName string `json:"passengerName" validate:"required,min=4,max=100"`
	SeatClass     string `json:"chosenClass" validate:"required,oneof=economy business"`
}

type SearchForm struct {
	RoundTrip       bool       `json:"isRoundTrip"`
	DepartureCity   string     `json:"departureCity" validate:"required,min=2,max=100"`
	DestinationCity string     `json:"destinationCity" validate:"required,min=2,max=100"`
	DepartureDate   time.Time  `json:"departureDate" validate:"required"`
	ReturnDate      *time.Time `json:"returnDate"`
	SeatClass       string     `json:"seatClass" validate:"required,oneof=economy business"`
}

// messages is keyed by "field.tag", falling back to "tag".
var messages = map[string]string{
	"email":                    "Expected a valid email address",
	"fullName.min":             "Name must be at least 2 characters long",
	"fullName.required":        "Name must be at least 2 characters long",
	"password.min":             "A valid password consists of at least 3 characters",
	"password.required":        "A valid password consists of at least 3 characters",
	"confirmPassword.eqfield":  "The two passwords do not match",
	"passengerName.required":   "Passenger name must be at least 4 characters long",
	"passengerName.min":        "Passenger name must be at least 4 characters long",
	"flightId.required":        "Please pick a flight",
	"departureCity.required":   "Please enter a departure city",
	"destinationCity.required": "Please enter a destination city",
	"departureDate.required":   "Please enter a departure date",
	"min":                      "At least %s characters are required",
	"max":                      "At most %s characters are allowed",
	"oneof":                    "Must be one of: %s",
	"required":                 "This field is required",
}

func messageFor(fe validator.FieldError) string {
	if msg, ok := messages[fe.Field()+"."+fe.Tag()]; ok {
		return msg
	}
	if msg, ok := messages[fe.Tag()]; ok {
		if strings.Contains(msg, "%s") {
			return fmt.Sprintf(msg, fe.Param())
		}
		return msg
	}
	return fmt.Sprintf("failed %q validation", fe.Tag())
}

// collector keeps the first message per field, in the order reported.
type collector struct {
	fields []domain.FieldError
	seen   map[string]bool
}

func (c *collector) add(field, message string) {
	if c.seen == nil {
		c.seen = make(map[string]bool)
	}
	if c.seen[field] {
		return
	}
	c.seen[field] = true
	c.fields = append(c.fields, domain.FieldError{Field: field, Message: message})
}

func (c *collector) addAll(err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	for _, fe := range verrs {
		c.add(fe.Field(), messageFor(fe))
	}
	return nil
}

func (c *collector) err() error {
	if len(c.fields) == 0 {
		return nil
	}
	return domain.NewValidationError(c.fields...)
}

func check(form interface{}) error {
	var c collector
	if err := c.addAll(validate.Struct(form)); err != nil {
		return err
	}
	return c.err()
}

func (f LoginForm) Validate() error    { return check(f) }
func (f RegisterForm) Validate() error { return check(f) }

// Validate checks the passenger details and returns the seat class.
func (f PassengerForm) Validate() (domain.SeatClass, error) {
	if err := check(f); err != nil {
		return "", err
	}
	return domain.SeatClass(f.SeatClass), nil
}

// Query validates the search form against now and builds the query.
// Cities are trimmed and lower-cased.
func (f SearchForm) Query(now time.Time) (domain.FlightQuery, error) {
	f.DepartureCity = strings.TrimSpace(f.DepartureCity)
	f.DestinationCity = strings.TrimSpace(f.DestinationCity)

	var c collector
	if err := c.addAll(validate.Struct(f)); err != nil {
		return domain.FlightQuery{}, err
	}

	if !f.DepartureDate.IsZero() && !f.DepartureDate.After(now) {
		c.add("departureDate", "Departure date must be after today")
	}
	if f.RoundTrip != (f.ReturnDate != nil) {
		c.add("returnDate", "Please enter a return date")
	}
	if f.RoundTrip && f.ReturnDate != nil && !f.DepartureDate.IsZero() && f.ReturnDate.Before(f.DepartureDate) {
		c.add("returnDate", "Return date must not be before departure date")
	}
	if err := c.err(); err != nil {
		return domain.FlightQuery{}, err
	}

	q := domain.FlightQuery{
		DepartureCity:   strings.ToLower(f.DepartureCity),
		DestinationCity: strings.ToLower(f.DestinationCity),
		DepartureDate:   f.DepartureDate,
		SeatClass:       domain.SeatClass(f.SeatClass),
	}
	if f.RoundTrip {
		ret := *f.ReturnDate
		q.ReturnDate = &ret
	}
	return q, nil
}
