package domain

import "fmt"

type Currency string

const (
	CurrencyEuro   Currency = "euro"
	CurrencyDollar Currency = "dollar"
)

// Sign returns the symbol shown next to prices.
func (c Currency) Sign() string {
	if c == CurrencyDollar {
		return "$"
	}
	return "€"
}

type Appearance string

const (
	AppearanceLight  Appearance = "light"
	AppearanceDark   Appearance = "dark"
	AppearanceSystem Appearance = "system"
)

type TripType string

const (
	TripTypeOneWay    TripType = "oneWay"
	TripTypeRoundTrip TripType = "roundTrip"
)

type PreferenceKey string

const (
	PreferenceCurrency   PreferenceKey = "preferredCurrency"
	PreferenceAppearance PreferenceKey = "appearance"
	PreferenceTripType   PreferenceKey = "defaultTripType"
)

type Preferences struct {
	PreferredCurrency Currency   `json:"preferredCurrency"`
	Appearance        Appearance `json:"appearance"`
	DefaultTripType   TripType   `json:"defaultTripType"`
}

func DefaultPreferences() Preferences {
	return Preferences{
		PreferredCurrency: CurrencyEuro,
		Appearance:        AppearanceLight,
		DefaultTripType:   TripTypeRoundTrip,
	}
}

// With returns a copy of p with key set to value.
func (p Preferences) With(key PreferenceKey, value string) (Preferences, error) {
	switch key {
	case PreferenceCurrency:
		switch c := Currency(value); c {
		case CurrencyEuro, CurrencyDollar:
			p.PreferredCurrency = c
			return p, nil
		}
	case PreferenceAppearance:
		switch a := Appearance(value); a {
		case AppearanceLight, AppearanceDark, AppearanceSystem:
			p.Appearance = a
			return p, nil
		}
	case PreferenceTripType:
		switch t := TripType(value); t {
		case TripTypeOneWay, TripTypeRoundTrip:
			p.DefaultTripType = t
			return p, nil
		}
	default:
		return p, NewValidationError(FieldError{Field: string(key), Message: "unknown preference"})
	}
	return p, NewValidationError(FieldError{Field: string(key), Message: fmt.Sprintf("unsupported value %q", value)})
}

// Credential is the persisted identity of a signed-in user.
type Credential struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Token    string `json:"token"`
}
