package session

import "github.com/Domenick1991/skyclient/internal/domain"

// Action is an input to Reduce.
type Action interface {
	Name() string
}

type (
	// Bootstrapped ends the startup check. A nil Credential means signed out.
	Bootstrapped struct {
		Credential  *domain.Credential
		Preferences domain.Preferences
	}
	LoadingStarted struct{}
	SignedIn       struct {
		Credential  domain.Credential
		Preferences domain.Preferences
	}
	SignedOut            struct{}
	Failed               struct{ Err error }
	PreferencesChanged   struct{ Preferences domain.Preferences }
	PreferenceSaveFailed struct{ Err error }
	ErrorCleared         struct{}
)

func (Bootstrapped) Name() string         { return "bootstrapped" }
func (LoadingStarted) Name() string       { return "loading_started" }
func (SignedIn) Name() string             { return "signed_in" }
func (SignedOut) Name() string            { return "signed_out" }
func (Failed) Name() string               { return "failed" }
func (PreferencesChanged) Name() string   { return "preferences_changed" }
func (PreferenceSaveFailed) Name() string { return "preference_save_failed" }
func (ErrorCleared) Name() string         { return "error_cleared" }

// Reduce is the session transition function. It has no side effects.
func Reduce(s State, a Action) State {
	switch a := a.(type) {
	case Bootstrapped:
		if s.Status != StatusBootstrapping {
			return s
		}
		if a.Credential == nil {
			return signedOutState()
		}
		return signedInState(*a.Credential, a.Preferences)

	case LoadingStarted:
		switch s.Status {
		case StatusSignedIn, StatusSignedOut:
			s.Loading = true
			return s
		case StatusFailed:
			next := signedOutState()
			next.Loading = true
			return next
		}
		return s

	case SignedIn:
		return signedInState(a.Credential, a.Preferences)

	case SignedOut:
		return signedOutState()

	case Failed:
		return State{Status: StatusFailed, Preferences: domain.DefaultPreferences(), Err: a.Err}

	case PreferencesChanged:
		if s.Status != StatusSignedIn {
			return s
		}
		s.Preferences = a.Preferences
		s.Err = nil
		return s

	case PreferenceSaveFailed:
		if s.Status != StatusSignedIn {
			return s
		}
		s.Err = a.Err
		return s

	case ErrorCleared:
		if s.Status == StatusFailed {
			return signedOutState()
		}
		s.Err = nil
		return s
	}
	return s
}

func signedInState(cred domain.Credential, prefs domain.Preferences) State {
	return State{
		Status:      StatusSignedIn,
		Token:       cred.Token,
		Profile:     Profile{Username: cred.Username, Email: cred.Email},
		Preferences: prefs,
	}
}
