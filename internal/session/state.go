package session

import (
	"errors"
	"fmt"

	"github.com/Domenick1991/skyclient/internal/domain"
)

var ErrNotSignedIn = errors.New("session: not signed in")

type Status int

const (
	StatusBootstrapping Status = iota
	StatusSignedOut
	StatusSignedIn
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusBootstrapping:
		return "bootstrapping"
	case StatusSignedOut:
		return "signed_out"
	case StatusSignedIn:
		return "signed_in"
	case StatusFailed:
		return "failed"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

type Profile struct {
	Username string
	Email    string
}

// State is a snapshot of the session. Token and Profile are set only while
// Status is StatusSignedIn; Preferences always hold a value.
type State struct {
	Status      Status
	Loading     bool
	Token       string
	Profile     Profile
	Preferences domain.Preferences
	// Err is the last failure. In StatusFailed it is the cause.
	Err error
}

func initialState() State {
	return State{Status: StatusBootstrapping, Preferences: domain.DefaultPreferences()}
}

func signedOutState() State {
	return State{Status: StatusSignedOut, Preferences: domain.DefaultPreferences()}
}

func (s State) SignedIn() bool { return s.Status == StatusSignedIn }

// Credential returns what a signed-in session authenticates with.
func (s State) Credential() (domain.Credential, error) {
	if !s.SignedIn() {
		return domain.Credential{}, ErrNotSignedIn
	}
	return domain.Credential{Email: s.Profile.Email, Username: s.Profile.Username, Token: s.Token}, nil
}

// SignInError is the cause of StatusFailed after a rejected sign-in or
// registration.
type SignInError struct {
	Op  string
	Err error
}

func (e *SignInError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *SignInError) Unwrap() error { return e.Err }
