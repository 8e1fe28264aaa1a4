package remote

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/Domenick1991/skyclient/internal/domain"
)

type Kind int

const (
	KindUnknown Kind = iota
	KindUnreachable
	KindServer
	KindAuth
	KindValidation
	KindNotFound
	KindDecode
)

func (k Kind) String() string {
	switch k {
	case KindUnreachable:
		return "unreachable"
	case KindServer:
		return "server"
	case KindAuth:
		return "auth"
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindDecode:
		return "decode"
	}
	return "unknown"
}

// Error is returned by HTTPClient for every failed call.
type Error struct {
	Op      string
	Status  int
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Op, e.Kind)
	if e.Status != 0 {
		msg += fmt.Sprintf(" (status %d)", e.Status)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is maps the kind onto the domain error taxonomy.
func (e *Error) Is(target error) bool {
	switch target {
	case domain.ErrNetworkUnreachable:
		return e.Kind == KindUnreachable
	case domain.ErrServer:
		return e.Kind == KindServer
	case domain.ErrAuth:
		return e.Kind == KindAuth
	case domain.ErrValidation:
		return e.Kind == KindValidation || e.Kind == KindDecode
	}
	return false
}

func kindForStatus(status int) Kind {
	switch {
	case status >= 500:
		return KindServer
	case status == http.StatusUnauthorized, status == http.StatusForbidden, status == http.StatusConflict:
		return KindAuth
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity:
		return KindValidation
	case status == http.StatusNotFound:
		return KindNotFound
	}
	return KindUnknown
}

const (
	MsgUnreachable    = "Server seems to be unreachable"
	MsgServer         = "Unexpected server error"
	MsgUnauthorized   = "Invalid email or password"
	MsgConflict       = "An account with this email already exists"
	MsgSessionExpired = "Your session has expired, please sign in again"
	MsgGeneric        = "An unexpected error occurred"
)

// FriendlyMessage turns err into a sentence fit for the user. Unreachable
// wins over server errors, which win over auth errors; anything else gets
// fallback (MsgGeneric when fallback is empty).
func FriendlyMessage(err error, fallback string) string {
	if fallback == "" {
		fallback = MsgGeneric
	}
	if err == nil {
		return fallback
	}
	if errors.Is(err, domain.ErrNetworkUnreachable) {
		return MsgUnreachable
	}
	if errors.Is(err, domain.ErrServer) {
		return MsgServer
	}
	if errors.Is(err, domain.ErrAuth) {
		var rerr *Error
		if errors.As(err, &rerr) {
			switch rerr.Status {
			case http.StatusConflict:
				return MsgConflict
			case http.StatusForbidden:
				return MsgSessionExpired
			}
		}
		return MsgUnauthorized
	}
	return fallback
}
