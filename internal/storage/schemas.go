package storage

import (
	"github.com/Domenick1991/skyclient/internal/domain"
	"github.com/Domenick1991/skyclient/internal/logger"
)

const (
	CredentialKey  = "__USER_CREDENTIAL"
	PreferencesKey = "__USER_PREFERENCES"
)

const credentialSchema = `{
  "type": "object",
  "properties": {
    "email":    {"type": "string", "minLength": 1},
    "username": {"type": "string", "minLength": 1},
    "token":    {"type": "string", "minLength": 1}
  },
  "required": ["email", "username", "token"]
}`

const preferencesSchema = `{
  "type": "object",
  "properties": {
    "preferredCurrency": {"type": "string", "enum": ["euro", "dollar"]},
    "appearance":        {"type": "string", "enum": ["light", "dark", "system"]},
    "defaultTripType":   {"type": "string", "enum": ["oneWay", "roundTrip"]}
  },
  "required": ["preferredCurrency", "appearance", "defaultTripType"]
}`

// Records groups the two values the session persists.
type Records struct {
	Credential  *Record[domain.Credential]
	Preferences *Record[domain.Preferences]
}

func NewRecords(backend Backend, log logger.Logger) (*Records, error) {
	cred, err := NewRecord[domain.Credential](backend, CredentialKey, credentialSchema, log)
	if err != nil {
		return nil, err
	}
	prefs, err := NewRecord[domain.Preferences](backend, PreferencesKey, preferencesSchema, log)
	if err != nil {
		return nil, err
	}
	return &Records{Credential: cred, Preferences: prefs}, nil
}
