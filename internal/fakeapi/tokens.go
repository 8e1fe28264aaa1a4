package fakeapi

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Account identifies the user a request is made for.
type Account struct {
	UserID   int64
	Email    string
	FullName string
}

type claims struct {
	Email    string `json:"email"`
	FullName string `json:"name"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and checks HS256 access tokens.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenIssuer(secret string, ttl time.Duration, now func() time.Time) *TokenIssuer {
	if now == nil {
		now = time.Now
	}
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, now: now}
}

func (t *TokenIssuer) Issue(account Account) (string, error) {
	issued := t.now()
	c := claims{
		Email:    account.Email,
		FullName: account.FullName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(account.UserID, 10),
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(issued.Add(t.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(t.secret)
}

// Parse returns the account of a valid, unexpired token.
func (t *TokenIssuer) Parse(token string) (Account, error) {
	var c claims
	_, err := jwt.ParseWithClaims(token, &c, func(*jwt.Token) (interface{}, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return Account{}, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || id <= 0 {
		return Account{}, fmt.Errorf("%w: token has no valid subject", ErrUnauthorized)
	}
	return Account{UserID: id, Email: c.Email, FullName: c.FullName}, nil
}
