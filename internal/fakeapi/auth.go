package fakeapi

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Domenick1991/skyclient/internal/logger"
	"github.com/Domenick1991/skyclient/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrSeatLocked         = errors.New("a booking for this passenger is already in progress")
)

type AuthUseCase interface {
	Register(ctx context.Context, fullName, email, password string) (Session, error)
	SignIn(ctx context.Context, email, password string) (Session, error)
	Authenticate(token string) (Account, error)
}

// Session is what a successful sign-in or registration hands back.
type Session struct {
	Token   string
	Account Account
}

type AuthService struct {
	users  repository.UserRepository
	tokens *TokenIssuer
	cost   int
	logger logger.Logger
}

var _ AuthUseCase = (*AuthService)(nil)

type AuthServiceOption func(*AuthService)

// WithHashCost overrides the bcrypt cost; tests use bcrypt.MinCost.
func WithHashCost(cost int) AuthServiceOption {
	return func(s *AuthService) {
		s.cost = cost
	}
}

func NewAuthService(users repository.UserRepository, tokens *TokenIssuer, log logger.Logger, opts ...AuthServiceOption) *AuthService {
	s := &AuthService{
		users:  users,
		tokens: tokens,
		cost:   bcrypt.DefaultCost,
		logger: log.WithFields(map[string]interface{}{"component": "auth"}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *AuthService) Register(ctx context.Context, fullName, email, password string) (Session, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return Session{}, fmt.Errorf("hash password: %w", err)
	}

	user := &repository.User{
		FullName:     strings.TrimSpace(fullName),
		Email:        strings.ToLower(strings.TrimSpace(email)),
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return Session{}, err
	}
	s.logger.Info("user registered", map[string]interface{}{"user_id": user.ID})
	return s.session(user)
}

func (s *AuthService) SignIn(ctx context.Context, email, password string) (Session, error) {
	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, err
	}
	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
		return Session{}, ErrInvalidCredentials
	}
	return s.session(user)
}

func (s *AuthService) Authenticate(token string) (Account, error) {
	return s.tokens.Parse(token)
}

func (s *AuthService) session(user *repository.User) (Session, error) {
	account := Account{UserID: user.ID, Email: user.Email, FullName: user.FullName}
	token, err := s.tokens.Issue(account)
	if err != nil {
		return Session{}, fmt.Errorf("issue token: %w", err)
	}
	return Session{Token: token, Account: account}, nil
}
