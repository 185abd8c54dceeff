package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// AuthUseCase describes registration, login and profile lookup.
type AuthUseCase interface {
	Register(ctx context.Context, in RegisterInput) (AuthResult, error)
	Login(ctx context.Context, email, password string) (AuthResult, error)
	Profile(ctx context.Context, id uuid.UUID) (Profile, error)
}

// RegisterInput carries the registration form. Every field is required.
type RegisterInput struct {
	Email      string
	Password   string
	Name       string
	Lastname   string
	Commission string
	Legajo     string
}

type AuthResult struct {
	User  User
	Token string
}

type authService struct {
	repo       UserRepository
	tokens     TokenGenerator
	bcryptCost int
}

// NewAuthService returns default implementation of AuthUseCase.
// A bcryptCost outside bcrypt's accepted range falls back to bcrypt.DefaultCost.
func NewAuthService(repo UserRepository, tokens TokenGenerator, bcryptCost int) AuthUseCase {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &authService{repo: repo, tokens: tokens, bcryptCost: bcryptCost}
}

func (in RegisterInput) validate() error {
	fields := []struct{ name, value string }{
		{"email", in.Email},
		{"password", in.Password},
		{"name", in.Name},
		{"lastname", in.Lastname},
		{"commission", in.Commission},
		{"legajo", in.Legajo},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return fmt.Errorf("%w: %s is required", ErrInvalidInput, f.name)
		}
	}
	if !strings.Contains(in.Email, "@") {
		return fmt.Errorf("%w: email is malformed", ErrInvalidInput)
	}
	return nil
}

func (s *authService) Register(ctx context.Context, in RegisterInput) (AuthResult, error) {
	if err := in.validate(); err != nil {
		return AuthResult{}, err
	}

	// If user exists, fail fast (best-effort check; the unique index is authoritative)
	if _, err := s.repo.GetByEmail(ctx, in.Email); err == nil {
		return AuthResult{}, ErrUserAlreadyExists
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return AuthResult{}, err
	}

	user := User{
		ID:           uuid.New(),
		Email:        strings.ToLower(strings.TrimSpace(in.Email)),
		PasswordHash: string(passwordHash),
		Name:         strings.TrimSpace(in.Name),
		Lastname:     strings.TrimSpace(in.Lastname),
		Commission:   strings.TrimSpace(in.Commission),
		Legajo:       strings.TrimSpace(in.Legajo),
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return AuthResult{}, err
	}
	token, err := s.tokens.Generate(ctx, user)
	if err != nil {
		return AuthResult{}, err
	}
	return AuthResult{User: user, Token: token}, nil
}

// Login does not tell an unknown email apart from a wrong password.
func (s *authService) Login(ctx context.Context, email, password string) (AuthResult, error) {
	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return AuthResult{}, ErrInvalidCredentials
		}
		return AuthResult{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return AuthResult{}, ErrInvalidCredentials
	}
	token, err := s.tokens.Generate(ctx, user)
	if err != nil {
		return AuthResult{}, err
	}
	return AuthResult{User: user, Token: token}, nil
}

func (s *authService) Profile(ctx context.Context, id uuid.UUID) (Profile, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Profile{}, err
	}
	return user.Profile(), nil
}
