package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"tracker/internal/auth"
	"tracker/internal/core"
	"tracker/internal/log"
	"tracker/internal/storage"
)

// TokenType is the token_type returned with every issued token.
const TokenType = "bearer"

// Registration is a sign-up request.
type Registration struct {
	Email    string
	Password string
	Name     string
}

// Token is what register and login hand back to the client.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// AuthService registers users and exchanges credentials for tokens.
type AuthService struct {
	users     storage.UserStore
	hasher    *auth.PasswordHasher
	tokens    *auth.TokenManager
	logger    *log.Logger
	now       func() time.Time
	dummyHash string
}

func NewAuthService(users storage.UserStore, hasher *auth.PasswordHasher, tokens *auth.TokenManager, logger *log.Logger) (*AuthService, error) {
	// Compared against on unknown emails so both login failure paths
	// spend the same bcrypt work.
	dummy, err := hasher.Hash("tracker-dummy-password")
	if err != nil {
		return nil, fmt.Errorf("prepare dummy hash: %w", err)
	}
	return &AuthService{
		users:     users,
		hasher:    hasher,
		tokens:    tokens,
		logger:    logger.WithComponent(log.ComponentAuth),
		now:       time.Now,
		dummyHash: dummy,
	}, nil
}

func validateCredentials(email, password string) error {
	if strings.TrimSpace(email) == "" {
		return core.NewValidationError("email", "field required")
	}
	if password == "" {
		return core.NewValidationError("password", "field required")
	}
	return nil
}

// Register creates the user and returns a token for it. The email is
// stored exactly as given.
func (s *AuthService) Register(ctx context.Context, r Registration) (*Token, error) {
	if err := validateCredentials(r.Email, r.Password); err != nil {
		return nil, err
	}

	_, err := s.users.FindUserByEmail(ctx, r.Email)
	if err == nil {
		return nil, core.ErrEmailTaken
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("lookup email: %w", err)
	}

	hash, err := s.hasher.Hash(r.Password)
	if err != nil {
		return nil, err
	}

	u, err := s.users.InsertUser(ctx, core.User{
		Email:          r.Email,
		HashedPassword: hash,
		Name:           r.Name,
		CreatedAt:      core.Timestamp(s.now()),
	})
	if errors.Is(err, storage.ErrDuplicate) {
		// Lost a race with a concurrent registration.
		return nil, core.ErrEmailTaken
	}
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}

	s.logger.InfoContext(ctx, "User registered",
		log.FieldUserID, u.ID,
		log.FieldOperation, log.OpRegister)
	return s.issue(u.ID)
}

// Login verifies the credentials. Unknown email and wrong password are
// indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Token, error) {
	if err := validateCredentials(email, password); err != nil {
		return nil, err
	}

	u, err := s.users.FindUserByEmail(ctx, email)
	if errors.Is(err, storage.ErrNotFound) {
		s.hasher.Verify(password, s.dummyHash)
		return nil, core.ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("lookup email: %w", err)
	}
	if !s.hasher.Verify(password, u.HashedPassword) {
		s.logger.WarnContext(ctx, "Login failed",
			log.FieldUserID, u.ID,
			log.FieldOperation, log.OpLogin,
			log.FieldErrorType, log.ErrorTypeAuth)
		return nil, core.ErrInvalidCredentials
	}
	return s.issue(u.ID)
}

func (s *AuthService) issue(userID string) (*Token, error) {
	signed, err := s.tokens.Issue(userID)
	if err != nil {
		return nil, err
	}
	return &Token{AccessToken: signed, TokenType: TokenType}, nil
}
