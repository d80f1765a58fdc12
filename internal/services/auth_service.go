package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/muebleria/api/internal/platform/auth"

	domain "github.com/muebleria/api/internal/domain"
	"github.com/muebleria/api/internal/repositories"
)

var (
	// ErrAuthInvalidInput signals malformed registration or login data.
	ErrAuthInvalidInput = errors.New("auth: invalid input")
	// ErrAuthUsernameTaken signals a registration against an existing username.
	ErrAuthUsernameTaken = errors.New("auth: username already taken")
	// ErrAuthEmailTaken signals a registration against an existing email.
	ErrAuthEmailTaken = errors.New("auth: email already registered")
	// ErrAuthInvalidCredentials covers both unknown usernames and wrong
	// passwords so responses never reveal which one failed.
	ErrAuthInvalidCredentials = errors.New("auth: invalid credentials")
)

const minPasswordLength = 8

// TokenIssuer mints signed access tokens for authenticated accounts.
type TokenIssuer interface {
	Issue(uid, username, role string) (string, time.Time, error)
}

// DefaultAuthService registers accounts with bcrypt-hashed passwords and
// issues sessions backed by signed tokens.
type DefaultAuthService struct {
	users  repositories.UserRepository
	issuer TokenIssuer
	cost   int
	clock  func() time.Time
	idgen  func() string
	logger func(context.Context, string, map[string]any)
}

// DefaultAuthServiceDeps lists the collaborators of the auth service.
type DefaultAuthServiceDeps struct {
	Users       repositories.UserRepository
	Issuer      TokenIssuer
	BcryptCost  int
	Clock       func() time.Time
	IDGenerator func() string
	Logger      func(context.Context, string, map[string]any)
}

// NewAuthService constructs the auth service.
func NewAuthService(deps DefaultAuthServiceDeps) (*DefaultAuthService, error) {
	if deps.Users == nil {
		return nil, errors.New("auth service: user repository is required")
	}
	if deps.Issuer == nil {
		return nil, errors.New("auth service: token issuer is required")
	}
	if deps.IDGenerator == nil {
		return nil, errors.New("auth service: id generator is required")
	}
	cost := deps.BcryptCost
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &DefaultAuthService{
		users:  deps.Users,
		issuer: deps.Issuer,
		cost:   cost,
		clock:  func() time.Time { return clock().UTC() },
		idgen:  deps.IDGenerator,
		logger: logger,
	}, nil
}

// Register creates a new account with the default user role.
func (s *DefaultAuthService) Register(ctx context.Context, cmd RegisterCommand) (domain.UserAccount, error) {
	username := strings.ToLower(strings.TrimSpace(cmd.Username))
	email := strings.ToLower(strings.TrimSpace(cmd.Email))

	if username == "" {
		return domain.UserAccount{}, fmt.Errorf("%w: username is required", ErrAuthInvalidInput)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return domain.UserAccount{}, fmt.Errorf("%w: invalid email address", ErrAuthInvalidInput)
	}
	if len(cmd.Password) < minPasswordLength {
		return domain.UserAccount{}, fmt.Errorf("%w: password must be at least %d characters", ErrAuthInvalidInput, minPasswordLength)
	}

	if _, err := s.users.FindByUsername(ctx, username); err == nil {
		return domain.UserAccount{}, ErrAuthUsernameTaken
	} else if !repositories.IsNotFound(err) {
		return domain.UserAccount{}, fmt.Errorf("auth: lookup username: %w", err)
	}
	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return domain.UserAccount{}, ErrAuthEmailTaken
	} else if !repositories.IsNotFound(err) {
		return domain.UserAccount{}, fmt.Errorf("auth: lookup email: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cmd.Password), s.cost)
	if err != nil {
		return domain.UserAccount{}, fmt.Errorf("auth: hash password: %w", err)
	}

	account := domain.UserAccount{
		ID:           "usr_" + s.idgen(),
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		Role:         domain.RoleUser,
		CreatedAt:    s.clock(),
	}
	if err := s.users.Insert(ctx, account); err != nil {
		return domain.UserAccount{}, fmt.Errorf("auth: insert account: %w", err)
	}

	s.logger(ctx, "auth_account_registered", map[string]any{"userId": account.ID})
	account.PasswordHash = ""
	return account, nil
}

// Login verifies the credentials and mints a session token.
func (s *DefaultAuthService) Login(ctx context.Context, cmd LoginCommand) (Session, error) {
	username := strings.ToLower(strings.TrimSpace(cmd.Username))
	if username == "" || cmd.Password == "" {
		return Session{}, fmt.Errorf("%w: username and password are required", ErrAuthInvalidInput)
	}

	account, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if repositories.IsNotFound(err) {
			return Session{}, ErrAuthInvalidCredentials
		}
		return Session{}, fmt.Errorf("auth: lookup username: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(cmd.Password)); err != nil {
		s.logger(ctx, "auth_login_rejected", map[string]any{"userId": account.ID})
		return Session{}, ErrAuthInvalidCredentials
	}

	token, expiresAt, err := s.issuer.Issue(account.ID, account.Username, string(account.Role))
	if err != nil {
		return Session{}, fmt.Errorf("auth: issue token: %w", err)
	}

	s.logger(ctx, "auth_login_succeeded", map[string]any{"userId": account.ID})
	account.PasswordHash = ""
	return Session{Token: token, ExpiresAt: expiresAt, User: account}, nil
}

var _ AuthService = (*DefaultAuthService)(nil)
var _ TokenIssuer = (*auth.Signer)(nil)
