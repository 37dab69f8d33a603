package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/Skotchmaster/gig_board/internal/domain"
	"github.com/Skotchmaster/gig_board/internal/models"
	"github.com/Skotchmaster/gig_board/internal/repo"
	pkg_hash "github.com/Skotchmaster/gig_board/pkg/hash"
	"github.com/Skotchmaster/gig_board/pkg/logging"
)

const (
	maxUsernameLen = 64
	// bcrypt ignores everything past 72 bytes
	maxPasswordLen = 72
)

type AuthService struct {
	Users  UserStore
	Tokens TokenIssuer
	Now    func() time.Time
}

type RegisterInput struct {
	Username string
	Email    string
	Bio      string
	Password string
}

type LoginResult struct {
	AccessToken string
	ExpiresAt   time.Time
}

func (in *RegisterInput) validate() error {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)

	switch {
	case in.Username == "":
		return fmt.Errorf("username is required: %w", domain.ErrValidation)
	case len(in.Username) > maxUsernameLen:
		return fmt.Errorf("username is longer than %d characters: %w", maxUsernameLen, domain.ErrValidation)
	case in.Password == "":
		return fmt.Errorf("password is required: %w", domain.ErrValidation)
	case len(in.Password) > maxPasswordLen:
		return fmt.Errorf("password is longer than %d bytes: %w", maxPasswordLen, domain.ErrValidation)
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return fmt.Errorf("email is invalid: %w", domain.ErrValidation)
	}
	return nil
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	if err := in.validate(); err != nil {
		return nil, err
	}

	pwHash, err := pkg_hash.HashPassword(in.Password)
	if err != nil {
		l.Error("register_error", "status", 500, "reason", "cannot hash the password", "error", err)
		return nil, err
	}

	user := &models.User{
		Username:     in.Username,
		Email:        in.Email,
		Bio:          in.Bio,
		PasswordHash: pwHash,
	}
	if err := s.Users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repo.ErrUserAlreadyExist) {
			l.Warn("register_error", "status", 409, "reason", "user already exist")
			return nil, fmt.Errorf("username or email already registered: %w", domain.ErrConflict)
		}
		l.Error("register_error", "status", 500, "error", err)
		return nil, err
	}

	l.Info("user registered", "user_id", user.ID)
	return user, nil
}

// Login never says whether the username or the password was wrong.
func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login")

	if username == "" || password == "" {
		return nil, fmt.Errorf("username and password are required: %w", domain.ErrValidation)
	}

	user, err := s.Users.FindUserByUsername(ctx, username)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		l.Error("login_error", "status", 500, "error", err)
		return nil, err
	}
	if user == nil || !pkg_hash.CheckPassword(user.PasswordHash, password) {
		l.Warn("login_failed", "status", 401, "reason", "invalid username or password")
		return nil, fmt.Errorf("incorrect username or password: %w", domain.ErrUnauthenticated)
	}

	token, exp, err := s.Tokens.Issue(user.Username, clock(s.Now))
	if err != nil {
		l.Error("login_error", "status", 500, "error", err)
		return nil, err
	}
	return &LoginResult{AccessToken: token, ExpiresAt: exp}, nil
}

// Authenticate resolves a bearer token to an existing user. A valid token
// whose subject no longer exists is treated like an invalid token.
func (s *AuthService) Authenticate(ctx context.Context, raw string) (*models.User, error) {
	subject, err := s.Tokens.Verify(raw, clock(s.Now))
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", domain.ErrUnauthenticated)
	}

	user, err := s.Users.FindUserByUsername(ctx, subject)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("token subject not found: %w", domain.ErrUnauthenticated)
		}
		return nil, err
	}
	return user, nil
}
