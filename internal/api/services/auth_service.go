package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rohits-web03/docvault/internal/auth"
	"github.com/rohits-web03/docvault/internal/models"
	"github.com/rohits-web03/docvault/internal/repositories"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

type LoginMode string

const (
	LoginSession LoginMode = "session"
	LoginToken   LoginMode = "token"
)

// LoginResult carries the credential created by a successful login. Only the
// field matching the requested mode is set.
type LoginResult struct {
	User      *models.User
	SessionID string
	Token     string
	ExpiresAt time.Time
}

var dummyUsers = []struct{ username, password string }{
	{"dummyuser1", "dummypass1"},
	{"dummyuser2", "dummypass2"},
	{"dummyuser3", "dummypass3"},
}

// maxPasswordBytes is the longest input bcrypt accepts.
const maxPasswordBytes = 72

type AuthService struct {
	users    *repositories.UserRepository
	sessions *auth.SessionStore
	tokens   *auth.TokenManager
	logger   *zap.Logger
	hashCost int
}

func NewAuthService(users *repositories.UserRepository, sessions *auth.SessionStore, tokens *auth.TokenManager, logger *zap.Logger) *AuthService {
	return &AuthService{
		users:    users,
		sessions: sessions,
		tokens:   tokens,
		logger:   logger.With(zap.String("service", "auth_service")),
		hashCost: bcrypt.DefaultCost,
	}
}

// Register stores a bcrypt hash of password under username.
func (s *AuthService) Register(ctx context.Context, username, password string) (*models.User, error) {
	if username == "" || password == "" {
		return nil, ErrMissingFields
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, ErrPasswordTooLong
		}
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	user := &models.User{Username: username, Password: string(hashed)}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrUsernameTaken) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("database insert failed: %w", err)
	}
	s.logger.Info("User registered", zap.Uint("user_id", user.ID), zap.String("username", username))
	return user, nil
}

// Authenticate checks a username and password pair.
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	if username == "" || password == "" {
		return nil, ErrMissingFields
	}
	// Register never stores a hash for a longer password.
	if len(password) > maxPasswordBytes {
		return nil, ErrInvalidCredentials
	}
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// Login authenticates and then opens a session or issues a bearer token.
func (s *AuthService) Login(ctx context.Context, username, password string, mode LoginMode) (*LoginResult, error) {
	user, err := s.Authenticate(ctx, username, password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			s.logger.Info("Failed login", zap.String("username", username))
		}
		return nil, err
	}

	result := &LoginResult{User: user}
	switch mode {
	case LoginToken:
		token, exp, err := s.tokens.Issue(user.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to create token: %w", err)
		}
		result.Token, result.ExpiresAt = token, exp
	default:
		id, err := s.sessions.Create(user.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to create session: %w", err)
		}
		result.SessionID, result.ExpiresAt = id, time.Now().Add(s.sessions.TTL())
	}
	s.logger.Info("User logged in", zap.Uint("user_id", user.ID), zap.String("mode", string(mode)))
	return result, nil
}

// Logout ends the session. Bearer tokens stay valid until they expire.
func (s *AuthService) Logout(sessionID string) {
	if sessionID != "" {
		s.sessions.Destroy(sessionID)
	}
}

// SeedDummyUsers creates the demo accounts that don't exist yet.
func (s *AuthService) SeedDummyUsers(ctx context.Context) error {
	hashes := make([][]byte, len(dummyUsers))
	g, _ := errgroup.WithContext(ctx)
	for i, du := range dummyUsers {
		g.Go(func() error {
			h, err := bcrypt.GenerateFromPassword([]byte(du.password), s.hashCost)
			hashes[i] = h
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("failed to hash seed passwords: %w", err)
	}

	for i, du := range dummyUsers {
		created, err := s.users.EnsureUser(ctx, &models.User{Username: du.username, Password: string(hashes[i])})
		if err != nil {
			return fmt.Errorf("failed to seed %s: %w", du.username, err)
		}
		if created {
			s.logger.Info("Seeded dummy user", zap.String("username", du.username))
		}
	}
	return nil
}
