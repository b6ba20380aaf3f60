package application

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Barklim/bio/internal/apperr"
	"github.com/Barklim/bio/internal/domain/entity"
	repo "github.com/Barklim/bio/internal/domain/repository"
	"github.com/Barklim/bio/pkg/events"
	"github.com/Barklim/bio/pkg/helpers"
)

// AuthResponse is the body returned by register and login.
type AuthResponse struct {
	AccessToken string            `json:"accessToken"`
	TokenType   string            `json:"tokenType"`
	ExpiresIn   int               `json:"expiresIn"`
	User        entity.PublicUser `json:"user"`
}

// RegisterInput is a validated registration request.
type RegisterInput struct {
	Email     string
	FirstName string
	LastName  string
	Password  string
}

// AuthService composes the credential store, password hasher and token
// issuer into the register/login/validate flows.
type AuthService struct {
	Repo   repo.UserRepository
	JWT    *helpers.JWTManager
	Logger *logrus.Logger
	Pub    *helpers.RabbitPublisher
}

func NewAuthService(r repo.UserRepository, jwt *helpers.JWTManager, logger *logrus.Logger, pub *helpers.RabbitPublisher) *AuthService {
	return &AuthService{Repo: r, JWT: jwt, Logger: logger, Pub: pub}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an account and logs it in immediately. Duplicate emails
// (case-insensitive) fail with the conflict error; the unique index on
// lower(email) backs this check against concurrent registrations.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResponse, error) {
	email := normalizeEmail(in.Email)
	s.Logger.WithField("email", email).Info("registration attempt")

	if _, err := s.Repo.GetByEmail(ctx, email); err == nil {
		s.Logger.WithField("email", email).Warn("registration with existing email")
		return nil, apperr.ErrEmailTaken
	} else if !errors.Is(err, apperr.ErrUserNotFound) {
		s.Logger.WithError(err).WithField("email", email).Error("registration lookup failed")
		return nil, err
	}

	hash, err := helpers.HashPassword(in.Password)
	if err != nil {
		s.Logger.WithError(err).Error("password hashing failed")
		return nil, err
	}

	u := &entity.User{
		Email:        email,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		PasswordHash: hash,
		Role:         entity.RoleUser,
		IsActive:     true,
	}
	if err := s.Repo.Create(ctx, u); err != nil {
		if !errors.Is(err, apperr.ErrEmailTaken) {
			s.Logger.WithError(err).WithField("email", email).Error("user creation failed")
		}
		return nil, err
	}
	s.Logger.WithField("user_id", u.ID).Info("user registered")

	s.publish(ctx, events.UserRegistered, u)
	return s.respond(u)
}

// Login verifies credentials and issues a token. Unknown email, inactive
// account and wrong password are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	email = normalizeEmail(email)
	s.Logger.WithField("email", email).Info("login attempt")

	u, err := s.Repo.GetByEmailWithPassword(ctx, email)
	if err != nil {
		if !errors.Is(err, apperr.ErrUserNotFound) {
			s.Logger.WithError(err).WithField("email", email).Error("login lookup failed")
		} else {
			s.Logger.WithField("email", email).Warn("login with unknown email")
		}
		return nil, apperr.ErrInvalidCredentials
	}
	if !u.IsActive {
		s.Logger.WithField("user_id", u.ID).Warn("login for inactive user")
		return nil, apperr.ErrInvalidCredentials
	}
	if u.PasswordHash == "" || !helpers.CheckPassword(u.PasswordHash, password) {
		s.Logger.WithField("user_id", u.ID).Warn("invalid password attempt")
		return nil, apperr.ErrInvalidCredentials
	}

	if err := s.Repo.TouchLastLogin(ctx, u.ID); err != nil {
		s.Logger.WithError(err).WithField("user_id", u.ID).Warn("last login update failed")
	}

	s.Logger.WithField("user_id", u.ID).Info("login successful")
	u.PasswordHash = ""
	return s.respond(u)
}

// ValidateUser re-confirms the token subject at request time. Any failure
// mode, including store errors, yields absent so that the middleware denies
// access instead of surfacing a 5xx mid-pipeline. The underlying error is
// logged to keep outages distinguishable from revocations in the logs.
func (s *AuthService) ValidateUser(ctx context.Context, id int64) *entity.User {
	u, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperr.ErrUserNotFound) {
			s.Logger.WithField("user_id", id).Warn("token validation: user not found")
		} else {
			s.Logger.WithError(err).WithField("user_id", id).Error("token validation lookup failed")
		}
		return nil
	}
	if !u.IsActive {
		s.Logger.WithField("user_id", id).Warn("token validation: user inactive")
		return nil
	}
	return u
}

func (s *AuthService) respond(u *entity.User) (*AuthResponse, error) {
	token, err := s.JWT.Issue(u.ID, u.Email, u.FirstName, u.LastName)
	if err != nil {
		s.Logger.WithError(err).WithField("user_id", u.ID).Error("token generation failed")
		return nil, err
	}
	return &AuthResponse{
		AccessToken: token,
		TokenType:   helpers.TokenType,
		ExpiresIn:   s.JWT.ExpiresIn(),
		User:        u.Public(),
	}, nil
}

func (s *AuthService) publish(ctx context.Context, eventType string, u *entity.User) {
	if s.Pub == nil {
		return
	}
	ev := events.UserEvent{
		ID:         uuid.NewString(),
		Type:       eventType,
		UserID:     u.ID,
		Email:      u.Email,
		OccurredAt: time.Now().UTC(),
	}
	if err := s.Pub.PublishJSON(ctx, ev); err != nil {
		s.Logger.WithError(err).WithField("type", eventType).Warn("event publish failed")
	}
}
