package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"railbook/internal/domain"
	"railbook/internal/pkg/validator"
	"railbook/internal/repository"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

type Service struct {
	users      UserRepositoryInterface
	tokens     TokenIssuer
	bcryptCost int
}

func NewService(users UserRepositoryInterface, tokens TokenIssuer) *Service {
	return &Service{
		users:      users,
		tokens:     tokens,
		bcryptCost: bcrypt.DefaultCost,
	}
}

func (s *Service) validate(req any) error {
	if err := validator.Struct(req); err != nil {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}
	return nil
}

// Signup creates a password account and returns a session token for it.
func (s *Service) Signup(ctx context.Context, req SignupRequest) (*domain.User, string, error) {
	req.Username = strings.TrimSpace(req.Username)
	if err := s.validate(req); err != nil {
		return nil, "", err
	}

	exists, err := s.users.ExistsByUsername(ctx, req.Username)
	if err != nil {
		return nil, "", err
	}
	if exists {
		return nil, "", ErrDuplicateUser
	}

	hash, err := s.hashPassword(req.Password)
	if err != nil {
		return nil, "", err
	}

	user := &domain.User{Username: req.Username, PasswordHash: &hash}
	if err := s.create(ctx, user); err != nil {
		return nil, "", err
	}

	token, err := s.tokens.GenerateToken(user.ID, user.Username)
	if err != nil {
		return nil, "", err
	}

	logrus.WithField("user_id", user.ID).Info("user signed up")
	return user, token, nil
}

func (s *Service) Login(ctx context.Context, req LoginRequest) (*domain.User, string, error) {
	req.Username = strings.TrimSpace(req.Username)
	if err := s.validate(req); err != nil {
		return nil, "", err
	}

	user, err := s.users.GetByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}

	// external-only accounts have no password to compare against
	if user.PasswordHash == nil {
		return nil, "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.tokens.GenerateToken(user.ID, user.Username)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// LoginExternal signs in the account linked to an external identity,
// creating it on first use. created reports whether a new account was made.
func (s *Service) LoginExternal(ctx context.Context, req ExternalLoginRequest) (user *domain.User, token string, created bool, err error) {
	req.ExternalID = strings.TrimSpace(req.ExternalID)
	req.Username = strings.TrimSpace(req.Username)
	if err := s.validate(req); err != nil {
		return nil, "", false, err
	}

	user, err = s.users.GetByExternalID(ctx, req.ExternalID)
	switch {
	case err == nil:
	case errors.Is(err, repository.ErrUserNotFound):
		externalID := req.ExternalID
		user = &domain.User{Username: req.Username, ExternalID: &externalID}
		if err := s.create(ctx, user); err != nil {
			return nil, "", false, err
		}
		created = true
		logrus.WithField("user_id", user.ID).Info("external account linked")
	default:
		return nil, "", false, err
	}

	token, err = s.tokens.GenerateToken(user.ID, user.Username)
	if err != nil {
		return nil, "", false, err
	}
	return user, token, created, nil
}

func (s *Service) GetCurrentUser(ctx context.Context, userID int64) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}
	return user, nil
}

func (s *Service) create(ctx context.Context, user *domain.User) error {
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateUser) {
			return ErrDuplicateUser
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *Service) hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}
