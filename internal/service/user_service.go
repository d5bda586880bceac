// internal/service/user_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"finledger/internal/auth"
	"finledger/internal/domain"
	"finledger/internal/repository"
	"finledger/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TokenIssuer signs session tokens. *auth.TokenManager implements it.
type TokenIssuer interface {
	Issue(userID uuid.UUID, name, email string) (string, error)
}

// UserService defines registration, authentication and profile use cases.
type UserService interface {
	CreateUser(ctx context.Context, name, email, password string) (*domain.User, error)
	Authenticate(ctx context.Context, email, password string) (*domain.User, string, error)
	ShowProfile(ctx context.Context, userID uuid.UUID) (*domain.User, error)
}

type userService struct {
	dbExecutor repository.DBExecutor
	userRepo   repository.UserRepository
	tokens     TokenIssuer
	logger     *zap.Logger
}

// NewUserService creates a new instance of UserService.
func NewUserService(dbExecutor repository.DBExecutor, userRepo repository.UserRepository, tokens TokenIssuer, logger *zap.Logger) UserService {
	return &userService{
		dbExecutor: dbExecutor,
		userRepo:   userRepo,
		tokens:     tokens,
		logger:     logger,
	}
}

// CreateUser registers a new user with a bcrypt-hashed password.
func (s *userService) CreateUser(ctx context.Context, name, email, password string) (*domain.User, error) {
	const op = "create user"
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)
	if name == "" || password == "" {
		return nil, util.NewError(op, util.KindInvalidInput, errors.New("name and password are required"))
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, util.NewError(op, util.KindInvalidInput, errors.New("invalid email"))
	}

	_, err := s.userRepo.GetUserByEmail(ctx, s.dbExecutor, email)
	if err == nil {
		return nil, util.NewError(op, util.KindDuplicateEntry, errors.New("user already exists"))
	}
	if !util.IsError(err, util.ErrNotFound) {
		return nil, fmt.Errorf("%s: failed to check existing user: %w", op, err)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to hash password: %w", op, err)
	}

	user := domain.NewUser(name, email, hash)
	if err := s.userRepo.CreateUser(ctx, s.dbExecutor, user); err != nil {
		if util.IsError(err, util.ErrDuplicateEntry) {
			return nil, util.NewError(op, util.KindDuplicateEntry, errors.New("user already exists"))
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.logger.Info("user created", zap.String("user_id", user.ID.String()))
	return user, nil
}

// Authenticate checks credentials and issues a session token. Unknown emails and
// wrong passwords fail identically.
func (s *userService) Authenticate(ctx context.Context, email, password string) (*domain.User, string, error) {
	const op = "authenticate user"
	user, err := s.userRepo.GetUserByEmail(ctx, s.dbExecutor, normalizeEmail(email))
	if err != nil {
		if util.IsError(err, util.ErrNotFound) {
			return nil, "", util.NewError(op, util.KindIncorrectCredentials, nil)
		}
		return nil, "", fmt.Errorf("%s: failed to get user: %w", op, err)
	}
	if !auth.CheckPasswordHash(password, user.Password) {
		return nil, "", util.NewError(op, util.KindIncorrectCredentials, nil)
	}

	token, err := s.tokens.Issue(user.ID, user.Name, user.Email)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", op, err)
	}
	return user, token, nil
}

// ShowProfile returns the user's profile.
func (s *userService) ShowProfile(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	const op = "show user profile"
	user, err := s.userRepo.GetUserByID(ctx, s.dbExecutor, userID)
	if err != nil {
		if util.IsError(err, util.ErrNotFound) {
			return nil, util.NewError(op, util.KindUserNotFound, nil)
		}
		return nil, fmt.Errorf("%s: failed to get user %s: %w", op, userID, err)
	}
	return user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
