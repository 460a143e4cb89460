package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/frahmantamala/expense-tracker/internal"
	userDatamodel "github.com/frahmantamala/expense-tracker/internal/core/datamodel/user"
	"github.com/frahmantamala/expense-tracker/internal/storage"
	"github.com/frahmantamala/expense-tracker/internal/user"
	"github.com/frahmantamala/expense-tracker/pkg/logger"
)

// Session is the outcome of a successful signup or login.
type Session struct {
	User  *user.Profile
	Token string
}

type ServiceAPI interface {
	Signup(ctx context.Context, dto SignupDTO) (*Session, error)
	Login(ctx context.Context, dto LoginDTO) (*Session, error)
}

// Service is the main auth service with dependencies
type Service struct {
	users          storage.UserRepository
	tokenGenerator TokenGenerator
	bcryptCost     int

	// signups serializes the exists-then-create sequence per process.
	signups sync.Mutex
}

func NewService(users storage.UserRepository, tokenGen TokenGenerator, bcryptCost int) *Service {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		users:          users,
		tokenGenerator: tokenGen,
		bcryptCost:     bcryptCost,
	}
}

// Signup creates an account. An email that is already registered is a 400.
func (s *Service) Signup(ctx context.Context, dto SignupDTO) (*Session, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	s.signups.Lock()
	defer s.signups.Unlock()

	existing, err := s.users.GetUserByEmail(dto.Email)
	if err != nil {
		return nil, internal.NewInternalError("Failed to create user", err)
	}
	if existing != nil {
		return nil, internal.ErrUserExists
	}

	hash, err := s.HashPassword(dto.Password)
	if err != nil {
		return nil, internal.NewInternalError("Failed to create user", err)
	}

	created, err := s.users.CreateUser(&userDatamodel.User{
		Email:    dto.Email,
		Password: hash,
		Name:     dto.Name,
	})
	if err != nil {
		return nil, internal.NewInternalError("Failed to create user", err)
	}

	logger.From(ctx).Info("user signed up", "user_id", created.ID)
	return s.session(created)
}

// Login checks the credentials. Unknown email and wrong password produce the
// same error.
func (s *Service) Login(ctx context.Context, dto LoginDTO) (*Session, error) {
	if dto.Email == "" || dto.Password == "" {
		return nil, internal.ErrInvalidCredentials
	}

	u, err := s.users.GetUserByEmail(dto.Email)
	if err != nil {
		return nil, internal.NewInternalError("Login failed", err)
	}
	if u == nil {
		return nil, internal.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(dto.Password)); err != nil {
		if !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			logger.From(ctx).Warn("stored password hash unreadable", "user_id", u.ID, "error", err)
		}
		return nil, internal.ErrInvalidCredentials
	}

	logger.From(ctx).Info("user logged in", "user_id", u.ID)
	return s.session(u)
}

// VerifyToken resolves a bearer token to the user id it was issued for.
func (s *Service) VerifyToken(token string) (int64, error) {
	claims, err := s.tokenGenerator.ValidateToken(token)
	if err != nil {
		return 0, err
	}
	return claims.UserID()
}

// HashPassword creates a bcrypt hash of the password
func (s *Service) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func (s *Service) session(u *userDatamodel.User) (*Session, error) {
	token, err := s.tokenGenerator.GenerateAccessToken(u.ID, u.Email)
	if err != nil {
		return nil, internal.NewInternalError("Failed to issue session", err)
	}
	return &Session{User: user.NewProfile(u), Token: token}, nil
}
