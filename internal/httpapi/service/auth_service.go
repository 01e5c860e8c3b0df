package service

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"bookden/internal/auth"
	"bookden/internal/config"
	"bookden/internal/httpapi/models"
	"bookden/internal/httpapi/repository"
	"bookden/internal/token"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrEmailInUse         = errors.New("email already in use")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

type AuthService interface {
	Register(ctx context.Context, name, email, password string) (*models.User, error)
	Login(ctx context.Context, email, password string) (sessionToken string, user *models.User, err error)
	VerifyToken(tokenString string) (*token.SessionClaims, error)
}

type authService struct {
	userRepo   repository.UserRepository
	issuer     *token.Issuer
	bcryptCost int
}

func NewAuthService(userRepo repository.UserRepository, issuer *token.Issuer, cfg *config.Config) AuthService {
	return &authService{
		userRepo:   userRepo,
		issuer:     issuer,
		bcryptCost: cfg.BcryptCost,
	}
}

// Register creates a new user with the given name, email, and password.
// The plaintext password is hashed before it ever reaches the repository.
func (s *authService) Register(ctx context.Context, name, email, password string) (*models.User, error) {
	if strings.TrimSpace(name) == "" || strings.TrimSpace(email) == "" || password == "" {
		return nil, ErrInvalidInput
	}

	// Pre-check; the unique index on email still backs this up under races.
	if _, err := s.userRepo.FindByEmail(ctx, email); err == nil {
		return nil, ErrEmailInUse
	}

	hashedPassword, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Name:     name,
		Email:    email,
		Password: hashedPassword,
		Role:     models.RoleUser,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailInUse
		}
		return nil, err
	}

	return user, nil
}

// Login authenticates a user and returns a signed session token.
// Unknown email and wrong password both yield ErrInvalidCredentials; the
// caller cannot tell whether the account exists.
func (s *authService) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	if email == "" || password == "" {
		return "", nil, ErrInvalidCredentials
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		// Dummy compare keeps the miss path roughly as slow as a real check.
		auth.VerifyDummy(password)
		return "", nil, ErrInvalidCredentials
	}

	if err := auth.VerifyPassword(user.Password, password); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	sessionToken, err := s.issuer.Issue(user.ID, user.Role)
	if err != nil {
		return "", nil, err
	}

	return sessionToken, user, nil
}

func (s *authService) VerifyToken(tokenString string) (*token.SessionClaims, error) {
	return s.issuer.Verify(tokenString)
}
