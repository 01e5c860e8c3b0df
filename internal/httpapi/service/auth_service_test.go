package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"bookden/internal/config"
	"bookden/internal/httpapi/models"
	"bookden/internal/token"
)

// MockUserRepository mocks the UserRepository interface
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func newTestAuthService(userRepo *MockUserRepository) AuthService {
	cfg := &config.Config{
		JWTSecret:       "0123456789abcdef0123456789abcdef",
		SessionTokenTTL: 30 * 24 * time.Hour,
		BcryptCost:      bcrypt.MinCost, // keep the tests fast
	}
	issuer := token.NewIssuer(cfg.JWTSecret, cfg.SessionTokenTTL)
	return NewAuthService(userRepo, issuer, cfg)
}

func TestRegister_Success(t *testing.T) {
	mockUserRepo := new(MockUserRepository)
	authService := newTestAuthService(mockUserRepo)

	mockUserRepo.On("FindByEmail", mock.Anything, "ana@x.com").Return(nil, gorm.ErrRecordNotFound)
	mockUserRepo.On("Create", mock.Anything, mock.AnythingOfType("*models.User")).Return(nil)

	user, err := authService.Register(context.Background(), "Ana", "ana@x.com", "secret123")

	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "Ana", user.Name)
	assert.Equal(t, "ana@x.com", user.Email)
	assert.Equal(t, models.RoleUser, user.Role)
	// the stored credential is a hash, never the plaintext
	assert.NotEqual(t, "secret123", user.Password)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("secret123")))
	mockUserRepo.AssertExpectations(t)
}

func TestRegister_EmailExists(t *testing.T) {
	mockUserRepo := new(MockUserRepository)
	authService := newTestAuthService(mockUserRepo)

	existingUser := &models.User{Email: "ana@x.com"}
	mockUserRepo.On("FindByEmail", mock.Anything, "ana@x.com").Return(existingUser, nil)

	user, err := authService.Register(context.Background(), "Ana", "ana@x.com", "secret123")

	assert.ErrorIs(t, err, ErrEmailInUse)
	assert.Nil(t, user)
	mockUserRepo.AssertExpectations(t)
}

func TestRegister_DuplicateRace(t *testing.T) {
	mockUserRepo := new(MockUserRepository)
	authService := newTestAuthService(mockUserRepo)

	// Pre-check misses but the insert hits the unique index: still a
	// duplicate-email outcome, not an internal error.
	mockUserRepo.On("FindByEmail", mock.Anything, "ana@x.com").Return(nil, gorm.ErrRecordNotFound)
	mockUserRepo.On("Create", mock.Anything, mock.AnythingOfType("*models.User")).Return(gorm.ErrDuplicatedKey)

	user, err := authService.Register(context.Background(), "Ana", "ana@x.com", "secret123")

	assert.ErrorIs(t, err, ErrEmailInUse)
	assert.Nil(t, user)
	mockUserRepo.AssertExpectations(t)
}

func TestRegister_MissingFields(t *testing.T) {
	mockUserRepo := new(MockUserRepository)
	authService := newTestAuthService(mockUserRepo)

	for _, tc := range []struct {
		name, userName, email, password string
	}{
		{"NoName", "", "ana@x.com", "secret123"},
		{"NoEmail", "Ana", "", "secret123"},
		{"NoPassword", "Ana", "ana@x.com", ""},
	} {
		t.Run(tc.name, func(t *testing.T) {
			user, err := authService.Register(context.Background(), tc.userName, tc.email, tc.password)
			assert.ErrorIs(t, err, ErrInvalidInput)
			assert.Nil(t, user)
		})
	}
	mockUserRepo.AssertNotCalled(t, "Create")
}

func TestLogin_Success(t *testing.T) {
	mockUserRepo := new(MockUserRepository)
	authService := newTestAuthService(mockUserRepo)

	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	user := &models.User{
		ID:       "user-id",
		Name:     "Ana",
		Email:    "ana@x.com",
		Password: string(hashedPassword),
		Role:     models.RoleUser,
	}

	mockUserRepo.On("FindByEmail", mock.Anything, "ana@x.com").Return(user, nil)

	sessionToken, returnedUser, err := authService.Login(context.Background(), "ana@x.com", "secret123")

	require.NoError(t, err)
	assert.NotEmpty(t, sessionToken)
	assert.Equal(t, user.Email, returnedUser.Email)

	// a freshly issued token verifies to the identity and role it was issued for
	claims, err := authService.VerifyToken(sessionToken)
	require.NoError(t, err)
	assert.Equal(t, "user-id", claims.UserID)
	assert.Equal(t, models.RoleUser, claims.Role)
	mockUserRepo.AssertExpectations(t)
}

func TestLogin_FailuresIndistinguishable(t *testing.T) {
	mockUserRepo := new(MockUserRepository)
	authService := newTestAuthService(mockUserRepo)

	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	user := &models.User{ID: "user-id", Email: "ana@x.com", Password: string(hashedPassword)}

	mockUserRepo.On("FindByEmail", mock.Anything, "ana@x.com").Return(user, nil)
	mockUserRepo.On("FindByEmail", mock.Anything, "ghost@x.com").Return(nil, gorm.ErrRecordNotFound)

	_, _, wrongPasswordErr := authService.Login(context.Background(), "ana@x.com", "wrong")
	_, _, unknownEmailErr := authService.Login(context.Background(), "ghost@x.com", "secret123")

	// wrong password and unknown email must be the same error kind
	assert.ErrorIs(t, wrongPasswordErr, ErrInvalidCredentials)
	assert.ErrorIs(t, unknownEmailErr, ErrInvalidCredentials)
	assert.Equal(t, wrongPasswordErr, unknownEmailErr)
	mockUserRepo.AssertExpectations(t)
}

func TestVerifyToken_Tampered(t *testing.T) {
	mockUserRepo := new(MockUserRepository)
	authService := newTestAuthService(mockUserRepo)

	otherIssuer := token.NewIssuer("another-secret-another-secret-12", time.Hour)
	forged, err := otherIssuer.Issue("user-id", models.RoleAdmin)
	require.NoError(t, err)

	_, err = authService.VerifyToken(forged)
	assert.ErrorIs(t, err, token.ErrInvalidToken)
}
