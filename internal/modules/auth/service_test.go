package auth

import (
	"context"
	"testing"

	"bookingpay/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, u *domain.User) error {
	args := m.Called(ctx, u)
	if u != nil && u.ID == "" {
		u.ID = "user-1"
	}
	return args.Error(0)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

type stubJWT struct{}

func (stubJWT) GenerateToken(userID, role string) (string, error) {
	return "token-" + userID, nil
}

func TestService_Register(t *testing.T) {
	users := new(MockUserRepository)
	users.On("GetByEmail", mock.Anything, "new@example.com").Return(nil, gorm.ErrRecordNotFound)
	users.On("Create", mock.Anything, mock.AnythingOfType("*domain.User")).Return(nil)

	svc := NewService(users, stubJWT{})
	u, err := svc.Register(context.Background(), RegisterRequest{Email: "new@example.com", Password: "secret-pass"})

	require.NoError(t, err)
	assert.Equal(t, domain.RoleUser, u.Role)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("secret-pass")))
}

func TestService_Register_EmailTaken(t *testing.T) {
	users := new(MockUserRepository)
	users.On("GetByEmail", mock.Anything, "taken@example.com").Return(&domain.User{ID: "user-1"}, nil)

	svc := NewService(users, stubJWT{})
	_, err := svc.Register(context.Background(), RegisterRequest{Email: "taken@example.com", Password: "secret-pass"})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestService_Login(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("secret-pass"), bcrypt.MinCost)
	users := new(MockUserRepository)
	users.On("GetByEmail", mock.Anything, "user@example.com").Return(&domain.User{
		ID:           "user-1",
		Email:        "user@example.com",
		PasswordHash: string(hash),
		Role:         domain.RoleUser,
	}, nil)

	svc := NewService(users, stubJWT{})

	res, err := svc.Login(context.Background(), LoginRequest{Email: "user@example.com", Password: "secret-pass"})
	require.NoError(t, err)
	assert.Equal(t, "token-user-1", res.AccessToken)

	_, err = svc.Login(context.Background(), LoginRequest{Email: "user@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestService_Login_UnknownEmail(t *testing.T) {
	users := new(MockUserRepository)
	users.On("GetByEmail", mock.Anything, "ghost@example.com").Return(nil, gorm.ErrRecordNotFound)

	svc := NewService(users, stubJWT{})
	_, err := svc.Login(context.Background(), LoginRequest{Email: "ghost@example.com", Password: "whatever"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
