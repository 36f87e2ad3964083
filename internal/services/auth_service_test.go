package services_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"hystore/internal/models"
	"hystore/internal/repositories"
	"hystore/internal/services"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const testJWTSecret = "test_jwt_secret"

// MockCustomerRepository is a mock implementation of repositories.CustomerRepository
type MockCustomerRepository struct {
	mock.Mock
}

func (m *MockCustomerRepository) Create(ctx context.Context, customer *models.Customer) error {
	args := m.Called(ctx, customer)
	if customer.ID == "" {
		customer.ID = "generated-id"
	}
	return args.Error(0)
}

func (m *MockCustomerRepository) GetByUsername(ctx context.Context, username string) (*models.Customer, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Customer), args.Error(1)
}

func (m *MockCustomerRepository) GetByID(ctx context.Context, id string) (*models.Customer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Customer), args.Error(1)
}

func (m *MockCustomerRepository) CountByRole(ctx context.Context) ([]models.RoleCount, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.RoleCount), args.Error(1)
}

func newAuthService(repo repositories.CustomerRepository) *services.AuthService {
	return services.NewAuthService(repo, testJWTSecret, time.Hour, zap.NewNop())
}

func TestAuthService_RegisterCustomer(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockCustomerRepository)
	authService := newAuthService(mockRepo)

	mockRepo.On("GetByUsername", ctx, "retail-shop").Return(nil, repositories.ErrNotFound).Once()
	mockRepo.On("Create", ctx, mock.AnythingOfType("*models.Customer")).Return(nil).Once()

	customer, err := authService.RegisterCustomer(ctx, "retail-shop", "password123", models.RoleRetailer)
	require.NoError(t, err)
	assert.Equal(t, models.RoleRetailer, customer.Role)
	assert.NotEqual(t, "password123", customer.Password)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(customer.Password), []byte("password123")))
	mockRepo.AssertExpectations(t)

	// Test username already taken
	mockRepo.On("GetByUsername", ctx, "retail-shop").Return(&models.Customer{ID: "1"}, nil).Once()
	_, err = authService.RegisterCustomer(ctx, "retail-shop", "password123", models.RoleRetailer)
	assert.ErrorIs(t, err, services.ErrUsernameTaken)
	mockRepo.AssertExpectations(t)

	// Test storage failure
	mockRepo.On("GetByUsername", ctx, "broken").Return(nil, errors.New("connection reset")).Once()
	_, err = authService.RegisterCustomer(ctx, "broken", "password123", models.RoleCustomer)
	assert.ErrorIs(t, err, services.ErrPersistence)
	mockRepo.AssertExpectations(t)
}

func TestAuthService_RegisterCustomer_StaffRoleFallsBackToCustomer(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockCustomerRepository)
	authService := newAuthService(mockRepo)

	for _, requested := range []models.Role{models.RoleAdmin, models.RoleAdvertiser, "superuser", ""} {
		mockRepo.On("GetByUsername", ctx, "sneaky").Return(nil, repositories.ErrNotFound).Once()
		mockRepo.On("Create", ctx, mock.MatchedBy(func(c *models.Customer) bool {
			return c.Role == models.RoleCustomer
		})).Return(nil).Once()

		customer, err := authService.RegisterCustomer(ctx, "sneaky", "password123", requested)
		require.NoError(t, err)
		assert.Equal(t, models.RoleCustomer, customer.Role, "requested %q", requested)
	}
	mockRepo.AssertExpectations(t)
}

func TestAuthService_EnsureStaffAccount(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockCustomerRepository)
	authService := newAuthService(mockRepo)

	mockRepo.On("GetByUsername", ctx, "admin").Return(nil, repositories.ErrNotFound).Once()
	mockRepo.On("Create", ctx, mock.MatchedBy(func(c *models.Customer) bool {
		return c.Role == models.RoleAdmin
	})).Return(nil).Once()
	require.NoError(t, authService.EnsureStaffAccount(ctx, "admin", "s3cret-admin", models.RoleAdmin))

	// existing accounts are left untouched
	mockRepo.On("GetByUsername", ctx, "admin").Return(&models.Customer{ID: "a-1", Role: models.RoleAdmin}, nil).Once()
	require.NoError(t, authService.EnsureStaffAccount(ctx, "admin", "s3cret-admin", models.RoleAdmin))

	assert.Error(t, authService.EnsureStaffAccount(ctx, "shop", "pw", models.RoleRetailer))
	mockRepo.AssertExpectations(t)
}

func TestAuthService_LoginUser(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockCustomerRepository)
	authService := newAuthService(mockRepo)

	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	customer := &models.Customer{
		ID:       "user-123",
		Username: "testuser",
		Password: string(hashedPassword),
		Role:     models.RoleRetailer,
	}

	// Test successful login
	mockRepo.On("GetByUsername", ctx, customer.Username).Return(customer, nil).Once()
	token, role, err := authService.LoginUser(ctx, "testuser", "password123")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, models.RoleRetailer, role)

	parsedToken, err := jwt.Parse(token, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(testJWTSecret), nil
	})
	require.NoError(t, err)
	claims, ok := parsedToken.Claims.(jwt.MapClaims)
	assert.True(t, ok)
	assert.Equal(t, customer.ID, claims["user_id"])
	assert.Equal(t, customer.Username, claims["username"])
	assert.Equal(t, "retailer", claims["role"])
	mockRepo.AssertExpectations(t)

	// Test invalid credentials (wrong password)
	mockRepo.On("GetByUsername", ctx, customer.Username).Return(customer, nil).Once()
	_, _, err = authService.LoginUser(ctx, "testuser", "wrongpassword")
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)

	// Test invalid credentials (user not found)
	mockRepo.On("GetByUsername", ctx, "nonexistentuser").Return(nil, repositories.ErrNotFound).Once()
	_, _, err = authService.LoginUser(ctx, "nonexistentuser", "password123")
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)
	mockRepo.AssertExpectations(t)
}

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestAuthService_Resolve(t *testing.T) {
	authService := newAuthService(new(MockCustomerRepository))

	valid := signToken(t, testJWTSecret, jwt.MapClaims{
		"user_id":  "user-123",
		"username": "testuser",
		"role":     "customer",
		"exp":      jwt.TimeFunc().Add(time.Hour).Unix(),
	})
	identity, err := authService.Resolve(valid)
	require.NoError(t, err)
	assert.Equal(t, &services.Identity{CustomerID: "user-123", Username: "testuser", Role: models.RoleCustomer}, identity)

	tests := map[string]string{
		"garbage": "invalid.token.string",
		"wrong secret": signToken(t, "other-secret", jwt.MapClaims{
			"user_id": "user-123", "role": "customer", "exp": jwt.TimeFunc().Add(time.Hour).Unix(),
		}),
		"expired": signToken(t, testJWTSecret, jwt.MapClaims{
			"user_id": "user-123", "role": "customer", "exp": jwt.TimeFunc().Add(-time.Hour).Unix(),
		}),
		"unknown role": signToken(t, testJWTSecret, jwt.MapClaims{
			"user_id": "user-123", "role": "root", "exp": jwt.TimeFunc().Add(time.Hour).Unix(),
		}),
		"missing user": signToken(t, testJWTSecret, jwt.MapClaims{
			"role": "admin", "exp": jwt.TimeFunc().Add(time.Hour).Unix(),
		}),
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := authService.Resolve(token)
			assert.Error(t, err)
			assert.Contains(t, err.Error(), "invalid token")
		})
	}
}
