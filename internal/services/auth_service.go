package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"hystore/internal/models"
	"hystore/internal/repositories"

	"github.com/dgrijalva/jwt-go"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const defaultTokenTTL = time.Hour

// Identity is the authenticated caller resolved from a session token.
type Identity struct {
	CustomerID string
	Username   string
	Role       models.Role
}

// AuthService handles business logic for authentication and authorization.
type AuthService struct {
	customers repositories.CustomerRepository
	jwtSecret []byte
	tokenTTL  time.Duration
	logger    *zap.Logger
}

// NewAuthService creates a new AuthService. A non-positive tokenTTL falls back to one hour.
func NewAuthService(customers repositories.CustomerRepository, jwtSecret string, tokenTTL time.Duration, logger *zap.Logger) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = defaultTokenTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		customers: customers,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  tokenTTL,
		logger:    logger,
	}
}

// RegisterCustomer creates a self-service account. Only customer and retailer
// can be requested; anything else silently becomes customer.
func (s *AuthService) RegisterCustomer(ctx context.Context, username, password string, role models.Role) (*models.Customer, error) {
	if !role.SelfService() {
		role = models.RoleCustomer
	}
	return s.createAccount(ctx, username, password, role)
}

// EnsureStaffAccount creates an admin or advertiser account unless the username already exists.
func (s *AuthService) EnsureStaffAccount(ctx context.Context, username, password string, role models.Role) error {
	if role != models.RoleAdmin && role != models.RoleAdvertiser {
		return fmt.Errorf("role %q is not a staff role", role)
	}
	_, err := s.createAccount(ctx, username, password, role)
	if errors.Is(err, ErrUsernameTaken) {
		return nil
	}
	if err != nil {
		return err
	}
	s.logger.Info("staff account created", zap.String("username", username), zap.String("role", string(role)))
	return nil
}

func (s *AuthService) createAccount(ctx context.Context, username, password string, role models.Role) (*models.Customer, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, fmt.Errorf("%w: username and password are required", ErrInvalidCredentials)
	}

	existing, err := s.customers.GetByUsername(ctx, username)
	if err == nil && existing != nil {
		return nil, ErrUsernameTaken
	}
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return nil, persistenceError("lookup username", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	customer := &models.Customer{
		Username: username,
		Password: string(hashed),
		Role:     role,
	}
	if err := s.customers.Create(ctx, customer); err != nil {
		return nil, persistenceError("create account", err)
	}
	return customer, nil
}

// LoginUser authenticates a user and returns a signed token and the account role.
func (s *AuthService) LoginUser(ctx context.Context, username, password string) (string, models.Role, error) {
	customer, err := s.customers.GetByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, repositories.ErrNotFound) {
			s.logger.Error("login lookup failed", zap.Error(err))
		}
		return "", "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(customer.Password), []byte(password)); err != nil {
		return "", "", ErrInvalidCredentials
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":  customer.ID,
		"username": customer.Username,
		"role":     string(customer.Role),
		"exp":      now.Add(s.tokenTTL).Unix(),
		"iat":      now.Unix(),
	})
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", "", fmt.Errorf("failed to generate token: %w", err)
	}
	return signed, customer.Role, nil
}

// ValidateToken parses and validates a JWT token, returning the claims if valid.
func (s *AuthService) ValidateToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		s.logger.Debug("token validation failed", zap.Error(err))
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, fmt.Errorf("invalid token")
}

// Resolve validates a token and extracts the caller's identity from its claims.
func (s *AuthService) Resolve(tokenString string) (*Identity, error) {
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}

	customerID, _ := claims["user_id"].(string)
	username, _ := claims["username"].(string)
	role, _ := claims["role"].(string)
	if customerID == "" || !models.Role(role).Valid() {
		return nil, fmt.Errorf("invalid token: missing identity claims")
	}
	return &Identity{CustomerID: customerID, Username: username, Role: models.Role(role)}, nil
}

// GetCustomer returns the account behind an identity.
func (s *AuthService) GetCustomer(ctx context.Context, customerID string) (*models.Customer, error) {
	customer, err := s.customers.GetByID(ctx, customerID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrUnauthenticated
	}
	if err != nil {
		return nil, persistenceError("get customer", err)
	}
	return customer, nil
}
