package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"quiz-score-service/internal/domain"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Claims are the JWT claims issued at login.
type Claims struct {
	UserID string `json:"userId"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// AuthService handles registration, login and token validation.
type AuthService struct {
	users       UserRepository
	secret      []byte
	tokenTTL    time.Duration
	adminEmails map[string]struct{}
	bcryptCost  int
	now         func() time.Time
}

func NewAuthService(users UserRepository, secret string, tokenTTL time.Duration, adminEmails []string) *AuthService {
	admins := make(map[string]struct{}, len(adminEmails))
	for _, e := range adminEmails {
		admins[normalizeEmail(e)] = struct{}{}
	}
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &AuthService{
		users:       users,
		secret:      []byte(secret),
		tokenTTL:    tokenTTL,
		adminEmails: admins,
		bcryptCost:  bcrypt.DefaultCost,
		now:         time.Now,
	}
}

// TokenTTL is the lifetime of issued tokens.
func (s *AuthService) TokenTTL() time.Duration { return s.tokenTTL }

// Register creates a user with a bcrypt-hashed password.
func (s *AuthService) Register(ctx context.Context, email, username, password string) (domain.User, error) {
	email = normalizeEmail(email)
	if _, err := s.users.GetUserByEmail(ctx, email); err == nil {
		return domain.User{}, domain.ErrEmailTaken
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return domain.User{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}

	role := domain.RoleUser
	if _, ok := s.adminEmails[email]; ok {
		role = domain.RoleAdmin
	}
	now := s.now().UTC()
	user := domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		Username:     strings.TrimSpace(username),
		PasswordHash: string(hash),
		Role:         role,
		Level:        domain.Level(0),
		Badges:       []string{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return domain.User{}, err
	}
	return user, nil
}

// Login checks the password and issues a signed token.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, domain.User, error) {
	user, err := s.users.GetUserByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, domain.ErrUserNotFound) {
		return "", domain.User{}, domain.ErrInvalidCredentials
	}
	if err != nil {
		return "", domain.User{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", domain.User{}, domain.ErrInvalidCredentials
	}
	token, err := s.IssueToken(user)
	if err != nil {
		return "", domain.User{}, err
	}
	return token, user, nil
}

// IssueToken signs an HS256 token for the user.
func (s *AuthService) IssueToken(user domain.User) (string, error) {
	now := s.now()
	claims := &Claims{
		UserID: user.ID,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// ParseToken validates a token and returns its claims.
func (s *AuthService) ParseToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, domain.ErrUnauthorized
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, domain.ErrUnauthorized
	}
	return claims, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
