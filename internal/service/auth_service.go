package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const (
	defaultTokenTTL = 12 * time.Hour
	operatorSubject = "operator"
)

var (
	ErrAuthDisabled    = errors.New("authorization is disabled")
	ErrInvalidPassword = errors.New("invalid password")
	ErrInvalidToken    = errors.New("invalid token")
)

// AuthConfig carries the operator credentials. An empty PasswordHash
// disables authorization.
type AuthConfig struct {
	Secret       string
	PasswordHash string
	TokenTTL     time.Duration
}

type AuthService struct {
	secret       []byte
	passwordHash string
	ttl          time.Duration
	now          func() time.Time
}

func NewAuthService(cfg AuthConfig) *AuthService {
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	return &AuthService{
		secret:       []byte(cfg.Secret),
		passwordHash: cfg.PasswordHash,
		ttl:          ttl,
		now:          time.Now,
	}
}

func (s *AuthService) Enabled() bool { return s.passwordHash != "" }

// Claims defines JWT claims.
type Claims struct {
	jwt.RegisteredClaims
}

// GenerateToken checks the operator password and returns a signed JWT.
func (s *AuthService) GenerateToken(password string) (string, error) {
	if !s.Enabled() {
		return "", ErrAuthDisabled
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.passwordHash), []byte(password)); err != nil {
		return "", ErrInvalidPassword
	}
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   operatorSubject,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	})
	return token.SignedString(s.secret)
}

// ParseToken validates accessToken and returns its subject.
func (s *AuthService) ParseToken(accessToken string) (string, error) {
	token, err := jwt.ParseWithClaims(accessToken, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject != operatorSubject {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

// HashPassword returns the bcrypt hash to put in auth.password_hash.
func HashPassword(password string) (string, error) {
	if strings.TrimSpace(password) == "" {
		return "", errors.New("password is empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}
