package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"go-pos-checkout/internal/config"
)

const (
	RoleAdmin   = "admin"
	RoleCashier = "cashier"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims defines what is inside the token (the terminal session)
type Claims struct {
	UserID uint   `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// Manager signs and validates session tokens.
type Manager struct {
	key   []byte
	ttl   time.Duration
	clock func() time.Time
}

func NewManager(cfg config.AuthConfig) *Manager {
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Manager{key: []byte(cfg.JWTSecret), ttl: ttl, clock: time.Now}
}

// GenerateToken creates a signed JWT for a user
func (m *Manager) GenerateToken(userID uint, role string) (string, time.Time, error) {
	now := m.clock()
	expiresAt := now.Add(m.ttl)

	claims := &Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.key)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// ValidateToken checks if a token is forged or expired
func (m *Manager) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		return m.key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(m.clock))
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
