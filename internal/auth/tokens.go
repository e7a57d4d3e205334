package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-ticketing/pkg/domain"
	"github.com/golang-jwt/jwt/v5"
)

// TokenConfig defines how access tokens are signed and verified.
type TokenConfig struct {
	Secret    []byte
	Issuer    string
	AccessTTL time.Duration
	Now       func() time.Time
}

// Claims captures the validated identity carried by an access token.
type Claims struct {
	UserID    string
	Email     string
	Role      string
	ExpiresAt time.Time
}

type accessClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Role  string `json:"role"`
}

// TokenManager issues and verifies HS256 access tokens.
type TokenManager struct {
	cfg TokenConfig
}

var ErrMissingSecret = errors.New("auth: signing secret is required")

// NewTokenManager builds a manager; TTL defaults to fifteen minutes.
func NewTokenManager(cfg TokenConfig) (*TokenManager, error) {
	if len(cfg.Secret) == 0 {
		return nil, ErrMissingSecret
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = 15 * time.Minute
	}
	if cfg.Issuer == "" {
		cfg.Issuer = "go-ticketing"
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &TokenManager{cfg: cfg}, nil
}

// Issue signs an access token for the user.
func (m *TokenManager) Issue(user *domain.User) (string, time.Time, error) {
	now := m.cfg.Now().UTC()
	expires := now.Add(m.cfg.AccessTTL)

	claims := accessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.cfg.Issuer,
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
		Email: user.Email,
		Role:  user.Role,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.cfg.Secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, expires, nil
}

// Verify parses and validates an access token.
func (m *TokenManager) Verify(token string) (Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Claims{}, domain.ErrInvalidToken
	}

	var parsed accessClaims
	_, err := jwt.ParseWithClaims(token, &parsed, func(t *jwt.Token) (any, error) {
		return m.cfg.Secret, nil
	},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(m.cfg.Issuer),
		jwt.WithTimeFunc(func() time.Time { return m.cfg.Now().UTC() }),
	)
	if err != nil {
		return Claims{}, mapJWTError(err)
	}
	if parsed.ExpiresAt == nil {
		return Claims{}, domain.ErrInvalidToken
	}

	return Claims{
		UserID:    parsed.Subject,
		Email:     parsed.Email,
		Role:      parsed.Role,
		ExpiresAt: parsed.ExpiresAt.Time.UTC(),
	}, nil
}

func mapJWTError(err error) error {
	if errors.Is(err, jwt.ErrTokenExpired) {
		return domain.ErrTokenExpired
	}
	return domain.ErrInvalidToken
}
