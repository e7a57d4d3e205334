package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-ticketing/pkg/activity"
	"github.com/goliatone/go-ticketing/pkg/domain"
	"github.com/goliatone/go-ticketing/pkg/interfaces/logger"
	"github.com/goliatone/go-ticketing/pkg/interfaces/store"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// mailer delivers account emails. Sends are best effort: a failed delivery is
// logged and the auth flow continues.
type mailer interface {
	SendVerification(ctx context.Context, to, token string, expiresAt time.Time) error
	SendPasswordReset(ctx context.Context, to, token string, expiresAt time.Time) error
}

// Dependencies groups what the auth service needs.
type Dependencies struct {
	Users  store.UserRepository
	Tokens *TokenManager
	Mailer mailer
	Hooks  activity.Hooks
	Logger logger.Logger
	Config Config
}

// Config carries token lifetimes for the stateful token kinds.
type Config struct {
	RefreshTTL time.Duration
	VerifyTTL  time.Duration
	ResetTTL   time.Duration
}

func (c Config) withDefaults() Config {
	if c.RefreshTTL <= 0 {
		c.RefreshTTL = 30 * 24 * time.Hour
	}
	if c.VerifyTTL <= 0 {
		c.VerifyTTL = 48 * time.Hour
	}
	if c.ResetTTL <= 0 {
		c.ResetTTL = time.Hour
	}
	return c
}

// Service implements account registration and credential flows. Access
// tokens are stateless JWTs; refresh, verification and reset tokens live on
// the user record.
type Service struct {
	users  store.UserRepository
	tokens *TokenManager
	mailer mailer
	hooks  activity.Hooks
	logger logger.Logger
	cfg    Config
	now    func() time.Time
}

// RegisterInput describes a new account.
type RegisterInput struct {
	FirstName   string
	LastName    string
	Email       string
	PhoneNumber string
	Password    string
	Role        string
}

// TokenPair is the result of a successful authentication or refresh.
type TokenPair struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}

var (
	ErrMissingUsers     = errors.New("auth: user repository is required")
	ErrMissingTokens    = errors.New("auth: token manager is required")
	ErrMissingEmail     = errors.New("auth: email is required")
	ErrWeakPassword     = errors.New("auth: password must be at least 8 characters")
	ErrInvalidRole      = errors.New("auth: invalid role")
	ErrPasswordMismatch = errors.New("auth: password confirmation does not match")
)

// New builds the auth service.
func New(deps Dependencies) (*Service, error) {
	if deps.Users == nil {
		return nil, ErrMissingUsers
	}
	if deps.Tokens == nil {
		return nil, ErrMissingTokens
	}
	if deps.Logger == nil {
		deps.Logger = &logger.Nop{}
	}
	return &Service{
		users:  deps.Users,
		tokens: deps.Tokens,
		mailer: deps.Mailer,
		hooks:  deps.Hooks,
		logger: deps.Logger.With(logger.F("component", "auth")),
		cfg:    deps.Config.withDefaults(),
		now:    time.Now,
	}, nil
}

// Register creates an account and emails a verification token. Duplicate
// emails are rejected.
func (s *Service) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	email := normalizeEmail(input.Email)
	if email == "" {
		return nil, ErrMissingEmail
	}
	if len(input.Password) < 8 {
		return nil, ErrWeakPassword
	}
	role := input.Role
	if role == "" {
		role = domain.RoleUser
	}
	if !domain.ValidRole(role) {
		return nil, ErrInvalidRole
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, fmt.Errorf("auth: register %s: %w", email, domain.ErrDuplicate)
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("auth: email lookup: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("auth: hash password: %w", err)
	}

	user := &domain.User{
		FirstName:       strings.TrimSpace(input.FirstName),
		LastName:        strings.TrimSpace(input.LastName),
		Email:           email,
		PhoneNumber:     strings.TrimSpace(input.PhoneNumber),
		PasswordHash:    string(hash),
		Role:            role,
		VerifyToken:     uuid.NewString(),
		VerifyExpiresAt: s.now().UTC().Add(s.cfg.VerifyTTL),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("auth: create user: %w", err)
	}

	if s.mailer != nil {
		if err := s.mailer.SendVerification(ctx, user.Email, user.VerifyToken, user.VerifyExpiresAt); err != nil {
			s.logger.Warn("verification email failed",
				logger.F("email", activity.MaskEmail(user.Email)),
				logger.F("error", err),
			)
		}
	}

	s.hooks.Notify(ctx, activity.Event{
		Verb:       activity.VerbUserRegistered,
		ActorEmail: user.Email,
		ObjectType: "user",
		ObjectID:   user.ID.String(),
		Metadata:   map[string]any{"role": role},
	})
	return user, nil
}

// Authenticate checks the password and issues an access/refresh pair. The
// refresh token is rotated on every successful login.
func (s *Service) Authenticate(ctx context.Context, email, password string) (TokenPair, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return TokenPair{}, domain.ErrInvalidCredentials
		}
		return TokenPair{}, fmt.Errorf("auth: load user: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return TokenPair{}, domain.ErrInvalidCredentials
	}

	pair, err := s.issuePair(ctx, user)
	if err != nil {
		return TokenPair{}, err
	}

	s.hooks.Notify(ctx, activity.Event{
		Verb:       activity.VerbUserLoggedIn,
		ActorEmail: user.Email,
		ObjectType: "user",
		ObjectID:   user.ID.String(),
	})
	return pair, nil
}

// VerifyEmail consumes the token mailed at registration.
func (s *Service) VerifyEmail(ctx context.Context, email, token string) error {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return mapStoreError("auth: load user", err)
	}
	if user.VerifyToken == "" || user.VerifyToken != strings.TrimSpace(token) {
		return domain.ErrInvalidToken
	}
	if s.now().UTC().After(user.VerifyExpiresAt) {
		return domain.ErrTokenExpired
	}

	user.EmailVerified = true
	user.VerifyToken = ""
	user.VerifyExpiresAt = time.Time{}
	if err := s.users.Update(ctx, user); err != nil {
		return fmt.Errorf("auth: persist verification: %w", err)
	}
	return nil
}

// RequestPasswordReset issues a reset token and mails it. Unknown emails
// return nil so the endpoint does not leak which accounts exist.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("auth: load user: %w", err)
	}

	user.ResetToken = uuid.NewString()
	user.ResetExpiresAt = s.now().UTC().Add(s.cfg.ResetTTL)
	if err := s.users.Update(ctx, user); err != nil {
		return fmt.Errorf("auth: persist reset token: %w", err)
	}

	if s.mailer != nil {
		if err := s.mailer.SendPasswordReset(ctx, user.Email, user.ResetToken, user.ResetExpiresAt); err != nil {
			s.logger.Warn("reset email failed",
				logger.F("email", activity.MaskEmail(user.Email)),
				logger.F("error", err),
			)
		}
	}
	return nil
}

// ResetPassword consumes a reset token and replaces the password. All
// refresh tokens are revoked so stolen sessions die with the old password.
func (s *Service) ResetPassword(ctx context.Context, email, token, newPassword, confirm string) error {
	if newPassword != confirm {
		return ErrPasswordMismatch
	}
	if len(newPassword) < 8 {
		return ErrWeakPassword
	}

	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return mapStoreError("auth: load user", err)
	}
	if user.ResetToken == "" || user.ResetToken != strings.TrimSpace(token) {
		return domain.ErrInvalidToken
	}
	if s.now().UTC().After(user.ResetExpiresAt) {
		return domain.ErrTokenExpired
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("auth: hash password: %w", err)
	}

	user.PasswordHash = string(hash)
	user.ResetToken = ""
	user.ResetExpiresAt = time.Time{}
	user.RefreshToken = ""
	user.RefreshExpiresAt = time.Time{}
	if err := s.users.Update(ctx, user); err != nil {
		return fmt.Errorf("auth: persist password: %w", err)
	}
	return nil
}

// Refresh exchanges a refresh token for a fresh pair, rotating the stored
// token.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	user, err := s.users.GetByRefreshToken(ctx, strings.TrimSpace(refreshToken))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return TokenPair{}, domain.ErrInvalidToken
		}
		return TokenPair{}, fmt.Errorf("auth: load user: %w", err)
	}
	if s.now().UTC().After(user.RefreshExpiresAt) {
		return TokenPair{}, domain.ErrTokenExpired
	}
	return s.issuePair(ctx, user)
}

// VerifyAccess validates a bearer token and returns its claims.
func (s *Service) VerifyAccess(token string) (Claims, error) {
	return s.tokens.Verify(token)
}

func (s *Service) issuePair(ctx context.Context, user *domain.User) (TokenPair, error) {
	access, accessExpires, err := s.tokens.Issue(user)
	if err != nil {
		return TokenPair{}, err
	}

	user.RefreshToken = uuid.NewString()
	user.RefreshExpiresAt = s.now().UTC().Add(s.cfg.RefreshTTL)
	if err := s.users.Update(ctx, user); err != nil {
		return TokenPair{}, fmt.Errorf("auth: persist refresh token: %w", err)
	}

	return TokenPair{
		AccessToken:      access,
		AccessExpiresAt:  accessExpires,
		RefreshToken:     user.RefreshToken,
		RefreshExpiresAt: user.RefreshExpiresAt,
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func mapStoreError(msg string, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%s: %w", msg, domain.ErrNotFound)
	}
	return fmt.Errorf("%s: %w", msg, err)
}
