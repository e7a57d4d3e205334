package email

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-i18n"
	gotemplate "github.com/goliatone/go-template"
	"github.com/goliatone/go-ticketing/pkg/activity"
	"github.com/goliatone/go-ticketing/pkg/adapters"
	"github.com/goliatone/go-ticketing/pkg/interfaces/logger"
	"github.com/goliatone/go-ticketing/pkg/retry"
	"github.com/google/uuid"
)

// deliveryAttempts bounds how often a transient send failure is retried.
const deliveryAttempts = 3

var (
	// ErrMissingRegistry indicates the adapter registry dependency was not provided.
	ErrMissingRegistry = errors.New("email: adapter registry is required")
	// ErrRendererConfig indicates the template renderer could not be constructed.
	ErrRendererConfig = errors.New("email: renderer configuration failed")
	// ErrUnknownTemplate indicates a send was requested for a template code
	// the service does not know about.
	ErrUnknownTemplate = errors.New("email: unknown template")
)

// Config carries the delivery settings for outbound account email.
type Config struct {
	From          string
	AppName       string
	BaseURL       string
	Provider      string
	DefaultLocale string
}

func (c Config) withDefaults() Config {
	if strings.TrimSpace(c.AppName) == "" {
		c.AppName = "Ticketing"
	}
	if strings.TrimSpace(c.BaseURL) == "" {
		c.BaseURL = "http://localhost:8080"
	}
	if strings.TrimSpace(c.DefaultLocale) == "" {
		c.DefaultLocale = "en"
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	return c
}

// Dependencies wires the email service collaborators.
type Dependencies struct {
	Registry   *adapters.Registry
	Translator i18n.Translator
	Logger     logger.Logger
	Config     Config
}

// Service renders the built-in account templates and delivers them through
// whichever messenger the registry routes to.
type Service struct {
	registry *adapters.Registry
	renderer *gotemplate.Engine
	renderMu sync.Mutex
	logger   logger.Logger
	backoff  retry.Backoff
	cfg      Config
}

// New builds the email service. The translator is optional; when present its
// helpers are registered with the renderer so templates can call t().
func New(deps Dependencies) (*Service, error) {
	if deps.Registry == nil {
		return nil, ErrMissingRegistry
	}
	log := deps.Logger
	if log == nil {
		log = &logger.Nop{}
	}

	renderer, err := gotemplate.NewRenderer(gotemplate.WithBaseDir("."))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRendererConfig, err)
	}

	if deps.Translator != nil {
		helperCfg := i18n.HelperConfig{
			LocaleKey:         "locale",
			TemplateHelperKey: "t",
		}
		gotemplate.WithTemplateFunc(i18n.TemplateHelpers(deps.Translator, helperCfg))(renderer)
	}

	return &Service{
		registry: deps.Registry,
		renderer: renderer,
		logger:   log,
		backoff:  retry.DefaultBackoff(),
		cfg:      deps.Config.withDefaults(),
	}, nil
}

// SendVerification emails the address-confirmation link for a new account.
func (s *Service) SendVerification(ctx context.Context, to, token string, expiresAt time.Time) error {
	payload := s.basePayload(to)
	payload["action_url"] = s.actionURL("/verify-email", token)
	payload["expires_at"] = expiresAt.UTC().Format(time.RFC1123)
	return s.send(ctx, VerificationCode, to, payload)
}

// SendPasswordReset emails the reset link for an existing account.
func (s *Service) SendPasswordReset(ctx context.Context, to, token string, expiresAt time.Time) error {
	payload := s.basePayload(to)
	payload["action_url"] = s.actionURL("/reset-password", token)
	payload["expires_at"] = expiresAt.UTC().Format(time.RFC1123)
	return s.send(ctx, PasswordResetCode, to, payload)
}

// SendPurchaseReceipt emails a confirmation after a successful ticket purchase.
func (s *Service) SendPurchaseReceipt(ctx context.Context, to, eventName string, quantity int) error {
	payload := s.basePayload(to)
	payload["event_name"] = eventName
	if quantity > 0 {
		payload["quantity"] = quantity
	}
	return s.send(ctx, PurchaseCode, to, payload)
}

func (s *Service) basePayload(to string) map[string]any {
	return map[string]any{
		"name":     recipientName(to),
		"app_name": s.cfg.AppName,
		"locale":   s.cfg.DefaultLocale,
	}
}

func (s *Service) actionURL(path, token string) string {
	return s.cfg.BaseURL + path + "?token=" + url.QueryEscape(token)
}

func (s *Service) send(ctx context.Context, code, to string, payload map[string]any) error {
	tpl, ok := builtinTemplates[code]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTemplate, code)
	}

	subject, text, html, err := s.render(tpl, payload)
	if err != nil {
		return err
	}

	messenger, err := s.registry.Route(s.cfg.Provider)
	if err != nil {
		return err
	}

	msg := adapters.Message{
		ID:       uuid.NewString(),
		Subject:  subject,
		TextBody: text,
		HTMLBody: html,
		To:       to,
		From:     s.cfg.From,
		Metadata: map[string]any{"template": code},
	}
	if err := s.deliver(ctx, messenger, msg); err != nil {
		return fmt.Errorf("email: send %s: %w", code, err)
	}

	s.logger.Info("email sent",
		logger.F("template", code),
		logger.F("to", activity.MaskEmail(to)),
		logger.F("provider", messenger.Name()),
	)
	return nil
}

// deliver retries transient send failures with exponential backoff. The
// context cancels the wait between attempts.
func (s *Service) deliver(ctx context.Context, messenger adapters.Messenger, msg adapters.Message) error {
	var lastErr error
	for attempt := 1; attempt <= deliveryAttempts; attempt++ {
		lastErr = messenger.Send(ctx, msg)
		if lastErr == nil {
			return nil
		}
		if attempt == deliveryAttempts {
			break
		}
		s.logger.Warn("email delivery failed, retrying",
			logger.F("provider", messenger.Name()),
			logger.F("attempt", attempt),
			logger.F("error", lastErr),
		)
		timer := time.NewTimer(s.backoff.Next(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return lastErr
}

func (s *Service) render(tpl emailTemplate, payload map[string]any) (subject, text, html string, err error) {
	s.renderMu.Lock()
	defer s.renderMu.Unlock()

	subject, err = s.renderer.RenderString(tpl.Subject, payload)
	if err != nil {
		return "", "", "", fmt.Errorf("email: render subject: %w", err)
	}
	text, err = s.renderer.RenderString(tpl.Text, payload)
	if err != nil {
		return "", "", "", fmt.Errorf("email: render text body: %w", err)
	}
	html, err = s.renderer.RenderString(tpl.HTML, payload)
	if err != nil {
		return "", "", "", fmt.Errorf("email: render html body: %w", err)
	}
	return strings.TrimSpace(subject), strings.TrimSpace(text), strings.TrimSpace(html), nil
}

// recipientName derives a display name from the mailbox part of the address.
func recipientName(address string) string {
	local, _, found := strings.Cut(address, "@")
	if !found || local == "" {
		return address
	}
	return local
}
