package di

import (
	"errors"
	"reflect"

	i18n "github.com/goliatone/go-i18n"
	"github.com/goliatone/go-ticketing/internal/auth"
	"github.com/goliatone/go-ticketing/internal/dashboard"
	"github.com/goliatone/go-ticketing/internal/email"
	"github.com/goliatone/go-ticketing/internal/events"
	"github.com/goliatone/go-ticketing/internal/ledger"
	"github.com/goliatone/go-ticketing/internal/realtime"
	"github.com/goliatone/go-ticketing/pkg/activity"
	"github.com/goliatone/go-ticketing/pkg/adapters"
	"github.com/goliatone/go-ticketing/pkg/adapters/console"
	"github.com/goliatone/go-ticketing/pkg/commands"
	"github.com/goliatone/go-ticketing/pkg/config"
	"github.com/goliatone/go-ticketing/pkg/interfaces/logger"
	"github.com/goliatone/go-ticketing/pkg/storage"
)

// Options configure the DI container.
type Options struct {
	Config     config.Config
	Storage    storage.Providers
	Logger     logger.Logger
	Translator i18n.Translator
	Adapters   []adapters.Messenger
	Hooks      activity.Hooks
}

// Container wires repositories, services, the realtime hub, and commands.
type Container struct {
	Config    config.Config
	Storage   storage.Providers
	Hub       *realtime.Hub
	Bridge    *realtime.Bridge
	Dashboard *dashboard.Service
	Ledger    *ledger.Service
	Events    *events.Service
	Auth      *auth.Service
	Email     *email.Service
	Commands  *commands.Registry
	Adapters  *adapters.Registry
}

func isZeroConfig(cfg config.Config) bool {
	return reflect.ValueOf(cfg).IsZero()
}

// New constructs the container using the supplied options.
func New(opts Options) (*Container, error) {
	cfg := opts.Config
	if isZeroConfig(cfg) {
		cfg = config.Defaults()
		cfg.Auth.Secret = "dev-only-secret"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	providers := opts.Storage
	if providers.Events == nil {
		providers = storage.NewMemoryProviders()
	}

	lgr := opts.Logger
	if lgr == nil {
		lgr = &logger.Nop{}
	}

	messengers := opts.Adapters
	if len(messengers) == 0 {
		messengers = []adapters.Messenger{console.New(lgr)}
	}
	adapterRegistry := adapters.NewRegistry(messengers...)

	hub := realtime.NewHub(realtime.Dependencies{
		SendBuffer: cfg.Realtime.SendBuffer,
		Logger:     lgr,
	})
	bridge := realtime.NewBridge(hub, lgr)

	dashSvc, err := dashboard.New(dashboard.Dependencies{
		Tickets: providers.Tickets,
		Events:  providers.Events,
		Logger:  lgr,
	})
	if err != nil {
		return nil, err
	}

	ledgerSvc, err := ledger.New(ledger.Dependencies{
		Tickets:   providers.Tickets,
		Events:    providers.Events,
		Publisher: bridge,
		Insights:  dashSvc,
		Hooks:     opts.Hooks,
		Logger:    lgr,
	})
	if err != nil {
		return nil, err
	}

	eventSvc, err := events.New(events.Dependencies{
		Events:      providers.Events,
		Tickets:     providers.Tickets,
		Transaction: providers.Transaction,
		Publisher:   bridge,
		Hooks:       opts.Hooks,
		Logger:      lgr,
	})
	if err != nil {
		return nil, err
	}

	emailSvc, err := email.New(email.Dependencies{
		Registry:   adapterRegistry,
		Translator: opts.Translator,
		Logger:     lgr,
		Config: email.Config{
			From:          cfg.Email.From,
			AppName:       cfg.Email.AppName,
			BaseURL:       cfg.Email.BaseURL,
			Provider:      cfg.Email.Provider,
			DefaultLocale: cfg.Email.DefaultLocale,
		},
	})
	if err != nil {
		return nil, err
	}

	tokens, err := auth.NewTokenManager(auth.TokenConfig{
		Secret:    []byte(cfg.Auth.Secret),
		Issuer:    cfg.Auth.Issuer,
		AccessTTL: cfg.Auth.AccessTTL,
	})
	if err != nil {
		return nil, err
	}

	authSvc, err := auth.New(auth.Dependencies{
		Users:  providers.Users,
		Tokens: tokens,
		Mailer: emailSvc,
		Hooks:  opts.Hooks,
		Logger: lgr,
		Config: auth.Config{
			RefreshTTL: cfg.Auth.RefreshTTL,
			VerifyTTL:  cfg.Auth.VerifyTTL,
			ResetTTL:   cfg.Auth.ResetTTL,
		},
	})
	if err != nil {
		return nil, err
	}

	cmdRegistry, err := commands.New(commands.Dependencies{
		Ledger: ledgerSvc,
		Events: eventSvc,
		Logger: lgr,
	})
	if err != nil {
		return nil, err
	}

	return &Container{
		Config:    cfg,
		Storage:   providers,
		Hub:       hub,
		Bridge:    bridge,
		Dashboard: dashSvc,
		Ledger:    ledgerSvc,
		Events:    eventSvc,
		Auth:      authSvc,
		Email:     emailSvc,
		Commands:  cmdRegistry,
		Adapters:  adapterRegistry,
	}, nil
}

var errNilContainer = errors.New("di: container is nil")

// Close releases container resources. The hub drops every live client.
func (c *Container) Close() error {
	if c == nil {
		return errNilContainer
	}
	if c.Hub != nil {
		c.Hub.Shutdown()
	}
	return nil
}
