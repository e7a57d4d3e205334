package console

import (
	"context"
	"fmt"

	"github.com/goliatone/go-ticketing/pkg/adapters"
	"github.com/goliatone/go-ticketing/pkg/interfaces/logger"
)

// Adapter writes emails to the configured logger for local development.
type Adapter struct {
	name string
	base adapters.BaseAdapter
	opts Options
}

type Option func(*Adapter)

// Options tweak console output.
type Options struct {
	Structured bool // when true, emit a structured log map instead of a formatted string
}

// WithName overrides the adapter provider name (defaults to "console").
func WithName(name string) Option {
	return func(a *Adapter) {
		if name != "" {
			a.name = name
		}
	}
}

// WithStructured enables structured logging mode.
func WithStructured(enabled bool) Option {
	return func(a *Adapter) {
		a.opts.Structured = enabled
	}
}

// New constructs a console adapter.
func New(l logger.Logger, opts ...Option) *Adapter {
	adapter := &Adapter{
		name: "console",
		base: adapters.NewBaseAdapter(l),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(adapter)
		}
	}
	return adapter
}

// Name implements adapters.Messenger.
func (a *Adapter) Name() string {
	return a.name
}

// Send logs the rendered message to the configured logger.
func (a *Adapter) Send(ctx context.Context, msg adapters.Message) error {
	if msg.TextBody == "" && msg.HTMLBody == "" {
		return adapters.ErrEmptyContent
	}

	if a.opts.Structured {
		a.base.Logger().Info("console delivery",
			logger.F("to", msg.To),
			logger.F("subject", msg.Subject),
			logger.F("text", msg.TextBody),
			logger.F("html", msg.HTMLBody),
		)
		a.base.LogSuccess(a.name, msg)
		return nil
	}

	body := msg.TextBody
	format := "plain"
	if body == "" {
		body = msg.HTMLBody
		format = "html"
	}
	a.base.Logger().Info(fmt.Sprintf("[console][%s] subject=%s to=%s body=%s", format, msg.Subject, msg.To, body))
	a.base.LogSuccess(a.name, msg)
	return nil
}
