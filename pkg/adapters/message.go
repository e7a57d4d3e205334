package adapters

import (
	"context"
	"errors"
	"strings"
	"sync"
)

// Message is a rendered email ready for delivery.
type Message struct {
	ID       string
	Subject  string
	TextBody string
	HTMLBody string
	To       string
	From     string
	Headers  map[string]string
	Metadata map[string]any
}

// Messenger is implemented by delivery providers (console, SMTP, SES).
type Messenger interface {
	Name() string
	Send(ctx context.Context, msg Message) error
}

var (
	// ErrAdapterNotFound is returned when no messenger matches the requested
	// provider.
	ErrAdapterNotFound = errors.New("adapters: no adapter matches provider")

	// ErrEmptyContent is returned when a message has neither text nor HTML
	// body.
	ErrEmptyContent = errors.New("adapters: message content is empty")
)

// Registry stores available messengers by provider name. The first messenger
// registered becomes the default route.
type Registry struct {
	mu          sync.RWMutex
	adapters    map[string]Messenger
	defaultName string
}

// NewRegistry builds a registry with the supplied messengers.
func NewRegistry(messengers ...Messenger) *Registry {
	reg := &Registry{adapters: make(map[string]Messenger)}
	for _, m := range messengers {
		reg.Register(m)
	}
	return reg
}

// Register adds a messenger, indexing by provider name.
func (r *Registry) Register(m Messenger) {
	if r == nil || m == nil {
		return
	}
	name := normalizeKey(m.Name())
	if name == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters[name] = m
	if r.defaultName == "" {
		r.defaultName = name
	}
}

// Route locates a messenger by provider name; an empty name returns the
// default.
func (r *Registry) Route(provider string) (Messenger, error) {
	if r == nil {
		return nil, ErrAdapterNotFound
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	name := normalizeKey(provider)
	if name == "" {
		name = r.defaultName
	}
	if adapter, ok := r.adapters[name]; ok {
		return adapter, nil
	}
	return nil, ErrAdapterNotFound
}

// Names lists the registered provider names.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.adapters))
	for name := range r.adapters {
		out = append(out, name)
	}
	return out
}

func normalizeKey(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
