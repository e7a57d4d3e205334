package adapters

import (
	"context"
	"errors"
	"testing"
)

type fakeMessenger struct {
	name string
	sent []Message
}

func (f *fakeMessenger) Name() string { return f.name }

func (f *fakeMessenger) Send(_ context.Context, msg Message) error {
	f.sent = append(f.sent, msg)
	return nil
}

func TestRegistryRoutesByName(t *testing.T) {
	console := &fakeMessenger{name: "console"}
	smtp := &fakeMessenger{name: "smtp"}
	reg := NewRegistry(console, smtp)

	got, err := reg.Route("SMTP")
	if err != nil {
		t.Fatalf("route: %v", err)
	}
	if got.Name() != "smtp" {
		t.Fatalf("expected smtp adapter, got %s", got.Name())
	}
}

func TestRegistryDefaultsToFirstRegistered(t *testing.T) {
	console := &fakeMessenger{name: "console"}
	reg := NewRegistry(console, &fakeMessenger{name: "smtp"})

	got, err := reg.Route("")
	if err != nil {
		t.Fatalf("route: %v", err)
	}
	if got.Name() != "console" {
		t.Fatalf("expected default console adapter, got %s", got.Name())
	}
}

func TestRegistryUnknownProvider(t *testing.T) {
	reg := NewRegistry(&fakeMessenger{name: "console"})
	if _, err := reg.Route("sendgrid"); !errors.Is(err, ErrAdapterNotFound) {
		t.Fatalf("expected ErrAdapterNotFound, got %v", err)
	}
}

func TestRegistryIgnoresNil(t *testing.T) {
	reg := NewRegistry(nil, &fakeMessenger{name: "console"})
	if len(reg.Names()) != 1 {
		t.Fatalf("expected one adapter, got %v", reg.Names())
	}
}
