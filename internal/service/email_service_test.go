package service

import (
	"errors"
	"testing"

	"github.com/shopfront/internal/config"
)

func TestEmailServiceDisabled(t *testing.T) {
	svc := NewEmailService(config.EmailConfig{Enabled: false})

	if svc.Enabled() {
		t.Fatalf("expected disabled email service")
	}
	if err := svc.Send("user@example.com", "subject", "body"); !errors.Is(err, ErrEmailServiceDisabled) {
		t.Fatalf("expected ErrEmailServiceDisabled, got %v", err)
	}
}

func TestEmailServiceMissingHost(t *testing.T) {
	svc := NewEmailService(config.EmailConfig{Enabled: true})

	if err := svc.Send("user@example.com", "subject", "body"); !errors.Is(err, ErrEmailServiceNotConfigured) {
		t.Fatalf("expected ErrEmailServiceNotConfigured, got %v", err)
	}
}
