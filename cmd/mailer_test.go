package cmd

import (
	"context"
	"strings"
	"testing"
)

func TestMailerRejectsBadAddresses(t *testing.T) {
	t.Run("InvalidSender", func(t *testing.T) {
		mailer := NewMailer("not an address", "localhost", newTestLogger())

		err := mailer.Send(context.Background(), "dest@example.com", "subject", "body")
		if err == nil {
			t.Fatal("expected error for invalid sender address")
		}
		if !strings.Contains(err.Error(), "invalid sender address") {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("InvalidRecipient", func(t *testing.T) {
		mailer := NewMailer("noreply@example.com", "localhost", newTestLogger())

		err := mailer.Send(context.Background(), "not an address", "subject", "body")
		if err == nil {
			t.Fatal("expected error for invalid recipient address")
		}
		if !strings.Contains(err.Error(), "invalid recipient address") {
			t.Fatalf("unexpected error: %v", err)
		}
	})
}
