package auth

import (
	"errors"
	"testing"
	"time"

	"storefront/internal/domain/models"
)

func TestIssueAndParse(t *testing.T) {
	tokens := NewSessionTokens("test-secret", time.Hour)
	raw, sess, err := tokens.Issue(models.ProductTransfer)
	if err != nil {
		t.Fatalf("issue error: %v", err)
	}
	if sess.SessionID == "" {
		t.Fatalf("expected a session id")
	}
	got, err := tokens.Parse("Bearer " + raw)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if got != sess {
		t.Fatalf("expected %+v, got %+v", sess, got)
	}
}

func TestParseRejectsExpiredAndForeignTokens(t *testing.T) {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	tokens := NewSessionTokens("test-secret", time.Hour).WithClock(func() time.Time { return base })
	raw, _, err := tokens.Issue(models.ProductTour)
	if err != nil {
		t.Fatalf("issue error: %v", err)
	}

	tokens.WithClock(func() time.Time { return base.Add(2 * time.Hour) })
	if _, err := tokens.Parse(raw); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected expired token to be rejected, got %v", err)
	}

	other := NewSessionTokens("other-secret", time.Hour).WithClock(func() time.Time { return base })
	if _, err := other.Parse(raw); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected foreign signature to be rejected, got %v", err)
	}
}

func TestIssueRejectsUnknownProduct(t *testing.T) {
	if _, _, err := NewSessionTokens("s", time.Hour).Issue("cruise"); err == nil {
		t.Fatalf("expected error for unknown product")
	}
}
