package services

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"storefront/internal/domain"
	"storefront/internal/domain/models"
	"storefront/internal/pricing"
)

func TestSummaryDocServiceGenerate(t *testing.T) {
	store := completeStore(t, nil)
	svc := SummaryDocService{Rules: pricing.DefaultRules(), Now: func() time.Time { return fixedNow }}

	pdf, filename, err := svc.GenerateSummary(store.Snapshot())
	if err != nil {
		t.Fatalf("GenerateSummary returned error: %v", err)
	}
	if !bytes.HasPrefix(pdf, []byte("%PDF")) {
		t.Fatalf("expected PDF output, got %q", pdf[:min(8, len(pdf))])
	}
	if filename != "SUMMARY_airport-city_20260301.pdf" {
		t.Fatalf("unexpected filename %q", filename)
	}
}

func TestSummaryDocServiceRequiresRoute(t *testing.T) {
	_, _, err := SummaryDocService{}.GenerateSummary(models.NewDraft(models.ProductTour))
	if !domain.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if !strings.Contains(err.Error(), "route") {
		t.Fatalf("error should name the route, got %v", err)
	}
}
