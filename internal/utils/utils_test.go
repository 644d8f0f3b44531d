package utils

import (
	"testing"
	"time"
)

func TestFormatPrice(t *testing.T) {
	cases := map[float64]string{
		0:       "EUR 0.00",
		115:     "EUR 115.00",
		1250.5:  "EUR 1,250.50",
		-12.5:   "EUR -12.50",
		999.999: "EUR 1,000.00",
	}
	for in, want := range cases {
		if got := FormatPrice(in, "eur"); got != want {
			t.Fatalf("FormatPrice(%v): expected %q, got %q", in, want, got)
		}
	}
	if got := FormatPrice(5, ""); got != "5.00" {
		t.Fatalf("expected bare amount without currency, got %q", got)
	}
}

func TestRoundMoney(t *testing.T) {
	if got := RoundMoney(14.999); got != 15 {
		t.Fatalf("expected 15, got %v", got)
	}
	if got := RoundMoney(0.1 + 0.2); got != 0.3 {
		t.Fatalf("expected 0.3, got %v", got)
	}
}

func TestParseClock(t *testing.T) {
	cases := map[string]int{"00:00": 0, "08:00": 480, "8:05": 485, "23:59": 1439, "17:30:59": 1050}
	for in, want := range cases {
		got, err := ParseClock(in)
		if err != nil || got != want {
			t.Fatalf("ParseClock(%q): expected %d, got %d (%v)", in, want, got, err)
		}
	}
	for _, bad := range []string{"", "24:00", "12:60", "noon"} {
		if _, err := ParseClock(bad); err == nil {
			t.Fatalf("ParseClock(%q): expected error", bad)
		}
	}
}

func TestCombineDateTimeAndAt(t *testing.T) {
	got, err := CombineDateTime("2026-03-02", "8:00")
	if err != nil || got != "2026-03-02 08:00:00" {
		t.Fatalf("unexpected %q (%v)", got, err)
	}
	at, err := At("2026-03-02", "23:15", time.UTC)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !at.Equal(time.Date(2026, 3, 2, 23, 15, 0, 0, time.UTC)) {
		t.Fatalf("unexpected instant %v", at)
	}
	if _, err := At("2026-02-30", "10:00", time.UTC); err == nil {
		t.Fatalf("expected error for invalid date")
	}
}

func TestStrings(t *testing.T) {
	if got := NormalizeSpace("  Ana   Maria\tSilva "); got != "Ana Maria Silva" {
		t.Fatalf("unexpected %q", got)
	}
	if got := NormalizePhone(" +351 912 000 000 "); got != "+351912000000" {
		t.Fatalf("unexpected %q", got)
	}
	if got := SafeFilenamePart("airport city/../x"); got != "airport_cityx" {
		t.Fatalf("unexpected %q", got)
	}
	if got := SafeFilenamePart("///"); got != "draft" {
		t.Fatalf("expected fallback, got %q", got)
	}
}
