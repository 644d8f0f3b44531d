package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Env struct {
	AppAddr  string
	GinMode  string
	LogLevel string
	LogDev   bool

	DBDSN string

	PricingURL     string
	CartURL        string
	PricingTimeout time.Duration
	SubmitTimeout  time.Duration
	PriceTolerance float64
	AutoPricing    bool

	JWTSecret      string
	SessionTTL     time.Duration
	SessionIdleTTL time.Duration
	DraftRetention time.Duration

	SameDayBuffer time.Duration
	PricingBands  string

	CORSAllowedOrigins []string
}

func LoadEnv() Env {
	return Env{
		AppAddr:  str("APP_ADDR", ":8080"),
		GinMode:  str("GIN_MODE", ""),
		LogLevel: str("LOG_LEVEL", "info"),
		LogDev:   boolean("LOG_DEV", false),

		DBDSN: str("DB_DSN", ""),

		PricingURL:     str("PRICING_URL", "http://localhost:9000/api/pricing/calculate"),
		CartURL:        str("CART_URL", "http://localhost:9000/api/cart/bookings"),
		PricingTimeout: duration("PRICING_TIMEOUT", 8*time.Second),
		SubmitTimeout:  duration("SUBMIT_TIMEOUT", 15*time.Second),
		PriceTolerance: float("PRICE_TOLERANCE", 0.5),
		AutoPricing:    boolean("AUTO_PRICING", true),

		JWTSecret:      str("JWT_SECRET", "dev-secret-change-me"),
		SessionTTL:     duration("SESSION_TTL", 24*time.Hour),
		SessionIdleTTL: duration("SESSION_IDLE_TTL", 30*time.Minute),
		DraftRetention: duration("DRAFT_RETENTION", 14*24*time.Hour),

		SameDayBuffer: duration("SAME_DAY_BUFFER", 2*time.Hour),
		PricingBands:  str("PRICING_BANDS", ""),

		CORSAllowedOrigins: list("CORS_ALLOWED_ORIGINS", []string{
			"http://localhost:3000",
			"http://127.0.0.1:3000",
			"http://localhost:5173",
			"http://127.0.0.1:5173",
		}),
	}
}

func str(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func duration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		return def
	}
	return d
}

func float(key string, def float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func boolean(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func list(key string, def []string) []string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	out := []string{}
	for _, o := range strings.Split(v, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
