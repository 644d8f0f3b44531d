// Package auth issues and verifies the bearer tokens that bind a client to one wizard session.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront/internal/domain"
	"storefront/internal/domain/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const issuer = "storefront-wizard"

type Claims struct {
	SessionID string         `json:"session_id"`
	Product   models.Product `json:"product"`
	jwt.RegisteredClaims
}

type SessionTokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewSessionTokens(secret string, ttl time.Duration) *SessionTokens {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SessionTokens{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// WithClock overrides the token clock.
func (s *SessionTokens) WithClock(now func() time.Time) *SessionTokens {
	s.now = now
	return s
}

// Issue starts a new session for product and returns its signed token.
func (s *SessionTokens) Issue(product models.Product) (string, domain.SessionContext, error) {
	if !product.Valid() {
		return "", domain.SessionContext{}, domain.ValidationError{Field: "product", Msg: "unknown product " + string(product)}
	}
	sess := domain.SessionContext{SessionID: uuid.NewString(), Product: product}
	now := s.now()
	claims := &Claims{
		SessionID: sess.SessionID,
		Product:   product,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    issuer,
			Subject:   sess.SessionID,
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", domain.SessionContext{}, fmt.Errorf("sign session token: %w", err)
	}
	return signed, sess, nil
}

// ErrInvalidToken covers every rejected token.
var ErrInvalidToken = errors.New("invalid session token")

// Parse verifies raw and returns the session it names.
func (s *SessionTokens) Parse(raw string) (domain.SessionContext, error) {
	raw = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(raw), "Bearer "))
	if raw == "" {
		return domain.SessionContext{}, ErrInvalidToken
	}
	token, err := jwt.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithIssuer(issuer), jwt.WithTimeFunc(s.now))
	if err != nil {
		return domain.SessionContext{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return domain.SessionContext{}, ErrInvalidToken
	}
	if claims.SessionID == "" || !claims.Product.Valid() {
		return domain.SessionContext{}, ErrInvalidToken
	}
	return domain.SessionContext{SessionID: claims.SessionID, Product: claims.Product}, nil
}
