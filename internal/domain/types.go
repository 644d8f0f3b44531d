package domain

import "storefront/internal/domain/models"

// SessionContext carries the authenticated wizard session when available.
type SessionContext struct {
	SessionID string         `json:"sessionId"`
	Product   models.Product `json:"product"`
}

// Key is the (product, session) identity of one wizard.
func (s SessionContext) Key() string {
	return string(s.Product) + ":" + s.SessionID
}
