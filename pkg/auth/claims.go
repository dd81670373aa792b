package auth

import (
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Identity is what a verified session token says about its holder. Only
// Subject is guaranteed; profile fields are present when the provider's
// session template includes them.
type Identity struct {
	Subject   string
	SessionID string
	Email     string
	FirstName string
	LastName  string
	ImageURL  string
}

// SessionClaims matches the provider's session token layout.
type SessionClaims struct {
	SessionID string `json:"sid,omitempty"`
	Email     string `json:"email,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	ImageURL  string `json:"image_url,omitempty"`
	jwt.RegisteredClaims
}

func (c *SessionClaims) identity() *Identity {
	return &Identity{
		Subject:   strings.TrimSpace(c.Subject),
		SessionID: c.SessionID,
		Email:     strings.TrimSpace(c.Email),
		FirstName: c.FirstName,
		LastName:  c.LastName,
		ImageURL:  c.ImageURL,
	}
}
