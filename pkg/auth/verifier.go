package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"

	"github.com/cellarwise/cellarwise-backend/pkg/config"
)

const defaultLeeway = 30 * time.Second

var (
	// ErrNotConfigured signals that no identity provider is set up.
	ErrNotConfigured = errors.New("identity provider is not configured")
	ErrMissingToken  = errors.New("missing bearer token")
	errMissingSub    = errors.New("token missing sub")
)

// Verifier validates provider-issued RS256 session tokens against the
// provider's JWKS.
type Verifier struct {
	issuer  string
	keyfunc jwt.Keyfunc
	parser  *jwt.Parser
}

// NewVerifier builds a JWKS backed verifier. The JWKS URL defaults to the
// issuer's well-known path.
func NewVerifier(cfg config.AuthConfig) (*Verifier, error) {
	if !cfg.Configured() {
		return nil, ErrNotConfigured
	}
	issuer := strings.TrimRight(strings.TrimSpace(cfg.Issuer), "/")
	jwksURL := strings.TrimSpace(cfg.JWKSURL)
	if jwksURL == "" {
		jwksURL = issuer + "/.well-known/jwks.json"
	}

	provider, err := keyfunc.NewDefault([]string{jwksURL})
	if err != nil {
		return nil, fmt.Errorf("init JWKS keyfunc: %w", err)
	}
	return NewVerifierWithKeyfunc(issuer, cfg.Audience, provider.Keyfunc), nil
}

// NewVerifierWithKeyfunc wires a verifier around an arbitrary key source.
func NewVerifierWithKeyfunc(issuer, audience string, kf jwt.Keyfunc) *Verifier {
	opts := []jwt.ParserOption{
		jwt.WithIssuer(issuer),
		jwt.WithLeeway(defaultLeeway),
		jwt.WithExpirationRequired(),
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Name}),
	}
	if aud := strings.TrimSpace(audience); aud != "" {
		opts = append(opts, jwt.WithAudience(aud))
	}
	return &Verifier{
		issuer:  issuer,
		keyfunc: kf,
		parser:  jwt.NewParser(opts...),
	}
}

// Verify parses and validates a raw token string.
func (v *Verifier) Verify(tokenString string) (*Identity, error) {
	if v == nil {
		return nil, ErrNotConfigured
	}
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return nil, ErrMissingToken
	}

	claims := &SessionClaims{}
	if _, err := v.parser.ParseWithClaims(tokenString, claims, v.keyfunc); err != nil {
		return nil, err
	}

	identity := claims.identity()
	if identity.Subject == "" {
		return nil, errMissingSub
	}
	return identity, nil
}

// BearerToken strips an optional "Bearer " prefix from an Authorization header.
func BearerToken(header string) string {
	token := strings.TrimSpace(header)
	if len(token) >= 7 && strings.EqualFold(token[:7], "bearer ") {
		token = strings.TrimSpace(token[7:])
	}
	return token
}
