package session

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/glutton4gainz/edge/internal/domain"
)

// Claims is the access token payload issued by the auth provider.
type Claims struct {
	Email     string `json:"email,omitempty"`
	Role      string `json:"role,omitempty"`
	SessionID string `json:"session_id,omitempty"`
	jwt.RegisteredClaims
}

// VerifierConfig configures a Verifier. Issuer and Audience are checked
// only when set.
type VerifierConfig struct {
	Secret   string
	Issuer   string
	Audience string
	Leeway   time.Duration
	// Now overrides the clock used for exp/nbf/iat checks.
	Now func() time.Time
}

// Verifier checks HS256 access tokens.
type Verifier struct {
	secret []byte
	parser *jwt.Parser
}

// NewVerifier builds a Verifier. With an empty secret every token is
// rejected as unauthenticated.
func NewVerifier(cfg VerifierConfig) *Verifier {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}
	if cfg.Leeway > 0 {
		opts = append(opts, jwt.WithLeeway(cfg.Leeway))
	}
	if cfg.Now != nil {
		opts = append(opts, jwt.WithTimeFunc(cfg.Now))
	}
	return &Verifier{
		secret: []byte(cfg.Secret),
		parser: jwt.NewParser(opts...),
	}
}

// Verify parses raw and returns the session it carries. Expired tokens
// yield a CodeSessionExpired error; anything else wrong with the token
// yields CodeUnauthenticated.
func (v *Verifier) Verify(raw string) (*domain.Session, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, domain.ErrUnauthenticated
	}
	if len(v.secret) == 0 {
		return nil, domain.NewAppError(domain.CodeUnauthenticated, "session verification is not configured", nil)
	}

	var claims Claims
	_, err := v.parser.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.NewAppError(domain.CodeSessionExpired, domain.ErrSessionExpired.Message, err)
		}
		return nil, domain.NewAppError(domain.CodeUnauthenticated, "invalid session token", err)
	}
	if claims.Subject == "" {
		return nil, domain.NewAppError(domain.CodeUnauthenticated, "session token has no subject", nil)
	}

	return &domain.Session{
		TokenID:   claims.tokenID(),
		UserID:    claims.Subject,
		Email:     claims.Email,
		Role:      claims.Role,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// tokenID prefers the standard jti and falls back to the provider's
// session_id claim.
func (c *Claims) tokenID() string {
	if c.ID != "" {
		return c.ID
	}
	return c.SessionID
}
