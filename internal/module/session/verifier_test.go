package session

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/glutton4gainz/edge/internal/domain"
)

const testSecret = "0123456789abcdef0123456789abcdef"

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

func newTestVerifier() *Verifier {
	return NewVerifier(VerifierConfig{
		Secret:   testSecret,
		Issuer:   "https://auth.example.com/auth/v1",
		Audience: "authenticated",
		Now:      fixedClock,
	})
}

func validClaims() Claims {
	return Claims{
		Email: "lifter@example.com",
		Role:  "authenticated",
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        "jti-1",
			Subject:   "user-1",
			Issuer:    "https://auth.example.com/auth/v1",
			Audience:  jwt.ClaimStrings{"authenticated"},
			IssuedAt:  jwt.NewNumericDate(testNow.Add(-time.Minute)),
			ExpiresAt: jwt.NewNumericDate(testNow.Add(time.Hour)),
		},
	}
}

func signToken(t *testing.T, method jwt.SigningMethod, key any, claims Claims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}

func mustSign(t *testing.T, mutate func(*Claims)) string {
	t.Helper()
	claims := validClaims()
	if mutate != nil {
		mutate(&claims)
	}
	return signToken(t, jwt.SigningMethodHS256, []byte(testSecret), claims)
}

func TestVerifier_Valid(t *testing.T) {
	sess, err := newTestVerifier().Verify(mustSign(t, nil))
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if sess.UserID != "user-1" || sess.TokenID != "jti-1" || sess.Email != "lifter@example.com" || sess.Role != "authenticated" {
		t.Errorf("unexpected session %+v", sess)
	}
	if !sess.ExpiresAt.Equal(testNow.Add(time.Hour)) {
		t.Errorf("ExpiresAt = %v", sess.ExpiresAt)
	}
}

func TestVerifier_SessionIDFallback(t *testing.T) {
	token := mustSign(t, func(c *Claims) {
		c.ID = ""
		c.SessionID = "sess-9"
	})
	sess, err := newTestVerifier().Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if sess.TokenID != "sess-9" {
		t.Errorf("TokenID = %q, want sess-9", sess.TokenID)
	}
}

func TestVerifier_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		token   func(t *testing.T) string
		expired bool
	}{
		{"empty", func(*testing.T) string { return "  " }, false},
		{"garbage", func(*testing.T) string { return "not.a.jwt" }, false},
		{"expired", func(t *testing.T) string {
			return mustSign(t, func(c *Claims) { c.ExpiresAt = jwt.NewNumericDate(testNow.Add(-time.Second)) })
		}, true},
		{"no expiry", func(t *testing.T) string {
			return mustSign(t, func(c *Claims) { c.ExpiresAt = nil })
		}, false},
		{"no subject", func(t *testing.T) string {
			return mustSign(t, func(c *Claims) { c.Subject = "" })
		}, false},
		{"wrong issuer", func(t *testing.T) string {
			return mustSign(t, func(c *Claims) { c.Issuer = "https://evil.example.com" })
		}, false},
		{"wrong audience", func(t *testing.T) string {
			return mustSign(t, func(c *Claims) { c.Audience = jwt.ClaimStrings{"service_role"} })
		}, false},
		{"not yet valid", func(t *testing.T) string {
			return mustSign(t, func(c *Claims) { c.NotBefore = jwt.NewNumericDate(testNow.Add(time.Hour)) })
		}, false},
		{"wrong secret", func(t *testing.T) string {
			return signToken(t, jwt.SigningMethodHS256, []byte(strings.Repeat("x", 32)), validClaims())
		}, false},
		{"wrong algorithm", func(t *testing.T) string {
			return signToken(t, jwt.SigningMethodHS512, []byte(testSecret), validClaims())
		}, false},
		{"alg none", func(t *testing.T) string {
			return signToken(t, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, validClaims())
		}, false},
	}
	v := newTestVerifier()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sess, err := v.Verify(tt.token(t))
			if err == nil {
				t.Fatalf("expected error, got session %+v", sess)
			}
			if tt.expired {
				if !domain.IsSessionExpired(err) {
					t.Errorf("expected session expired, got %v", err)
				}
				return
			}
			if !domain.IsUnauthenticated(err) {
				t.Errorf("expected unauthenticated, got %v", err)
			}
		})
	}
}

func TestVerifier_NoSecret(t *testing.T) {
	v := NewVerifier(VerifierConfig{Now: fixedClock})
	_, err := v.Verify(mustSign(t, nil))
	if !domain.IsUnauthenticated(err) {
		t.Fatalf("expected unauthenticated without a secret, got %v", err)
	}
}

func TestVerifier_OptionalIssuerAudience(t *testing.T) {
	v := NewVerifier(VerifierConfig{Secret: testSecret, Now: fixedClock})
	token := mustSign(t, func(c *Claims) {
		c.Issuer = ""
		c.Audience = nil
	})
	if _, err := v.Verify(token); err != nil {
		t.Fatalf("expected token without iss/aud to pass when unchecked, got %v", err)
	}
}

func TestVerifier_Leeway(t *testing.T) {
	token := mustSign(t, func(c *Claims) { c.ExpiresAt = jwt.NewNumericDate(testNow.Add(-10 * time.Second)) })
	v := NewVerifier(VerifierConfig{Secret: testSecret, Leeway: 30 * time.Second, Now: fixedClock})
	if _, err := v.Verify(token); err != nil {
		t.Fatalf("expected leeway to accept a just-expired token, got %v", err)
	}
}
