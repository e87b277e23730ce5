package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signToken(t *testing.T, secret string, claims Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestJWTVerifierRejectsMissingHeader(t *testing.T) {
	v, err := NewJWTVerifier("super-secret")
	if err != nil {
		t.Fatalf("NewJWTVerifier: %v", err)
	}

	called := false
	handler := v.Middleware(func(w http.ResponseWriter, r *http.Request) { called = true })

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/strategy/add", nil)
	handler(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if called {
		t.Fatalf("downstream handler should not run without a token")
	}
}

func TestJWTVerifierRejectsMalformedHeader(t *testing.T) {
	v, _ := NewJWTVerifier("super-secret")
	handler := v.Middleware(func(w http.ResponseWriter, r *http.Request) {})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/strategy/add", nil)
	req.Header.Set("Authorization", "super-secret")
	handler(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestJWTVerifierRejectsWrongSecret(t *testing.T) {
	v, _ := NewJWTVerifier("correct-secret")
	token := signToken(t, "wrong-secret", Claims{
		Subject:          "alice",
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	})

	handler := v.Middleware(func(w http.ResponseWriter, r *http.Request) {})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/strategy/add", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	handler(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestJWTVerifierAcceptsValidTokenAndInjectsClaims(t *testing.T) {
	v, _ := NewJWTVerifier("correct-secret")
	token := signToken(t, "correct-secret", Claims{
		Subject:          "alice",
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	})

	var gotSubject string
	handler := v.Middleware(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if ok {
			gotSubject = claims.Subject
		}
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/strategy/add", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	handler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if gotSubject != "alice" {
		t.Fatalf("claims subject = %q, want alice", gotSubject)
	}
}

func TestJWTVerifierRejectsExpiredToken(t *testing.T) {
	v, _ := NewJWTVerifier("correct-secret")
	token := signToken(t, "correct-secret", Claims{
		Subject:          "alice",
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour))},
	})

	handler := v.Middleware(func(w http.ResponseWriter, r *http.Request) {})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/strategy/add", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	handler(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestNewJWTVerifierRejectsEmptySecret(t *testing.T) {
	if _, err := NewJWTVerifier(""); err == nil {
		t.Fatalf("expected an error for an empty secret")
	}
}
