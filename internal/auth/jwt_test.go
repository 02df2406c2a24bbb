package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestManagerGenerateVerify(t *testing.T) {
	m, err := NewManager("test-secret")
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	token, err := m.Generate("user-a@example.com", time.Hour)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	ownerID, err := m.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if ownerID != "user-a@example.com" {
		t.Fatalf("expected owner id round-trip, got %q", ownerID)
	}
}

func TestManagerRejectsEmptySecret(t *testing.T) {
	if _, err := NewManager(""); err == nil {
		t.Fatal("expected error for empty secret")
	}
}

func TestVerifyRejectsGarbage(t *testing.T) {
	m, _ := NewManager("test-secret")
	if _, err := m.Verify("not-a-token"); err == nil {
		t.Fatal("expected error for malformed token")
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	signer, _ := NewManager("secret-one")
	verifier, _ := NewManager("secret-two")

	token, err := signer.Generate("user-a", time.Hour)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if _, err := verifier.Verify(token); err == nil {
		t.Fatal("expected error for token signed with a different secret")
	}
}

func TestVerifyRejectsExpired(t *testing.T) {
	m, _ := NewManager("test-secret")
	token, err := m.Generate("user-a", -time.Minute)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if _, err := m.Verify(token); err != ErrExpiredToken {
		t.Fatalf("expected ErrExpiredToken, got %v", err)
	}
}

func TestMiddleware(t *testing.T) {
	m, _ := NewManager("test-secret")
	var gotOwner string
	handler := m.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotOwner = OwnerFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("missing header", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("malformed header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Token abc")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("valid token", func(t *testing.T) {
		token, _ := m.Generate("owner-1", time.Hour)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if gotOwner != "owner-1" {
			t.Fatalf("expected owner-1 in context, got %q", gotOwner)
		}
	})
}
