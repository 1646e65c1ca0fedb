package token

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestIssueAndVerify(t *testing.T) {
	svc := NewService("test-secret")

	signed, err := svc.Issue("user-123")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	ownerID, err := svc.Verify(signed)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if ownerID != "user-123" {
		t.Errorf("Expected owner 'user-123', got %q", ownerID)
	}
}

func TestVerifyEmptyToken(t *testing.T) {
	svc := NewService("test-secret")
	if _, err := svc.Verify(""); !errors.Is(err, ErrMalformed) {
		t.Errorf("Expected ErrMalformed, got %v", err)
	}
}

func TestVerifyGarbageToken(t *testing.T) {
	svc := NewService("test-secret")
	if _, err := svc.Verify("not.a.jwt"); !errors.Is(err, ErrMalformed) {
		t.Errorf("Expected ErrMalformed, got %v", err)
	}
}

func TestVerifyWrongKey(t *testing.T) {
	issuer := NewService("key-one")
	verifier := NewService("key-two")

	signed, err := issuer.Issue("user-123")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	if _, err := verifier.Verify(signed); !errors.Is(err, ErrSignature) {
		t.Errorf("Expected ErrSignature, got %v", err)
	}
}

func TestVerifyExpiredToken(t *testing.T) {
	svc := NewService("test-secret")

	signed, err := svc.Issue("user-123")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	// One second past the validity window.
	svc.now = func() time.Time { return time.Now().Add(Validity + time.Second) }

	if _, err := svc.Verify(signed); !errors.Is(err, ErrExpired) {
		t.Errorf("Expected ErrExpired, got %v", err)
	}
}

func TestVerifyRejectsWrongSigningMethod(t *testing.T) {
	svc := NewService("test-secret")

	// alg=none tokens must never verify.
	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub": "user-123",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	raw, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("building none-alg token failed: %v", err)
	}

	if _, err := svc.Verify(raw); err == nil {
		t.Error("Expected verification failure for alg=none token")
	}
}

func TestVerifyMissingSubject(t *testing.T) {
	svc := NewService("test-secret")

	noSub := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	raw, err := noSub.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("signing failed: %v", err)
	}

	if _, err := svc.Verify(raw); !errors.Is(err, ErrMalformed) {
		t.Errorf("Expected ErrMalformed for missing sub, got %v", err)
	}
}
