package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("secret1")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "secret1" {
		t.Fatal("hash must not equal the plaintext password")
	}
	if !CheckPassword(hash, "secret1") {
		t.Error("correct password rejected")
	}
	if CheckPassword(hash, "secret2") {
		t.Error("wrong password accepted")
	}
}

func TestTokenRoundTrip(t *testing.T) {
	svc := NewTokenService("test-secret")
	ident := Identity{ID: primitive.NewObjectID(), Name: "Ann"}

	token, err := svc.Issue(ident)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	got, err := svc.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if got.ID != ident.ID {
		t.Errorf("id = %s, want %s", got.ID.Hex(), ident.ID.Hex())
	}
	if got.Name != ident.Name {
		t.Errorf("name = %q, want %q", got.Name, ident.Name)
	}
}

func TestVerifyExpiredToken(t *testing.T) {
	svc := NewTokenService("test-secret")
	svc.ttl = -time.Hour

	token, err := svc.Issue(Identity{ID: primitive.NewObjectID(), Name: "Ann"})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if _, err := svc.Verify(token); err != ErrInvalidToken {
		t.Errorf("Verify(expired) = %v, want ErrInvalidToken", err)
	}
}

func TestVerifyWrongSecret(t *testing.T) {
	token, err := NewTokenService("secret-a").Issue(Identity{ID: primitive.NewObjectID(), Name: "Ann"})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if _, err := NewTokenService("secret-b").Verify(token); err != ErrInvalidToken {
		t.Errorf("Verify with wrong secret = %v, want ErrInvalidToken", err)
	}
}

func TestVerifyMalformedToken(t *testing.T) {
	svc := NewTokenService("test-secret")

	if _, err := svc.Verify("not-a-token"); err != ErrInvalidToken {
		t.Errorf("Verify(garbage) = %v, want ErrInvalidToken", err)
	}
}

func TestVerifyUnsignedToken(t *testing.T) {
	svc := NewTokenService("test-secret")

	claims := &Claims{
		UserID: primitive.NewObjectID().Hex(),
		Name:   "Ann",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := svc.Verify(unsigned); err != ErrInvalidToken {
		t.Errorf("Verify(alg=none) = %v, want ErrInvalidToken", err)
	}
}
