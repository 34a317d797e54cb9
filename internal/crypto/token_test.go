package crypto

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret-key"

func TestSignAndVerifyToken(t *testing.T) {
	token, err := SignToken(NewClaims(time.Now()), testSecret, time.Hour)
	if err != nil {
		t.Fatalf("SignToken() unexpected error: %v", err)
	}
	if strings.Count(token, ".") != 2 {
		t.Fatalf("SignToken() = %q, want compact JWT", token)
	}

	claims, err := VerifyToken(token, testSecret)
	if err != nil {
		t.Fatalf("VerifyToken() unexpected error: %v", err)
	}
	if !claims.Authenticated {
		t.Error("claims.Authenticated = false, want true")
	}
	if claims.Subject != "owner" {
		t.Errorf("claims.Subject = %q, want %q", claims.Subject, "owner")
	}
	if got := claims.ExpiresAt.Sub(claims.IssuedAt.Time); got != time.Hour {
		t.Errorf("token lifetime = %v, want 1h", got)
	}
}

func TestVerifyTokenWrongSecret(t *testing.T) {
	token, err := SignToken(NewClaims(time.Now()), "k1", time.Hour)
	if err != nil {
		t.Fatalf("SignToken() unexpected error: %v", err)
	}

	if _, err := VerifyToken(token, "k2"); err != ErrInvalidToken {
		t.Errorf("VerifyToken() error = %v, want ErrInvalidToken", err)
	}
}

func TestVerifyTokenExpired(t *testing.T) {
	token, err := SignToken(NewClaims(time.Now().Add(-2*time.Hour)), testSecret, time.Hour)
	if err != nil {
		t.Fatalf("SignToken() unexpected error: %v", err)
	}

	if _, err := VerifyToken(token, testSecret); err != ErrInvalidToken {
		t.Errorf("VerifyToken() error = %v, want ErrInvalidToken", err)
	}
}

func TestVerifyTokenRejectsForeignClaims(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name   string
		claims Claims
		method jwt.SigningMethod
	}{
		{
			name: "wrong issuer",
			claims: Claims{
				RegisteredClaims: jwt.RegisteredClaims{
					Issuer:    "someone-else",
					Audience:  jwt.ClaimStrings{"molo-api"},
					ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
				},
				Authenticated: true,
			},
			method: jwt.SigningMethodHS256,
		},
		{
			name: "not authenticated",
			claims: Claims{
				RegisteredClaims: jwt.RegisteredClaims{
					Issuer:    "molo",
					Audience:  jwt.ClaimStrings{"molo-api"},
					ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
				},
			},
			method: jwt.SigningMethodHS256,
		},
		{
			name: "no expiry",
			claims: Claims{
				RegisteredClaims: jwt.RegisteredClaims{
					Issuer:   "molo",
					Audience: jwt.ClaimStrings{"molo-api"},
				},
				Authenticated: true,
			},
			method: jwt.SigningMethodHS256,
		},
		{
			name: "hs512",
			claims: Claims{
				RegisteredClaims: jwt.RegisteredClaims{
					Issuer:    "molo",
					Audience:  jwt.ClaimStrings{"molo-api"},
					ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
				},
				Authenticated: true,
			},
			method: jwt.SigningMethodHS512,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := jwt.NewWithClaims(tt.method, tt.claims).SignedString([]byte(testSecret))
			if err != nil {
				t.Fatalf("SignedString() unexpected error: %v", err)
			}
			if _, err := VerifyToken(token, testSecret); err != ErrInvalidToken {
				t.Errorf("VerifyToken() error = %v, want ErrInvalidToken", err)
			}
		})
	}
}

func TestVerifyTokenMalformed(t *testing.T) {
	for _, token := range []string{"", "not-a-token", "a.b.c"} {
		if _, err := VerifyToken(token, testSecret); err != ErrInvalidToken {
			t.Errorf("VerifyToken(%q) error = %v, want ErrInvalidToken", token, err)
		}
	}
}

func TestDecodeToken(t *testing.T) {
	issued := time.Now().Add(-3 * time.Hour).Truncate(time.Second)
	token, err := SignToken(NewClaims(issued), testSecret, time.Hour)
	if err != nil {
		t.Fatalf("SignToken() unexpected error: %v", err)
	}

	// Expired, but decodable without the secret.
	claims, err := DecodeToken(token)
	if err != nil {
		t.Fatalf("DecodeToken() unexpected error: %v", err)
	}
	if !claims.ExpiresAt.Time.Equal(issued.Add(time.Hour)) {
		t.Errorf("claims.ExpiresAt = %v, want %v", claims.ExpiresAt.Time, issued.Add(time.Hour))
	}

	if _, err := DecodeToken("garbage"); err != ErrInvalidToken {
		t.Errorf("DecodeToken(garbage) error = %v, want ErrInvalidToken", err)
	}
}
