package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret-at-least-16-chars!!"

func newTestTokenService(t *testing.T) *TokenService {
	t.Helper()
	ts, err := NewTokenService(testSecret, "course-marketplace")
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	return ts
}

func TestNewTokenService(t *testing.T) {
	tests := []struct {
		name    string
		secret  string
		issuer  string
		wantErr bool
	}{
		{name: "valid", secret: "this-is-16-chars", issuer: "marketplace"},
		{name: "short secret", secret: "short", issuer: "marketplace", wantErr: true},
		{name: "empty issuer", secret: "this-is-16-chars", issuer: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTokenService(tt.secret, tt.issuer)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewTokenService() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestGenerate_RejectsEmptySubject(t *testing.T) {
	ts := newTestTokenService(t)
	if _, err := ts.Generate(""); err == nil {
		t.Fatal("Generate(\"\") should fail")
	}
}

func TestValidate_RoundTrip(t *testing.T) {
	ts := newTestTokenService(t)

	token, err := ts.Generate("user_2abc")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if strings.Count(token, ".") != 2 {
		t.Fatalf("token %q does not look like a JWT", token)
	}

	got, err := ts.Validate(token)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if got != "user_2abc" {
		t.Errorf("Validate() = %q, want %q", got, "user_2abc")
	}
}

func TestValidate_Rejects(t *testing.T) {
	ts := newTestTokenService(t)

	expired, _ := ts.GenerateWithDuration("user-1", -time.Second)
	valid, _ := ts.Generate("user-1")

	otherIssuer, _ := NewTokenService(testSecret, "someone-else")
	foreign, _ := otherIssuer.Generate("user-1")

	otherSecret, _ := NewTokenService("wrong-secret-32-chars-long!!!!!!", "course-marketplace")
	wrongKey, _ := otherSecret.Generate("user-1")

	noExp, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject: "user-1",
		Issuer:  "course-marketplace",
	}).SignedString([]byte(testSecret))

	unsigned, _ := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject:   "user-1",
		Issuer:    "course-marketplace",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)

	tests := []struct {
		name  string
		token string
	}{
		{name: "expired", token: expired},
		{name: "tampered signature", token: valid[:len(valid)-3] + "xxx"},
		{name: "wrong issuer", token: foreign},
		{name: "wrong secret", token: wrongKey},
		{name: "missing expiry", token: noExp},
		{name: "alg none", token: unsigned},
		{name: "empty", token: ""},
		{name: "garbage", token: "not.a.jwt.token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ts.Validate(tt.token); err == nil {
				t.Errorf("Validate() accepted a %s token", tt.name)
			}
		})
	}
}

func TestGenerateWithDuration_FutureToken(t *testing.T) {
	ts := newTestTokenService(t)

	token, err := ts.GenerateWithDuration("user-123", 24*time.Hour)
	if err != nil {
		t.Fatalf("GenerateWithDuration() error = %v", err)
	}

	userID, err := ts.Validate(token)
	if err != nil {
		t.Fatalf("Validate() on 24h token error = %v", err)
	}
	if userID != "user-123" {
		t.Errorf("userID = %q, want %q", userID, "user-123")
	}
}
