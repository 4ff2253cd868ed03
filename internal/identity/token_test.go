package identity

import (
	"errors"
	"testing"

	"github.com/google/uuid"
)

const testSecret = "test-secret-not-for-production"

func testUser(role Role) *User {
	return &User{
		ID:       uuid.New(),
		Username: "Billy Mays",
		Role:     role,
	}
}

func TestTokenRoundTrip(t *testing.T) {
	tok, err := MakeToken(testUser(RoleConsultant), testSecret)
	if err != nil {
		t.Fatalf("make token: %v", err)
	}

	claims, err := ParseToken(tok, testSecret)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims.Username != "Billy Mays" {
		t.Errorf("username = %q", claims.Username)
	}
	if claims.Role != RoleConsultant {
		t.Errorf("role = %q, want consultant", claims.Role)
	}
}

func TestParseTokenWrongSecret(t *testing.T) {
	tok, err := MakeToken(testUser(RoleClient), testSecret)
	if err != nil {
		t.Fatalf("make token: %v", err)
	}
	if _, err := ParseToken(tok, "other-secret"); err == nil {
		t.Fatal("token signed with a different secret must not parse")
	}
}

func TestParseTokenGarbage(t *testing.T) {
	if _, err := ParseToken("not.a.token", testSecret); err == nil {
		t.Fatal("garbage token must not parse")
	}
}

func TestParseTokenInvalidRole(t *testing.T) {
	tok, err := MakeToken(&User{Username: "x", Role: "superadmin"}, testSecret)
	if err != nil {
		t.Fatalf("make token: %v", err)
	}
	if _, err := ParseToken(tok, testSecret); !errors.Is(err, ErrBadToken) {
		t.Fatalf("token with an unknown role must be rejected, got %v", err)
	}
}
