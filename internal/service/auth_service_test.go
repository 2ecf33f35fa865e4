package service

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestHostTokenRoundTrip(t *testing.T) {
	auth := NewAuthService("secret", time.Hour)
	token, hostID, err := auth.IssueHostToken("ABC234")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if !strings.HasPrefix(hostID, "host_") {
		t.Fatalf("unexpected host id %q", hostID)
	}

	claims, err := auth.ValidateHostToken(token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.GameCode != "ABC234" || claims.HostID != hostID {
		t.Fatalf("unexpected claims %+v", claims)
	}
}

func TestTokensRejectedWithWrongSecretOrExpired(t *testing.T) {
	auth := NewAuthService("secret", time.Minute)
	token, err := auth.GeneratePlayerToken("ABC234", "player_1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	other := NewAuthService("other", time.Minute)
	if _, err := other.ValidatePlayerToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected invalid token for wrong secret, got %v", err)
	}

	later := NewAuthService("secret", time.Minute)
	later.now = func() time.Time { return time.Now().Add(time.Hour) }
	if _, err := later.ValidatePlayerToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected invalid token once expired, got %v", err)
	}

	if _, err := auth.ValidatePlayerToken("not-a-token"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected invalid token for garbage, got %v", err)
	}
}
