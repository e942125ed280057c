package httpapi

import (
	"strings"
	"testing"
	"time"

	"pdvbalcao/backend/internal/activation"
	"pdvbalcao/backend/internal/domain"
)

func newTestSessions(ttl time.Duration) *SessionManager {
	return NewSessionManager("test-auth-secret-0123456789abcdef", ttl, activation.New("test-license-secret"))
}

func TestActivateIssuesParsableToken(t *testing.T) {
	sessions := newTestSessions(time.Hour)
	key := activation.New("test-license-secret").KeyFor("Mercadinho Central")

	resp, err := sessions.Activate(domain.ActivationRequest{ClientName: "Mercadinho Central", LicenseKey: key})
	if err != nil {
		t.Fatalf("activate: %v", err)
	}
	if resp.AccessToken == "" || resp.ClientName != "Mercadinho Central" {
		t.Fatalf("unexpected response: %+v", resp)
	}

	actor, err := sessions.ParseToken(resp.AccessToken)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if actor.ClientName != "Mercadinho Central" {
		t.Fatalf("actor = %+v", actor)
	}
}

func TestActivateRejectsBadKey(t *testing.T) {
	sessions := newTestSessions(time.Hour)

	_, err := sessions.Activate(domain.ActivationRequest{ClientName: "Mercadinho Central", LicenseKey: "AAAA-BBBB-CCCC-DDDD-EEEE-FFFF-0000-1111"})
	if err == nil {
		t.Fatal("bad key accepted")
	}
	_, err = sessions.Activate(domain.ActivationRequest{ClientName: "", LicenseKey: "anything"})
	if err == nil {
		t.Fatal("blank client name accepted")
	}
}

func TestParseTokenRejectsExpired(t *testing.T) {
	sessions := newTestSessions(time.Hour)
	token, err := sessions.sign("Mercadinho Central", time.Now().UTC().Add(-time.Minute))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := sessions.ParseToken(token); err == nil {
		t.Fatal("expired token accepted")
	}
}

func TestParseTokenRejectsForeignSignature(t *testing.T) {
	sessions := newTestSessions(time.Hour)
	other := NewSessionManager("another-secret-another-secret-!!", time.Hour, activation.New("x"))

	token, err := other.sign("Mercadinho Central", time.Now().UTC().Add(time.Hour))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := sessions.ParseToken(token); err == nil {
		t.Fatal("token signed with a different secret accepted")
	}
	if _, err := sessions.ParseToken("not.a.jwt"); err == nil || !strings.Contains(err.Error(), "invalid") {
		t.Fatalf("garbage token: %v", err)
	}
}
