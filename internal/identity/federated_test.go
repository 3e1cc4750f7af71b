package identity

import (
	"strings"
	"testing"

	"golang.org/x/oauth2"
)

func endpointFor(baseURL string) oauth2.Endpoint {
	return oauth2.Endpoint{
		AuthURL:  baseURL + "/auth",
		TokenURL: baseURL + "/token",
	}
}

func TestFederatedAuthURL(t *testing.T) {
	fed := NewFederated(FederatedConfig{
		ClientID:    "client-id",
		RedirectURL: "http://localhost/callback",
		Endpoint:    endpointFor("http://provider.example"),
	})

	authURL := fed.AuthURL("state-123")
	if !strings.HasPrefix(authURL, "http://provider.example/auth?") {
		t.Fatalf("unexpected auth URL: %s", authURL)
	}
	for _, fragment := range []string{"client_id=client-id", "state=state-123", "access_type=offline"} {
		if !strings.Contains(authURL, fragment) {
			t.Fatalf("auth URL missing %q: %s", fragment, authURL)
		}
	}
}

func TestFederatedDefaultsToGoogle(t *testing.T) {
	fed := NewFederated(FederatedConfig{ClientID: "client-id"})
	authURL := fed.AuthURL("s")
	if !strings.Contains(authURL, "accounts.google.com") {
		t.Fatalf("expected Google endpoint default, got %s", authURL)
	}
}
