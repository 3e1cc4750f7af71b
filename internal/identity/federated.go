package identity

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// FederatedConfig describes the OAuth provider used for federated sign-in.
// Endpoint defaults to Google when left zero.
type FederatedConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string
	Endpoint     oauth2.Endpoint
}

// FederatedSession holds the provider tokens a federated sign-in yields.
type FederatedSession struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64
	Email        string
}

// Federated exchanges authorization codes with an OAuth provider.
type Federated struct {
	config oauth2.Config
}

func NewFederated(cfg FederatedConfig) *Federated {
	endpoint := cfg.Endpoint
	if endpoint.AuthURL == "" && endpoint.TokenURL == "" {
		endpoint = google.Endpoint
	}
	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = []string{"openid", "email", "profile"}
	}
	return &Federated{config: oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Scopes:       scopes,
		Endpoint:     endpoint,
	}}
}

// AuthURL builds the URL the user visits to grant access.
func (f *Federated) AuthURL(state string) string {
	return f.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// Exchange trades an authorization code for provider tokens.
func (f *Federated) Exchange(ctx context.Context, code string) (FederatedSession, error) {
	token, err := f.config.Exchange(ctx, code)
	if err != nil {
		return FederatedSession{}, fmt.Errorf("exchange code: %w", err)
	}
	session := FederatedSession{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
	}
	if !token.Expiry.IsZero() {
		session.ExpiresIn = int64(time.Until(token.Expiry).Seconds())
	}
	// The id_token arrived over TLS from the provider's token endpoint;
	// its signature is not re-verified here.
	if raw, _ := token.Extra("id_token").(string); raw != "" {
		claims := jwt.MapClaims{}
		if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err == nil {
			session.Email, _ = claims["email"].(string)
		}
	}
	return session, nil
}
