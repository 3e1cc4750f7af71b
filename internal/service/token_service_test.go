package service

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"hunter/internal/domain"
)

func testUser() domain.User {
	return domain.User{ID: "user-1", Email: "user@example.com", Username: "hunter1"}
}

func TestTokenService_GenerateAndParse(t *testing.T) {
	svc := NewTokenService("secret", time.Hour, 24*time.Hour)

	pair, err := svc.GeneratePair(testUser())
	if err != nil {
		t.Fatalf("generate pair: %v", err)
	}
	if pair.TokenType != "Bearer" || pair.ExpiresIn != 3600 {
		t.Fatalf("unexpected pair: %+v", pair)
	}

	claims, err := svc.ParseAccessToken(pair.AccessToken)
	if err != nil {
		t.Fatalf("parse access: %v", err)
	}
	if claims.UserID != "user-1" || claims.Email != "user@example.com" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if claims.TokenType != "access" {
		t.Fatalf("expected access token type, got %q", claims.TokenType)
	}
}

func TestTokenService_RefreshTokenRejectedAsAccess(t *testing.T) {
	svc := NewTokenService("secret", time.Hour, 24*time.Hour)
	pair, err := svc.GeneratePair(testUser())
	if err != nil {
		t.Fatalf("generate pair: %v", err)
	}

	if _, err := svc.ParseAccessToken(pair.RefreshToken); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestTokenService_WrongSecret(t *testing.T) {
	svc := NewTokenService("secret", time.Hour, 24*time.Hour)
	other := NewTokenService("different", time.Hour, 24*time.Hour)

	pair, err := svc.GeneratePair(testUser())
	if err != nil {
		t.Fatalf("generate pair: %v", err)
	}
	if _, err := other.ParseAccessToken(pair.AccessToken); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestTokenService_ExpiredToken(t *testing.T) {
	svc := NewTokenService("secret", time.Hour, 24*time.Hour)

	now := time.Now().UTC()
	claims := Claims{
		UserID:    "user-1",
		TokenType: "access",
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        "jti-old",
			Issuer:    "hunter",
			Subject:   "user-1",
			IssuedAt:  jwt.NewNumericDate(now.Add(-2 * time.Hour)),
			ExpiresAt: jwt.NewNumericDate(now.Add(-time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := svc.ParseAccessToken(signed); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestTokenService_GlobalSignOut(t *testing.T) {
	svc := NewTokenService("secret", time.Hour, 24*time.Hour)
	pair, err := svc.GeneratePair(testUser())
	if err != nil {
		t.Fatalf("generate pair: %v", err)
	}

	if err := svc.GlobalSignOut(pair.AccessToken); err != nil {
		t.Fatalf("global sign out: %v", err)
	}

	// The access token is dead for the rest of its lifetime.
	if _, err := svc.ParseAccessToken(pair.AccessToken); !errors.Is(err, ErrTokenRevoked) {
		t.Fatalf("expected ErrTokenRevoked, got %v", err)
	}
	// And a second sign-out reports the revocation.
	if err := svc.GlobalSignOut(pair.AccessToken); !errors.Is(err, ErrTokenRevoked) {
		t.Fatalf("expected ErrTokenRevoked on reuse, got %v", err)
	}
}

func TestTokenService_GlobalSignOutRevokesRefreshTokens(t *testing.T) {
	refresh := NewMemoryRefreshTokenStore()
	svc := NewTokenServiceWithStores("secret", time.Hour, 24*time.Hour, refresh, nil)

	pair, err := svc.GeneratePair(testUser())
	if err != nil {
		t.Fatalf("generate pair: %v", err)
	}
	second, err := svc.GeneratePair(testUser())
	if err != nil {
		t.Fatalf("generate second pair: %v", err)
	}

	if err := svc.GlobalSignOut(pair.AccessToken); err != nil {
		t.Fatalf("global sign out: %v", err)
	}

	for _, token := range []string{pair.RefreshToken, second.RefreshToken} {
		claims, err := svc.parseToken(token)
		if err != nil {
			t.Fatalf("parse refresh: %v", err)
		}
		ok, err := refresh.Exists(claims.ID)
		if err != nil {
			t.Fatalf("exists: %v", err)
		}
		if ok {
			t.Fatalf("expected refresh jti %s revoked", claims.ID)
		}
	}
}

func TestTokenService_RevokeRefreshRejectsAccessToken(t *testing.T) {
	svc := NewTokenService("secret", time.Hour, 24*time.Hour)
	pair, err := svc.GeneratePair(testUser())
	if err != nil {
		t.Fatalf("generate pair: %v", err)
	}

	if err := svc.RevokeRefresh(pair.AccessToken); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestTokenService_EmptyToken(t *testing.T) {
	svc := NewTokenService("secret", time.Hour, 24*time.Hour)
	if _, err := svc.ParseAccessToken(""); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}
