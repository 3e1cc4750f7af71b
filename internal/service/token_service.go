package service

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"hunter/internal/domain"
)

// TokenService issues and validates access and refresh tokens.
type TokenService struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	issuer     string
	refresh    RefreshTokenStore
	denylist   AccessDenylist
}

// TokenPair is what a successful sign-in hands back to the client.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int64  `json:"expiresIn"`
	TokenType    string `json:"tokenType"`
}

type Claims struct {
	UserID    string `json:"uid"`
	Email     string `json:"email"`
	Username  string `json:"username,omitempty"`
	TokenType string `json:"typ"`
	jwt.RegisteredClaims
}

var (
	ErrTokenInvalid = errors.New("token invalid")
	ErrTokenExpired = errors.New("token expired")
	ErrTokenRevoked = errors.New("token revoked")
)

func NewTokenService(secret string, accessTTL, refreshTTL time.Duration) *TokenService {
	if accessTTL <= 0 {
		accessTTL = time.Hour
	}
	if refreshTTL <= 0 {
		refreshTTL = 30 * 24 * time.Hour
	}
	return &TokenService{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		issuer:     "hunter",
		refresh:    NewMemoryRefreshTokenStore(),
		denylist:   NewMemoryAccessDenylist(),
	}
}

func NewTokenServiceWithStores(secret string, accessTTL, refreshTTL time.Duration, refresh RefreshTokenStore, denylist AccessDenylist) *TokenService {
	svc := NewTokenService(secret, accessTTL, refreshTTL)
	if refresh != nil {
		svc.refresh = refresh
	}
	if denylist != nil {
		svc.denylist = denylist
	}
	return svc
}

// AccessTTLSeconds is the expiresIn value surfaced to clients at sign-in.
func (s *TokenService) AccessTTLSeconds() int64 {
	return int64(s.accessTTL.Seconds())
}

func (s *TokenService) GeneratePair(user domain.User) (TokenPair, error) {
	if len(s.secret) == 0 {
		return TokenPair{}, ErrTokenInvalid
	}
	now := time.Now().UTC()
	access, _, err := s.signToken(user, now, s.accessTTL, "access")
	if err != nil {
		return TokenPair{}, err
	}
	refresh, jti, err := s.signToken(user, now, s.refreshTTL, "refresh")
	if err != nil {
		return TokenPair{}, err
	}
	if err := s.refresh.Store(jti, user.ID, s.refreshTTL); err != nil {
		return TokenPair{}, err
	}
	return TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    s.AccessTTLSeconds(),
		TokenType:    "Bearer",
	}, nil
}

// ParseAccessToken validates an access token, including the denylist check
// so a globally signed-out token is rejected before its natural expiry.
func (s *TokenService) ParseAccessToken(accessToken string) (Claims, error) {
	claims, err := s.parseToken(accessToken)
	if err != nil {
		return Claims{}, err
	}
	if claims.TokenType != "access" {
		return Claims{}, ErrTokenInvalid
	}
	denied, err := s.denylist.IsDenied(claims.ID)
	if err != nil {
		return Claims{}, err
	}
	if denied {
		return Claims{}, ErrTokenRevoked
	}
	return claims, nil
}

// GlobalSignOut invalidates the presented access token for the rest of its
// lifetime and revokes every refresh token issued to the same user.
func (s *TokenService) GlobalSignOut(accessToken string) error {
	claims, err := s.ParseAccessToken(accessToken)
	if err != nil {
		return err
	}
	remaining := time.Until(claims.ExpiresAt.Time)
	if remaining <= 0 {
		remaining = time.Minute
	}
	if err := s.denylist.Deny(claims.ID, remaining); err != nil {
		return err
	}
	return s.refresh.RevokeAllForUser(claims.UserID)
}

// RevokeRefresh revokes a single refresh token. Backed by the form-encoded
// revoke endpoint federated clients use at sign-out.
func (s *TokenService) RevokeRefresh(refreshToken string) error {
	claims, err := s.parseToken(refreshToken)
	if err != nil {
		return err
	}
	if claims.TokenType != "refresh" || claims.ID == "" {
		return ErrTokenInvalid
	}
	return s.refresh.Revoke(claims.ID)
}

func (s *TokenService) signToken(user domain.User, now time.Time, ttl time.Duration, tokenType string) (string, string, error) {
	jti := uuid.NewString()
	claims := Claims{
		UserID:    user.ID,
		Email:     user.Email,
		Username:  user.Username,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Issuer:    s.issuer,
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	return signed, jti, err
}

func (s *TokenService) parseToken(tokenString string) (Claims, error) {
	if len(s.secret) == 0 || strings.TrimSpace(tokenString) == "" {
		return Claims{}, ErrTokenInvalid
	}
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return s.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithIssuer(s.issuer), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, ErrTokenExpired
		}
		return Claims{}, ErrTokenInvalid
	}
	if !token.Valid || claims.UserID == "" {
		return Claims{}, ErrTokenInvalid
	}
	return claims, nil
}
