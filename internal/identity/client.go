// Package identity is the client-side wrapper around the Hunter API. It
// translates HTTP failures into a closed set of auth error kinds so callers
// can switch on what happened instead of parsing messages.
package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Kind classifies an authentication failure.
type Kind string

const (
	KindUserNotFound          Kind = "UserNotFound"
	KindUserNotConfirmed      Kind = "UserNotConfirmed"
	KindNotAuthorized         Kind = "NotAuthorized"
	KindPasswordResetRequired Kind = "PasswordResetRequired"
	KindTooManyRequests       Kind = "TooManyRequests"
	KindAccountExists         Kind = "AccountExists"
	KindInvalidPassword       Kind = "InvalidPassword"
	KindCodeDeliveryFailure   Kind = "CodeDeliveryFailure"
	KindCodeMismatch          Kind = "CodeMismatch"
	KindTokenExpired          Kind = "TokenExpired"
	KindTokenRevoked          Kind = "TokenRevoked"
	KindUnknown               Kind = "Unknown"
)

// AuthError is a failed API call, classified.
type AuthError struct {
	Kind    Kind
	Message string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("identity: %s (%s)", e.Message, e.Kind)
}

// Client talks to the Hunter API.
type Client struct {
	baseURL string
	client  *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// Session is what a successful sign-in gives back.
type Session struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int64  `json:"expiresIn"`
	TokenType    string `json:"tokenType"`
	Email        string `json:"email"`
	Username     string `json:"username"`
}

// SignUpResult is the response to a successful sign-up.
type SignUpResult struct {
	UserConfirmed bool   `json:"userConfirmed"`
	UserSub       string `json:"userSub"`
}

// Entry mirrors the API's job entry shape.
type Entry struct {
	ID             string   `json:"id"`
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	Employer       string   `json:"employer"`
	Contact        string   `json:"contact,omitempty"`
	Status         string   `json:"status"`
	SubmissionDate string   `json:"submissionDate"`
	Location       string   `json:"location,omitempty"`
	Notes          string   `json:"notes,omitempty"`
	FoundWhere     string   `json:"foundWhere"`
	Screenshots    []string `json:"screenshots,omitempty"`
}

// NewEntry is the payload for creating an entry.
type NewEntry struct {
	Title          string   `json:"title"`
	Description    string   `json:"description,omitempty"`
	Employer       string   `json:"employer"`
	Contact        string   `json:"contact,omitempty"`
	Status         string   `json:"status"`
	SubmissionDate string   `json:"submissionDate"`
	Location       string   `json:"location,omitempty"`
	Notes          string   `json:"notes,omitempty"`
	FoundWhere     string   `json:"foundWhere"`
	Screenshots    []string `json:"screenshots,omitempty"`
}

// ImageUpload names one file to request a presigned URL for.
type ImageUpload struct {
	FileName string `json:"fileName"`
	MimeType string `json:"mimeType"`
}

// PresignedUpload is one presigned PUT URL.
type PresignedUpload struct {
	UploadURL string `json:"uploadUrls"`
	Key       string `json:"key"`
}

func (c *Client) SignIn(ctx context.Context, email, password string) (Session, error) {
	var session Session
	err := c.postJSON(ctx, "/signin", "", map[string]string{
		"email":    email,
		"password": password,
	}, &session)
	if err != nil {
		return Session{}, err
	}
	return session, nil
}

func (c *Client) SignUp(ctx context.Context, email, password, username string) (SignUpResult, error) {
	var result SignUpResult
	err := c.postJSON(ctx, "/signup", "", map[string]string{
		"email":    email,
		"password": password,
		"username": username,
	}, &result)
	if err != nil {
		return SignUpResult{}, err
	}
	return result, nil
}

func (c *Client) ConfirmSignUp(ctx context.Context, email, code string) error {
	return c.postJSON(ctx, "/confirm", "", map[string]string{
		"email": email,
		"code":  code,
	}, nil)
}

// ResendConfirmationCode reissues the confirmation code for an unconfirmed
// account.
func (c *Client) ResendConfirmationCode(ctx context.Context, email string) error {
	return c.postJSON(ctx, "/resendCode", "", map[string]string{
		"email": email,
	}, nil)
}

// SignOut performs a global sign-out. The access token travels in the body.
func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	return c.postJSON(ctx, "/signout", "", map[string]string{
		"token": accessToken,
	}, nil)
}

// UpdateUsername sends the attribute-list shape the API expects.
func (c *Client) UpdateUsername(ctx context.Context, accessToken, username string) error {
	return c.postJSON(ctx, "/updateUsername", "", map[string]any{
		"token": accessToken,
		"attributes": []map[string]string{
			{"Name": "preferred_username", "Value": username},
		},
	}, nil)
}

func (c *Client) ForgotPassword(ctx context.Context, email string) error {
	return c.postJSON(ctx, "/forgotPassword", "", map[string]string{
		"email": email,
	}, nil)
}

func (c *Client) ResetPassword(ctx context.Context, email, code, password string) error {
	return c.postJSON(ctx, "/resetPassword", "", map[string]string{
		"email":    email,
		"code":     code,
		"password": password,
	}, nil)
}

// RevokeToken revokes a refresh token through the form-encoded endpoint.
func (c *Client) RevokeToken(ctx context.Context, clientID, refreshToken string) error {
	form := url.Values{}
	form.Set("client_id", clientID)
	form.Set("token", refreshToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/oauth2/revoke", strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req, nil)
}

func (c *Client) ListEntries(ctx context.Context, accessToken, status string) ([]Entry, error) {
	path := "/entries"
	if status != "" {
		path += "?status=" + url.QueryEscape(status)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	var out struct {
		Entries []Entry `json:"entries"`
	}
	if err := c.do(req, &out); err != nil {
		// The API reports an empty list as a 404. The client treats
		// that as the empty state, not an error.
		var authErr *AuthError
		if errors.As(err, &authErr) && authErr.Message == "No entries found" {
			return []Entry{}, nil
		}
		return nil, err
	}
	return out.Entries, nil
}

func (c *Client) CreateEntry(ctx context.Context, accessToken string, entry NewEntry) (Entry, error) {
	var out struct {
		Entry Entry `json:"entry"`
	}
	if err := c.postJSON(ctx, "/entries", accessToken, entry, &out); err != nil {
		return Entry{}, err
	}
	return out.Entry, nil
}

func (c *Client) DeleteEntry(ctx context.Context, accessToken, id string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/entries/"+url.PathEscape(id), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	return c.do(req, nil)
}

func (c *Client) PresignUploads(ctx context.Context, accessToken string, images []ImageUpload) ([]PresignedUpload, error) {
	var out struct {
		Uploads []PresignedUpload `json:"uploads"`
	}
	err := c.postJSON(ctx, "/getPresignedUrl", accessToken, map[string]any{
		"images": images,
	}, &out)
	if err != nil {
		return nil, err
	}
	return out.Uploads, nil
}

func (c *Client) postJSON(ctx context.Context, path, accessToken string, body, out any) error {
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return classify(resp.StatusCode, respBody)
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}
	return nil
}

// classify maps an error response onto the closed Kind set. Messages the
// client does not recognize come back as KindUnknown with the raw message
// preserved.
func classify(statusCode int, body []byte) *AuthError {
	var payload struct {
		Message string `json:"message"`
	}
	_ = json.Unmarshal(body, &payload)
	message := payload.Message
	if message == "" {
		message = fmt.Sprintf("http status %d", statusCode)
	}

	kind := KindUnknown
	switch message {
	case "User not found":
		kind = KindUserNotFound
	case "User not confirmed", "Please confirm your account first":
		kind = KindUserNotConfirmed
	case "Incorrect username or password", "Not authorized to perform this action":
		kind = KindNotAuthorized
	case "Password reset required":
		kind = KindPasswordResetRequired
	case "Too many requests. Please try again later.":
		kind = KindTooManyRequests
	case "Account already exists":
		kind = KindAccountExists
	case "Invalid password format":
		kind = KindInvalidPassword
	case "Error delivering verification email":
		kind = KindCodeDeliveryFailure
	case "Invalid confirmation code", "Invalid reset code",
		"Confirmation code has expired", "Reset code has expired":
		kind = KindCodeMismatch
	case "Access Token has expired":
		kind = KindTokenExpired
	case "Access Token has been revoked":
		kind = KindTokenRevoked
	}
	return &AuthError{Kind: kind, Message: message}
}
