// ABOUTME: HTTP/JSON client for the remote identity backend
// ABOUTME: One round trip per call, no retries, no local caching of validity

package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client talks to the identity backend over HTTPS/JSON. It is stateless:
// every call is an independent round trip and may run concurrently with any
// other. Client implements Backend.
type Client struct {
	baseURL string
	apiKey  string
	httpc   *http.Client
	logger  *slog.Logger
}

var _ Backend = (*Client)(nil)

// NewClient creates a backend client for the given base URL and API key.
// Pass nil for httpc or logger to use defaults.
func NewClient(baseURL, apiKey string, httpc *http.Client, logger *slog.Logger) *Client {
	if httpc == nil {
		httpc = &http.Client{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpc:   httpc,
		logger:  logger.With("component", "identity"),
	}
}

// Wire shapes of the backend's REST responses.
type wireUser struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	UserMetadata struct {
		DisplayName string `json:"display_name"`
	} `json:"user_metadata"`
	AppMetadata struct {
		Provider string `json:"provider"`
	} `json:"app_metadata"`
}

type wireSession struct {
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token"`
	ExpiresAt    int64    `json:"expires_at"`
	User         wireUser `json:"user"`
}

type wireError struct {
	Error       string `json:"error"`
	Message     string `json:"msg"`
	Description string `json:"error_description"`
}

func (w wireError) text() string {
	switch {
	case w.Description != "":
		return w.Description
	case w.Message != "":
		return w.Message
	default:
		return w.Error
	}
}

func (u wireUser) principal() *Principal {
	if u.ID == "" {
		return nil
	}
	return &Principal{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.UserMetadata.DisplayName,
		Provider:    u.AppMetadata.Provider,
	}
}

func (s wireSession) session() *Session {
	if s.AccessToken == "" {
		return nil
	}
	expiresAt := time.Unix(s.ExpiresAt, 0).UTC()
	if s.ExpiresAt == 0 {
		expiresAt = tokenExpiry(s.AccessToken)
	}
	return &Session{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		ExpiresAt:    expiresAt,
		Principal:    s.User.principal(),
	}
}

// CurrentSession returns the backend's view of the current session, or
// (nil, nil) when no principal is signed in.
func (c *Client) CurrentSession(ctx context.Context) (*Session, error) {
	var ws wireSession
	if err := c.do(ctx, http.MethodGet, "/auth/v1/session", "", nil, &ws); err != nil {
		return nil, err
	}
	return ws.session(), nil
}

// SignInWithPassword performs a password-grant token exchange.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	body := map[string]string{"email": email, "password": password}

	var ws wireSession
	if err := c.do(ctx, http.MethodPost, "/auth/v1/token?grant_type=password", "", body, &ws); err != nil {
		return nil, err
	}
	sess := ws.session()
	if sess == nil {
		return nil, fmt.Errorf("%w: sign-in response carried no session", ErrProtocol)
	}
	return sess, nil
}

// Register creates a new identity. A non-empty displayName is forwarded in
// the backend's profile-metadata field.
func (c *Client) Register(ctx context.Context, email, password, displayName string) (*Session, error) {
	body := map[string]any{"email": email, "password": password}
	if displayName != "" {
		body["data"] = map[string]string{"display_name": displayName}
	}

	var ws wireSession
	if err := c.do(ctx, http.MethodPost, "/auth/v1/signup", "", body, &ws); err != nil {
		return nil, err
	}
	// Backends requiring email confirmation answer without a session.
	return ws.session(), nil
}

// RevokeSession asks the backend to revoke the session behind accessToken.
func (c *Client) RevokeSession(ctx context.Context, accessToken string) error {
	return c.do(ctx, http.MethodPost, "/auth/v1/logout", accessToken, nil, nil)
}

// VerifyToken verifies a bearer token against the backend and returns the
// principal it belongs to. Always a remote round trip.
func (c *Client) VerifyToken(ctx context.Context, token string) (*Principal, error) {
	var wu wireUser
	if err := c.do(ctx, http.MethodGet, "/auth/v1/user", token, nil, &wu); err != nil {
		return nil, err
	}
	principal := wu.principal()
	if principal == nil {
		return nil, fmt.Errorf("%w: empty verification result", ErrUnauthorized)
	}
	return principal, nil
}

// AuthorizeURL constructs the consent-screen URL for a provider sign-in.
// No I/O happens here; the caller navigates to the returned URL.
func (c *Client) AuthorizeURL(provider, redirectTo string) (string, error) {
	if provider == "" {
		return "", fmt.Errorf("%w: empty provider", ErrProtocol)
	}
	q := url.Values{}
	q.Set("provider", provider)
	if redirectTo != "" {
		q.Set("redirect_to", redirectTo)
	}
	return c.baseURL + "/auth/v1/authorize?" + q.Encode(), nil
}

// do performs one request against the backend and decodes the JSON response
// into out (when non-nil). bearer overrides the API key as the Authorization
// credential for user-scoped calls.
func (c *Client) do(ctx context.Context, method, path, bearer string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%w: encoding request: %v", ErrProtocol, err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("%w: building request: %v", ErrProtocol, err)
	}
	req.Header.Set("apikey", c.apiKey)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	} else {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return c.statusError(resp)
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decoding response: %v", ErrProtocol, err)
	}
	return nil
}

// statusError maps a non-2xx backend response onto the error taxonomy,
// preserving the backend's own message verbatim.
func (c *Client) statusError(resp *http.Response) error {
	var we wireError
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	_ = json.Unmarshal(data, &we)
	detail := we.text()
	if detail == "" {
		detail = http.StatusText(resp.StatusCode)
	}

	c.logger.Debug("backend error response",
		"status", resp.StatusCode,
		"detail", detail)

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: %s", ErrUnauthorized, detail)
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return fmt.Errorf("%w: %s", ErrValidation, detail)
	default:
		return fmt.Errorf("%w: backend returned %d: %s", ErrNetwork, resp.StatusCode, detail)
	}
}
