package instaweb

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"gramline/internal/services"
)

const (
	defaultBaseURL   = "https://www.instagram.com"
	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
	defaultTimeout   = 30 * time.Second
)

// HTTPDoer abstracts http.Client.Do for testing.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// Tokens holds the cookies Instagram issues for an authenticated browser
// session. SessionID and CSRFToken are required; UserID is sent when known
// but Instagram resolves the account from the session cookie without it.
type Tokens struct {
	SessionID string `json:"sessionid"`
	CSRFToken string `json:"csrftoken"`
	UserID    string `json:"ds_user_id"`
}

// Valid reports whether the mandatory session and CSRF tokens are present.
func (t Tokens) Valid() bool {
	return t.SessionID != "" && t.CSRFToken != ""
}

// Profile is the subset of account info used to verify a session.
type Profile struct {
	Username string
	FullName string
}

// Option customises Client construction.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client used for API calls.
func WithHTTPClient(client HTTPDoer) Option {
	return func(c *Client) { c.httpClient = client }
}

// WithBaseURL overrides the API origin (used in tests).
func WithBaseURL(baseURL string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(baseURL, "/") }
}

// WithUserAgent overrides the browser identity presented to Instagram.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// WithDeviceID pins the client identifier instead of generating one.
func WithDeviceID(id string) Option {
	return func(c *Client) { c.deviceID = id }
}

// Client talks to the Instagram web endpoints using session cookies.
type Client struct {
	baseURL    string
	httpClient HTTPDoer
	userAgent  string
	deviceID   string
}

// NewHTTPClient returns a plain HTTP client with the given timeout, for use
// with WithHTTPClient.
func NewHTTPClient(timeout time.Duration) HTTPDoer {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

// NewClient builds a Client with sane defaults.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
		userAgent:  defaultUserAgent,
		deviceID:   uuid.NewString(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return c
}

// Login authenticates with username and password and returns the session
// cookie triple. Authentication rejections map to services.ErrAuth.
func (c *Client) Login(ctx context.Context, username, password string) (Tokens, error) {
	csrf, err := c.fetchCSRFToken(ctx)
	if err != nil {
		return Tokens{}, err
	}

	form := url.Values{}
	form.Set("username", username)
	form.Set("enc_password", fmt.Sprintf("#PWD_INSTAGRAM_BROWSER:0:%d:%s", time.Now().Unix(), password))
	form.Set("queryParams", "{}")
	form.Set("optIntoOneTap", "false")

	req, err := c.newRequest(ctx, http.MethodPost, "/accounts/login/ajax/", strings.NewReader(form.Encode()))
	if err != nil {
		return Tokens{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-CSRFToken", csrf)
	req.AddCookie(&http.Cookie{Name: "csrftoken", Value: csrf})

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Tokens{}, services.Wrap(services.ErrTransient, "instaweb", "login", "login request failed", err)
	}
	defer drainAndClose(resp.Body)

	if err := checkStatus(resp, "login"); err != nil {
		return Tokens{}, err
	}

	var body struct {
		Authenticated bool   `json:"authenticated"`
		UserID        string `json:"userId"`
		Status        string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Tokens{}, services.Wrap(services.ErrTransient, "instaweb", "login", "decode login response", err)
	}
	if !body.Authenticated {
		return Tokens{}, services.Wrap(services.ErrAuth, "instaweb", "login", "instagram rejected the credentials", nil)
	}

	tokens := Tokens{UserID: body.UserID, CSRFToken: csrf}
	for _, cookie := range resp.Cookies() {
		switch cookie.Name {
		case "sessionid":
			tokens.SessionID = cookie.Value
		case "csrftoken":
			tokens.CSRFToken = cookie.Value
		case "ds_user_id":
			tokens.UserID = cookie.Value
		}
	}
	if !tokens.Valid() {
		return Tokens{}, services.Wrap(services.ErrAuth, "instaweb", "login", "login response missing session cookies", nil)
	}
	return tokens, nil
}

// GetProfile fetches the account behind the tokens. It doubles as the
// cheapest way to verify that a session is still alive.
func (c *Client) GetProfile(ctx context.Context, tokens Tokens) (Profile, error) {
	if !tokens.Valid() {
		return Profile{}, services.Wrap(services.ErrAuth, "instaweb", "profile", "session tokens incomplete", nil)
	}

	req, err := c.newRequest(ctx, http.MethodGet, "/api/v1/accounts/current_user/?edit=true", nil)
	if err != nil {
		return Profile{}, err
	}
	c.applySession(req, tokens)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Profile{}, services.Wrap(services.ErrTransient, "instaweb", "profile", "profile request failed", err)
	}
	defer drainAndClose(resp.Body)

	if err := checkStatus(resp, "profile"); err != nil {
		return Profile{}, err
	}

	var body struct {
		User struct {
			Username string `json:"username"`
			FullName string `json:"full_name"`
		} `json:"user"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Profile{}, services.Wrap(services.ErrTransient, "instaweb", "profile", "decode profile response", err)
	}
	if body.User.Username == "" {
		return Profile{}, services.Wrap(services.ErrAuth, "instaweb", "profile", "profile response carried no user", nil)
	}
	return Profile{Username: body.User.Username, FullName: body.User.FullName}, nil
}

func (c *Client) fetchCSRFToken(ctx context.Context) (string, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/accounts/login/", nil)
	if err != nil {
		return "", err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", services.Wrap(services.ErrTransient, "instaweb", "login", "fetch csrf token", err)
	}
	defer drainAndClose(resp.Body)

	for _, cookie := range resp.Cookies() {
		if cookie.Name == "csrftoken" && cookie.Value != "" {
			return cookie.Value, nil
		}
	}
	return "", services.Wrap(services.ErrAuth, "instaweb", "login", "no csrf token issued", nil)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", path, err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-IG-App-ID", "936619743392459")
	req.Header.Set("X-Web-Device-Id", c.deviceID)
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (c *Client) applySession(req *http.Request, tokens Tokens) {
	req.AddCookie(&http.Cookie{Name: "sessionid", Value: tokens.SessionID})
	req.AddCookie(&http.Cookie{Name: "csrftoken", Value: tokens.CSRFToken})
	if tokens.UserID != "" {
		req.AddCookie(&http.Cookie{Name: "ds_user_id", Value: tokens.UserID})
	}
	req.Header.Set("X-CSRFToken", tokens.CSRFToken)
}

func checkStatus(resp *http.Response, operation string) error {
	switch {
	case resp.StatusCode == http.StatusOK:
		return nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return services.Wrap(services.ErrAuth, "instaweb", operation,
			fmt.Sprintf("instagram returned %d", resp.StatusCode), nil)
	case resp.StatusCode == http.StatusTooManyRequests:
		return services.Wrap(services.ErrTransient, "instaweb", operation, "instagram rate limited the request", nil)
	default:
		snippet := readSnippet(resp.Body)
		return services.Wrap(services.ErrTransient, "instaweb", operation,
			fmt.Sprintf("instagram returned %d: %s", resp.StatusCode, snippet), nil)
	}
}

func readSnippet(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, 256))
	if err != nil || len(data) == 0 {
		return "<empty body>"
	}
	return strings.TrimSpace(string(bytes.ToValidUTF8(data, []byte("?"))))
}

func drainAndClose(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(body, 4096))
	_ = body.Close()
}
