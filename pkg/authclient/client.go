// Package authclient is what other services use to talk to the auth service:
// refresh a session, look up the current user, and verify access tokens
// against the published JWKS.
package authclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const (
	AccessCookie  = "accessToken"
	RefreshCookie = "refreshToken"
)

var ErrUnauthorized = errors.New("authclient: unauthorized")

// APIError carries the service's error body for non-2xx answers.
type APIError struct {
	StatusCode int
	Errors     []ErrorItem
}

type ErrorItem struct {
	Type string `json:"type"`
	Msg  string `json:"msg"`
	Path string `json:"path"`
}

func (e *APIError) Error() string {
	if len(e.Errors) == 0 {
		return fmt.Sprintf("authclient: status %d", e.StatusCode)
	}
	return fmt.Sprintf("authclient: status %d: %s", e.StatusCode, e.Errors[0].Msg)
}

func (e *APIError) Is(target error) bool {
	return target == ErrUnauthorized && e.StatusCode == http.StatusUnauthorized
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(authServiceURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(authServiceURL, "/"),
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// Session is a freshly issued token pair.
type Session struct {
	UserID         uint
	AccessToken    string
	RefreshToken   string
	AccessExpires  time.Time
	RefreshExpires time.Time
}

type User struct {
	ID        uint   `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	TenantID  *uint  `json:"tenantId,omitempty"`
}

// Refresh trades refreshToken for a new pair. The old refresh token is
// consumed even if the caller drops the answer.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/refresh", nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.AddCookie(&http.Cookie{Name: RefreshCookie, Value: refreshToken})

	var body struct {
		ID uint `json:"id"`
	}
	resp, err := c.do(req, &body)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	s := &Session{UserID: body.ID}
	for _, ck := range resp.Cookies() {
		switch ck.Name {
		case AccessCookie:
			s.AccessToken, s.AccessExpires = ck.Value, now.Add(time.Duration(ck.MaxAge)*time.Second)
		case RefreshCookie:
			s.RefreshToken, s.RefreshExpires = ck.Value, now.Add(time.Duration(ck.MaxAge)*time.Second)
		}
	}
	if s.AccessToken == "" || s.RefreshToken == "" {
		return nil, errors.New("authclient: refresh response carried no tokens")
	}
	return s, nil
}

func (c *Client) Self(ctx context.Context, accessToken string) (*User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/auth/self", nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.AddCookie(&http.Cookie{Name: AccessCookie, Value: accessToken})

	var u User
	if _, err := c.do(req, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) do(req *http.Request, out any) (*http.Response, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var body struct {
			Errors []ErrorItem `json:"errors"`
		}
		if json.NewDecoder(resp.Body).Decode(&body) == nil {
			apiErr.Errors = body.Errors
		}
		return nil, apiErr
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return nil, fmt.Errorf("decode response: %w", err)
		}
	}
	return resp, nil
}
