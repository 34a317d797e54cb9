// Package client talks to the diary API on behalf of the molo CLI.
package client

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

	"github.com/google/uuid"

	"github.com/molo/molo-go/internal/crypto"
	"github.com/molo/molo-go/internal/model"
)

var (
	ErrNotLoggedIn  = errors.New("not logged in")
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
	ErrBadRequest   = errors.New("bad request")
	ErrServer       = errors.New("server error")
)

// TokenStore keeps the bearer token between invocations. Load returns
// ErrNotLoggedIn when no token is stored.
type TokenStore interface {
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}

// APIError is a non-2xx response. It matches one of the Err* kinds above
// through errors.Is.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api: %d %s", e.Status, e.Message)
}

func (e *APIError) Unwrap() error {
	switch {
	case e.Status == http.StatusUnauthorized:
		return ErrUnauthorized
	case e.Status == http.StatusNotFound:
		return ErrNotFound
	case e.Status >= 400 && e.Status < 500:
		return ErrBadRequest
	default:
		return ErrServer
	}
}

// Client is a diary API client.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenStore
}

// New creates a Client for the API at baseURL.
func New(baseURL string, tokens TokenStore, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		tokens:  tokens,
	}
}

// CheckInitStatus reports whether the diary has a password.
func (c *Client) CheckInitStatus(ctx context.Context) (bool, error) {
	var status model.InitStatus
	if err := c.do(ctx, http.MethodGet, "/api/v1/check-init-status", false, nil, &status); err != nil {
		return false, err
	}
	return status.Initialized, nil
}

// Initialize sets the diary password.
func (c *Client) Initialize(ctx context.Context, password string) error {
	return c.do(ctx, http.MethodPost, "/api/v1/initialize", false, model.SecretRequest{Password: password}, nil)
}

// Login exchanges the password for a token and stores it.
func (c *Client) Login(ctx context.Context, password string) (model.LoginResponse, error) {
	var resp model.LoginResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/login", false, model.SecretRequest{Password: password}, &resp); err != nil {
		return model.LoginResponse{}, err
	}
	if err := c.tokens.Save(ctx, resp.Token); err != nil {
		return model.LoginResponse{}, fmt.Errorf("store token: %w", err)
	}
	return resp, nil
}

// Logout discards the stored token. The server keeps no session.
func (c *Client) Logout(ctx context.Context) error {
	return c.tokens.Clear(ctx)
}

// TokenExpiry returns the expiry of the stored token without verifying it.
func (c *Client) TokenExpiry(ctx context.Context) (time.Time, error) {
	token, err := c.tokens.Load(ctx)
	if err != nil {
		return time.Time{}, err
	}
	claims, err := crypto.DecodeToken(token)
	if err != nil {
		return time.Time{}, err
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, nil
	}
	return claims.ExpiresAt.Time, nil
}

// List returns all entries, most recently updated first.
func (c *Client) List(ctx context.Context) ([]model.Entry, error) {
	var entries []model.Entry
	if err := c.do(ctx, http.MethodGet, "/api/v1/entries", true, nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// Get returns one entry.
func (c *Client) Get(ctx context.Context, id string) (model.Entry, error) {
	var entry model.Entry
	if err := c.do(ctx, http.MethodGet, "/api/v1/entries/"+url.PathEscape(id), true, nil, &entry); err != nil {
		return model.Entry{}, err
	}
	return entry, nil
}

// Save creates or replaces an entry. A new random id is assigned when req
// has none.
func (c *Client) Save(ctx context.Context, req model.EntryRequest) (model.Entry, error) {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	var entry model.Entry
	if err := c.do(ctx, http.MethodPost, "/api/v1/entries", true, req, &entry); err != nil {
		return model.Entry{}, err
	}
	return entry, nil
}

// Update replaces an existing entry.
func (c *Client) Update(ctx context.Context, id string, req model.EntryRequest) (model.Entry, error) {
	var entry model.Entry
	if err := c.do(ctx, http.MethodPut, "/api/v1/entries/"+url.PathEscape(id), true, req, &entry); err != nil {
		return model.Entry{}, err
	}
	return entry, nil
}

// Delete removes an entry.
func (c *Client) Delete(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/entries/"+url.PathEscape(id), true, nil, nil)
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func (c *Client) do(ctx context.Context, method, path string, auth bool, body, out any) error {
	var rdr io.Reader
	if body != nil {
		bs, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rdr = bytes.NewReader(bs)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	if auth {
		token, err := c.tokens.Load(ctx)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(io.LimitReader(resp.Body, 32<<20)).Decode(&env); err != nil {
		if resp.StatusCode >= 300 {
			return &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		}
		return fmt.Errorf("decode response: %w", err)
	}

	if resp.StatusCode >= 300 || !env.Success {
		if resp.StatusCode == http.StatusUnauthorized && auth {
			// The token expired or the secret changed; force a new login.
			_ = c.tokens.Clear(ctx)
		}
		return &APIError{Status: resp.StatusCode, Message: env.Error}
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("decode data: %w", err)
		}
	}
	return nil
}

// Friendly turns an error into a short message for the user. Raw server
// text is never shown.
func Friendly(err error, action string) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotLoggedIn):
		return "Not logged in. Run `molo login` first."
	case errors.Is(err, ErrUnauthorized) && action == "login":
		return "Invalid password"
	case errors.Is(err, ErrUnauthorized):
		return "Session expired. Run `molo login` again."
	case errors.Is(err, ErrNotFound):
		return "Entry not found"
	default:
		return fmt.Sprintf("Failed to %s", action)
	}
}
