package client

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

	"finance-tracker/internal/dto"
	"finance-tracker/internal/ledger"
)

const defaultTimeout = 30 * time.Second

// Client talks to the finance tracker REST API. It never retries a request.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// Register creates an account. When MFA enrollment was requested the response
// carries the otpauth URL and shared secret.
func (c *Client) Register(ctx context.Context, req dto.RegisterRequest) (dto.AuthResponse, error) {
	var resp dto.AuthResponse
	err := c.do(ctx, http.MethodPost, "/register", "", req, &resp)
	return resp, err
}

// Login exchanges credentials for a bearer token. A response with
// MFARequired set means the call must be repeated with an OTP code.
func (c *Client) Login(ctx context.Context, req dto.LoginRequest) (dto.AuthResponse, error) {
	var resp dto.AuthResponse
	err := c.do(ctx, http.MethodPost, "/login", "", req, &resp)
	return resp, err
}

func (c *Client) RequestPasswordReset(ctx context.Context, email string) (dto.AuthResponse, error) {
	var resp dto.AuthResponse
	err := c.do(ctx, http.MethodPost, "/request-password-reset", "", dto.PasswordResetRequest{Email: email}, &resp)
	return resp, err
}

func (c *Client) ResetPassword(ctx context.Context, token, newPassword string) (dto.AuthResponse, error) {
	var resp dto.AuthResponse
	req := dto.ResetPasswordRequest{Token: token, NewPassword: newPassword}
	err := c.do(ctx, http.MethodPost, "/reset-password", "", req, &resp)
	return resp, err
}

func (c *Client) Logout(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodPost, "/logout", token, nil, nil)
}

func (c *Client) ListTransactions(ctx context.Context, token string) ([]ledger.Transaction, error) {
	var txs []ledger.Transaction
	if err := c.do(ctx, http.MethodGet, "/api/transactions", token, nil, &txs); err != nil {
		return nil, err
	}
	return txs, nil
}

// CreateTransaction submits t and returns the persisted record.
func (c *Client) CreateTransaction(ctx context.Context, token string, t ledger.Transaction) (ledger.Transaction, error) {
	var created ledger.Transaction
	if err := c.do(ctx, http.MethodPost, "/api/transactions", token, t, &created); err != nil {
		return ledger.Transaction{}, err
	}
	return created, nil
}

func (c *Client) DeleteTransaction(ctx context.Context, token, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/transactions/"+url.PathEscape(id), token, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path, token string, body, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return parseAPIError(resp.StatusCode, data)
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
