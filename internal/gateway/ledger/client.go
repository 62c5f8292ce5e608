// Package ledger talks to the entitlement backend: the authoritative record
// of what the user is entitled to. Every call here is a plain HTTP request;
// transport failures surface to the caller, nothing is retried.
package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"membership-iap-core/internal/dto"
)

const (
	productsPath      = "/apple-iap/products"
	verifyPath        = "/apple-iap/verify"
	statusPath        = "/apple-iap/status"
	subscriptionsPath = "/apple-iap/subscriptions"
	refreshPath       = "/apple-iap/refresh"
)

type Client struct {
	BaseURL string
	Token   string
	Client  *http.Client
}

func NewClient(baseURL, token string) *Client {
	return &Client{
		BaseURL: baseURL,
		Token:   token,
		Client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type tokenKey struct{}

// WithToken overrides the client's default bearer token for one call chain.
// The facade uses it to forward the caller's own auth token.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

func (c *Client) token(ctx context.Context) string {
	if tok, ok := ctx.Value(tokenKey{}).(string); ok && tok != "" {
		return tok
	}
	return c.Token
}

// GetProducts fetches the backend's plan list.
func (c *Client) GetProducts(ctx context.Context) ([]dto.ProductItem, error) {
	var resp dto.ProductsResponse
	if err := c.do(ctx, http.MethodGet, productsPath, nil, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, fmt.Errorf("products request rejected: %s", resp.Message)
	}
	return resp.Data, nil
}

// Verify submits proof material for one transaction and returns the
// backend's verdict. The caller decides what an unsuccessful verdict means;
// this method only fails on transport or decode problems.
func (c *Client) Verify(ctx context.Context, receiptData, transactionID string) (*dto.VerifyResponse, error) {
	req := dto.VerifyRequest{
		ReceiptData:   receiptData,
		TransactionID: transactionID,
	}
	var resp dto.VerifyResponse
	if err := c.do(ctx, http.MethodPost, verifyPath, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetStatus reads the ledger's membership snapshot. No side effects.
func (c *Client) GetStatus(ctx context.Context) (*dto.MembershipStatus, error) {
	var resp dto.StatusResponse
	if err := c.do(ctx, http.MethodGet, statusPath, nil, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, fmt.Errorf("status request rejected: %s", resp.Message)
	}
	return resp.Data, nil
}

// GetSubscriptions reads the user's transaction history. No side effects.
func (c *Client) GetSubscriptions(ctx context.Context) ([]dto.TransactionRecord, error) {
	var resp dto.SubscriptionsResponse
	if err := c.do(ctx, http.MethodGet, subscriptionsPath, nil, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, fmt.Errorf("subscriptions request rejected: %s", resp.Message)
	}
	return resp.Transactions, nil
}

// Refresh asks the backend to recompute membership from the purchase
// medium's ledger. Called after a successful medium resync during restore.
func (c *Client) Refresh(ctx context.Context) (*dto.RefreshResponse, error) {
	var resp dto.RefreshResponse
	if err := c.do(ctx, http.MethodPost, refreshPath, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if tok := c.token(ctx); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	httpResp, err := c.Client.Do(req)
	if err != nil {
		return fmt.Errorf("ledger request failed: %w", err)
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return fmt.Errorf("failed to read ledger response: %w", err)
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return fmt.Errorf("ledger returned status %d: %s", httpResp.StatusCode, string(raw))
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode ledger response: %w", err)
	}
	return nil
}
