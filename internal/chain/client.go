package chain

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

	"github.com/socialfi-labs/token-worker/internal/fault"
)

// Client is the access-node surface the pipeline consumes. Read calls never
// fall back to stubbed data; every network failure surfaces to the caller.
type Client interface {
	GetAccount(ctx context.Context, address string) (*Account, error)
	GetLatestBlock(ctx context.Context) (*Block, error)
	SendTransaction(ctx context.Context, tx *Transaction) (string, error)
	GetTransactionResult(ctx context.Context, txID string) (*TxResult, error)
}

// Config holds access-node connection settings.
type Config struct {
	BaseURL        string
	RequestTimeout time.Duration
}

// HTTPClient talks to an access node over its JSON HTTP API.
type HTTPClient struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// NewHTTPClient creates an access-node client.
func NewHTTPClient(cfg *Config, logger *slog.Logger) (*HTTPClient, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("access node base URL is required")
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}, nil
}

// GetAccount fetches the current on-chain record for an address, including
// its keys and their sequence numbers.
func (c *HTTPClient) GetAccount(ctx context.Context, address string) (*Account, error) {
	var account Account
	path := "/v1/accounts/" + url.PathEscape(strings.TrimPrefix(address, "0x"))
	if err := c.get(ctx, path, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

// GetLatestBlock fetches the latest sealed block for use as a reference
// block.
func (c *HTTPClient) GetLatestBlock(ctx context.Context) (*Block, error) {
	var blocks []Block
	if err := c.get(ctx, "/v1/blocks?height=sealed", &blocks); err != nil {
		return nil, err
	}
	if len(blocks) == 0 {
		return nil, fault.Network(nil, "access node returned no sealed block")
	}
	return &blocks[0], nil
}

// SendTransaction submits a signed transaction envelope and returns the
// transaction id assigned by the network.
func (c *HTTPClient) SendTransaction(ctx context.Context, tx *Transaction) (string, error) {
	body, err := json.Marshal(tx)
	if err != nil {
		return "", fmt.Errorf("encode transaction: %w", err)
	}

	var resp struct {
		ID string `json:"id"`
	}
	if err := c.post(ctx, "/v1/transactions", body, &resp); err != nil {
		return "", err
	}

	c.logger.Debug("Transaction submitted",
		slog.String("tx_id", resp.ID),
	)
	return resp.ID, nil
}

// GetTransactionResult fetches the current execution result for a
// transaction.
func (c *HTTPClient) GetTransactionResult(ctx context.Context, txID string) (*TxResult, error) {
	var result TxResult
	path := "/v1/transaction_results/" + url.PathEscape(txID)
	if err := c.get(ctx, path, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *HTTPClient) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	return c.do(req, out)
}

func (c *HTTPClient) post(ctx context.Context, path string, body []byte, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *HTTPClient) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fault.Network(err, "access node request %s %s failed", req.Method, req.URL.Path)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fault.Network(err, "read access node response")
	}

	if resp.StatusCode >= 500 {
		return fault.Network(nil, "access node returned %d: %s", resp.StatusCode, truncate(data))
	}
	if resp.StatusCode >= 400 {
		return fault.Validation("access node rejected %s %s with %d: %s", req.Method, req.URL.Path, resp.StatusCode, truncate(data))
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fault.Network(err, "decode access node response for %s", req.URL.Path)
	}
	return nil
}

func truncate(data []byte) string {
	const max = 512
	s := string(data)
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}
