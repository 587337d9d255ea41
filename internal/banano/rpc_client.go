package banano

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"banano-chat-relay/internal/domain"
)

// Default configuration values.
const (
	DefaultTimeout     = 15 * time.Second
	DefaultMaxRetries  = 3
	DefaultRetryDelay  = 1 * time.Second
	DefaultMaxDelay    = 10 * time.Second
	DefaultBackoffMult = 2.0
)

// HTTPClient implements Client using the node's JSON action RPC.
type HTTPClient struct {
	endpoint    string
	client      *http.Client
	maxRetries  int
	retryDelay  time.Duration
	maxDelay    time.Duration
	backoffMult float64
}

// ClientOption configures HTTPClient.
type ClientOption func(*HTTPClient)

// WithTimeout sets HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.client.Timeout = d
	}
}

// WithMaxRetries sets maximum retry attempts.
func WithMaxRetries(n int) ClientOption {
	return func(c *HTTPClient) {
		c.maxRetries = n
	}
}

// WithRetryDelay sets initial retry delay.
func WithRetryDelay(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.retryDelay = d
	}
}

// WithHTTPClient sets custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *HTTPClient) {
		c.client = client
	}
}

// NewHTTPClient creates a new Banano node RPC client.
func NewHTTPClient(endpoint string, opts ...ClientOption) *HTTPClient {
	c := &HTTPClient{
		endpoint:    endpoint,
		client:      &http.Client{Timeout: DefaultTimeout},
		maxRetries:  DefaultMaxRetries,
		retryDelay:  DefaultRetryDelay,
		maxDelay:    DefaultMaxDelay,
		backoffMult: DefaultBackoffMult,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compile-time interface check.
var _ Client = (*HTTPClient)(nil)

// blockInfoRequest is the block_info action payload.
type blockInfoRequest struct {
	Action    string `json:"action"`
	JSONBlock string `json:"json_block"`
	Hash      string `json:"hash"`
}

// blockContents is the state block body inside a block_info response.
type blockContents struct {
	Account        string `json:"account"`
	Previous       string `json:"previous"`
	Representative string `json:"representative"`
	Balance        string `json:"balance"`
	Link           string `json:"link"`
	Signature      string `json:"signature"`
}

// blockInfoResponse is the node's block_info response.
// The node reports failures in-band via the error field.
type blockInfoResponse struct {
	Error        string         `json:"error"`
	BlockAccount string         `json:"block_account"`
	Amount       string         `json:"amount"`
	Subtype      string         `json:"subtype"`
	Confirmed    string         `json:"confirmed"`
	Contents     *blockContents `json:"contents"`
}

// BlockInfo retrieves a settled block by hash.
func (c *HTTPClient) BlockInfo(ctx context.Context, hash string) (*domain.Block, error) {
	req := blockInfoRequest{Action: "block_info", JSONBlock: "true", Hash: hash}

	var resp blockInfoResponse
	if err := c.call(ctx, req, &resp); err != nil {
		return nil, err
	}

	if resp.Error != "" {
		if strings.EqualFold(resp.Error, "Block not found") {
			return nil, ErrBlockNotFound
		}
		return nil, fmt.Errorf("node error: %s", resp.Error)
	}

	block := &domain.Block{
		Hash:      strings.ToUpper(hash),
		Account:   resp.BlockAccount,
		AmountRaw: resp.Amount,
		Subtype:   resp.Subtype,
	}
	if resp.Contents != nil {
		block.Previous = resp.Contents.Previous
		block.Representative = resp.Contents.Representative
		block.BalanceRaw = resp.Contents.Balance
		block.Link = resp.Contents.Link
		block.Signature = resp.Contents.Signature
		if block.Account == "" {
			block.Account = resp.Contents.Account
		}
		block.Content = DecodeLinkMessage(resp.Contents.Link)
	}

	return block, nil
}

// call performs one action RPC with retries and exponential backoff.
// Node-level errors (the in-band error field) are not retried; transport
// and HTTP 5xx failures are.
func (c *HTTPClient) call(ctx context.Context, request, result interface{}) error {
	body, err := json.Marshal(request)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	var lastErr error
	delay := c.retryDelay

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay = time.Duration(float64(delay) * c.backoffMult)
			if delay > c.maxDelay {
				delay = c.maxDelay
			}
		}

		lastErr = c.doRequest(ctx, body, result)
		if lastErr == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}

	return fmt.Errorf("rpc call failed after %d attempts: %w", c.maxRetries+1, lastErr)
}

// doRequest performs a single HTTP round trip.
func (c *HTTPClient) doRequest(ctx context.Context, body []byte, result interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("http status %d: %s", resp.StatusCode, string(data))
	}

	if err := json.Unmarshal(data, result); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}

	return nil
}
