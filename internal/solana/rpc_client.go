package solana

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/tidwall/gjson"

	"github.com/MrSnakeDoc/stakehub/internal/domain"
	"github.com/MrSnakeDoc/stakehub/internal/utils"
)

// Default configuration values.
const (
	DefaultTimeout     = 10 * time.Second
	DefaultMaxRetries  = 3
	DefaultRetryDelay  = 250 * time.Millisecond
	DefaultMaxDelay    = 5 * time.Second
	DefaultBackoffMult = 2.0
	DefaultCommitment  = "confirmed"

	// maxMultipleAccounts is the getMultipleAccounts limit enforced by RPC nodes.
	maxMultipleAccounts = 100
)

// ErrAccountNotFound is returned when the requested account does not exist.
var ErrAccountNotFound = errors.New("account not found")

// RPCClient is the subset of the Solana JSON-RPC API the site reads.
type RPCClient interface {
	GetAccountInfo(ctx context.Context, address domain.PublicKey) (*AccountInfo, error)
	GetMultipleAccounts(ctx context.Context, addresses []domain.PublicKey) ([]*AccountInfo, error)
	GetSlot(ctx context.Context) (uint64, error)
}

// AccountInfo is a decoded account.
type AccountInfo struct {
	Lamports   uint64
	Owner      domain.PublicKey
	Executable bool
	Data       []byte
}

// HTTPClient implements RPCClient using HTTP JSON-RPC 2.0.
type HTTPClient struct {
	endpoint    string
	client      *http.Client
	commitment  string
	maxRetries  int
	retryDelay  time.Duration
	maxDelay    time.Duration
	backoffMult float64
	requestID   atomic.Uint64
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

// WithMaxDelay sets maximum retry delay.
func WithMaxDelay(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.maxDelay = d
	}
}

// WithCommitment sets the commitment level sent with every read.
func WithCommitment(level string) ClientOption {
	return func(c *HTTPClient) {
		c.commitment = level
	}
}

// WithHTTPClient sets custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *HTTPClient) {
		c.client = client
	}
}

// NewHTTPClient creates a new Solana RPC HTTP client.
func NewHTTPClient(endpoint string, opts ...ClientOption) *HTTPClient {
	c := &HTTPClient{
		endpoint:    endpoint,
		client:      &http.Client{Timeout: DefaultTimeout},
		commitment:  DefaultCommitment,
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

// Endpoint returns the RPC URL the client talks to.
func (c *HTTPClient) Endpoint() string {
	return c.endpoint
}

// rpcRequest represents a JSON-RPC 2.0 request.
type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params,omitempty"`
}

// RPCError represents a JSON-RPC 2.0 error.
type RPCError struct {
	Code    int64
	Message string
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("RPC error %d: %s", e.Code, e.Message)
}

// call performs a JSON-RPC call with retries and exponential backoff and
// returns the raw "result" member.
func (c *HTTPClient) call(ctx context.Context, method string, params []interface{}) (gjson.Result, error) {
	reqID := c.requestID.Add(1)
	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      reqID,
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return gjson.Result{}, fmt.Errorf("marshal request: %w", err)
	}

	delay := c.retryDelay
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return gjson.Result{}, ctx.Err()
			case <-time.After(delay):
			}
			// Exponential backoff
			delay = time.Duration(float64(delay) * c.backoffMult)
			if delay > c.maxDelay {
				delay = c.maxDelay
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
		if err != nil {
			return gjson.Result{}, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return gjson.Result{}, ctx.Err()
			}
			lastErr = fmt.Errorf("http request: %w", err)
			continue
		}

		respBody, err := io.ReadAll(resp.Body)
		utils.Close(resp.Body)
		if err != nil {
			lastErr = fmt.Errorf("read response: %w", err)
			continue
		}

		// Handle rate limiting
		if resp.StatusCode == http.StatusTooManyRequests {
			lastErr = fmt.Errorf("rate limited (429)")
			continue
		}
		if resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("unexpected status %d", resp.StatusCode)
			continue
		}
		if resp.StatusCode != http.StatusOK {
			return gjson.Result{}, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(respBody))
		}

		if !gjson.ValidBytes(respBody) {
			lastErr = fmt.Errorf("invalid json response")
			continue
		}
		parsed := gjson.ParseBytes(respBody)

		if e := parsed.Get("error"); e.Exists() && e.Type != gjson.Null {
			// RPC errors are not retried
			return gjson.Result{}, &RPCError{Code: e.Get("code").Int(), Message: e.Get("message").String()}
		}

		return parsed.Get("result"), nil
	}

	return gjson.Result{}, fmt.Errorf("max retries exceeded: %w", lastErr)
}

func (c *HTTPClient) readConfig() map[string]interface{} {
	return map[string]interface{}{
		"encoding":   "base64",
		"commitment": c.commitment,
	}
}

// GetAccountInfo retrieves account info by public key.
// Returns ErrAccountNotFound if the account does not exist.
func (c *HTTPClient) GetAccountInfo(ctx context.Context, address domain.PublicKey) (*AccountInfo, error) {
	result, err := c.call(ctx, "getAccountInfo", []interface{}{address.String(), c.readConfig()})
	if err != nil {
		return nil, err
	}

	value := result.Get("value")
	if !value.Exists() || value.Type == gjson.Null {
		return nil, ErrAccountNotFound
	}
	return parseAccount(value)
}

// GetMultipleAccounts retrieves several accounts in as few calls as the node
// allows. Missing accounts are returned as nil entries at their position.
func (c *HTTPClient) GetMultipleAccounts(ctx context.Context, addresses []domain.PublicKey) ([]*AccountInfo, error) {
	out := make([]*AccountInfo, 0, len(addresses))
	for start := 0; start < len(addresses); start += maxMultipleAccounts {
		end := start + maxMultipleAccounts
		if end > len(addresses) {
			end = len(addresses)
		}

		keys := make([]string, 0, end-start)
		for _, a := range addresses[start:end] {
			keys = append(keys, a.String())
		}

		result, err := c.call(ctx, "getMultipleAccounts", []interface{}{keys, c.readConfig()})
		if err != nil {
			return nil, err
		}

		values := result.Get("value").Array()
		if len(values) != len(keys) {
			return nil, fmt.Errorf("getMultipleAccounts returned %d accounts for %d keys", len(values), len(keys))
		}
		for _, v := range values {
			if v.Type == gjson.Null {
				out = append(out, nil)
				continue
			}
			info, err := parseAccount(v)
			if err != nil {
				return nil, err
			}
			out = append(out, info)
		}
	}
	return out, nil
}

// GetSlot returns the current slot at the client's commitment.
func (c *HTTPClient) GetSlot(ctx context.Context) (uint64, error) {
	result, err := c.call(ctx, "getSlot", []interface{}{
		map[string]interface{}{"commitment": c.commitment},
	})
	if err != nil {
		return 0, err
	}
	if result.Type != gjson.Number {
		return 0, fmt.Errorf("getSlot: unexpected result %q", result.Raw)
	}
	return result.Uint(), nil
}

// parseAccount decodes {"data": ["<base64>", "base64"], "owner": ..., ...}.
func parseAccount(v gjson.Result) (*AccountInfo, error) {
	data := v.Get("data")
	if !data.IsArray() || data.Get("1").String() != "base64" {
		return nil, fmt.Errorf("unexpected account data encoding: %s", data.Raw)
	}
	raw, err := base64.StdEncoding.DecodeString(data.Get("0").String())
	if err != nil {
		return nil, fmt.Errorf("decode account data: %w", err)
	}

	owner, err := domain.ParsePublicKey(v.Get("owner").String())
	if err != nil {
		return nil, fmt.Errorf("decode account owner: %w", err)
	}

	return &AccountInfo{
		Lamports:   v.Get("lamports").Uint(),
		Owner:      owner,
		Executable: v.Get("executable").Bool(),
		Data:       raw,
	}, nil
}
