package sdk

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
)

//go:generate mockery --name StacksClient --output ../mocks/

// StacksClient is the read-only chain status API consumed by the flow
// engine and the network probe.
type StacksClient interface {
	GetTransaction(ctx context.Context, txID string) (*TransactionResponse, error)
	GetAccountBalance(ctx context.Context, principal string) (*AccountBalance, error)
	GetStatus(ctx context.Context) (*ChainStatus, error)
}

var _ StacksClient = &Client{}

// StatusError is returned for non-2xx responses so callers can apply
// status-code dependent policy (404 means not-yet-indexed, >=500 is a
// transient server failure).
type StatusError struct {
	StatusCode int
	Method     string
	Endpoint   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("invalid http status (%s %s): %d", e.Method, e.Endpoint, e.StatusCode)
}

// IsNotFound reports whether err is a StatusError with code 404.
func IsNotFound(err error) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound
}

// IsServerError reports whether err is a StatusError with a 5xx code.
func IsServerError(err error) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.StatusCode >= http.StatusInternalServerError
}

type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

func NewClient(baseURL string, client *http.Client) *Client {
	return &Client{
		BaseURL:    baseURL,
		HTTPClient: client,
	}
}

// CreateHTTPClientWithTimeout builds the http.Client used against the chain
// API. The timeout here is a per-request transport timeout; callers still
// pass per-call contexts.
func CreateHTTPClientWithTimeout(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: false,
			},
		},
	}
}

func (c *Client) get(ctx context.Context, path string, responseBody any) error {
	endpoint := c.BaseURL + path

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return errors.Wrapf(err, "failed to create HTTP request (GET %s)", endpoint)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return errors.Wrapf(err, "failed to execute HTTP request (GET %s)", endpoint)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{StatusCode: resp.StatusCode, Method: http.MethodGet, Endpoint: endpoint}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrapf(err, "failed to read HTTP response body (GET %s)", endpoint)
	}

	if err = json.Unmarshal(body, responseBody); err != nil {
		return errors.Wrapf(err, "failed to unmarshal JSON response (GET %s)", endpoint)
	}

	return nil
}

func (c *Client) GetTransaction(ctx context.Context, txID string) (*TransactionResponse, error) {
	resp := &TransactionResponse{}
	if err := c.get(ctx, "/extended/v1/tx/"+txID, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) GetAccountBalance(ctx context.Context, principal string) (*AccountBalance, error) {
	resp := &AccountBalance{}
	if err := c.get(ctx, "/extended/v1/address/"+principal+"/stx", resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) GetStatus(ctx context.Context) (*ChainStatus, error) {
	resp := &ChainStatus{}
	if err := c.get(ctx, "/extended/v1/status", resp); err != nil {
		return nil, err
	}
	return resp, nil
}
