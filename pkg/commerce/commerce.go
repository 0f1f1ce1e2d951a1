// Package commerce is a thin client for the GraphQL commerce backend. The
// conversation core consumes it only through the capability registry.
package commerce

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

	contractx "github.com/sornchai/shoptalk/agent/contract"
)

const maxResponseSizeBytes = 2 << 20

type Config struct {
	Endpoint string        `envconfig:"ENDPOINT" split_words:"true" required:"true"`
	Store    string        `envconfig:"STORE" split_words:"true"`
	Timeout  time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"15s"`
}

// Client executes GraphQL operations against the commerce backend.
type Client struct {
	endpoint   string
	store      string
	httpClient *http.Client
}

func NewClient(cfg Config) (*Client, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("%w: commerce endpoint is required", contractx.ErrConfiguration)
	}
	if _, err := url.ParseRequestURI(endpoint); err != nil {
		return nil, fmt.Errorf("%w: invalid commerce endpoint: %v", contractx.ErrConfiguration, err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &Client{
		endpoint: strings.TrimRight(endpoint, "/"),
		store:    strings.TrimSpace(cfg.Store),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

func MustNew(cfg Config) *Client {
	client, err := NewClient(cfg)
	if err != nil {
		panic(err)
	}
	return client
}

// APIError is a backend-reported user error (out of stock, invalid cart,
// unknown sku). Distinct from contract.ErrUpstream: the call reached the
// backend and the backend answered.
type APIError struct {
	Messages []string
}

func (e *APIError) Error() string {
	return strings.Join(e.Messages, "; ")
}

type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// execute posts one GraphQL document and decodes data into out. Transport
// and non-2xx failures wrap contract.ErrUpstream; errors reported in the
// GraphQL envelope come back as *APIError.
func (c *Client) execute(ctx context.Context, token string, query string, variables map[string]any, out any) error {
	body, err := json.Marshal(graphqlRequest{Query: query, Variables: variables})
	if err != nil {
		return fmt.Errorf("marshal graphql request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build graphql request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if c.store != "" {
		req.Header.Set("Store", c.store)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: commerce backend: %v", contractx.ErrUpstream, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSizeBytes))
	if err != nil {
		return fmt.Errorf("%w: read commerce response: %v", contractx.ErrUpstream, err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("%w: commerce backend status=%d body=%s", contractx.ErrUpstream, resp.StatusCode, string(raw))
	}

	var parsed graphqlResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return fmt.Errorf("%w: decode commerce response: %v", contractx.ErrUpstream, err)
	}
	if len(parsed.Errors) > 0 {
		apiErr := &APIError{}
		for _, e := range parsed.Errors {
			apiErr.Messages = append(apiErr.Messages, e.Message)
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	if len(parsed.Data) == 0 || bytes.Equal(bytes.TrimSpace(parsed.Data), []byte("null")) {
		return fmt.Errorf("%w: commerce response has no data", contractx.ErrUpstream)
	}
	if err := json.Unmarshal(parsed.Data, out); err != nil {
		return fmt.Errorf("%w: unmarshal commerce data: %v", contractx.ErrUpstream, err)
	}
	return nil
}

func userErrorsToAPIError(msgs []wireUserError) error {
	if len(msgs) == 0 {
		return nil
	}
	apiErr := &APIError{}
	for _, m := range msgs {
		apiErr.Messages = append(apiErr.Messages, m.Message)
	}
	return apiErr
}

var errEmptyCartID = errors.New("cart id is empty")
