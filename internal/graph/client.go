// Package graph implements a thin client for the Microsoft Graph
// device-management endpoints.
package graph

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// DefaultBaseURL is the production Graph API endpoint.
const DefaultBaseURL = "https://graph.microsoft.com/v1.0"

// ErrInvalidArgument marks a precondition failure detected before any
// request is made.
var ErrInvalidArgument = errors.New("graph: invalid argument")

// RequestError reports a non-success response from the Graph API.
type RequestError struct {
	StatusCode int
	Reason     string
	Message    string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("request failed (%d %s) - %s", e.StatusCode, e.Reason, e.Message)
}

// TokenProvider supplies bearer tokens for Graph requests.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// Client issues requests against the Graph REST API. It holds no state
// beyond its rate limiter and is safe for concurrent use.
type Client struct {
	baseURL    string
	tokens     TokenProvider
	httpClient *http.Client
	limiter    *rate.Limiter
}

type Option func(*Client)

// WithBaseURL overrides the Graph endpoint, for testing.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(baseURL, "/")
	}
}

// WithHTTPClient sets the HTTP client used for Graph requests.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithRateLimit overrides the default client-side throttle of 10 requests
// per second with a burst of 15.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

func New(tokens TokenProvider, opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		tokens:     tokens,
		httpClient: http.DefaultClient,
		limiter:    rate.NewLimiter(10, 15),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// do issues a single authenticated request. The ConsistencyLevel header is
// only set when the query demands it: Graph rejects advanced queries
// without it, and an empty header value is not equivalent to omission.
func (c *Client) do(ctx context.Context, method, resource string, params url.Values, advanced bool) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	u := c.baseURL + resource
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, http.NoBody)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if advanced {
		req.Header.Set("ConsistencyLevel", "eventual")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, resource, err)
	}

	return resp, nil
}

// requestError drains the response body and converts it to a RequestError
// carrying the provider-supplied message.
func requestError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	var failure struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	_ = json.Unmarshal(body, &failure)

	err := &RequestError{
		StatusCode: resp.StatusCode,
		Reason:     http.StatusText(resp.StatusCode),
		Message:    failure.Error.Message,
	}
	log.Error().Err(err).Msg("graph request failed")
	return err
}
