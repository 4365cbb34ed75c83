// Package azure acquires bearer tokens from the Microsoft identity platform
// using the OAuth2 client-credentials flow.
//
// https://learn.microsoft.com/en-us/graph/auth/auth-concepts
package azure

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/entra-tools/devicectl/internal/config"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

// DefaultLoginURL is the Microsoft identity platform endpoint.
const DefaultLoginURL = "https://login.microsoftonline.com"

// tokenScope requests the static permissions granted to the application.
const tokenScope = "https://graph.microsoft.com/.default"

// expirySkew is the margin before the recorded expiry at which a cached
// token is treated as stale. Prevents handing out a token that expires
// mid-flight on a slow request.
const expirySkew = 5 * time.Minute

// AuthError reports a rejected credential exchange with the identity
// provider.
type AuthError struct {
	StatusCode  int
	Reason      string
	Description string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("token request failed (%d %s) - %s", e.StatusCode, e.Reason, e.Description)
}

// TokenSource acquires and caches a bearer token for a single Entra ID
// application. The cache is a single slot: renewal overwrites the previous
// token. Safe for concurrent use.
type TokenSource struct {
	cfg        config.AzureConfig
	httpClient *http.Client

	mu      sync.Mutex
	current *oauth2.Token
}

type Option func(*TokenSource)

// WithHTTPClient sets the HTTP client used for the token endpoint.
func WithHTTPClient(client *http.Client) Option {
	return func(s *TokenSource) {
		s.httpClient = client
	}
}

func NewTokenSource(cfg config.AzureConfig, opts ...Option) *TokenSource {
	s := &TokenSource{
		cfg:        cfg,
		httpClient: http.DefaultClient,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Token returns a bearer token for the configured application, reusing the
// cached token while it remains valid beyond the expiry skew.
func (s *TokenSource) Token(ctx context.Context) (string, error) {
	tok, err := s.token(ctx)
	if err != nil {
		return "", err
	}
	return tok.AccessToken, nil
}

// OAuth2 adapts the source to the oauth2.TokenSource interface. The context
// applies to every acquisition made through the returned source.
func (s *TokenSource) OAuth2(ctx context.Context) oauth2.TokenSource {
	return oauth2TokenSource{ctx: ctx, source: s}
}

type oauth2TokenSource struct {
	ctx    context.Context
	source *TokenSource
}

func (o oauth2TokenSource) Token() (*oauth2.Token, error) {
	return o.source.token(o.ctx)
}

// token holds the lock across the whole read-check-refresh sequence so
// concurrent callers never race a renewal.
func (s *TokenSource) token(ctx context.Context) (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != nil {
		if s.current.Expiry.After(time.Now().Add(expirySkew)) {
			log.Debug().Time("expiry", s.current.Expiry).Msg("using cached access token")
			return s.current, nil
		}
		log.Debug().Msg("cached access token has expired")
	}

	tok, err := s.exchange(ctx)
	if err != nil {
		return nil, err
	}

	s.current = tok
	return tok, nil
}

func (s *TokenSource) exchange(ctx context.Context) (*oauth2.Token, error) {
	endpoint := fmt.Sprintf("%s/%s/oauth2/v2.0/token", s.loginURL(), url.PathEscape(s.cfg.TenantID))

	form := url.Values{
		"grant_type":    {"client_credentials"},
		"scope":         {tokenScope},
		"client_id":     {s.cfg.ClientID},
		"client_secret": {s.cfg.ClientSecret},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	start := time.Now()

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("token response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var failure struct {
			Description string `json:"error_description"`
		}
		_ = json.Unmarshal(body, &failure)

		err := &AuthError{
			StatusCode:  resp.StatusCode,
			Reason:      http.StatusText(resp.StatusCode),
			Description: failure.Description,
		}
		log.Error().Err(err).Msg("access token request failed")
		return nil, err
	}

	var grant struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &grant); err != nil {
		return nil, &AuthError{
			StatusCode:  resp.StatusCode,
			Reason:      http.StatusText(resp.StatusCode),
			Description: fmt.Sprintf("malformed token response: %v", err),
		}
	}
	if grant.AccessToken == "" {
		return nil, &AuthError{
			StatusCode:  resp.StatusCode,
			Reason:      http.StatusText(resp.StatusCode),
			Description: "token response missing access_token",
		}
	}

	tok := &oauth2.Token{
		AccessToken: grant.AccessToken,
		TokenType:   "Bearer",
		Expiry:      time.Now().Add(time.Duration(grant.ExpiresIn) * time.Second),
	}

	log.Info().
		Dur("elapsed", time.Since(start)).
		Time("expiry", tok.Expiry).
		Msg("access token retrieved and cached")

	return tok, nil
}

func (s *TokenSource) loginURL() string {
	if s.cfg.LoginURL != "" {
		return strings.TrimSuffix(s.cfg.LoginURL, "/")
	}
	return DefaultLoginURL
}
