// Package identity implements the bearer-token collaborator for the exchange
// APIs: discovery-document resolution plus OAuth2 password-grant and
// refresh-token flows against the exchange identity server.
package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/rkarimabadi/IME.SpotDataApi-sub000/internal/infrastructure/config"
)

// maxResponseSize bounds identity server responses (1MB)
const maxResponseSize = 1 << 20

// discoveryPath is the OpenID Connect discovery document path
const discoveryPath = "/.well-known/openid-configuration"

// ErrAuthentication indicates the identity server rejected the credentials.
// Fetchers treat it as fatal for the current call.
var ErrAuthentication = errors.New("identity: authentication failed")

// Provider obtains and caches bearer tokens for the exchange APIs.
// It is safe for use from a single sync loop plus the ops endpoints.
type Provider struct {
	cfg        config.IdentityConfig
	httpClient *http.Client
	logger     *zap.Logger

	mu            sync.Mutex
	tokenEndpoint string
	accessToken   string
	refreshToken  string
	expiresAt     time.Time
}

// NewProvider creates a token provider for the configured identity server
func NewProvider(cfg config.IdentityConfig, logger *zap.Logger) *Provider {
	return &Provider{
		cfg:        cfg,
		logger:     logger.Named("identity"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// Token returns a valid bearer token, renewing it when expired or when
// forceRefresh is set. Renewal prefers the refresh-token grant and falls back
// to the password grant.
func (p *Provider) Token(ctx context.Context, forceRefresh bool) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !forceRefresh && p.accessToken != "" && time.Now().Before(p.expiresAt.Add(-p.cfg.RefreshSkew)) {
		return p.accessToken, nil
	}

	endpoint, err := p.resolveTokenEndpoint(ctx)
	if err != nil {
		return "", err
	}

	if p.refreshToken != "" {
		if err := p.grant(ctx, endpoint, url.Values{
			"grant_type":    {"refresh_token"},
			"refresh_token": {p.refreshToken},
			"client_id":     {p.cfg.ClientID},
			"client_secret": {p.cfg.ClientSecret},
		}); err == nil {
			return p.accessToken, nil
		} else {
			p.logger.Warn("Refresh token grant failed, falling back to password grant", zap.Error(err))
			p.refreshToken = ""
		}
	}

	if err := p.grant(ctx, endpoint, url.Values{
		"grant_type":    {"password"},
		"username":      {p.cfg.Username},
		"password":      {p.cfg.Password},
		"scope":         {p.cfg.Scope},
		"client_id":     {p.cfg.ClientID},
		"client_secret": {p.cfg.ClientSecret},
	}); err != nil {
		return "", err
	}

	return p.accessToken, nil
}

// discoveryDocument is the subset of the OpenID discovery document we use
type discoveryDocument struct {
	TokenEndpoint string `json:"token_endpoint"`
}

// tokenResponse is the identity server's token endpoint response
type tokenResponse struct {
	AccessToken      string `json:"access_token"`
	RefreshToken     string `json:"refresh_token"`
	TokenType        string `json:"token_type"`
	ExpiresIn        int64  `json:"expires_in"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// resolveTokenEndpoint fetches and caches the token endpoint from the
// discovery document. Called with p.mu held.
func (p *Provider) resolveTokenEndpoint(ctx context.Context) (string, error) {
	if p.tokenEndpoint != "" {
		return p.tokenEndpoint, nil
	}

	discoveryURL := strings.TrimSuffix(p.cfg.Authority, "/") + discoveryPath
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, discoveryURL, nil)
	if err != nil {
		return "", fmt.Errorf("identity: failed to create discovery request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: discovery request: %v", ErrAuthentication, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return "", fmt.Errorf("identity: failed to read discovery response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("%w: discovery returned HTTP %d", ErrAuthentication, resp.StatusCode)
	}

	var doc discoveryDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return "", fmt.Errorf("identity: invalid discovery document: %w", err)
	}
	if doc.TokenEndpoint == "" {
		return "", fmt.Errorf("%w: discovery document has no token endpoint", ErrAuthentication)
	}

	p.tokenEndpoint = doc.TokenEndpoint
	return p.tokenEndpoint, nil
}

// grant executes one token-endpoint call and stores the result.
// Called with p.mu held.
func (p *Provider) grant(ctx context.Context, endpoint string, form url.Values) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("identity: failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: token request: %v", ErrAuthentication, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("identity: failed to read token response: %w", err)
	}

	var tok tokenResponse
	if err := json.Unmarshal(body, &tok); err != nil {
		return fmt.Errorf("identity: invalid token response: %w", err)
	}

	if tok.Error != "" || resp.StatusCode >= 400 {
		return fmt.Errorf("%w: %s %s (HTTP %d)", ErrAuthentication, tok.Error, tok.ErrorDescription, resp.StatusCode)
	}
	if tok.AccessToken == "" {
		return fmt.Errorf("%w: token response carried no access token", ErrAuthentication)
	}

	p.accessToken = tok.AccessToken
	if tok.RefreshToken != "" {
		p.refreshToken = tok.RefreshToken
	}
	p.expiresAt = tokenExpiry(tok)

	p.logger.Debug("Bearer token renewed",
		zap.String("grant_type", form.Get("grant_type")),
		zap.Time("expires_at", p.expiresAt),
	)
	return nil
}

// tokenExpiry derives the expiry instant from expires_in, falling back to the
// JWT exp claim when the response omits it. Tokens with neither get a short
// conservative lifetime so they are re-requested rather than reused stale.
func tokenExpiry(tok tokenResponse) time.Time {
	if tok.ExpiresIn > 0 {
		return time.Now().Add(time.Duration(tok.ExpiresIn) * time.Second)
	}

	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(tok.AccessToken, claims); err == nil {
		if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
			return exp.Time
		}
	}

	return time.Now().Add(time.Minute)
}
