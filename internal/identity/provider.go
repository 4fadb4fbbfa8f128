// Package identity wraps the third-party identity provider the storefront
// delegates sign-in to. The catalog read path never needs it; admin writes
// request bearer tokens scoped for the object store.
package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/northbay-wholesale/storefront/pkg/config"
	pkgerrors "github.com/northbay-wholesale/storefront/pkg/errors"
	"github.com/northbay-wholesale/storefront/pkg/logger"
)

// refreshSkew refreshes cached tokens this long before expiry.
const refreshSkew = time.Minute

// User identifies the signed-in account.
type User struct {
	Username string
}

// Provider is the identity collaborator contract. Ready is an explicit
// completion signal: it is closed once Initialize has finished, successfully
// or not, so consumers never poll for auth readiness.
type Provider interface {
	Initialize(ctx context.Context) (bool, error)
	Ready() <-chan struct{}
	CurrentUser() (User, bool)
	AccessToken(ctx context.Context, scope string) (string, error)
	SignOut()
}

type cachedToken struct {
	value  string
	expiry time.Time
}

// TokenProvider acquires bearer tokens from an OAuth2 token endpoint using
// client credentials and caches them per scope until shortly before expiry.
type TokenProvider struct {
	cfg        config.IdentityConfig
	httpClient *http.Client
	logg       *logger.Logger

	mu            sync.Mutex
	tokens        map[string]cachedToken
	user          User
	authenticated bool

	readyOnce sync.Once
	ready     chan struct{}
}

func NewTokenProvider(cfg config.IdentityConfig, logg *logger.Logger) *TokenProvider {
	return &TokenProvider{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logg:       logg,
		tokens:     map[string]cachedToken{},
		ready:      make(chan struct{}),
	}
}

// Initialize acquires an initial token for the default scope and reports
// whether the session is authenticated. It always closes Ready before
// returning.
func (p *TokenProvider) Initialize(ctx context.Context) (authenticated bool, err error) {
	defer p.readyOnce.Do(func() { close(p.ready) })

	if !p.cfg.Enabled() {
		return false, nil
	}

	if _, err := p.AccessToken(ctx, p.cfg.DefaultScope); err != nil {
		return false, err
	}

	p.mu.Lock()
	p.authenticated = true
	authenticated = p.authenticated
	p.mu.Unlock()
	return authenticated, nil
}

func (p *TokenProvider) Ready() <-chan struct{} {
	return p.ready
}

func (p *TokenProvider) CurrentUser() (User, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.user, p.authenticated
}

// AccessToken returns a bearer token for the scope, fetching a fresh one
// when the cached token is missing or inside the refresh skew.
func (p *TokenProvider) AccessToken(ctx context.Context, scope string) (string, error) {
	if !p.cfg.Enabled() {
		return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "identity provider not configured")
	}
	if scope == "" {
		scope = p.cfg.DefaultScope
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if cached, ok := p.tokens[scope]; ok && time.Until(cached.expiry) > refreshSkew {
		return cached.value, nil
	}

	token, expiry, err := p.fetchToken(ctx, scope)
	if err != nil {
		return "", err
	}

	p.tokens[scope] = cachedToken{value: token, expiry: expiry}
	if username := usernameFromToken(token); username != "" {
		p.user = User{Username: username}
	}
	return token, nil
}

// SignOut drops every cached token and the current user.
func (p *TokenProvider) SignOut() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tokens = map[string]cachedToken{}
	p.user = User{}
	p.authenticated = false
}

func (p *TokenProvider) fetchToken(ctx context.Context, scope string) (string, time.Time, error) {
	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", p.cfg.ClientID)
	form.Set("client_secret", p.cfg.ClientSecret)
	form.Set("scope", scope)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", time.Time{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", time.Time{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "token endpoint unreachable")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return "", time.Time{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "identity provider rejected credentials")
	}
	if resp.StatusCode != http.StatusOK {
		return "", time.Time{}, pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("token endpoint returned %s", resp.Status))
	}

	var tokenResp struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := decodeJSON(resp, &tokenResp); err != nil {
		return "", time.Time{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decoding token response")
	}
	if tokenResp.AccessToken == "" {
		return "", time.Time{}, pkgerrors.New(pkgerrors.CodeDependency, "token response missing access_token")
	}

	expiry := time.Now().Add(time.Duration(tokenResp.ExpiresIn) * time.Second)
	if tokenResp.ExpiresIn <= 0 {
		if exp, ok := expiryFromToken(tokenResp.AccessToken); ok {
			expiry = exp
		} else {
			return "", time.Time{}, errors.New("token response missing expiry")
		}
	}

	return tokenResp.AccessToken, expiry, nil
}

// expiryFromToken reads the exp claim without verifying the signature; the
// token is opaque to us and only relayed to the object store.
func expiryFromToken(raw string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

func decodeJSON(resp *http.Response, dest any) error {
	return json.NewDecoder(resp.Body).Decode(dest)
}

func usernameFromToken(raw string) string {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return ""
	}
	for _, key := range []string{"preferred_username", "upn", "sub"} {
		if v, ok := claims[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}
