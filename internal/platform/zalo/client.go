// Package zalo talks to the Zalo Official Account open API.
package zalo

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

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/Rrens/order-intake/internal/config"
	"github.com/Rrens/order-intake/internal/domain"
)

// Error codes that mean the access token must be refreshed
const (
	codeTokenInvalid = -216
	codeTokenExpired = -240
)

// APIError is a non-zero error field in an open API response
type APIError struct {
	Code    int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("zalo api error %d: %s", e.Code, e.Message)
}

func (e *APIError) Unwrap() error {
	return domain.ErrPlatformRejected
}

func (e *APIError) tokenRejected() bool {
	return e.Code == codeTokenInvalid || e.Code == codeTokenExpired
}

type envelope struct {
	Error   int             `json:"error"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// Client implements domain.Sender and domain.HistoryProvider
type Client struct {
	httpClient   *http.Client
	apiBase      string
	oauthBase    string
	appID        string
	secretKey    string
	historyCount int
	limiter      *rate.Limiter

	mu           sync.RWMutex
	accessToken  string
	refreshToken string
	refreshes    singleflight.Group
}

// NewClient creates a new open API client
func NewClient(cfg config.ZaloConfig) *Client {
	limit := rate.Limit(cfg.RatePerSecond)
	if cfg.RatePerSecond <= 0 {
		limit = rate.Inf
	}
	return &Client{
		httpClient:   &http.Client{Timeout: cfg.Timeout},
		apiBase:      strings.TrimRight(cfg.APIBase, "/"),
		oauthBase:    strings.TrimRight(cfg.OAuthBase, "/"),
		appID:        cfg.AppID,
		secretKey:    cfg.SecretKey,
		historyCount: cfg.HistoryCount,
		limiter:      rate.NewLimiter(limit, max(cfg.Burst, 1)),
		accessToken:  cfg.AccessToken,
		refreshToken: cfg.RefreshToken,
	}
}

func (c *Client) token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.accessToken
}

// call runs build with the current token and retries once after a token refresh
func (c *Client) call(ctx context.Context, build func(ctx context.Context, token string) (*http.Request, error)) (json.RawMessage, error) {
	token := c.token()
	data, err := c.do(ctx, build, token)

	var apiErr *APIError
	if !errors.As(err, &apiErr) || !apiErr.tokenRejected() {
		return data, err
	}

	log.Warn().Int("code", apiErr.Code).Msg("Zalo access token rejected, refreshing")
	fresh, err := c.refresh(ctx, token)
	if err != nil {
		return nil, err
	}
	return c.do(ctx, build, fresh)
}

func (c *Client) do(ctx context.Context, build func(ctx context.Context, token string) (*http.Request, error), token string) (json.RawMessage, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("failed to wait for rate limiter: %w", err)
	}

	req, err := build(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call zalo api: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("zalo api returned status %d: %s", resp.StatusCode, string(body))
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if env.Error != 0 {
		return nil, &APIError{Code: env.Error, Message: env.Message}
	}
	return env.Data, nil
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    string `json:"expires_in"`
	Error        int    `json:"error"`
	ErrorName    string `json:"error_name"`
}

// refresh exchanges the refresh token once for all callers that saw stale rejected
func (c *Client) refresh(ctx context.Context, stale string) (string, error) {
	v, err, _ := c.refreshes.Do("token", func() (any, error) {
		if current := c.token(); current != stale {
			return current, nil
		}

		c.mu.RLock()
		form := url.Values{
			"app_id":        {c.appID},
			"grant_type":    {"refresh_token"},
			"refresh_token": {c.refreshToken},
		}
		c.mu.RUnlock()

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.oauthBase+"/v4/oa/access_token", strings.NewReader(form.Encode()))
		if err != nil {
			return nil, fmt.Errorf("failed to create refresh request: %w", err)
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("secret_key", c.secretKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to refresh access token: %w", err)
		}
		defer resp.Body.Close()

		var tr tokenResponse
		if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
			return nil, fmt.Errorf("failed to decode token response: %w", err)
		}
		if tr.AccessToken == "" {
			return nil, &APIError{Code: tr.Error, Message: tr.ErrorName}
		}

		c.mu.Lock()
		c.accessToken = tr.AccessToken
		if tr.RefreshToken != "" {
			c.refreshToken = tr.RefreshToken
		}
		c.mu.Unlock()

		log.Info().Str("expires_in", tr.ExpiresIn).Msg("Zalo access token refreshed")
		return tr.AccessToken, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}
