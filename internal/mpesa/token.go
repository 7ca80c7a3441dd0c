package mpesa

import (
	"context"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
)

// tokenSkew is subtracted from the advertised lifetime so a cached token is
// never used in its last minute.
const tokenSkew = time.Minute

type TokenCache interface {
	Get(ctx context.Context) (string, bool, error)
	Set(ctx context.Context, token string, ttl time.Duration) error
}

// MemoryTokenCache is a single-process TokenCache.
type MemoryTokenCache struct {
	mu      sync.Mutex
	token   string
	expires time.Time
	now     func() time.Time
}

func (m *MemoryTokenCache) clock() time.Time {
	if m.now != nil {
		return m.now()
	}
	return time.Now()
}

func (m *MemoryTokenCache) Get(context.Context) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.token == "" || !m.clock().Before(m.expires) {
		return "", false, nil
	}
	return m.token, true, nil
}

func (m *MemoryTokenCache) Set(_ context.Context, token string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	m.expires = m.clock().Add(ttl)
	return nil
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   string `json:"expires_in"`
}

func (t tokenResponse) ttl() time.Duration {
	secs, err := strconv.Atoi(t.ExpiresIn)
	if err != nil || secs <= 0 {
		secs = 3599
	}
	d := time.Duration(secs)*time.Second - tokenSkew
	if d <= 0 {
		d = time.Duration(secs) * time.Second
	}
	return d
}

// accessToken serves from the cache and collapses concurrent refreshes into
// one OAuth call.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	tok, ok, err := c.tokens.Get(ctx)
	if err != nil {
		c.log.Warn("token cache read failed", zap.Error(err))
	}
	if ok && tok != "" {
		return tok, nil
	}

	v, err, _ := c.sf.Do("token", func() (any, error) {
		return c.fetchToken(ctx)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (c *Client) fetchToken(ctx context.Context) (string, error) {
	var (
		tok    tokenResponse
		apiErr apiError
	)
	resp, err := c.http.R().
		SetContext(ctx).
		SetBasicAuth(c.cfg.ConsumerKey, c.cfg.ConsumerSecret).
		SetQueryParam("grant_type", "client_credentials").
		SetResult(&tok).
		SetError(&apiErr).
		Get("/oauth/v1/generate")
	if err != nil {
		return "", &GatewayError{Kind: KindCredentials, Op: "oauth", Err: err}
	}
	if resp.IsError() || tok.AccessToken == "" {
		msg := apiErr.ErrorMessage
		if msg == "" {
			msg = "failed to get access token: " + resp.Status()
		}
		return "", &GatewayError{Kind: KindCredentials, Op: "oauth", Code: apiErr.ErrorCode, Message: msg}
	}

	if err := c.tokens.Set(ctx, tok.AccessToken, tok.ttl()); err != nil {
		c.log.Warn("token cache write failed", zap.Error(err))
	}
	return tok.AccessToken, nil
}
