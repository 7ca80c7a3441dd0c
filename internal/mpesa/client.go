// Package mpesa is a client for the Safaricom Daraja STK push API and the
// callback it posts back.
package mpesa

import (
	"encoding/base64"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	TransactionType = "CustomerPayBillOnline"
	timestampLayout = "20060102150405"
)

// Daraja timestamps are Kenyan wall-clock time; Kenya has no DST.
var nairobi = time.FixedZone("EAT", 3*60*60)

type Config struct {
	BaseURL        string
	ConsumerKey    string
	ConsumerSecret string
	ShortCode      string
	Passkey        string
	CallbackURL    string
	Timeout        time.Duration
}

type Client struct {
	cfg    Config
	http   *resty.Client
	tokens TokenCache
	sf     singleflight.Group
	log    *zap.Logger
	now    func() time.Time
}

// NewClient builds a client. A nil tokens uses a process-local cache.
func NewClient(cfg Config, tokens TokenCache, log *zap.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if tokens == nil {
		tokens = &MemoryTokenCache{}
	}
	return &Client{
		cfg: cfg,
		http: resty.New().
			SetBaseURL(cfg.BaseURL).
			SetTimeout(cfg.Timeout).
			SetHeader("Accept", "application/json"),
		tokens: tokens,
		log:    log,
		now:    time.Now,
	}
}

func (c *Client) timestamp() string {
	return c.now().In(nairobi).Format(timestampLayout)
}

// password is base64(shortcode + passkey + timestamp).
func (c *Client) password(ts string) string {
	return base64.StdEncoding.EncodeToString([]byte(c.cfg.ShortCode + c.cfg.Passkey + ts))
}
