package sendgrid

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/yungbote/labflow-backend/internal/platform/ctxutil"
	"github.com/yungbote/labflow-backend/internal/platform/envutil"
	"github.com/yungbote/labflow-backend/internal/platform/logger"
)

const (
	defaultBaseURL = "https://api.sendgrid.com"
	mailSendPath   = "/v3/mail/send"
	maxBackoff     = 10 * time.Second
)

type Client interface {
	Send(ctx context.Context, m Message) (*Receipt, error)
}

type Config struct {
	APIKey      string
	BaseURL     string
	FromAddress string
	FromName    string
	Timeout     time.Duration
	// MaxRetries bounds retries of throttled (429) sends.
	MaxRetries int
}

func ConfigFromEnv() Config {
	return Config{
		APIKey:      envutil.String("SENDGRID_API_KEY", ""),
		BaseURL:     envutil.String("SENDGRID_BASE_URL", defaultBaseURL),
		FromAddress: envutil.String("MAIL_FROM", ""),
		FromName:    envutil.String("MAIL_FROM_NAME", ""),
		Timeout:     envutil.Duration("SENDGRID_TIMEOUT", 30*time.Second),
		MaxRetries:  envutil.Int("SENDGRID_MAX_RETRIES", 2),
	}
}

type client struct {
	log     *logger.Logger
	http    *http.Client
	apiKey  string
	url     string
	from    Address
	retries int
	// wait is swapped in tests.
	wait func(ctx context.Context, d time.Duration) error
}

func New(log *logger.Logger, cfg Config) (Client, error) {
	if log == nil {
		return nil, errors.New("sendgrid: logger required")
	}
	key := strings.TrimSpace(cfg.APIKey)
	if key == "" {
		return nil, errors.New("sendgrid: missing SENDGRID_API_KEY")
	}
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		base = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &client{
		log:     log.With("client", "SendGrid"),
		http:    &http.Client{Timeout: timeout},
		apiKey:  key,
		url:     base + mailSendPath,
		from:    Address{Email: strings.TrimSpace(cfg.FromAddress), Name: cfg.FromName},
		retries: max(cfg.MaxRetries, 0),
		wait:    sleepCtx,
	}, nil
}

// APIError is a non-2xx answer from the mail API.
type APIError struct {
	StatusCode int
	Message    string
	RetryAfter time.Duration
}

func (e *APIError) Error() string {
	return fmt.Sprintf("sendgrid http %d: %s", e.StatusCode, e.Message)
}

// Throttled reports whether the send may be retried. A 5xx is not retried
// because the message may already be queued.
func (e *APIError) Throttled() bool { return e.StatusCode == http.StatusTooManyRequests }

func (c *client) Send(ctx context.Context, m Message) (*Receipt, error) {
	ctx = ctxutil.Default(ctx)
	p, err := m.payload(c.from)
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("sendgrid: encode: %w", err)
	}

	backoff := time.Second
	for attempt := 0; ; attempt++ {
		rec, err := c.post(ctx, body)
		var apiErr *APIError
		if err == nil || !errors.As(err, &apiErr) || !apiErr.Throttled() || attempt >= c.retries {
			return rec, err
		}
		d := min(max(apiErr.RetryAfter, backoff), maxBackoff)
		c.log.Warn("sendgrid throttled", "attempt", attempt+1, "retry_in", d.String())
		if err := c.wait(ctx, d); err != nil {
			return nil, err
		}
		backoff *= 2
	}
}

func (c *client) post(ctx context.Context, body []byte) (*Receipt, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode/100 != 2 {
		return nil, apiError(resp, raw)
	}
	return &Receipt{
		StatusCode: resp.StatusCode,
		MessageID:  strings.TrimSpace(resp.Header.Get("X-Message-Id")),
	}, nil
}

func apiError(resp *http.Response, raw []byte) *APIError {
	e := &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(raw))}
	var parsed struct {
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if json.Unmarshal(raw, &parsed) == nil && len(parsed.Errors) > 0 && parsed.Errors[0].Message != "" {
		e.Message = parsed.Errors[0].Message
	}
	if e.Message == "" {
		e.Message = "<empty body>"
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(resp.Header.Get("Retry-After"))); err == nil && secs > 0 {
		e.RetryAfter = time.Duration(secs) * time.Second
	}
	return e
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
