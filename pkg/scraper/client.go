package scraper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"sync"
	"time"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

var baseURL = "https://logistica.univr.it/PortaleStudentiUnivr"

// DefaultTimeout bounds a single portal request.
const DefaultTimeout = 30 * time.Second

const (
	warmupPath     = "index.php"
	acceptLanguage = "it-IT,it;q=0.9,en-US;q=0.7,en;q=0.6"
	userAgent      = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Mobile"
)

// Client talks to the UniVR timetable portal.
type Client struct {
	httpClient *http.Client
	timeout    time.Duration
	baseURL    string
	logger     *log.Logger
	now        func() time.Time
	years      *YearOptionCache
	warmup     sync.Once
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithLogger routes diagnostics about swallowed failures to l.
func WithLogger(l *log.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithBaseURL points the client at another portal origin.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithClock overrides the clock used to pick academic years.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// NewClient creates a new portal client
func NewClient(opts ...Option) *Client {
	c := &Client{
		timeout:    DefaultTimeout,
		baseURL:    baseURL,
		logger:     log.New(io.Discard, "", 0),
		now:        time.Now,
		years:      NewYearOptionCache(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.httpClient = &http.Client{Timeout: c.timeout}
	return c
}

// get performs a portal request after the one-time session warmup.
func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	c.warmup.Do(func() {
		_, err := c.fetch(ctx, warmupPath, url.Values{
			"view":    {"easycourse"},
			"_lang":   {"it"},
			"include": {"corso"},
		})
		if err != nil {
			c.logger.Printf("Session warmup failed: %v", err)
		}
	})
	return c.fetch(ctx, path, query)
}

// fetch issues a GET with query parameters sorted by key and returns the body
// of a 2xx response.
func (c *Client) fetch(ctx context.Context, path string, query url.Values) ([]byte, error) {
	base, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, newError(KindInvalidURL, path, err)
	}
	u := base.JoinPath(path)
	u.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, newError(KindInvalidURL, path, err)
	}
	req.Header.Set("Accept-Language", acceptLanguage)
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Pragma", "no-cache")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, newError(KindNetwork, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Error{Kind: KindHTTP, Path: path, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, newError(KindNetwork, path, fmt.Errorf("read body: %w", err))
	}
	return body, nil
}

// decodeText reads a response as UTF-8, falling back to ISO-8859-1 and
// Windows-1252 for pages served in a legacy charset.
func decodeText(data []byte) (string, error) {
	if utf8.Valid(data) {
		return string(data), nil
	}
	if s, err := charmap.ISO8859_1.NewDecoder().Bytes(data); err == nil {
		return string(s), nil
	}
	s, err := charmap.Windows1252.NewDecoder().Bytes(data)
	if err != nil {
		return "", err
	}
	return string(s), nil
}

// decodeRootObject parses a JSON response whose root must be an object.
func decodeRootObject(data []byte) (map[string]any, error) {
	text, err := decodeText(data)
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(text)))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("unexpected data after the root value")
	}
	root, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("root is %T, not an object", v)
	}
	return root, nil
}
