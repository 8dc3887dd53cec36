// Package api is a client for the remote puzzle service. It implements
// puzzle.Repository over the service's REST endpoints.
package api

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

	"github.com/rs/zerolog"

	"github.com/hailam/chesspuzzles/internal/puzzle"
)

// DefaultTimeout bounds each request unless WithTimeout or WithHTTPClient
// says otherwise.
const DefaultTimeout = 10 * time.Second

// maxErrorBody caps how much of an error response is kept.
const maxErrorBody = 4 << 10

// StatusError is returned for any non-2xx response.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("%s %s: %d %s", e.Method, e.URL, e.StatusCode, http.StatusText(e.StatusCode))
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

// Unwrap maps 404 to puzzle.ErrNotFound.
func (e *StatusError) Unwrap() error {
	if e.StatusCode == http.StatusNotFound {
		return puzzle.ErrNotFound
	}
	return nil
}

type Option func(*Client)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// Client talks to the puzzle service. It is safe for concurrent use.
type Client struct {
	base *url.URL
	http *http.Client
	log  zerolog.Logger
}

var _ puzzle.Repository = (*Client)(nil)

// New returns a client for the service at baseURL, e.g.
// "https://example.com/api".
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("api base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("api base url %q: scheme must be http or https", baseURL)
	}
	c := &Client{
		base: u,
		http: &http.Client{Timeout: DefaultTimeout},
		log:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) endpoint(id string) string {
	u := *c.base
	u.Path += "/puzzles"
	if id != "" {
		u.Path += "/" + id
		u.RawPath = c.base.EscapedPath() + "/puzzles/" + url.PathEscape(id)
	}
	return u.String()
}

func (c *Client) Create(ctx context.Context, r *puzzle.Record) (*puzzle.Record, error) {
	out := &puzzle.Record{}
	if err := c.do(ctx, http.MethodPost, c.endpoint(""), r, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Update(ctx context.Context, r *puzzle.Record) (*puzzle.Record, error) {
	if r.ID == "" {
		return nil, fmt.Errorf("update: %w: empty id", puzzle.ErrNotFound)
	}
	out := &puzzle.Record{}
	if err := c.do(ctx, http.MethodPut, c.endpoint(r.ID), r, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Delete(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, c.endpoint(id), nil, nil)
}

func (c *Client) Get(ctx context.Context, id string) (*puzzle.Record, error) {
	out := &puzzle.Record{}
	if err := c.do(ctx, http.MethodGet, c.endpoint(id), nil, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) List(ctx context.Context) ([]*puzzle.Record, error) {
	var out []*puzzle.Record
	if err := c.do(ctx, http.MethodGet, c.endpoint(""), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// do sends in as JSON (if not nil) and decodes the response into out (if
// not nil and the response has a body).
func (c *Client) do(ctx context.Context, method, target string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn().Err(err).Str("method", method).Str("url", target).Msg("request failed")
		return err
	}
	defer resp.Body.Close()
	c.log.Debug().
		Str("method", method).
		Str("url", target).
		Int("status", resp.StatusCode).
		Dur("took", time.Since(start)).
		Msg("api request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{
			Method:     method,
			URL:        target,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(msg)),
		}
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%s %s: decode response: %w", method, target, err)
	}
	return nil
}
