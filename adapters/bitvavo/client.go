package bitvavo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	DefaultBaseURL   = "https://api.bitvavo.com/v2"
	DefaultQuote     = "EUR"
	DefaultTimeout   = 30 * time.Second
	DefaultPageLimit = 1440
)

// ErrStatus marks a non-2xx answer from the exchange.
var ErrStatus = errors.New("bitvavo: unexpected status")

type StatusError struct {
	Endpoint string
	Code     int
	Body     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("bitvavo %s: status %d: %s", e.Endpoint, e.Code, e.Body)
}

func (e *StatusError) Unwrap() error { return ErrStatus }

type Options struct {
	BaseURL   string
	Quote     string
	Timeout   time.Duration
	Retries   int
	PageLimit int
}

type Client struct {
	BaseURL   string
	Quote     string
	PageLimit int
	HTTP      *resty.Client
}

func New(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Quote == "" {
		opts.Quote = DefaultQuote
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.PageLimit <= 0 || opts.PageLimit > DefaultPageLimit {
		opts.PageLimit = DefaultPageLimit
	}
	hc := resty.New().
		SetBaseURL(opts.BaseURL).
		SetTimeout(opts.Timeout).
		SetHeader("Accept", "application/json").
		SetRetryCount(opts.Retries).
		SetTransport(&http.Transport{
			DialContext:           (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 15 * time.Second}).DialContext,
			MaxIdleConns:          100,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   5 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		})
	return &Client{
		BaseURL:   opts.BaseURL,
		Quote:     opts.Quote,
		PageLimit: opts.PageLimit,
		HTTP:      hc,
	}
}

func (c *Client) Name() string { return "Bitvavo" }

func (c *Client) fetchJSON(ctx context.Context, endpoint string, params map[string]string, target interface{}) error {
	resp, err := c.HTTP.R().
		SetContext(ctx).
		SetQueryParams(params).
		Get(endpoint)
	if err != nil {
		return fmt.Errorf("bitvavo GET %s: %w", endpoint, err)
	}
	if !resp.IsSuccess() {
		return &StatusError{Endpoint: endpoint, Code: resp.StatusCode(), Body: string(resp.Body())}
	}
	dec := json.NewDecoder(bytes.NewReader(resp.Body()))
	dec.UseNumber()
	if err := dec.Decode(target); err != nil {
		return fmt.Errorf("bitvavo decode %s: %w", endpoint, err)
	}
	return nil
}
