package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const requestTimeout = 5 * time.Second

// Client talks to the kiosk backend. Every call carries the fixed request
// timeout and passes through a shared circuit breaker, so a dead backend
// fails fast instead of stacking up 5 s waits at the till.
type Client struct {
	base    string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[*http.Response]
}

func NewClient(baseURL string) *Client {
	breaker := gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:    "kiosk-backend",
		Timeout: 10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
	return &Client{
		base: baseURL,
		http: &http.Client{
			Timeout:   requestTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		breaker: breaker,
	}
}

// do issues one JSON request. A nil out skips response decoding.
func (c *Client) do(ctx context.Context, method, path string, header http.Header, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request failed: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return fmt.Errorf("build request failed: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := c.breaker.Execute(func() (*http.Response, error) {
		r, errDo := c.http.Do(req)
		if errDo != nil {
			return nil, errDo
		}
		if r.StatusCode >= 500 {
			// count server errors against the breaker, but hand the
			// response back for message extraction
			return r, fmt.Errorf("backend returned HTTP %d", r.StatusCode)
		}
		return r, nil
	})
	if resp == nil && err != nil {
		return classify(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return remoteError(resp)
	}
	if out == nil {
		return nil
	}
	if errDec := json.NewDecoder(resp.Body).Decode(out); errDec != nil {
		return fmt.Errorf("decode response failed: %w", errDec)
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, nil, out)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, nil, body, out)
}

func classify(err error) error {
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return &Error{Kind: KindUnavailable, Message: err.Error()}
	case errors.Is(err, context.DeadlineExceeded):
		return &Error{Kind: KindTimeout, Message: err.Error()}
	default:
		// http.Client wraps its timeout in a *url.Error with Timeout()
		var timeout interface{ Timeout() bool }
		if errors.As(err, &timeout) && timeout.Timeout() {
			return &Error{Kind: KindTimeout, Message: err.Error()}
		}
		return &Error{Kind: KindNetwork, Message: err.Error()}
	}
}

// remoteError surfaces the body's message field verbatim when present.
func remoteError(resp *http.Response) error {
	kind := KindRemote
	if resp.StatusCode == http.StatusNotFound {
		kind = KindNotFound
	}
	var body struct {
		Message string `json:"message"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&body)
	return &Error{Kind: kind, Status: resp.StatusCode, Message: body.Message}
}
