// Package paypal implements the checkout provider port against the PayPal
// Orders v2 REST API. Only the three calls the kiosk needs are covered:
// order create, capture and status.
package paypal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/wuehlmarkt/kiosk/internal/checkout"
)

// SandboxBaseURL is PayPal's test environment.
const SandboxBaseURL = "https://api-m.sandbox.paypal.com"

type Client struct {
	base     string
	clientID string
	secret   string
	http     *http.Client

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

func NewClient(baseURL, clientID, secret string) *Client {
	return &Client{
		base:     baseURL,
		clientID: clientID,
		secret:   secret,
		http: &http.Client{
			Timeout:   10 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

func (c *Client) CreateOrder(ctx context.Context, amount decimal.Decimal, currency, referenceID string) (string, error) {
	body := map[string]any{
		"intent": "CAPTURE",
		"purchase_units": []map[string]any{{
			"reference_id": referenceID,
			"amount": map[string]string{
				"currency_code": currency,
				"value":         amount.StringFixed(2),
			},
		}},
	}

	var resp struct {
		ID string `json:"id"`
	}
	if err := c.call(ctx, http.MethodPost, "/v2/checkout/orders", body, &resp); err != nil {
		return "", fmt.Errorf("create order failed: %w", err)
	}
	return resp.ID, nil
}

func (c *Client) CaptureOrder(ctx context.Context, orderID string) (checkout.Capture, error) {
	var resp struct {
		ID     string `json:"id"`
		Status string `json:"status"`
		Payer  struct {
			PayerID string `json:"payer_id"`
		} `json:"payer"`
	}
	path := "/v2/checkout/orders/" + url.PathEscape(orderID) + "/capture"
	if err := c.call(ctx, http.MethodPost, path, struct{}{}, &resp); err != nil {
		return checkout.Capture{}, fmt.Errorf("capture order failed: %w", err)
	}
	if resp.Status != "COMPLETED" {
		return checkout.Capture{}, fmt.Errorf("capture ended in status %s", resp.Status)
	}
	return checkout.Capture{OrderID: resp.ID, PayerID: resp.Payer.PayerID, Status: resp.Status}, nil
}

func (c *Client) OrderStatus(ctx context.Context, orderID string) (string, error) {
	var resp struct {
		Status string `json:"status"`
	}
	path := "/v2/checkout/orders/" + url.PathEscape(orderID)
	if err := c.call(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return "", fmt.Errorf("order status failed: %w", err)
	}
	return resp.Status, nil
}

func (c *Client) call(ctx context.Context, method, path string, body, out any) error {
	token, err := c.accessToken(ctx)
	if err != nil {
		return err
	}

	var reader io.Reader
	if body != nil {
		payload, errMarshal := json.Marshal(body)
		if errMarshal != nil {
			return fmt.Errorf("marshal request failed: %w", errMarshal)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return fmt.Errorf("build request failed: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var perr struct {
			Message string `json:"message"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&perr)
		if perr.Message != "" {
			return fmt.Errorf("provider returned HTTP %d: %s", resp.StatusCode, perr.Message)
		}
		return fmt.Errorf("provider returned HTTP %d", resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// accessToken returns a cached client-credentials token, refreshing it
// shortly before expiry.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" && time.Now().Before(c.tokenExpiry) {
		return c.token, nil
	}

	form := strings.NewReader("grant_type=client_credentials")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/v1/oauth2/token", form)
	if err != nil {
		return "", fmt.Errorf("build token request failed: %w", err)
	}
	req.SetBasicAuth(c.clientID, c.secret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token request returned HTTP %d", resp.StatusCode)
	}

	var token struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if errDec := json.NewDecoder(resp.Body).Decode(&token); errDec != nil {
		return "", fmt.Errorf("decode token failed: %w", errDec)
	}

	c.token = token.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(token.ExpiresIn)*time.Second - time.Minute)
	return c.token, nil
}
