package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/wuehlmarkt/kiosk/internal/domain"
)

// CreateTransaction posts the finalized cart. The idempotency key shields
// against double submission when the operator mashes the pay button or the
// first response is lost.
func (c *Client) CreateTransaction(ctx context.Context, items []domain.TransactionItem, pledges []string, idempotencyKey string) (domain.Transaction, error) {
	if pledges == nil {
		pledges = []string{}
	}
	if items == nil {
		items = []domain.TransactionItem{}
	}
	header := http.Header{}
	if idempotencyKey != "" {
		header.Set("Idempotency-Key", idempotencyKey)
	}
	var tx domain.Transaction
	err := c.do(ctx, http.MethodPost, "/transaction/create", header, map[string]any{
		"items":   items,
		"pledges": pledges,
	}, &tx)
	return tx, err
}

// Transaction reads the backend's current view of a transaction. The status
// it returns is authoritative.
func (c *Client) Transaction(ctx context.Context, transactionID string) (domain.Transaction, error) {
	var tx domain.Transaction
	err := c.get(ctx, "/transaction/"+url.PathEscape(transactionID), &tx)
	return tx, err
}

// CompleteTransaction confirms payment against the backend after a provider
// capture succeeded.
func (c *Client) CompleteTransaction(ctx context.Context, orderID, transactionID string) error {
	return c.post(ctx, "/transaction/complete", map[string]string{
		"orderId":       orderID,
		"transactionId": transactionID,
	}, nil)
}

// CancelTransaction voids an abandoned transaction server-side.
func (c *Client) CancelTransaction(ctx context.Context, transactionID string) error {
	return c.post(ctx, "/transaction/cancel/"+url.PathEscape(transactionID), nil, nil)
}
