package api

import (
	"context"

	"github.com/wuehlmarkt/kiosk/internal/domain"
)

// CreatePledge submits the grouped bottle counts of a deposit-return session
// and triggers printing of the pledge bon.
func (c *Client) CreatePledge(ctx context.Context, items []domain.TransactionItem) error {
	return c.post(ctx, "/pledge/create", items, nil)
}

// PledgeProducts lists every pledge-eligible product, keyed by barcode on
// the client for scan matching.
func (c *Client) PledgeProducts(ctx context.Context) ([]domain.ScannableItem, error) {
	var items []domain.ScannableItem
	err := c.get(ctx, "/pledge/get-all-products-with-pledge", &items)
	return items, err
}
