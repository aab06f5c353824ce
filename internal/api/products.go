package api

import (
	"context"
	"net/url"

	"github.com/shopspring/decimal"

	"github.com/wuehlmarkt/kiosk/internal/domain"
)

// ItemByBarcode resolves a scanned barcode to a catalog item.
func (c *Client) ItemByBarcode(ctx context.Context, barcode string) (domain.ScannableItem, error) {
	var item domain.ScannableItem
	err := c.get(ctx, "/item/"+url.PathEscape(barcode), &item)
	return item, err
}

// ProductByID fetches a catalog item by its internal id.
func (c *Client) ProductByID(ctx context.Context, id string) (domain.ScannableItem, error) {
	var item domain.ScannableItem
	err := c.post(ctx, "/product/get", map[string]string{"value": id}, &item)
	return item, err
}

// nonScannableEntry is the wire shape of /item/notscanables: loose-produce
// items and pledge-bon redemption definitions share one list, discriminated
// by type.
type nonScannableEntry struct {
	Type string `json:"type"` // "item" or "pledge"
	domain.ScannableItem
	Value decimal.Decimal `json:"value"`
}

// NonScannables fetches the catalog entries too irregular to carry a
// scannable barcode. Fetched once per session and matched client-side.
func (c *Client) NonScannables(ctx context.Context) ([]domain.ScanResult, error) {
	var entries []nonScannableEntry
	if err := c.get(ctx, "/item/notscanables", &entries); err != nil {
		return nil, err
	}
	results := make([]domain.ScanResult, 0, len(entries))
	for _, e := range entries {
		if e.Type == "pledge" {
			results = append(results, domain.ScanResult{Redemption: &domain.PledgeRedemption{
				ID:        e.ID,
				Value:     e.Value,
				BarcodeID: e.Barcode,
			}})
			continue
		}
		item := e.ScannableItem
		results = append(results, domain.ScanResult{Item: &item})
	}
	return results, nil
}

// CreateProduct registers a freshly scanned product (admin flow).
func (c *Client) CreateProduct(ctx context.Context, barcodeID string, price, pledgeValue decimal.Decimal) (domain.ScannableItem, error) {
	var item domain.ScannableItem
	err := c.post(ctx, "/product/create", map[string]any{
		"barcodeId":   barcodeID,
		"price":       price,
		"pledgeValue": pledgeValue,
	}, &item)
	return item, err
}
