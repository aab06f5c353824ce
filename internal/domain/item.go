package domain

import "github.com/shopspring/decimal"

// ScannableItem is a priced catalog entry as served by the backend.
// Immutable once fetched; downstream components only read it.
type ScannableItem struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Unit        string          `json:"unit,omitempty"`
	Category    string          `json:"category,omitempty"`
	IsOrganic   bool            `json:"isOrganic,omitempty"`
	ImageURL    string          `json:"imageUrl,omitempty"`
	Origin      string          `json:"origin,omitempty"`
	PledgeValue decimal.Decimal `json:"pledgeValue"`
	Barcode     string          `json:"barcodeId,omitempty"`
	PLU         string          `json:"plu,omitempty"`
}

// HasPledge reports whether buying the item charges a deposit on top of
// its price.
func (i ScannableItem) HasPledge() bool {
	return i.PledgeValue.IsPositive()
}

// PledgeRedemption is a previously issued deposit receipt being redeemed.
// Distinct from a pledge-bearing product being purchased: redeeming refunds
// money, buying charges it.
type PledgeRedemption struct {
	ID        string          `json:"id"`
	Value     decimal.Decimal `json:"value"`
	BarcodeID string          `json:"barcodeId"`
}

// ScanResult is what a resolved scan yields: exactly one of Item or
// Redemption is set.
type ScanResult struct {
	Item       *ScannableItem
	Redemption *PledgeRedemption
}
