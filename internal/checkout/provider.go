package checkout

import (
	"context"

	"github.com/shopspring/decimal"
)

// Capture is the provider's confirmation of a captured order.
type Capture struct {
	OrderID string
	PayerID string
	Status  string
}

// Provider is the payment-provider port. The PayPal REST adapter is one
// implementation; tests substitute their own.
type Provider interface {
	CreateOrder(ctx context.Context, amount decimal.Decimal, currency, referenceID string) (orderID string, err error)
	CaptureOrder(ctx context.Context, orderID string) (Capture, error)
	OrderStatus(ctx context.Context, orderID string) (string, error)
}
