package session

import (
	"context"
	"errors"

	"github.com/wuehlmarkt/kiosk/internal/domain"
)

// State is the session controller's top-level mode.
type State string

const (
	StateLoading          State = "LOADING"
	StateScanning         State = "SCANNING"
	StateConfirmingCancel State = "CONFIRMING_CANCEL"
	StateAwaitingCheckout State = "AWAITING_CHECKOUT"
)

var (
	ErrEmptyCart  = errors.New("cart is empty, nothing to checkout")
	ErrZeroPledge = errors.New("scanned item carries no deposit")
	ErrNotLoaded  = errors.New("session is still loading")
)

// Resolver is the per-screen scan semantics: the self-checkout screen
// resolves through the catalog, the deposit-return screen matches the
// pledge-product map.
type Resolver interface {
	// Load fetches the screen's catalog data. Called once on start and
	// again on manual retry.
	Load(ctx context.Context) error
	// Resolve turns a decoded barcode into an item or a redemption.
	Resolve(ctx context.Context, code string) (domain.ScanResult, error)
}

// Finisher receives the finalized cart when the operator ends the session:
// the transaction/payment flow for self-checkout, bon printing for
// deposit-return.
type Finisher interface {
	Finish(ctx context.Context, cart *domain.Cart) error
}

// Navigator is the outward navigation port; the UI shell implements it.
type Navigator interface {
	Home()
}
