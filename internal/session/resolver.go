package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/wuehlmarkt/kiosk/internal/catalog"
	"github.com/wuehlmarkt/kiosk/internal/domain"
)

// CheckoutResolver serves the self-checkout screen. Barcodes first match the
// non-scannable set fetched at load (pledge-bon redemptions, loose produce
// with PLU codes), then fall through to the catalog lookup.
type CheckoutResolver struct {
	lookup *catalog.Lookup

	mu          sync.RWMutex
	tiles       []domain.ScannableItem
	byPLU       map[string]domain.ScannableItem
	redemptions map[string]domain.PledgeRedemption
}

func NewCheckoutResolver(lookup *catalog.Lookup) *CheckoutResolver {
	return &CheckoutResolver{lookup: lookup}
}

func (r *CheckoutResolver) Load(ctx context.Context) error {
	entries, err := r.lookup.NonScannables(ctx)
	if err != nil {
		return fmt.Errorf("load non-scannable items failed: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.tiles = nil
	r.byPLU = make(map[string]domain.ScannableItem)
	r.redemptions = make(map[string]domain.PledgeRedemption)
	for _, e := range entries {
		if e.Redemption != nil {
			r.redemptions[e.Redemption.BarcodeID] = *e.Redemption
			continue
		}
		if e.Item != nil {
			r.tiles = append(r.tiles, *e.Item)
			if e.Item.PLU != "" {
				r.byPLU[e.Item.PLU] = *e.Item
			}
		}
	}
	return nil
}

func (r *CheckoutResolver) Resolve(ctx context.Context, code string) (domain.ScanResult, error) {
	r.mu.RLock()
	if red, ok := r.redemptions[code]; ok {
		r.mu.RUnlock()
		return domain.ScanResult{Redemption: &red}, nil
	}
	if item, ok := r.byPLU[code]; ok {
		r.mu.RUnlock()
		return domain.ScanResult{Item: &item}, nil
	}
	r.mu.RUnlock()

	item, err := r.lookup.ByBarcode(ctx, code)
	if err != nil {
		return domain.ScanResult{}, err
	}
	return domain.ScanResult{Item: item}, nil
}

// Tiles returns the loose-produce entries for manual selection, in catalog
// order.
func (r *CheckoutResolver) Tiles() []domain.ScannableItem {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tiles := make([]domain.ScannableItem, len(r.tiles))
	copy(tiles, r.tiles)
	return tiles
}

// PledgeBackend is the slice of the REST client the deposit-return screen
// needs.
type PledgeBackend interface {
	PledgeProducts(ctx context.Context) ([]domain.ScannableItem, error)
	CreatePledge(ctx context.Context, items []domain.TransactionItem) error
}

// PledgeResolver serves the deposit-return screen: scans match the
// pledge-product map fetched at load, and the refund is the deposit value
// alone, so the item's shelf price is zeroed before it reaches the cart.
type PledgeResolver struct {
	backend PledgeBackend

	mu       sync.RWMutex
	products map[string]domain.ScannableItem
}

func NewPledgeResolver(backend PledgeBackend) *PledgeResolver {
	return &PledgeResolver{backend: backend}
}

func (r *PledgeResolver) Load(ctx context.Context) error {
	products, err := r.backend.PledgeProducts(ctx)
	if err != nil {
		return fmt.Errorf("load pledge products failed: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.products = make(map[string]domain.ScannableItem, len(products))
	for _, p := range products {
		r.products[p.Barcode] = p
	}
	return nil
}

func (r *PledgeResolver) Resolve(_ context.Context, code string) (domain.ScanResult, error) {
	r.mu.RLock()
	product, ok := r.products[code]
	r.mu.RUnlock()
	if !ok {
		return domain.ScanResult{}, catalog.ErrNotFound
	}
	if !product.HasPledge() {
		return domain.ScanResult{}, ErrZeroPledge
	}
	product.Price = decimal.Zero
	return domain.ScanResult{Item: &product}, nil
}

var errNothingScanned = errors.New("no bottles scanned")

// PledgePrinter finishes a deposit-return session by submitting the grouped
// bottle counts; the backend prints the bon.
type PledgePrinter struct {
	backend PledgeBackend
	nav     Navigator
}

func NewPledgePrinter(backend PledgeBackend, nav Navigator) *PledgePrinter {
	return &PledgePrinter{backend: backend, nav: nav}
}

func (p *PledgePrinter) Finish(ctx context.Context, cart *domain.Cart) error {
	items := cart.Items()
	if len(items) == 0 {
		return errNothingScanned
	}
	if err := p.backend.CreatePledge(ctx, items); err != nil {
		return fmt.Errorf("create pledge failed: %w", err)
	}
	p.nav.Home()
	return nil
}
