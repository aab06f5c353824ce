package catalog

import (
	"context"
	"errors"

	"github.com/wuehlmarkt/kiosk/internal/domain"
)

var ErrCacheMiss = errors.New("item not found in cache")

// Cache holds resolved barcode lookups so a busy till does not hit the
// backend for every repeat scan of the same product.
type Cache interface {
	Get(ctx context.Context, barcode string) (*domain.ScannableItem, error)
	Set(ctx context.Context, barcode string, item *domain.ScannableItem) error
	Delete(ctx context.Context, barcode string) error
}
