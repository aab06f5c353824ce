package catalog

import (
	"context"
	"errors"
	"log"

	"golang.org/x/sync/singleflight"

	"github.com/wuehlmarkt/kiosk/internal/api"
	"github.com/wuehlmarkt/kiosk/internal/domain"
)

// ErrNotFound is the terminal-for-this-scan failure: the code resolves to
// nothing and the operator simply rescans.
var ErrNotFound = errors.New("no catalog entry for this code")

// Backend is the slice of the REST client the lookup layer needs.
type Backend interface {
	ItemByBarcode(ctx context.Context, barcode string) (domain.ScannableItem, error)
	ProductByID(ctx context.Context, id string) (domain.ScannableItem, error)
	NonScannables(ctx context.Context) ([]domain.ScanResult, error)
}

// Lookup resolves barcodes and ids to priced items. It layers a shared
// cache over the backend and collapses concurrent identical lookups with
// singleflight. No retries here; retry policy is the session controller's
// notification-and-rescan loop.
type Lookup struct {
	backend Backend
	cache   Cache
	sfg     singleflight.Group
}

func NewLookup(backend Backend, cache Cache) *Lookup {
	return &Lookup{backend: backend, cache: cache}
}

func (l *Lookup) ByBarcode(ctx context.Context, barcode string) (*domain.ScannableItem, error) {
	v, err, _ := l.sfg.Do(barcode, func() (interface{}, error) {
		item, errGet := l.cache.Get(ctx, barcode)
		if errGet == nil {
			return item, nil
		}
		if !errors.Is(errGet, ErrCacheMiss) {
			log.Printf("catalog: cache get error: %v", errGet) // log cache error but continue
		}

		fetched, errFetch := l.backend.ItemByBarcode(ctx, barcode)
		if errFetch != nil {
			if api.IsNotFound(errFetch) {
				return nil, ErrNotFound
			}
			return nil, errFetch
		}

		go func() {
			if errSet := l.cache.Set(context.Background(), barcode, &fetched); errSet != nil {
				log.Printf("catalog: cache set error: %v", errSet)
			}
		}()

		return &fetched, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.ScannableItem), nil
}

func (l *Lookup) ByID(ctx context.Context, id string) (*domain.ScannableItem, error) {
	item, err := l.backend.ProductByID(ctx, id)
	if err != nil {
		if api.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &item, nil
}

func (l *Lookup) NonScannables(ctx context.Context) ([]domain.ScanResult, error) {
	return l.backend.NonScannables(ctx)
}
