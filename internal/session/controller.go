package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wuehlmarkt/kiosk/internal/catalog"
	"github.com/wuehlmarkt/kiosk/internal/domain"
	"github.com/wuehlmarkt/kiosk/internal/scanner"
)

// Controller is the per-screen state machine. One instance owns one cart for
// the lifetime of one kiosk session; all mutations are serialized through
// its lock, mirroring the single event loop the screens run on.
type Controller struct {
	resolver Resolver
	finisher Finisher
	nav      Navigator

	mu        sync.Mutex
	state     State
	gen       uint64
	cart      domain.Cart
	note      *Notification
	noteTimer *time.Timer
	noteSeq   uint64
	noteTTL   time.Duration
	loadErr   error
}

func NewController(resolver Resolver, finisher Finisher, nav Navigator) *Controller {
	return &Controller{
		resolver: resolver,
		finisher: finisher,
		nav:      nav,
		state:    StateLoading,
		noteTTL:  notificationTTL,
	}
}

// Start loads the screen's catalog data. On failure the session stays in
// Loading with a retryable error; Start may be called again.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateLoading {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	err := c.resolver.Load(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.loadErr = err
		log.Printf("session: catalog load failed: %v", err)
		return err
	}
	c.loadErr = nil
	c.state = StateScanning
	return nil
}

// Run consumes decoded barcodes from the scan source until it closes or ctx
// is cancelled.
func (c *Controller) Run(ctx context.Context, src scanner.Source) {
	for {
		select {
		case <-ctx.Done():
			return
		case code, ok := <-src.Barcodes():
			if !ok {
				return
			}
			c.HandleBarcode(ctx, code)
		}
	}
}

// HandleBarcode resolves one scan and applies it to the cart. Every failure
// becomes a transient notification; nothing here ever clears the cart.
// The lookup runs outside the lock and may take seconds; a result arriving
// after the session ended belongs to nobody and is discarded.
func (c *Controller) HandleBarcode(ctx context.Context, code string) {
	c.mu.Lock()
	if c.state != StateScanning {
		c.mu.Unlock()
		return
	}
	gen := c.gen
	c.mu.Unlock()

	result, err := c.resolver.Resolve(ctx, code)

	c.mu.Lock()
	defer c.mu.Unlock()
	// a state check alone is not enough: cancel returns the state to
	// Scanning, so the generation tells this session apart from the next
	if c.gen != gen || c.state != StateScanning {
		return
	}
	if err != nil {
		c.notifyLocked(scanErrorText(err), NotificationError)
		return
	}
	c.applyLocked(result)
}

// SelectItem is the manual catalog-tile path of the loose-produce flow:
// equivalent to a successful lookup.
func (c *Controller) SelectItem(item domain.ScannableItem) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateScanning {
		return
	}
	c.applyLocked(domain.ScanResult{Item: &item})
}

func (c *Controller) applyLocked(result domain.ScanResult) {
	switch {
	case result.Redemption != nil:
		if err := c.cart.ApplyRedemption(*result.Redemption); err != nil {
			c.notifyLocked("Pfand-Bon wurde bereits eingelöst", NotificationError)
			return
		}
		c.notifyLocked("Pfand-Bon wurde hinzugefügt", NotificationSuccess)
	case result.Item != nil:
		line := c.cart.ApplyItem(*result.Item)
		if line.Quantity > 1 {
			c.notifyLocked(fmt.Sprintf("%s wurde hinzugefügt (%d×)", line.Name, line.Quantity), NotificationSuccess)
		} else {
			c.notifyLocked(fmt.Sprintf("%s wurde hinzugefügt", line.Name), NotificationSuccess)
		}
	}
}

// UpdateQuantity forwards a +/- button press to the cart.
func (c *Controller) UpdateQuantity(lineID string, delta int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cart.UpdateQuantity(lineID, delta)
}

// RemoveLine forwards a remove button press to the cart.
func (c *Controller) RemoveLine(lineID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cart.RemoveLine(lineID)
}

// RequestCancel starts the cancel gesture: an empty cart leaves immediately,
// a non-empty one asks for confirmation first.
func (c *Controller) RequestCancel() {
	c.mu.Lock()
	if c.cart.IsEmpty() {
		c.gen++
		c.cart.Clear()
		c.mu.Unlock()
		c.nav.Home()
		return
	}
	c.state = StateConfirmingCancel
	c.mu.Unlock()
}

// ConfirmCancel discards the cart and navigates home.
func (c *Controller) ConfirmCancel() {
	c.mu.Lock()
	if c.state != StateConfirmingCancel {
		c.mu.Unlock()
		return
	}
	c.gen++
	c.cart.Clear()
	c.state = StateScanning
	c.mu.Unlock()
	c.nav.Home()
}

// DismissCancel returns to scanning with the cart intact.
func (c *Controller) DismissCancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateConfirmingCancel {
		c.state = StateScanning
	}
}

// Checkout hands the cart to the finisher. On success the cart is destroyed
// and the controller is terminal for this session; on failure the cart
// survives and the operator sees an error notification.
func (c *Controller) Checkout(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateScanning {
		c.mu.Unlock()
		return ErrNotLoaded
	}
	if c.cart.IsEmpty() {
		c.mu.Unlock()
		return ErrEmptyCart
	}
	snapshot := c.cart
	c.gen++
	c.state = StateAwaitingCheckout
	c.mu.Unlock()

	if err := c.finisher.Finish(ctx, &snapshot); err != nil {
		c.mu.Lock()
		c.state = StateScanning
		c.mu.Unlock()
		c.notify(err.Error(), NotificationError)
		return err
	}

	c.mu.Lock()
	c.cart.Clear()
	c.mu.Unlock()
	return nil
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// LoadError returns the pending catalog-load failure, if any.
func (c *Controller) LoadError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loadErr
}

// Lines returns a copy of the cart rows for rendering.
func (c *Controller) Lines() []domain.CartLine {
	c.mu.Lock()
	defer c.mu.Unlock()
	lines := make([]domain.CartLine, len(c.cart.Lines))
	copy(lines, c.cart.Lines)
	return lines
}

func (c *Controller) Total() decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cart.Total()
}

func (c *Controller) Notification() *Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.note
}

// Close stops the pending notification timer. Call on screen teardown.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.noteTimer != nil {
		c.noteTimer.Stop()
		c.noteTimer = nil
	}
	c.note = nil
}

func (c *Controller) notify(text string, kind NotificationKind) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notifyLocked(text, kind)
}

// notifyLocked replaces the visible notification and its dismiss timer. The
// sequence number keeps a late timer from clearing a newer notification.
func (c *Controller) notifyLocked(text string, kind NotificationKind) {
	if c.noteTimer != nil {
		c.noteTimer.Stop()
	}
	c.noteSeq++
	seq := c.noteSeq
	c.note = &Notification{Text: text, Kind: kind, seq: seq}
	c.noteTimer = time.AfterFunc(c.noteTTL, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.note != nil && c.note.seq == seq {
			c.note = nil
			c.noteTimer = nil
		}
	})
}

func scanErrorText(err error) string {
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		return "Produkt nicht gefunden"
	case errors.Is(err, ErrZeroPledge):
		return "Dieses Produkt hat kein Pfand"
	default:
		return "Netzwerkfehler, bitte erneut scannen"
	}
}
