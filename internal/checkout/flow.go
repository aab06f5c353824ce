package checkout

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/wuehlmarkt/kiosk/internal/domain"
)

const (
	completionDelay = 30 * time.Second
	currency        = "EUR"

	// marker order id recorded for payments settled outside the provider
	cashOrderID = "cash"
)

// vatRate is the fixed configured VAT used for the display breakdown only;
// the backend's totalAmount stays authoritative for the charge.
var vatRate = decimal.RequireFromString("0.19")

// Backend is the slice of the REST client the flow needs.
type Backend interface {
	CreateTransaction(ctx context.Context, items []domain.TransactionItem, pledges []string, idempotencyKey string) (domain.Transaction, error)
	Transaction(ctx context.Context, transactionID string) (domain.Transaction, error)
	CompleteTransaction(ctx context.Context, orderID, transactionID string) error
	CancelTransaction(ctx context.Context, transactionID string) error
}

// EventSink receives completed-checkout notifications. Publishing must never
// block or fail a checkout.
type EventSink interface {
	CheckoutCompleted(ctx context.Context, tx domain.Transaction, method string) error
}

// Navigator is the flow's outward navigation port.
type Navigator interface {
	Home()
	Completion()
}

// Flow drives a finalized cart through the backend transaction and a
// payment provider to a terminal state.
type Flow struct {
	backend  Backend
	provider Provider
	events   EventSink
	nav      Navigator
	bank     BankAccount

	mu        sync.Mutex
	tx        *domain.Transaction
	status    Status
	payErr    error
	homeTimer *time.Timer
	homeDelay time.Duration
}

func NewFlow(backend Backend, provider Provider, events EventSink, nav Navigator, bank BankAccount) *Flow {
	return &Flow{
		backend:   backend,
		provider:  provider,
		events:    events,
		nav:       nav,
		bank:      bank,
		homeDelay: completionDelay,
	}
}

// Finish implements session.Finisher: it converts the cart into a backend
// transaction and enters the payment screen. A rejected create is blocking;
// the operator must restart checkout.
func (f *Flow) Finish(ctx context.Context, cart *domain.Cart) error {
	key := uuid.NewString()
	tx, err := f.backend.CreateTransaction(ctx, cart.Items(), cart.PledgeIDs(), key)
	if err != nil {
		return &TransactionError{Err: err}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.tx = &tx
	f.status = StatusPendingPayment
	f.payErr = nil
	log.Printf("checkout: transaction %s created, total %s", tx.TransactionID, tx.TotalAmount)
	return nil
}

// Resume re-reads a transaction after the payment screen is re-entered. A
// transaction the backend already marks paid routes straight to the
// completion screen, which makes the transition idempotent against
// duplicate navigation.
func (f *Flow) Resume(ctx context.Context, transactionID string) error {
	tx, err := f.backend.Transaction(ctx, transactionID)
	if err != nil {
		return &TransactionError{Err: err}
	}

	f.mu.Lock()
	f.tx = &tx
	switch tx.Status {
	case domain.TransactionStatusPaid:
		f.status = StatusPaid
		f.mu.Unlock()
		f.enterCompletion()
		return nil
	case domain.TransactionStatusCancelled:
		// a voided transaction must not become payable again
		f.status = StatusCancelled
		f.mu.Unlock()
		return nil
	}
	f.status = StatusPendingPayment
	f.mu.Unlock()
	return nil
}

// PayProvider runs the provider order create/capture path. A provider error
// keeps the flow in PendingPayment so the operator may retry or fall back to
// cash.
func (f *Flow) PayProvider(ctx context.Context) error {
	f.mu.Lock()
	if f.tx == nil {
		f.mu.Unlock()
		return ErrNoTransaction
	}
	if !CanTransitionTo(f.status, StatusPaid) {
		f.mu.Unlock()
		return ErrIllegalTransition
	}
	tx := *f.tx
	f.mu.Unlock()

	orderID, err := f.provider.CreateOrder(ctx, tx.TotalAmount, currency, tx.TransactionID)
	if err != nil {
		return f.failPayment(err)
	}

	capture, err := f.provider.CaptureOrder(ctx, orderID)
	if err != nil {
		return f.failPayment(err)
	}

	if err := f.backend.CompleteTransaction(ctx, capture.OrderID, tx.TransactionID); err != nil {
		txErr := &TransactionError{Err: err}
		f.mu.Lock()
		f.payErr = txErr
		f.mu.Unlock()
		return txErr
	}

	f.complete(ctx, "paypal")
	return nil
}

// PayCash settles without provider capture. The cash drawer is an
// out-of-band process the backend never confirms; the completion call with
// the cash marker at least leaves a record, and the gap is logged.
func (f *Flow) PayCash(ctx context.Context) error {
	f.mu.Lock()
	if f.tx == nil {
		f.mu.Unlock()
		return ErrNoTransaction
	}
	if !CanTransitionTo(f.status, StatusPaid) {
		f.mu.Unlock()
		return ErrIllegalTransition
	}
	tx := *f.tx
	f.mu.Unlock()

	log.Printf("checkout: WARN cash payment for transaction %s completes without payment confirmation", tx.TransactionID)
	if err := f.backend.CompleteTransaction(ctx, cashOrderID, tx.TransactionID); err != nil {
		log.Printf("checkout: cash completion record failed: %v", err)
	}

	f.complete(ctx, "cash")
	return nil
}

// Cancel voids the transaction server-side, then discards the local
// reference and returns home. The kiosk must return to idle even when the
// backend cancel fails, so that failure is surfaced but not fatal.
func (f *Flow) Cancel(ctx context.Context) error {
	f.mu.Lock()
	if f.tx == nil {
		f.mu.Unlock()
		return ErrNoTransaction
	}
	tx := *f.tx
	f.stopTimerLocked()
	f.tx = nil
	f.status = StatusCancelled
	f.mu.Unlock()

	var cancelErr error
	if err := f.backend.CancelTransaction(ctx, tx.TransactionID); err != nil {
		log.Printf("checkout: backend cancel for %s failed: %v", tx.TransactionID, err)
		cancelErr = err
	}
	f.nav.Home()
	return cancelErr
}

// FinishCompletion is the manual "new purchase" action on the completion
// screen: it stops the pending auto-navigation so home is entered exactly
// once.
func (f *Flow) FinishCompletion() {
	f.mu.Lock()
	stopped := f.stopTimerLocked()
	f.mu.Unlock()
	if stopped {
		f.nav.Home()
	}
}

// Close releases the completion timer on teardown.
func (f *Flow) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopTimerLocked()
}

func (f *Flow) Status() Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status
}

func (f *Flow) Transaction() *domain.Transaction {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.tx == nil {
		return nil
	}
	tx := *f.tx
	return &tx
}

// PaymentError returns the sticky payment-screen error; it does not
// auto-dismiss and clears only on the next attempt.
func (f *Flow) PaymentError() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.payErr
}

// NetAmount is the gross total without VAT, for the display breakdown.
func (f *Flow) NetAmount() decimal.Decimal {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.tx == nil {
		return decimal.Zero
	}
	one := decimal.NewFromInt(1)
	return f.tx.TotalAmount.Div(one.Add(vatRate)).Round(2)
}

// VATAmount is the VAT share of the gross total, for the display breakdown.
func (f *Flow) VATAmount() decimal.Decimal {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.tx == nil {
		return decimal.Zero
	}
	one := decimal.NewFromInt(1)
	net := f.tx.TotalAmount.Div(one.Add(vatRate)).Round(2)
	return f.tx.TotalAmount.Sub(net)
}

func (f *Flow) failPayment(err error) error {
	payErr := &PaymentError{Err: err}
	f.mu.Lock()
	f.payErr = payErr
	f.mu.Unlock()
	return payErr
}

func (f *Flow) complete(ctx context.Context, method string) {
	f.mu.Lock()
	f.status = StatusPaid
	f.payErr = nil
	tx := *f.tx
	f.mu.Unlock()

	if f.events != nil {
		if err := f.events.CheckoutCompleted(ctx, tx, method); err != nil {
			log.Printf("checkout: event publish failed: %v", err)
		}
	}
	f.enterCompletion()
}

// enterCompletion shows the completion screen and arms the auto-home timer.
func (f *Flow) enterCompletion() {
	f.nav.Completion()
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopTimerLocked()
	f.homeTimer = time.AfterFunc(f.homeDelay, func() {
		f.mu.Lock()
		f.homeTimer = nil
		f.mu.Unlock()
		f.nav.Home()
	})
}

func (f *Flow) stopTimerLocked() bool {
	if f.homeTimer == nil {
		return false
	}
	f.homeTimer.Stop()
	f.homeTimer = nil
	return true
}
