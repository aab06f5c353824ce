package session

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wuehlmarkt/kiosk/internal/catalog"
	"github.com/wuehlmarkt/kiosk/internal/domain"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type mockResolver struct {
	m       sync.Mutex
	loadErr error
	results map[string]domain.ScanResult
	errs    map[string]error

	// gate, when set, holds Resolve open until closed; entered signals that
	// a lookup is in flight
	gate    chan struct{}
	entered chan struct{}
}

func (r *mockResolver) Load(context.Context) error {
	r.m.Lock()
	defer r.m.Unlock()
	return r.loadErr
}

func (r *mockResolver) Resolve(_ context.Context, code string) (domain.ScanResult, error) {
	r.m.Lock()
	gate, entered := r.gate, r.entered
	err, errOK := r.errs[code]
	res, resOK := r.results[code]
	r.m.Unlock()

	if entered != nil {
		entered <- struct{}{}
	}
	if gate != nil {
		<-gate
	}
	if errOK {
		return domain.ScanResult{}, err
	}
	if resOK {
		return res, nil
	}
	return domain.ScanResult{}, catalog.ErrNotFound
}

func (r *mockResolver) holdResolves() {
	r.m.Lock()
	defer r.m.Unlock()
	r.gate = make(chan struct{})
	r.entered = make(chan struct{}, 1)
}

func (r *mockResolver) releaseResolves() {
	r.m.Lock()
	defer r.m.Unlock()
	close(r.gate)
	r.gate = nil
	r.entered = nil
}

func (r *mockResolver) setLoadErr(err error) {
	r.m.Lock()
	defer r.m.Unlock()
	r.loadErr = err
}

type mockFinisher struct {
	m     sync.Mutex
	err   error
	carts []*domain.Cart
}

func (f *mockFinisher) Finish(_ context.Context, cart *domain.Cart) error {
	f.m.Lock()
	defer f.m.Unlock()
	if f.err != nil {
		return f.err
	}
	f.carts = append(f.carts, cart)
	return nil
}

type mockNavigator struct {
	m    sync.Mutex
	home int
}

func (n *mockNavigator) Home() {
	n.m.Lock()
	defer n.m.Unlock()
	n.home++
}

func (n *mockNavigator) homeCount() int {
	n.m.Lock()
	defer n.m.Unlock()
	return n.home
}

func appleResolver() *mockResolver {
	apple := domain.ScannableItem{ID: "p1", Name: "Äpfel", Price: dec("2.99")}
	bon := domain.PledgeRedemption{ID: "bon-1", Value: dec("0.25"), BarcodeID: "9990001"}
	return &mockResolver{
		results: map[string]domain.ScanResult{
			"4131":    {Item: &apple},
			"9990001": {Redemption: &bon},
		},
		errs: map[string]error{"94011": ErrZeroPledge},
	}
}

func startedController(t *testing.T) (*Controller, *mockResolver, *mockFinisher, *mockNavigator) {
	t.Helper()
	resolver := appleResolver()
	finisher := &mockFinisher{}
	nav := &mockNavigator{}
	sut := NewController(resolver, finisher, nav)
	t.Cleanup(sut.Close)
	require.NoError(t, sut.Start(context.Background()))
	require.Equal(t, StateScanning, sut.State())
	return sut, resolver, finisher, nav
}

func TestStart_LoadFailureStaysLoadingAndIsRetryable(t *testing.T) {
	resolver := appleResolver()
	resolver.setLoadErr(fmt.Errorf("network down"))
	sut := NewController(resolver, &mockFinisher{}, &mockNavigator{})
	defer sut.Close()

	require.Error(t, sut.Start(context.Background()))
	assert.Equal(t, StateLoading, sut.State())
	assert.Error(t, sut.LoadError())

	resolver.setLoadErr(nil)
	require.NoError(t, sut.Start(context.Background()))
	assert.Equal(t, StateScanning, sut.State())
	assert.NoError(t, sut.LoadError())
}

func TestHandleBarcode_SuccessAddsLineAndNotifies(t *testing.T) {
	sut, _, _, _ := startedController(t)

	sut.HandleBarcode(context.Background(), "4131")
	require.Len(t, sut.Lines(), 1)
	note := sut.Notification()
	require.NotNil(t, note)
	assert.Equal(t, NotificationSuccess, note.Kind)
	assert.Equal(t, "Äpfel wurde hinzugefügt", note.Text)

	sut.HandleBarcode(context.Background(), "4131")
	require.Len(t, sut.Lines(), 1)
	assert.Equal(t, 2, sut.Lines()[0].Quantity)
	assert.Equal(t, "Äpfel wurde hinzugefügt (2×)", sut.Notification().Text)
}

func TestHandleBarcode_NotFoundShowsErrorAndKeepsCart(t *testing.T) {
	sut, _, _, _ := startedController(t)
	sut.HandleBarcode(context.Background(), "4131")

	sut.HandleBarcode(context.Background(), "0000")
	note := sut.Notification()
	require.NotNil(t, note)
	assert.Equal(t, NotificationError, note.Kind)
	assert.Equal(t, "Produkt nicht gefunden", note.Text)
	assert.Len(t, sut.Lines(), 1, "a failed scan must not touch the cart")
}

func TestHandleBarcode_ZeroPledgeRejected(t *testing.T) {
	sut, _, _, _ := startedController(t)

	sut.HandleBarcode(context.Background(), "94011")
	note := sut.Notification()
	require.NotNil(t, note)
	assert.Equal(t, "Dieses Produkt hat kein Pfand", note.Text)
	assert.Empty(t, sut.Lines())
}

func TestHandleBarcode_DuplicateRedemption(t *testing.T) {
	sut, _, _, _ := startedController(t)

	sut.HandleBarcode(context.Background(), "9990001")
	sut.HandleBarcode(context.Background(), "9990001")
	require.Len(t, sut.Lines(), 1)
	assert.Equal(t, "Pfand-Bon wurde bereits eingelöst", sut.Notification().Text)
}

func TestNotification_AutoDismissesAndReplacementRestartsTimer(t *testing.T) {
	sut, _, _, _ := startedController(t)
	sut.noteTTL = 50 * time.Millisecond

	sut.HandleBarcode(context.Background(), "4131")
	require.NotNil(t, sut.Notification())

	// replacing the notification also replaces its timer
	sut.HandleBarcode(context.Background(), "4131")
	second := sut.Notification()
	require.NotNil(t, second)

	require.Eventually(t, func() bool {
		return sut.Notification() == nil
	}, time.Second, 10*time.Millisecond, "notification did not auto-dismiss")
}

func TestRequestCancel_EmptyCartGoesHomeWithoutDialog(t *testing.T) {
	sut, _, _, nav := startedController(t)

	sut.RequestCancel()
	assert.Equal(t, 1, nav.homeCount())
	assert.NotEqual(t, StateConfirmingCancel, sut.State())
}

func TestRequestCancel_NonEmptyCartShowsDialog(t *testing.T) {
	sut, _, _, nav := startedController(t)
	sut.HandleBarcode(context.Background(), "4131")

	sut.RequestCancel()
	assert.Equal(t, StateConfirmingCancel, sut.State())
	assert.Equal(t, 0, nav.homeCount())

	sut.ConfirmCancel()
	assert.Equal(t, 1, nav.homeCount())
	assert.Empty(t, sut.Lines())
}

func TestDismissCancel_KeepsCartIntact(t *testing.T) {
	sut, _, _, nav := startedController(t)
	sut.HandleBarcode(context.Background(), "4131")

	sut.RequestCancel()
	sut.DismissCancel()
	assert.Equal(t, StateScanning, sut.State())
	assert.Equal(t, 0, nav.homeCount())
	require.Len(t, sut.Lines(), 1)
	assert.Equal(t, 1, sut.Lines()[0].Quantity)
}

func TestCheckout_EmptyCartRefused(t *testing.T) {
	sut, _, finisher, _ := startedController(t)

	err := sut.Checkout(context.Background())
	require.ErrorIs(t, err, ErrEmptyCart)
	assert.Empty(t, finisher.carts)
}

func TestCheckout_HandsCartOverAndClears(t *testing.T) {
	sut, _, finisher, _ := startedController(t)
	sut.HandleBarcode(context.Background(), "4131")
	sut.HandleBarcode(context.Background(), "4131")

	require.NoError(t, sut.Checkout(context.Background()))
	assert.Equal(t, StateAwaitingCheckout, sut.State())
	require.Len(t, finisher.carts, 1)
	assert.Equal(t, "5.98", finisher.carts[0].Total().String())
	assert.Empty(t, sut.Lines(), "cart is destroyed on successful handoff")
}

func TestCheckout_FinisherErrorKeepsCart(t *testing.T) {
	sut, _, finisher, _ := startedController(t)
	finisher.err = fmt.Errorf("backend rejected transaction")
	sut.HandleBarcode(context.Background(), "4131")

	err := sut.Checkout(context.Background())
	require.Error(t, err)
	assert.Equal(t, StateScanning, sut.State())
	require.Len(t, sut.Lines(), 1)
	note := sut.Notification()
	require.NotNil(t, note)
	assert.Equal(t, NotificationError, note.Kind)
}

func TestUpdateQuantityAndRemove_ForwardToCart(t *testing.T) {
	sut, _, _, _ := startedController(t)
	sut.HandleBarcode(context.Background(), "4131")

	sut.UpdateQuantity("p1", 2)
	assert.Equal(t, 3, sut.Lines()[0].Quantity)

	sut.RemoveLine("p1")
	assert.Empty(t, sut.Lines())
}

func TestHandleBarcode_LookupResolvingAfterCancelIsDropped(t *testing.T) {
	sut, resolver, _, nav := startedController(t)
	resolver.holdResolves()

	done := make(chan struct{})
	go func() {
		sut.HandleBarcode(context.Background(), "4131")
		close(done)
	}()
	<-resolver.entered

	// operator leaves while the lookup is still on the wire
	sut.RequestCancel()
	require.Equal(t, 1, nav.homeCount())

	resolver.releaseResolves()
	<-done

	assert.Empty(t, sut.Lines(), "a lookup finishing after the session ended must not touch the cart")
	assert.Nil(t, sut.Notification())
}

func TestHandleBarcode_LookupStaleAfterConfirmedCancel(t *testing.T) {
	sut, resolver, _, _ := startedController(t)
	sut.HandleBarcode(context.Background(), "4131")
	resolver.holdResolves()

	done := make(chan struct{})
	go func() {
		sut.HandleBarcode(context.Background(), "4131")
		close(done)
	}()
	<-resolver.entered

	sut.RequestCancel()
	sut.ConfirmCancel()
	require.Empty(t, sut.Lines())

	// the state is Scanning again, so only the generation separates the
	// next customer's session from the cancelled one
	resolver.releaseResolves()
	<-done

	assert.Empty(t, sut.Lines(), "the next customer must not inherit the cancelled scan")
}

func TestHandleBarcode_LookupStaleAfterCheckout(t *testing.T) {
	sut, resolver, finisher, _ := startedController(t)
	sut.HandleBarcode(context.Background(), "4131")
	resolver.holdResolves()

	done := make(chan struct{})
	go func() {
		sut.HandleBarcode(context.Background(), "4131")
		close(done)
	}()
	<-resolver.entered

	require.NoError(t, sut.Checkout(context.Background()))

	resolver.releaseResolves()
	<-done

	require.Len(t, finisher.carts, 1)
	assert.Equal(t, 1, finisher.carts[0].Lines[0].Quantity)
	assert.Empty(t, sut.Lines(), "a scan resolving after handoff must not add an unpaid item")
}

type chanSource struct {
	codes chan string
}

func (s *chanSource) Barcodes() <-chan string { return s.codes }

func TestRun_ConsumesSourceUntilClosed(t *testing.T) {
	sut, _, _, _ := startedController(t)
	src := &chanSource{codes: make(chan string, 3)}
	src.codes <- "4131"
	src.codes <- "4131"
	close(src.codes)

	done := make(chan struct{})
	go func() {
		sut.Run(context.Background(), src)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after the source closed")
	}
	require.Len(t, sut.Lines(), 1)
	assert.Equal(t, 2, sut.Lines()[0].Quantity)
}

func TestSelectItem_TilePathEquivalentToScan(t *testing.T) {
	sut, _, _, _ := startedController(t)

	sut.SelectItem(domain.ScannableItem{ID: "p3", Name: "Karotten", Price: dec("1.49")})
	require.Len(t, sut.Lines(), 1)
	assert.Equal(t, "1.49", sut.Total().String())
	assert.Equal(t, "Karotten wurde hinzugefügt", sut.Notification().Text)
}
