package api_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wuehlmarkt/kiosk/internal/api"
	"github.com/wuehlmarkt/kiosk/internal/domain"
	"github.com/wuehlmarkt/kiosk/internal/stubapi"
)

func newTestClient(t *testing.T) *api.Client {
	t.Helper()
	srv := httptest.NewServer(stubapi.New().Router())
	t.Cleanup(srv.Close)
	return api.NewClient(srv.URL)
}

func TestItemByBarcode(t *testing.T) {
	client := newTestClient(t)

	item, err := client.ItemByBarcode(context.Background(), "4062139002191")
	require.NoError(t, err)
	assert.Equal(t, "Pepsi Cola", item.Name)
	assert.True(t, item.HasPledge())
	assert.Equal(t, "0.25", item.PledgeValue.String())
}

func TestItemByBarcode_NotFoundCarriesBackendMessage(t *testing.T) {
	client := newTestClient(t)

	_, err := client.ItemByBarcode(context.Background(), "0000000000000")
	require.Error(t, err)
	assert.True(t, api.IsNotFound(err))
	assert.False(t, api.IsTransient(err))

	var ae *api.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, http.StatusNotFound, ae.Status)
	assert.Contains(t, ae.Message, "0000000000000")
}

func TestNonScannables_SplitsItemsAndPledges(t *testing.T) {
	client := newTestClient(t)

	results, err := client.NonScannables(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, results)

	var items, pledges int
	for _, r := range results {
		switch {
		case r.Item != nil:
			items++
			assert.NotEmpty(t, r.Item.Name)
		case r.Redemption != nil:
			pledges++
			assert.True(t, r.Redemption.Value.IsPositive())
			assert.NotEmpty(t, r.Redemption.BarcodeID)
		default:
			t.Fatalf("entry is neither item nor redemption")
		}
	}
	assert.NotZero(t, items)
	assert.NotZero(t, pledges)
}

func TestProductByID(t *testing.T) {
	client := newTestClient(t)

	created, err := client.CreateProduct(context.Background(), "4000417025005", decimal.RequireFromString("1.29"), decimal.Zero)
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	got, err := client.ProductByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.True(t, got.Price.Equal(decimal.RequireFromString("1.29")))
}

func TestTransactionLifecycle(t *testing.T) {
	client := newTestClient(t)

	item, err := client.ItemByBarcode(context.Background(), "4062139002191")
	require.NoError(t, err)

	tx, err := client.CreateTransaction(context.Background(),
		[]domain.TransactionItem{{ItemID: item.ID, Quantity: 2}}, nil, "key-1")
	require.NoError(t, err)
	require.NotEmpty(t, tx.TransactionID)
	assert.Equal(t, domain.TransactionStatusCreated, tx.Status)
	// 2 × (1.99 + 0.25 pledge)
	assert.True(t, tx.TotalAmount.Equal(item.Price.Add(item.PledgeValue).Mul(decimal.NewFromInt(2))),
		"total %s", tx.TotalAmount)

	require.NoError(t, client.CompleteTransaction(context.Background(), "order-1", tx.TransactionID))

	got, err := client.Transaction(context.Background(), tx.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionStatusPaid, got.Status)
}

func TestCreateTransaction_IdempotencyKeyReplays(t *testing.T) {
	client := newTestClient(t)

	item, err := client.ItemByBarcode(context.Background(), "4008230208001")
	require.NoError(t, err)

	items := []domain.TransactionItem{{ItemID: item.ID, Quantity: 1}}
	first, err := client.CreateTransaction(context.Background(), items, nil, "key-dup")
	require.NoError(t, err)
	second, err := client.CreateTransaction(context.Background(), items, nil, "key-dup")
	require.NoError(t, err)

	assert.Equal(t, first.TransactionID, second.TransactionID)
}

func TestCancelTransaction(t *testing.T) {
	client := newTestClient(t)

	item, err := client.ItemByBarcode(context.Background(), "4008230208001")
	require.NoError(t, err)
	tx, err := client.CreateTransaction(context.Background(),
		[]domain.TransactionItem{{ItemID: item.ID, Quantity: 1}}, nil, "key-2")
	require.NoError(t, err)

	require.NoError(t, client.CancelTransaction(context.Background(), tx.TransactionID))

	got, err := client.Transaction(context.Background(), tx.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionStatusCancelled, got.Status)
}

func TestClassification_Timeout(t *testing.T) {
	client := newTestClient(t)

	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()

	_, err := client.ItemByBarcode(ctx, "4008230208001")
	require.Error(t, err)
	assert.True(t, api.IsTransient(err))
}

func TestClassification_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(stubapi.New().Router())
	client := api.NewClient(srv.URL)
	srv.Close()

	_, err := client.ItemByBarcode(context.Background(), "4008230208001")
	require.Error(t, err)
	assert.True(t, api.IsTransient(err))
	assert.False(t, api.IsNotFound(err))
}
