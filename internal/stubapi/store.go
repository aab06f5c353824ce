package stubapi

import (
	"sync"

	"github.com/shopspring/decimal"

	"github.com/wuehlmarkt/kiosk/internal/domain"
)

// store is the stub backend's in-memory state. Everything is lost on
// restart, which is fine for a development twin.
type store struct {
	mu           sync.Mutex
	itemsByCode  map[string]domain.ScannableItem
	nonScannable []entry
	pledgeable   []domain.ScannableItem
	transactions map[string]*transactionRecord
}

type entry struct {
	Type string `json:"type"`
	domain.ScannableItem
	Value decimal.Decimal `json:"value,omitempty"`
}

type transactionRecord struct {
	domain.Transaction
	idempotencyKey string
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// newSeededStore loads the development catalog: the store's loose produce,
// two scannable products and a couple of redeemable pledge bons.
func newSeededStore() *store {
	produce := []domain.ScannableItem{
		{ID: "p1", Name: "Äpfel", Price: dec("2.99"), Unit: "kg", Category: "fruit", PLU: "4131", Origin: "Deutschland"},
		{ID: "p2", Name: "Bio-Bananen", Price: dec("1.99"), Unit: "kg", Category: "fruit", PLU: "94011", IsOrganic: true, Origin: "Ecuador"},
		{ID: "p3", Name: "Karotten", Price: dec("1.49"), Unit: "kg", Category: "vegetable", PLU: "4562", Origin: "Deutschland"},
		{ID: "p4", Name: "Bio-Tomaten", Price: dec("3.99"), Unit: "kg", Category: "vegetable", PLU: "93061", IsOrganic: true, Origin: "Spanien"},
		{ID: "p5", Name: "Birnen", Price: dec("2.49"), Unit: "kg", Category: "fruit", PLU: "4409", Origin: "Italien"},
		{ID: "p6", Name: "Kartoffeln", Price: dec("0.99"), Unit: "kg", Category: "vegetable", PLU: "4072", Origin: "Deutschland"},
		{ID: "p7", Name: "Bio-Zwiebeln", Price: dec("1.29"), Unit: "kg", Category: "vegetable", PLU: "94082", IsOrganic: true, Origin: "Deutschland"},
		{ID: "p8", Name: "Orangen", Price: dec("2.79"), Unit: "kg", Category: "fruit", PLU: "4012", Origin: "Spanien"},
	}
	scannable := []domain.ScannableItem{
		{ID: "b1", Name: "Kaffe Sahne", Price: dec("1.99"), Unit: "stk", Barcode: "4008230208001"},
		{ID: "b2", Name: "Pepsi Cola", Price: dec("1.99"), Unit: "stk", Barcode: "4062139002191", PledgeValue: dec("0.25")},
	}

	s := &store{
		itemsByCode:  make(map[string]domain.ScannableItem),
		transactions: make(map[string]*transactionRecord),
	}
	for _, item := range scannable {
		s.itemsByCode[item.Barcode] = item
		s.pledgeable = append(s.pledgeable, item)
	}
	for _, item := range produce {
		s.nonScannable = append(s.nonScannable, entry{Type: "item", ScannableItem: item})
	}
	s.nonScannable = append(s.nonScannable,
		entry{Type: "pledge", ScannableItem: domain.ScannableItem{ID: "bon-1", Barcode: "9990001"}, Value: dec("0.25")},
		entry{Type: "pledge", ScannableItem: domain.ScannableItem{ID: "bon-2", Barcode: "9990002"}, Value: dec("1.15")},
	)
	return s
}

func (s *store) itemByID(id string) (domain.ScannableItem, bool) {
	for _, item := range s.itemsByCode {
		if item.ID == id {
			return item, true
		}
	}
	for _, e := range s.nonScannable {
		if e.Type == "item" && e.ID == id {
			return e.ScannableItem, true
		}
	}
	return domain.ScannableItem{}, false
}

// priceOf resolves a transaction line's unit price including the deposit.
func (s *store) priceOf(itemID string) (decimal.Decimal, bool) {
	item, ok := s.itemByID(itemID)
	if !ok {
		return decimal.Zero, false
	}
	return item.Price.Add(item.PledgeValue), true
}

func (s *store) redemptionValue(id string) (decimal.Decimal, bool) {
	for _, e := range s.nonScannable {
		if e.Type == "pledge" && e.ID == id {
			return e.Value, true
		}
	}
	return decimal.Zero, false
}
