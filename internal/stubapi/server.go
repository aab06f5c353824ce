// Package stubapi is an in-memory twin of the kiosk backend's REST
// contract. It lets the kiosk binary and the client tests run without the
// real backend; it is not that backend.
package stubapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/wuehlmarkt/kiosk/internal/domain"
)

type Server struct {
	store  *store
	router chi.Router
}

func New() *Server {
	s := &Server{store: newSeededStore()}

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Get("/item/{barcode}", s.handleItemByBarcode)
	r.Get("/item/notscanables", s.handleNonScannables)
	r.Post("/product/get", s.handleProductGet)
	r.Post("/product/create", s.handleProductCreate)
	r.Post("/pledge/create", s.handlePledgeCreate)
	r.Get("/pledge/get-all-products-with-pledge", s.handlePledgeProducts)
	r.Post("/transaction/create", s.handleTransactionCreate)
	r.Get("/transaction/{id}", s.handleTransactionGet)
	r.Post("/transaction/complete", s.handleTransactionComplete)
	r.Post("/transaction/cancel/{id}", s.handleTransactionCancel)
	s.router = r
	return s
}

func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) handleItemByBarcode(w http.ResponseWriter, r *http.Request) {
	barcode := chi.URLParam(r, "barcode")
	s.store.mu.Lock()
	item, ok := s.store.itemsByCode[barcode]
	s.store.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "Produkt mit Barcode "+barcode+" nicht gefunden")
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (s *Server) handleNonScannables(w http.ResponseWriter, _ *http.Request) {
	s.store.mu.Lock()
	entries := make([]entry, len(s.store.nonScannable))
	copy(entries, s.store.nonScannable)
	s.store.mu.Unlock()
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleProductGet(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Value string `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.store.mu.Lock()
	item, ok := s.store.itemByID(req.Value)
	s.store.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "Produkt nicht gefunden")
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (s *Server) handleProductCreate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		BarcodeID   string          `json:"barcodeId"`
		Price       decimal.Decimal `json:"price"`
		PledgeValue decimal.Decimal `json:"pledgeValue"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.BarcodeID == "" {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item := domain.ScannableItem{
		ID:          uuid.NewString(),
		Name:        "Neues Produkt " + req.BarcodeID,
		Price:       req.Price,
		PledgeValue: req.PledgeValue,
		Barcode:     req.BarcodeID,
	}
	s.store.mu.Lock()
	s.store.itemsByCode[req.BarcodeID] = item
	if item.HasPledge() {
		s.store.pledgeable = append(s.store.pledgeable, item)
	}
	s.store.mu.Unlock()
	writeJSON(w, http.StatusCreated, item)
}

func (s *Server) handlePledgeCreate(w http.ResponseWriter, r *http.Request) {
	var items []domain.TransactionItem
	if err := json.NewDecoder(r.Body).Decode(&items); err != nil || len(items) == 0 {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"status": "printed"})
}

func (s *Server) handlePledgeProducts(w http.ResponseWriter, _ *http.Request) {
	s.store.mu.Lock()
	products := make([]domain.ScannableItem, len(s.store.pledgeable))
	copy(products, s.store.pledgeable)
	s.store.mu.Unlock()
	writeJSON(w, http.StatusOK, products)
}

func (s *Server) handleTransactionCreate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Items   []domain.TransactionItem `json:"items"`
		Pledges []string                 `json:"pledges"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	key := r.Header.Get("Idempotency-Key")
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	if key != "" {
		for _, rec := range s.store.transactions {
			if rec.idempotencyKey == key {
				writeJSON(w, http.StatusOK, rec.Transaction)
				return
			}
		}
	}

	total := decimal.Zero
	for _, item := range req.Items {
		price, ok := s.store.priceOf(item.ItemID)
		if !ok {
			writeError(w, http.StatusBadRequest, "unknown item "+item.ItemID)
			return
		}
		total = total.Add(price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	for _, id := range req.Pledges {
		value, ok := s.store.redemptionValue(id)
		if !ok {
			writeError(w, http.StatusBadRequest, "unknown pledge "+id)
			return
		}
		total = total.Sub(value)
	}

	tx := domain.Transaction{
		TransactionID: uuid.NewString(),
		Items:         req.Items,
		Pledges:       req.Pledges,
		TotalAmount:   total,
		Status:        domain.TransactionStatusCreated,
	}
	s.store.transactions[tx.TransactionID] = &transactionRecord{Transaction: tx, idempotencyKey: key}
	writeJSON(w, http.StatusCreated, tx)
}

func (s *Server) handleTransactionGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.store.mu.Lock()
	rec, ok := s.store.transactions[id]
	s.store.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "Transaktion nicht gefunden")
		return
	}
	writeJSON(w, http.StatusOK, rec.Transaction)
}

func (s *Server) handleTransactionComplete(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OrderID       string `json:"orderId"`
		TransactionID string `json:"transactionId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.OrderID == "" {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s.store.mu.Lock()
	rec, ok := s.store.transactions[req.TransactionID]
	if ok {
		rec.Status = domain.TransactionStatusPaid
	}
	s.store.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "Transaktion nicht gefunden")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "completed"})
}

func (s *Server) handleTransactionCancel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.store.mu.Lock()
	rec, ok := s.store.transactions[id]
	if ok {
		rec.Status = domain.TransactionStatusCancelled
	}
	s.store.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "Transaktion nicht gefunden")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}
