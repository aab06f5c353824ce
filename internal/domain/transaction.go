package domain

import "github.com/shopspring/decimal"

type TransactionStatus string

const (
	TransactionStatusCreated   TransactionStatus = "created"
	TransactionStatusPaid      TransactionStatus = "paid"
	TransactionStatusCancelled TransactionStatus = "cancelled"
)

func (s TransactionStatus) IsTerminal() bool {
	return s == TransactionStatusPaid || s == TransactionStatusCancelled
}

// String representation (for logging)
func (s TransactionStatus) String() string {
	return string(s)
}

type TransactionItem struct {
	ItemID   string `json:"itemId"`
	Quantity int    `json:"quantity"`
}

// Transaction mirrors the backend's record of one checkout attempt.
// TotalAmount is backend-computed and authoritative over any client-side
// cart total.
type Transaction struct {
	TransactionID string            `json:"transactionId"`
	Items         []TransactionItem `json:"items,omitempty"`
	Pledges       []string          `json:"pledges,omitempty"`
	TotalAmount   decimal.Decimal   `json:"totalAmount"`
	Status        TransactionStatus `json:"status"`
}
