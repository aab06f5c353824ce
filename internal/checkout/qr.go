package checkout

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// BankAccount is the store's receiving account shown on the QR fallback
// screen.
type BankAccount struct {
	Name string
	IBAN string
	BIC  string
}

// QRPayload builds the string a banking app scans on the cash/QR fallback
// screen. Format follows the payment screen's existing QR content:
// iban=..&bic=..&name=..&amount=..
func (f *Flow) QRPayload() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	amount := decimal.Zero
	if f.tx != nil {
		amount = f.tx.TotalAmount
	}
	return fmt.Sprintf("iban=%s&bic=%s&name=%s&amount=%s",
		f.bank.IBAN, f.bank.BIC, f.bank.Name, amount.StringFixed(2))
}
