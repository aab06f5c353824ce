package checkout

import (
	"errors"
	"fmt"
)

var (
	ErrIllegalTransition = errors.New("illegal transition of checkout status")
	ErrNoTransaction     = errors.New("no transaction in progress")
)

// PaymentError wraps a provider-side failure. It blocks the current payment
// attempt only; the operator may retry or switch to the cash path.
type PaymentError struct {
	Err error
}

func (e *PaymentError) Error() string {
	return fmt.Sprintf("payment failed: %v", e.Err)
}

func (e *PaymentError) Unwrap() error {
	return e.Err
}

// TransactionError wraps a backend rejection of transaction create or
// complete. It is blocking: the operator must restart checkout.
type TransactionError struct {
	Err error
}

func (e *TransactionError) Error() string {
	return fmt.Sprintf("transaction failed: %v", e.Err)
}

func (e *TransactionError) Unwrap() error {
	return e.Err
}
