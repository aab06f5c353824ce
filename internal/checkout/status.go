package checkout

// Status tracks one checkout attempt from transaction creation to a
// terminal state.
type Status string

const (
	StatusCreated        Status = "CREATED"
	StatusPendingPayment Status = "PENDING_PAYMENT"
	StatusPaid           Status = "PAID"
	StatusCancelled      Status = "CANCELLED"
)

func (s Status) IsTerminal() bool {
	return s == StatusPaid || s == StatusCancelled
}

// String representation (for logging)
func (s Status) String() string {
	return string(s)
}

var legalTransitions = map[Status][]Status{
	StatusCreated:        {StatusPendingPayment, StatusCancelled},
	StatusPendingPayment: {StatusPaid, StatusCancelled},
}

func CanTransitionTo(from, to Status) bool {
	for _, next := range legalTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
