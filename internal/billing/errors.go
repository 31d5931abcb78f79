package billing

import "errors"

var (
	// ErrCustomerNotFound means the settlement target customer does not exist.
	ErrCustomerNotFound = errors.New("customer not found")

	// ErrPaymentNotFound means the referenced payment record does not exist.
	ErrPaymentNotFound = errors.New("payment not found")

	// ErrAlreadySettled means the payment was receipted by an earlier
	// settlement. The caller must not retry.
	ErrAlreadySettled = errors.New("payment already settled")

	// ErrInvalidAmount means the payment amount is zero, negative or
	// unparsable.
	ErrInvalidAmount = errors.New("invalid payment amount")

	// ErrReceiptNumber means receipt-number generation exhausted its retry
	// budget without finding a free number.
	ErrReceiptNumber = errors.New("could not generate unique receipt number")
)

// TxError wraps a store failure inside the settlement transaction. The whole
// transaction was rolled back; no partial invoice or balance updates survive.
type TxError struct {
	Err error
}

func (e *TxError) Error() string {
	return "settlement transaction failed: " + e.Err.Error()
}

func (e *TxError) Unwrap() error {
	return e.Err
}
