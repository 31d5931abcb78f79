package billing

import (
	"context"
	"crypto/rand"
	"fmt"
)

const (
	receiptNumberPrefix   = "RCPT"
	receiptNumberDigits   = 8
	receiptNumberAttempts = 5
)

func randomReceiptNumber() (string, error) {
	buf := make([]byte, receiptNumberDigits)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate receipt number: %w", err)
	}
	digits := make([]byte, receiptNumberDigits)
	for i, b := range buf {
		digits[i] = '0' + b%10
	}
	return receiptNumberPrefix + string(digits), nil
}

// NewReceiptNumber generates a receipt number of the form RCPT followed by
// eight decimal digits and verifies it is free via exists. Collisions
// regenerate, bounded at a fixed number of attempts so a corrupted store
// cannot spin the generator forever.
func NewReceiptNumber(ctx context.Context, exists func(ctx context.Context, number string) (bool, error)) (string, error) {
	for attempt := 0; attempt < receiptNumberAttempts; attempt++ {
		number, err := randomReceiptNumber()
		if err != nil {
			return "", err
		}
		taken, err := exists(ctx, number)
		if err != nil {
			return "", err
		}
		if !taken {
			return number, nil
		}
	}
	return "", ErrReceiptNumber
}
