package checkout

import (
	"errors"
	"fmt"
)

// ValidationError rejects a malformed request before any store access.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return "invalid order: " + e.Reason }

// InsufficientStockError aborts the whole transaction; Product carries the
// product name so the caller can say which line failed.
type InsufficientStockError struct {
	Product   string
	Required  int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: requires %d, has %d", e.Product, e.Required, e.Available)
}

// ProductNotFoundError rolls back exactly like InsufficientStockError.
type ProductNotFoundError struct {
	ID int64
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %d does not exist", e.ID)
}

// TxError wraps a storage failure (begin, commit, connection loss). The
// underlying cause is kept for logs but callers treat it as opaque.
type TxError struct {
	Err error
}

func (e *TxError) Error() string { return "transaction failed: " + e.Err.Error() }
func (e *TxError) Unwrap() error { return e.Err }

// IsBusinessError reports whether err is a business-rule rejection rather
// than a storage fault. Store implementations use it to decide what to
// wrap in TxError; HTTP handlers use it to pick 400 vs 500.
func IsBusinessError(err error) bool {
	var ve *ValidationError
	var ise *InsufficientStockError
	var nfe *ProductNotFoundError
	return errors.As(err, &ve) || errors.As(err, &ise) || errors.As(err, &nfe)
}
