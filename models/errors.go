package models

import (
	"errors"
	"fmt"
)

// ErrNotFound is the common cause of every "referenced id does not exist" error.
var ErrNotFound = errors.New("not found")

var (
	// ErrProductNotFound is returned when a product is not found.
	ErrProductNotFound = fmt.Errorf("product %w", ErrNotFound)
	// ErrSaleNotFound is returned when a sale header is not found in a ledger.
	ErrSaleNotFound = fmt.Errorf("sale %w", ErrNotFound)
)

// ValidationError reports malformed input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + " " + e.Message
}

// TxError is a database failure inside a multi-statement operation.
// The transaction has been rolled back when it is returned.
type TxError struct {
	Op  string
	Err error
}

func (e *TxError) Error() string {
	return e.Op + ": transaction rolled back: " + e.Err.Error()
}

func (e *TxError) Unwrap() error {
	return e.Err
}

// txError wraps err as a TxError unless it is a not-found or validation outcome.
func txError(op string, err error) error {
	if err == nil {
		return nil
	}
	var verr *ValidationError
	if errors.Is(err, ErrNotFound) || errors.As(err, &verr) {
		return err
	}
	return &TxError{Op: op, Err: err}
}
