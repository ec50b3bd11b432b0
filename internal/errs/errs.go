// Package errs holds the error kinds shared by the stores and the order
// lifecycle engine. Every engine failure wraps exactly one of these so the
// boundary layer can map it to a response with errors.Is.
package errs

import "errors"

var (
	// ErrNotFound: a referenced user, item, order or order line is absent.
	ErrNotFound = errors.New("not found")

	// ErrValidation: malformed input, e.g. an empty line list or qty <= 0.
	ErrValidation = errors.New("validation failed")

	// ErrUnavailable: item exists but is inactive, expired, or short on stock
	// for the requested quantity.
	ErrUnavailable = errors.New("item unavailable")

	// ErrInsufficientStock: a stock deduction would drive stock_qty below zero.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrInvalidStateTransition: mutation attempted on an order whose status
	// does not permit it.
	ErrInvalidStateTransition = errors.New("invalid state transition")

	// ErrForbidden: caller's role does not allow the action.
	ErrForbidden = errors.New("forbidden")
)
