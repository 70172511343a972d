package customerr

import "github.com/pkg/errors"

var (
	// ErrUnknownCurrency means the currency table holds no rate for the code.
	ErrUnknownCurrency = errors.New("unknown currency")
	// ErrRateLookupFailed covers every failure of the external rate service:
	// network errors, non-200 responses and malformed bodies.
	ErrRateLookupFailed = errors.New("rate lookup failed")
	// ErrInvalidAmount means the user's amount text did not parse as a number.
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrEmptyLedger means a delete was requested on a ledger with no records.
	ErrEmptyLedger = errors.New("empty ledger")
)
