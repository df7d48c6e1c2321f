package billing

import "errors"

var (
	// ErrNotFound covers both a missing bill and a bill owned by someone
	// else; callers get no signal that another user's bill exists.
	ErrNotFound = errors.New("tagihan not found")
	// ErrAlreadyPaid rejects MarkPaid on a bill that is already paid, so a
	// double click or a second tab can never duplicate the ledger row.
	ErrAlreadyPaid = errors.New("tagihan already paid")
	// ErrValidation wraps all pre-write input rejections.
	ErrValidation = errors.New("invalid tagihan")
)
