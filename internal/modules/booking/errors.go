package booking

import (
	"errors"

	"railbook/internal/modules/inventory"
	"railbook/internal/modules/ledger"
)

var (
	ErrValidation      = errors.New("validation error")
	ErrNotFound        = errors.New("train, class or station not found")
	ErrPendingNotFound = errors.New("booking session not found")
	ErrPendingExpired  = errors.New("booking session has expired")

	ErrAllocationFailed = inventory.ErrAllocationFailed
	ErrTicketNotFound   = ledger.ErrTicketNotFound
	ErrAlreadyCancelled = ledger.ErrAlreadyCancelled
	ErrNotCancellable   = ledger.ErrNotCancellable
)
