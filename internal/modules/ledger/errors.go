package ledger

import "errors"

var (
	ErrTicketNotFound   = errors.New("ticket not found")
	ErrDuplicateID      = errors.New("ticket id already recorded")
	ErrAlreadyCancelled = errors.New("already cancelled")
	ErrNotCancellable   = errors.New("only reserved tickets can be cancelled")
	ErrIDExhausted      = errors.New("could not generate a unique ticket id")
)
