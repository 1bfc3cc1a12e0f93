package repository

import "errors"

var ErrPendingNotFound = errors.New("pending booking not found")
