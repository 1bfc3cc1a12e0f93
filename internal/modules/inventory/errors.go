package inventory

import "errors"

var (
	ErrPoolNotFound     = errors.New("no berth inventory for train and class")
	ErrNoPassengers     = errors.New("no passengers to allocate")
	ErrAllocationFailed = errors.New("no berth satisfies the allocation rules")
	ErrUnknownCoach     = errors.New("coach does not belong to this pool")
	ErrBerthTaken       = errors.New("berth is no longer available")
)
