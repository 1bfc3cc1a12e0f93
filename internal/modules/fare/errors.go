package fare

import "errors"

var (
	ErrRouteUnresolved = errors.New("route distance could not be resolved")
	ErrUnknownCategory = errors.New("unknown train category")
)
