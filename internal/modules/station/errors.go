package station

import "errors"

var (
	ErrStationNotFound = errors.New("station not found")
)
