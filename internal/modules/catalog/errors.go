package catalog

import "errors"

var (
	ErrTrainNotFound = errors.New("train not found")
	ErrClassNotFound = errors.New("class not available on train")
)
