package compensation

import "errors"

var (
	ErrRecordNotFound = errors.New("bonus/fine record not found")
	ErrInvalidPeriod  = errors.New("invalid compensation period")
)
