package fine

import "errors"

var (
	ErrFineNotFound       = errors.New("custom fine not found")
	ErrFineRecordNotFound = errors.New("custom fine record not found")
	ErrFineInactive       = errors.New("custom fine is inactive")
)
