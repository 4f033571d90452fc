package e

import "errors"

var (
	ErrReadFailed        = errors.New("data source read failed")
	ErrWriteFailed       = errors.New("artifact write failed")
	ErrUnknownScanSource = errors.New("unknown scan source")
	ErrInvalidRange      = errors.New("invalid byte range")
	ErrNotFound          = errors.New("not found")
)
