package slot

import "errors"

var (
	ErrNotFound = errors.New("slot not found")
)
