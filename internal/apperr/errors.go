package apperr

import "errors"

var (
	ErrAlreadyExists  = errors.New("already exists")
	ErrStaleReference = errors.New("stale reference")
	ErrLocked         = errors.New("vault is locked by another run")
)
