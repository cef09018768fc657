package types

import (
	"errors"
	"fmt"
)

var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrInvalidContent   = errors.New("invalid pdf file")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrInvalidReference = errors.New("invalid pdf url")
	ErrProposalNotFound = errors.New("proposal not found")
)

// UpstreamError reports a failure of the storage or record backend that this
// service cannot do anything about.
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}
