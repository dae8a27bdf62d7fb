package domain

import (
	"errors"
	"fmt"
)

// ErrNoEligibleOpponent is returned by opponent selection when every
// candidate has been filtered out (all bots, or all excluded by a rating
// filter with no fallback left).
var ErrNoEligibleOpponent = errors.New("no eligible opponent")

// ErrNotFound is returned by lookups that matched no stored row.
var ErrNotFound = errors.New("not found")

// MissingFieldError reports an access to a snapshot field that was never
// fetched. It distinguishes "not fetched" from "fetched but empty": the
// latter is served with a documented zero value instead.
type MissingFieldError struct {
	Identifier string
	Field      string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("player %s: field %s not fetched", e.Identifier, e.Field)
}

// IsMissingField reports whether err wraps a MissingFieldError.
func IsMissingField(err error) bool {
	var mfe *MissingFieldError
	return errors.As(err, &mfe)
}
