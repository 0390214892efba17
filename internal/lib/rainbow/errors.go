package rainbow

import (
	"errors"
	"fmt"
)

// Every action failure is fatal for that action; the five kinds below let
// callers classify with errors.Is without parsing reason strings.
var (
	ErrValidation    = errors.New("validation error")
	ErrPrecondition  = errors.New("precondition error")
	ErrAuthorization = errors.New("authorization error")
	ErrCapacity      = errors.New("capacity error")
	ErrHost          = errors.New("host error")
)

// Recurring failures, wrapped with their taxonomy kind.
var (
	ErrTokenMissing    = preconditionErr("token with symbol does not exist")
	ErrNotApproved     = preconditionErr("token has not been approved")
	ErrConfigLocked    = preconditionErr("token reconfiguration is locked")
	ErrTransfersFrozen = preconditionErr("transfers are frozen")
	ErrOverdrawn       = preconditionErr("overdrawn balance")
	ErrNoBalanceRow    = preconditionErr("no balance object found")
	ErrMustDestake     = preconditionErr("must destake before restaking")
	ErrStakeCount      = fmt.Errorf("%w: stake count exceeded", ErrCapacity)
)

func validationErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func preconditionErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrPrecondition, fmt.Sprintf(format, args...))
}

func authorizationErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrAuthorization, fmt.Sprintf(format, args...))
}

func hostErr(err error) error {
	return fmt.Errorf("%w: %v", ErrHost, err)
}
