package snapshot

import (
	"fmt"

	"github.com/m-mizutani/goerr/v2"
)

// Error kinds shared across inspection, persistence, and reconciliation.
var (
	// ErrNotARepository marks a path without checkout metadata.
	ErrNotARepository = goerr.New("not a git checkout")
	// ErrToolingError marks a failure of the underlying version-control tooling.
	ErrToolingError = goerr.New("git tooling failed")
	// ErrBaselineUnreadable marks a baseline that is missing or malformed.
	ErrBaselineUnreadable = goerr.New("baseline unreadable")
	// ErrReconcileError marks a failed repair action.
	ErrReconcileError = goerr.New("reconcile failed")
)

// WrapKind wraps cause under kind so that errors.Is matches both while the message keeps
// the cause's detail.
func WrapKind(kind error, cause error, message string, options ...goerr.Option) *goerr.Error {
	return goerr.Wrap(fmt.Errorf("%w: %w", kind, cause), message, options...)
}
