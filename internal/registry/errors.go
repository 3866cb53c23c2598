package registry

import (
	"errors"
	"fmt"
	"strings"

	"github.com/formweave/formweave/internal/schema"
)

// Sentinel errors of the registry and its stores. Callers branch on these
// to pick a retry strategy: conflicts are retryable after a refetch,
// state and structural errors require correcting the request.
var (
	// ErrNotFound means no row matched.
	ErrNotFound = errors.New("entry not found")
	// ErrExists means the (entity, variant, version) slot is taken.
	ErrExists = errors.New("entry already exists for this entity, variant and version")
	// ErrConflict means the optimistic-lock token was stale; refetch the
	// current state and reapply.
	ErrConflict = errors.New("entry was modified concurrently")
	// ErrState means the transition is illegal from the current status.
	ErrState = errors.New("operation not permitted in current status")
)

// StructuralError carries the validator's issue list for a rejected
// document. The write was never applied, not even partially.
type StructuralError struct {
	Issues []schema.Issue
}

func (e *StructuralError) Error() string {
	if len(e.Issues) == 0 {
		return "schema document rejected"
	}
	msgs := make([]string, len(e.Issues))
	for i, issue := range e.Issues {
		msgs[i] = issue.String()
	}
	return fmt.Sprintf("schema document rejected: %s", strings.Join(msgs, "; "))
}

// IsNotFound reports whether err is the not-found sentinel.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsConflict reports whether err is the optimistic-lock conflict sentinel.
func IsConflict(err error) bool { return errors.Is(err, ErrConflict) }

// IsState reports whether err is an illegal-transition error.
func IsState(err error) bool { return errors.Is(err, ErrState) }

// IsStructural reports whether err is a validator rejection.
func IsStructural(err error) bool {
	var se *StructuralError
	return errors.As(err, &se)
}
