package pool

import (
	"errors"
	"fmt"

	"github.com/luxfi/mempool/account"
)

// ErrCapacityExceeded is returned when the pool is full and the new
// record's score does not exceed the lowest-scored resident (spec.md §7).
var ErrCapacityExceeded = errors.New("pool: capacity exceeded")

// AlreadyImportedError is informational, not fatal: it carries the hash of
// the pre-existing record so callers (and gossip.Adapter) can surface that
// hash to peers instead of treating the submission as failed (spec.md §7).
type AlreadyImportedError struct {
	Hash account.Hash
}

func (e *AlreadyImportedError) Error() string {
	return fmt.Sprintf("pool: already imported as %s", e.Hash)
}

// AsAlreadyImported reports whether err is an *AlreadyImportedError and
// returns it if so.
func AsAlreadyImported(err error) (*AlreadyImportedError, bool) {
	var ai *AlreadyImportedError
	if errors.As(err, &ai) {
		return ai, true
	}
	return nil, false
}
