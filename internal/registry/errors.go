package registry

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownEntity indicates an operation referenced an entity id that
	// was never created. Merges hitting this abort the run: it means the
	// registry is corrupted.
	ErrUnknownEntity = errors.New("unknown entity id")

	// ErrMergeCycle indicates a merge whose two sides resolve to the same
	// live entity, which would corrupt the redirect chain.
	ErrMergeCycle = errors.New("merge would be circular")
)

// AliasConflictError reports an alias that already belongs to a different
// entity. Aliases are unique across the whole registry and are never
// silently reassigned.
type AliasConflictError struct {
	Alias      string
	OwnerID    string
	ClaimantID string
}

func (e *AliasConflictError) Error() string {
	return fmt.Sprintf("alias %q already belongs to entity %s (claimed for %s)", e.Alias, e.OwnerID, e.ClaimantID)
}

// IsAliasConflict reports whether err is an alias conflict.
func IsAliasConflict(err error) bool {
	var conflict *AliasConflictError
	return errors.As(err, &conflict)
}
