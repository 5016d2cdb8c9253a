// Package domain holds primitives shared by every bounded context.
package domain

import (
	"strings"

	"github.com/google/uuid"

	dErrors "arho/pkg/domain-errors"
)

// ID identifies a persisted row or a code list entry. The zero value means the
// entity has not been written yet; the store assigns the value exactly once.
type ID string

// NewID returns a fresh random identifier. Only stores call this.
func NewID() ID {
	return ID(uuid.NewString())
}

// ParseID validates s as a non-nil UUID.
func ParseID(s string) (ID, error) {
	if strings.TrimSpace(s) == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "id is required")
	}
	parsed, err := uuid.Parse(s)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid id")
	}
	if parsed == uuid.Nil {
		return "", dErrors.New(dErrors.CodeInvalidInput, "id must not be nil uuid")
	}
	return ID(parsed.String()), nil
}

// IsZero reports whether the id is unset.
func (i ID) IsZero() bool { return i == "" }

func (i ID) String() string { return string(i) }

// IDSet is a membership set of identifiers.
type IDSet map[ID]struct{}

// NewIDSet builds a set from ids, skipping zero values.
func NewIDSet(ids ...ID) IDSet {
	set := make(IDSet, len(ids))
	for _, v := range ids {
		if !v.IsZero() {
			set[v] = struct{}{}
		}
	}
	return set
}

// Has reports membership.
func (s IDSet) Has(v ID) bool {
	_, ok := s[v]
	return ok
}

// Add inserts v unless it is zero.
func (s IDSet) Add(v ID) {
	if !v.IsZero() {
		s[v] = struct{}{}
	}
}
