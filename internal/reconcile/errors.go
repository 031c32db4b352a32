package reconcile

import (
	"errors"
	"fmt"
	"strings"
)

// ErrClosed is returned by writes attempted after Close.
var ErrClosed = errors.New("reconcile: cache closed")

// ErrDuplicateID is returned when an optimistic create reuses an existing id.
var ErrDuplicateID = errors.New("reconcile: id already present")

// Kind names a collection.
type Kind string

// Collection kinds.
const (
	KindPerson Kind = "person"
	KindTree   Kind = "tree"
	KindPost   Kind = "post"
)

// Op names a remote operation.
type Op string

// Remote operations.
const (
	OpCreate     Op = "create"
	OpBulkUpsert Op = "bulk_upsert"
	OpList       Op = "list"
	OpUpdate     Op = "update"
	OpDelete     Op = "delete"
	OpTag        Op = "tag"
	OpUntag      Op = "untag"
)

// StoreError reports a failed remote write. For bulk writes Chunk is the
// zero-based index of the chunk that failed and Committed counts the items
// written by earlier chunks; for other operations Chunk is -1.
type StoreError struct {
	Kind      Kind
	Op        Op
	IDs       []string
	Chunk     int
	Committed int
	Err       error
}

func (e *StoreError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "reconcile: %s %s", e.Op, e.Kind)
	if len(e.IDs) == 1 {
		fmt.Fprintf(&b, " %s", e.IDs[0])
	} else if len(e.IDs) > 1 {
		fmt.Fprintf(&b, " (%d items)", len(e.IDs))
	}
	if e.Chunk >= 0 {
		fmt.Fprintf(&b, " chunk %d after %d committed", e.Chunk, e.Committed)
	}
	fmt.Fprintf(&b, ": %v", e.Err)
	return b.String()
}

func (e *StoreError) Unwrap() error { return e.Err }

// PartialTagError reports a join-table write that failed after its primary
// write. The primary entity is kept; only the tags are missing.
type PartialTagError struct {
	Relation  string
	EntityID  string
	PersonIDs []string
	Err       error
}

func (e *PartialTagError) Error() string {
	return fmt.Sprintf("reconcile: %s for %s (%d persons) not written: %v", e.Relation, e.EntityID, len(e.PersonIDs), e.Err)
}

func (e *PartialTagError) Unwrap() error { return e.Err }
