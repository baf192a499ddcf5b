// Package store provides the document storage abstraction the workflow core
// runs against. Backends must offer atomic field updates, in particular an
// additive array append and a numeric increment, because the engine's
// history and rate counters are written concurrently.
package store

import "context"

// Collections used by the portal.
const (
	CollectionApplications = "applications"
	CollectionApprovals    = "approvals"
	CollectionWorkflows    = "workflows"
)

// OpKind discriminates the supported atomic field operations.
type OpKind int

const (
	OpSet OpKind = iota
	OpArrayAppend
	OpIncrement
	OpUnset
)

// Op is one atomic field mutation. Field may be a dotted path.
type Op struct {
	Kind  OpKind
	Field string
	Value any
}

// Set replaces a field.
func Set(field string, value any) Op {
	return Op{Kind: OpSet, Field: field, Value: value}
}

// ArrayAppend appends a single element to an array field, creating the
// array if absent. Backends must implement this additively, not as a
// read-modify-write of the whole array.
func ArrayAppend(field string, value any) Op {
	return Op{Kind: OpArrayAppend, Field: field, Value: value}
}

// Increment adds delta to a numeric field, treating a missing field as zero.
func Increment(field string, delta float64) Op {
	return Op{Kind: OpIncrement, Field: field, Value: delta}
}

// Unset removes a field.
func Unset(field string) Op {
	return Op{Kind: OpUnset, Field: field}
}

// ListOptions filters and orders List results. Filters are top-level field
// equality checks.
type ListOptions struct {
	Filters map[string]any
	OrderBy string
	Desc    bool
}

// Store is the document database contract. Get and List decode documents
// into out via JSON semantics; Create assigns and returns the document ID.
type Store interface {
	Get(ctx context.Context, collection, id string, out any) error
	Create(ctx context.Context, collection string, doc any) (string, error)
	Update(ctx context.Context, collection, id string, ops []Op) error
	Delete(ctx context.Context, collection, id string) error
	List(ctx context.Context, collection string, opts ListOptions, out any) error

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}
