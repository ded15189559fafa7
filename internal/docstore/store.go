// Package docstore is a small hierarchical document store: documents live in
// collections, documents may own subcollections, and collections with the same
// id can be queried across every parent at once.
package docstore

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
)

// Store is the set of primitives the rest of the service is written against.
// Implementations surface store failures unmodified and never retry.
type Store interface {
	// Get returns ErrNotFound when nothing is stored at ref.
	Get(ctx context.Context, ref *DocumentRef) (*Snapshot, error)
	// Set replaces the whole document at ref with data.
	Set(ctx context.Context, ref *DocumentRef, data any) error
	// Delete removes the document at ref. Deleting a missing document succeeds.
	Delete(ctx context.Context, ref *DocumentRef) error
	// List returns the documents directly inside coll, ordered by id.
	List(ctx context.Context, coll *CollectionRef) ([]*Snapshot, error)
	// Query returns every document whose parent collection id matches q,
	// regardless of where that collection sits in the tree, ordered by path.
	Query(ctx context.Context, q CollectionGroupQuery) ([]*Snapshot, error)
	// Batch starts an atomic write batch.
	Batch() WriteBatch
	Ping(ctx context.Context) error
}

// WriteBatch stages writes that are committed as a single unit: either every
// staged write is applied or none is.
type WriteBatch interface {
	Set(ref *DocumentRef, data any)
	Delete(ref *DocumentRef)
	Len() int
	Commit(ctx context.Context) error
}

// CollectionGroupQuery matches documents by the id of their immediate parent
// collection, across all partitions.
type CollectionGroupQuery struct {
	CollectionID string
}

// CollectionGroup builds a query over every collection named id.
func CollectionGroup(id string) CollectionGroupQuery {
	return CollectionGroupQuery{CollectionID: id}
}

// Snapshot is a document read from the store.
type Snapshot struct {
	Ref *DocumentRef
	raw bson.Raw
}

// NewSnapshot wraps raw document fields read for ref.
func NewSnapshot(ref *DocumentRef, raw bson.Raw) *Snapshot {
	return &Snapshot{Ref: ref, raw: raw}
}

// DataTo decodes the document fields into v.
func (s *Snapshot) DataTo(v any) error {
	if err := bson.Unmarshal(s.raw, v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", s.Ref.Path, err)
	}
	return nil
}

// Raw returns the encoded document fields.
func (s *Snapshot) Raw() bson.Raw {
	return s.raw
}

func encode(ref *DocumentRef, data any) (bson.Raw, error) {
	if err := ref.Validate(); err != nil {
		return nil, err
	}
	raw, err := bson.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", ref.Path, err)
	}
	return raw, nil
}

type opKind int

const (
	opSet opKind = iota
	opDelete
)

func (k opKind) String() string {
	if k == opSet {
		return "set"
	}
	return "delete"
}

type batchOp struct {
	kind opKind
	ref  *DocumentRef
	raw  bson.Raw
}

// stagedBatch collects ops and hands them to commitFn on Commit. The first
// staging error is kept and returned by Commit without touching the store.
type stagedBatch struct {
	ops       []batchOp
	err       error
	committed bool
	commitFn  func(ctx context.Context, ops []batchOp) error
}

func (b *stagedBatch) Set(ref *DocumentRef, data any) {
	raw, err := encode(ref, data)
	if err != nil {
		b.fail(err)
		return
	}
	b.ops = append(b.ops, batchOp{kind: opSet, ref: ref, raw: raw})
}

func (b *stagedBatch) Delete(ref *DocumentRef) {
	if err := ref.Validate(); err != nil {
		b.fail(err)
		return
	}
	b.ops = append(b.ops, batchOp{kind: opDelete, ref: ref})
}

func (b *stagedBatch) Len() int {
	return len(b.ops)
}

func (b *stagedBatch) Commit(ctx context.Context) error {
	if b.committed {
		return fmt.Errorf("batch already committed")
	}
	if b.err != nil {
		return fmt.Errorf("batch not committed: %w", b.err)
	}
	b.committed = true
	if len(b.ops) == 0 {
		return nil
	}
	return b.commitFn(ctx, b.ops)
}

func (b *stagedBatch) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}
