package docstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
)

// Operation names accepted by MemoryStore.FailOn.
const (
	OpGet    = "get"
	OpSet    = "set"
	OpDelete = "delete"
	OpList   = "list"
	OpQuery  = "query"
	OpCommit = "commit"
	OpPing   = "ping"
)

type memoryEntry struct {
	ref *DocumentRef
	raw bson.Raw
}

// MemoryStore keeps documents in process. Every write goes through the same
// BSON encoding as MongoStore so both behave identically for callers.
type MemoryStore struct {
	mu        sync.RWMutex
	docs      map[string]memoryEntry
	faults    map[string]error
	failAfter int
	failErr   error
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs:   make(map[string]memoryEntry),
		faults: make(map[string]error),
	}
}

// FailOn makes every call of op return err until ClearFaults is called.
func (m *MemoryStore) FailOn(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.faults[op] = err
}

// FailCommitAfter makes the next batch commit fail after n of its operations
// were applied. The applied operations are rolled back. The fault is consumed
// by that commit even when it has n or fewer operations.
func (m *MemoryStore) FailCommitAfter(n int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failAfter = n
	m.failErr = err
}

// ClearFaults removes all injected failures.
func (m *MemoryStore) ClearFaults() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.faults = make(map[string]error)
	m.failErr = nil
	m.failAfter = 0
}

// Len returns the number of stored documents.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.docs)
}

func (m *MemoryStore) fault(op string) error {
	if err, ok := m.faults[op]; ok {
		return err
	}
	return nil
}

func (m *MemoryStore) Get(ctx context.Context, ref *DocumentRef) (*Snapshot, error) {
	if err := ref.Validate(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.fault(OpGet); err != nil {
		return nil, err
	}

	entry, ok := m.docs[ref.Path]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, ref.Path)
	}
	return NewSnapshot(entry.ref, entry.raw), nil
}

func (m *MemoryStore) Set(ctx context.Context, ref *DocumentRef, data any) error {
	raw, err := encode(ref, data)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fault(OpSet); err != nil {
		return err
	}

	m.docs[ref.Path] = memoryEntry{ref: ref, raw: raw}
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, ref *DocumentRef) error {
	if err := ref.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fault(OpDelete); err != nil {
		return err
	}

	delete(m.docs, ref.Path)
	return nil
}

func (m *MemoryStore) List(ctx context.Context, coll *CollectionRef) ([]*Snapshot, error) {
	if err := coll.Validate(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.fault(OpList); err != nil {
		return nil, err
	}

	var snaps []*Snapshot
	for _, entry := range m.docs {
		if entry.ref.Parent.Path == coll.Path {
			snaps = append(snaps, NewSnapshot(entry.ref, entry.raw))
		}
	}
	sort.Slice(snaps, func(i, j int) bool { return snaps[i].Ref.ID < snaps[j].Ref.ID })
	return snaps, nil
}

func (m *MemoryStore) Query(ctx context.Context, q CollectionGroupQuery) ([]*Snapshot, error) {
	if err := validateID(q.CollectionID); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.fault(OpQuery); err != nil {
		return nil, err
	}

	var snaps []*Snapshot
	for _, entry := range m.docs {
		if entry.ref.Parent.ID == q.CollectionID {
			snaps = append(snaps, NewSnapshot(entry.ref, entry.raw))
		}
	}
	sort.Slice(snaps, func(i, j int) bool { return snaps[i].Ref.Path < snaps[j].Ref.Path })
	return snaps, nil
}

func (m *MemoryStore) Batch() WriteBatch {
	return &stagedBatch{commitFn: m.commit}
}

// commit applies ops to a copy of the document map and only swaps it in once
// every op succeeded.
func (m *MemoryStore) commit(ctx context.Context, ops []batchOp) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fault(OpCommit); err != nil {
		return err
	}

	failErr, failAfter := m.failErr, m.failAfter
	m.failErr, m.failAfter = nil, 0

	next := make(map[string]memoryEntry, len(m.docs))
	for k, v := range m.docs {
		next[k] = v
	}

	for i, op := range ops {
		if failErr != nil && i == failAfter {
			return fmt.Errorf("commit aborted at %s %s: %w", op.kind, op.ref.Path, failErr)
		}
		switch op.kind {
		case opSet:
			next[op.ref.Path] = memoryEntry{ref: op.ref, raw: op.raw}
		case opDelete:
			delete(next, op.ref.Path)
		}
	}

	m.docs = next
	return nil
}

func (m *MemoryStore) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.fault(OpPing)
}
