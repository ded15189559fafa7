package docstore

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type storeMetrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

// instrumentedStore records a counter and a latency histogram for every call
// made against the wrapped store.
type instrumentedStore struct {
	next    Store
	metrics *storeMetrics
}

// Instrument wraps next so that every operation is reported to reg.
func Instrument(next Store, reg prometheus.Registerer) Store {
	factory := promauto.With(reg)
	return &instrumentedStore{
		next: next,
		metrics: &storeMetrics{
			operations: factory.NewCounterVec(prometheus.CounterOpts{
				Name: "tripvault_store_operations_total",
				Help: "Total number of document store operations by type and result",
			}, []string{"op", "result"}),
			duration: factory.NewHistogramVec(prometheus.HistogramOpts{
				Name:    "tripvault_store_operation_duration_seconds",
				Help:    "Document store operation latency in seconds",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			}, []string{"op"}),
		},
	}
}

func (m *storeMetrics) observe(op string, start time.Time, err error) {
	m.duration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	m.operations.WithLabelValues(op, resultLabel(err)).Inc()
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrUnavailable):
		return "unavailable"
	default:
		return "error"
	}
}

func (s *instrumentedStore) Get(ctx context.Context, ref *DocumentRef) (*Snapshot, error) {
	start := time.Now()
	snap, err := s.next.Get(ctx, ref)
	s.metrics.observe(OpGet, start, err)
	return snap, err
}

func (s *instrumentedStore) Set(ctx context.Context, ref *DocumentRef, data any) error {
	start := time.Now()
	err := s.next.Set(ctx, ref, data)
	s.metrics.observe(OpSet, start, err)
	return err
}

func (s *instrumentedStore) Delete(ctx context.Context, ref *DocumentRef) error {
	start := time.Now()
	err := s.next.Delete(ctx, ref)
	s.metrics.observe(OpDelete, start, err)
	return err
}

func (s *instrumentedStore) List(ctx context.Context, coll *CollectionRef) ([]*Snapshot, error) {
	start := time.Now()
	snaps, err := s.next.List(ctx, coll)
	s.metrics.observe(OpList, start, err)
	return snaps, err
}

func (s *instrumentedStore) Query(ctx context.Context, q CollectionGroupQuery) ([]*Snapshot, error) {
	start := time.Now()
	snaps, err := s.next.Query(ctx, q)
	s.metrics.observe(OpQuery, start, err)
	return snaps, err
}

func (s *instrumentedStore) Batch() WriteBatch {
	return &instrumentedBatch{WriteBatch: s.next.Batch(), metrics: s.metrics}
}

func (s *instrumentedStore) Ping(ctx context.Context) error {
	start := time.Now()
	err := s.next.Ping(ctx)
	s.metrics.observe(OpPing, start, err)
	return err
}

type instrumentedBatch struct {
	WriteBatch
	metrics *storeMetrics
}

func (b *instrumentedBatch) Commit(ctx context.Context) error {
	start := time.Now()
	err := b.WriteBatch.Commit(ctx)
	b.metrics.observe(OpCommit, start, err)
	return err
}
