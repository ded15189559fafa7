package docstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"tripvault/internal/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestMongoStore needs a replica set, since batches run in transactions.
func newTestMongoStore(t *testing.T) *MongoStore {
	t.Helper()
	uri := os.Getenv("MONGODB_TEST_URI")
	if uri == "" {
		t.Skip("MONGODB_TEST_URI not set")
	}

	db, err := database.NewMongoDB(uri)
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = db.Collection(database.CollectionDocuments).Drop(ctx)
		_ = db.Close(ctx)
	})
	require.NoError(t, db.Initialize(context.Background()))
	return NewMongoStore(db)
}

func TestMongoStore_Integration(t *testing.T) {
	store := newTestMongoStore(t)
	ctx := context.Background()
	user := fmt.Sprintf("it-%d", time.Now().UnixNano())

	require.NoError(t, store.Set(ctx, itineraryRef(user, "a"), testDoc{Name: "a"}))
	require.NoError(t, store.Set(ctx, itineraryRef(user, "b"), testDoc{Name: "b"}))
	require.NoError(t, store.Set(ctx, Collection("users").Doc(user), testDoc{Name: "placeholder"}))

	snap, err := store.Get(ctx, itineraryRef(user, "a"))
	require.NoError(t, err)
	var got testDoc
	require.NoError(t, snap.DataTo(&got))
	assert.Equal(t, "a", got.Name)

	listed, err := store.List(ctx, itineraryRef(user, "a").Parent)
	require.NoError(t, err)
	assert.Len(t, listed, 2)

	grouped, err := store.Query(ctx, CollectionGroup("itineraries"))
	require.NoError(t, err)
	found := 0
	for _, s := range grouped {
		if s.Ref.Owner() != nil && s.Ref.Owner().ID == user {
			found++
		}
	}
	assert.Equal(t, 2, found)

	batch := store.Batch()
	batch.Delete(itineraryRef(user, "a"))
	batch.Delete(itineraryRef(user, "b"))
	require.NoError(t, batch.Commit(ctx))

	_, err = store.Get(ctx, itineraryRef(user, "a"))
	assert.True(t, errors.Is(err, ErrNotFound))
	require.NoError(t, store.Delete(ctx, itineraryRef(user, "a")))
}
