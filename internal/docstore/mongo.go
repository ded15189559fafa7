package docstore

import (
	"context"
	"errors"
	"fmt"

	"tripvault/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// mongoDocument is the on-disk shape of one store document. The path is the
// primary key; the parent fields back List and Query without parsing paths.
type mongoDocument struct {
	Path         string   `bson:"_id"`
	DocID        string   `bson:"docId"`
	CollectionID string   `bson:"collectionId"`
	ParentPath   string   `bson:"parentPath"`
	ParentDocID  string   `bson:"parentDocId,omitempty"`
	Fields       bson.Raw `bson:"fields"`
}

func newMongoDocument(ref *DocumentRef, raw bson.Raw) mongoDocument {
	doc := mongoDocument{
		Path:         ref.Path,
		DocID:        ref.ID,
		CollectionID: ref.Parent.ID,
		ParentPath:   ref.Parent.Path,
		Fields:       raw,
	}
	if owner := ref.Owner(); owner != nil {
		doc.ParentDocID = owner.ID
	}
	return doc
}

// MongoStore implements Store on a single MongoDB collection.
type MongoStore struct {
	db         *database.MongoDB
	collection *mongo.Collection
}

// NewMongoStore creates a store backed by the documents collection of db.
func NewMongoStore(db *database.MongoDB) *MongoStore {
	return &MongoStore{
		db:         db,
		collection: db.Collection(database.CollectionDocuments),
	}
}

func (s *MongoStore) Get(ctx context.Context, ref *DocumentRef) (*Snapshot, error) {
	if err := ref.Validate(); err != nil {
		return nil, err
	}

	var doc mongoDocument
	err := s.collection.FindOne(ctx, bson.M{"_id": ref.Path}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, ref.Path)
	}
	if err != nil {
		return nil, classify(fmt.Errorf("failed to get %s: %w", ref.Path, err))
	}
	return NewSnapshot(ref, doc.Fields), nil
}

func (s *MongoStore) Set(ctx context.Context, ref *DocumentRef, data any) error {
	raw, err := encode(ref, data)
	if err != nil {
		return err
	}
	if err := s.replace(ctx, ref, raw); err != nil {
		return classify(fmt.Errorf("failed to set %s: %w", ref.Path, err))
	}
	return nil
}

func (s *MongoStore) replace(ctx context.Context, ref *DocumentRef, raw bson.Raw) error {
	_, err := s.collection.ReplaceOne(ctx,
		bson.M{"_id": ref.Path},
		newMongoDocument(ref, raw),
		options.Replace().SetUpsert(true),
	)
	return err
}

func (s *MongoStore) Delete(ctx context.Context, ref *DocumentRef) error {
	if err := ref.Validate(); err != nil {
		return err
	}
	if _, err := s.collection.DeleteOne(ctx, bson.M{"_id": ref.Path}); err != nil {
		return classify(fmt.Errorf("failed to delete %s: %w", ref.Path, err))
	}
	return nil
}

func (s *MongoStore) List(ctx context.Context, coll *CollectionRef) ([]*Snapshot, error) {
	if err := coll.Validate(); err != nil {
		return nil, err
	}
	opts := options.Find().SetSort(bson.D{{Key: "docId", Value: 1}})
	snaps, err := s.find(ctx, bson.M{"parentPath": coll.Path}, opts)
	if err != nil {
		return nil, classify(fmt.Errorf("failed to list %s: %w", coll.Path, err))
	}
	return snaps, nil
}

func (s *MongoStore) Query(ctx context.Context, q CollectionGroupQuery) ([]*Snapshot, error) {
	if err := validateID(q.CollectionID); err != nil {
		return nil, err
	}
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	snaps, err := s.find(ctx, bson.M{"collectionId": q.CollectionID}, opts)
	if err != nil {
		return nil, classify(fmt.Errorf("failed to query collection group %s: %w", q.CollectionID, err))
	}
	return snaps, nil
}

func (s *MongoStore) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*Snapshot, error) {
	cursor, err := s.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var snaps []*Snapshot
	for cursor.Next(ctx) {
		var doc mongoDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		ref, err := ParseDocumentPath(doc.Path)
		if err != nil {
			return nil, err
		}
		snaps = append(snaps, NewSnapshot(ref, doc.Fields))
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return snaps, nil
}

func (s *MongoStore) Batch() WriteBatch {
	return &stagedBatch{commitFn: s.commit}
}

// commit runs every op inside one transaction so the batch is all or nothing.
func (s *MongoStore) commit(ctx context.Context, ops []batchOp) error {
	err := s.db.WithTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		for _, op := range ops {
			var err error
			switch op.kind {
			case opSet:
				err = s.replace(sessCtx, op.ref, op.raw)
			case opDelete:
				_, err = s.collection.DeleteOne(sessCtx, bson.M{"_id": op.ref.Path})
			}
			if err != nil {
				return fmt.Errorf("%s %s: %w", op.kind, op.ref.Path, err)
			}
		}
		return nil
	})
	if err != nil {
		return classify(fmt.Errorf("failed to commit batch of %d: %w", len(ops), err))
	}
	return nil
}

func (s *MongoStore) Ping(ctx context.Context) error {
	if err := s.db.Ping(ctx); err != nil {
		return classify(err)
	}
	return nil
}

// classify tags connectivity failures with ErrUnavailable, keeping the cause.
func classify(err error) error {
	if mongo.IsNetworkError(err) || mongo.IsTimeout(err) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return err
}
