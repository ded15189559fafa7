package database

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// MongoDB wraps the MongoDB client and database
type MongoDB struct {
	client   *mongo.Client
	database *mongo.Database
	dbName   string
}

// CollectionDocuments holds every document of the hierarchical store, keyed by path.
const CollectionDocuments = "documents"

const defaultDBName = "tripvault"

// NewMongoDB creates a new MongoDB connection with connection pooling.
// The handle is meant to be created once at startup and shared.
func NewMongoDB(uri string) (*MongoDB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	clientOptions := options.Client().
		ApplyURI(uri).
		SetMaxPoolSize(50).
		SetMinPoolSize(5).
		SetMaxConnIdleTime(30 * time.Second).
		SetServerSelectionTimeout(5 * time.Second).
		SetConnectTimeout(10 * time.Second)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	dbName := extractDBName(uri)

	db := &MongoDB{
		client:   client,
		database: client.Database(dbName),
		dbName:   dbName,
	}

	log.Printf("✅ Connected to MongoDB database: %s", dbName)

	return db, nil
}

// extractDBName returns the database named in the URI path, or the default.
// mongodb://localhost:27017/tripvault?authSource=admin -> tripvault
func extractDBName(uri string) string {
	rest := uri
	if idx := strings.Index(rest, "://"); idx >= 0 {
		rest = rest[idx+3:]
	}
	if idx := strings.Index(rest, "?"); idx >= 0 {
		rest = rest[:idx]
	}
	idx := strings.Index(rest, "/")
	if idx < 0 || idx == len(rest)-1 {
		return defaultDBName
	}
	return rest[idx+1:]
}

// Initialize creates the indexes used by path listing and collection group queries
func (m *MongoDB) Initialize(ctx context.Context) error {
	log.Println("📦 Initializing MongoDB indexes...")

	if err := m.createIndexes(ctx, CollectionDocuments, []mongo.IndexModel{
		{Keys: bson.D{{Key: "parentPath", Value: 1}, {Key: "docId", Value: 1}}}, // List a collection
		{Keys: bson.D{{Key: "collectionId", Value: 1}, {Key: "_id", Value: 1}}}, // Collection group query
	}); err != nil {
		return fmt.Errorf("failed to create documents indexes: %w", err)
	}

	log.Println("✅ MongoDB indexes initialized successfully")
	return nil
}

func (m *MongoDB) createIndexes(ctx context.Context, collectionName string, indexes []mongo.IndexModel) error {
	_, err := m.database.Collection(collectionName).Indexes().CreateMany(ctx, indexes)
	return err
}

// Collection returns a collection handle
func (m *MongoDB) Collection(name string) *mongo.Collection {
	return m.database.Collection(name)
}

// Name returns the database name in use
func (m *MongoDB) Name() string {
	return m.dbName
}

// Close closes the MongoDB connection
func (m *MongoDB) Close(ctx context.Context) error {
	log.Println("🔌 Closing MongoDB connection...")
	return m.client.Disconnect(ctx)
}

// Ping checks if the database connection is alive
func (m *MongoDB) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, readpref.Primary())
}

// WithTransaction executes fn within a multi-document transaction. Requires a
// replica set or sharded cluster. The transaction is attempted once; a failed
// fn or commit aborts it and the error is returned to the caller.
func (m *MongoDB) WithTransaction(ctx context.Context, fn func(sessCtx mongo.SessionContext) error) error {
	session, err := m.client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(context.Background())

	return mongo.WithSession(ctx, session, func(sessCtx mongo.SessionContext) error {
		if err := sessCtx.StartTransaction(); err != nil {
			return fmt.Errorf("failed to start transaction: %w", err)
		}
		if err := fn(sessCtx); err != nil {
			abortCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if abortErr := sessCtx.AbortTransaction(abortCtx); abortErr != nil {
				log.Printf("⚠️ Failed to abort transaction: %v", abortErr)
			}
			return err
		}
		return sessCtx.CommitTransaction(sessCtx)
	})
}
