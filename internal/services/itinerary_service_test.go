package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"tripvault/internal/docstore"
	"tripvault/internal/models"

	"go.mongodb.org/mongo-driver/bson"
)

func fixedClock(ts string) func() time.Time {
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		panic(err)
	}
	return func() time.Time { return t }
}

func newTestItineraryService(t *testing.T) (*ItineraryService, *docstore.MemoryStore) {
	t.Helper()
	store := docstore.NewMemoryStore()
	svc := NewItineraryService(store)
	svc.now = fixedClock("2024-06-01T12:00:00Z")
	return svc, store
}

func sampleDays() []models.DayRecord {
	return []models.DayRecord{
		models.DayRecord(`{"day":1,"city":"Kyoto","spots":[{"name":"Fushimi Inari","time":"08:00"}]}`),
		models.DayRecord(`{"day":2,"city":"Nara","notes":null,"budget":12000.5}`),
	}
}

func TestResolveFileID(t *testing.T) {
	tests := []struct {
		fileName string
		existing string
		want     string
		wantErr  bool
	}{
		{"trip1.json", "", "trip1", false},
		{"trip1", "", "trip1", false},
		{"my.json.backup.json", "", "my.json.backup", false},
		{"trip1.json", "abc", "abc", false},
		{"", "abc", "abc", false},
		{".json", "", "", true},
		{"", "", "", true},
	}

	for _, tt := range tests {
		got, err := ResolveFileID(tt.fileName, tt.existing)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidFileID) {
				t.Errorf("ResolveFileID(%q, %q) expected ErrInvalidFileID, got %v", tt.fileName, tt.existing, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ResolveFileID(%q, %q) = %q, %v; want %q", tt.fileName, tt.existing, got, err, tt.want)
		}
	}
}

func TestItineraryService_SaveLoadRoundTrip(t *testing.T) {
	svc, _ := newTestItineraryService(t)
	ctx := context.Background()
	days := sampleDays()

	id, err := svc.Save(ctx, "alice", days, "trip1.json", "")
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if id != "trip1" {
		t.Fatalf("Expected id trip1, got %s", id)
	}

	loaded, err := svc.Load(ctx, "alice", id)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(loaded) != len(days) {
		t.Fatalf("Expected %d days, got %d", len(days), len(loaded))
	}
	for i := range days {
		if string(loaded[i]) != string(days[i]) {
			t.Errorf("Day %d changed: got %s, want %s", i, loaded[i], days[i])
		}
	}
}

func TestItineraryService_SaveStampsUpdatedAt(t *testing.T) {
	svc, _ := newTestItineraryService(t)
	ctx := context.Background()

	if _, err := svc.SaveItinerary(ctx, "alice", &models.SaveItineraryRequest{
		Data:     sampleDays(),
		FileName: "trip1.json",
		Title:    "Kansai week",
	}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	it, err := svc.Get(ctx, "alice", "trip1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if it.UpdatedAt != "2024-06-01T12:00:00.000Z" {
		t.Errorf("Unexpected updatedAt %s", it.UpdatedAt)
	}
	if it.Title != "Kansai week" || it.Name != "trip1.json" {
		t.Errorf("Unexpected title/name %q/%q", it.Title, it.Name)
	}
}

func TestItineraryService_SaveWithExistingIDOverwrites(t *testing.T) {
	svc, _ := newTestItineraryService(t)
	ctx := context.Background()

	id, err := svc.SaveItinerary(ctx, "alice", &models.SaveItineraryRequest{
		Data: sampleDays(), FileName: "trip1.json", Title: "First",
	})
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	replacement := []models.DayRecord{models.DayRecord(`{"day":1,"city":"Osaka"}`)}
	for i := 0; i < 2; i++ {
		got, err := svc.Save(ctx, "alice", replacement, "renamed.json", id)
		if err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		if got != id {
			t.Fatalf("Expected id %s to be reused, got %s", id, got)
		}
	}

	files, err := svc.ListFiles(ctx, "alice")
	if err != nil {
		t.Fatalf("ListFiles failed: %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("Expected 1 file after overwrites, got %d", len(files))
	}

	it, err := svc.Get(ctx, "alice", id)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if len(it.Data) != 1 || string(it.Data[0]) != `{"day":1,"city":"Osaka"}` {
		t.Errorf("Document was not replaced: %s", it.Data)
	}
	// Full replace drops the earlier title
	if it.Title != id {
		t.Errorf("Expected title to fall back to id, got %q", it.Title)
	}
}

func TestItineraryService_ListFiles(t *testing.T) {
	svc, _ := newTestItineraryService(t)
	ctx := context.Background()

	for _, name := range []string{"b.json", "a.json"} {
		if _, err := svc.Save(ctx, "alice", sampleDays(), name, ""); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
	}
	if _, err := svc.Save(ctx, "Alice", sampleDays(), "c.json", ""); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	files, err := svc.ListFiles(ctx, "alice")
	if err != nil {
		t.Fatalf("ListFiles failed: %v", err)
	}
	want := []models.FileEntry{{ID: "a", Name: "a.json"}, {ID: "b", Name: "b.json"}}
	if len(files) != len(want) {
		t.Fatalf("Expected %d files, got %+v", len(want), files)
	}
	for i := range want {
		if files[i] != want[i] {
			t.Errorf("File %d = %+v, want %+v", i, files[i], want[i])
		}
	}

	empty, err := svc.ListFiles(ctx, "nobody")
	if err != nil {
		t.Fatalf("ListFiles failed: %v", err)
	}
	if empty == nil || len(empty) != 0 {
		t.Errorf("Expected empty non-nil listing, got %#v", empty)
	}
}

func TestItineraryService_LoadMissing(t *testing.T) {
	svc, _ := newTestItineraryService(t)

	_, err := svc.Load(context.Background(), "alice", "nope")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestItineraryService_DeleteScenario(t *testing.T) {
	svc, _ := newTestItineraryService(t)
	ctx := context.Background()

	id, err := svc.Save(ctx, "alice", sampleDays(), "trip1.json", "")
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := svc.Delete(ctx, "alice", id); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := svc.Load(ctx, "alice", id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Expected ErrNotFound after delete, got %v", err)
	}

	// Deleting again, or deleting something that never existed, is not an error
	if err := svc.Delete(ctx, "alice", id); err != nil {
		t.Errorf("Repeated delete failed: %v", err)
	}
	if err := svc.Delete(ctx, "ghost", "never"); err != nil {
		t.Errorf("Delete of missing itinerary failed: %v", err)
	}
}

func TestItineraryService_InvalidInput(t *testing.T) {
	svc, _ := newTestItineraryService(t)
	ctx := context.Background()

	if _, err := svc.ListFiles(ctx, ""); !errors.Is(err, ErrInvalidUsername) {
		t.Errorf("Expected ErrInvalidUsername for empty username, got %v", err)
	}
	if _, err := svc.Save(ctx, "a/b", sampleDays(), "x.json", ""); !errors.Is(err, ErrInvalidUsername) {
		t.Errorf("Expected ErrInvalidUsername for slash, got %v", err)
	}
	if _, err := svc.Save(ctx, "alice", sampleDays(), "dir/x.json", ""); !errors.Is(err, ErrInvalidFileID) {
		t.Errorf("Expected ErrInvalidFileID, got %v", err)
	}
	bad := []models.DayRecord{json.RawMessage(`{"day":`)}
	if _, err := svc.Save(ctx, "alice", bad, "x.json", ""); !errors.Is(err, ErrInvalidPayload) {
		t.Errorf("Expected ErrInvalidPayload, got %v", err)
	}
}

func TestItineraryService_StoreFailuresPropagate(t *testing.T) {
	svc, store := newTestItineraryService(t)
	ctx := context.Background()
	fault := errors.Join(docstore.ErrUnavailable, errors.New("connection refused"))

	store.FailOn(docstore.OpSet, fault)
	if _, err := svc.Save(ctx, "alice", sampleDays(), "x.json", ""); !errors.Is(err, ErrStoreUnavailable) {
		t.Errorf("Expected ErrStoreUnavailable from Save, got %v", err)
	}

	store.FailOn(docstore.OpDelete, fault)
	if err := svc.Delete(ctx, "alice", "x"); !errors.Is(err, ErrStoreUnavailable) {
		t.Errorf("Expected ErrStoreUnavailable from Delete, got %v", err)
	}
}

func TestItineraryService_EmptyData(t *testing.T) {
	svc, _ := newTestItineraryService(t)
	ctx := context.Background()

	if _, err := svc.Save(ctx, "alice", nil, "empty.json", ""); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	days, err := svc.Load(ctx, "alice", "empty")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if days == nil || len(days) != 0 {
		t.Errorf("Expected empty non-nil data, got %#v", days)
	}
}

func TestItineraryService_GetOlderDocumentShapes(t *testing.T) {
	svc, store := newTestItineraryService(t)
	ctx := context.Background()

	ref, err := ItineraryRef("bob", "native")
	if err != nil {
		t.Fatalf("Bad ref: %v", err)
	}
	if err := store.Set(ctx, ref, bson.D{
		{Key: "data", Value: bson.A{
			bson.D{{Key: "day", Value: 1}, {Key: "city", Value: "Kyoto"}},
			`{"day":2}`,
			"free day",
		}},
		{Key: "updatedAt", Value: time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)},
	}); err != nil {
		t.Fatalf("Seed failed: %v", err)
	}

	it, err := svc.Get(ctx, "bob", "native")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if len(it.Data) != 3 {
		t.Fatalf("Expected 3 days, got %d", len(it.Data))
	}

	var first map[string]interface{}
	if err := json.Unmarshal(it.Data[0], &first); err != nil {
		t.Fatalf("Native day is not JSON: %v (%s)", err, it.Data[0])
	}
	if first["city"] != "Kyoto" || first["day"] != float64(1) {
		t.Errorf("Unexpected native day %s", it.Data[0])
	}
	if string(it.Data[1]) != `{"day":2}` {
		t.Errorf("String encoded day changed: %s", it.Data[1])
	}
	if string(it.Data[2]) != `"free day"` {
		t.Errorf("Expected plain string quoted as JSON, got %s", it.Data[2])
	}
	if it.UpdatedAt != "2024-03-01T08:00:00.000Z" {
		t.Errorf("Unexpected updatedAt %s", it.UpdatedAt)
	}
	if it.Title != "native" {
		t.Errorf("Expected id as title, got %s", it.Title)
	}
}

func TestItineraryService_GetRejectsNonArrayData(t *testing.T) {
	svc, store := newTestItineraryService(t)
	ctx := context.Background()

	ref, err := ItineraryRef("bob", "flat")
	if err != nil {
		t.Fatalf("Bad ref: %v", err)
	}
	if err := store.Set(ctx, ref, bson.D{{Key: "data", Value: "not a list"}}); err != nil {
		t.Fatalf("Seed failed: %v", err)
	}
	if _, err := svc.Get(ctx, "bob", "flat"); err == nil {
		t.Fatal("Expected error for non array data")
	}
}
