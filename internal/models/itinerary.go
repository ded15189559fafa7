package models

import (
	"encoding/json"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// DayRecord is one day of an itinerary. Only the editor interprets it; the
// service stores and returns it byte for byte.
type DayRecord = json.RawMessage

// FileExtension is appended to itinerary ids for display and stripped from
// caller supplied file names.
const FileExtension = ".json"

// FileNameFor returns the display file name of an itinerary id
func FileNameFor(id string) string {
	return id + FileExtension
}

// ItineraryMetadata holds optional display information
type ItineraryMetadata struct {
	Title string `bson:"title,omitempty" json:"title,omitempty"`
}

// TimestampLayout is the format of updatedAt: UTC, millisecond precision.
// Values sort lexicographically in time order.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// ItineraryDocument is the shape written to users/{username}/itineraries/{fileId}.
type ItineraryDocument struct {
	Data      []string           `bson:"data"`                // One JSON encoded DayRecord per entry
	UpdatedAt string             `bson:"updatedAt,omitempty"` // RFC 3339, assigned on every write
	Metadata  *ItineraryMetadata `bson:"metadata,omitempty"`
}

// ItineraryHeader is the part of a stored itinerary the admin view reads.
// Fields are kept raw so documents written by older clients, with dates or
// differently shaped metadata, still decode. The day records are never read.
type ItineraryHeader struct {
	RawUpdatedAt bson.RawValue `bson:"updatedAt"`
	RawMetadata  bson.RawValue `bson:"metadata"`
}

// UpdatedAt returns updatedAt as a TimestampLayout string, or "" when it is
// missing or of an unknown type.
func (h *ItineraryHeader) UpdatedAt() string {
	if s, ok := h.RawUpdatedAt.StringValueOK(); ok {
		return s
	}
	if ms, ok := h.RawUpdatedAt.DateTimeOK(); ok {
		return time.UnixMilli(ms).UTC().Format(TimestampLayout)
	}
	return ""
}

// Title returns metadata.title, falling back to the given id
func (h *ItineraryHeader) Title(fallback string) string {
	meta, ok := h.RawMetadata.DocumentOK()
	if !ok {
		return fallback
	}
	if title, ok := meta.Lookup("title").StringValueOK(); ok && title != "" {
		return title
	}
	return fallback
}

// StoredItinerary is a stored itinerary as read back. Day records may be JSON
// strings, as this service writes them, or native documents from older clients.
type StoredItinerary struct {
	ItineraryHeader `bson:",inline"`
	RawData         bson.RawValue `bson:"data"`
}

// Days returns the day records in stored order. A missing data field is an
// empty itinerary.
func (d *StoredItinerary) Days() ([]DayRecord, error) {
	days := make([]DayRecord, 0)
	if d.RawData.Type == 0 || d.RawData.Type == bsontype.Null {
		return days, nil
	}
	arr, ok := d.RawData.ArrayOK()
	if !ok {
		return nil, fmt.Errorf("data is a %s, not an array", d.RawData.Type)
	}
	values, err := arr.Values()
	if err != nil {
		return nil, err
	}
	for i, v := range values {
		day, err := dayRecord(v)
		if err != nil {
			return nil, fmt.Errorf("day %d: %w", i, err)
		}
		days = append(days, day)
	}
	return days, nil
}

func dayRecord(v bson.RawValue) (DayRecord, error) {
	if s, ok := v.StringValueOK(); ok {
		if json.Valid([]byte(s)) {
			return DayRecord(s), nil
		}
		return json.Marshal(s)
	}

	// Relaxed extended JSON renders plain numbers, strings and nested values
	// as ordinary JSON.
	ext, err := bson.MarshalExtJSON(bson.D{{Key: "v", Value: v}}, false, false)
	if err != nil {
		return nil, err
	}
	var wrapper struct {
		V json.RawMessage `json:"v"`
	}
	if err := json.Unmarshal(ext, &wrapper); err != nil {
		return nil, err
	}
	return DayRecord(wrapper.V), nil
}

// Itinerary is a decoded itinerary document
type Itinerary struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Title     string      `json:"title"`
	UpdatedAt string      `json:"updatedAt,omitempty"`
	Data      []DayRecord `json:"data"`
}

// FileEntry describes one itinerary in a user's file listing
type FileEntry struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ListFilesResponse is returned when the editor opens a user's folder
type ListFilesResponse struct {
	UserFolderID string      `json:"userFolderId"`
	Files        []FileEntry `json:"files"`
}

// SaveItineraryRequest is the editor's save payload. ExistingFileID, when set,
// wins over FileName.
type SaveItineraryRequest struct {
	Data           []DayRecord `json:"data"`
	FileName       string      `json:"fileName"`
	ExistingFileID string      `json:"existingFileId,omitempty"`
	Title          string      `json:"title,omitempty"`
}

// SaveItineraryResponse carries the id the itinerary was stored under
type SaveItineraryResponse struct {
	FileID string `json:"fileId"`
}
