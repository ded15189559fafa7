package docstore

import (
	"fmt"
	"strings"
)

// CollectionRef points at a collection. Root collections have a nil Parent.
type CollectionRef struct {
	ID     string
	Path   string
	Parent *DocumentRef
}

// DocumentRef points at a single document inside a collection.
type DocumentRef struct {
	ID     string
	Path   string
	Parent *CollectionRef
}

// Collection returns a reference to a root-level collection.
func Collection(id string) *CollectionRef {
	return &CollectionRef{ID: id, Path: id}
}

// Doc returns a reference to the document with the given id in c.
func (c *CollectionRef) Doc(id string) *DocumentRef {
	return &DocumentRef{ID: id, Path: c.Path + "/" + id, Parent: c}
}

// Collection returns a reference to a subcollection of d.
func (d *DocumentRef) Collection(id string) *CollectionRef {
	return &CollectionRef{ID: id, Path: d.Path + "/" + id, Parent: d}
}

// Validate checks every id on the way up to the root.
func (c *CollectionRef) Validate() error {
	if err := validateID(c.ID); err != nil {
		return err
	}
	if c.Parent != nil {
		return c.Parent.Validate()
	}
	return nil
}

// Validate checks every id on the way up to the root.
func (d *DocumentRef) Validate() error {
	if err := validateID(d.ID); err != nil {
		return err
	}
	if d.Parent == nil {
		return fmt.Errorf("%w: document %q has no collection", ErrInvalidPath, d.Path)
	}
	return d.Parent.Validate()
}

// Owner returns the document that owns d's collection, or nil for documents
// stored in a root collection.
func (d *DocumentRef) Owner() *DocumentRef {
	if d.Parent == nil {
		return nil
	}
	return d.Parent.Parent
}

func (d *DocumentRef) String() string   { return d.Path }
func (c *CollectionRef) String() string { return c.Path }

func validateID(id string) error {
	if id == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidPath)
	}
	if strings.Contains(id, "/") {
		return fmt.Errorf("%w: id %q contains '/'", ErrInvalidPath, id)
	}
	return nil
}

// ParseDocumentPath rebuilds a DocumentRef from a slash separated path with an
// even number of segments, e.g. "users/alice/itineraries/trip1".
func ParseDocumentPath(path string) (*DocumentRef, error) {
	segments := strings.Split(path, "/")
	if len(segments) < 2 || len(segments)%2 != 0 {
		return nil, fmt.Errorf("%w: %q is not a document path", ErrInvalidPath, path)
	}
	for _, s := range segments {
		if s == "" {
			return nil, fmt.Errorf("%w: %q has an empty segment", ErrInvalidPath, path)
		}
	}

	coll := Collection(segments[0])
	doc := coll.Doc(segments[1])
	for i := 2; i < len(segments); i += 2 {
		coll = doc.Collection(segments[i])
		doc = coll.Doc(segments[i+1])
	}
	return doc, nil
}

// ParseCollectionPath rebuilds a CollectionRef from a slash separated path with
// an odd number of segments, e.g. "users/alice/itineraries".
func ParseCollectionPath(path string) (*CollectionRef, error) {
	idx := strings.LastIndex(path, "/")
	if idx < 0 {
		if err := validateID(path); err != nil {
			return nil, err
		}
		return Collection(path), nil
	}
	parent, err := ParseDocumentPath(path[:idx])
	if err != nil {
		return nil, fmt.Errorf("%w: %q is not a collection path", ErrInvalidPath, path)
	}
	id := path[idx+1:]
	if err := validateID(id); err != nil {
		return nil, err
	}
	return parent.Collection(id), nil
}
