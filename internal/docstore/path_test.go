package docstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRefBuilders(t *testing.T) {
	doc := Collection("users").Doc("alice").Collection("itineraries").Doc("trip1")

	assert.Equal(t, "users/alice/itineraries/trip1", doc.Path)
	assert.Equal(t, "trip1", doc.ID)
	assert.Equal(t, "itineraries", doc.Parent.ID)
	assert.Equal(t, "users/alice/itineraries", doc.Parent.Path)
	require.NotNil(t, doc.Owner())
	assert.Equal(t, "alice", doc.Owner().ID)
	assert.Nil(t, Collection("users").Doc("alice").Owner())
}

func TestParseDocumentPath(t *testing.T) {
	doc, err := ParseDocumentPath("users/alice/itineraries/trip1")
	require.NoError(t, err)
	assert.Equal(t, "trip1", doc.ID)
	assert.Equal(t, "alice", doc.Owner().ID)
	assert.Equal(t, "users", doc.Owner().Parent.ID)

	for _, bad := range []string{"", "users", "users/alice/itineraries", "users//x/y", "/users/alice"} {
		_, err := ParseDocumentPath(bad)
		assert.ErrorIs(t, err, ErrInvalidPath, bad)
	}
}

func TestParseCollectionPath(t *testing.T) {
	coll, err := ParseCollectionPath("users/alice/itineraries")
	require.NoError(t, err)
	assert.Equal(t, "itineraries", coll.ID)
	assert.Equal(t, "alice", coll.Parent.ID)

	root, err := ParseCollectionPath("users")
	require.NoError(t, err)
	assert.Nil(t, root.Parent)

	_, err = ParseCollectionPath("users/alice")
	assert.ErrorIs(t, err, ErrInvalidPath)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Collection("users").Doc("Alice Smith").Validate())
	assert.ErrorIs(t, Collection("users").Doc("").Validate(), ErrInvalidPath)
	assert.ErrorIs(t, Collection("users").Doc("a/b").Validate(), ErrInvalidPath)
	assert.ErrorIs(t, Collection("").Doc("a").Validate(), ErrInvalidPath)
	assert.ErrorIs(t, (&DocumentRef{ID: "orphan", Path: "orphan"}).Validate(), ErrInvalidPath)
}
