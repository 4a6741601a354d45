package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestNormalizeID(t *testing.T) {
	oid := primitive.NewObjectID()

	tests := []struct {
		name   string
		in     any
		want   string
		wantOK bool
	}{
		{"string", "12345", "12345", true},
		{"empty string", "", "", false},
		{"integral number", float64(12345), "12345", true},
		{"fractional number", 1.5, "", false},
		{"int64", int64(7), "7", true},
		{"object id", oid, oid.Hex(), true},
		{"missing", nil, "", false},
		{"bool", true, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NormalizeID(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDocument_IDFromJSON(t *testing.T) {
	var doc Document
	require.NoError(t, json.Unmarshal([]byte(`{"_id": 67890, "name": "growth"}`), &doc))

	id, ok := doc.ID()
	require.True(t, ok)
	assert.Equal(t, "67890", id)
}

func TestDocument_FieldsDropsID(t *testing.T) {
	doc := Document{"_id": "12345", "name": "Ada", "city": "London"}

	fields := doc.Fields()

	assert.Equal(t, Document{"name": "Ada", "city": "London"}, fields)
	assert.Contains(t, doc, "_id", "source document must be left untouched")
}

func TestDocument_Owner(t *testing.T) {
	owner, ok := Document{"_id": "p1", "userId": "12345"}.Owner()
	assert.True(t, ok)
	assert.Equal(t, "12345", owner)

	_, ok = Document{"_id": "p1"}.Owner()
	assert.False(t, ok)
}
