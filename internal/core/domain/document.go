package domain

import (
	"math"
	"strconv"
)

// IDField is the identifier key of every stored document.
const IDField = "_id"

// PortfolioOwnerField links a portfolio to the _id of the user owning it.
const PortfolioOwnerField = "userId"

// Document is a schemaless record as stored in a collection.
type Document map[string]any

// ID returns the document identifier normalised to a string.
// String ids are returned as-is, integral JSON numbers are formatted
// without a fraction. Anything else reports false.
func (d Document) ID() (string, bool) {
	return NormalizeID(d[IDField])
}

// Owner returns the user id a portfolio document belongs to.
func (d Document) Owner() (string, bool) {
	return NormalizeID(d[PortfolioOwnerField])
}

// Fields returns a copy of the document without its identifier.
func (d Document) Fields() Document {
	out := make(Document, len(d))
	for k, v := range d {
		if k == IDField {
			continue
		}
		out[k] = v
	}
	return out
}

// Clone returns a shallow copy of the document.
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}
	out := make(Document, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// NormalizeID converts a decoded id value into its string form.
func NormalizeID(v any) (string, bool) {
	switch id := v.(type) {
	case string:
		return id, id != ""
	case float64:
		if id != math.Trunc(id) || math.IsInf(id, 0) {
			return "", false
		}
		return strconv.FormatFloat(id, 'f', -1, 64), true
	case int:
		return strconv.Itoa(id), true
	case int32:
		return strconv.FormatInt(int64(id), 10), true
	case int64:
		return strconv.FormatInt(id, 10), true
	case interface{ Hex() string }:
		return id.Hex(), true
	default:
		return "", false
	}
}

// Profile is a user together with the portfolio linked to it.
// Portfolio is nil when the user has none.
type Profile struct {
	Result    Document `json:"result"`
	Portfolio Document `json:"portfolio"`
}
