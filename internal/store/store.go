// Package store defines the document collection contract the domain packages
// persist through. Implementations guarantee single-document atomicity only.
package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

const (
	CollectionBatches  = "batches"
	CollectionProducts = "products"
	CollectionSchools  = "schools"
)

// Document is a json object keyed by its top-level fields. Nested values are
// opaque to the store and are replaced wholesale by Update.
type Document map[string]json.RawMessage

// Predicate filters documents in Query. A nil Predicate matches everything.
type Predicate func(Document) bool

type Store interface {
	// Get returns nil, nil when the document does not exist.
	Get(ctx context.Context, collection, id string) (Document, error)
	// Query returns matching documents in creation order.
	Query(ctx context.Context, collection string, pred Predicate) ([]Document, error)
	// Create stores doc under its "id" field, generating one when absent, and returns the id.
	Create(ctx context.Context, collection string, doc Document) (string, error)
	// Update merges partial into the top level of the stored document.
	Update(ctx context.Context, collection, id string, partial Document) error
	Delete(ctx context.Context, collection, id string) error
}

// Encode turns a record into a Document through its json form.
func Encode(v interface{}) (Document, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return doc, nil
}

// Decode fills v from doc.
func Decode(doc Document, v interface{}) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("decode document: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode document: %w", err)
	}
	return nil
}

// Fields builds a partial Document for Update from name/value pairs.
func Fields(kv map[string]interface{}) (Document, error) {
	doc := make(Document, len(kv))
	for k, v := range kv {
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encode field %s: %w", k, err)
		}
		doc[k] = raw
	}
	return doc, nil
}

// ID reads the string "id" field, returning "" when missing or not a string.
func (d Document) ID() string {
	return d.String("id")
}

// String reads a top-level string field, returning "" when missing or not a string.
func (d Document) String(field string) string {
	raw, ok := d[field]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

// Clone copies the top-level map and every raw value.
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}
	out := make(Document, len(d))
	for k, v := range d {
		out[k] = append(json.RawMessage(nil), v...)
	}
	return out
}

// Merge applies partial on top of d and returns the result; d is left untouched.
func (d Document) Merge(partial Document) Document {
	out := d.Clone()
	if out == nil {
		out = make(Document, len(partial))
	}
	for k, v := range partial {
		out[k] = append(json.RawMessage(nil), v...)
	}
	return out
}

// FieldEquals matches documents whose string field equals value.
func FieldEquals(field, value string) Predicate {
	return func(d Document) bool {
		return d.String(field) == value
	}
}

// PrepareCreate fixes the id of a document about to be created.
func PrepareCreate(doc Document) (string, Document, error) {
	id := doc.ID()
	if id == "" {
		id = uuid.New().String()
	}
	out := doc.Clone()
	if out == nil {
		out = Document{}
	}
	raw, err := json.Marshal(id)
	if err != nil {
		return "", nil, err
	}
	out["id"] = raw
	return id, out, nil
}
