package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/fekuna/omnipos-uniform-service/internal/model"
	"github.com/fekuna/omnipos-uniform-service/internal/store"
)

type record struct {
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	Tags  []string `json:"tags"`
	Count int      `json:"count"`
}

func mustEncode(t *testing.T, v interface{}) store.Document {
	t.Helper()
	doc, err := store.Encode(v)
	if err != nil {
		t.Fatalf("Failed to encode: %v", err)
	}
	return doc
}

func TestStore_CreateGetQuery(t *testing.T) {
	ctx := context.Background()
	s, err := New()
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	first, err := s.Create(ctx, "things", mustEncode(t, record{Name: "first"}))
	if err != nil {
		t.Fatalf("Failed to create: %v", err)
	}
	if first == "" {
		t.Fatal("Expected a generated id")
	}
	if _, err := s.Create(ctx, "things", mustEncode(t, record{ID: "fixed", Name: "second"})); err != nil {
		t.Fatalf("Failed to create: %v", err)
	}

	doc, err := s.Get(ctx, "things", first)
	if err != nil {
		t.Fatalf("Failed to get: %v", err)
	}
	var got record
	if err := store.Decode(doc, &got); err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}
	if got.ID != first || got.Name != "first" {
		t.Errorf("Expected id %s name first, got %+v", first, got)
	}

	missing, err := s.Get(ctx, "things", "nope")
	if err != nil || missing != nil {
		t.Errorf("Expected nil, nil for a missing document, got %v, %v", missing, err)
	}

	docs, err := s.Query(ctx, "things", nil)
	if err != nil {
		t.Fatalf("Failed to query: %v", err)
	}
	if len(docs) != 2 || docs[0].ID() != first || docs[1].ID() != "fixed" {
		t.Errorf("Expected creation order [%s fixed], got %v", first, docs)
	}

	filtered, err := s.Query(ctx, "things", store.FieldEquals("name", "second"))
	if err != nil {
		t.Fatalf("Failed to query: %v", err)
	}
	if len(filtered) != 1 || filtered[0].ID() != "fixed" {
		t.Errorf("Expected only the fixed document, got %v", filtered)
	}

	if _, err := s.Create(ctx, "things", mustEncode(t, record{ID: "fixed"})); err == nil {
		t.Error("Expected duplicate id to be rejected")
	}
}

func TestStore_UpdateMergesTopLevel(t *testing.T) {
	ctx := context.Background()
	s, _ := New()

	id, _ := s.Create(ctx, "things", mustEncode(t, record{Name: "a", Tags: []string{"x", "y"}, Count: 2}))

	partial, err := store.Fields(map[string]interface{}{"tags": []string{"z"}, "id": "hijack"})
	if err != nil {
		t.Fatalf("Failed to build fields: %v", err)
	}
	if err := s.Update(ctx, "things", id, partial); err != nil {
		t.Fatalf("Failed to update: %v", err)
	}

	doc, _ := s.Get(ctx, "things", id)
	var got record
	_ = store.Decode(doc, &got)
	if got.ID != id {
		t.Errorf("Expected id to stay %s, got %s", id, got.ID)
	}
	if got.Name != "a" || got.Count != 2 {
		t.Errorf("Expected untouched fields to survive, got %+v", got)
	}
	if len(got.Tags) != 1 || got.Tags[0] != "z" {
		t.Errorf("Expected nested list to be replaced wholesale, got %v", got.Tags)
	}

	var nf *model.NotFoundError
	if err := s.Update(ctx, "things", "missing", partial); !errors.As(err, &nf) {
		t.Errorf("Expected NotFoundError, got %v", err)
	}
}

func TestStore_DeleteAndReturnedCopies(t *testing.T) {
	ctx := context.Background()
	s, _ := New()
	id, _ := s.Create(ctx, "things", mustEncode(t, record{Name: "a"}))

	doc, _ := s.Get(ctx, "things", id)
	doc["name"] = []byte(`"mutated"`)
	again, _ := s.Get(ctx, "things", id)
	if again.String("name") != "a" {
		t.Errorf("Expected stored document to be isolated from callers, got %s", again.String("name"))
	}

	if err := s.Delete(ctx, "things", id); err != nil {
		t.Fatalf("Failed to delete: %v", err)
	}
	var nf *model.NotFoundError
	if err := s.Delete(ctx, "things", id); !errors.As(err, &nf) {
		t.Errorf("Expected NotFoundError on second delete, got %v", err)
	}
}

func TestStore_SnapshotRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "data", "store.json")

	s, err := New(WithSnapshot(path))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	a, _ := s.Create(ctx, "things", mustEncode(t, record{Name: "a"}))
	b, _ := s.Create(ctx, "things", mustEncode(t, record{Name: "b"}))

	reopened, err := New(WithSnapshot(path))
	if err != nil {
		t.Fatalf("Failed to reopen store: %v", err)
	}
	docs, _ := reopened.Query(ctx, "things", nil)
	if len(docs) != 2 || docs[0].ID() != a || docs[1].ID() != b {
		t.Fatalf("Expected [%s %s] after reload, got %v", a, b, docs)
	}

	c, _ := reopened.Create(ctx, "things", mustEncode(t, record{Name: "c"}))
	docs, _ = reopened.Query(ctx, "things", nil)
	if docs[2].ID() != c {
		t.Errorf("Expected new document to sort after reloaded ones, got %v", docs)
	}
}

func TestStore_SnapshotFailureLeavesStateUnchanged(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "store.json")

	s, err := New(WithSnapshot(path))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	id, err := s.Create(ctx, "things", mustEncode(t, record{Name: "kept"}))
	if err != nil {
		t.Fatalf("Failed to create document: %v", err)
	}

	// a directory where the temp file should go makes every snapshot write fail
	if err := os.Mkdir(path+".tmp", 0o755); err != nil {
		t.Fatalf("Failed to block snapshot: %v", err)
	}

	newID, err := s.Create(ctx, "things", mustEncode(t, record{Name: "lost"}))
	if err == nil || newID != "" {
		t.Errorf("Expected failed create with no id, got %q, %v", newID, err)
	}
	docs, _ := s.Query(ctx, "things", nil)
	if len(docs) != 1 {
		t.Errorf("Expected failed create to be rolled back, got %d documents", len(docs))
	}

	partial, _ := store.Fields(map[string]interface{}{"name": "changed"})
	if err := s.Update(ctx, "things", id, partial); err == nil {
		t.Error("Expected update to fail")
	}
	doc, _ := s.Get(ctx, "things", id)
	if doc.String("name") != "kept" {
		t.Errorf("Expected failed update to be rolled back, got %q", doc.String("name"))
	}

	if err := s.Delete(ctx, "things", id); err == nil {
		t.Error("Expected delete to fail")
	}
	if doc, _ := s.Get(ctx, "things", id); doc == nil {
		t.Error("Expected failed delete to be rolled back")
	}
}
