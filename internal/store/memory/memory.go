// Package memory is an in-process Store. It optionally mirrors its state to a
// json snapshot file so a single-node deployment survives restarts.
package memory

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/fekuna/omnipos-uniform-service/internal/model"
	"github.com/fekuna/omnipos-uniform-service/internal/store"
)

var _ store.Store = (*Store)(nil)

type entry struct {
	Seq int64          `json:"seq"`
	Doc store.Document `json:"doc"`
}

// snapshot is the on-disk form of the whole store.
type snapshot struct {
	Seq         int64                       `json:"seq"`
	Collections map[string]map[string]entry `json:"collections"`
}

type Store struct {
	mu           sync.RWMutex
	seq          int64
	collections  map[string]map[string]entry
	snapshotPath string
}

type Option func(*Store)

// WithSnapshot persists every mutation to path and loads it on start.
func WithSnapshot(path string) Option {
	return func(s *Store) {
		s.snapshotPath = path
	}
}

func New(opts ...Option) (*Store, error) {
	s := &Store{collections: make(map[string]map[string]entry)}
	for _, opt := range opts {
		opt(s)
	}
	snap, err := readSnapshot(s.snapshotPath)
	if err != nil {
		return nil, err
	}
	if snap != nil {
		s.seq = snap.Seq
		for name, docs := range snap.Collections {
			s.collections[name] = docs
		}
	}
	return s, nil
}

func (s *Store) Get(ctx context.Context, collection, id string) (store.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.collections[collection][id]
	if !ok {
		return nil, nil
	}
	return e.Doc.Clone(), nil
}

func (s *Store) Query(ctx context.Context, collection string, pred store.Predicate) ([]store.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	entries := make([]entry, 0, len(s.collections[collection]))
	for _, e := range s.collections[collection] {
		entries = append(entries, e)
	}
	s.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool { return entries[i].Seq < entries[j].Seq })

	docs := make([]store.Document, 0, len(entries))
	for _, e := range entries {
		if pred != nil && !pred(e.Doc) {
			continue
		}
		docs = append(docs, e.Doc.Clone())
	}
	return docs, nil
}

func (s *Store) Create(ctx context.Context, collection string, doc store.Document) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	id, prepared, err := store.PrepareCreate(doc)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	docs, ok := s.collections[collection]
	if !ok {
		docs = make(map[string]entry)
		s.collections[collection] = docs
	}
	if _, exists := docs[id]; exists {
		return "", &model.ValidationError{Field: "id", Reason: "document " + id + " already exists in " + collection}
	}
	s.seq++
	docs[id] = entry{Seq: s.seq, Doc: prepared}
	if err := s.persistLocked(); err != nil {
		delete(docs, id)
		s.seq--
		return "", err
	}
	return id, nil
}

func (s *Store) Update(ctx context.Context, collection, id string, partial store.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.collections[collection][id]
	if !ok {
		return &model.NotFoundError{Collection: collection, ID: id}
	}
	merged := e.Doc.Merge(partial)
	// the id field is owned by the store
	merged["id"] = e.Doc["id"]
	s.collections[collection][id] = entry{Seq: e.Seq, Doc: merged}
	if err := s.persistLocked(); err != nil {
		s.collections[collection][id] = e
		return err
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.collections[collection][id]
	if !ok {
		return &model.NotFoundError{Collection: collection, ID: id}
	}
	delete(s.collections[collection], id)
	if err := s.persistLocked(); err != nil {
		s.collections[collection][id] = e
		return err
	}
	return nil
}

// persistLocked writes the snapshot. Callers undo their change when it fails
// so memory never holds state the file does not.
func (s *Store) persistLocked() error {
	if s.snapshotPath == "" {
		return nil
	}
	return writeSnapshot(s.snapshotPath, snapshot{Seq: s.seq, Collections: s.collections})
}

func readSnapshot(path string) (*snapshot, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// writeSnapshot replaces the file atomically through a temp file and rename.
func writeSnapshot(path string, snap snapshot) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}
	temp := path + ".tmp"
	if err := os.WriteFile(temp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(temp, path)
}
