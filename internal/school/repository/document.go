package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/fekuna/omnipos-uniform-service/internal/fulfillment"
	"github.com/fekuna/omnipos-uniform-service/internal/model"
	"github.com/fekuna/omnipos-uniform-service/internal/requirement"
	"github.com/fekuna/omnipos-uniform-service/internal/store"
	"github.com/fekuna/omnipos-uniform-service/pkg/logger"
	"go.uber.org/zap"
)

// DocumentRepository stores schools in the "schools" collection. Documents in
// an older shape are normalized when read and written back in the current one.
type DocumentRepository struct {
	store  store.Store
	logger logger.ZapLogger

	mu     sync.Mutex
	cached []model.School
	valid  bool
	// gen is bumped by Invalidate so a read that overlaps a write is not cached.
	gen uint64
}

func NewDocumentRepository(s store.Store, log logger.ZapLogger) *DocumentRepository {
	return &DocumentRepository{store: s, logger: log}
}

// storedSchool mirrors model.School but keeps the requirement tree raw so any
// stored shape can be decoded.
type storedSchool struct {
	ID                  string          `json:"id"`
	Name                string          `json:"name"`
	Address             string          `json:"address"`
	Contact             string          `json:"contact"`
	UniformRequirements json.RawMessage `json:"uniformRequirements"`
	Students            []model.Student `json:"students"`
	CreatedAt           time.Time       `json:"createdAt"`
}

func (r *DocumentRepository) Fetch(ctx context.Context, forceRefresh bool) ([]model.School, error) {
	r.mu.Lock()
	if r.valid && !forceRefresh {
		out := cloneAll(r.cached)
		r.mu.Unlock()
		return out, nil
	}
	gen := r.gen
	r.mu.Unlock()

	docs, err := r.store.Query(ctx, store.CollectionSchools, nil)
	if err != nil {
		return nil, fmt.Errorf("query schools: %w", err)
	}

	schools := make([]model.School, 0, len(docs))
	for _, doc := range docs {
		s, err := r.decode(ctx, doc)
		if err != nil {
			r.logger.Warn("skipping malformed school document", zap.String("school_id", doc.ID()), zap.Error(err))
			continue
		}
		schools = append(schools, *s)
	}

	r.mu.Lock()
	if r.gen == gen {
		r.cached = schools
		r.valid = true
	}
	r.mu.Unlock()

	return cloneAll(schools), nil
}

func (r *DocumentRepository) FindByID(ctx context.Context, id string) (*model.School, error) {
	doc, err := r.store.Get(ctx, store.CollectionSchools, id)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, nil
	}
	return r.decode(ctx, doc)
}

// decode normalizes the requirement tree and student maps of doc. When that
// changes anything the current shape is written back, so generated item ids
// stay stable across reads.
func (r *DocumentRepository) decode(ctx context.Context, doc store.Document) (*model.School, error) {
	var raw storedSchool
	if err := store.Decode(doc, &raw); err != nil {
		return nil, err
	}

	s := &model.School{
		ID:                  raw.ID,
		Name:                raw.Name,
		Address:             raw.Address,
		Contact:             raw.Contact,
		UniformRequirements: requirement.Normalize(json.RawMessage(raw.UniformRequirements)),
		Students:            raw.Students,
		CreatedAt:           raw.CreatedAt,
	}
	if s.Students == nil {
		s.Students = []model.Student{}
	}

	migrated := false
	for i := range s.Students {
		st := &s.Students[i]
		f := fulfillment.Of(*st)
		level, err := requirement.ParseLevel(string(st.Level))
		if err != nil {
			f.Apply(st)
			continue
		}
		st.Level = level
		if fulfillment.HasLegacyKeys(f) {
			f = fulfillment.MigrateLegacyKeys(s.UniformRequirements, level, f)
			migrated = true
		}
		f.Apply(st)
	}

	if migrated || !sameJSON(raw.UniformRequirements, s.UniformRequirements) {
		if err := r.writeBack(ctx, s); err != nil {
			r.logger.Warn("failed to persist normalized school", zap.String("school_id", s.ID), zap.Error(err))
		} else {
			r.logger.Info("normalized stored school", zap.String("school_id", s.ID), zap.Bool("students_migrated", migrated))
		}
	}
	return s, nil
}

func (r *DocumentRepository) writeBack(ctx context.Context, s *model.School) error {
	partial, err := store.Fields(map[string]interface{}{
		"uniformRequirements": s.UniformRequirements,
		"students":            s.Students,
	})
	if err != nil {
		return err
	}
	return r.store.Update(ctx, store.CollectionSchools, s.ID, partial)
}

// sameJSON reports whether stored decodes to the same json value as v encodes to.
func sameJSON(stored json.RawMessage, v interface{}) bool {
	encoded, err := json.Marshal(v)
	if err != nil {
		return false
	}
	var a, b interface{}
	if err := json.Unmarshal(stored, &a); err != nil {
		return false
	}
	if err := json.Unmarshal(encoded, &b); err != nil {
		return false
	}
	return reflect.DeepEqual(a, b)
}

func (r *DocumentRepository) Create(ctx context.Context, s *model.School) error {
	doc, err := store.Encode(s)
	if err != nil {
		return err
	}
	id, err := r.store.Create(ctx, store.CollectionSchools, doc)
	if err != nil {
		return fmt.Errorf("create school: %w", err)
	}
	s.ID = id
	r.Invalidate()
	return nil
}

func (r *DocumentRepository) Update(ctx context.Context, s *model.School) error {
	partial, err := store.Fields(map[string]interface{}{
		"name":                s.Name,
		"address":             s.Address,
		"contact":             s.Contact,
		"uniformRequirements": s.UniformRequirements,
		"students":            s.Students,
	})
	if err != nil {
		return err
	}
	defer r.Invalidate()
	return r.store.Update(ctx, store.CollectionSchools, s.ID, partial)
}

func (r *DocumentRepository) Delete(ctx context.Context, id string) error {
	defer r.Invalidate()
	return r.store.Delete(ctx, store.CollectionSchools, id)
}

func (r *DocumentRepository) Invalidate() {
	r.mu.Lock()
	r.valid = false
	r.cached = nil
	r.gen++
	r.mu.Unlock()
}

func cloneAll(schools []model.School) []model.School {
	out := make([]model.School, len(schools))
	for i, s := range schools {
		out[i] = clone(s)
	}
	return out
}

func clone(s model.School) model.School {
	out := s
	out.UniformRequirements = s.UniformRequirements.Clone()
	out.Students = make([]model.Student, len(s.Students))
	for i, st := range s.Students {
		fulfillment.Of(st).Apply(&st)
		out.Students[i] = st
	}
	return out
}
