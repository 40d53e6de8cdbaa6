package repository

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/fekuna/omnipos-uniform-service/internal/model"
	"github.com/fekuna/omnipos-uniform-service/internal/store"
	"github.com/fekuna/omnipos-uniform-service/internal/store/memory"
	"github.com/fekuna/omnipos-uniform-service/pkg/logger"
)

func legacyDocument(t *testing.T) store.Document {
	t.Helper()
	doc, err := store.Fields(map[string]interface{}{
		"id":   "school-1",
		"name": "Hillside",
		"uniformRequirements": json.RawMessage(`{
			"junior": {
				"boys": [{"uniformId": "u1", "item": "Shirt", "quantityPerStudent": "2"}, {"uniformId": "u2", "item": "Shorts"}],
				"girls": [{"uniformId": "u3", "item": "Skirt", "required": false}]
			}
		}`),
		"students": json.RawMessage(`[
			{"id": "st-1", "name": "Ana", "level": "junior", "gender": "FEMALE",
			 "uniformStatus": {"GIRLS-0": "ordered", "BOYS-9": "completed"},
			 "uniformQuantities": {"GIRLS-0": 3}},
			{"id": "st-2", "name": "Ben", "level": "JUNIOR", "gender": "MALE"}
		]`),
	})
	if err != nil {
		t.Fatalf("Failed to build document: %v", err)
	}
	return doc
}

func TestDocumentRepository_NormalizesLegacySchool(t *testing.T) {
	ctx := context.Background()
	s, _ := memory.New()
	if _, err := s.Create(ctx, store.CollectionSchools, legacyDocument(t)); err != nil {
		t.Fatalf("Failed to seed school: %v", err)
	}
	repo := NewDocumentRepository(s, logger.NewNop())

	sc, err := repo.FindByID(ctx, "school-1")
	if err != nil || sc == nil {
		t.Fatalf("Expected school, got %v, %v", sc, err)
	}

	boys := sc.UniformRequirements.Junior.Boys
	if len(boys) != 2 || boys[0].QuantityPerStudent != 2 || boys[1].QuantityPerStudent != 1 || !boys[1].Required {
		t.Errorf("Unexpected normalized boys list: %+v", boys)
	}
	if sc.UniformRequirements.Senior.Girls == nil {
		t.Error("Expected missing lists defaulted to empty")
	}

	skirtID := sc.UniformRequirements.Junior.Girls[0].ID
	ana := sc.Students[0]
	if ana.Level != model.LevelJunior {
		t.Errorf("Expected level coerced to JUNIOR, got %s", ana.Level)
	}
	if ana.UniformStatus[skirtID] != model.StatusOrdered || ana.UniformQuantities[skirtID] != 3 {
		t.Errorf("Expected GIRLS-0 migrated to the skirt id, got %v %v", ana.UniformStatus, ana.UniformQuantities)
	}
	if len(ana.UniformStatus) != 1 {
		t.Errorf("Expected stale legacy key dropped, got %v", ana.UniformStatus)
	}
	if sc.Students[1].UniformStatus == nil {
		t.Error("Expected nil student maps replaced with empty maps")
	}

	// generated ids are written back, so a second read sees the same ids
	again, _ := repo.FindByID(ctx, "school-1")
	if again.UniformRequirements.Junior.Girls[0].ID != skirtID {
		t.Errorf("Expected stable item id %s, got %s", skirtID, again.UniformRequirements.Junior.Girls[0].ID)
	}
	if again.Students[0].UniformStatus[skirtID] != model.StatusOrdered {
		t.Error("Expected migrated student keys to persist")
	}
}

func TestDocumentRepository_CRUDAndCache(t *testing.T) {
	ctx := context.Background()
	s, _ := memory.New()
	repo := NewDocumentRepository(s, logger.NewNop())

	sc := &model.School{Name: "Riverside", Students: []model.Student{}}
	if err := repo.Create(ctx, sc); err != nil {
		t.Fatalf("Failed to create school: %v", err)
	}

	all, err := repo.Fetch(ctx, false)
	if err != nil || len(all) != 1 {
		t.Fatalf("Expected one school, got %v, %v", all, err)
	}

	all[0].Name = "mutated copy"
	cached, _ := repo.Fetch(ctx, false)
	if cached[0].Name != "Riverside" {
		t.Error("Expected Fetch to hand out copies")
	}

	sc.Address = "1 River Rd"
	if err := repo.Update(ctx, sc); err != nil {
		t.Fatalf("Failed to update school: %v", err)
	}
	updated, _ := repo.Fetch(ctx, false)
	if updated[0].Address != "1 River Rd" {
		t.Errorf("Expected update to invalidate cache, got %q", updated[0].Address)
	}

	if err := repo.Delete(ctx, sc.ID); err != nil {
		t.Fatalf("Failed to delete school: %v", err)
	}
	gone, _ := repo.FindByID(ctx, sc.ID)
	if gone != nil {
		t.Error("Expected school to be gone")
	}
	empty, _ := repo.Fetch(ctx, false)
	if len(empty) != 0 {
		t.Errorf("Expected empty list after delete, got %d", len(empty))
	}
}

// racingStore runs afterQuery once the underlying query has returned, standing
// in for a write that lands while Fetch is decoding.
type racingStore struct {
	store.Store
	afterQuery func()
}

func (s *racingStore) Query(ctx context.Context, collection string, pred store.Predicate) ([]store.Document, error) {
	docs, err := s.Store.Query(ctx, collection, pred)
	if s.afterQuery != nil {
		hook := s.afterQuery
		s.afterQuery = nil
		hook()
	}
	return docs, err
}

func TestDocumentRepository_InvalidateDuringFetch(t *testing.T) {
	ctx := context.Background()
	mem, _ := memory.New()
	rs := &racingStore{Store: mem}
	repo := NewDocumentRepository(rs, logger.NewNop())

	rs.afterQuery = func() {
		doc, _ := store.Encode(model.School{Name: "Late School"})
		_, _ = mem.Create(ctx, store.CollectionSchools, doc)
		repo.Invalidate()
	}
	stale, err := repo.Fetch(ctx, false)
	if err != nil {
		t.Fatalf("Failed to fetch: %v", err)
	}
	if len(stale) != 0 {
		t.Fatalf("Expected the racing read to see 0 schools, got %d", len(stale))
	}

	fresh, _ := repo.Fetch(ctx, false)
	if len(fresh) != 1 {
		t.Errorf("Expected the overlapped read not to be cached, got %d schools", len(fresh))
	}
}
