package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/fekuna/omnipos-uniform-service/internal/model"
	"github.com/fekuna/omnipos-uniform-service/internal/requirement"
	"github.com/fekuna/omnipos-uniform-service/internal/school"
	"github.com/fekuna/omnipos-uniform-service/internal/school/dto"
	"github.com/fekuna/omnipos-uniform-service/internal/school/repository"
	"github.com/fekuna/omnipos-uniform-service/internal/store/memory"
	"github.com/fekuna/omnipos-uniform-service/pkg/logger"
)

type namer map[string]string

func (n namer) UniformName(_ context.Context, id string) (string, bool) {
	name, ok := n[id]
	return name, ok
}

func newUseCase(t *testing.T) school.UseCase {
	t.Helper()
	s, _ := memory.New()
	return NewSchoolUseCase(
		repository.NewDocumentRepository(s, logger.NewNop()),
		namer{"u1": "Shirt", "u2": "Shorts", "u3": "Skirt"},
		logger.NewNop(),
	)
}

func seedSchool(t *testing.T, uc school.UseCase) *model.School {
	t.Helper()
	sc, err := uc.CreateSchool(context.Background(), &dto.CreateSchoolInput{
		Name: "Hillside",
		UniformRequirements: json.RawMessage(`{"JUNIOR":{"BOYS":[{"uniformId":"u1","item":"Shirt","quantityPerStudent":2}],
			"GIRLS":[{"uniformId":"u3","item":"Skirt","quantityPerStudent":1}]}}`),
	})
	if err != nil {
		t.Fatalf("Failed to create school: %v", err)
	}
	return sc
}

func TestSchoolUseCase_CreateAndUpdate(t *testing.T) {
	ctx := context.Background()
	uc := newUseCase(t)

	if _, err := uc.CreateSchool(ctx, &dto.CreateSchoolInput{Name: " "}); err == nil {
		t.Error("Expected validation error for blank name")
	}

	sc := seedSchool(t, uc)
	if len(sc.UniformRequirements.Junior.Boys) != 1 || sc.UniformRequirements.Senior.Boys == nil {
		t.Errorf("Expected normalized requirements, got %+v", sc.UniformRequirements)
	}

	addr := "1 Hill Rd"
	updated, err := uc.UpdateSchool(ctx, &dto.UpdateSchoolInput{ID: sc.ID, Address: &addr})
	if err != nil {
		t.Fatalf("Failed to update school: %v", err)
	}
	if updated.Address != addr || updated.Name != "Hillside" {
		t.Errorf("Unexpected school: %+v", updated)
	}

	_, err = uc.UpdateSchool(ctx, &dto.UpdateSchoolInput{ID: "missing", Address: &addr})
	var nf *model.NotFoundError
	if !errors.As(err, &nf) {
		t.Errorf("Expected NotFoundError, got %v", err)
	}

	list, _ := uc.ListSchools(ctx, false)
	if len(list) != 1 {
		t.Errorf("Expected one school, got %d", len(list))
	}
	if err := uc.DeleteSchool(ctx, sc.ID); err != nil {
		t.Fatalf("Failed to delete school: %v", err)
	}
	if _, err := uc.GetSchool(ctx, sc.ID); !errors.As(err, &nf) {
		t.Errorf("Expected NotFoundError after delete, got %v", err)
	}
}

func TestSchoolUseCase_StudentLifecycle(t *testing.T) {
	ctx := context.Background()
	uc := newUseCase(t)
	sc := seedSchool(t, uc)
	shirtID := sc.UniformRequirements.Junior.Boys[0].ID
	skirtID := sc.UniformRequirements.Junior.Girls[0].ID

	st, err := uc.AddStudent(ctx, &dto.AddStudentInput{SchoolID: sc.ID, Name: "Ben", Level: "junior", Gender: "boys"})
	if err != nil {
		t.Fatalf("Failed to add student: %v", err)
	}
	if st.Gender != model.StudentMale || st.Level != model.LevelJunior {
		t.Errorf("Expected coerced level and gender, got %+v", st)
	}
	if st.UniformStatus[shirtID] != model.StatusPending || st.UniformQuantities[shirtID] != 2 || st.UniformStatus[skirtID] != model.StatusPending {
		t.Errorf("Expected both genders seeded, got %v %v", st.UniformStatus, st.UniformQuantities)
	}

	st, err = uc.SetStudentStatus(ctx, &dto.SetStudentStatusInput{SchoolID: sc.ID, StudentID: st.ID, ItemID: shirtID, Status: model.StatusCompleted})
	if err != nil || st.UniformStatus[shirtID] != model.StatusCompleted {
		t.Fatalf("Expected completed, got %v, %v", st, err)
	}
	st, err = uc.AdjustStudentQuantity(ctx, &dto.AdjustStudentQuantityInput{SchoolID: sc.ID, StudentID: st.ID, ItemID: shirtID, Delta: -5})
	if err != nil || st.UniformQuantities[shirtID] != 1 {
		t.Fatalf("Expected quantity clamped to 1, got %v, %v", st, err)
	}

	_, err = uc.SetStudentStatus(ctx, &dto.SetStudentStatusInput{SchoolID: sc.ID, StudentID: st.ID, ItemID: shirtID, Status: "lost"})
	var verr *model.ValidationError
	if !errors.As(err, &verr) {
		t.Errorf("Expected ValidationError, got %v", err)
	}
	_, err = uc.SetStudentStatus(ctx, &dto.SetStudentStatusInput{SchoolID: sc.ID, StudentID: "ghost", ItemID: shirtID, Status: model.StatusOrdered})
	var nf *model.NotFoundError
	if !errors.As(err, &nf) {
		t.Errorf("Expected NotFoundError for unknown student, got %v", err)
	}

	senior := "SENIOR"
	st, err = uc.UpdateStudent(ctx, &dto.UpdateStudentInput{SchoolID: sc.ID, StudentID: st.ID, Level: &senior})
	if err != nil {
		t.Fatalf("Failed to change level: %v", err)
	}
	if st.Level != model.LevelSenior || len(st.UniformStatus) != 0 {
		t.Errorf("Expected re-initialized for senior with no items, got %+v", st)
	}

	if err := uc.RemoveStudent(ctx, &dto.StudentRef{SchoolID: sc.ID, StudentID: st.ID}); err != nil {
		t.Fatalf("Failed to remove student: %v", err)
	}
	got, _ := uc.GetSchool(ctx, sc.ID)
	if len(got.Students) != 0 {
		t.Errorf("Expected no students, got %d", len(got.Students))
	}
}

func TestSchoolUseCase_RequirementEditsReseedStudents(t *testing.T) {
	ctx := context.Background()
	uc := newUseCase(t)
	sc := seedSchool(t, uc)
	shirtID := sc.UniformRequirements.Junior.Boys[0].ID

	st, _ := uc.AddStudent(ctx, &dto.AddStudentInput{SchoolID: sc.ID, Name: "Ben", Level: "JUNIOR", Gender: "MALE"})
	_, _ = uc.SetStudentStatus(ctx, &dto.SetStudentStatusInput{SchoolID: sc.ID, StudentID: st.ID, ItemID: shirtID, Status: model.StatusOrdered})

	sc, err := uc.AddRequirement(ctx, &dto.AddRequirementInput{
		SchoolID: sc.ID, Level: "JUNIOR", Gender: "BOYS", UniformID: "u2", Item: "old name", QuantityPerStudent: 3,
	})
	if err != nil {
		t.Fatalf("Failed to add requirement: %v", err)
	}
	shorts := sc.UniformRequirements.Junior.Boys[1]
	if shorts.Item != "Shorts" || !shorts.Required {
		t.Errorf("Expected display name from lookup and required default, got %+v", shorts)
	}
	ben := sc.Students[0]
	if ben.UniformStatus[shorts.ID] != model.StatusPending || ben.UniformQuantities[shorts.ID] != 3 {
		t.Errorf("Expected new item seeded on student, got %v %v", ben.UniformStatus, ben.UniformQuantities)
	}
	if ben.UniformStatus[shirtID] != model.StatusOrdered {
		t.Errorf("Expected existing status kept, got %s", ben.UniformStatus[shirtID])
	}

	sc, err = uc.RemoveRequirement(ctx, &dto.RemoveRequirementInput{SchoolID: sc.ID, Level: "JUNIOR", Gender: "BOYS", Index: 0})
	if err != nil {
		t.Fatalf("Failed to remove requirement: %v", err)
	}
	if _, ok := sc.Students[0].UniformStatus[shirtID]; ok {
		t.Error("Expected removed item dropped from student")
	}

	uid := "u1"
	sc, err = uc.UpdateRequirement(ctx, &dto.UpdateRequirementInput{
		SchoolID: sc.ID, Level: "JUNIOR", Gender: "BOYS", Index: 0, Patch: requirement.ItemPatch{UniformID: &uid},
	})
	if err != nil {
		t.Fatalf("Failed to update requirement: %v", err)
	}
	if sc.UniformRequirements.Junior.Boys[0].Item != "Shirt" {
		t.Errorf("Expected display name re-derived, got %q", sc.UniformRequirements.Junior.Boys[0].Item)
	}

	_, err = uc.RemoveRequirement(ctx, &dto.RemoveRequirementInput{SchoolID: sc.ID, Level: "SENIOR", Gender: "GIRLS", Index: 0})
	var oor *model.IndexOutOfRangeError
	if !errors.As(err, &oor) {
		t.Errorf("Expected IndexOutOfRangeError, got %v", err)
	}

	sc, err = uc.SetRequirements(ctx, &dto.SetRequirementsInput{SchoolID: sc.ID, UniformRequirements: json.RawMessage(`{}`)})
	if err != nil {
		t.Fatalf("Failed to replace requirements: %v", err)
	}
	if len(sc.Students[0].UniformStatus) != 0 {
		t.Errorf("Expected student maps emptied with the requirements, got %v", sc.Students[0].UniformStatus)
	}
}

func TestSchoolUseCase_Summary(t *testing.T) {
	ctx := context.Background()
	uc := newUseCase(t)
	sc := seedSchool(t, uc)
	_, _ = uc.AddStudent(ctx, &dto.AddStudentInput{SchoolID: sc.ID, Name: "Ben", Level: "JUNIOR", Gender: "MALE"})
	_, _ = uc.AddStudent(ctx, &dto.AddStudentInput{SchoolID: sc.ID, Name: "Ana", Level: "JUNIOR", Gender: "FEMALE"})

	sum, err := uc.Summary(ctx, sc.ID)
	if err != nil {
		t.Fatalf("Failed to summarize: %v", err)
	}
	if sum.StudentCount != 2 {
		t.Errorf("Expected 2 students, got %d", sum.StudentCount)
	}
	if sum.RequirementCounts[model.LevelJunior][model.GenderBoys].Required != 1 {
		t.Errorf("Unexpected requirement counts: %v", sum.RequirementCounts)
	}
	if sum.StatusCounts[model.StatusPending] != 4 {
		t.Errorf("Expected 4 pending entries, got %d", sum.StatusCounts[model.StatusPending])
	}
}
