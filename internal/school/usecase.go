package school

import (
	"context"

	"github.com/fekuna/omnipos-uniform-service/internal/model"
	"github.com/fekuna/omnipos-uniform-service/internal/school/dto"
)

type UseCase interface {
	CreateSchool(ctx context.Context, input *dto.CreateSchoolInput) (*model.School, error)
	GetSchool(ctx context.Context, id string) (*model.School, error)
	ListSchools(ctx context.Context, forceRefresh bool) ([]model.School, error)
	UpdateSchool(ctx context.Context, input *dto.UpdateSchoolInput) (*model.School, error)
	// DeleteSchool removes the school together with its students and requirements.
	DeleteSchool(ctx context.Context, id string) error

	// Requirements. Every edit re-seeds the fulfillment maps of affected students.
	SetRequirements(ctx context.Context, input *dto.SetRequirementsInput) (*model.School, error)
	AddRequirement(ctx context.Context, input *dto.AddRequirementInput) (*model.School, error)
	RemoveRequirement(ctx context.Context, input *dto.RemoveRequirementInput) (*model.School, error)
	UpdateRequirement(ctx context.Context, input *dto.UpdateRequirementInput) (*model.School, error)

	// Students
	AddStudent(ctx context.Context, input *dto.AddStudentInput) (*model.Student, error)
	UpdateStudent(ctx context.Context, input *dto.UpdateStudentInput) (*model.Student, error)
	RemoveStudent(ctx context.Context, ref *dto.StudentRef) error
	SetStudentStatus(ctx context.Context, input *dto.SetStudentStatusInput) (*model.Student, error)
	AdjustStudentQuantity(ctx context.Context, input *dto.AdjustStudentQuantityInput) (*model.Student, error)

	Summary(ctx context.Context, schoolID string) (*dto.SchoolSummary, error)
}

// UniformNamer resolves a uniform id to its display name.
type UniformNamer interface {
	UniformName(ctx context.Context, id string) (string, bool)
}
