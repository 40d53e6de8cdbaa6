package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/fekuna/omnipos-uniform-service/internal/analytics"
	"github.com/fekuna/omnipos-uniform-service/internal/fulfillment"
	"github.com/fekuna/omnipos-uniform-service/internal/model"
	"github.com/fekuna/omnipos-uniform-service/internal/requirement"
	"github.com/fekuna/omnipos-uniform-service/internal/school"
	"github.com/fekuna/omnipos-uniform-service/internal/school/dto"
	"github.com/fekuna/omnipos-uniform-service/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type schoolUseCase struct {
	repo   school.Repository
	namer  school.UniformNamer
	logger logger.ZapLogger
	now    func() time.Time
}

// NewSchoolUseCase wires school management. namer may be nil, in which case
// requirement items keep the display name they were given.
func NewSchoolUseCase(repo school.Repository, namer school.UniformNamer, log logger.ZapLogger) school.UseCase {
	return &schoolUseCase{
		repo:   repo,
		namer:  namer,
		logger: log,
		now:    time.Now,
	}
}

func (uc *schoolUseCase) CreateSchool(ctx context.Context, input *dto.CreateSchoolInput) (*model.School, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, &model.ValidationError{Field: "name", Reason: "must not be empty"}
	}

	var raw interface{}
	if len(input.UniformRequirements) > 0 {
		raw = input.UniformRequirements
	}

	s := &model.School{
		Name:                name,
		Address:             strings.TrimSpace(input.Address),
		Contact:             strings.TrimSpace(input.Contact),
		UniformRequirements: requirement.Normalize(raw),
		Students:            []model.Student{},
		CreatedAt:           uc.now().UTC(),
	}
	if err := uc.repo.Create(ctx, s); err != nil {
		return nil, err
	}

	uc.logger.Info("school created", zap.String("school_id", s.ID), zap.String("name", s.Name))
	return s, nil
}

func (uc *schoolUseCase) GetSchool(ctx context.Context, id string) (*model.School, error) {
	s, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, &model.NotFoundError{Collection: "schools", ID: id}
	}
	return s, nil
}

func (uc *schoolUseCase) ListSchools(ctx context.Context, forceRefresh bool) ([]model.School, error) {
	return uc.repo.Fetch(ctx, forceRefresh)
}

func (uc *schoolUseCase) UpdateSchool(ctx context.Context, input *dto.UpdateSchoolInput) (*model.School, error) {
	return uc.mutate(ctx, input.ID, func(s *model.School) error {
		if input.Name != nil {
			name := strings.TrimSpace(*input.Name)
			if name == "" {
				return &model.ValidationError{Field: "name", Reason: "must not be empty"}
			}
			s.Name = name
		}
		if input.Address != nil {
			s.Address = strings.TrimSpace(*input.Address)
		}
		if input.Contact != nil {
			s.Contact = strings.TrimSpace(*input.Contact)
		}
		return nil
	})
}

func (uc *schoolUseCase) DeleteSchool(ctx context.Context, id string) error {
	if err := uc.repo.Delete(ctx, id); err != nil {
		return err
	}
	uc.logger.Info("school deleted", zap.String("school_id", id))
	return nil
}

// mutate loads the school, applies fn and stores the result.
func (uc *schoolUseCase) mutate(ctx context.Context, id string, fn func(s *model.School) error) (*model.School, error) {
	s, err := uc.GetSchool(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(s); err != nil {
		return nil, err
	}
	if err := uc.repo.Update(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

func (uc *schoolUseCase) lookup(ctx context.Context) requirement.NameLookup {
	if uc.namer == nil {
		return nil
	}
	return func(id string) (string, bool) {
		return uc.namer.UniformName(ctx, id)
	}
}

// replaceRequirements stores tree on s and reconciles every student with it.
func replaceRequirements(s *model.School, tree model.RequirementTree) {
	s.UniformRequirements = tree
	for i := range s.Students {
		st := &s.Students[i]
		level, err := requirement.ParseLevel(string(st.Level))
		if err != nil {
			continue
		}
		fulfillment.Reconcile(tree, level, fulfillment.Of(*st)).Apply(st)
	}
}

func (uc *schoolUseCase) SetRequirements(ctx context.Context, input *dto.SetRequirementsInput) (*model.School, error) {
	return uc.mutate(ctx, input.SchoolID, func(s *model.School) error {
		var raw interface{}
		if len(input.UniformRequirements) > 0 {
			raw = input.UniformRequirements
		}
		replaceRequirements(s, requirement.Normalize(raw))
		return nil
	})
}

func (uc *schoolUseCase) AddRequirement(ctx context.Context, input *dto.AddRequirementInput) (*model.School, error) {
	required := true
	if input.Required != nil {
		required = *input.Required
	}
	item := model.RequirementItem{
		UniformID:          input.UniformID,
		Item:               strings.TrimSpace(input.Item),
		QuantityPerStudent: input.QuantityPerStudent,
		Required:           required,
	}
	return uc.mutate(ctx, input.SchoolID, func(s *model.School) error {
		tree, err := requirement.AddItem(s.UniformRequirements, input.Level, input.Gender, item, uc.lookup(ctx))
		if err != nil {
			return err
		}
		replaceRequirements(s, tree)
		return nil
	})
}

func (uc *schoolUseCase) RemoveRequirement(ctx context.Context, input *dto.RemoveRequirementInput) (*model.School, error) {
	return uc.mutate(ctx, input.SchoolID, func(s *model.School) error {
		tree, err := requirement.RemoveItem(s.UniformRequirements, input.Level, input.Gender, input.Index)
		if err != nil {
			return err
		}
		replaceRequirements(s, tree)
		return nil
	})
}

func (uc *schoolUseCase) UpdateRequirement(ctx context.Context, input *dto.UpdateRequirementInput) (*model.School, error) {
	return uc.mutate(ctx, input.SchoolID, func(s *model.School) error {
		tree, err := requirement.UpdateItem(s.UniformRequirements, input.Level, input.Gender, input.Index, input.Patch, uc.lookup(ctx))
		if err != nil {
			return err
		}
		replaceRequirements(s, tree)
		return nil
	})
}

func studentGender(s string) (model.StudentGender, error) {
	g, err := requirement.ParseGender(s)
	if err != nil {
		return "", err
	}
	if g == model.GenderGirls {
		return model.StudentFemale, nil
	}
	return model.StudentMale, nil
}

func (uc *schoolUseCase) AddStudent(ctx context.Context, input *dto.AddStudentInput) (*model.Student, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, &model.ValidationError{Field: "name", Reason: "must not be empty"}
	}
	level, err := requirement.ParseLevel(input.Level)
	if err != nil {
		return nil, err
	}
	gender, err := studentGender(input.Gender)
	if err != nil {
		return nil, err
	}

	var added model.Student
	s, err := uc.mutate(ctx, input.SchoolID, func(s *model.School) error {
		added = model.Student{ID: uuid.New().String(), Name: name, Level: level, Gender: gender}
		fulfillment.InitializeForLevel(s.UniformRequirements, level).Apply(&added)
		s.Students = append(s.Students, added)
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("student added", zap.String("school_id", s.ID), zap.String("student_id", added.ID))
	return &added, nil
}

// mutateStudent applies fn to one student of a school and stores the school.
func (uc *schoolUseCase) mutateStudent(ctx context.Context, schoolID, studentID string, fn func(s *model.School, st *model.Student) error) (*model.Student, error) {
	var out model.Student
	_, err := uc.mutate(ctx, schoolID, func(s *model.School) error {
		i := s.FindStudent(studentID)
		if i < 0 {
			return &model.NotFoundError{Collection: "students", ID: studentID}
		}
		if err := fn(s, &s.Students[i]); err != nil {
			return err
		}
		out = s.Students[i]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (uc *schoolUseCase) UpdateStudent(ctx context.Context, input *dto.UpdateStudentInput) (*model.Student, error) {
	return uc.mutateStudent(ctx, input.SchoolID, input.StudentID, func(s *model.School, st *model.Student) error {
		if input.Name != nil {
			name := strings.TrimSpace(*input.Name)
			if name == "" {
				return &model.ValidationError{Field: "name", Reason: "must not be empty"}
			}
			st.Name = name
		}
		if input.Level != nil {
			level, err := requirement.ParseLevel(*input.Level)
			if err != nil {
				return err
			}
			if level != st.Level {
				st.Level = level
				fulfillment.InitializeForLevel(s.UniformRequirements, level).Apply(st)
			}
		}
		return nil
	})
}

func (uc *schoolUseCase) RemoveStudent(ctx context.Context, ref *dto.StudentRef) error {
	_, err := uc.mutate(ctx, ref.SchoolID, func(s *model.School) error {
		i := s.FindStudent(ref.StudentID)
		if i < 0 {
			return &model.NotFoundError{Collection: "students", ID: ref.StudentID}
		}
		s.Students = append(s.Students[:i], s.Students[i+1:]...)
		return nil
	})
	return err
}

func (uc *schoolUseCase) SetStudentStatus(ctx context.Context, input *dto.SetStudentStatusInput) (*model.Student, error) {
	return uc.mutateStudent(ctx, input.SchoolID, input.StudentID, func(_ *model.School, st *model.Student) error {
		f, err := fulfillment.SetStatus(fulfillment.Of(*st), input.ItemID, input.Status)
		if err != nil {
			return err
		}
		f.Apply(st)
		return nil
	})
}

func (uc *schoolUseCase) AdjustStudentQuantity(ctx context.Context, input *dto.AdjustStudentQuantityInput) (*model.Student, error) {
	return uc.mutateStudent(ctx, input.SchoolID, input.StudentID, func(_ *model.School, st *model.Student) error {
		f, err := fulfillment.AdjustQuantity(fulfillment.Of(*st), input.ItemID, input.Delta)
		if err != nil {
			return err
		}
		f.Apply(st)
		return nil
	})
}

func (uc *schoolUseCase) Summary(ctx context.Context, schoolID string) (*dto.SchoolSummary, error) {
	s, err := uc.GetSchool(ctx, schoolID)
	if err != nil {
		return nil, err
	}
	return &dto.SchoolSummary{
		SchoolID:          s.ID,
		StudentCount:      len(s.Students),
		RequirementCounts: analytics.CountRequirements(s.UniformRequirements),
		StatusCounts:      analytics.StudentStatusCounts(s.Students),
	}, nil
}
