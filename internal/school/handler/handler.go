package handler

import (
	"context"

	"github.com/fekuna/omnipos-uniform-service/internal/grpcerr"
	"github.com/fekuna/omnipos-uniform-service/internal/model"
	"github.com/fekuna/omnipos-uniform-service/internal/school"
	"github.com/fekuna/omnipos-uniform-service/internal/school/dto"
	"github.com/fekuna/omnipos-uniform-service/pkg/logger"
	"github.com/fekuna/omnipos-uniform-service/pkg/rpc"
	"google.golang.org/grpc"
)

const ServiceName = "uniform.v1.SchoolService"

type SchoolHandler struct {
	uc     school.UseCase
	logger logger.ZapLogger
}

func NewSchoolHandler(uc school.UseCase, log logger.ZapLogger) *SchoolHandler {
	return &SchoolHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *SchoolHandler) ServiceDesc() *grpc.ServiceDesc {
	return &grpc.ServiceDesc{
		ServiceName: ServiceName,
		HandlerType: (*interface{})(nil),
		Methods: []grpc.MethodDesc{
			rpc.Unary(ServiceName, "CreateSchool", h.CreateSchool),
			rpc.Unary(ServiceName, "GetSchool", h.GetSchool),
			rpc.Unary(ServiceName, "ListSchools", h.ListSchools),
			rpc.Unary(ServiceName, "UpdateSchool", h.UpdateSchool),
			rpc.Unary(ServiceName, "DeleteSchool", h.DeleteSchool),
			rpc.Unary(ServiceName, "SetRequirements", h.SetRequirements),
			rpc.Unary(ServiceName, "AddRequirement", h.AddRequirement),
			rpc.Unary(ServiceName, "RemoveRequirement", h.RemoveRequirement),
			rpc.Unary(ServiceName, "UpdateRequirement", h.UpdateRequirement),
			rpc.Unary(ServiceName, "AddStudent", h.AddStudent),
			rpc.Unary(ServiceName, "UpdateStudent", h.UpdateStudent),
			rpc.Unary(ServiceName, "RemoveStudent", h.RemoveStudent),
			rpc.Unary(ServiceName, "SetStudentStatus", h.SetStudentStatus),
			rpc.Unary(ServiceName, "AdjustStudentQuantity", h.AdjustStudentQuantity),
			rpc.Unary(ServiceName, "GetSummary", h.GetSummary),
		},
		Streams:  []grpc.StreamDesc{},
		Metadata: "uniform/v1/school.proto",
	}
}

func (h *SchoolHandler) CreateSchool(ctx context.Context, req *dto.CreateSchoolInput) (*model.School, error) {
	s, err := h.uc.CreateSchool(ctx, req)
	return s, grpcerr.FromError(h.logger, "CreateSchool", err)
}

func (h *SchoolHandler) GetSchool(ctx context.Context, req *dto.SchoolIDRequest) (*model.School, error) {
	s, err := h.uc.GetSchool(ctx, req.ID)
	return s, grpcerr.FromError(h.logger, "GetSchool", err)
}

func (h *SchoolHandler) ListSchools(ctx context.Context, req *dto.SchoolIDRequest) (*dto.ListSchoolsResponse, error) {
	schools, err := h.uc.ListSchools(ctx, req.ForceRefresh)
	if err != nil {
		return nil, grpcerr.FromError(h.logger, "ListSchools", err)
	}
	if schools == nil {
		schools = []model.School{}
	}
	return &dto.ListSchoolsResponse{Schools: schools, Total: len(schools)}, nil
}

func (h *SchoolHandler) UpdateSchool(ctx context.Context, req *dto.UpdateSchoolInput) (*model.School, error) {
	s, err := h.uc.UpdateSchool(ctx, req)
	return s, grpcerr.FromError(h.logger, "UpdateSchool", err)
}

func (h *SchoolHandler) DeleteSchool(ctx context.Context, req *dto.SchoolIDRequest) (*dto.Empty, error) {
	if err := h.uc.DeleteSchool(ctx, req.ID); err != nil {
		return nil, grpcerr.FromError(h.logger, "DeleteSchool", err)
	}
	return &dto.Empty{}, nil
}

func (h *SchoolHandler) SetRequirements(ctx context.Context, req *dto.SetRequirementsInput) (*model.School, error) {
	s, err := h.uc.SetRequirements(ctx, req)
	return s, grpcerr.FromError(h.logger, "SetRequirements", err)
}

func (h *SchoolHandler) AddRequirement(ctx context.Context, req *dto.AddRequirementInput) (*model.School, error) {
	s, err := h.uc.AddRequirement(ctx, req)
	return s, grpcerr.FromError(h.logger, "AddRequirement", err)
}

func (h *SchoolHandler) RemoveRequirement(ctx context.Context, req *dto.RemoveRequirementInput) (*model.School, error) {
	s, err := h.uc.RemoveRequirement(ctx, req)
	return s, grpcerr.FromError(h.logger, "RemoveRequirement", err)
}

func (h *SchoolHandler) UpdateRequirement(ctx context.Context, req *dto.UpdateRequirementInput) (*model.School, error) {
	s, err := h.uc.UpdateRequirement(ctx, req)
	return s, grpcerr.FromError(h.logger, "UpdateRequirement", err)
}

func (h *SchoolHandler) AddStudent(ctx context.Context, req *dto.AddStudentInput) (*model.Student, error) {
	st, err := h.uc.AddStudent(ctx, req)
	return st, grpcerr.FromError(h.logger, "AddStudent", err)
}

func (h *SchoolHandler) UpdateStudent(ctx context.Context, req *dto.UpdateStudentInput) (*model.Student, error) {
	st, err := h.uc.UpdateStudent(ctx, req)
	return st, grpcerr.FromError(h.logger, "UpdateStudent", err)
}

func (h *SchoolHandler) RemoveStudent(ctx context.Context, req *dto.StudentRef) (*dto.Empty, error) {
	if err := h.uc.RemoveStudent(ctx, req); err != nil {
		return nil, grpcerr.FromError(h.logger, "RemoveStudent", err)
	}
	return &dto.Empty{}, nil
}

func (h *SchoolHandler) SetStudentStatus(ctx context.Context, req *dto.SetStudentStatusInput) (*model.Student, error) {
	st, err := h.uc.SetStudentStatus(ctx, req)
	return st, grpcerr.FromError(h.logger, "SetStudentStatus", err)
}

func (h *SchoolHandler) AdjustStudentQuantity(ctx context.Context, req *dto.AdjustStudentQuantityInput) (*model.Student, error) {
	st, err := h.uc.AdjustStudentQuantity(ctx, req)
	return st, grpcerr.FromError(h.logger, "AdjustStudentQuantity", err)
}

func (h *SchoolHandler) GetSummary(ctx context.Context, req *dto.SchoolIDRequest) (*dto.SchoolSummary, error) {
	sum, err := h.uc.Summary(ctx, req.ID)
	return sum, grpcerr.FromError(h.logger, "GetSummary", err)
}
