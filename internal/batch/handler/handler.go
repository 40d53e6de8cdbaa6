package handler

import (
	"context"

	"github.com/fekuna/omnipos-uniform-service/internal/auth"
	"github.com/fekuna/omnipos-uniform-service/internal/batch"
	"github.com/fekuna/omnipos-uniform-service/internal/batch/dto"
	"github.com/fekuna/omnipos-uniform-service/internal/grpcerr"
	"github.com/fekuna/omnipos-uniform-service/internal/model"
	"github.com/fekuna/omnipos-uniform-service/pkg/logger"
	"github.com/fekuna/omnipos-uniform-service/pkg/rpc"
	"google.golang.org/grpc"
)

const ServiceName = "uniform.v1.BatchService"

type BatchHandler struct {
	uc     batch.UseCase
	logger logger.ZapLogger
}

func NewBatchHandler(uc batch.UseCase, log logger.ZapLogger) *BatchHandler {
	return &BatchHandler{
		uc:     uc,
		logger: log,
	}
}

// ServiceDesc describes the batch service for grpc.Server.RegisterService.
func (h *BatchHandler) ServiceDesc() *grpc.ServiceDesc {
	return &grpc.ServiceDesc{
		ServiceName: ServiceName,
		HandlerType: (*interface{})(nil),
		Methods: []grpc.MethodDesc{
			rpc.Unary(ServiceName, "CreateBatch", h.CreateBatch),
			rpc.Unary(ServiceName, "GetBatch", h.GetBatch),
			rpc.Unary(ServiceName, "ListBatches", h.ListBatches),
			rpc.Unary(ServiceName, "DeleteBatch", h.DeleteBatch),
			rpc.Unary(ServiceName, "GetCatalog", h.GetCatalog),
			rpc.Unary(ServiceName, "GetAvailableQuantity", h.GetAvailableQuantity),
			rpc.Unary(ServiceName, "Allocate", h.Allocate),
			rpc.Unary(ServiceName, "GetSummary", h.GetSummary),
		},
		Streams:  []grpc.StreamDesc{},
		Metadata: "uniform/v1/batch.proto",
	}
}

func (h *BatchHandler) CreateBatch(ctx context.Context, req *dto.CreateBatchRequest) (*model.Batch, error) {
	b, err := h.uc.CreateBatch(ctx, &dto.CreateBatchInput{
		Name:      req.Name,
		Type:      req.Type,
		Items:     req.Items,
		CreatedBy: auth.GetUserID(ctx),
	})
	if err != nil {
		return nil, grpcerr.FromError(h.logger, "CreateBatch", err)
	}
	return b, nil
}

func (h *BatchHandler) GetBatch(ctx context.Context, req *dto.BatchIDRequest) (*model.Batch, error) {
	b, err := h.uc.GetBatch(ctx, req.ID)
	if err != nil {
		return nil, grpcerr.FromError(h.logger, "GetBatch", err)
	}
	return b, nil
}

func (h *BatchHandler) ListBatches(ctx context.Context, req *dto.ListBatchesRequest) (*dto.ListBatchesResponse, error) {
	batches, err := h.uc.ListBatches(ctx, &dto.BatchFilters{
		Type:         req.Type,
		Status:       req.Status,
		ForceRefresh: req.ForceRefresh,
	})
	if err != nil {
		return nil, grpcerr.FromError(h.logger, "ListBatches", err)
	}
	if batches == nil {
		batches = []model.Batch{}
	}
	return &dto.ListBatchesResponse{Batches: batches, Total: len(batches)}, nil
}

func (h *BatchHandler) DeleteBatch(ctx context.Context, req *dto.BatchIDRequest) (*dto.Empty, error) {
	if err := h.uc.DeleteBatch(ctx, req.ID); err != nil {
		return nil, grpcerr.FromError(h.logger, "DeleteBatch", err)
	}
	return &dto.Empty{}, nil
}

func (h *BatchHandler) GetCatalog(ctx context.Context, req *dto.CatalogRequest) (*dto.CatalogResponse, error) {
	idx, err := h.uc.Catalog(ctx, req.ForceRefresh)
	if err != nil {
		return nil, grpcerr.FromError(h.logger, "GetCatalog", err)
	}

	resp := &dto.CatalogResponse{
		Types:   idx.Types(),
		Entries: idx.Entries(),
	}
	switch {
	case req.Type != "" && req.VariantType != "" && req.Color != "":
		resp.Sizes = idx.SizesByTypeVariantColor(req.Type, req.VariantType, req.Color)
	case req.Type != "" && req.VariantType != "":
		resp.Colors = idx.ColorsByTypeVariant(req.Type, req.VariantType)
	case req.Type != "":
		resp.Variants = idx.VariantsByType(req.Type)
	}
	return resp, nil
}

func (h *BatchHandler) GetAvailableQuantity(ctx context.Context, req *dto.AvailableQuantityRequest) (*dto.AvailableQuantityResponse, error) {
	idx, err := h.uc.Catalog(ctx, req.ForceRefresh)
	if err != nil {
		return nil, grpcerr.FromError(h.logger, "GetAvailableQuantity", err)
	}
	return &dto.AvailableQuantityResponse{
		Available: idx.AvailableQuantity(req.Type, req.VariantType, req.Color, req.Size),
	}, nil
}

func (h *BatchHandler) Allocate(ctx context.Context, req *dto.AllocateRequest) (*model.AllocationResult, error) {
	res, err := h.uc.Allocate(ctx, &dto.AllocateInput{
		Type:        req.Type,
		VariantType: req.VariantType,
		Color:       req.Color,
		Size:        req.Size,
		Quantity:    req.Quantity,
	})
	if err != nil {
		return nil, grpcerr.FromError(h.logger, "Allocate", err)
	}
	return res, nil
}

func (h *BatchHandler) GetSummary(ctx context.Context, _ *dto.Empty) (*dto.BatchSummary, error) {
	sum, err := h.uc.Summary(ctx)
	if err != nil {
		return nil, grpcerr.FromError(h.logger, "GetSummary", err)
	}
	return sum, nil
}
