package handler

import (
	"context"

	"github.com/fekuna/omnipos-uniform-service/internal/auth"
	"github.com/fekuna/omnipos-uniform-service/internal/grpcerr"
	"github.com/fekuna/omnipos-uniform-service/internal/model"
	"github.com/fekuna/omnipos-uniform-service/internal/product"
	"github.com/fekuna/omnipos-uniform-service/internal/product/dto"
	"github.com/fekuna/omnipos-uniform-service/pkg/logger"
	"github.com/fekuna/omnipos-uniform-service/pkg/rpc"
	"google.golang.org/grpc"
)

const ServiceName = "uniform.v1.ProductService"

type ProductHandler struct {
	uc     product.UseCase
	logger logger.ZapLogger
}

func NewProductHandler(uc product.UseCase, log logger.ZapLogger) *ProductHandler {
	return &ProductHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *ProductHandler) ServiceDesc() *grpc.ServiceDesc {
	return &grpc.ServiceDesc{
		ServiceName: ServiceName,
		HandlerType: (*interface{})(nil),
		Methods: []grpc.MethodDesc{
			rpc.Unary(ServiceName, "CreateProduct", h.CreateProduct),
			rpc.Unary(ServiceName, "GetProduct", h.GetProduct),
			rpc.Unary(ServiceName, "ListProducts", h.ListProducts),
			rpc.Unary(ServiceName, "DeleteProduct", h.DeleteProduct),
		},
		Streams:  []grpc.StreamDesc{},
		Metadata: "uniform/v1/product.proto",
	}
}

func (h *ProductHandler) CreateProduct(ctx context.Context, req *dto.CreateProductInput) (*dto.CreateProductResult, error) {
	input := *req
	input.CreatedBy = auth.GetUserID(ctx)

	res, err := h.uc.CreateProduct(ctx, &input)
	if err != nil {
		return nil, grpcerr.FromError(h.logger, "CreateProduct", err)
	}
	return res, nil
}

func (h *ProductHandler) GetProduct(ctx context.Context, req *dto.ProductIDRequest) (*model.Product, error) {
	p, err := h.uc.GetProduct(ctx, req.ID)
	if err != nil {
		return nil, grpcerr.FromError(h.logger, "GetProduct", err)
	}
	return p, nil
}

func (h *ProductHandler) ListProducts(ctx context.Context, req *dto.ProductFilters) (*dto.ListProductsResponse, error) {
	products, total, err := h.uc.ListProducts(ctx, req)
	if err != nil {
		return nil, grpcerr.FromError(h.logger, "ListProducts", err)
	}
	if products == nil {
		products = []model.Product{}
	}
	return &dto.ListProductsResponse{Products: products, Total: total}, nil
}

func (h *ProductHandler) DeleteProduct(ctx context.Context, req *dto.ProductIDRequest) (*dto.Empty, error) {
	if err := h.uc.DeleteProduct(ctx, req.ID); err != nil {
		return nil, grpcerr.FromError(h.logger, "DeleteProduct", err)
	}
	return &dto.Empty{}, nil
}
