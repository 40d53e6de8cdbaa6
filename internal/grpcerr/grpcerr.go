// Package grpcerr maps domain errors onto gRPC statuses.
package grpcerr

import (
	"context"
	"errors"
	"strconv"

	"github.com/fekuna/omnipos-uniform-service/internal/model"
	"github.com/fekuna/omnipos-uniform-service/pkg/logger"
	"go.uber.org/zap"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/protoadapt"
)

// Code returns the status code err should surface as.
func Code(err error) codes.Code {
	var (
		insufficient *model.InsufficientStockError
		validation   *model.ValidationError
		outOfRange   *model.IndexOutOfRangeError
		notFound     *model.NotFoundError
	)
	switch {
	case err == nil:
		return codes.OK
	case errors.As(err, &insufficient):
		return codes.FailedPrecondition
	case errors.As(err, &validation):
		return codes.InvalidArgument
	case errors.As(err, &outOfRange):
		return codes.OutOfRange
	case errors.As(err, &notFound):
		return codes.NotFound
	case errors.Is(err, model.ErrBusy):
		return codes.Unavailable
	case errors.Is(err, context.Canceled):
		return codes.Canceled
	case errors.Is(err, context.DeadlineExceeded):
		return codes.DeadlineExceeded
	}
	if s, ok := status.FromError(err); ok {
		return s.Code()
	}
	return codes.Internal
}

// FromError converts err into a status error. Errors that map to Internal are
// logged with op before the message is replaced.
func FromError(log logger.ZapLogger, op string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	code := Code(err)
	if code == codes.Internal {
		log.Error(op+" failed", zap.Error(err))
		return status.Error(codes.Internal, "internal error")
	}

	st := status.New(code, err.Error())
	var insufficient *model.InsufficientStockError
	if errors.As(err, &insufficient) {
		if detailed, derr := st.WithDetails(stockDetails(insufficient)...); derr == nil {
			st = detailed
		} else {
			log.Warn("failed to attach stock details", zap.Error(derr))
		}
	}
	return st.Err()
}

// ReasonInsufficientStock is the ErrorInfo reason on FailedPrecondition
// statuses caused by a stock shortfall.
const ReasonInsufficientStock = "INSUFFICIENT_STOCK"

func stockDetails(e *model.InsufficientStockError) []protoadapt.MessageV1 {
	key := model.SKUKey{Type: e.Type, VariantType: e.VariantType, Color: e.Color, Size: e.Size}
	return []protoadapt.MessageV1{
		&errdetails.ErrorInfo{
			Reason: ReasonInsufficientStock,
			Domain: "uniform.v1",
			Metadata: map[string]string{
				"type":        e.Type,
				"variantType": e.VariantType,
				"color":       e.Color,
				"size":        e.Size,
				"requested":   strconv.Itoa(e.Requested),
				"available":   strconv.Itoa(e.Available),
				"shortfall":   strconv.Itoa(e.Shortfall()),
			},
		},
		&errdetails.PreconditionFailure{
			Violations: []*errdetails.PreconditionFailure_Violation{{
				Type:        "STOCK",
				Subject:     key.String(),
				Description: e.Error(),
			}},
		},
	}
}
