// Package grpcerr converts domain errors into gRPC statuses.
package grpcerr

import (
	"errors"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/fekuna/omnipos-retail-service/internal/model"
	"github.com/fekuna/omnipos-retail-service/internal/pkg/logger"
)

var mapping = []struct {
	err  error
	code codes.Code
}{
	{model.ErrNotFound, codes.NotFound},
	{model.ErrInsufficientStock, codes.FailedPrecondition},
	{model.ErrInvalidQuantity, codes.InvalidArgument},
	{model.ErrInvalidInput, codes.InvalidArgument},
	{model.ErrDuplicateRequest, codes.AlreadyExists},
	{model.ErrConflict, codes.AlreadyExists},
	{model.ErrUnauthorized, codes.Unauthenticated},
	{model.ErrForbidden, codes.PermissionDenied},
	{model.ErrStorageUnavailable, codes.Unavailable},
}

func Code(err error) codes.Code {
	for _, m := range mapping {
		if errors.Is(err, m.err) {
			return m.code
		}
	}
	return codes.Internal
}

// Status returns the status error for err. Unexpected errors are logged and
// hidden from the caller.
func Status(log logger.ZapLogger, method string, err error) error {
	if err == nil {
		return nil
	}
	code := Code(err)
	switch code {
	case codes.Internal:
		log.Error("grpc request failed", zap.String("method", method), zap.Error(err))
		return status.Error(code, "internal error")
	case codes.Unavailable:
		log.Warn("grpc request hit unavailable storage", zap.String("method", method), zap.Error(err))
		return status.Error(code, model.ErrStorageUnavailable.Error())
	}
	return status.Error(code, err.Error())
}
