package grpcerr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/fekuna/omnipos-retail-service/internal/model"
	"github.com/fekuna/omnipos-retail-service/internal/pkg/logger"
)

func TestCode(t *testing.T) {
	cases := map[error]codes.Code{
		fmt.Errorf("product x: %w", model.ErrNotFound): codes.NotFound,
		model.ErrInsufficientStock:                     codes.FailedPrecondition,
		model.ErrInvalidQuantity:                       codes.InvalidArgument,
		model.ErrInvalidInput:                          codes.InvalidArgument,
		model.ErrDuplicateRequest:                      codes.AlreadyExists,
		model.ErrConflict:                              codes.AlreadyExists,
		model.ErrUnauthorized:                          codes.Unauthenticated,
		model.ErrForbidden:                             codes.PermissionDenied,
		model.ErrStorageUnavailable:                    codes.Unavailable,
		errors.New("boom"):                             codes.Internal,
	}
	for err, want := range cases {
		assert.Equal(t, want, Code(err), err.Error())
	}
}

func TestStatus_HidesInternalDetail(t *testing.T) {
	log := logger.NewNop()

	assert.NoError(t, Status(log, "/m", nil))

	st, _ := status.FromError(Status(log, "/m", errors.New("pq: password authentication failed")))
	assert.Equal(t, codes.Internal, st.Code())
	assert.Equal(t, "internal error", st.Message())

	st, _ = status.FromError(Status(log, "/m", fmt.Errorf("%w: dial tcp", model.ErrStorageUnavailable)))
	assert.Equal(t, codes.Unavailable, st.Code())
	assert.NotContains(t, st.Message(), "dial")

	st, _ = status.FromError(Status(log, "/m", model.ErrInsufficientStock))
	assert.Equal(t, "insufficient stock", st.Message())
}
