package api

import (
	"context"
	"errors"

	"github.com/solatis/skiplogic/internal/types"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Auth errors are mapped in the auth package interceptor.
// Unknown rule sets map to NOT_FOUND.
// Rule sets that fail to compile map to FAILED_PRECONDITION.
// Unreadable stored documents map to DATA_LOSS.
// Context timeouts map to DEADLINE_EXCEEDED.
// Everything else is a storage failure and maps to UNAVAILABLE.
func toStatus(err error) error {
	switch {
	case errors.Is(err, types.ErrRuleSetNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, types.ErrInvalidConditionType), errors.Is(err, types.ErrInvalidLogic):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, types.ErrMalformedDocument):
		return status.Error(codes.DataLoss, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	default:
		return status.Error(codes.Unavailable, err.Error())
	}
}
