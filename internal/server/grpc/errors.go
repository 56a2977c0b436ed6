package grpc

import (
	"errors"

	"github.com/dmitrijs2005/todokeeper/internal/common"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// toStatus maps service errors to gRPC status codes.
func toStatus(err error) error {
	var code codes.Code
	switch {
	case errors.Is(err, common.ErrorTaskNotFound):
		code = codes.NotFound
	case errors.Is(err, common.ErrorUnauthorized):
		code = codes.PermissionDenied
	case errors.Is(err, common.ErrorValidation), errors.Is(err, common.ErrorInvalidExtension):
		code = codes.InvalidArgument
	case errors.Is(err, common.ErrorExtensionNotAllowed):
		code = codes.FailedPrecondition
	case errors.Is(err, common.ErrorAlreadyExists):
		code = codes.AlreadyExists
	case errors.Is(err, common.ErrorAccountNotFound), errors.Is(err, common.ErrorInvalidCredentials):
		code = codes.Unauthenticated
	default:
		return status.Error(codes.Internal, "internal error")
	}
	return status.Error(code, err.Error())
}

func isInternal(err error) bool {
	return status.Code(err) == codes.Internal
}
