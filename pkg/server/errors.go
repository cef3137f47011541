package server

import (
	"context"
	"errors"

	log "github.com/sirupsen/logrus"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/example/devfs/pkg/api"
	"github.com/example/devfs/pkg/fs"
)

// MapErrorToCode converts a service error to a gRPC code and an
// errdetails reason.
func MapErrorToCode(err error) (codes.Code, string) {
	if err == nil {
		return codes.OK, ""
	}

	switch {
	case errors.Is(err, fs.ErrInvalidHandle):
		return codes.NotFound, api.ReasonInvalidHandle
	case errors.Is(err, fs.ErrStale):
		return codes.FailedPrecondition, api.ReasonStaleHandle
	case errors.Is(err, fs.ErrEntryVanished):
		return codes.DataLoss, api.ReasonEntryVanished
	case errors.Is(err, fs.ErrHandleTableCorruption):
		return codes.Internal, api.ReasonHandleTableCorruption
	case errors.Is(err, fs.ErrNotExist):
		return codes.NotFound, api.ReasonNotExist
	case errors.Is(err, fs.ErrNameTooLong):
		return codes.InvalidArgument, api.ReasonNameTooLong
	case errors.Is(err, fs.ErrInvalidName):
		return codes.InvalidArgument, api.ReasonInvalidName
	case errors.Is(err, fs.ErrDuplicateInode):
		return codes.AlreadyExists, api.ReasonDuplicateInode
	case errors.Is(err, fs.ErrDuplicateName):
		return codes.AlreadyExists, api.ReasonDuplicateName
	case errors.Is(err, context.DeadlineExceeded):
		return codes.DeadlineExceeded, ""
	case errors.Is(err, context.Canceled):
		return codes.Canceled, ""
	}

	log.Warnf("Unknown error type: %T, message: %v", err, err)
	return codes.Unknown, ""
}

// toStatus wraps err as a gRPC status error carrying an ErrorInfo detail.
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	code, reason := MapErrorToCode(err)
	return statusWithReason(code, reason, err.Error())
}

func statusWithReason(code codes.Code, reason, msg string) error {
	st := status.New(code, msg)
	if reason == "" {
		return st.Err()
	}
	detailed, err := st.WithDetails(&errdetails.ErrorInfo{
		Reason: reason,
		Domain: api.ErrorDomain,
	})
	if err != nil {
		return st.Err()
	}
	return detailed.Err()
}
