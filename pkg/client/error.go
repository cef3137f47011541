package client

import (
	"errors"
	"fmt"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/example/devfs/pkg/api"
	"github.com/example/devfs/pkg/fs"
)

// Common error types
var (
	ErrNoServer     = errors.New("no server connection")
	ErrBadResponse  = errors.New("malformed server response")
	ErrUnknownError = errors.New("unknown server error")
)

// RPCError represents a failed directory service call
type RPCError struct {
	// Operation that failed
	Op string

	// gRPC status code
	Code codes.Code

	// Error message from the server
	Message string

	// Underlying error kind
	Err error
}

// Error implements the error interface
func (e *RPCError) Error() string {
	return fmt.Sprintf("%s failed: %s (%s)", e.Op, e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *RPCError) Unwrap() error {
	return e.Err
}

var reasonErrors = map[string]error{
	api.ReasonInvalidHandle:         fs.ErrInvalidHandle,
	api.ReasonStaleHandle:           fs.ErrStale,
	api.ReasonEntryVanished:         fs.ErrEntryVanished,
	api.ReasonHandleTableCorruption: fs.ErrHandleTableCorruption,
	api.ReasonNotExist:              fs.ErrNotExist,
	api.ReasonInvalidName:           fs.ErrInvalidName,
	api.ReasonNameTooLong:           fs.ErrNameTooLong,
	api.ReasonDuplicateInode:        fs.ErrDuplicateInode,
	api.ReasonDuplicateName:         fs.ErrDuplicateName,
}

// StatusToError converts a gRPC error into an *RPCError whose Err is the
// matching pkg/fs sentinel, so callers can test it with errors.Is.
func StatusToError(op string, err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return fmt.Errorf("%s: %w", op, err)
	}

	kind := reasonError(st)
	if kind == nil {
		kind = codeError(st.Code())
	}
	return &RPCError{
		Op:      op,
		Code:    st.Code(),
		Message: st.Message(),
		Err:     kind,
	}
}

func reasonError(st *status.Status) error {
	for _, d := range st.Details() {
		info, ok := d.(*errdetails.ErrorInfo)
		if !ok || info.GetDomain() != api.ErrorDomain {
			continue
		}
		if err, ok := reasonErrors[info.GetReason()]; ok {
			return err
		}
	}
	return nil
}

// codeError is the fallback for statuses without an ErrorInfo detail.
func codeError(code codes.Code) error {
	switch code {
	case codes.NotFound:
		return fs.ErrNotExist
	case codes.FailedPrecondition:
		return fs.ErrStale
	case codes.DataLoss:
		return fs.ErrEntryVanished
	case codes.Internal:
		return fs.ErrHandleTableCorruption
	case codes.InvalidArgument:
		return fs.ErrInvalidHandle
	case codes.Unavailable:
		return ErrNoServer
	default:
		return ErrUnknownError
	}
}
