package wire

import (
	"context"
	"errors"
	"fmt"

	"github.com/litetable/widecolumn/pkg/model"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ErrorDomain scopes the ErrorInfo reasons attached to failed calls.
const ErrorDomain = "widecolumn.litetable.io"

type reason struct {
	name string
	code codes.Code
	err  error
}

var reasons = []reason{
	{name: "TABLE_NOT_FOUND", code: codes.NotFound, err: model.ErrTableNotFound},
	{name: "TABLE_EXISTS", code: codes.AlreadyExists, err: model.ErrTableExists},
	{name: "TABLE_DISABLED", code: codes.FailedPrecondition, err: model.ErrTableDisabled},
	{name: "TABLE_ENABLED", code: codes.FailedPrecondition, err: model.ErrTableEnabled},
	{name: "FAMILY_NOT_FOUND", code: codes.NotFound, err: model.ErrFamilyNotFound},
	{name: "FAMILY_EXISTS", code: codes.AlreadyExists, err: model.ErrFamilyExists},
	{name: "NO_FAMILIES", code: codes.InvalidArgument, err: model.ErrNoFamilies},
	{name: "DUPLICATE_FAMILY", code: codes.InvalidArgument, err: model.ErrDuplicateFamily},
	{name: "LAST_FAMILY", code: codes.FailedPrecondition, err: model.ErrLastFamily},
	{name: "INVALID_NAME", code: codes.InvalidArgument, err: model.ErrInvalidName},
	{name: "LENGTH_MISMATCH", code: codes.InvalidArgument, err: model.ErrLengthMismatch},
	{name: "NO_COLUMNS", code: codes.InvalidArgument, err: model.ErrNoColumns},
}

// ToStatus converts a store error into a gRPC status error. Recognized conditions carry an
// ErrorInfo detail so the client can restore the original sentinel.
func ToStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	switch {
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	}

	for _, r := range reasons {
		if !errors.Is(err, r.err) {
			continue
		}
		st, detailErr := status.New(r.code, err.Error()).WithDetails(&errdetails.ErrorInfo{
			Reason: r.name,
			Domain: ErrorDomain,
		})
		if detailErr != nil {
			return status.Error(r.code, err.Error())
		}
		return st.Err()
	}
	return status.Error(codes.Internal, err.Error())
}

// FromStatus restores the model sentinel carried by a status error. Errors without a known
// reason are returned unchanged, except cancellation and deadline codes which wrap the
// matching context error.
func FromStatus(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}

	for _, d := range st.Details() {
		info, ok := d.(*errdetails.ErrorInfo)
		if !ok || info.GetDomain() != ErrorDomain {
			continue
		}
		for _, r := range reasons {
			if r.name == info.GetReason() {
				return &remoteError{sentinel: r.err, status: err, message: st.Message()}
			}
		}
	}

	switch st.Code() {
	case codes.Canceled:
		return fmt.Errorf("%w: %s", context.Canceled, st.Message())
	case codes.DeadlineExceeded:
		return fmt.Errorf("%w: %s", context.DeadlineExceeded, st.Message())
	}
	return err
}

// remoteError matches both the sentinel and the original status error.
type remoteError struct {
	sentinel error
	status   error
	message  string
}

func (e *remoteError) Error() string {
	return e.message
}

func (e *remoteError) Unwrap() []error {
	return []error{e.sentinel, e.status}
}
