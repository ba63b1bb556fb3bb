package errors

import (
	"errors"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Domain is the ErrorInfo domain of flow errors.
const Domain = "resourceflow.louisbranch.github.com"

// FieldViolation describes one invalid request field.
type FieldViolation struct {
	Field       string
	Description string
}

// Error is the domain error type with structured metadata.
type Error struct {
	Code       Code              // Machine-readable error code
	Message    string            // Message shown to callers
	Metadata   map[string]string // Additional context
	Violations []FieldViolation  // Invalid request fields
	Cause      error             // Wrapped underlying error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target carries the same code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// New creates a domain error with a code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap creates a domain error that wraps cause.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// Invalid creates an InvalidArgument error listing field violations.
func Invalid(message string, violations ...FieldViolation) *Error {
	return &Error{Code: CodeInvalidArgument, Message: message, Violations: violations}
}

// ToGRPCStatus converts the error to a gRPC status carrying an ErrorInfo
// detail and, when fields are invalid, a BadRequest detail.
func (e *Error) ToGRPCStatus() error {
	grpcCode := e.Code.GRPCCode()
	info := &errdetails.ErrorInfo{
		Reason:   string(e.Code),
		Domain:   Domain,
		Metadata: e.Metadata,
	}
	st := status.New(grpcCode, e.Message)
	var err error
	if len(e.Violations) > 0 {
		badRequest := &errdetails.BadRequest{}
		for _, v := range e.Violations {
			badRequest.FieldViolations = append(badRequest.FieldViolations, &errdetails.BadRequest_FieldViolation{
				Field:       v.Field,
				Description: v.Description,
			})
		}
		st, err = st.WithDetails(info, badRequest)
	} else {
		st, err = st.WithDetails(info)
	}
	if err != nil {
		return status.Error(grpcCode, e.Message)
	}
	return st.Err()
}

// ToStatus converts any error to a gRPC status error. Domain errors keep
// their code and details; other errors become Internal.
func ToStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.ToGRPCStatus()
	}
	return status.Error(codes.Internal, err.Error())
}

// Decoded is the structured content of a gRPC status.
type Decoded struct {
	Code       codes.Code
	Reason     string
	Message    string
	Metadata   map[string]string
	Violations []FieldViolation
}

// Decode reads the code, message and known details of a gRPC status.
func Decode(st *status.Status) Decoded {
	d := Decoded{Code: st.Code(), Message: st.Message()}
	for _, detail := range st.Details() {
		switch v := detail.(type) {
		case *errdetails.ErrorInfo:
			d.Reason = v.GetReason()
			d.Metadata = v.GetMetadata()
		case *errdetails.BadRequest:
			for _, fv := range v.GetFieldViolations() {
				d.Violations = append(d.Violations, FieldViolation{Field: fv.GetField(), Description: fv.GetDescription()})
			}
		}
	}
	return d
}
