// Package errors provides structured errors that travel over gRPC and map
// onto HTTP-like status codes for flow failure payloads.
package errors

import (
	"net/http"

	"google.golang.org/grpc/codes"
)

// Code is a machine-readable error code.
type Code string

const (
	CodeUnknown Code = "UNKNOWN"

	// Request validation
	CodeInvalidArgument Code = "INVALID_ARGUMENT"
	CodeUserEmptyName   Code = "USER_EMPTY_NAME"
	CodeUserInvalidID   Code = "USER_INVALID_ID"

	// Session
	CodeUnauthenticated Code = "UNAUTHENTICATED"
	CodeSessionExpired  Code = "SESSION_EXPIRED"
	CodeForbidden       Code = "FORBIDDEN"

	// Storage
	CodeNotFound          Code = "NOT_FOUND"
	CodeUserAlreadyExists Code = "USER_ALREADY_EXISTS"
)

// GRPCCode maps a domain code to a gRPC status code.
func (c Code) GRPCCode() codes.Code {
	switch c {
	case CodeInvalidArgument, CodeUserEmptyName, CodeUserInvalidID:
		return codes.InvalidArgument
	case CodeUnauthenticated, CodeSessionExpired:
		return codes.Unauthenticated
	case CodeForbidden:
		return codes.PermissionDenied
	case CodeNotFound:
		return codes.NotFound
	case CodeUserAlreadyExists:
		return codes.AlreadyExists
	default:
		return codes.Internal
	}
}

// HTTPStatus maps a gRPC status code to the HTTP status carried by flow
// failure payloads. OK maps to 0, meaning no status.
func HTTPStatus(code codes.Code) int {
	switch code {
	case codes.OK:
		return 0
	case codes.InvalidArgument, codes.OutOfRange, codes.FailedPrecondition:
		return http.StatusBadRequest
	case codes.Unauthenticated:
		return http.StatusUnauthorized
	case codes.PermissionDenied:
		return http.StatusForbidden
	case codes.NotFound:
		return http.StatusNotFound
	case codes.AlreadyExists, codes.Aborted:
		return http.StatusConflict
	case codes.ResourceExhausted:
		return http.StatusTooManyRequests
	case codes.Canceled:
		return 499
	case codes.Unimplemented:
		return http.StatusNotImplemented
	case codes.Unavailable:
		return http.StatusServiceUnavailable
	case codes.DeadlineExceeded:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// GRPCCodeFromHTTP is the inverse of HTTPStatus for the statuses it
// produces. Unlisted 4xx statuses map to InvalidArgument and everything
// else to Unknown.
func GRPCCodeFromHTTP(status int) codes.Code {
	switch status {
	case 0, http.StatusOK:
		return codes.OK
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return codes.InvalidArgument
	case http.StatusUnauthorized:
		return codes.Unauthenticated
	case http.StatusForbidden:
		return codes.PermissionDenied
	case http.StatusNotFound:
		return codes.NotFound
	case http.StatusConflict:
		return codes.AlreadyExists
	case http.StatusTooManyRequests:
		return codes.ResourceExhausted
	case 499:
		return codes.Canceled
	case http.StatusNotImplemented:
		return codes.Unimplemented
	case http.StatusServiceUnavailable:
		return codes.Unavailable
	case http.StatusGatewayTimeout:
		return codes.DeadlineExceeded
	case http.StatusInternalServerError:
		return codes.Internal
	}
	if status >= 400 && status < 500 {
		return codes.InvalidArgument
	}
	return codes.Unknown
}
