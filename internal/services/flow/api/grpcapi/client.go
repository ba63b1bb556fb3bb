package grpcapi

import (
	"context"
	"net/http"

	platformerrors "github.com/louisbranch/resourceflow/internal/platform/errors"
	"github.com/louisbranch/resourceflow/internal/services/flow/domain/module"
	"github.com/louisbranch/resourceflow/internal/services/flow/domain/payload"
	gogrpc "google.golang.org/grpc"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// Caller builds flow APIs backed by unary methods on one connection.
type Caller struct {
	conn gogrpc.ClientConnInterface
	opts []gogrpc.CallOption
}

// NewCaller creates a caller over conn. opts apply to every call.
func NewCaller(conn gogrpc.ClientConnInterface, opts ...gogrpc.CallOption) *Caller {
	return &Caller{conn: conn, opts: opts}
}

// Method returns an API invoking fullMethod, for example
// "/flow.v1.UserService/List".
func (c *Caller) Method(fullMethod string) module.API {
	return func(ctx context.Context, params payload.Params) (*payload.Response, error) {
		req, err := encodeParams(params)
		if err != nil {
			return nil, &payload.APIError{Status: http.StatusBadRequest, Message: err.Error()}
		}
		reply := &structpb.Struct{}
		if err := c.conn.Invoke(ctx, fullMethod, req, reply, c.opts...); err != nil {
			return nil, apiError(err)
		}
		return decodeResponse(reply), nil
	}
}

// apiError converts a gRPC call error into a flow API error. Field
// violations become the error list; the ErrorInfo reason, metadata and
// per-field descriptions land in Fields.
func apiError(err error) *payload.APIError {
	st, ok := status.FromError(err)
	if !ok {
		return &payload.APIError{Message: err.Error()}
	}
	decoded := platformerrors.Decode(st)
	apiErr := &payload.APIError{
		Status:  platformerrors.HTTPStatus(decoded.Code),
		Message: decoded.Message,
	}
	fields := map[string]any{}
	if decoded.Reason != "" {
		fields["reason"] = decoded.Reason
	}
	if len(decoded.Metadata) > 0 {
		md := make(map[string]any, len(decoded.Metadata))
		for k, v := range decoded.Metadata {
			md[k] = v
		}
		fields["metadata"] = md
	}
	if len(decoded.Violations) > 0 {
		byField := make(map[string]any, len(decoded.Violations))
		for _, v := range decoded.Violations {
			apiErr.Errors = append(apiErr.Errors, v.Description)
			byField[v.Field] = v.Description
		}
		fields["fields"] = byField
	}
	if len(fields) > 0 {
		apiErr.Fields = fields
	}
	return apiErr
}
