package grpcapi

import (
	"fmt"

	"github.com/louisbranch/resourceflow/internal/services/flow/domain/payload"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	fieldData     = "data"
	fieldMetadata = "metadata"
)

// wireValue rewrites flow value types into the plain shapes structpb
// accepts.
func wireValue(v any) any {
	switch x := v.(type) {
	case payload.ID:
		return string(x)
	case []payload.ID:
		out := make([]any, len(x))
		for i, id := range x {
			out[i] = string(id)
		}
		return out
	case payload.Params:
		return wireMap(x)
	case payload.Entities:
		out := make(map[string]any, len(x))
		for id, entity := range x {
			out[string(id)] = wireValue(entity)
		}
		return out
	case map[string]any:
		return wireMap(x)
	case []map[string]any:
		out := make([]any, len(x))
		for i := range x {
			out[i] = wireMap(x[i])
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i := range x {
			out[i] = wireValue(x[i])
		}
		return out
	case []string:
		out := make([]any, len(x))
		for i := range x {
			out[i] = x[i]
		}
		return out
	}
	return v
}

func wireMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = wireValue(v)
	}
	return out
}

// encodeParams builds the request message for params.
func encodeParams(params payload.Params) (*structpb.Struct, error) {
	msg, err := structpb.NewStruct(wireMap(params))
	if err != nil {
		return nil, fmt.Errorf("encode params: %w", err)
	}
	return msg, nil
}

// encodeReply builds the response message. Nil fields are omitted.
func encodeReply(reply Reply) (*structpb.Struct, error) {
	fields := map[string]any{}
	if reply.Data != nil {
		fields[fieldData] = wireValue(reply.Data)
	}
	if len(reply.Metadata) > 0 {
		fields[fieldMetadata] = wireMap(reply.Metadata)
	}
	msg, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("encode reply: %w", err)
	}
	return msg, nil
}

// decodeResponse reads a response message into a flow response.
func decodeResponse(msg *structpb.Struct) *payload.Response {
	fields := msg.AsMap()
	resp := &payload.Response{Data: fields[fieldData]}
	if md, ok := fields[fieldMetadata].(map[string]any); ok {
		resp.Metadata = md
	}
	return resp
}
