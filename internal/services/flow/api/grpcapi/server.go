package grpcapi

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	platformerrors "github.com/louisbranch/resourceflow/internal/platform/errors"
	gogrpc "google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// Reply is what a server handler returns.
type Reply struct {
	Data     any
	Metadata map[string]any
}

// Handler serves one unary method. Errors are sent as gRPC statuses; a
// *platformerrors.Error keeps its code and details.
type Handler func(ctx context.Context, req map[string]any) (Reply, error)

// Service is a named set of handlers.
type Service struct {
	Name    string
	Methods map[string]Handler
}

// FullMethod returns the invocation path of method.
func (s Service) FullMethod(method string) string {
	return "/" + s.Name + "/" + method
}

type structService interface {
	serve(ctx context.Context, method string, req *structpb.Struct) (*structpb.Struct, error)
}

type registered struct {
	methods map[string]Handler
}

func (r *registered) serve(ctx context.Context, method string, req *structpb.Struct) (*structpb.Struct, error) {
	handler := r.methods[method]
	reply, err := handler(ctx, req.AsMap())
	if err != nil {
		return nil, platformerrors.ToStatus(err)
	}
	msg, err := encodeReply(reply)
	if err != nil {
		return nil, platformerrors.ToStatus(err)
	}
	return msg, nil
}

// Register adds svc to registrar.
func Register(registrar gogrpc.ServiceRegistrar, svc Service) error {
	if strings.TrimSpace(svc.Name) == "" {
		return errors.New("service name is required")
	}
	if len(svc.Methods) == 0 {
		return fmt.Errorf("service %s has no methods", svc.Name)
	}
	desc := gogrpc.ServiceDesc{
		ServiceName: svc.Name,
		HandlerType: (*structService)(nil),
	}
	for _, name := range slices.Sorted(maps.Keys(svc.Methods)) {
		if svc.Methods[name] == nil {
			return fmt.Errorf("service %s: method %s has no handler", svc.Name, name)
		}
		desc.Methods = append(desc.Methods, methodDesc(svc, name))
	}
	registrar.RegisterService(&desc, &registered{methods: svc.Methods})
	return nil
}

func methodDesc(svc Service, name string) gogrpc.MethodDesc {
	fullMethod := svc.FullMethod(name)
	return gogrpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor gogrpc.UnaryServerInterceptor) (any, error) {
			in := &structpb.Struct{}
			if err := dec(in); err != nil {
				return nil, err
			}
			handler := func(ctx context.Context, req any) (any, error) {
				return srv.(structService).serve(ctx, name, req.(*structpb.Struct))
			}
			if interceptor == nil {
				return handler(ctx, in)
			}
			info := &gogrpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			return interceptor(ctx, in, info, handler)
		},
	}
}
