package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name. Requests and
// responses are google.protobuf.Struct values; todokeeper.proto lists the
// fields each method uses.
const ServiceName = "todokeeper.TodoService"

const (
	MethodRegister         = "Register"
	MethodLogin            = "Login"
	MethodCreateTask       = "CreateTask"
	MethodListTasks        = "ListTasks"
	MethodGetTask          = "GetTask"
	MethodEditTask         = "EditTask"
	MethodDeleteTask       = "DeleteTask"
	MethodToggleTask       = "ToggleTask"
	MethodPreviewExtension = "PreviewExtension"
	MethodExtendTask       = "ExtendTask"
	MethodEligibleTasks    = "EligibleTasks"
)

// FullMethod returns the wire name of a TodoService method.
func FullMethod(name string) string {
	return "/" + ServiceName + "/" + name
}

type TodoServiceServer interface {
	Register(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Login(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CreateTask(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListTasks(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetTask(context.Context, *structpb.Struct) (*structpb.Struct, error)
	EditTask(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeleteTask(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ToggleTask(context.Context, *structpb.Struct) (*structpb.Struct, error)
	PreviewExtension(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ExtendTask(context.Context, *structpb.Struct) (*structpb.Struct, error)
	EligibleTasks(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type structMethod func(TodoServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unary(name string, call structMethod) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(TodoServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(name)}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(TodoServiceServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

var TodoServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*TodoServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(MethodRegister, TodoServiceServer.Register),
		unary(MethodLogin, TodoServiceServer.Login),
		unary(MethodCreateTask, TodoServiceServer.CreateTask),
		unary(MethodListTasks, TodoServiceServer.ListTasks),
		unary(MethodGetTask, TodoServiceServer.GetTask),
		unary(MethodEditTask, TodoServiceServer.EditTask),
		unary(MethodDeleteTask, TodoServiceServer.DeleteTask),
		unary(MethodToggleTask, TodoServiceServer.ToggleTask),
		unary(MethodPreviewExtension, TodoServiceServer.PreviewExtension),
		unary(MethodExtendTask, TodoServiceServer.ExtendTask),
		unary(MethodEligibleTasks, TodoServiceServer.EligibleTasks),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "todokeeper.proto",
}

func RegisterTodoServiceServer(s grpc.ServiceRegistrar, srv TodoServiceServer) {
	s.RegisterService(&TodoServiceDesc, srv)
}
