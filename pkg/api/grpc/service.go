package grpcapi

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// RegisterInterpreterServer registers srv on s under ServiceName.
func RegisterInterpreterServer(s grpc.ServiceRegistrar, srv InterpreterServer) {
	s.RegisterService(&interpreterServiceDesc, srv)
}

// Method returns the full method name used to invoke method on a client
// connection, e.g. "/jpp.v1.Interpreter/Run".
func Method(method string) string {
	return "/" + ServiceName + "/" + method
}

type unaryMethod func(InterpreterServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

// unaryHandler adapts a Struct-in Struct-out method to grpc.MethodHandler.
func unaryHandler(name string, call unaryMethod) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(InterpreterServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: Method(name),
		}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(InterpreterServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var interpreterServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*InterpreterServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Run", Handler: unaryHandler("Run", InterpreterServer.Run)},
		{MethodName: "Check", Handler: unaryHandler("Check", InterpreterServer.Check)},
		{MethodName: "Tokenize", Handler: unaryHandler("Tokenize", InterpreterServer.Tokenize)},
		{MethodName: "CreateProgram", Handler: unaryHandler("CreateProgram", InterpreterServer.CreateProgram)},
		{MethodName: "GetProgram", Handler: unaryHandler("GetProgram", InterpreterServer.GetProgram)},
		{MethodName: "RunProgram", Handler: unaryHandler("RunProgram", InterpreterServer.RunProgram)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "jpp/v1/interpreter.proto",
}
