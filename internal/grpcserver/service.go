package grpcserver

import (
	"context"

	"google.golang.org/grpc"

	"slimelist/pkg/models"
)

const serviceName = "slimelist.v1.ListService"

// ListServiceServer is the watch-list API exposed over gRPC.
type ListServiceServer interface {
	ListEntries(context.Context, *ListEntriesRequest) (*ListEntriesResponse, error)
	GetEntry(context.Context, *EntryRequest) (*EntryResponse, error)
	AddEntry(context.Context, *AddEntryRequest) (*EntryResponse, error)
	UpdateEntry(context.Context, *UpdateEntryRequest) (*EntryResponse, error)
	RemoveEntry(context.Context, *EntryRequest) (*RemoveEntryResponse, error)
	GetStats(context.Context, *StatsRequest) (*models.ListStats, error)
}

var ListServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*ListServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ListEntries", Handler: unary(func(s ListServiceServer, ctx context.Context, in *ListEntriesRequest) (any, error) {
			return s.ListEntries(ctx, in)
		})},
		{MethodName: "GetEntry", Handler: unary(func(s ListServiceServer, ctx context.Context, in *EntryRequest) (any, error) {
			return s.GetEntry(ctx, in)
		})},
		{MethodName: "AddEntry", Handler: unary(func(s ListServiceServer, ctx context.Context, in *AddEntryRequest) (any, error) {
			return s.AddEntry(ctx, in)
		})},
		{MethodName: "UpdateEntry", Handler: unary(func(s ListServiceServer, ctx context.Context, in *UpdateEntryRequest) (any, error) {
			return s.UpdateEntry(ctx, in)
		})},
		{MethodName: "RemoveEntry", Handler: unary(func(s ListServiceServer, ctx context.Context, in *EntryRequest) (any, error) {
			return s.RemoveEntry(ctx, in)
		})},
		{MethodName: "GetStats", Handler: unary(func(s ListServiceServer, ctx context.Context, in *StatsRequest) (any, error) {
			return s.GetStats(ctx, in)
		})},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "slimelist/list_service",
}

func RegisterListServiceServer(s grpc.ServiceRegistrar, srv ListServiceServer) {
	s.RegisterService(&ListServiceDesc, srv)
}

// unary adapts a typed method to the grpc.MethodDesc handler signature. The
// full method name is resolved by the server, so interceptors see it through
// grpc.Method on the context.
func unary[Req any](call func(ListServiceServer, context.Context, *Req) (any, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(ListServiceServer), ctx, in)
		}
		method, _ := grpc.Method(ctx)
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: method}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(ListServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}
