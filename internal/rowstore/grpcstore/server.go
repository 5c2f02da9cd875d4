// Copyright (c) 2025 Assettrack
// Licensed under the MIT License. See LICENSE file in the project root for details.

package grpcstore

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	aterrors "assettrack/cli/internal/errors"
	"assettrack/cli/internal/rowstore"
)

type handlerFunc func(ctx context.Context, store rowstore.Store, req *structpb.Struct) (*structpb.Struct, error)

var serviceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*rowstore.Store)(nil),
	Methods: []grpc.MethodDesc{
		unary("Read", handleRead),
		unary("Create", handleCreate),
		unary("Update", handleUpdate),
		unary("Delete", handleDelete),
	},
	Metadata: "rowstore/v1/rowstore.proto",
}

// Register exposes store on s as the RowStore service.
func Register(s grpc.ServiceRegistrar, store rowstore.Store) {
	s.RegisterService(&serviceDesc, store)
}

func unary(name string, fn handlerFunc) grpc.MethodDesc {
	full := "/" + serviceName + "/" + name
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			h := func(ctx context.Context, req any) (any, error) {
				return fn(ctx, srv.(rowstore.Store), req.(*structpb.Struct))
			}
			if interceptor == nil {
				return h(ctx, in)
			}
			return interceptor(ctx, in, &grpc.UnaryServerInfo{Server: srv, FullMethod: full}, h)
		},
	}
}

func handleRead(ctx context.Context, store rowstore.Store, req *structpb.Struct) (*structpb.Struct, error) {
	table, err := tableOf(req)
	if err != nil {
		return nil, err
	}
	rows, err := store.FetchAll(ctx, table)
	if err != nil {
		return nil, toStatus(err)
	}
	list := make([]any, len(rows))
	for i, r := range rows {
		list[i] = fieldsToMap(r)
	}
	out, err := structpb.NewStruct(map[string]any{"rows": list})
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

func handleCreate(ctx context.Context, store rowstore.Store, req *structpb.Struct) (*structpb.Struct, error) {
	table, err := tableOf(req)
	if err != nil {
		return nil, err
	}
	if err := store.Create(ctx, table, fieldsOf(req)); err != nil {
		return nil, toStatus(err)
	}
	return &structpb.Struct{}, nil
}

func handleUpdate(ctx context.Context, store rowstore.Store, req *structpb.Struct) (*structpb.Struct, error) {
	table, err := tableOf(req)
	if err != nil {
		return nil, err
	}
	pos, err := positionOf(req)
	if err != nil {
		return nil, err
	}
	if err := store.UpdateAt(ctx, table, pos, fieldsOf(req)); err != nil {
		return nil, toStatus(err)
	}
	return &structpb.Struct{}, nil
}

func handleDelete(ctx context.Context, store rowstore.Store, req *structpb.Struct) (*structpb.Struct, error) {
	table, err := tableOf(req)
	if err != nil {
		return nil, err
	}
	pos, err := positionOf(req)
	if err != nil {
		return nil, err
	}
	if err := store.DeleteAt(ctx, table, pos); err != nil {
		return nil, toStatus(err)
	}
	return &structpb.Struct{}, nil
}

func tableOf(req *structpb.Struct) (string, error) {
	t := req.GetFields()["table"].GetStringValue()
	if t == "" {
		return "", status.Error(codes.InvalidArgument, "table is required")
	}
	return t, nil
}

func positionOf(req *structpb.Struct) (int, error) {
	v, ok := req.GetFields()["position"].GetKind().(*structpb.Value_NumberValue)
	if !ok || v.NumberValue < 1 || v.NumberValue != float64(int(v.NumberValue)) {
		return 0, status.Error(codes.InvalidArgument, "position must be a positive integer")
	}
	return int(v.NumberValue), nil
}

func fieldsOf(req *structpb.Struct) rowstore.Fields {
	return fieldsFromStruct(req.GetFields()["fields"].GetStructValue())
}

// toStatus keeps the transport/rejection distinction of the backing store
// visible to remote clients.
func toStatus(err error) error {
	switch aterrors.KindOf(err) {
	case aterrors.TransportFailure:
		return status.Error(codes.Unavailable, err.Error())
	case aterrors.Validation, aterrors.StalePosition:
		return status.Error(codes.InvalidArgument, err.Error())
	case aterrors.RemoteRejection:
		return status.Error(codes.FailedPrecondition, err.Error())
	}
	return status.Error(codes.Unknown, err.Error())
}
