// Copyright (c) 2025 Assettrack
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package grpcstore carries the row store contract over gRPC.
//
// The service rowstore.v1.RowStore has four unary methods (Read, Create,
// Update, Delete). Requests and responses are google.protobuf.Struct values so
// no generated code is needed on either side:
//
//	Read   {table}                      -> {rows: [{field: value}, ...]}
//	Create {table, fields}              -> {}
//	Update {table, position, fields}    -> {}
//	Delete {table, position}            -> {}
//
// Errors travel as gRPC status codes. Unavailable, DeadlineExceeded and
// Canceled mean the outcome is unknown and map to transport_failure; every
// other code means the server answered and maps to remote_rejection.
package grpcstore

import (
	"context"
	"crypto/tls"
	"net"
	"strconv"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	aterrors "assettrack/cli/internal/errors"
	"assettrack/cli/internal/rowstore"
)

const (
	serviceName  = "rowstore.v1.RowStore"
	readMethod   = "/" + serviceName + "/Read"
	createMethod = "/" + serviceName + "/Create"
	updateMethod = "/" + serviceName + "/Update"
	deleteMethod = "/" + serviceName + "/Delete"
)

// Client implements rowstore.Store against a remote RowStore service.
type Client struct {
	conn *grpc.ClientConn
}

// Dial creates a client for addr. With secure set the connection uses TLS
// and the port defaults to 443.
func Dial(addr string, secure bool, opts ...grpc.DialOption) (*Client, error) {
	target := addr
	if secure {
		host := addr
		if h, _, err := net.SplitHostPort(addr); err == nil {
			host = h
		} else {
			target = net.JoinHostPort(addr, "443")
		}
		tlsCfg := &tls.Config{ServerName: host, MinVersion: tls.VersionTLS12}
		opts = append(opts, grpc.WithTransportCredentials(credentials.NewTLS(tlsCfg)))
	} else {
		opts = append(opts, grpc.WithTransportCredentials(insecure.NewCredentials()))
	}
	conn, err := grpc.NewClient(target, opts...)
	if err != nil {
		return nil, aterrors.Wrap(aterrors.TransportFailure, "dial "+addr, err)
	}
	return &Client{conn: conn}, nil
}

// NewClient wraps an existing connection.
func NewClient(conn *grpc.ClientConn) *Client { return &Client{conn: conn} }

// Close closes the connection.
func (c *Client) Close() error { return c.conn.Close() }

// FetchAll reads every row of table.
func (c *Client) FetchAll(ctx context.Context, table string) ([]rowstore.Fields, error) {
	out, err := c.invoke(ctx, readMethod, "read "+table, map[string]any{"table": table})
	if err != nil {
		return nil, err
	}
	list := out.GetFields()["rows"].GetListValue()
	rows := make([]rowstore.Fields, 0, len(list.GetValues()))
	for _, v := range list.GetValues() {
		rows = append(rows, fieldsFromStruct(v.GetStructValue()))
	}
	return rows, nil
}

// Create appends a row.
func (c *Client) Create(ctx context.Context, table string, fields rowstore.Fields) error {
	_, err := c.invoke(ctx, createMethod, "create in "+table, map[string]any{
		"table":  table,
		"fields": fieldsToMap(fields),
	})
	return err
}

// UpdateAt replaces the row at position.
func (c *Client) UpdateAt(ctx context.Context, table string, position int, fields rowstore.Fields) error {
	_, err := c.invoke(ctx, updateMethod, "update "+table+" row "+strconv.Itoa(position), map[string]any{
		"table":    table,
		"position": position,
		"fields":   fieldsToMap(fields),
	})
	return err
}

// DeleteAt removes the row at position.
func (c *Client) DeleteAt(ctx context.Context, table string, position int) error {
	_, err := c.invoke(ctx, deleteMethod, "delete "+table+" row "+strconv.Itoa(position), map[string]any{
		"table":    table,
		"position": position,
	})
	return err
}

func (c *Client) invoke(ctx context.Context, method, op string, req map[string]any) (*structpb.Struct, error) {
	in, err := structpb.NewStruct(req)
	if err != nil {
		return nil, aterrors.Wrap(aterrors.Validation, op, err)
	}
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, method, in, out); err != nil {
		return nil, fromStatus(op, err)
	}
	return out, nil
}

func fromStatus(op string, err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return aterrors.Wrap(aterrors.TransportFailure, op, err)
	}
	switch st.Code() {
	case codes.Unavailable, codes.DeadlineExceeded, codes.Canceled:
		return aterrors.Wrap(aterrors.TransportFailure, op, err)
	}
	return aterrors.New(aterrors.RemoteRejection, op+": "+st.Message())
}

func fieldsToMap(f rowstore.Fields) map[string]any {
	out := make(map[string]any, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

func fieldsFromStruct(s *structpb.Struct) rowstore.Fields {
	out := make(rowstore.Fields, len(s.GetFields()))
	for k, v := range s.GetFields() {
		switch x := v.GetKind().(type) {
		case *structpb.Value_StringValue:
			out[k] = x.StringValue
		case *structpb.Value_NumberValue:
			out[k] = strconv.FormatFloat(x.NumberValue, 'f', -1, 64)
		case *structpb.Value_BoolValue:
			out[k] = strconv.FormatBool(x.BoolValue)
		default:
			out[k] = ""
		}
	}
	return out
}
