// Copyright (c) 2025 Assettrack
// Licensed under the MIT License. See LICENSE file in the project root for details.

package grpcstore

import (
	"context"
	"net"
	"reflect"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"

	aterrors "assettrack/cli/internal/errors"
	"assettrack/cli/internal/rowstore"
	"assettrack/cli/internal/rowstore/memstore"
	"assettrack/cli/internal/rowstore/storetest"
)

func startServer(t *testing.T, store rowstore.Store) (*Client, *grpc.Server) {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	Register(srv, store)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	c := NewClient(conn)
	t.Cleanup(func() { _ = c.Close() })
	return c, srv
}

func TestRoundTrip(t *testing.T) {
	mem := memstore.New()
	mem.Seed("DATA", rowstore.Fields{"code": "A1", "name": "Chair"}, rowstore.Fields{"code": "A2", "name": "Desk"})
	c, _ := startServer(t, mem)
	ctx := context.Background()

	rows, err := c.FetchAll(ctx, "DATA")
	if err != nil {
		t.Fatalf("FetchAll() error = %v", err)
	}
	if !reflect.DeepEqual(rows, mem.Rows("DATA")) {
		t.Errorf("rows = %v, want %v", rows, mem.Rows("DATA"))
	}

	if err := c.Create(ctx, "DATA", rowstore.Fields{"code": "A3", "name": "Fan"}); err != nil {
		t.Fatal(err)
	}
	if err := c.UpdateAt(ctx, "DATA", 1, rowstore.Fields{"code": "A1", "name": "Armchair"}); err != nil {
		t.Fatal(err)
	}
	if err := c.DeleteAt(ctx, "DATA", 2); err != nil {
		t.Fatal(err)
	}

	want := []rowstore.Fields{{"code": "A1", "name": "Armchair"}, {"code": "A3", "name": "Fan"}}
	if got := mem.Rows("DATA"); !reflect.DeepEqual(got, want) {
		t.Errorf("store rows = %v, want %v", got, want)
	}
}

func TestErrorKindsSurviveTheWire(t *testing.T) {
	mem := memstore.New()
	mem.FailWhen(func(c memstore.Call) error {
		if c.Op == memstore.OpCreate {
			return aterrors.New(aterrors.TransportFailure, "upstream timeout")
		}
		return nil
	})
	c, _ := startServer(t, mem)
	ctx := context.Background()

	if err := c.DeleteAt(ctx, "DATA", 4); !aterrors.Is(err, aterrors.RemoteRejection) {
		t.Errorf("DeleteAt(out of range) = %v, want remote_rejection", err)
	}
	if err := c.Create(ctx, "DATA", rowstore.Fields{"code": "A1"}); !aterrors.Is(err, aterrors.TransportFailure) {
		t.Errorf("Create() = %v, want transport_failure", err)
	}
	if err := c.DeleteAt(ctx, "DATA", 0); !aterrors.Is(err, aterrors.RemoteRejection) {
		t.Errorf("DeleteAt(0) = %v, want remote_rejection", err)
	}
}

func TestStoppedServerIsTransportFailure(t *testing.T) {
	c, srv := startServer(t, memstore.New())
	srv.Stop()

	if _, err := c.FetchAll(context.Background(), "DATA"); !aterrors.Is(err, aterrors.TransportFailure) {
		t.Errorf("FetchAll() = %v, want transport_failure", err)
	}
}

func TestContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) rowstore.Store {
		c, _ := startServer(t, memstore.New())
		return c
	})
}
