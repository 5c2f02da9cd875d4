// Copyright (c) 2025 Assettrack
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"assettrack/cli/internal/backend"
	"assettrack/cli/internal/logging"
	"assettrack/cli/internal/rowstore/grpcstore"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

var serveListen string

// serveCmd exposes the configured row store over gRPC so other machines can
// reach it with a grpc:// endpoint.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the configured row store over gRPC",
	Long: `The serve command opens the configured row store and exposes it on
--listen. Point other clients at it with:

  assettrack connect grpc://HOST:PORT

The server runs until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		w, err := openWorkspace(ctx)
		if err != nil {
			return err
		}
		defer w.Close()

		lis, err := net.Listen("tcp", serveListen)
		if err != nil {
			return fmt.Errorf("listen on %s: %w", serveListen, err)
		}
		srv := grpc.NewServer(grpc.UnaryInterceptor(logCalls))
		grpcstore.Register(srv, w.store)

		pterm.Success.Printf("Serving %s on %s\n", backend.Describe(w.info), lis.Addr())
		return serve(ctx, srv, lis)
	},
}

// serve runs srv until ctx ends, then drains in-flight calls.
func serve(ctx context.Context, srv *grpc.Server, lis net.Listener) error {
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(lis) }()

	select {
	case err := <-errCh:
		if errors.Is(err, grpc.ErrServerStopped) {
			return nil
		}
		return err
	case <-ctx.Done():
		pterm.Info.Println("Shutting down...")
		srv.GracefulStop()
		return nil
	}
}

func logCalls(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	logging.Debugf("%s %s in %s", info.FullMethod, status.Code(err), time.Since(start).Round(time.Millisecond))
	return resp, err
}

func init() {
	serveCmd.Flags().StringVar(&serveListen, "listen", "127.0.0.1:7070", "Address to listen on")
	rootCmd.AddCommand(serveCmd)
}
