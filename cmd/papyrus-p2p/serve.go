// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/libp2p/go-libp2p"
	"github.com/lotem-starkware/papyrus/block"
	"github.com/lotem-starkware/papyrus/internal/devnet"
	"github.com/lotem-starkware/papyrus/network"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const (
	flagListen       = "listen"
	flagDevnetLength = "devnet-length"
	flagMetricsAddr  = "metrics-addr"

	defaultListenAddr   = "/ip4/127.0.0.1/tcp/10000"
	defaultDevnetLength = 1000
	metricsNamespace    = "papyrus"
	shutdownTimeout     = 5 * time.Second
)

func newServeCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve block headers of a development chain",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve(cmd.Context(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().String(flagListen, defaultListenAddr, "libp2p listen multiaddr")
	cmd.Flags().Uint64(flagDevnetLength, defaultDevnetLength, "number of blocks in the development chain")
	cmd.Flags().String(flagMetricsAddr, "", "address to serve Prometheus metrics on (disabled when empty)")
	return cmd
}

func (a *app) serve(ctx context.Context, out io.Writer) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	length := a.v.GetUint64(flagDevnetLength)
	chain, err := devnet.NewChain(length)
	if err != nil {
		return fmt.Errorf("build devnet chain: %w", err)
	}
	h, err := libp2p.New(libp2p.ListenAddrStrings(a.v.GetString(flagListen)))
	if err != nil {
		return fmt.Errorf("create libp2p host: %w", err)
	}
	defer h.Close()

	opts := a.config.NetworkOptions(a.logger)
	var metricsServer *http.Server
	if addr := a.v.GetString(flagMetricsAddr); addr != "" {
		opts = append(opts, network.WithMetrics(network.PrometheusMetrics(metricsNamespace)))
		metricsServer = &http.Server{
			Addr:              addr,
			Handler:           promhttp.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}
	}
	server := network.NewServer[block.BlockQuery](
		h,
		chain.HandleBlockQuery,
		network.NewConfig(opts...),
	)
	if err := server.Start(); err != nil {
		return err
	}
	a.logger.Info(
		"serving devnet chain",
		"peer", h.ID(),
		"protocol", a.config.Protocol,
		"blocks", length,
	)
	for _, addr := range h.Addrs() {
		fmt.Fprintf(out, "%s/p2p/%s\n", addr, h.ID())
	}

	eg, ctx := errgroup.WithContext(ctx)
	if metricsServer != nil {
		eg.Go(func() error {
			a.logger.Info("serving metrics", "address", metricsServer.Addr)
			if err := metricsServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
	}
	eg.Go(func() error {
		<-ctx.Done()
		a.logger.Info("shutting down")
		if metricsServer != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			_ = metricsServer.Shutdown(shutdownCtx)
		}
		return server.Stop()
	})
	return eg.Wait()
}
