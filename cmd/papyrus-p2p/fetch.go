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
	"time"

	"github.com/libp2p/go-libp2p"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/lotem-starkware/papyrus/block"
	"github.com/lotem-starkware/papyrus/network"
	"github.com/spf13/cobra"
)

const (
	flagStart     = "start"
	flagDirection = "direction"
	flagLimit     = "limit"
	flagSkip      = "skip"
	flagStep      = "step"
	flagTimeout   = "timeout"
)

func newFetchCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch <peer-multiaddr>",
		Short: "Fetch a range of block headers from a peer",
		Long: "Fetch a range of block headers from a peer. The peer address must include its " +
			"peer ID, as printed by the serve command.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.fetch(cmd.Context(), cmd.OutOrStdout(), args[0])
		},
	}
	cmd.Flags().String(flagStart, "", "start block number or 0x-prefixed hash (unset by default)")
	cmd.Flags().String(flagDirection, block.DirectionForward.String(), "walk direction (forward or backward)")
	cmd.Flags().Uint64(flagLimit, 10, "maximum number of headers")
	cmd.Flags().Uint64(flagSkip, 0, "blocks skipped between headers")
	cmd.Flags().Uint64(flagStep, 1, "blocks advanced per header")
	cmd.Flags().Duration(flagTimeout, 30*time.Second, "timeout for the whole exchange")
	return cmd
}

// queryFromFlags builds the block query described by the fetch flags
func (a *app) queryFromFlags() (block.BlockQuery, error) {
	start, err := block.ParseBlockID(a.v.GetString(flagStart))
	if err != nil {
		return block.BlockQuery{}, err
	}
	direction, err := block.ParseDirection(a.v.GetString(flagDirection))
	if err != nil {
		return block.BlockQuery{}, err
	}
	return block.NewBlockQuery(
		start,
		direction,
		a.v.GetUint64(flagLimit),
		a.v.GetUint64(flagSkip),
		a.v.GetUint64(flagStep),
	), nil
}

func (a *app) fetch(ctx context.Context, out io.Writer, target string) error {
	info, err := peer.AddrInfoFromString(target)
	if err != nil {
		return fmt.Errorf("invalid peer address %q: %w", target, err)
	}
	query, err := a.queryFromFlags()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, a.v.GetDuration(flagTimeout))
	defer cancel()

	h, err := libp2p.New(libp2p.NoListenAddrs)
	if err != nil {
		return fmt.Errorf("create libp2p host: %w", err)
	}
	defer h.Close()
	if err := h.Connect(ctx, *info); err != nil {
		return fmt.Errorf("connect to %s: %w", info.ID, err)
	}

	client := network.NewClient[block.BlockHeader](
		h,
		network.NewConfig(a.config.NetworkOptions(a.logger)...),
	)
	a.logger.Debug("sending query", "peer", info.ID, "query", query)
	responses, err := client.Query(ctx, info.ID, &query)
	if err != nil {
		return err
	}
	defer responses.Close()
	count := 0
	for {
		header, err := responses.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return fmt.Errorf("read response: %w", err)
		}
		fmt.Fprintln(out, header)
		count++
	}
	a.logger.Info("fetch complete", "peer", info.ID, "headers", count)
	return nil
}
