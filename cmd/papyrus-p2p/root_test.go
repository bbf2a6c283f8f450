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
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/libp2p/go-libp2p"
	"github.com/lotem-starkware/papyrus/block"
	"github.com/lotem-starkware/papyrus/internal/devnet"
	"github.com/lotem-starkware/papyrus/network"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// loadCommand parses args for the named subcommand and loads the app config from them
func loadCommand(t *testing.T, name string, args ...string) (*app, error) {
	t.Helper()
	a := newApp()
	root := newRootCommand(a)
	cmd, _, err := root.Find([]string{name})
	require.NoError(t, err)
	require.NoError(t, cmd.ParseFlags(args))
	return a, a.load(cmd)
}

func TestDefaultConfig(t *testing.T) {
	a, err := loadCommand(t, "fetch")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), a.config)
	assert.Equal(t, network.DefaultBlocksProtocol, a.config.Protocol)
	assert.NotNil(t, a.logger)
	query, err := a.queryFromFlags()
	require.NoError(t, err)
	assert.Equal(t, block.NewBlockQuery(nil, block.DirectionForward, 10, 0, 1), query)
}

func TestFetchFlags(t *testing.T) {
	a, err := loadCommand(
		t,
		"fetch",
		"--start", "42",
		"--direction", "backward",
		"--limit", "5",
		"--skip", "2",
		"--step", "3",
		"--log-level", "debug",
	)
	require.NoError(t, err)
	query, err := a.queryFromFlags()
	require.NoError(t, err)
	assert.Equal(
		t,
		block.NewBlockQuery(block.BlockNumber(42), block.DirectionBackward, 5, 2, 3),
		query,
	)
	assert.Equal(t, "debug", a.config.LogLevel)
}

func TestFetchFlagsInvalid(t *testing.T) {
	a, err := loadCommand(t, "fetch", "--direction", "sideways")
	require.NoError(t, err)
	_, err = a.queryFromFlags()
	assert.ErrorIs(t, err, block.ErrInvalidDirection)

	a, err = loadCommand(t, "fetch", "--start", "0xnothex")
	require.NoError(t, err)
	_, err = a.queryFromFlags()
	assert.ErrorIs(t, err, block.ErrInvalidBlockHash)
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("PAPYRUS_MAX_MESSAGE_SIZE", "2048")
	t.Setenv("PAPYRUS_PROTOCOL", "/papyrus/test/1.0.0")
	a, err := loadCommand(t, "serve")
	require.NoError(t, err)
	assert.Equal(t, 2048, a.config.MaxMessageSize)
	assert.Equal(t, "/papyrus/test/1.0.0", a.config.Protocol)
	// flags take precedence over the environment
	a, err = loadCommand(t, "serve", "--max-message-size", "4096")
	require.NoError(t, err)
	assert.Equal(t, 4096, a.config.MaxMessageSize)
}

func TestConfigFile(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "papyrus.yaml")
	data := "protocol: /papyrus/file/1.0.0\nlog-level: warn\n"
	require.NoError(t, os.WriteFile(configFile, []byte(data), 0o600))
	a, err := loadCommand(t, "serve", "--config", configFile)
	require.NoError(t, err)
	assert.Equal(t, "/papyrus/file/1.0.0", a.config.Protocol)
	assert.Equal(t, "warn", a.config.LogLevel)

	_, err = loadCommand(t, "serve", "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestConfigValidation(t *testing.T) {
	testDefs := [][]string{
		{"--protocol", "no-slash"},
		{"--protocol", ""},
		{"--max-message-size", "0"},
		{"--log-level", "loud"},
	}
	for _, args := range testDefs {
		_, err := loadCommand(t, "serve", args...)
		assert.Error(t, err, strings.Join(args, " "))
	}
}

func TestFetchCommand(t *testing.T) {
	chain, err := devnet.NewChain(20)
	require.NoError(t, err)
	h, err := libp2p.New(libp2p.ListenAddrStrings("/ip4/127.0.0.1/tcp/0"))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = h.Close()
	})
	server := network.NewServer[block.BlockQuery](h, chain.HandleBlockQuery, network.NewConfig())
	require.NoError(t, server.Start())
	t.Cleanup(func() {
		_ = server.Stop()
	})
	require.NotEmpty(t, h.Addrs())
	target := h.Addrs()[0].String() + "/p2p/" + h.ID().String()

	var out bytes.Buffer
	root := NewRootCommand()
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"fetch", target, "--start", "5", "--limit", "3"})
	require.NoError(t, root.ExecuteContext(context.Background()))
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	for i, line := range lines {
		header, err := chain.Header(block.BlockNumber(5 + i))
		require.NoError(t, err)
		assert.Equal(t, header.String(), line)
	}
}

func TestFetchCommandBadAddress(t *testing.T) {
	root := NewRootCommand()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"fetch", "not-a-multiaddr"})
	assert.Error(t, root.Execute())
}
