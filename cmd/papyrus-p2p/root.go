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
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/lotem-starkware/papyrus/network"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	envPrefix = "PAPYRUS"

	flagConfig         = "config"
	flagLogLevel       = "log-level"
	flagProtocol       = "protocol"
	flagMaxMessageSize = "max-message-size"
)

// Config holds the settings shared by all commands. Values come from flags, PAPYRUS_*
// environment variables and an optional config file, in that order of precedence
type Config struct {
	LogLevel       string `mapstructure:"log-level"`
	Protocol       string `mapstructure:"protocol"`
	MaxMessageSize int    `mapstructure:"max-message-size"`
}

func DefaultConfig() Config {
	nc := network.NewConfig()
	return Config{
		LogLevel:       "info",
		Protocol:       nc.ProtocolName,
		MaxMessageSize: nc.MaxMessageSize,
	}
}

// ValidateBasic performs basic validation of the config values
func (c Config) ValidateBasic() error {
	if c.Protocol == "" {
		return errors.New("protocol can't be empty")
	}
	if !strings.HasPrefix(c.Protocol, "/") {
		return fmt.Errorf("protocol %q must start with /", c.Protocol)
	}
	if c.MaxMessageSize <= 0 {
		return errors.New("max-message-size must be positive")
	}
	return nil
}

// NetworkOptions returns the network options matching the config
func (c Config) NetworkOptions(logger *slog.Logger) []network.OptionFunc {
	return []network.OptionFunc{
		network.WithProtocolName(c.Protocol),
		network.WithMaxMessageSize(c.MaxMessageSize),
		network.WithLogger(logger),
	}
}

type app struct {
	v      *viper.Viper
	config Config
	logger *slog.Logger
}

func newApp() *app {
	return &app{
		v:      viper.New(),
		config: DefaultConfig(),
	}
}

func NewRootCommand() *cobra.Command {
	return newRootCommand(newApp())
}

func newRootCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "papyrus-p2p",
		Short:         "Serve and fetch Starknet blocks over libp2p",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd)
		},
	}
	defaults := DefaultConfig()
	cmd.PersistentFlags().String(flagConfig, "", "config file (yaml, toml or json)")
	cmd.PersistentFlags().String(flagLogLevel, defaults.LogLevel, "log level (debug, info, warn, error)")
	cmd.PersistentFlags().String(flagProtocol, defaults.Protocol, "protocol name negotiated on substreams")
	cmd.PersistentFlags().Int(flagMaxMessageSize, defaults.MaxMessageSize, "largest record accepted from a peer, in bytes")
	cmd.AddCommand(
		newServeCommand(a),
		newFetchCommand(a),
	)
	return cmd
}

// load binds the flags of cmd into viper, reads the config file and env, and sets up the
// logger
func (a *app) load(cmd *cobra.Command) error {
	a.v.SetEnvPrefix(envPrefix)
	a.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	a.v.AutomaticEnv()
	// cmd.Flags() includes flags from this command and all persistent flags from the parent
	if err := a.v.BindPFlags(cmd.Flags()); err != nil {
		return err
	}
	if configFile := a.v.GetString(flagConfig); configFile != "" {
		a.v.SetConfigFile(configFile)
		if err := a.v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config file: %w", err)
		}
	}
	if err := a.v.Unmarshal(&a.config); err != nil {
		return err
	}
	if err := a.config.ValidateBasic(); err != nil {
		return fmt.Errorf("error in config: %w", err)
	}
	logger, err := newLogger(cmd, a.config.LogLevel)
	if err != nil {
		return err
	}
	a.logger = logger
	return nil
}

func newLogger(cmd *cobra.Command, level string) (*slog.Logger, error) {
	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	handler := slog.NewTextHandler(
		cmd.ErrOrStderr(),
		&slog.HandlerOptions{Level: logLevel},
	)
	return slog.New(handler), nil
}
