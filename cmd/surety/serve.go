// Copyright 2025 Blink Labs Software
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
	"log/slog"
	"os"

	"github.com/blinklabs-io/surety/internal/config"
	"github.com/blinklabs-io/surety/internal/node"
	"github.com/spf13/cobra"
)

func serveRun(_ *cobra.Command, _ []string, cfg *config.Config) {
	logger := commonRun()
	if err := node.Run(cfg, logger); err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
}

func serveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the insurance API service",
		Run: func(cmd *cobra.Command, args []string) {
			cfg := config.FromContext(cmd.Context())
			if cfg == nil {
				slog.Error("no config found in context")
				os.Exit(1)
			}
			serveRun(cmd, args, cfg)
		},
	}
	return cmd
}

func devCommand() *cobra.Command {
	devFlags := struct {
		oracles int
		status  int
	}{}
	cmd := &cobra.Command{
		Use:   "dev",
		Short: "Run with simulated oracles and a wallet faucet",
		Run: func(cmd *cobra.Command, args []string) {
			cfg := config.FromContext(cmd.Context())
			if cfg == nil {
				slog.Error("no config found in context")
				os.Exit(1)
			}
			cfg.RunMode = config.RunModeDev
			if cmd.Flags().Changed("oracles") {
				cfg.OracleCount = devFlags.oracles
			}
			if cmd.Flags().Changed("status") {
				cfg.OracleStatus = devFlags.status
			}
			if err := cfg.Validate(); err != nil {
				slog.Error(err.Error())
				os.Exit(1)
			}
			serveRun(cmd, args, cfg)
		},
	}
	cmd.Flags().
		IntVar(&devFlags.oracles, "oracles", 0, "number of simulated oracles")
	cmd.Flags().
		IntVar(&devFlags.status, "status", config.RandomStatus, "status code reported by simulated oracles, -1 for random")
	return cmd
}
