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

package node

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/blinklabs-io/surety"
	"github.com/blinklabs-io/surety/api"
	"github.com/blinklabs-io/surety/database/types"
	"github.com/blinklabs-io/surety/internal/config"
	"github.com/blinklabs-io/surety/oracle/agent"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Node wires the surety service to its API, metrics listener and, in dev
// mode, the simulated oracle agent
type Node struct {
	cfg           *config.Config
	logger        *slog.Logger
	surety        *surety.Surety
	api           *api.Api
	agent         *agent.Agent
	metricsServer *http.Server
	shutdownTrace func(context.Context) error
}

func New(cfg *config.Config, logger *slog.Logger) (*Node, error) {
	if logger == nil {
		return nil, errors.New("a logger is required")
	}
	return &Node{
		cfg:    cfg,
		logger: logger.With("component", "node"),
	}, nil
}

func (n *Node) suretyOptions(
	registry prometheus.Registerer,
) ([]surety.ConfigOptionFunc, error) {
	owner, err := n.cfg.OwnerAddress()
	if err != nil {
		return nil, err
	}
	opts := []surety.ConfigOptionFunc{
		surety.WithLogger(n.logger),
		surety.WithDatabasePath(n.cfg.DatabasePath),
		surety.WithBlobCacheSize(n.cfg.BlobCacheSize),
		surety.WithOwner(owner),
		surety.WithPrometheusRegistry(registry),
	}
	firstAirline, ok, err := n.cfg.FirstAirlineAddress()
	if err != nil {
		return nil, err
	}
	if ok {
		opts = append(opts, surety.WithFirstAirline(firstAirline))
	}
	contract, ok, err := n.cfg.ContractAddressValue()
	if err != nil {
		return nil, err
	}
	if ok {
		opts = append(opts, surety.WithContractAddress(contract))
	}
	return opts, nil
}

// Start opens storage and starts the listeners. The API and agent stop when
// ctx is cancelled, but Stop must still be called to release storage
func (n *Node) Start(ctx context.Context, registry prometheus.Registerer) error {
	if n.cfg.Tracing {
		shutdownTrace, err := setupTracing(ctx, n.cfg.TracingStdout)
		if err != nil {
			return fmt.Errorf("setup tracing: %w", err)
		}
		n.shutdownTrace = shutdownTrace
	}
	opts, err := n.suretyOptions(registry)
	if err != nil {
		return err
	}
	n.surety, err = surety.New(opts...)
	if err != nil {
		return err
	}
	devMode := n.cfg.RunMode.IsDevMode()
	if devMode {
		if err := n.startDev(ctx); err != nil {
			return err
		}
	}
	if n.cfg.ApiPort > 0 {
		n.api = api.New(
			api.ApiConfig{
				ListenAddress: fmt.Sprintf(
					"%s:%d",
					n.cfg.BindAddr,
					n.cfg.ApiPort,
				),
				EnableFaucet: devMode,
			},
			n.surety,
			n.logger,
		)
		if err := n.api.Start(ctx); err != nil {
			return err
		}
	}
	return nil
}

// startDev funds the configured principals and starts the simulated oracles
func (n *Node) startDev(ctx context.Context) error {
	faucetAmount, err := types.ParseAmount(n.cfg.FaucetAmount)
	if err != nil {
		return fmt.Errorf("invalid faucet amount: %w", err)
	}
	funded := []types.Address{n.surety.Owner()}
	if firstAirline, ok, _ := n.cfg.FirstAirlineAddress(); ok {
		funded = append(funded, firstAirline)
	}
	for _, address := range funded {
		if err := n.surety.Fund(address, faucetAmount.Uint256()); err != nil {
			return fmt.Errorf("fund %s: %w", address, err)
		}
		n.logger.Info(
			fmt.Sprintf("funded %s with %s wei", address, faucetAmount),
		)
	}
	source := agent.RandomStatus()
	if n.cfg.OracleStatus != config.RandomStatus {
		source = agent.FixedStatus(uint8(n.cfg.OracleStatus)) //nolint:gosec // validated by config
	}
	n.agent, err = agent.New(agent.AgentConfig{
		Logger:   n.logger,
		EventBus: n.surety.EventBus(),
		Oracles:  n.surety.Oracles(),
		Source:   source,
		Funder:   n.surety,
		Count:    n.cfg.OracleCount,
	})
	if err != nil {
		return err
	}
	return n.agent.Start(ctx)
}

// Stop shuts everything down in reverse start order
func (n *Node) Stop(ctx context.Context) error {
	var errs []error
	if n.api != nil {
		if err := n.api.Stop(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if n.agent != nil {
		n.agent.Stop()
	}
	if n.surety != nil {
		if err := n.surety.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if n.shutdownTrace != nil {
		if err := n.shutdownTrace(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown tracing: %w", err))
		}
	}
	return errors.Join(errs...)
}

func Run(cfg *config.Config, logger *slog.Logger) error {
	logger.Debug(fmt.Sprintf("config: %+v", cfg), "component", "node")
	shutdownTimeout := cfg.ShutdownTimeoutDuration()

	// Wait for interrupt/termination signal
	signalCtx, signalCtxStop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer signalCtxStop()

	n, err := New(cfg, logger)
	if err != nil {
		return err
	}
	if err := n.Start(signalCtx, prometheus.DefaultRegisterer); err != nil {
		shutdownCtx, cancel := context.WithTimeout(
			context.Background(),
			shutdownTimeout,
		)
		defer cancel()
		return errors.Join(err, n.Stop(shutdownCtx))
	}

	// Metrics listener
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	metricsServer := &http.Server{
		Addr: fmt.Sprintf(
			"%s:%d",
			cfg.BindAddr,
			cfg.MetricsPort,
		),
		Handler:           metricsMux,
		ReadHeaderTimeout: 60 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	errChan := make(chan error, 1)
	if cfg.MetricsPort > 0 {
		logger.Info(
			"serving prometheus metrics on "+metricsServer.Addr,
			"component", "node",
		)
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil &&
				!errors.Is(err, http.ErrServerClosed) {
				errChan <- fmt.Errorf("metrics listener: %w", err)
			}
		}()
	}

	var runErr error
	select {
	case <-signalCtx.Done():
		logger.Info("signal received, initiating graceful shutdown", "component", "node")
	case runErr = <-errChan:
		logger.Error("node error", "error", runErr, "component", "node")
		signalCtxStop()
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		shutdownTimeout,
	)
	defer cancel()
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics server shutdown error", "error", err, "component", "node")
	}
	if err := n.Stop(shutdownCtx); err != nil {
		logger.Error("shutdown errors occurred", "error", err, "component", "node")
		return errors.Join(runErr, err)
	}
	logger.Info("shutdown complete", "component", "node")
	return runErr
}
