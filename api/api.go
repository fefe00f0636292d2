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

package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"
)

// CallerHeader carries the hex address of the principal making a call
const CallerHeader = "X-Surety-Caller"

type ApiConfig struct {
	ListenAddress string
	// EnableFaucet exposes the wallet faucet endpoint. It should only be
	// enabled in development mode
	EnableFaucet bool
}

// Api is the JSON REST API server
type Api struct {
	config     ApiConfig
	logger     *slog.Logger
	service    Service
	httpServer *http.Server
	mu         sync.Mutex
}

func New(
	cfg ApiConfig,
	service Service,
	logger *slog.Logger,
) *Api {
	if logger == nil {
		logger = slog.New(
			slog.NewJSONHandler(io.Discard, nil),
		)
	}
	logger = logger.With("component", "api")
	if cfg.ListenAddress == "" {
		cfg.ListenAddress = ":8080"
	}
	return &Api{
		config:  cfg,
		logger:  logger,
		service: service,
	}
}

// Handler returns the API request router
func (a *Api) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", a.handleHealth)
	mux.HandleFunc("GET /api/v1/status", a.handleStatus)
	mux.HandleFunc("POST /api/v1/operational", a.handleSetOperational)
	// Airline consortium
	mux.HandleFunc("POST /api/v1/airlines", a.handleRegisterAirline)
	mux.HandleFunc("GET /api/v1/airlines/pending", a.handlePendingAirlines)
	mux.HandleFunc("POST /api/v1/airlines/funding", a.handlePayFunding)
	mux.HandleFunc("GET /api/v1/airlines/{address}", a.handleGetAirline)
	mux.HandleFunc("POST /api/v1/airlines/{address}/votes", a.handleVoteAirline)
	// Flights and insurance
	mux.HandleFunc("POST /api/v1/flights", a.handleRegisterFlight)
	mux.HandleFunc("GET /api/v1/flights", a.handleListFlights)
	mux.HandleFunc("GET /api/v1/flights/{key}", a.handleGetFlight)
	mux.HandleFunc("POST /api/v1/flights/{key}/insurance", a.handleBuyInsurance)
	mux.HandleFunc("GET /api/v1/flights/{key}/insurance", a.handleListPolicies)
	mux.HandleFunc("POST /api/v1/flights/{key}/withdrawals", a.handleWithdraw)
	mux.HandleFunc("POST /api/v1/flights/{key}/status-requests", a.handleFetchFlightStatus)
	// Oracles
	mux.HandleFunc("POST /api/v1/oracles", a.handleRegisterOracle)
	mux.HandleFunc("GET /api/v1/oracles/{address}/indexes", a.handleGetIndexes)
	mux.HandleFunc("POST /api/v1/oracles/responses", a.handleSubmitResponse)
	mux.HandleFunc("GET /api/v1/requests/{key}", a.handleGetRequest)
	// Journal and wallets
	mux.HandleFunc("GET /api/v1/events", a.handleEvents)
	mux.HandleFunc("GET /api/v1/wallets/{address}", a.handleBalance)
	if a.config.EnableFaucet {
		mux.HandleFunc("POST /api/v1/wallets/{address}/faucet", a.handleFaucet)
	}
	return mux
}

// Start starts the HTTP server in a background goroutine
func (a *Api) Start(
	ctx context.Context,
) error {
	a.mu.Lock()
	if a.httpServer != nil {
		a.mu.Unlock()
		return errors.New("server already started")
	}
	server := &http.Server{
		Addr:              a.config.ListenAddress,
		Handler:           a.Handler(),
		ReadHeaderTimeout: 60 * time.Second,
	}
	a.httpServer = server
	a.mu.Unlock()

	// Bind first so port conflicts are reported to the caller
	ln, err := net.Listen("tcp", server.Addr)
	if err != nil {
		a.mu.Lock()
		a.httpServer = nil
		a.mu.Unlock()
		return fmt.Errorf("failed to listen for API server: %w", err)
	}
	go func() {
		if err := server.Serve(ln); err != nil &&
			!errors.Is(err, http.ErrServerClosed) {
			a.logger.Error(
				"API server error",
				"error", err,
			)
		}
	}()
	a.logger.Info(
		"API listener started on " + ln.Addr().String(),
	)

	// Monitor context for cancellation
	go func() {
		<-ctx.Done()
		//nolint:contextcheck
		shutdownCtx, cancel := context.WithTimeout(
			context.Background(),
			30*time.Second,
		)
		defer cancel()
		//nolint:contextcheck
		if err := a.Stop(shutdownCtx); err != nil {
			a.logger.Error(
				"failed to shutdown API server on context cancellation",
				"error", err,
			)
		}
	}()
	return nil
}

// Stop gracefully shuts down the HTTP server
func (a *Api) Stop(
	ctx context.Context,
) error {
	a.mu.Lock()
	srv := a.httpServer
	a.httpServer = nil
	a.mu.Unlock()

	if srv != nil {
		a.logger.Debug("shutting down API server")
		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("failed to shutdown API server: %w", err)
		}
	}
	return nil
}
