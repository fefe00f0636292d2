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

package ledger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"sync"
	"time"

	"github.com/blinklabs-io/surety/database"
	"github.com/blinklabs-io/surety/database/models"
	"github.com/blinklabs-io/surety/database/types"
	"github.com/blinklabs-io/surety/event"
	"github.com/prometheus/client_golang/prometheus"
)

type LedgerStateConfig struct {
	Logger       *slog.Logger
	EventBus     *event.EventBus
	PromRegistry prometheus.Registerer
	Funds        Funds
	// Randomness defaults to the notification journal hash-chain head
	Randomness Randomness
	// Clock defaults to time.Now
	Clock         func() time.Time
	DataDir       string
	BlobCacheSize uint64
	// Owner is the only principal allowed to toggle the operational gate. It
	// is fixed when the ledger is first initialized
	Owner types.Address
	// FirstAirline is registered (unfunded) when the ledger is first initialized
	FirstAirline types.Address
	// Contract is the custody wallet address
	Contract types.Address
}

// LedgerState serializes all calls against the surety contract state
type LedgerState struct {
	sync.RWMutex
	config  LedgerStateConfig
	db      *database.Database
	metrics stateMetrics
	owner   types.Address
}

func NewLedgerState(cfg LedgerStateConfig) (*LedgerState, error) {
	if cfg.Logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		cfg.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if cfg.EventBus == nil {
		return nil, errors.New("an event bus is required")
	}
	if cfg.Funds == nil {
		return nil, errors.New("a funds provider is required")
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.Randomness == nil {
		cfg.Randomness = JournalRandomness{}
	}
	ls := &LedgerState{
		config: cfg,
	}
	// Init metrics
	ls.metrics.init(cfg.PromRegistry)
	// Load database
	db, err := database.New(&database.Config{
		Logger:        cfg.Logger,
		DataDir:       cfg.DataDir,
		PromRegistry:  cfg.PromRegistry,
		BlobCacheSize: cfg.BlobCacheSize,
	})
	if err != nil {
		var dbErr database.CommitCheckpointError
		if db == nil || !errors.As(err, &dbErr) {
			return nil, err
		}
		// The blob store commits before the metadata store, so a mismatch
		// leaves journal entries for a call whose state never landed
		logArgs := []any{"component", "ledger", "error", err}
		if from, to, ok := dbErr.OrphanedJournal(); ok {
			logArgs = append(logArgs, "orphaned_from", from, "orphaned_to", to)
		}
		cfg.Logger.Warn(
			"database commit checkpoints differ, journal may contain uncommitted calls",
			logArgs...,
		)
	}
	ls.db = db
	if err := ls.loadGenesis(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return ls, nil
}

// loadGenesis initializes the contract state on first start
func (ls *LedgerState) loadGenesis() error {
	state, err := ls.db.GetContractState(nil)
	if err != nil {
		return fmt.Errorf("failed to load contract state: %w", err)
	}
	if state != nil {
		ls.owner = state.Owner
		if state.Owner != ls.config.Owner {
			ls.config.Logger.Warn(
				"configured owner differs from the owner fixed at initialization",
				"component", "ledger",
				"owner", state.Owner.String(),
				"configured", ls.config.Owner.String(),
			)
		}
		ls.metrics.custody.Set(amountFloat(state.Custody))
		return nil
	}
	if ls.config.Owner.IsZero() {
		return errors.New("an owner address is required to initialize the ledger")
	}
	ls.owner = ls.config.Owner
	genesis := func(c *Call) error {
		if err := c.SetState(&models.ContractState{
			Owner:       ls.config.Owner,
			Operational: true,
		}); err != nil {
			return err
		}
		if ls.config.FirstAirline.IsZero() {
			return nil
		}
		if err := ls.db.SetAirline(&models.Airline{
			Address:    ls.config.FirstAirline,
			Registered: true,
		}, c.Txn()); err != nil {
			return err
		}
		c.Emit(
			event.AirlineRegisteredEventType,
			event.AirlineRegisteredEvent{
				Airline:    ls.config.FirstAirline,
				ProposedBy: ls.config.Owner,
			},
		)
		return nil
	}
	err = ls.Execute(
		context.Background(),
		Request{
			Name:     "genesis",
			Caller:   ls.config.Owner,
			SkipGate: true,
		},
		genesis,
	)
	if err != nil {
		return fmt.Errorf("failed to initialize contract state: %w", err)
	}
	ls.config.Logger.Info(
		"initialized contract state",
		"component", "ledger",
		"owner", ls.config.Owner.String(),
		"first_airline", ls.config.FirstAirline.String(),
	)
	return nil
}

func (ls *LedgerState) Close() error {
	return ls.db.Close()
}

// DB returns the underlying database
func (ls *LedgerState) DB() *database.Database {
	return ls.db
}

// Owner returns the principal fixed at initialization
func (ls *LedgerState) Owner() types.Address {
	return ls.owner
}

// Contract returns the custody wallet address
func (ls *LedgerState) Contract() types.Address {
	return ls.config.Contract
}

func (ls *LedgerState) Logger() *slog.Logger {
	return ls.config.Logger
}

func (ls *LedgerState) EventBus() *event.EventBus {
	return ls.config.EventBus
}

func (ls *LedgerState) Randomness() Randomness {
	return ls.config.Randomness
}

// Now returns the ledger clock time
func (ls *LedgerState) Now() time.Time {
	return ls.config.Clock()
}

// View runs fn against a consistent read-only view of the state. When ctx
// carries an active call frame, fn sees that frame's uncommitted writes
func (ls *LedgerState) View(
	ctx context.Context,
	fn func(*database.Txn) error,
) error {
	if frame := ls.activeFrame(ctx); frame != nil {
		return fn(frame.txn)
	}
	ls.RLock()
	defer ls.RUnlock()
	txn := ls.db.Transaction(false)
	defer txn.Release()
	return fn(txn)
}

// ContractState returns the current contract state
func (ls *LedgerState) ContractState(
	ctx context.Context,
) (*models.ContractState, error) {
	var ret *models.ContractState
	err := ls.View(ctx, func(txn *database.Txn) error {
		state, err := ls.db.GetContractState(txn)
		if err != nil {
			return err
		}
		if state == nil {
			return errors.New("contract state not initialized")
		}
		ret = state
		return nil
	})
	return ret, err
}

// EventCount returns the number of journaled notifications
func (ls *LedgerState) EventCount() (uint64, error) {
	seq, _, err := ls.db.JournalHead(nil)
	return seq, err
}

// Events returns up to limit journaled notifications starting at sequence
// number from
func (ls *LedgerState) Events(from uint64, limit int) ([]event.Event, error) {
	entries, err := ls.db.JournalEntries(from, limit, nil)
	if err != nil {
		return nil, err
	}
	ret := make([]event.Event, 0, len(entries))
	for _, entry := range entries {
		evtType := event.EventType(entry.Type)
		data := event.NewEventData(evtType)
		if data == nil {
			return nil, fmt.Errorf(
				"unknown event type %q at journal sequence %d",
				entry.Type,
				entry.Seq,
			)
		}
		if err := entry.Decode(data); err != nil {
			return nil, fmt.Errorf(
				"decode journal entry %d: %w",
				entry.Seq,
				err,
			)
		}
		ret = append(ret, event.Event{
			Type:      evtType,
			Timestamp: time.UnixMilli(entry.Timestamp),
			// Live events carry payload values rather than pointers
			Data: reflect.ValueOf(data).Elem().Interface(),
			Seq:       entry.Seq,
		})
	}
	return ret, nil
}
