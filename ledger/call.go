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
	"time"

	"github.com/blinklabs-io/surety/database"
	"github.com/blinklabs-io/surety/database/models"
	"github.com/blinklabs-io/surety/database/types"
	"github.com/blinklabs-io/surety/event"
	"github.com/holiman/uint256"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const tracerName = "github.com/blinklabs-io/surety/ledger"

// Request describes a ledger call
type Request struct {
	// Value is the host currency attached to the call. It is moved from the
	// caller's wallet into custody before the call body runs
	Value  *uint256.Int
	Name   string
	Caller types.Address
	// SkipGate allows the call while the contract is not operational
	SkipGate bool
}

// CallFunc is the body of a ledger call
type CallFunc func(*Call) error

type callFrameKey struct{}

// Call is an atomic call frame. All reads and writes made through it either
// commit together or are discarded together
type Call struct {
	ctx       context.Context
	ls        *LedgerState
	txn       *database.Txn
	parent    *Call
	value     *uint256.Int
	now       time.Time
	name      string
	savepoint string
	events    []event.Event
	undo      []func() error
	depth     int
	caller    types.Address
	active    bool
}

// Caller returns the principal making the call
func (c *Call) Caller() types.Address {
	return c.caller
}

// Value returns a copy of the value attached to the call
func (c *Call) Value() *uint256.Int {
	return new(uint256.Int).Set(c.value)
}

func (c *Call) Name() string {
	return c.name
}

// Now returns the ledger time at which the outermost call started
func (c *Call) Now() time.Time {
	return c.now
}

func (c *Call) Txn() *database.Txn {
	return c.txn
}

func (c *Call) DB() *database.Database {
	return c.ls.db
}

func (c *Call) Ledger() *LedgerState {
	return c.ls
}

// Depth is 0 for an outermost call and increases for each re-entrant call
func (c *Call) Depth() int {
	return c.depth
}

// Context returns a context carrying this call frame. Calls made with it run
// as nested frames of this one
func (c *Call) Context() context.Context {
	return context.WithValue(c.ctx, callFrameKey{}, c)
}

// Emit queues a notification. Notifications are journaled and published only
// if the outermost call commits
func (c *Call) Emit(eventType event.EventType, data any) {
	evt := event.NewEvent(eventType, data)
	evt.Timestamp = c.now
	c.events = append(c.events, evt)
}

// State returns the contract state as seen by this frame
func (c *Call) State() (*models.ContractState, error) {
	state, err := c.ls.db.GetContractState(c.txn)
	if err != nil {
		return nil, err
	}
	if state == nil {
		// Only reachable from the genesis call
		state = &models.ContractState{}
	}
	return state, nil
}

func (c *Call) SetState(state *models.ContractState) error {
	return c.ls.db.SetContractState(state, c.txn)
}

// NextNonce returns the current entropy nonce and advances it. The nonce
// wraps to 0 after 250
func (c *Call) NextNonce() (uint64, error) {
	state, err := c.State()
	if err != nil {
		return 0, err
	}
	ret := state.Nonce
	state.Nonce++
	if state.Nonce > MaxNonce {
		state.Nonce = 0
	}
	if err := c.SetState(state); err != nil {
		return 0, err
	}
	return ret, nil
}

// Pay moves amount out of custody to the recipient. Custody is debited before
// the transfer, and the recipient may re-enter the ledger during it
func (c *Call) Pay(to types.Address, amount *uint256.Int) error {
	if amount.IsZero() {
		return nil
	}
	if err := c.subCustody(amount); err != nil {
		return err
	}
	contract := c.ls.config.Contract
	if err := c.ls.config.Funds.Transfer(c.Context(), contract, to, amount); err != nil {
		return fmt.Errorf("payout transfer failed: %w", err)
	}
	tmpAmount := new(uint256.Int).Set(amount)
	c.onUndo(func() error {
		return c.ls.config.Funds.Reverse(contract, to, tmpAmount)
	})
	c.ls.metrics.payouts.Add(weiToEther(amount))
	return nil
}

func (c *Call) addCustody(amount *uint256.Int) error {
	state, err := c.State()
	if err != nil {
		return err
	}
	custody := state.Custody.Uint256()
	if _, overflow := custody.AddOverflow(custody, amount); overflow {
		return NewCallError(ErrOutOfRange, "custody balance overflow")
	}
	state.Custody = types.NewAmount(custody)
	return c.SetState(state)
}

func (c *Call) subCustody(amount *uint256.Int) error {
	state, err := c.State()
	if err != nil {
		return err
	}
	custody := state.Custody.Uint256()
	if custody.Lt(amount) {
		return ErrCustodyUnderflow
	}
	custody.Sub(custody, amount)
	state.Custody = types.NewAmount(custody)
	return c.SetState(state)
}

func (c *Call) onUndo(fn func() error) {
	c.undo = append(c.undo, fn)
}

// revert runs the undo hooks of this frame in reverse order
func (c *Call) revert() error {
	var errs []error
	for i := len(c.undo) - 1; i >= 0; i-- {
		if err := c.undo[i](); err != nil {
			errs = append(errs, err)
		}
	}
	c.undo = nil
	c.events = nil
	return errors.Join(errs...)
}

// collectAttached moves the attached value from the caller into custody
func (c *Call) collectAttached() error {
	if c.value.IsZero() {
		return nil
	}
	contract := c.ls.config.Contract
	if err := c.ls.config.Funds.Transfer(c.Context(), c.caller, contract, c.value); err != nil {
		return InsufficientFundsError{Err: err}
	}
	tmpValue := new(uint256.Int).Set(c.value)
	c.onUndo(func() error {
		return c.ls.config.Funds.Reverse(c.caller, contract, tmpValue)
	})
	return c.addCustody(c.value)
}

func (c *Call) checkGate() error {
	state, err := c.State()
	if err != nil {
		return err
	}
	if !state.Operational {
		return NewCallError(
			ErrNotOperational,
			fmt.Sprintf("%s rejected: contract is not operational", c.name),
		)
	}
	return nil
}

func (ls *LedgerState) activeFrame(ctx context.Context) *Call {
	if ctx == nil {
		return nil
	}
	frame, ok := ctx.Value(callFrameKey{}).(*Call)
	if !ok || frame.ls != ls || !frame.active {
		return nil
	}
	return frame
}

// Execute runs fn as an atomic call. A call made with a context obtained from
// Call.Context runs as a nested frame inside the same transaction, and its
// failure rolls back only its own effects
func (ls *LedgerState) Execute(
	ctx context.Context,
	req Request,
	fn CallFunc,
) error {
	if ctx == nil {
		ctx = context.Background()
	}
	value := new(uint256.Int)
	if req.Value != nil {
		value.Set(req.Value)
	}
	if parent := ls.activeFrame(ctx); parent != nil {
		return ls.executeNested(parent, req, value, fn)
	}
	ctx, span := otel.Tracer(tracerName).Start(ctx, "ledger."+req.Name)
	defer span.End()
	span.SetAttributes(
		attribute.String("surety.caller", req.Caller.String()),
		attribute.String("surety.value", value.Dec()),
	)
	start := time.Now()
	events, err := ls.executeLocked(ctx, req, value, fn)
	ls.metrics.observeCall(req.Name, err, time.Since(start))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		ls.config.Logger.Debug(
			"call rejected",
			"component", "ledger",
			"call", req.Name,
			"caller", req.Caller.String(),
			"error", err,
		)
		return err
	}
	for _, evt := range events {
		ls.config.EventBus.Publish(evt.Type, evt)
	}
	return nil
}

// executeLocked runs an outermost frame and commits it while holding the
// ledger lock
func (ls *LedgerState) executeLocked(
	ctx context.Context,
	req Request,
	value *uint256.Int,
	fn CallFunc,
) ([]event.Event, error) {
	ls.Lock()
	defer ls.Unlock()
	call := &Call{
		ctx:    ctx,
		ls:     ls,
		txn:    ls.db.Transaction(true),
		value:  value,
		now:    ls.config.Clock(),
		name:   req.Name,
		caller: req.Caller,
		active: true,
	}
	events, err := ls.runFrame(call, req, fn)
	if err != nil {
		return nil, err
	}
	if err := ls.commitFrame(call, events); err != nil {
		return nil, err
	}
	return events, nil
}

// runFrame runs the call body for an outermost frame. On failure the
// transaction is rolled back and wallet movements are reversed
func (ls *LedgerState) runFrame(
	call *Call,
	req Request,
	fn CallFunc,
) ([]event.Event, error) {
	err := ls.runBody(call, req, fn)
	call.active = false
	if err != nil {
		if rbErr := call.txn.Rollback(); rbErr != nil {
			err = errors.Join(err, fmt.Errorf("rollback failed: %w", rbErr))
		}
		if undoErr := call.revert(); undoErr != nil {
			ls.config.Logger.Error(
				"failed to reverse wallet movements",
				"component", "ledger",
				"call", req.Name,
				"error", undoErr,
			)
			err = errors.Join(err, undoErr)
		}
		return nil, err
	}
	return call.events, nil
}

// runBody runs the gate and the call body. A panic in the body is returned
// as an error so the frame unwinds like any other failed call
func (ls *LedgerState) runBody(
	call *Call,
	req Request,
	fn CallFunc,
) (err error) {
	defer func() {
		if r := recover(); r != nil {
			ls.config.Logger.Error(
				"call panicked",
				"component", "ledger",
				"call", req.Name,
				"panic", r,
			)
			err = fmt.Errorf("%w: %v", ErrCallPanicked, r)
		}
	}()
	if !req.SkipGate {
		if err := call.checkGate(); err != nil {
			return err
		}
	}
	if err := call.collectAttached(); err != nil {
		return err
	}
	return fn(call)
}

// commitFrame journals the frame's notifications and commits the transaction
func (ls *LedgerState) commitFrame(call *Call, events []event.Event) error {
	for i := range events {
		seq, _, err := ls.db.AppendJournal(
			string(events[i].Type),
			events[i].Timestamp.UnixMilli(),
			events[i].Data,
			call.txn,
		)
		if err != nil {
			return ls.abortCommit(call, fmt.Errorf("journal append failed: %w", err))
		}
		events[i].Seq = seq
	}
	state, err := call.State()
	if err != nil {
		return ls.abortCommit(call, err)
	}
	if err := call.txn.Commit(); err != nil {
		return ls.abortCommit(call, err)
	}
	ls.metrics.custody.Set(amountFloat(state.Custody))
	return nil
}

func (ls *LedgerState) abortCommit(call *Call, err error) error {
	if rbErr := call.txn.Rollback(); rbErr != nil {
		err = errors.Join(err, rbErr)
	}
	if undoErr := call.revert(); undoErr != nil {
		err = errors.Join(err, undoErr)
	}
	return err
}

// executeNested runs a re-entrant call inside the parent's transaction using a
// savepoint
func (ls *LedgerState) executeNested(
	parent *Call,
	req Request,
	value *uint256.Int,
	fn CallFunc,
) error {
	call := &Call{
		ctx:       parent.ctx,
		ls:        ls,
		txn:       parent.txn,
		parent:    parent,
		value:     value,
		now:       parent.now,
		name:      req.Name,
		caller:    req.Caller,
		depth:     parent.depth + 1,
		savepoint: fmt.Sprintf("surety_frame_%d", parent.depth+1),
		active:    true,
	}
	if err := call.txn.SavePoint(call.savepoint); err != nil {
		return fmt.Errorf("failed to create savepoint: %w", err)
	}
	err := ls.runBody(call, req, fn)
	call.active = false
	if err != nil {
		if rbErr := call.txn.RollbackTo(call.savepoint); rbErr != nil {
			err = errors.Join(err, rbErr)
		}
		if relErr := call.txn.ReleaseSavePoint(call.savepoint); relErr != nil {
			err = errors.Join(err, relErr)
		}
		if undoErr := call.revert(); undoErr != nil {
			err = errors.Join(err, undoErr)
		}
		ls.metrics.observeCall(req.Name, err, 0)
		return err
	}
	if err := call.txn.ReleaseSavePoint(call.savepoint); err != nil {
		return errors.Join(err, call.revert())
	}
	parent.events = append(parent.events, call.events...)
	parent.undo = append(parent.undo, call.undo...)
	ls.metrics.observeCall(req.Name, nil, 0)
	return nil
}
