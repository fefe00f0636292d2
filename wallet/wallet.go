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

// Package wallet holds host-currency balances for principals interacting with
// the ledger
package wallet

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/blinklabs-io/surety/database/types"
	"github.com/holiman/uint256"
)

var ErrInsufficientBalance = errors.New("insufficient wallet balance")

// ReceiveHook is invoked after a wallet receives a transfer. The context
// carries the ledger call frame that made the transfer, so the hook can
// re-enter the ledger. Returning an error reverses the transfer
type ReceiveHook func(ctx context.Context, from types.Address, amount *uint256.Int) error

// Memory is an in-process wallet store
type Memory struct {
	logger   *slog.Logger
	balances map[types.Address]*uint256.Int
	hooks    map[types.Address]ReceiveHook
	mu       sync.Mutex
}

func NewMemory(logger *slog.Logger) *Memory {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &Memory{
		logger:   logger,
		balances: make(map[types.Address]*uint256.Int),
		hooks:    make(map[types.Address]ReceiveHook),
	}
}

// Fund mints amount into the wallet of addr
func (m *Memory) Fund(addr types.Address, amount *uint256.Int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	balance := m.balance(addr)
	sum, overflow := new(uint256.Int).AddOverflow(balance, amount)
	if overflow {
		return fmt.Errorf("balance of %s overflows", addr)
	}
	balance.Set(sum)
	m.logger.Debug(
		"wallet funded",
		"component", "wallet",
		"address", addr.String(),
		"amount", amount.Dec(),
	)
	return nil
}

// Balance returns a copy of the balance of addr
func (m *Memory) Balance(addr types.Address) *uint256.Int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if balance, ok := m.balances[addr]; ok {
		return new(uint256.Int).Set(balance)
	}
	return new(uint256.Int)
}

// OnReceive registers a hook that runs whenever addr receives a transfer. A
// nil hook removes it
func (m *Memory) OnReceive(addr types.Address, hook ReceiveHook) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if hook == nil {
		delete(m.hooks, addr)
		return
	}
	m.hooks[addr] = hook
}

func (m *Memory) Transfer(
	ctx context.Context,
	from types.Address,
	to types.Address,
	amount *uint256.Int,
) error {
	if err := m.move(from, to, amount); err != nil {
		return err
	}
	m.mu.Lock()
	hook := m.hooks[to]
	m.mu.Unlock()
	// The hook runs without the wallet lock held so it can transfer again
	if hook != nil {
		if err := hook(ctx, from, amount); err != nil {
			if revErr := m.move(to, from, amount); revErr != nil {
				return errors.Join(err, revErr)
			}
			return fmt.Errorf("receiver rejected transfer: %w", err)
		}
	}
	return nil
}

func (m *Memory) Reverse(
	from types.Address,
	to types.Address,
	amount *uint256.Int,
) error {
	return m.move(to, from, amount)
}

func (m *Memory) move(
	from types.Address,
	to types.Address,
	amount *uint256.Int,
) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	src := m.balance(from)
	if src.Lt(amount) {
		return fmt.Errorf(
			"%w: %s holds %s, needs %s",
			ErrInsufficientBalance,
			from,
			src.Dec(),
			amount.Dec(),
		)
	}
	dst := m.balance(to)
	if _, overflow := new(uint256.Int).AddOverflow(dst, amount); overflow {
		return fmt.Errorf("balance of %s overflows", to)
	}
	src.Sub(src, amount)
	dst.Add(dst, amount)
	return nil
}

// balance returns the mutable balance entry, creating it if needed. The
// caller must hold the lock
func (m *Memory) balance(addr types.Address) *uint256.Int {
	balance, ok := m.balances[addr]
	if !ok {
		balance = new(uint256.Int)
		m.balances[addr] = balance
	}
	return balance
}
