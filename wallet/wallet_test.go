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

package wallet_test

import (
	"context"
	"errors"
	"testing"

	"github.com/blinklabs-io/surety/database/types"
	"github.com/blinklabs-io/surety/wallet"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	alice = types.Address{0x0a}
	bob   = types.Address{0x0b}
)

func TestTransfer(t *testing.T) {
	w := wallet.NewMemory(nil)
	require.NoError(t, w.Fund(alice, uint256.NewInt(100)))
	require.NoError(t, w.Transfer(context.Background(), alice, bob, uint256.NewInt(40)))
	assert.Equal(t, uint64(60), w.Balance(alice).Uint64())
	assert.Equal(t, uint64(40), w.Balance(bob).Uint64())

	err := w.Transfer(context.Background(), alice, bob, uint256.NewInt(61))
	require.ErrorIs(t, err, wallet.ErrInsufficientBalance)
	assert.Equal(t, uint64(60), w.Balance(alice).Uint64())

	require.NoError(t, w.Reverse(alice, bob, uint256.NewInt(40)))
	assert.Equal(t, uint64(100), w.Balance(alice).Uint64())
	assert.True(t, w.Balance(bob).IsZero())
}

func TestReceiveHook(t *testing.T) {
	w := wallet.NewMemory(nil)
	require.NoError(t, w.Fund(alice, uint256.NewInt(100)))
	var seen []uint64
	w.OnReceive(bob, func(ctx context.Context, from types.Address, amount *uint256.Int) error {
		seen = append(seen, amount.Uint64())
		// Hooks may transfer again without deadlocking
		return w.Transfer(ctx, bob, alice, uint256.NewInt(1))
	})
	require.NoError(t, w.Transfer(context.Background(), alice, bob, uint256.NewInt(10)))
	assert.Equal(t, []uint64{10}, seen)
	assert.Equal(t, uint64(91), w.Balance(alice).Uint64())
	assert.Equal(t, uint64(9), w.Balance(bob).Uint64())
}

func TestReceiveHookRejects(t *testing.T) {
	w := wallet.NewMemory(nil)
	require.NoError(t, w.Fund(alice, uint256.NewInt(100)))
	rejectErr := errors.New("rejected")
	w.OnReceive(bob, func(context.Context, types.Address, *uint256.Int) error {
		return rejectErr
	})
	err := w.Transfer(context.Background(), alice, bob, uint256.NewInt(10))
	require.ErrorIs(t, err, rejectErr)
	assert.Equal(t, uint64(100), w.Balance(alice).Uint64())
	assert.True(t, w.Balance(bob).IsZero())

	w.OnReceive(bob, nil)
	require.NoError(t, w.Transfer(context.Background(), alice, bob, uint256.NewInt(10)))
}
