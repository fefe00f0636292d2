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

	"github.com/blinklabs-io/surety/database/types"
	"github.com/holiman/uint256"
)

// Funds moves value between wallets of the host currency. The custody of the
// ledger is the wallet of the contract address
type Funds interface {
	// Transfer moves amount from one wallet to another. The receiver may
	// re-enter the ledger using ctx, which carries the active call frame
	Transfer(
		ctx context.Context,
		from types.Address,
		to types.Address,
		amount *uint256.Int,
	) error
	// Reverse undoes a previous Transfer without notifying the receiver
	Reverse(from types.Address, to types.Address, amount *uint256.Int) error
}

// Randomness supplies entropy for oracle index assignment. Implementations
// must be deterministic for a given call state so that tests can replay them
type Randomness interface {
	Entropy(call *Call, nonce uint64) ([]byte, error)
}

// RandomnessFunc adapts a function to the Randomness interface
type RandomnessFunc func(call *Call, nonce uint64) ([]byte, error)

func (f RandomnessFunc) Entropy(call *Call, nonce uint64) ([]byte, error) {
	return f(call, nonce)
}
