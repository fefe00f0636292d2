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
	"github.com/holiman/uint256"
)

// MaxNonce is the largest entropy nonce before it wraps to 0
const MaxNonce = 250

// Ether returns n ether expressed in wei
func Ether(n uint64) *uint256.Int {
	return new(uint256.Int).Mul(
		uint256.NewInt(n),
		uint256.NewInt(1_000_000_000_000_000_000),
	)
}

// Milliether returns n thousandths of an ether expressed in wei
func Milliether(n uint64) *uint256.Int {
	return new(uint256.Int).Mul(
		uint256.NewInt(n),
		uint256.NewInt(1_000_000_000_000_000),
	)
}
