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
	"github.com/blinklabs-io/surety/database/types"
)

// JournalRandomness derives entropy from the notification journal hash-chain
// head, the most recent commitment to ledger history
type JournalRandomness struct{}

func (JournalRandomness) Entropy(call *Call, nonce uint64) ([]byte, error) {
	seq, head, err := call.DB().JournalHead(call.Txn())
	if err != nil {
		return nil, err
	}
	ret := types.Keccak256(
		head.Bytes(),
		types.JournalKeyUint64ToBytes(seq),
		types.JournalKeyUint64ToBytes(nonce),
	)
	return ret.Bytes(), nil
}
