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

package badger

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/blinklabs-io/surety/database/types"
)

// A checkpoint is stored as the big-endian timestamp followed by the
// big-endian journal sequence
const commitCheckpointLen = 16

// GetCommitCheckpoint returns the checkpoint of the last blob commit, or the
// zero checkpoint for an empty store
func (d *BlobStoreBadger) GetCommitCheckpoint() (types.CommitCheckpoint, error) {
	txn := d.NewTransaction(false)
	defer txn.Rollback() //nolint:errcheck

	val, err := d.Get(txn, []byte(types.CommitCheckpointKey))
	if err != nil {
		if errors.Is(err, types.ErrBlobKeyNotFound) {
			return types.CommitCheckpoint{}, nil
		}
		return types.CommitCheckpoint{}, err
	}
	if len(val) != commitCheckpointLen {
		return types.CommitCheckpoint{}, fmt.Errorf(
			"corrupt commit checkpoint: %x",
			val,
		)
	}
	return types.CommitCheckpoint{
		Timestamp:  int64(binary.BigEndian.Uint64(val[:8])), //nolint:gosec // written from an int64
		JournalSeq: binary.BigEndian.Uint64(val[8:]),
	}, nil
}

func (d *BlobStoreBadger) SetCommitCheckpoint(
	checkpoint types.CommitCheckpoint,
	txn types.Txn,
) error {
	if txn == nil {
		return types.ErrNilTxn
	}
	val := make([]byte, 0, commitCheckpointLen)
	val = binary.BigEndian.AppendUint64(val, uint64(checkpoint.Timestamp)) //nolint:gosec // round-trips through Get
	val = binary.BigEndian.AppendUint64(val, checkpoint.JournalSeq)
	return d.Set(txn, []byte(types.CommitCheckpointKey), val)
}
