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

package blob

import (
	"github.com/blinklabs-io/surety/database/plugin/blob/badger"
	"github.com/blinklabs-io/surety/database/types"
)

type BlobStore interface {
	Close() error
	NewTransaction(bool) types.Txn
	Get(types.Txn, []byte) ([]byte, error)
	Set(types.Txn, []byte, []byte) error

	// Our specific functions
	GetCommitCheckpoint() (types.CommitCheckpoint, error)
	SetCommitCheckpoint(types.CommitCheckpoint, types.Txn) error
	AppendJournal(types.Txn, []byte) (uint64, types.Hash, error)
	JournalHead(types.Txn) (uint64, types.Hash, error)
	JournalRange(types.Txn, uint64, int) ([]badger.JournalRecord, error)
}

var _ BlobStore = (*badger.BlobStoreBadger)(nil)

// New opens the badger blob store with the given options
func New(opts ...badger.BlobStoreBadgerOptionFunc) (BlobStore, error) {
	store, err := badger.New(opts...)
	if err != nil {
		return nil, err
	}
	return store, nil
}
