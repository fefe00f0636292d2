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
	badger "github.com/dgraph-io/badger/v4"
)

// JournalRecord is a raw journal entry as stored in the blob store
type JournalRecord struct {
	Data []byte
	Seq  uint64
}

// JournalHead returns the sequence number and hash-chain head of the last
// journal record visible to the transaction. An empty journal returns zero values
func (d *BlobStoreBadger) JournalHead(
	txn types.Txn,
) (uint64, types.Hash, error) {
	var head types.Hash
	seqVal, err := d.Get(txn, []byte(types.JournalSeqKey))
	if err != nil {
		if errors.Is(err, types.ErrBlobKeyNotFound) {
			return 0, head, nil
		}
		return 0, head, err
	}
	if len(seqVal) != 8 {
		return 0, head, fmt.Errorf("corrupt journal sequence: %x", seqVal)
	}
	headVal, err := d.Get(txn, []byte(types.JournalHeadKey))
	if err != nil {
		return 0, head, fmt.Errorf("failed to read journal head: %w", err)
	}
	copy(head[:], headVal)
	return binary.BigEndian.Uint64(seqVal), head, nil
}

// AppendJournal writes a record at the next sequence number and advances the
// hash chain: head' = keccak256(head || seq || data)
func (d *BlobStoreBadger) AppendJournal(
	txn types.Txn,
	data []byte,
) (uint64, types.Hash, error) {
	seq, head, err := d.JournalHead(txn)
	if err != nil {
		return 0, head, err
	}
	seq++
	seqBytes := types.JournalKeyUint64ToBytes(seq)
	newHead := types.Keccak256(head[:], seqBytes, data)
	if err := d.Set(txn, types.JournalEventKey(seq), data); err != nil {
		return 0, head, err
	}
	if err := d.Set(txn, []byte(types.JournalSeqKey), seqBytes); err != nil {
		return 0, head, err
	}
	if err := d.Set(txn, []byte(types.JournalHeadKey), newHead[:]); err != nil {
		return 0, head, err
	}
	if d.metrics != nil {
		d.metrics.journalAppends.Inc()
		d.metrics.journalBytes.Add(float64(len(data)))
	}
	return seq, newHead, nil
}

// JournalRange returns up to limit records starting at sequence number from
func (d *BlobStoreBadger) JournalRange(
	txn types.Txn,
	from uint64,
	limit int,
) ([]JournalRecord, error) {
	badgerTxn, err := d.validateTxn(txn)
	if err != nil {
		return nil, err
	}
	prefix := []byte(types.JournalEventKeyPrefix)
	iter := badgerTxn.tx.NewIterator(badger.IteratorOptions{
		Prefix:         prefix,
		PrefetchValues: true,
		PrefetchSize:   min(max(limit, 1), 100),
	})
	defer iter.Close()
	ret := []JournalRecord{}
	for iter.Seek(types.JournalEventKey(from)); iter.ValidForPrefix(prefix); iter.Next() {
		if limit > 0 && len(ret) >= limit {
			break
		}
		item := iter.Item()
		key := item.KeyCopy(nil)
		if len(key) != len(prefix)+8 {
			return nil, fmt.Errorf("corrupt journal key: %x", key)
		}
		val, err := item.ValueCopy(nil)
		if err != nil {
			return nil, err
		}
		ret = append(ret, JournalRecord{
			Seq:  binary.BigEndian.Uint64(key[len(prefix):]),
			Data: val,
		})
	}
	return ret, nil
}
