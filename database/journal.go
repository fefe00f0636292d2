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

package database

import (
	"errors"
	"fmt"

	"github.com/blinklabs-io/surety/database/types"
	"github.com/fxamacker/cbor/v2"
)

// JournalEntry is a decoded notification journal record
type JournalEntry struct {
	Type      string
	Payload   cbor.RawMessage
	Seq       uint64
	Timestamp int64
}

// Decode unmarshals the entry payload into dest
func (e *JournalEntry) Decode(dest any) error {
	return cbor.Unmarshal(e.Payload, dest)
}

type journalRecord struct {
	_         struct{} `cbor:",toarray"`
	Type      string
	Timestamp int64
	Payload   cbor.RawMessage
}

// AppendJournal encodes the payload and appends it to the notification
// journal, returning the new sequence number and hash-chain head
func (d *Database) AppendJournal(
	entryType string,
	timestamp int64,
	payload any,
	txn *Txn,
) (uint64, types.Hash, error) {
	if txn == nil {
		return 0, types.Hash{}, types.ErrNilTxn
	}
	payloadCbor, err := cbor.Marshal(payload)
	if err != nil {
		return 0, types.Hash{}, fmt.Errorf("encode journal payload: %w", err)
	}
	data, err := cbor.Marshal(journalRecord{
		Type:      entryType,
		Timestamp: timestamp,
		Payload:   payloadCbor,
	})
	if err != nil {
		return 0, types.Hash{}, fmt.Errorf("encode journal record: %w", err)
	}
	return d.blob.AppendJournal(txn.Blob(), data)
}

// JournalHead returns the latest journal sequence number and hash-chain head
func (d *Database) JournalHead(txn *Txn) (uint64, types.Hash, error) {
	if txn == nil {
		txn = NewBlobOnlyTxn(d, false)
		defer txn.Release()
	}
	return d.blob.JournalHead(txn.Blob())
}

// JournalEntries returns up to limit entries starting at sequence number from.
// Sequence numbers start at 1
func (d *Database) JournalEntries(
	from uint64,
	limit int,
	txn *Txn,
) ([]JournalEntry, error) {
	if txn == nil {
		txn = NewBlobOnlyTxn(d, false)
		defer txn.Release()
	}
	if txn.Blob() == nil {
		return nil, errors.New("journal requires a blob transaction")
	}
	records, err := d.blob.JournalRange(txn.Blob(), from, limit)
	if err != nil {
		return nil, err
	}
	ret := make([]JournalEntry, 0, len(records))
	for _, record := range records {
		var tmp journalRecord
		if err := cbor.Unmarshal(record.Data, &tmp); err != nil {
			return nil, fmt.Errorf(
				"decode journal record %d: %w",
				record.Seq,
				err,
			)
		}
		ret = append(ret, JournalEntry{
			Seq:       record.Seq,
			Type:      tmp.Type,
			Timestamp: tmp.Timestamp,
			Payload:   tmp.Payload,
		})
	}
	return ret, nil
}
