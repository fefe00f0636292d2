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
	"fmt"

	"github.com/blinklabs-io/surety/database/types"
)

// CommitCheckpointError is returned when the metadata and blob stores
// recorded different last commits
type CommitCheckpointError struct {
	Metadata types.CommitCheckpoint
	Blob     types.CommitCheckpoint
}

func (e CommitCheckpointError) Error() string {
	return fmt.Sprintf(
		"commit checkpoint mismatch: metadata at %d (journal %d), blob at %d (journal %d)",
		e.Metadata.Timestamp,
		e.Metadata.JournalSeq,
		e.Blob.Timestamp,
		e.Blob.JournalSeq,
	)
}

// OrphanedJournal returns the journal sequence range written by a commit
// whose state never reached the metadata store. ok is false when the blob
// journal is not ahead of the metadata checkpoint
func (e CommitCheckpointError) OrphanedJournal() (from uint64, to uint64, ok bool) {
	if e.Blob.JournalSeq <= e.Metadata.JournalSeq {
		return 0, 0, false
	}
	return e.Metadata.JournalSeq + 1, e.Blob.JournalSeq, true
}

func (d *Database) checkCommitCheckpoint() error {
	metadataCheckpoint, err := d.Metadata().GetCommitCheckpoint()
	if err != nil {
		return fmt.Errorf("failed to read metadata commit checkpoint: %w", err)
	}
	blobCheckpoint, err := d.Blob().GetCommitCheckpoint()
	if err != nil {
		return fmt.Errorf("failed to read blob commit checkpoint: %w", err)
	}
	if metadataCheckpoint != blobCheckpoint {
		return CommitCheckpointError{
			Metadata: metadataCheckpoint,
			Blob:     blobCheckpoint,
		}
	}
	return nil
}

// writeCommitCheckpoint records the commit time and the journal head left by
// the transaction in both stores
func (d *Database) writeCommitCheckpoint(txn *Txn, timestamp int64) error {
	journalSeq, _, err := d.Blob().JournalHead(txn.Blob())
	if err != nil {
		return fmt.Errorf("failed to read journal head: %w", err)
	}
	checkpoint := types.CommitCheckpoint{
		Timestamp:  timestamp,
		JournalSeq: journalSeq,
	}
	if err := d.Metadata().SetCommitCheckpoint(checkpoint, txn.Metadata()); err != nil {
		return err
	}
	return d.Blob().SetCommitCheckpoint(checkpoint, txn.Blob())
}
