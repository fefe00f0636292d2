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

package sqlite

import (
	"github.com/blinklabs-io/surety/database/types"
	"gorm.io/gorm/clause"
)

// The checkpoint table holds a single row
const commitCheckpointRowId = 1

type commitCheckpoint struct {
	ID         uint `gorm:"primarykey"`
	Timestamp  int64
	JournalSeq uint64
}

func (commitCheckpoint) TableName() string {
	return "commit_checkpoint"
}

// GetCommitCheckpoint returns the checkpoint of the last metadata commit, or
// the zero checkpoint for an empty store
func (d *MetadataStoreSqlite) GetCommitCheckpoint() (types.CommitCheckpoint, error) {
	var row commitCheckpoint
	result := d.DB().
		Where("id = ?", commitCheckpointRowId).
		Limit(1).
		Find(&row)
	if result.Error != nil {
		return types.CommitCheckpoint{}, result.Error
	}
	return types.CommitCheckpoint{
		Timestamp:  row.Timestamp,
		JournalSeq: row.JournalSeq,
	}, nil
}

func (d *MetadataStoreSqlite) SetCommitCheckpoint(
	checkpoint types.CommitCheckpoint,
	txn types.Txn,
) error {
	db, err := d.resolveDB(txn)
	if err != nil {
		return err
	}
	row := commitCheckpoint{
		ID:         commitCheckpointRowId,
		Timestamp:  checkpoint.Timestamp,
		JournalSeq: checkpoint.JournalSeq,
	}
	return db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns(
			[]string{"timestamp", "journal_seq"},
		),
	}).Create(&row).Error
}
