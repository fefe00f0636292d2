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
	"errors"
	"fmt"

	"github.com/blinklabs-io/surety/database/types"
	"gorm.io/gorm"
)

type sqliteTxn struct {
	store    *MetadataStoreSqlite
	db       *gorm.DB
	finished bool
}

// Transaction starts a new metadata transaction
func (d *MetadataStoreSqlite) Transaction() types.Txn {
	return &sqliteTxn{store: d, db: d.DB().Begin()}
}

func (t *sqliteTxn) Commit() error {
	if t.finished {
		return nil
	}
	t.finished = true
	return t.db.Commit().Error
}

func (t *sqliteTxn) Rollback() error {
	if t.finished {
		return nil
	}
	t.finished = true
	return t.db.Rollback().Error
}

// SavePoint marks a point inside the transaction that can be rolled back to
// without aborting the whole transaction
func (t *sqliteTxn) SavePoint(name string) error {
	if t.finished {
		return errors.New("transaction already finished")
	}
	return t.db.Exec("SAVEPOINT " + name).Error
}

func (t *sqliteTxn) RollbackTo(name string) error {
	if t.finished {
		return errors.New("transaction already finished")
	}
	return t.db.Exec("ROLLBACK TO SAVEPOINT " + name).Error
}

func (t *sqliteTxn) Release(name string) error {
	if t.finished {
		return errors.New("transaction already finished")
	}
	return t.db.Exec("RELEASE SAVEPOINT " + name).Error
}

// resolveDB returns the gorm handle bound to the transaction, or the store's
// handle when no transaction was provided
func (d *MetadataStoreSqlite) resolveDB(txn types.Txn) (*gorm.DB, error) {
	if txn == nil {
		return d.DB(), nil
	}
	sqlTxn, ok := txn.(*sqliteTxn)
	if !ok {
		return nil, fmt.Errorf("%w: %T", types.ErrTxnWrongType, txn)
	}
	if sqlTxn.store != d {
		return nil, errors.New("transaction from different store")
	}
	if sqlTxn.finished {
		return nil, errors.New("transaction already finished")
	}
	if sqlTxn.db.Error != nil {
		return nil, sqlTxn.db.Error
	}
	return sqlTxn.db, nil
}
