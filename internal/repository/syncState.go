// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package repository

import (
	"database/sql"
	"time"

	"github.com/zahorodnyi/usdc-tracker/pkg/log"
)

// The cursor lives in a single row. Every block <= last_block has been
// fully scanned; last_block never decreases.
const syncStateID = 1

// GetLastBlock returns the stored cursor, or 0 when no cursor row exists yet.
func (r *TransferRepository) GetLastBlock() (int64, error) {
	var last int64
	err := r.builder.Select("last_block").From("sync_state").
		Where("id = ?", syncStateID).
		RunWith(r.DB).QueryRow().Scan(&last)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		log.Errorf("Error while reading sync cursor: %v", err)
		return 0, err
	}

	return last, nil
}

// UpdateLastBlock upserts the cursor row. A value not greater than the
// stored one leaves the row unchanged, so the cursor only ever moves
// forward.
func (r *TransferRepository) UpdateLastBlock(lastBlock int64) error {
	_, err := r.builder.Insert("sync_state").
		Columns("id", "last_block", "updated_at").
		Values(syncStateID, lastBlock, time.Now().UTC()).
		Suffix(`ON CONFLICT (id) DO UPDATE
			SET last_block = excluded.last_block, updated_at = excluded.updated_at
			WHERE excluded.last_block > sync_state.last_block`).
		RunWith(r.DB).Exec()
	if err != nil {
		log.Errorf("Error while updating sync cursor to %d: %v", lastBlock, err)
	}

	return err
}

// InitSyncState raises the cursor to startBlock if it is currently behind.
// A cursor at or past startBlock is left alone. Called once at startup.
func (r *TransferRepository) InitSyncState(startBlock int64) error {
	last, err := r.GetLastBlock()
	if err != nil {
		return err
	}

	if last >= startBlock {
		log.Debugf("Sync cursor already at block %d, start block %d ignored", last, startBlock)
		return nil
	}

	log.Infof("Initializing sync cursor at block %d", startBlock)
	return r.UpdateLastBlock(startBlock)
}
