// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package schema

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transfer is one observed ERC-20 Transfer event.
//
// This type is used as the REST API response object and as a sqlx table row.
// Rows are created once on first observation of a matching log and are
// never mutated afterwards.
type Transfer struct {
	// The unique identifier of a transfer in the database
	ID          int64           `json:"id" db:"id"`
	TxHash      string          `json:"txHash" db:"tx_hash" example:"0xabc..."`       // Transaction hash, lowercased, 0x-prefixed
	LogIndex    int64           `json:"logIndex" db:"log_index" minimum:"0"`          // Log index within the transaction
	BlockNumber int64           `json:"blockNumber" db:"block_number" minimum:"0"`    // Block the event was mined in
	From        string          `json:"from" db:"from_address" example:"0x00...01"`   // Sender address, lowercased, 0x-prefixed
	To          string          `json:"to" db:"to_address" example:"0x00...02"`       // Recipient address, lowercased, 0x-prefixed
	Amount      decimal.Decimal `json:"amount" db:"amount" example:"1.000000"`        // Token-unit scaled amount, full precision
	BlockTime   time.Time       `json:"blockTime" db:"block_time"`                    // Header timestamp of block_number (UTC)
	CreatedAt   time.Time       `json:"createdAt" db:"created_at"`                    // Insertion timestamp, set by the store
}

// SyncState is the single-row synchronization cursor. Every block with a
// number <= LastBlock has been fully scanned; LastBlock never decreases.
type SyncState struct {
	ID        int64     `json:"id" db:"id"`
	LastBlock int64     `json:"lastBlock" db:"last_block"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}
