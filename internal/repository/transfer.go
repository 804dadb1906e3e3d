// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package repository

import (
	"strings"
	"sync"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/zahorodnyi/usdc-tracker/pkg/log"
	"github.com/zahorodnyi/usdc-tracker/pkg/schema"
)

var (
	transferRepoOnce     sync.Once
	transferRepoInstance *TransferRepository
)

type TransferRepository struct {
	DB      *sqlx.DB
	driver  string
	builder sq.StatementBuilderType
}

func GetTransferRepository() *TransferRepository {
	transferRepoOnce.Do(func() {
		db := GetConnection()

		builder := sq.StatementBuilder
		if db.Driver == "pgx" {
			builder = builder.PlaceholderFormat(sq.Dollar)
		}

		transferRepoInstance = &TransferRepository{
			DB:      db.DB,
			driver:  db.Driver,
			builder: builder,
		}
	})

	return transferRepoInstance
}

var transferColumns []string = []string{
	"id", "tx_hash", "log_index", "block_number",
	"from_address", "to_address", "amount", "block_time", "created_at",
}

func scanTransfer(row interface{ Scan(...interface{}) error }) (*schema.Transfer, error) {
	t := &schema.Transfer{}
	if err := row.Scan(
		&t.ID, &t.TxHash, &t.LogIndex, &t.BlockNumber,
		&t.From, &t.To, &t.Amount, &t.BlockTime, &t.CreatedAt); err != nil {
		return nil, err
	}

	return t, nil
}

// AddTransfer stores one transfer. The insert is idempotent on
// (tx_hash, log_index): re-inserting an already stored event does nothing
// and returns no error. The amount is stored at full precision.
func (r *TransferRepository) AddTransfer(t *schema.Transfer) error {
	res, err := r.builder.Insert("transfers").
		Columns("tx_hash", "log_index", "block_number",
			"from_address", "to_address", "amount", "block_time", "created_at").
		Values(t.TxHash, t.LogIndex, t.BlockNumber,
			t.From, t.To, t.Amount, t.BlockTime.UTC(), time.Now().UTC()).
		Suffix("ON CONFLICT (tx_hash, log_index) DO NOTHING").
		RunWith(r.DB).Exec()
	if err != nil {
		log.Errorf("Error while inserting transfer %s:%d: %v", t.TxHash, t.LogIndex, err)
		return err
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		log.Debugf("Transfer %s:%d already stored", t.TxHash, t.LogIndex)
	}

	return nil
}

// FindTransferById returns a single transfer by its database id.
// To check if no transfer was found test err == sql.ErrNoRows.
func (r *TransferRepository) FindTransferById(id int64) (*schema.Transfer, error) {
	q := r.builder.Select(transferColumns...).From("transfers").
		Where("id = ?", id)

	return scanTransfer(q.RunWith(r.DB).QueryRow())
}

// TransferFilter restricts and paginates a transfer listing.
// Nil pointer fields are not applied.
type TransferFilter struct {
	From          *string
	To            *string
	CreatedBefore *time.Time
	CreatedAfter  *time.Time
	Page          int
	Limit         int
}

const (
	defaultQueryLimit = 20
	maxQueryLimit     = 100
)

// QueryTransfers lists transfers matching the filter, newest block time
// first. The limit is clamped to [1, 100] (default 20), the page defaults
// to 1.
func (r *TransferRepository) QueryTransfers(filter *TransferFilter) ([]*schema.Transfer, error) {
	if filter == nil {
		filter = &TransferFilter{}
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultQueryLimit
	} else if limit > maxQueryLimit {
		limit = maxQueryLimit
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}

	q := r.builder.Select(transferColumns...).From("transfers").
		OrderBy("block_time DESC").
		Limit(uint64(limit)).
		Offset(uint64(page-1) * uint64(limit))

	if filter.From != nil {
		q = q.Where("from_address = ?", strings.ToLower(*filter.From))
	}
	if filter.To != nil {
		q = q.Where("to_address = ?", strings.ToLower(*filter.To))
	}
	if filter.CreatedBefore != nil {
		q = q.Where("created_at < ?", filter.CreatedBefore.UTC())
	}
	if filter.CreatedAfter != nil {
		q = q.Where("created_at > ?", filter.CreatedAfter.UTC())
	}

	rows, err := q.RunWith(r.DB).Query()
	if err != nil {
		log.Errorf("Error while running transfers query: %v", err)
		return nil, err
	}
	defer rows.Close()

	transfers := make([]*schema.Transfer, 0, limit)
	for rows.Next() {
		t, err := scanTransfer(rows)
		if err != nil {
			log.Warn("Error while scanning rows (Transfers)")
			return nil, err
		}
		transfers = append(transfers, t)
	}

	return transfers, rows.Err()
}
