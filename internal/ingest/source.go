// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package ingest implements the two-phase transfer ingestion engine:
// a historical backfill that walks the chain from the stored cursor to the
// head in adaptive block windows, and a live subscription phase that
// consumes new logs as they are mined. Both persist through the idempotent
// repository and keep the sync cursor monotonic.
package ingest

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Source is the RPC surface the workers need. *chain.Gateway implements it.
type Source interface {
	HeadBlock(ctx context.Context) (uint64, error)
	FilterTransfers(ctx context.Context, from uint64, to uint64) ([]types.Log, error)
	BlockTime(ctx context.Context, number uint64) (time.Time, error)
	SubscribeTransfers(ctx context.Context, ch chan<- types.Log) (ethereum.Subscription, error)
}

// completeLog reports whether a log carries the fields the engine requires.
// Pending logs come without block number and transaction hash and are dropped.
func completeLog(lg *types.Log) bool {
	return lg.BlockNumber != 0 && lg.TxHash != (common.Hash{})
}

// blockTimeCache avoids repeated header fetches for consecutive logs of the
// same block. It only remembers the last resolved block.
type blockTimeCache struct {
	number uint64
	ts     time.Time
	valid  bool
}

func (c *blockTimeCache) resolve(ctx context.Context, src Source, number uint64) (time.Time, error) {
	if c.valid && c.number == number {
		return c.ts, nil
	}

	ts, err := src.BlockTime(ctx, number)
	if err != nil {
		return time.Time{}, err
	}

	c.number = number
	c.ts = ts
	c.valid = true
	return ts, nil
}
