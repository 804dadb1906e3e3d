// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/core/types"

	"github.com/zahorodnyi/usdc-tracker/internal/chain"
	"github.com/zahorodnyi/usdc-tracker/internal/metrics"
	"github.com/zahorodnyi/usdc-tracker/internal/repository"
	"github.com/zahorodnyi/usdc-tracker/pkg/log"
	"github.com/zahorodnyi/usdc-tracker/pkg/schema"
)

const liveLogBuffer = 256

// liveWorker consumes the WebSocket log stream. It only advances the cursor
// once the catch-up task has confirmed that every block up to its head has
// been scanned; before that, a live cursor would race past unfilled
// historical ranges.
type liveWorker struct {
	repo     *repository.TransferRepository
	src      Source
	caughtUp *atomic.Bool
}

func (w *liveWorker) run(ctx context.Context) error {
	logCh := make(chan types.Log, liveLogBuffer)
	sub, err := w.src.SubscribeTransfers(ctx, logCh)
	if err != nil {
		return fmt.Errorf("LIVE > subscribe failed: %w", err)
	}
	defer sub.Unsubscribe()

	go w.catchUp(ctx)

	var cache blockTimeCache
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case err := <-sub.Err():
			if err != nil {
				return fmt.Errorf("LIVE > subscription failed: %w", err)
			}
			return errors.New("LIVE > subscription closed")

		case lg := <-logCh:
			if err := w.process(ctx, &cache, lg); err != nil {
				return err
			}
		}
	}
}

// catchUp re-runs the backfill over [stored cursor, head at entry] once.
// The caught-up flag flips to true if and only if that run completes
// without error; under error the live stream never advances the cursor and
// the next process restart runs the backfill again.
func (w *liveWorker) catchUp(ctx context.Context) {
	last, err := w.repo.GetLastBlock()
	if err != nil {
		log.Errorf("LIVE > catch-up could not read the cursor: %v", err)
		return
	}

	head, err := w.src.HeadBlock(ctx)
	if err != nil {
		log.Errorf("LIVE > catch-up could not read the head: %v", err)
		return
	}

	if uint64(last) < head {
		worker := newBackfillWorker(w.repo, w.src, "catchup")
		if _, err := worker.run(ctx, uint64(last)); err != nil {
			log.Errorf("LIVE > catch-up failed, cursor stays behind: %v", err)
			return
		}
	}

	w.caughtUp.Store(true)
	log.Info("Catch-up complete, live stream now advances the cursor")
}

func (w *liveWorker) process(ctx context.Context, cache *blockTimeCache, lg types.Log) error {
	if !completeLog(&lg) {
		log.Debugf("LIVE > dropping incomplete log in block %d", lg.BlockNumber)
		return nil
	}

	from, to, amount, ok := chain.DecodeTransfer(lg)
	if !ok {
		log.Debugf("LIVE > dropping undecodable log %s:%d", lg.TxHash.Hex(), lg.Index)
		return nil
	}

	blockTime, err := cache.resolve(ctx, w.src, lg.BlockNumber)
	if err != nil {
		log.Warnf("LIVE > no timestamp for block %d, dropping log %s:%d: %v",
			lg.BlockNumber, lg.TxHash.Hex(), lg.Index, err)
		return nil
	}

	transfer := &schema.Transfer{
		TxHash:      lg.TxHash.Hex(),
		LogIndex:    int64(lg.Index),
		BlockNumber: int64(lg.BlockNumber),
		From:        from,
		To:          to,
		Amount:      amount,
		BlockTime:   blockTime,
	}

	// Idempotent: the catch-up task may have stored this event already.
	if err := w.repo.AddTransfer(transfer); err != nil {
		return err
	}

	metrics.TransfersIngested.WithLabelValues("live").Inc()

	if w.caughtUp.Load() {
		if err := w.repo.UpdateLastBlock(int64(lg.BlockNumber)); err != nil {
			return err
		}
		metrics.LastBlock.Set(float64(lg.BlockNumber))
	}

	return nil
}
