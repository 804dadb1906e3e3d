// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package ingest

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/core/types"

	"github.com/zahorodnyi/usdc-tracker/internal/chain"
	"github.com/zahorodnyi/usdc-tracker/internal/metrics"
	"github.com/zahorodnyi/usdc-tracker/internal/repository"
	"github.com/zahorodnyi/usdc-tracker/pkg/log"
	"github.com/zahorodnyi/usdc-tracker/pkg/schema"
)

// historicalSleep paces successful ranges so the provider is not hammered.
const historicalSleep = 200 * time.Millisecond

// backfillWorker walks the chain from a start block to the head observed at
// entry, in adaptive block windows. The cursor is only advanced after every
// log of a window is durably stored; a crash in between causes
// re-processing, never loss.
type backfillWorker struct {
	repo  *repository.TransferRepository
	src   Source
	batch *batchSizer
	retry *retryController
	phase string

	// replaced in tests
	sleep func(time.Duration)
}

func newBackfillWorker(repo *repository.TransferRepository, src Source, phase string) *backfillWorker {
	return &backfillWorker{
		repo:  repo,
		src:   src,
		batch: newBatchSizer(defaultBatchSize),
		retry: newRetryController(),
		phase: phase,
		sleep: time.Sleep,
	}
}

// run scans [start, head] and returns the head observed at entry.
func (w *backfillWorker) run(ctx context.Context, start uint64) (uint64, error) {
	head, err := w.src.HeadBlock(ctx)
	if err != nil {
		return 0, err
	}
	metrics.HeadBlock.Set(float64(head))

	current := start
	for current <= head {
		if err := ctx.Err(); err != nil {
			return head, err
		}

		var attempt uint64
		success, skipped := false, false

		for attempt < retryTimes {
			end := min(current+w.batch.current-1, head)
			metrics.BatchSize.Set(float64(w.batch.current))

			var kind errorKind
			logs, err := w.src.FilterTransfers(ctx, current, end)
			if err == nil {
				err = w.persistRange(ctx, logs, end)
				if err == nil {
					current = end + 1
					w.batch.reset()
					w.sleep(historicalSleep)
					success = true
					break
				}
				if isConstraintViolation(err) {
					return head, err
				}

				// Store faults count as a failed range and go through
				// the same retry policy as transient RPC errors.
				kind = kindTemporary
			} else {
				kind = classifyRPCError(err)
			}

			if cerr := ctx.Err(); cerr != nil {
				return head, cerr
			}

			metrics.RPCErrors.WithLabelValues(kind.String()).Inc()
			log.Warnf("BACKFILL > range [%d, %d] failed (%s): %v", current, end, kind, err)

			outcome := w.retry.handle(kind, &current, w.batch, &attempt)
			if outcome == outcomeSkipped {
				skipped = true
				break
			}
			if outcome == outcomeGiveUp {
				break
			}
		}

		// Fatal or attempts exhausted: skip one block so a single bad
		// block cannot wedge progress.
		if !success && !skipped {
			log.Warnf("BACKFILL > giving up on block %d", current)
			current++
			w.batch.reset()
		}
	}

	return head, nil
}

// persistRange stores every decodable log of the window, then advances the
// cursor to its end. Empty windows still advance the cursor.
func (w *backfillWorker) persistRange(ctx context.Context, logs []types.Log, end uint64) error {
	var cache blockTimeCache

	for i := range logs {
		lg := &logs[i]
		if !completeLog(lg) {
			log.Debugf("BACKFILL > dropping incomplete log in block %d", lg.BlockNumber)
			continue
		}

		from, to, amount, ok := chain.DecodeTransfer(*lg)
		if !ok {
			log.Debugf("BACKFILL > dropping undecodable log %s:%d", lg.TxHash.Hex(), lg.Index)
			continue
		}

		blockTime, err := cache.resolve(ctx, w.src, lg.BlockNumber)
		if err != nil {
			// No header timestamp, no row.
			log.Warnf("BACKFILL > no timestamp for block %d, dropping log %s:%d: %v",
				lg.BlockNumber, lg.TxHash.Hex(), lg.Index, err)
			continue
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
		if err := w.repo.AddTransfer(transfer); err != nil {
			return err
		}

		metrics.TransfersIngested.WithLabelValues(w.phase).Inc()
	}

	if err := w.repo.UpdateLastBlock(int64(end)); err != nil {
		return err
	}

	metrics.LastBlock.Set(float64(end))
	return nil
}
