// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package ingest

import (
	"context"
	"sync/atomic"

	"github.com/zahorodnyi/usdc-tracker/internal/repository"
	"github.com/zahorodnyi/usdc-tracker/pkg/log"
)

// Ingester runs the two ingestion phases in order: one historical backfill
// from the stored cursor to the head, then the live subscription. The
// caught-up flag is the only state shared between the live stream and its
// catch-up task; it flips to true at most once per process lifetime.
type Ingester struct {
	repo     *repository.TransferRepository
	src      Source
	caughtUp atomic.Bool
}

func NewIngester(repo *repository.TransferRepository, src Source) *Ingester {
	return &Ingester{repo: repo, src: src}
}

func (ing *Ingester) Run(ctx context.Context) error {
	last, err := ing.repo.GetLastBlock()
	if err != nil {
		return err
	}

	log.Infof("Starting historical backfill at block %d", last)
	worker := newBackfillWorker(ing.repo, ing.src, "historical")
	head, err := worker.run(ctx, uint64(last))
	if err != nil {
		return err
	}

	log.Infof("Historical backfill reached block %d, starting live subscription", head)
	live := &liveWorker{repo: ing.repo, src: ing.src, caughtUp: &ing.caughtUp}
	return live.run(ctx)
}

// CaughtUp reports whether the live phase has taken over cursor advances.
func (ing *Ingester) CaughtUp() bool {
	return ing.caughtUp.Load()
}
