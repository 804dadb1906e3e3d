// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package taskManager

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/zahorodnyi/usdc-tracker/internal/ingest"
	"github.com/zahorodnyi/usdc-tracker/internal/metrics"
	"github.com/zahorodnyi/usdc-tracker/internal/repository"
	"github.com/zahorodnyi/usdc-tracker/pkg/log"
)

const progressInterval = 30 * time.Second

// RegisterProgressService periodically reports how far the cursor trails
// the chain tip. A stalled stream shows up here as growing lag without any
// worker error.
func RegisterProgressService(repo *repository.TransferRepository, src ingest.Source) {
	log.Info("Register progress reporter service")

	_, err := s.NewJob(
		gocron.DurationJob(progressInterval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			last, err := repo.GetLastBlock()
			if err != nil {
				log.Errorf("Progress reporter: cursor read failed: %v", err)
				return
			}

			head, err := src.HeadBlock(ctx)
			if err != nil {
				log.Warnf("Progress reporter: head query failed: %v", err)
				return
			}

			metrics.LastBlock.Set(float64(last))
			metrics.HeadBlock.Set(float64(head))

			lag := int64(head) - last
			if lag < 0 {
				lag = 0
			}
			log.Infof("Progress: cursor at block %d, head at %d, lag %d", last, head, lag)
		}))
	if err != nil {
		log.Errorf("Progress reporter could not be registered: %v", err)
	}
}
