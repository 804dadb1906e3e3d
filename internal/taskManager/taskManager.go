// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package taskManager

import (
	"github.com/go-co-op/gocron/v2"

	"github.com/zahorodnyi/usdc-tracker/internal/ingest"
	"github.com/zahorodnyi/usdc-tracker/internal/repository"
	"github.com/zahorodnyi/usdc-tracker/pkg/log"
)

var s gocron.Scheduler

func Start(repo *repository.TransferRepository, src ingest.Source) {
	var err error
	s, err = gocron.NewScheduler()
	if err != nil {
		log.Abortf("TaskManager Start: Could not create gocron scheduler.\nError: %s\n", err.Error())
	}

	RegisterProgressService(repo, src)

	s.Start()
}

func Shutdown() {
	if s != nil {
		s.Shutdown()
	}
}
