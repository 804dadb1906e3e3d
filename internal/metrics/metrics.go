// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TransfersIngested = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "usdc_tracker_transfers_ingested_total",
		Help: "Number of transfer events persisted, by ingestion phase.",
	}, []string{"phase"})

	RPCErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "usdc_tracker_rpc_errors_total",
		Help: "Number of classified RPC failures, by kind.",
	}, []string{"kind"})

	LastBlock = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "usdc_tracker_last_block",
		Help: "The stored synchronization cursor.",
	})

	HeadBlock = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "usdc_tracker_head_block",
		Help: "The most recently observed chain tip.",
	})

	BatchSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "usdc_tracker_batch_size",
		Help: "The current adaptive backfill window width in blocks.",
	})
)
