// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/zahorodnyi/usdc-tracker/internal/api"
	"github.com/zahorodnyi/usdc-tracker/internal/chain"
	"github.com/zahorodnyi/usdc-tracker/internal/config"
	"github.com/zahorodnyi/usdc-tracker/internal/ingest"
	"github.com/zahorodnyi/usdc-tracker/internal/repository"
	"github.com/zahorodnyi/usdc-tracker/internal/taskManager"
	"github.com/zahorodnyi/usdc-tracker/pkg/log"
)

const (
	dbConnectRetries = 10
	dbConnectWait    = 2 * time.Second
)

func main() {
	var flagLogLevel string
	var flagLogDateTime bool
	flag.StringVar(&flagLogLevel, "loglevel", "info", "Sets the logging level: `[debug, info (default), warn, err, fatal, crit]`")
	flag.BoolVar(&flagLogDateTime, "logdate", false, "Set this flag to add date and time to log messages")
	flag.Parse()

	log.Init(flagLogLevel, flagLogDateTime)

	if err := config.Init(); err != nil {
		log.Abortf("MAIN > Configuration error: %s", err.Error())
	}
	log.Info("Loaded config, starting USDC tracker")

	// The store may still be coming up, connect with bounded retry.
	connected := false
	for try := 1; try <= dbConnectRetries; try++ {
		if err := repository.Connect("pgx", config.Keys.DatabaseURL); err != nil {
			log.Warnf("MAIN > Database not ready yet (%d/%d): %v", try, dbConnectRetries, err)
			time.Sleep(dbConnectWait)
			continue
		}
		connected = true
		break
	}
	if !connected {
		log.Abortf("MAIN > Could not connect to database after %d attempts", dbConnectRetries)
	}
	log.Info("Connected to database")

	repo := repository.GetTransferRepository()
	if err := repo.InitSyncState(int64(config.Keys.StartBlock)); err != nil {
		log.Abortf("MAIN > Could not initialize sync cursor: %s", err.Error())
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	gateway, err := chain.NewGateway(ctx, config.Keys.RpcHTTP, config.Keys.RpcWS,
		common.HexToAddress(config.Keys.Contract))
	if err != nil {
		log.Abortf("MAIN > %s", err.Error())
	}
	defer gateway.Close()

	r := mux.NewRouter()
	restApi := &api.RestApi{Repository: repo}
	restApi.MountRoutes(r)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	r.Use(handlers.CompressHandler)
	r.Use(handlers.RecoveryHandler(handlers.PrintRecoveryStack(true)))
	handler := handlers.CustomLoggingHandler(io.Discard, r, func(_ io.Writer, params handlers.LogFormatterParams) {
		log.Debugf("%s %s (%d, %.02fkb, %dms)",
			params.Request.Method, params.URL.RequestURI(),
			params.StatusCode, float32(params.Size)/1024,
			time.Since(params.TimeStamp).Milliseconds())
	})

	server := &http.Server{
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		Handler:      handler,
		Addr:         fmt.Sprintf(":%d", config.Keys.ServerPort),
	}

	fatalErr := make(chan error, 2)

	ingester := ingest.NewIngester(repo, gateway)
	go func() {
		fatalErr <- ingester.Run(ctx)
	}()

	go func() {
		log.Infof("HTTP server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fatalErr <- err
		}
	}()

	taskManager.Start(repo, gateway)

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	var workerErr error
	select {
	case sig := <-sigs:
		log.Infof("Received %s, shutting down", sig)
	case workerErr = <-fatalErr:
		if workerErr != nil {
			log.Errorf("MAIN > Worker failed: %s", workerErr.Error())
		}
	}

	cancel()
	taskManager.Shutdown()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warnf("MAIN > HTTP server shutdown: %s", err.Error())
	}

	if workerErr != nil {
		os.Exit(1)
	}
}
