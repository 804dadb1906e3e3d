// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"

	"github.com/zahorodnyi/usdc-tracker/pkg/log"
)

// Config holds the process configuration. All values come from the
// environment; a .env file in the working directory is honored if present.
type Config struct {
	// HTTP RPC endpoint used for eth_getLogs, eth_getBlockByNumber and eth_blockNumber.
	RpcHTTP string

	// WebSocket RPC endpoint used for eth_subscribe("logs", ...).
	RpcWS string

	// 0x-prefixed 20-byte address of the tracked token contract.
	Contract string

	// Initial cursor floor. The stored cursor is raised to this value at startup.
	StartBlock uint64

	// Store connection string (Postgres DSN).
	DatabaseURL string

	// Port the read API listens on.
	ServerPort int
}

var Keys Config

// Init loads the configuration from the environment. Missing or invalid
// required variables are startup errors.
func Init() error {
	if err := godotenv.Load(); err == nil {
		log.Debug("Loaded environment from .env file")
	}

	var err error
	if Keys.RpcHTTP, err = lookup("RPC_HTTP"); err != nil {
		return err
	}
	if Keys.RpcWS, err = lookup("RPC_WS"); err != nil {
		return err
	}
	if Keys.Contract, err = lookup("USDC_CONTRACT"); err != nil {
		return err
	}
	if !common.IsHexAddress(Keys.Contract) {
		return fmt.Errorf("CONFIG > USDC_CONTRACT is not a valid 0x-prefixed address: %#v", Keys.Contract)
	}

	rawStart, err := lookup("START_BLOCK")
	if err != nil {
		return err
	}
	if Keys.StartBlock, err = strconv.ParseUint(rawStart, 10, 64); err != nil {
		return fmt.Errorf("CONFIG > START_BLOCK must be a non-negative number: %#v", rawStart)
	}

	if Keys.DatabaseURL, err = lookup("DATABASE_URL"); err != nil {
		return err
	}

	Keys.ServerPort = 8080
	if raw := os.Getenv("SERVER_PORT"); raw != "" {
		if Keys.ServerPort, err = strconv.Atoi(raw); err != nil || Keys.ServerPort <= 0 {
			return fmt.Errorf("CONFIG > SERVER_PORT must be a positive number: %#v", raw)
		}
	}

	return nil
}

func lookup(key string) (string, error) {
	val := os.Getenv(key)
	if val == "" {
		return "", fmt.Errorf("CONFIG > environment variable %s must be set", key)
	}

	return val, nil
}
