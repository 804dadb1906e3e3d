// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package chain adapts the EVM RPC providers for the ingestion engine.
// One HTTP client serves range queries and header lookups, one WebSocket
// client serves the live log subscription. Both are bound to a single
// token contract and the ERC-20 Transfer topic.
package chain

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
)

const transferEventSignature = "Transfer(address,address,uint256)"

// TransferTopic returns topic0 of the ERC-20 Transfer event.
func TransferTopic() common.Hash {
	return crypto.Keccak256Hash([]byte(transferEventSignature))
}

type Gateway struct {
	http    *ethclient.Client
	ws      *ethclient.Client
	address common.Address
	topic0  common.Hash
}

func NewGateway(ctx context.Context, httpURL string, wsURL string, contract common.Address) (*Gateway, error) {
	httpClient, err := ethclient.DialContext(ctx, httpURL)
	if err != nil {
		return nil, fmt.Errorf("CHAIN/GATEWAY > failed to connect to HTTP provider: %w", err)
	}

	wsClient, err := ethclient.DialContext(ctx, wsURL)
	if err != nil {
		httpClient.Close()
		return nil, fmt.Errorf("CHAIN/GATEWAY > failed to connect to WebSocket provider: %w", err)
	}

	return &Gateway{
		http:    httpClient,
		ws:      wsClient,
		address: contract,
		topic0:  TransferTopic(),
	}, nil
}

// HeadBlock returns the current chain tip.
func (gw *Gateway) HeadBlock(ctx context.Context) (uint64, error) {
	return gw.http.BlockNumber(ctx)
}

// FilterTransfers returns the Transfer logs of the tracked contract in the
// inclusive block range [from, to].
func (gw *Gateway) FilterTransfers(ctx context.Context, from uint64, to uint64) ([]types.Log, error) {
	query := ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(from),
		ToBlock:   new(big.Int).SetUint64(to),
		Addresses: []common.Address{gw.address},
		Topics:    [][]common.Hash{{gw.topic0}},
	}

	return gw.http.FilterLogs(ctx, query)
}

// BlockTime returns the header timestamp of the given block as a UTC instant.
func (gw *Gateway) BlockTime(ctx context.Context, number uint64) (time.Time, error) {
	header, err := gw.http.HeaderByNumber(ctx, new(big.Int).SetUint64(number))
	if err != nil {
		return time.Time{}, err
	}

	return time.Unix(int64(header.Time), 0).UTC(), nil
}

// SubscribeTransfers opens a live log subscription for the tracked contract
// over the WebSocket provider.
func (gw *Gateway) SubscribeTransfers(ctx context.Context, ch chan<- types.Log) (ethereum.Subscription, error) {
	query := ethereum.FilterQuery{
		Addresses: []common.Address{gw.address},
		Topics:    [][]common.Hash{{gw.topic0}},
	}

	return gw.ws.SubscribeFilterLogs(ctx, query, ch)
}

func (gw *Gateway) Close() {
	gw.http.Close()
	gw.ws.Close()
}
