// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package ingest

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/zahorodnyi/usdc-tracker/internal/chain"
	"github.com/zahorodnyi/usdc-tracker/internal/repository"
)

func init() {
	if err := repository.Connect("sqlite3", ":memory:"); err != nil {
		panic(err)
	}
}

func setupRepo(t *testing.T) *repository.TransferRepository {
	r := repository.GetTransferRepository()
	r.DB.MustExec("DELETE FROM transfers")
	r.DB.MustExec("DELETE FROM sync_state")
	return r
}

func countTransfers(t *testing.T, r *repository.TransferRepository) int {
	var count int
	if err := r.DB.Get(&count, "SELECT COUNT(*) FROM transfers"); err != nil {
		t.Fatal(err)
	}
	return count
}

func lastBlock(t *testing.T, r *repository.TransferRepository) int64 {
	last, err := r.GetLastBlock()
	if err != nil {
		t.Fatal(err)
	}
	return last
}

type filterCall struct {
	from uint64
	to   uint64
}

type filterFn func(from uint64, to uint64) ([]types.Log, error)

// fakeSource scripts the RPC surface: FilterTransfers consumes one script
// entry per call, BlockTime answers from a fixed table, SubscribeTransfers
// hands the log channel back to the test.
type fakeSource struct {
	mu sync.Mutex

	head        uint64
	script      []filterFn
	filterCalls []filterCall

	blockTimes     map[uint64]time.Time
	blockTimeCalls int

	logCh    chan<- types.Log
	subErrCh chan error
}

func (f *fakeSource) HeadBlock(ctx context.Context) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.head, nil
}

func (f *fakeSource) FilterTransfers(ctx context.Context, from uint64, to uint64) ([]types.Log, error) {
	f.mu.Lock()
	f.filterCalls = append(f.filterCalls, filterCall{from: from, to: to})
	var fn filterFn
	if len(f.script) > 0 {
		fn = f.script[0]
		f.script = f.script[1:]
	}
	f.mu.Unlock()

	if fn == nil {
		return nil, nil
	}
	return fn(from, to)
}

func (f *fakeSource) BlockTime(ctx context.Context, number uint64) (time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.blockTimeCalls++
	ts, ok := f.blockTimes[number]
	if !ok {
		return time.Time{}, errors.New("header not found")
	}
	return ts, nil
}

func (f *fakeSource) SubscribeTransfers(ctx context.Context, ch chan<- types.Log) (ethereum.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.logCh = ch
	f.subErrCh = make(chan error, 1)
	return &fakeSubscription{errCh: f.subErrCh}, nil
}

func (f *fakeSource) calls(t *testing.T) []filterCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]filterCall{}, f.filterCalls...)
}

func (f *fakeSource) subscribed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.logCh != nil
}

func (f *fakeSource) emit(lg types.Log) {
	f.mu.Lock()
	ch := f.logCh
	f.mu.Unlock()
	ch <- lg
}

type fakeSubscription struct {
	errCh chan error
}

func (s *fakeSubscription) Err() <-chan error { return s.errCh }
func (s *fakeSubscription) Unsubscribe()      {}

func addressTopic(addr string) common.Hash {
	return common.BytesToHash(common.LeftPadBytes(common.HexToAddress(addr).Bytes(), 32))
}

func transferLog(block uint64, txHash string, index uint, raw int64) types.Log {
	return types.Log{
		BlockNumber: block,
		TxHash:      common.HexToHash(txHash),
		Index:       index,
		Topics: []common.Hash{
			chain.TransferTopic(),
			addressTopic("0x0000000000000000000000000000000000000001"),
			addressTopic("0x0000000000000000000000000000000000000002"),
		},
		Data: common.LeftPadBytes(big.NewInt(raw).Bytes(), 32),
	}
}

// newTestBackfill builds a worker with all sleeps stubbed out.
func newTestBackfill(r *repository.TransferRepository, src Source) *backfillWorker {
	w := newBackfillWorker(r, src, "historical")
	w.sleep = func(time.Duration) {}
	w.retry.sleep = func(time.Duration) {}
	return w
}
