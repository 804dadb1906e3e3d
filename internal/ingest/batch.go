// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package ingest

// defaultBatchSize is the initial backfill window width in blocks.
const defaultBatchSize = 100

// batchSizer is the adaptive window width: halved when the provider refuses
// a range as too large, reset to the original width on any successful range,
// floored at one block.
type batchSizer struct {
	original uint64
	current  uint64
}

func newBatchSizer(original uint64) *batchSizer {
	if original < 1 {
		original = 1
	}

	return &batchSizer{original: original, current: original}
}

func (b *batchSizer) halve() {
	b.current = max(1, b.current/2)
}

func (b *batchSizer) reset() {
	b.current = b.original
}

func (b *batchSizer) atMin() bool {
	return b.current <= 1
}
