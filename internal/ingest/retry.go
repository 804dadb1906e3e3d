// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package ingest

import (
	"time"
)

const (
	// retryTimes bounds the attempts per block range.
	retryTimes = 3

	rateLimitWait        = 10 * time.Second
	reducedRateLimitWait = 2 * time.Second
	tooManyLogsWait      = 300 * time.Millisecond
	temporaryWait        = 500 * time.Millisecond
)

type retryOutcome int

const (
	// outcomeRetry: retry the range (possibly reduced).
	outcomeRetry retryOutcome = iota
	// outcomeSkipped: the controller advanced the cursor past a
	// pathological single block; the range loop moves on.
	outcomeSkipped
	// outcomeGiveUp: abort the attempt loop; the worker skips one block.
	outcomeGiveUp
)

// retryController drives the adaptive-batch policy: shrink the window under
// overload, pause under throttling, skip on fatal errors. Each worker owns
// its controller, so the reduction flag of one worker cannot leak into
// another's rate-limit handling.
type retryController struct {
	lastWasReduction bool

	// replaced in tests
	sleep func(time.Duration)
}

func newRetryController() *retryController {
	return &retryController{sleep: time.Sleep}
}

func (rc *retryController) handle(kind errorKind, current *uint64, batch *batchSizer, attempt *uint64) retryOutcome {
	switch kind {
	case kindRateLimited:
		if rc.lastWasReduction {
			// The reduced range already eased the load, a short pause
			// avoids double-penalizing the window.
			rc.sleep(reducedRateLimitWait)
			rc.lastWasReduction = false
		} else {
			rc.sleep(rateLimitWait)
		}
		*attempt++
		return outcomeRetry

	case kindTooManyLogs:
		if !batch.atMin() {
			batch.halve()
			rc.lastWasReduction = true
			rc.sleep(tooManyLogsWait)
			return outcomeRetry
		}

		// A single block with too many logs cannot shrink further: skip it.
		*current++
		batch.reset()
		rc.lastWasReduction = false
		return outcomeSkipped

	case kindTemporary:
		rc.sleep(temporaryWait)
		*attempt++
		rc.lastWasReduction = false
		return outcomeRetry

	default:
		rc.lastWasReduction = false
		return outcomeGiveUp
	}
}
