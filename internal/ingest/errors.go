// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package ingest

import (
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/ethereum/go-ethereum/rpc"
)

type errorKind int

const (
	kindRateLimited errorKind = iota
	kindTooManyLogs
	kindTemporary
	kindFatal
)

func (k errorKind) String() string {
	switch k {
	case kindRateLimited:
		return "rate_limited"
	case kindTooManyLogs:
		return "too_many_logs"
	case kindTemporary:
		return "temporary"
	default:
		return "fatal"
	}
}

const tooManyLogsMessage = "query returned more than 10000 results"

// classifyRPCError maps an RPC failure onto the closed kind set driving the
// retry policy. Structured information (HTTP status, JSON-RPC error code,
// net timeouts) is inspected before falling back to provider message
// matching: the -32005 "limit exceeded" code is shared by throttling and
// oversized getLogs responses, so the message decides between the two.
func classifyRPCError(err error) errorKind {
	msg := err.Error()

	var httpErr rpc.HTTPError
	if errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusTooManyRequests {
		return kindRateLimited
	}

	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) && rpcErr.ErrorCode() == -32005 {
		if strings.Contains(msg, tooManyLogsMessage) {
			return kindTooManyLogs
		}
		return kindRateLimited
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return kindTemporary
	}

	switch {
	case strings.Contains(msg, "Too Many Requests"):
		return kindRateLimited
	case strings.Contains(msg, tooManyLogsMessage):
		return kindTooManyLogs
	case strings.Contains(msg, "timeout"),
		strings.Contains(msg, "Temporary failure"):
		return kindTemporary
	}

	return kindFatal
}

// isConstraintViolation separates programmer errors from transient store
// faults. Duplicates never get here, the insert absorbs them.
func isConstraintViolation(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "SQLSTATE 23") ||
		strings.Contains(msg, "constraint")
}
