// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package chain

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/shopspring/decimal"
)

// TokenDecimals is the fixed-point scale of the tracked token (USDC).
const TokenDecimals = 6

// DecodeTransfer decodes a raw log under the ERC-20 Transfer schema into
// sender, recipient and token-unit scaled amount. The caller filters by
// topic0; the decoder validates the shape: exactly three topics and a
// 32-byte data word. It is pure and returns ok == false for anything else.
func DecodeTransfer(lg types.Log) (from string, to string, amount decimal.Decimal, ok bool) {
	return decodeTransfer(lg, TokenDecimals)
}

func decodeTransfer(lg types.Log, decimals int32) (string, string, decimal.Decimal, bool) {
	if len(lg.Topics) != 3 {
		return "", "", decimal.Decimal{}, false
	}
	if len(lg.Data) != 32 {
		return "", "", decimal.Decimal{}, false
	}

	// Addresses are the rightmost 20 bytes of the indexed topics.
	from := strings.ToLower(common.BytesToAddress(lg.Topics[1].Bytes()[12:]).Hex())
	to := strings.ToLower(common.BytesToAddress(lg.Topics[2].Bytes()[12:]).Hex())

	raw := new(big.Int).SetBytes(lg.Data)
	return from, to, decimal.NewFromBigInt(raw, -decimals), true
}
