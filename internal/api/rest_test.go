// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zahorodnyi/usdc-tracker/internal/repository"
	"github.com/zahorodnyi/usdc-tracker/pkg/schema"
)

func init() {
	if err := repository.Connect("sqlite3", ":memory:"); err != nil {
		panic(err)
	}
}

func setup(t *testing.T) (*repository.TransferRepository, *mux.Router) {
	r := repository.GetTransferRepository()
	r.DB.MustExec("DELETE FROM transfers")
	r.DB.MustExec("DELETE FROM sync_state")

	router := mux.NewRouter()
	restApi := &RestApi{Repository: r}
	restApi.MountRoutes(router)

	return r, router
}

func get(t *testing.T, router *mux.Router, url string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, url, nil)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder
}

func seedTransfer(t *testing.T, r *repository.TransferRepository, txHash string, block int64) {
	require.NoError(t, r.AddTransfer(&schema.Transfer{
		TxHash:      txHash,
		LogIndex:    0,
		BlockNumber: block,
		From:        "0x0000000000000000000000000000000000000001",
		To:          "0x0000000000000000000000000000000000000002",
		Amount:      decimal.RequireFromString("1.000000"),
		BlockTime:   time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}))
}

func TestGetHealth(t *testing.T) {
	_, router := setup(t)

	response := get(t, router, "/health")
	require.Equal(t, http.StatusOK, response.Code)
	assert.JSONEq(t, `{"status":"ok"}`, response.Body.String())
}

func TestGetLastBlock(t *testing.T) {
	r, router := setup(t)

	response := get(t, router, "/last_block")
	require.Equal(t, http.StatusOK, response.Code)
	assert.JSONEq(t, `{"last_block":0}`, response.Body.String())

	require.NoError(t, r.UpdateLastBlock(105))

	response = get(t, router, "/last_block")
	require.Equal(t, http.StatusOK, response.Code)
	assert.JSONEq(t, `{"last_block":105}`, response.Body.String())
}

func TestGetTransferById(t *testing.T) {
	r, router := setup(t)
	seedTransfer(t, r, "0xabc", 103)

	var id int64
	require.NoError(t, r.DB.Get(&id, "SELECT id FROM transfers LIMIT 1"))

	response := get(t, router, fmt.Sprintf("/tx/%d", id))
	require.Equal(t, http.StatusOK, response.Code)

	var transfer schema.Transfer
	require.NoError(t, json.Unmarshal(response.Body.Bytes(), &transfer))
	assert.Equal(t, "0xabc", transfer.TxHash)
	assert.Equal(t, int64(103), transfer.BlockNumber)
	assert.True(t, transfer.Amount.Equal(decimal.RequireFromString("1.000000")))
}

func TestGetTransferByIdUnknown(t *testing.T) {
	_, router := setup(t)

	response := get(t, router, "/tx/4711")
	require.Equal(t, http.StatusOK, response.Code)
	assert.Equal(t, "null\n", response.Body.String())
}

func TestGetTransferByIdBadId(t *testing.T) {
	_, router := setup(t)

	response := get(t, router, "/tx/abc")
	assert.Equal(t, http.StatusBadRequest, response.Code)
}

func TestGetTransfers(t *testing.T) {
	r, router := setup(t)
	seedTransfer(t, r, "0xaaa", 100)
	seedTransfer(t, r, "0xbbb", 101)

	response := get(t, router, "/tx")
	require.Equal(t, http.StatusOK, response.Code)

	var transfers []*schema.Transfer
	require.NoError(t, json.Unmarshal(response.Body.Bytes(), &transfers))
	assert.Len(t, transfers, 2)
}

func TestGetTransfersFiltered(t *testing.T) {
	r, router := setup(t)
	seedTransfer(t, r, "0xaaa", 100)

	response := get(t, router, "/tx?from=0x0000000000000000000000000000000000000001")
	require.Equal(t, http.StatusOK, response.Code)

	var transfers []*schema.Transfer
	require.NoError(t, json.Unmarshal(response.Body.Bytes(), &transfers))
	assert.Len(t, transfers, 1)

	response = get(t, router, "/tx?to=0x00000000000000000000000000000000000000ff")
	require.Equal(t, http.StatusOK, response.Code)

	transfers = nil
	require.NoError(t, json.Unmarshal(response.Body.Bytes(), &transfers))
	assert.Len(t, transfers, 0)
}

func TestGetTransfersTimeWindow(t *testing.T) {
	r, router := setup(t)
	seedTransfer(t, r, "0xaaa", 100)

	before := time.Now().UTC().Add(time.Hour).Format(time.RFC3339)
	after := time.Now().UTC().Add(-time.Hour).Format(time.RFC3339)

	response := get(t, router, "/tx?created_before="+before+"&created_after="+after)
	require.Equal(t, http.StatusOK, response.Code)

	var transfers []*schema.Transfer
	require.NoError(t, json.Unmarshal(response.Body.Bytes(), &transfers))
	assert.Len(t, transfers, 1)
}

func TestGetTransfersBadTimeParam(t *testing.T) {
	_, router := setup(t)

	response := get(t, router, "/tx?created_before=yesterday")
	assert.Equal(t, http.StatusBadRequest, response.Code)

	response = get(t, router, "/tx?created_after=2024-13-99")
	assert.Equal(t, http.StatusBadRequest, response.Code)
}

func TestGetTransfersBadPagination(t *testing.T) {
	_, router := setup(t)

	response := get(t, router, "/tx?page=first")
	assert.Equal(t, http.StatusBadRequest, response.Code)

	response = get(t, router, "/tx?limit=many")
	assert.Equal(t, http.StatusBadRequest, response.Code)
}

func TestGetTransfersPagination(t *testing.T) {
	r, router := setup(t)
	for i := 0; i < 5; i++ {
		seedTransfer(t, r, fmt.Sprintf("0xaa%d", i), int64(100+i))
	}

	response := get(t, router, "/tx?page=2&limit=2")
	require.Equal(t, http.StatusOK, response.Code)

	var transfers []*schema.Transfer
	require.NoError(t, json.Unmarshal(response.Body.Bytes(), &transfers))
	assert.Len(t, transfers, 2)
}
