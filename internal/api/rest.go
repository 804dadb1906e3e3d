// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/zahorodnyi/usdc-tracker/internal/repository"
	"github.com/zahorodnyi/usdc-tracker/pkg/log"
)

// RestApi is the thin read layer over the repository. It never writes.
type RestApi struct {
	Repository *repository.TransferRepository
}

func (api *RestApi) MountRoutes(r *mux.Router) {
	r.StrictSlash(true)

	r.HandleFunc("/health", api.getHealth).Methods(http.MethodGet)
	r.HandleFunc("/last_block", api.getLastBlock).Methods(http.MethodGet)
	r.HandleFunc("/tx/{id}", api.getTransferById).Methods(http.MethodGet)
	r.HandleFunc("/tx", api.getTransfers).Methods(http.MethodGet)
}

// HealthApiResponse model
type HealthApiResponse struct {
	Status string `json:"status"`
}

// LastBlockApiResponse model
type LastBlockApiResponse struct {
	LastBlock int64 `json:"last_block"`
}

// ErrorApiResponse model
type ErrorApiResponse struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}

func handleError(err error, statusCode int, rw http.ResponseWriter) {
	log.Warnf("REST > API request error: %s", err.Error())
	rw.Header().Add("Content-Type", "application/json")
	rw.WriteHeader(statusCode)
	json.NewEncoder(rw).Encode(ErrorApiResponse{
		Status: http.StatusText(statusCode),
		Error:  err.Error(),
	})
}

func respondJSON(rw http.ResponseWriter, payload interface{}) {
	rw.Header().Add("Content-Type", "application/json")
	if err := json.NewEncoder(rw).Encode(payload); err != nil {
		log.Warnf("REST > error while encoding response: %s", err.Error())
	}
}

func (api *RestApi) getHealth(rw http.ResponseWriter, r *http.Request) {
	respondJSON(rw, HealthApiResponse{Status: "ok"})
}

func (api *RestApi) getLastBlock(rw http.ResponseWriter, r *http.Request) {
	last, err := api.Repository.GetLastBlock()
	if err != nil {
		handleError(err, http.StatusInternalServerError, rw)
		return
	}

	respondJSON(rw, LastBlockApiResponse{LastBlock: last})
}

func (api *RestApi) getTransferById(rw http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		handleError(errors.New("id must be an integer"), http.StatusBadRequest, rw)
		return
	}

	transfer, err := api.Repository.FindTransferById(id)
	if err != nil {
		if err == sql.ErrNoRows {
			// An unknown id is not an error, the lookup answers null.
			respondJSON(rw, nil)
			return
		}
		handleError(err, http.StatusInternalServerError, rw)
		return
	}

	respondJSON(rw, transfer)
}

func (api *RestApi) getTransfers(rw http.ResponseWriter, r *http.Request) {
	filter, err := parseTransferFilter(r)
	if err != nil {
		handleError(err, http.StatusBadRequest, rw)
		return
	}

	transfers, err := api.Repository.QueryTransfers(filter)
	if err != nil {
		handleError(err, http.StatusInternalServerError, rw)
		return
	}

	respondJSON(rw, transfers)
}

func parseTransferFilter(r *http.Request) (*repository.TransferFilter, error) {
	filter := &repository.TransferFilter{}
	query := r.URL.Query()

	if raw := query.Get("from"); raw != "" {
		filter.From = &raw
	}
	if raw := query.Get("to"); raw != "" {
		filter.To = &raw
	}

	if raw := query.Get("created_before"); raw != "" {
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, errors.New("created_before must be a RFC 3339 timestamp")
		}
		filter.CreatedBefore = &ts
	}
	if raw := query.Get("created_after"); raw != "" {
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, errors.New("created_after must be a RFC 3339 timestamp")
		}
		filter.CreatedAfter = &ts
	}

	if raw := query.Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil {
			return nil, errors.New("page must be an integer")
		}
		filter.Page = page
	}
	if raw := query.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			return nil, errors.New("limit must be an integer")
		}
		filter.Limit = limit
	}

	return filter, nil
}
