// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package repository

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
)

var dbConnInstance *DBConnection

type DBConnection struct {
	DB     *sqlx.DB
	Driver string
}

// Connect opens the database, pings it and applies pending migrations.
// The first successful call wins; later calls are no-ops. The caller may
// retry on error, nothing is kept half-open.
func Connect(driver string, dsn string) error {
	if dbConnInstance != nil {
		return nil
	}

	var err error
	var dbHandle *sqlx.DB

	switch driver {
	case "pgx":
		dbHandle, err = sqlx.Open("pgx", dsn)
		if err != nil {
			return fmt.Errorf("REPOSITORY/CONNECT > sqlx.Open() error: %w", err)
		}

		dbHandle.SetConnMaxLifetime(time.Minute * 3)
		dbHandle.SetMaxOpenConns(5)
		dbHandle.SetMaxIdleConns(5)
	case "sqlite3":
		dbHandle, err = sqlx.Open("sqlite3", fmt.Sprintf("%s?_foreign_keys=on", dsn))
		if err != nil {
			return fmt.Errorf("REPOSITORY/CONNECT > sqlx.Open() error: %w", err)
		}

		// sqlite does not multithread. Having more than one connection open would just mean
		// waiting for locks. An in-memory database also only exists per connection.
		dbHandle.SetMaxOpenConns(1)
	default:
		return fmt.Errorf("REPOSITORY/CONNECT > unsupported database driver: %s", driver)
	}

	if err := dbHandle.Ping(); err != nil {
		dbHandle.Close()
		return fmt.Errorf("REPOSITORY/CONNECT > ping error: %w", err)
	}

	if err := migrateDB(driver, dbHandle.DB); err != nil {
		dbHandle.Close()
		return fmt.Errorf("REPOSITORY/CONNECT > migration error: %w", err)
	}

	dbConnInstance = &DBConnection{DB: dbHandle, Driver: driver}
	return nil
}

func GetConnection() *DBConnection {
	if dbConnInstance == nil {
		panic("REPOSITORY/CONNECT > database connection not initialized")
	}

	return dbConnInstance
}
