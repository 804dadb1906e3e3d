// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package repository

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/zahorodnyi/usdc-tracker/pkg/log"
)

//go:embed migrations/*
var migrationFiles embed.FS

func migrateDB(driver string, db *sql.DB) error {
	var m *migrate.Migrate

	switch driver {
	case "pgx":
		drv, err := postgres.WithInstance(db, &postgres.Config{})
		if err != nil {
			return err
		}
		d, err := iofs.New(migrationFiles, "migrations/postgres")
		if err != nil {
			return err
		}

		m, err = migrate.NewWithInstance("iofs", d, "postgres", drv)
		if err != nil {
			return err
		}
	case "sqlite3":
		drv, err := sqlite3.WithInstance(db, &sqlite3.Config{})
		if err != nil {
			return err
		}
		d, err := iofs.New(migrationFiles, "migrations/sqlite3")
		if err != nil {
			return err
		}

		m, err = migrate.NewWithInstance("iofs", d, "sqlite3", drv)
		if err != nil {
			return err
		}
	default:
		return fmt.Errorf("unsupported database driver: %s", driver)
	}

	if err := m.Up(); err != nil {
		if err == migrate.ErrNoChange {
			log.Debug("Database schema up to date")
			return nil
		}
		return err
	}

	log.Info("Database migrations applied")
	return nil
}
