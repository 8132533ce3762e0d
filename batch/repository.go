// Copyright 2025 The GeoResolver Authors
// SPDX-License-Identifier: Apache-2.0

package batch

import (
	"database/sql"
	"fmt"

	"github.com/uber/h3-go/v4"
)

// h3Cells is the hierarchy of H3 cells of a resolved point, resolutions 1-8.
// Rows without coordinates carry zeros.
type h3Cells [8]int64

func computeH3(lat, lng float64) (h3Cells, error) {
	var cells h3Cells

	latLng := h3.NewLatLng(lat, lng)

	for res := 1; res <= 8; res++ {
		cell, err := h3.LatLngToCell(latLng, res)
		if err != nil {
			return cells, fmt.Errorf("error converting to h3 cell at res %d: %w", res, err)
		}

		cells[res-1] = int64(cell)
	}

	return cells, nil
}

// ResultRepository handles persistence of batch resolutions.
type ResultRepository interface {
	// CreateSchema creates the resolutions table
	CreateSchema() error

	// BulkInsert inserts a slice of row results into the database
	BulkInsert(results []RowResult) error

	// Count returns the total number of stored resolutions
	Count() (int, error)

	// DB returns the underlying database connection
	DB() *sql.DB
}

type sqlResultRepository struct {
	db *sql.DB
}

// NewResultRepository creates a new resolution repository.
func NewResultRepository(db *sql.DB) ResultRepository {
	return &sqlResultRepository{db: db}
}

// DB returns the underlying database connection for advanced queries.
func (r *sqlResultRepository) DB() *sql.DB {
	return r.db
}

func (r *sqlResultRepository) CreateSchema() error {
	// DuckDB needs to load the spatial extension
	_, err := r.db.Exec(`INSTALL spatial; LOAD spatial;`)
	if err != nil {
		return err
	}

	_, err = r.db.Exec(`
		CREATE SEQUENCE IF NOT EXISTS resolutions_seq START 1;

		CREATE TABLE IF NOT EXISTS resolutions (
			id INTEGER PRIMARY KEY DEFAULT nextval('resolutions_seq'),
			name VARCHAR NOT NULL,
			country VARCHAR,
			language VARCHAR,
			place_type VARCHAR,
			outcome VARCHAR NOT NULL,
			source VARCHAR,
			score DOUBLE,
			matched_name VARCHAR,
			matched_id VARCHAR,
			point POINT_2D,
			error VARCHAR,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			h3_res1 UBIGINT,
			h3_res2 UBIGINT,
			h3_res3 UBIGINT,
			h3_res4 UBIGINT,
			h3_res5 UBIGINT,
			h3_res6 UBIGINT,
			h3_res7 UBIGINT,
			h3_res8 UBIGINT
		);
	`)

	return err
}

func (r *sqlResultRepository) BulkInsert(results []RowResult) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}

	stmt, err := tx.Prepare(`
		INSERT INTO resolutions(
			name,
			country,
			language,
			place_type,
			outcome,
			source,
			score,
			matched_name,
			matched_id,
			point,
			error,
			h3_res1,
			h3_res2,
			h3_res3,
			h3_res4,
			h3_res5,
			h3_res6,
			h3_res7,
			h3_res8
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ST_Point(?, ?), ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		if rErr := tx.Rollback(); rErr != nil {
			err = rErr
		}

		return err
	}
	defer stmt.Close()

	for i := range results {
		result := &results[i]

		var cells h3Cells

		var lng, lat *float64

		if result.Point != nil {
			lng, lat = &result.Point.Lng, &result.Point.Lat

			if cells, err = computeH3(result.Point.Lat, result.Point.Lng); err != nil {
				if rErr := tx.Rollback(); rErr != nil {
					err = rErr
				}

				return err
			}
		}

		outcome := string(result.Outcome)
		if outcome == "" {
			outcome = "error"
		}

		if _, err = stmt.Exec(
			result.Name,
			nullable(result.Country),
			nullable(result.Language),
			nullable(result.PlaceType),
			outcome,
			nullable(result.Source),
			result.Score,
			nullable(result.MatchedName),
			nullable(result.MatchedID),
			lng,
			lat,
			nullable(result.Err),
			cells[0], cells[1], cells[2], cells[3],
			cells[4], cells[5], cells[6], cells[7],
		); err != nil {
			if rErr := tx.Rollback(); rErr != nil {
				err = rErr
			}

			return err
		}
	}

	return tx.Commit()
}

func (r *sqlResultRepository) Count() (int, error) {
	var count int

	err := r.db.QueryRow(`SELECT COUNT(*) FROM resolutions`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting resolutions: %w", err)
	}

	return count, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}

	return &s
}
