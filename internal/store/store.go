// Package store persists scraped race data and the historical condition
// table in SQLite. Race documents are append-only: once written for a race
// id they are returned as-is on every later run.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/jm3hiromu30-bit/keiba-scatter/internal/condition"
	"github.com/jm3hiromu30-bit/keiba-scatter/internal/models"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// GetRace returns the cached document for raceID, or nil if none exists.
func (s *Store) GetRace(raceID string) (*models.RaceData, error) {
	var doc string
	err := s.db.QueryRow(`SELECT doc FROM races WHERE race_id = ?`, raceID).Scan(&doc)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get race %s: %w", raceID, err)
	}

	var data models.RaceData
	if err := json.Unmarshal([]byte(doc), &data); err != nil {
		return nil, fmt.Errorf("decode race %s: %w", raceID, err)
	}
	return &data, nil
}

// PutRace stores a race document. A fresh scrape replaces the whole entry;
// entries are never updated piecemeal.
func (s *Store) PutRace(raceID string, data *models.RaceData) error {
	doc, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode race %s: %w", raceID, err)
	}
	_, err = s.db.Exec(`
		INSERT INTO races (race_id, doc) VALUES (?, ?)
		ON CONFLICT(race_id) DO UPDATE SET doc = excluded.doc
	`, raceID, string(doc))
	if err != nil {
		return fmt.Errorf("put race %s: %w", raceID, err)
	}
	return nil
}

// UpsertCondition writes one historical measurement, last write winning.
func (s *Store) UpsertCondition(rec models.ConditionRecord) error {
	_, err := s.db.Exec(`
		INSERT INTO conditions (key, date, venue, cushion, turf_moisture, dirt_moisture)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			cushion = excluded.cushion,
			turf_moisture = excluded.turf_moisture,
			dirt_moisture = excluded.dirt_moisture
	`, condition.Key(rec.Date, rec.Venue), rec.Date, rec.Venue, rec.Cushion, nullFloat(rec.TurfMoisture), nullFloat(rec.DirtMoisture))
	if err != nil {
		return fmt.Errorf("upsert condition %s_%s: %w", rec.Date, rec.Venue, err)
	}
	return nil
}

// LoadConditions reads every stored measurement for snapshot construction.
func (s *Store) LoadConditions() ([]models.ConditionRecord, error) {
	rows, err := s.db.Query(`SELECT date, venue, cushion, turf_moisture, dirt_moisture FROM conditions ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("load conditions: %w", err)
	}
	defer rows.Close()

	var records []models.ConditionRecord
	for rows.Next() {
		var rec models.ConditionRecord
		var turf, dirt sql.NullFloat64
		if err := rows.Scan(&rec.Date, &rec.Venue, &rec.Cushion, &turf, &dirt); err != nil {
			return nil, err
		}
		if turf.Valid {
			rec.TurfMoisture = &turf.Float64
		}
		if dirt.Valid {
			rec.DirtMoisture = &dirt.Float64
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}
