// Package condition holds the immutable snapshot of historical track
// measurements that past runs are joined against.
package condition

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/jm3hiromu30-bit/keiba-scatter/internal/models"
)

var dateSep = strings.NewReplacer("/", "", "-", "", ".", "")

// Key builds the snapshot key for a measurement date and venue. Dates are
// reduced to their digits so "2026/02/15" and "20260215" land on the same
// key; result pages and measurement feeds disagree on the separator.
func Key(date, venue string) string {
	return dateSep.Replace(date) + "_" + venue
}

// Snapshot is a read-only view of condition records keyed by (date, venue).
// Built once per run; never mutated afterwards.
type Snapshot struct {
	records map[string]models.ConditionRecord
}

// NewSnapshot folds records into a snapshot. Later records for the same
// (date, venue) overwrite earlier ones.
func NewSnapshot(records []models.ConditionRecord) *Snapshot {
	m := make(map[string]models.ConditionRecord, len(records))
	for _, r := range records {
		m[Key(r.Date, r.Venue)] = r
	}
	return &Snapshot{records: m}
}

// Lookup returns the measurement for (date, venue) if one exists.
func (s *Snapshot) Lookup(date, venue string) (models.ConditionRecord, bool) {
	r, ok := s.records[Key(date, venue)]
	return r, ok
}

// Len returns the number of distinct (date, venue) keys loaded.
func (s *Snapshot) Len() int {
	return len(s.records)
}

// jsonEntry is the value shape of the legacy condition table file.
type jsonEntry struct {
	Cushion  *float64 `json:"cushion"`
	TurfGoal *float64 `json:"turf_goal"`
	DirtGoal *float64 `json:"dirt_goal"`
}

// LoadJSON reads a condition table file: a JSON object mapping
// "{date}_{venue}" to {cushion, turf_goal, dirt_goal}. Malformed entries are
// skipped with a log line; only an unreadable file is an error.
func LoadJSON(path string) ([]models.ConditionRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read condition table: %w", err)
	}

	var table map[string]json.RawMessage
	if err := json.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("parse condition table: %w", err)
	}

	records := make([]models.ConditionRecord, 0, len(table))
	for key, raw := range table {
		date, venue, ok := splitKey(key)
		if !ok {
			log.Printf("condition table: skipping malformed key %q", key)
			continue
		}
		var e jsonEntry
		if err := json.Unmarshal(raw, &e); err != nil || e.Cushion == nil {
			log.Printf("condition table: skipping malformed entry %q", key)
			continue
		}
		records = append(records, models.ConditionRecord{
			Date:         date,
			Venue:        venue,
			Cushion:      *e.Cushion,
			TurfMoisture: e.TurfGoal,
			DirtMoisture: e.DirtGoal,
		})
	}
	return records, nil
}

func splitKey(key string) (date, venue string, ok bool) {
	i := strings.Index(key, "_")
	if i <= 0 || i == len(key)-1 {
		return "", "", false
	}
	return key[:i], key[i+1:], true
}
