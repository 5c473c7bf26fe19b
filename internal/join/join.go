// Package join attaches condition measurements to historical runs and
// classifies each joined run against the target race.
package join

import (
	"github.com/jm3hiromu30-bit/keiba-scatter/internal/condition"
	"github.com/jm3hiromu30-bit/keiba-scatter/internal/metrics"
	"github.com/jm3hiromu30-bit/keiba-scatter/internal/models"
)

// Conditions populates Cushion/Moisture on every run in data from the
// snapshot. The join is atomic: a run either gets both values or neither.
// Dirt runs take the dirt moisture reading, everything else the turf one.
func Conditions(data *models.RaceData, snap *condition.Snapshot) {
	for hi := range data.Horses {
		runs := data.Horses[hi].Runs
		for ri := range runs {
			run := &runs[ri]
			run.Cushion = nil
			run.Moisture = nil

			rec, ok := snap.Lookup(run.Date, run.Venue)
			if !ok {
				metrics.RunsUnjoined.Inc()
				continue
			}

			moisture := rec.TurfMoisture
			if run.Surface == models.SurfaceDirt {
				moisture = rec.DirtMoisture
			}
			if moisture == nil {
				metrics.RunsUnjoined.Inc()
				continue
			}

			c := rec.Cushion
			m := *moisture
			run.Cushion = &c
			run.Moisture = &m
			metrics.RunsJoined.Inc()
		}
	}
}
