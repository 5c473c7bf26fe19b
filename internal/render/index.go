package render

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"

	"github.com/jm3hiromu30-bit/keiba-scatter/internal/models"
	"github.com/jm3hiromu30-bit/keiba-scatter/internal/venue"
)

type venueSection struct {
	Venue     string
	Condition string
	Races     []models.RaceSummary
}

type indexData struct {
	DateLabel string
	Sections  []venueSection
}

// Index renders the per-day listing page. Venues appear in the fixed
// priority order with races sorted by number; venues with no rendered races
// are omitted entirely.
func Index(summaries []models.RaceSummary, live map[string]models.TrackCondition, dateLabel string) ([]byte, error) {
	byVenue := map[string][]models.RaceSummary{}
	for _, s := range summaries {
		byVenue[s.Venue] = append(byVenue[s.Venue], s)
	}

	var sections []venueSection
	for _, v := range venue.PriorityOrder {
		races, ok := byVenue[v]
		if !ok {
			continue
		}
		sort.Slice(races, func(i, j int) bool { return races[i].RaceNum < races[j].RaceNum })
		sections = append(sections, venueSection{
			Venue:     v,
			Condition: conditionSummary(live[v]),
			Races:     races,
		})
	}

	var buf bytes.Buffer
	err := templates.ExecuteTemplate(&buf, "index.html", indexData{
		DateLabel: dateLabel,
		Sections:  sections,
	})
	if err != nil {
		return nil, fmt.Errorf("render index: %w", err)
	}
	return buf.Bytes(), nil
}

// conditionSummary formats a venue's live measurements for the heading.
// A venue with no measurements at all gets no summary; partial data keeps
// "?" placeholders for the missing values.
func conditionSummary(c models.TrackCondition) string {
	if c.Cushion == nil && c.TurfMoisture == nil && c.DirtMoisture == nil {
		return ""
	}
	return fmt.Sprintf("CV=%s 芝%s%% ダ%s%%", fmtMeasure(c.Cushion), fmtMeasure(c.TurfMoisture), fmtMeasure(c.DirtMoisture))
}

func fmtMeasure(v *float64) string {
	if v == nil {
		return "?"
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
