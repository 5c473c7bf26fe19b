// Package pipeline drives a full generation batch for one race day:
// race list → run cache → condition join → classification → artifacts →
// index. Races are processed sequentially; see the politeness delay in
// runcache for why.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/jm3hiromu30-bit/keiba-scatter/internal/condition"
	"github.com/jm3hiromu30-bit/keiba-scatter/internal/ingest"
	"github.com/jm3hiromu30-bit/keiba-scatter/internal/join"
	"github.com/jm3hiromu30-bit/keiba-scatter/internal/models"
	"github.com/jm3hiromu30-bit/keiba-scatter/internal/preview"
	"github.com/jm3hiromu30-bit/keiba-scatter/internal/render"
	"github.com/jm3hiromu30-bit/keiba-scatter/internal/runcache"
)

// TargetDefaults is the named fallback applied when a venue has no live
// measurement. These are placeholder mid-range values, not a prediction;
// treat them as configuration, not truth.
type TargetDefaults struct {
	Cushion      float64
	TurfMoisture float64
	DirtMoisture float64
}

var DefaultTarget = TargetDefaults{Cushion: 9.5, TurfMoisture: 12.0, DirtMoisture: 5.0}

type Pipeline struct {
	Cache     *runcache.Cache
	Snapshot  *condition.Snapshot
	Live      map[string]models.TrackCondition
	Defaults  TargetDefaults
	OutputDir string
	DateLabel string
}

// Filter narrows the day's race list by venue and race number and drops
// obstacle races, which have no cushion-value story to tell.
func Filter(races []models.RaceInfo, venueName string, raceNum int) []models.RaceInfo {
	var out []models.RaceInfo
	for _, r := range races {
		if r.Surface == models.SurfaceObstacle {
			continue
		}
		if venueName != "" && r.Venue != venueName {
			continue
		}
		if raceNum != 0 && r.RaceNum != raceNum {
			continue
		}
		out = append(out, r)
	}
	return out
}

// TargetFor resolves the condition point for a race: the venue's live
// measurement when present, the named defaults otherwise. Dirt races take
// the dirt moisture reading.
func (p *Pipeline) TargetFor(info models.RaceInfo) models.RaceTarget {
	target := models.RaceTarget{
		RaceID:   info.RaceID,
		Venue:    info.Venue,
		Surface:  info.Surface,
		Distance: info.Distance,
		Cushion:  p.Defaults.Cushion,
	}
	if info.Surface == models.SurfaceDirt {
		target.Moisture = p.Defaults.DirtMoisture
	} else {
		target.Moisture = p.Defaults.TurfMoisture
	}

	live, ok := p.Live[info.Venue]
	if !ok {
		return target
	}
	if live.Cushion != nil {
		target.Cushion = *live.Cushion
	}
	if info.Surface == models.SurfaceDirt {
		if live.DirtMoisture != nil {
			target.Moisture = *live.DirtMoisture
		}
	} else if live.TurfMoisture != nil {
		target.Moisture = *live.TurfMoisture
	}
	return target
}

// ProcessRace generates one race's artifact and preview. Returns
// runcache.ErrCacheOnly or ingest.ErrNoData when the race has to be
// skipped; the caller decides whether that ends the batch.
func (p *Pipeline) ProcessRace(ctx context.Context, listed models.RaceInfo) (models.RaceSummary, error) {
	data, err := p.Cache.GetOrFetch(ctx, listed.RaceID)
	if err != nil {
		return models.RaceSummary{}, err
	}

	// The cached document is authoritative; the listing fills any gaps.
	info := data.RaceInfo
	if info.RaceName == "" {
		info.RaceName = listed.RaceName
	}
	if info.Distance == 0 {
		info.Surface = listed.Surface
		info.Distance = listed.Distance
	}
	data.RaceInfo = info

	join.Conditions(data, p.Snapshot)
	target := p.TargetFor(info)

	html, err := render.Artifact(data, target, p.DateLabel)
	if err != nil {
		return models.RaceSummary{}, err
	}
	filename := render.ArtifactFilename(info)
	if err := os.WriteFile(filepath.Join(p.OutputDir, filename), html, 0o644); err != nil {
		return models.RaceSummary{}, fmt.Errorf("write artifact: %w", err)
	}

	views := render.BuildViews(data, target)
	caption := fmt.Sprintf("%s %dR CV%.1f MG%.1f%% %dm", info.RaceID, info.RaceNum, target.Cushion, target.Moisture, info.Distance)
	png, err := preview.Render(views, target, caption)
	if err != nil {
		return models.RaceSummary{}, err
	}
	if err := os.WriteFile(filepath.Join(p.OutputDir, render.PreviewFilename(info)), png, 0o644); err != nil {
		return models.RaceSummary{}, fmt.Errorf("write preview: %w", err)
	}

	return models.RaceSummary{
		Venue:      info.Venue,
		RaceNum:    info.RaceNum,
		RaceName:   info.RaceName,
		Filename:   filename,
		HorseCount: len(data.Horses),
		PointCount: render.PointCount(views),
	}, nil
}

// Run processes every race in order and writes the index page. Skippable
// per-race faults (no roster data, cache-only miss) drop that race and
// continue; anything else aborts the batch.
func (p *Pipeline) Run(ctx context.Context, races []models.RaceInfo) ([]models.RaceSummary, error) {
	if err := os.MkdirAll(p.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	var summaries []models.RaceSummary
	for _, race := range races {
		log.Printf("--- %s %dR %s %s%dm ---", race.Venue, race.RaceNum, race.RaceName, race.Surface, race.Distance)
		summary, err := p.ProcessRace(ctx, race)
		if errors.Is(err, ingest.ErrNoData) || errors.Is(err, runcache.ErrCacheOnly) {
			log.Printf("  SKIP: %v", err)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("race %s: %w", race.RaceID, err)
		}
		log.Printf("  → %s (%d頭 %dpts)", summary.Filename, summary.HorseCount, summary.PointCount)
		summaries = append(summaries, summary)
	}

	index, err := render.Index(summaries, p.Live, p.DateLabel)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(filepath.Join(p.OutputDir, "index.html"), index, 0o644); err != nil {
		return nil, fmt.Errorf("write index: %w", err)
	}

	return summaries, nil
}
