// Package runcache is the read-through memoization layer over scraped race
// data. A persisted entry is trusted unconditionally; scraping happens only
// on a miss, and cache-only mode turns a miss into an error instead.
package runcache

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/jm3hiromu30-bit/keiba-scatter/internal/metrics"
	"github.com/jm3hiromu30-bit/keiba-scatter/internal/models"
	"github.com/jm3hiromu30-bit/keiba-scatter/internal/store"
)

// ErrCacheOnly means the race was not cached and scraping is disabled.
var ErrCacheOnly = errors.New("race not cached and scraping disabled")

// Scraper is the acquisition side of the cache.
type Scraper interface {
	FetchRaceCard(ctx context.Context, raceID string) (models.RaceInfo, []models.Horse, error)
	FetchHorseResults(ctx context.Context, horseID string) ([]models.HistoricalRun, error)
}

type Cache struct {
	store     *store.Store
	scraper   Scraper
	cacheOnly bool
	delay     time.Duration
}

func New(st *store.Store, scraper Scraper, cacheOnly bool) *Cache {
	return &Cache{
		store:     st,
		scraper:   scraper,
		cacheOnly: cacheOnly,
		// Fixed politeness delay between per-horse history requests.
		delay: 500 * time.Millisecond,
	}
}

// GetOrFetch returns the cached document for raceID, scraping and persisting
// it first if absent. A roster failure propagates (the race is skipped by
// the caller); a single horse's history failure degrades to an empty run
// list for that horse.
func (c *Cache) GetOrFetch(ctx context.Context, raceID string) (*models.RaceData, error) {
	cached, err := c.store.GetRace(raceID)
	if err != nil {
		return nil, err
	}
	if cached != nil {
		metrics.CacheHits.Inc()
		return cached, nil
	}
	if c.cacheOnly {
		return nil, fmt.Errorf("race %s: %w", raceID, ErrCacheOnly)
	}
	metrics.CacheMisses.Inc()

	info, horses, err := c.scraper.FetchRaceCard(ctx, raceID)
	if err != nil {
		return nil, err
	}

	for i := range horses {
		runs, err := c.scraper.FetchHorseResults(ctx, horses[i].HorseID)
		if err != nil {
			log.Printf("    %s: history unavailable: %v", horses[i].Name, err)
			runs = []models.HistoricalRun{}
		}
		horses[i].Runs = runs
		log.Printf("    %s: %d走", horses[i].Name, len(runs))

		if err := sleep(ctx, c.delay); err != nil {
			return nil, err
		}
	}

	data := &models.RaceData{RaceInfo: info, Horses: horses}
	if err := c.store.PutRace(raceID, data); err != nil {
		return nil, err
	}
	return data, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
