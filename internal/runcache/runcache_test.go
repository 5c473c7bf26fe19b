package runcache

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/jm3hiromu30-bit/keiba-scatter/internal/ingest"
	"github.com/jm3hiromu30-bit/keiba-scatter/internal/models"
	"github.com/jm3hiromu30-bit/keiba-scatter/internal/store"
)

type fakeScraper struct {
	cardCalls    int
	historyCalls int
	cardErr      error
	historyErrs  map[string]error
}

func (f *fakeScraper) FetchRaceCard(_ context.Context, raceID string) (models.RaceInfo, []models.Horse, error) {
	f.cardCalls++
	if f.cardErr != nil {
		return models.RaceInfo{}, nil, f.cardErr
	}
	info := models.RaceInfo{RaceID: raceID, RaceName: "テストレース", Venue: "東京", RaceNum: 11, Surface: models.SurfaceTurf, Distance: 1600}
	horses := []models.Horse{
		{Name: "ホースA", HorseID: "1001"},
		{Name: "ホースB", HorseID: "1002"},
	}
	return info, horses, nil
}

func (f *fakeScraper) FetchHorseResults(_ context.Context, horseID string) ([]models.HistoricalRun, error) {
	f.historyCalls++
	if err := f.historyErrs[horseID]; err != nil {
		return nil, err
	}
	return []models.HistoricalRun{
		{Date: "2026/01/12", Venue: "中山", Surface: models.SurfaceTurf, Distance: 1600, RaceName: "前走" + horseID},
	}, nil
}

func setupStore(t *testing.T) *store.Store {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	st := store.New(db)
	if err := st.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return st
}

func TestGetOrFetchScrapesAndPersists(t *testing.T) {
	st := setupStore(t)
	sc := &fakeScraper{}
	cache := New(st, sc, false)
	cache.delay = 0

	data, err := cache.GetOrFetch(context.Background(), "202605010811")
	if err != nil {
		t.Fatalf("GetOrFetch: %v", err)
	}
	if sc.cardCalls != 1 || sc.historyCalls != 2 {
		t.Errorf("calls = %d card / %d history", sc.cardCalls, sc.historyCalls)
	}
	if len(data.Horses) != 2 || len(data.Horses[0].Runs) != 1 {
		t.Fatalf("unexpected data: %+v", data)
	}

	// Second call must come from the store, not the scraper.
	again, err := cache.GetOrFetch(context.Background(), "202605010811")
	if err != nil {
		t.Fatalf("GetOrFetch (cached): %v", err)
	}
	if sc.cardCalls != 1 {
		t.Errorf("cache hit still scraped: %d card calls", sc.cardCalls)
	}
	if again.RaceInfo.RaceName != "テストレース" {
		t.Errorf("cached race name = %q", again.RaceInfo.RaceName)
	}
}

func TestGetOrFetchCacheOnlyMiss(t *testing.T) {
	st := setupStore(t)
	sc := &fakeScraper{}
	cache := New(st, sc, true)

	_, err := cache.GetOrFetch(context.Background(), "202605010811")
	if !errors.Is(err, ErrCacheOnly) {
		t.Fatalf("expected ErrCacheOnly, got %v", err)
	}
	if sc.cardCalls != 0 {
		t.Error("cache-only mode must never fall through to scraping")
	}
}

func TestGetOrFetchCacheOnlyHit(t *testing.T) {
	st := setupStore(t)
	seeded := &models.RaceData{RaceInfo: models.RaceInfo{RaceID: "202605010811", RaceName: "既存"}}
	if err := st.PutRace("202605010811", seeded); err != nil {
		t.Fatalf("seed: %v", err)
	}

	cache := New(st, &fakeScraper{}, true)
	data, err := cache.GetOrFetch(context.Background(), "202605010811")
	if err != nil {
		t.Fatalf("GetOrFetch: %v", err)
	}
	if data.RaceInfo.RaceName != "既存" {
		t.Errorf("race name = %q", data.RaceInfo.RaceName)
	}
}

func TestGetOrFetchRosterFailurePropagates(t *testing.T) {
	st := setupStore(t)
	sc := &fakeScraper{cardErr: ingest.ErrNoData}
	cache := New(st, sc, false)
	cache.delay = 0

	_, err := cache.GetOrFetch(context.Background(), "202605010811")
	if !errors.Is(err, ingest.ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}

	// Nothing should have been persisted for the failed race.
	cached, err := st.GetRace("202605010811")
	if err != nil {
		t.Fatalf("GetRace: %v", err)
	}
	if cached != nil {
		t.Error("failed race must not be cached")
	}
}

func TestGetOrFetchHistoryFailureDegrades(t *testing.T) {
	st := setupStore(t)
	sc := &fakeScraper{historyErrs: map[string]error{"1001": errors.New("parse error")}}
	cache := New(st, sc, false)
	cache.delay = 0

	data, err := cache.GetOrFetch(context.Background(), "202605010811")
	if err != nil {
		t.Fatalf("GetOrFetch: %v", err)
	}
	if len(data.Horses) != 2 {
		t.Fatalf("expected both horses kept, got %d", len(data.Horses))
	}
	if len(data.Horses[0].Runs) != 0 {
		t.Errorf("failed horse should have empty history, got %d runs", len(data.Horses[0].Runs))
	}
	if len(data.Horses[1].Runs) != 1 {
		t.Errorf("healthy horse lost its history")
	}
}
