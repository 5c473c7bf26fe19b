package condition

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jm3hiromu30-bit/keiba-scatter/internal/models"
)

func writeTable(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cushion_db.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write table: %v", err)
	}
	return path
}

func TestLoadJSON(t *testing.T) {
	path := writeTable(t, `{
		"20260215_東京": {"cushion": 9.8, "turf_goal": 11.2, "dirt_goal": 4.5},
		"20260215_京都": {"cushion": 9.1, "turf_goal": 13.0, "dirt_goal": null}
	}`)

	records, err := LoadJSON(path)
	if err != nil {
		t.Fatalf("LoadJSON: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}

	snap := NewSnapshot(records)
	rec, ok := snap.Lookup("20260215", "東京")
	if !ok {
		t.Fatal("expected lookup hit for 20260215_東京")
	}
	if rec.Cushion != 9.8 {
		t.Errorf("cushion = %v, want 9.8", rec.Cushion)
	}
	if rec.TurfMoisture == nil || *rec.TurfMoisture != 11.2 {
		t.Errorf("turf moisture = %v, want 11.2", rec.TurfMoisture)
	}
	if rec.DirtMoisture == nil || *rec.DirtMoisture != 4.5 {
		t.Errorf("dirt moisture = %v, want 4.5", rec.DirtMoisture)
	}

	rec, ok = snap.Lookup("20260215", "京都")
	if !ok {
		t.Fatal("expected lookup hit for 20260215_京都")
	}
	if rec.DirtMoisture != nil {
		t.Errorf("dirt moisture = %v, want nil", rec.DirtMoisture)
	}

	if _, ok := snap.Lookup("20260101", "東京"); ok {
		t.Error("expected lookup miss for absent key")
	}
}

func TestLoadJSONSkipsMalformedEntries(t *testing.T) {
	path := writeTable(t, `{
		"20260215_東京": {"cushion": 9.8, "turf_goal": 11.2, "dirt_goal": 4.5},
		"nodate": {"cushion": 9.0},
		"20260216_中山": {"turf_goal": 12.0},
		"20260217_阪神": "not an object"
	}`)

	records, err := LoadJSON(path)
	if err != nil {
		t.Fatalf("LoadJSON: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected malformed entries skipped, got %d records", len(records))
	}
	if records[0].Venue != "東京" {
		t.Errorf("surviving record venue = %q", records[0].Venue)
	}
}

func TestLoadJSONMissingFile(t *testing.T) {
	if _, err := LoadJSON(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestKeyNormalizesDateSeparators(t *testing.T) {
	want := "20260215_東京"
	for _, date := range []string{"20260215", "2026/02/15", "2026-02-15"} {
		if got := Key(date, "東京"); got != want {
			t.Errorf("Key(%q) = %q, want %q", date, got, want)
		}
	}
}

func TestSnapshotLastWriteWins(t *testing.T) {
	turf := 10.0
	records := []models.ConditionRecord{
		{Date: "20260215", Venue: "東京", Cushion: 9.0},
		{Date: "20260215", Venue: "東京", Cushion: 9.9, TurfMoisture: &turf},
	}

	snap := NewSnapshot(records)
	if snap.Len() != 1 {
		t.Fatalf("expected 1 key, got %d", snap.Len())
	}
	rec, _ := snap.Lookup("20260215", "東京")
	if rec.Cushion != 9.9 {
		t.Errorf("cushion = %v, want last-written 9.9", rec.Cushion)
	}
}
