package main

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	kongdotenv "github.com/titusjaka/kong-dotenv-go"
	_ "modernc.org/sqlite"

	"github.com/jm3hiromu30-bit/keiba-scatter/internal/condition"
	"github.com/jm3hiromu30-bit/keiba-scatter/internal/ingest"
	"github.com/jm3hiromu30-bit/keiba-scatter/internal/models"
	"github.com/jm3hiromu30-bit/keiba-scatter/internal/pipeline"
	"github.com/jm3hiromu30-bit/keiba-scatter/internal/publish"
	"github.com/jm3hiromu30-bit/keiba-scatter/internal/runcache"
	"github.com/jm3hiromu30-bit/keiba-scatter/internal/store"
	"github.com/jm3hiromu30-bit/keiba-scatter/internal/venue"
)

var cli struct {
	Date string `arg:"" optional:"" help:"Race date (YYYYMMDD). Defaults to today."`

	Venue     string `help:"Only process races at this venue (e.g. 東京)."`
	Race      int    `help:"Only process this race number." placeholder:"N"`
	CacheOnly bool   `help:"Never scrape; use cached race data only."`
	Manual    bool   `help:"Enter today's track conditions by hand instead of fetching."`

	Output     string `default:"output" help:"Directory for generated pages." type:"path"`
	DB         string `default:"data/keiba.db" help:"Path to the SQLite database." env:"KEIBA_DB"`
	Conditions string `help:"Legacy condition table JSON to merge in." type:"existingfile"`

	Deploy       bool   `help:"Push generated pages to GitHub Pages."`
	DeployConfig string `default:"deploy_config.json" help:"Deploy credential file." env:"KEIBA_DEPLOY_CONFIG"`
	MetricsAddr  string `help:"Expose Prometheus metrics on this address (e.g. :9090)." env:"KEIBA_METRICS_ADDR"`
}

func main() {
	kong.Parse(&cli,
		kong.Name("keiba-scatter"),
		kong.Description("Generates cushion-value scatter pages for a JRA race day."),
		kong.Configuration(kongdotenv.ENVFileReader, ".env"),
	)

	date := cli.Date
	if date == "" {
		date = time.Now().Format("20060102")
	}
	if len(date) != 8 {
		log.Fatalf("date must be YYYYMMDD, got %q", date)
	}
	dateLabel := date[4:6] + "/" + date[6:8]

	db, err := sql.Open("sqlite", cli.DB)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	db.Exec("PRAGMA journal_mode=WAL")
	db.Exec("PRAGMA busy_timeout=5000")

	st := store.New(db)
	if err := st.Migrate(); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	if cli.MetricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			log.Printf("metrics on %s", cli.MetricsAddr)
			if err := http.ListenAndServe(cli.MetricsAddr, mux); err != nil {
				log.Printf("metrics server: %v", err)
			}
		}()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	snapshot, err := loadSnapshot(st)
	if err != nil {
		log.Fatalf("load conditions: %v", err)
	}
	log.Printf("condition snapshot: %d entries", snapshot.Len())

	client := ingest.NewClient()

	log.Printf("=== %s race list ===", date)
	races, err := client.FetchRaceList(ctx, date)
	if err != nil {
		log.Fatalf("race list: %v", err)
	}
	races = pipeline.Filter(races, cli.Venue, cli.Race)
	if len(races) == 0 {
		log.Fatalf("no races for %s with the given filters", date)
	}
	log.Printf("%d races to process", len(races))

	live := liveConditions(ctx, client, races)
	recordConditions(st, date, live)

	p := &pipeline.Pipeline{
		Cache:     runcache.New(st, client, cli.CacheOnly),
		Snapshot:  snapshot,
		Live:      live,
		Defaults:  pipeline.DefaultTarget,
		OutputDir: cli.Output,
		DateLabel: dateLabel,
	}
	summaries, err := p.Run(ctx, races)
	if err != nil {
		log.Fatalf("pipeline: %v", err)
	}
	log.Printf("=== %d pages generated in %s ===", len(summaries), cli.Output)

	if cli.Deploy {
		cfg, err := publish.LoadConfig(cli.DeployConfig)
		if err != nil {
			log.Fatalf("deploy: %v", err)
		}
		pub := publish.New(cfg)
		if err := pub.Sync(ctx, cli.Output, dateLabel); err != nil {
			log.Fatalf("deploy: %v", err)
		}
		log.Printf("published: %s", pub.PagesURL())
	}
}

// loadSnapshot merges the conditions table with the optional legacy JSON
// file. File entries load last so they win over stale DB rows.
func loadSnapshot(st *store.Store) (*condition.Snapshot, error) {
	records, err := st.LoadConditions()
	if err != nil {
		return nil, err
	}
	if cli.Conditions != "" {
		fromFile, err := condition.LoadJSON(cli.Conditions)
		if err != nil {
			return nil, err
		}
		records = append(records, fromFile...)
	}
	return condition.NewSnapshot(records), nil
}

// liveConditions resolves today's measurements: manual entry or the JRA
// feed. A feed failure is not fatal; targets fall back to the defaults.
func liveConditions(ctx context.Context, client *ingest.Client, races []models.RaceInfo) map[string]models.TrackCondition {
	venues := activeVenues(races)
	if cli.Manual {
		return readManual(venues)
	}
	live, err := client.FetchLiveConditions(ctx)
	if err != nil {
		log.Printf("live conditions unavailable, using defaults: %v", err)
		return map[string]models.TrackCondition{}
	}
	for _, v := range venues {
		c, ok := live[v]
		if !ok {
			log.Printf("%s: no live measurement", v)
			continue
		}
		log.Printf("%s: CV=%s 芝=%s%% ダ=%s%%", v, fmtPtr(c.Cushion), fmtPtr(c.TurfMoisture), fmtPtr(c.DirtMoisture))
	}
	return live
}

// activeVenues returns the day's venues in the fixed display order.
func activeVenues(races []models.RaceInfo) []string {
	seen := make(map[string]bool, len(races))
	for _, r := range races {
		seen[r.Venue] = true
	}
	var out []string
	for _, v := range venue.PriorityOrder {
		if seen[v] {
			out = append(out, v)
		}
	}
	return out
}

// readManual prompts for each venue's measurements on stdin. Empty input
// skips a value.
func readManual(venues []string) map[string]models.TrackCondition {
	in := bufio.NewScanner(os.Stdin)
	live := make(map[string]models.TrackCondition, len(venues))
	for _, v := range venues {
		var c models.TrackCondition
		c.Cushion = promptFloat(in, fmt.Sprintf("%s クッション値: ", v))
		c.TurfMoisture = promptFloat(in, fmt.Sprintf("%s 芝含水率(%%): ", v))
		c.DirtMoisture = promptFloat(in, fmt.Sprintf("%s ダート含水率(%%): ", v))
		if c.Cushion == nil && c.TurfMoisture == nil && c.DirtMoisture == nil {
			continue
		}
		live[v] = c
	}
	return live
}

func promptFloat(in *bufio.Scanner, prompt string) *float64 {
	fmt.Print(prompt)
	if !in.Scan() {
		return nil
	}
	text := strings.TrimSpace(in.Text())
	if text == "" {
		return nil
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		log.Printf("ignoring %q: %v", text, err)
		return nil
	}
	return &f
}

// recordConditions saves today's measurements so future runs can join
// against them once these races become history.
func recordConditions(st *store.Store, date string, live map[string]models.TrackCondition) {
	for _, v := range venue.PriorityOrder {
		c, ok := live[v]
		if !ok || c.Cushion == nil {
			continue
		}
		rec := models.ConditionRecord{
			Date:         date,
			Venue:        v,
			Cushion:      *c.Cushion,
			TurfMoisture: c.TurfMoisture,
			DirtMoisture: c.DirtMoisture,
		}
		if err := st.UpsertCondition(rec); err != nil {
			log.Printf("save condition %s: %v", v, err)
		}
	}
}

func fmtPtr(v *float64) string {
	if v == nil {
		return "?"
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
