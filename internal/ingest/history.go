package ingest

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/encoding/japanese"

	"github.com/jm3hiromu30-bit/keiba-scatter/internal/models"
	"github.com/jm3hiromu30-bit/keiba-scatter/internal/venue"
)

// MaxHistoryRuns bounds how far back each entrant's history goes.
const MaxHistoryRuns = 10

var (
	digitsRe          = regexp.MustCompile(`\d+`)
	historySurfDistRe = regexp.MustCompile(`(芝|ダ|障)(\d+)`)
)

// FetchHorseResults reads the first MaxHistoryRuns data rows of a horse's
// result table, in page (most-recent-first) order. Rows inside that window
// that fail to parse are dropped, not replaced by later rows. A page with
// no result table yields an empty slice, not an error: first-time starters
// legitimately have none.
func (c *Client) FetchHorseResults(ctx context.Context, horseID string) ([]models.HistoricalRun, error) {
	url := fmt.Sprintf("%s/horse/result/%s/", c.netkeibaDBURL, horseID)
	doc, err := c.fetchDoc(ctx, "horse_result", url, japanese.EUCJP)
	if err != nil {
		return nil, err
	}

	runs := []models.HistoricalRun{}
	rows := doc.Find("table.db_h_race_results tr")
	rows.Each(func(i int, row *goquery.Selection) {
		// Row 0 is the header; only the first MaxHistoryRuns data rows are
		// considered, even when some of them fail to parse.
		if i == 0 || i > MaxHistoryRuns {
			return
		}
		cells := row.Find("td")
		if cells.Length() < 15 {
			return
		}

		run := models.HistoricalRun{
			Date:     strings.TrimSpace(cells.Eq(0).Text()),
			RaceName: strings.TrimSpace(cells.Eq(4).Text()),
		}

		rawVenue := strings.TrimSpace(cells.Eq(1).Text())
		run.Venue = venue.NormalizeAbbrev(strings.TrimSpace(digitsRe.ReplaceAllString(rawVenue, "")))

		if result := strings.TrimSpace(cells.Eq(11).Text()); isDigits(result) {
			n, _ := strconv.Atoi(result)
			run.Result = &n
		}

		sd := historySurfDistRe.FindStringSubmatch(strings.TrimSpace(cells.Eq(14).Text()))
		if sd == nil {
			run.Surface = "?"
		} else {
			run.Surface = sd[1]
			run.Distance = atoiOrZero(sd[2])
		}

		runs = append(runs, run)
	})

	return runs, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func atoiOrZero(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
