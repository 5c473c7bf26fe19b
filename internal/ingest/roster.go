package ingest

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/encoding/japanese"

	"github.com/jm3hiromu30-bit/keiba-scatter/internal/models"
	"github.com/jm3hiromu30-bit/keiba-scatter/internal/venue"
)

// ErrNoData means the roster page had no recognizable entrant table. The
// race is skipped, not retried.
var ErrNoData = errors.New("no roster data")

var horseIDRe = regexp.MustCompile(`/horse/(\d+)`)

// FetchRaceCard reads the shutuba page for raceID: race metadata plus the
// entrant list in page order. Entrants come back with empty run histories.
func (c *Client) FetchRaceCard(ctx context.Context, raceID string) (models.RaceInfo, []models.Horse, error) {
	url := fmt.Sprintf("%s/race/shutuba.html?race_id=%s", c.netkeibaRaceURL, raceID)
	doc, err := c.fetchDoc(ctx, "shutuba", url, japanese.EUCJP)
	if err != nil {
		return models.RaceInfo{}, nil, err
	}

	info := models.RaceInfo{
		RaceID:   raceID,
		RaceName: strings.TrimSpace(doc.Find("div.RaceName").First().Text()),
		Venue:    venue.FromRaceID(raceID),
		Surface:  "?",
	}
	raceData := strings.TrimSpace(doc.Find("div.RaceData01").First().Text())
	if sd := surfaceDistRe.FindStringSubmatch(raceData); sd != nil {
		info.Surface = sd[1]
		info.Distance = atoiOrZero(sd[2])
	}
	if len(raceID) >= 12 {
		info.RaceNum = atoiOrZero(raceID[10:12])
	}

	table := doc.Find("table.Shutuba_Table").First()
	if table.Length() == 0 {
		table = doc.Find("table#shutuba_table").First()
	}
	if table.Length() == 0 {
		return models.RaceInfo{}, nil, ErrNoData
	}

	var horses []models.Horse
	table.Find("tr.HorseList").Each(func(_ int, row *goquery.Selection) {
		link := row.Find("a[href*='/horse/']").First()
		if link.Length() == 0 {
			return
		}
		href, _ := link.Attr("href")
		m := horseIDRe.FindStringSubmatch(href)
		if m == nil {
			return
		}
		horses = append(horses, models.Horse{
			Name:    strings.TrimSpace(link.Text()),
			HorseID: m[1],
			Runs:    []models.HistoricalRun{},
		})
	})

	return info, horses, nil
}
