package ingest

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jm3hiromu30-bit/keiba-scatter/internal/models"
	"github.com/jm3hiromu30-bit/keiba-scatter/internal/venue"
)

var (
	raceIDRe      = regexp.MustCompile(`race_id=(\d+)`)
	surfaceDistRe = regexp.MustCompile(`(芝|ダ|障)(\d+)m`)
	raceNameRe    = regexp.MustCompile(`^\d+R(.+?)[\d:]+`)
)

// FetchRaceList returns the races scheduled for date (YYYYMMDD), in listing
// order, deduplicated by race id. Surface, distance and name are best-effort
// parses of the listing text; a race that fails to parse still appears with
// zero distance and surface "?".
func (c *Client) FetchRaceList(ctx context.Context, date string) ([]models.RaceInfo, error) {
	url := fmt.Sprintf("%s/top/race_list_sub.html?kaisai_date=%s", c.netkeibaRaceURL, date)
	doc, err := c.fetchDoc(ctx, "race_list", url, nil)
	if err != nil {
		return nil, err
	}

	seen := map[string]bool{}
	var races []models.RaceInfo
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		m := raceIDRe.FindStringSubmatch(href)
		if m == nil || seen[m[1]] {
			return
		}
		rid := m[1]
		seen[rid] = true

		text := strings.TrimSpace(sel.Text())
		info := models.RaceInfo{
			RaceID:  rid,
			Venue:   venue.FromRaceID(rid),
			Surface: "?",
		}
		if len(rid) >= 12 {
			if n, err := strconv.Atoi(rid[10:12]); err == nil {
				info.RaceNum = n
			}
		}
		if sd := surfaceDistRe.FindStringSubmatch(text); sd != nil {
			info.Surface = sd[1]
			info.Distance, _ = strconv.Atoi(sd[2])
		}
		if nm := raceNameRe.FindStringSubmatch(text); nm != nil {
			info.RaceName = nm[1]
		} else {
			info.RaceName = text
		}
		races = append(races, info)
	})

	return races, nil
}
