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
)

// Venue blocks on the JRA pages carry ids like rcA, rcB, with the venue name
// in the title attribute.
var rcBlockRe = regexp.MustCompile(`^rc[A-Z]`)

// FetchLiveConditions reads the day's cushion values and goal-front moisture
// percentages from the JRA condition pages. The pages are per-venue blocks;
// a venue may appear on one page but not the other.
func (c *Client) FetchLiveConditions(ctx context.Context) (map[string]models.TrackCondition, error) {
	result := map[string]models.TrackCondition{}

	doc, err := c.fetchDoc(ctx, "jra_cushion", c.jraBaseURL+"/keiba/baba/_data_cushion.html", japanese.ShiftJIS)
	if err != nil {
		return nil, fmt.Errorf("cushion page: %w", err)
	}
	doc.Find("div[id]").Each(func(_ int, sel *goquery.Selection) {
		id, _ := sel.Attr("id")
		if !rcBlockRe.MatchString(id) {
			return
		}
		venue, _ := sel.Attr("title")
		unit := sel.Find("div.unit").First()
		if unit.Length() == 0 {
			return
		}
		cushion, ok := parseFloatText(unit.Find("div.cushion").First().Text())
		if !ok {
			return
		}
		cond := result[venue]
		cond.Cushion = &cushion
		cond.CushionAt = strings.TrimSpace(unit.Find("div.time").First().Text())
		result[venue] = cond
	})

	doc, err = c.fetchDoc(ctx, "jra_moisture", c.jraBaseURL+"/keiba/baba/_data_moist.html", japanese.ShiftJIS)
	if err != nil {
		return nil, fmt.Errorf("moisture page: %w", err)
	}
	doc.Find("div[id]").Each(func(_ int, sel *goquery.Selection) {
		id, _ := sel.Attr("id")
		if !rcBlockRe.MatchString(id) {
			return
		}
		venue, _ := sel.Attr("title")
		unit := sel.Find("div.unit").First()
		if unit.Length() == 0 {
			return
		}
		cond := result[venue]
		if v, ok := parseFloatText(unit.Find("div.turf span.mg").First().Text()); ok {
			cond.TurfMoisture = &v
		}
		if v, ok := parseFloatText(unit.Find("div.dirt span.mg").First().Text()); ok {
			cond.DirtMoisture = &v
		}
		cond.MoistureAt = strings.TrimSpace(unit.Find("div.time").First().Text())
		result[venue] = cond
	})

	return result, nil
}

func parseFloatText(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
