// Package render turns joined, classified race data into self-contained
// interactive HTML artifacts and the per-day index page. Rendering is pure:
// identical input produces byte-identical output, with horse and run order
// preserved from acquisition.
package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"strings"

	"github.com/jm3hiromu30-bit/keiba-scatter/internal/join"
	"github.com/jm3hiromu30-bit/keiba-scatter/internal/metrics"
	"github.com/jm3hiromu30-bit/keiba-scatter/internal/models"
)

// Chart coordinate domain and highlight-zone tolerances, shared with the
// preview generator. The templates carry the same values.
const (
	XMin = 7.0
	XMax = 12.0
	YMin = 0.0
	YMax = 22.0

	ScoutCushion  = 0.5
	ScoutMoisture = 3.0
	IdealCushion  = 0.2
	IdealMoisture = 1.5
)

// RunView is one embedded data point. Only joined runs become views.
type RunView struct {
	Date     string          `json:"date"`
	Venue    string          `json:"venue"`
	Surface  string          `json:"surface"`
	Distance int             `json:"distance"`
	RaceName string          `json:"race_name"`
	Result   *int            `json:"result"`
	Cushion  float64         `json:"cushion"`
	Moisture float64         `json:"moisture"`
	Cat      models.Category `json:"cat"`
	Good     bool            `json:"good"`
}

// HorseView is one entrant's embedded data, runs in acquisition order.
type HorseView struct {
	Name string    `json:"name"`
	Runs []RunView `json:"races"`
}

// BuildViews classifies every joined run against the target and drops
// unjoined runs from the embedded data entirely. Horses keep their
// acquisition order even when they contribute no points.
func BuildViews(data *models.RaceData, target models.RaceTarget) []HorseView {
	views := make([]HorseView, 0, len(data.Horses))
	for _, h := range data.Horses {
		hv := HorseView{Name: h.Name, Runs: []RunView{}}
		for _, r := range h.Runs {
			if !r.Joined() {
				continue
			}
			hv.Runs = append(hv.Runs, RunView{
				Date:     r.Date,
				Venue:    r.Venue,
				Surface:  r.Surface,
				Distance: r.Distance,
				RaceName: r.RaceName,
				Result:   r.Result,
				Cushion:  *r.Cushion,
				Moisture: *r.Moisture,
				Cat:      join.Classify(r, target),
				Good:     r.GoodResult(),
			})
		}
		views = append(views, hv)
	}
	return views
}

// PointCount sums the embedded data points across horses.
func PointCount(views []HorseView) int {
	n := 0
	for _, hv := range views {
		n += len(hv.Runs)
	}
	return n
}

type artifactData struct {
	Venue          string
	RaceNum        int
	RaceName       string
	Surface        string
	Distance       int
	DateLabel      string
	TargetCushion  float64
	TargetMoisture float64
	TargetDistance int
	HorsesJSON     template.JS
	PreviewName    string
	LegendSame     string
	LegendDiff     string
	LegendOther    string
}

// Artifact renders one race's interactive scatter document.
func Artifact(data *models.RaceData, target models.RaceTarget, dateLabel string) ([]byte, error) {
	views := BuildViews(data, target)
	horsesJSON, err := marshalDeterministic(views)
	if err != nil {
		return nil, fmt.Errorf("encode horses: %w", err)
	}

	info := data.RaceInfo
	surfaceLabel := "ダート"
	otherLabel := "芝レース"
	if info.Surface == models.SurfaceTurf {
		surfaceLabel = "芝"
		otherLabel = "ダート"
	}

	var buf bytes.Buffer
	err = templates.ExecuteTemplate(&buf, "scatter.html", artifactData{
		Venue:          info.Venue,
		RaceNum:        info.RaceNum,
		RaceName:       info.RaceName,
		Surface:        info.Surface,
		Distance:       info.Distance,
		DateLabel:      dateLabel,
		TargetCushion:  target.Cushion,
		TargetMoisture: target.Moisture,
		TargetDistance: target.Distance,
		HorsesJSON:     template.JS(horsesJSON),
		PreviewName:    PreviewFilename(info),
		LegendSame:     "同距離" + surfaceLabel,
		LegendDiff:     "他距離" + surfaceLabel,
		LegendOther:    otherLabel,
	})
	if err != nil {
		return nil, fmt.Errorf("render artifact: %w", err)
	}
	metrics.ArtifactsRendered.Inc()
	return buf.Bytes(), nil
}

// marshalDeterministic encodes without HTML escaping so the embedded data
// matches its in-memory form byte for byte across invocations.
func marshalDeterministic(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

// sanitizeName makes a race name safe for use in a filename.
func sanitizeName(name string) string {
	name = strings.ReplaceAll(name, "/", "_")
	return strings.ReplaceAll(name, " ", "")
}

// ArtifactFilename names an artifact by venue, zero-padded race number and
// sanitized race name.
func ArtifactFilename(info models.RaceInfo) string {
	return fmt.Sprintf("scatter_%s%02dR_%s.html", info.Venue, info.RaceNum, sanitizeName(info.RaceName))
}

// PreviewFilename names the PNG preview that sits beside an artifact.
func PreviewFilename(info models.RaceInfo) string {
	return fmt.Sprintf("scatter_%s%02dR_%s_og.png", info.Venue, info.RaceNum, sanitizeName(info.RaceName))
}
