package models

// Surface markers as they appear in netkeiba listings.
const (
	SurfaceTurf     = "芝"
	SurfaceDirt     = "ダ"
	SurfaceObstacle = "障"
)

// ConditionRecord is one historical track measurement, keyed by (date, venue).
type ConditionRecord struct {
	Date         string   `json:"date"`
	Venue        string   `json:"venue"`
	Cushion      float64  `json:"cushion"`
	TurfMoisture *float64 `json:"turf_goal"`
	DirtMoisture *float64 `json:"dirt_goal"`
}

// TrackCondition is the live measurement for one venue on the target day.
type TrackCondition struct {
	Cushion      *float64
	TurfMoisture *float64
	DirtMoisture *float64
	CushionAt    string
	MoistureAt   string
}

// HistoricalRun is one row of a horse's past results. Cushion and Moisture
// start nil and are populated together by the join; one is nil iff the other
// is. A nil Result means the horse did not finish (scratch/DNF).
type HistoricalRun struct {
	Date     string   `json:"date"`
	Venue    string   `json:"venue"`
	Surface  string   `json:"surface"`
	Distance int      `json:"distance"`
	RaceName string   `json:"race_name"`
	Result   *int     `json:"result"`
	Cushion  *float64 `json:"cushion,omitempty"`
	Moisture *float64 `json:"moisture,omitempty"`
}

// GoodResult reports whether the run finished in the top three.
func (r HistoricalRun) GoodResult() bool {
	return r.Result != nil && *r.Result <= 3
}

// Joined reports whether the run carries a condition measurement.
func (r HistoricalRun) Joined() bool {
	return r.Cushion != nil && r.Moisture != nil
}

// Horse is one entrant with its runs in acquisition order. The order is
// preserved all the way to rendering so output is deterministic.
type Horse struct {
	Name    string          `json:"name"`
	HorseID string          `json:"horse_id"`
	Runs    []HistoricalRun `json:"runs"`
}

// RaceInfo is the metadata parsed for a single race.
type RaceInfo struct {
	RaceID   string `json:"race_id"`
	RaceName string `json:"race_name"`
	Venue    string `json:"venue"`
	RaceNum  int    `json:"race_num"`
	Surface  string `json:"surface"`
	Distance int    `json:"distance"`
}

// RaceData is one race's roster plus each entrant's history. Horses is an
// ordered slice, not a map: acquisition order matters.
type RaceData struct {
	RaceInfo RaceInfo `json:"race_info"`
	Horses   []Horse  `json:"horses"`
}

// RaceTarget is the condition point an artifact is built against.
type RaceTarget struct {
	RaceID   string
	Venue    string
	Surface  string
	Distance int
	Cushion  float64
	Moisture float64
}

// Category classifies a joined run relative to a target race.
type Category string

const (
	SameDistance     Category = "same_dist"
	DifferentDist    Category = "diff_dist"
	DifferentSurface Category = "diff_surface"
)

// RaceSummary is what the index page needs per rendered race.
type RaceSummary struct {
	Venue      string
	RaceNum    int
	RaceName   string
	Filename   string
	HorseCount int
	PointCount int
}
