// Package venue is the single authority for venue identity. Every data
// source encodes venues differently (two-digit JRA codes, full names,
// single-character abbreviations in result tables); everything funnels
// through here.
package venue

// Unknown is returned for codes that map to no JRA venue.
const Unknown = "?"

var codeToName = map[string]string{
	"01": "札幌", "02": "函館", "03": "福島", "04": "新潟",
	"05": "東京", "06": "中山", "07": "中京", "08": "京都",
	"09": "阪神", "10": "小倉",
}

// abbrevs as they appear in netkeiba result tables. 中京 shows up in full
// while the other venues are cut to one character; exact matching keeps it
// from being swallowed by 中 (中山).
var abbrevToName = map[string]string{
	"東": "東京", "京": "京都", "中": "中山", "阪": "阪神",
	"小": "小倉", "新": "新潟", "福": "福島", "函": "函館",
	"札": "札幌", "中京": "中京",
}

// PriorityOrder is the fixed venue ordering used by the index page.
var PriorityOrder = []string{
	"東京", "京都", "小倉", "中山", "阪神", "中京", "新潟", "福島", "函館", "札幌",
}

// Decode maps a two-digit JRA venue code to its canonical name. Unrecognized
// codes return Unknown, never an error.
func Decode(code string) string {
	if name, ok := codeToName[code]; ok {
		return name
	}
	return Unknown
}

// FromRaceID extracts the venue from a 12-digit netkeiba race id, whose
// characters 4..6 are the venue code.
func FromRaceID(raceID string) string {
	if len(raceID) < 6 {
		return Unknown
	}
	return Decode(raceID[4:6])
}

// NormalizeAbbrev resolves the shortened venue forms found in free-text
// result tables. Unmapped input is returned as-is.
func NormalizeAbbrev(short string) string {
	if name, ok := abbrevToName[short]; ok {
		return name
	}
	return short
}

// Canonical reports whether name is one of the ten JRA venues.
func Canonical(name string) bool {
	for _, v := range PriorityOrder {
		if v == name {
			return true
		}
	}
	return false
}
