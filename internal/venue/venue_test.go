package venue

import "testing"

func TestDecode(t *testing.T) {
	tests := []struct {
		code string
		want string
	}{
		{"01", "札幌"},
		{"05", "東京"},
		{"08", "京都"},
		{"10", "小倉"},
		{"11", Unknown},
		{"", Unknown},
		{"5", Unknown},
	}

	for _, tt := range tests {
		if got := Decode(tt.code); got != tt.want {
			t.Errorf("Decode(%q) = %q, want %q", tt.code, got, tt.want)
		}
	}
}

func TestFromRaceID(t *testing.T) {
	tests := []struct {
		raceID string
		want   string
	}{
		{"202605010811", "東京"},
		{"202609020311", "阪神"},
		{"2026", Unknown},
		{"202699010811", Unknown},
	}

	for _, tt := range tests {
		if got := FromRaceID(tt.raceID); got != tt.want {
			t.Errorf("FromRaceID(%q) = %q, want %q", tt.raceID, got, tt.want)
		}
	}
}

func TestNormalizeAbbrev(t *testing.T) {
	tests := []struct {
		short string
		want  string
	}{
		{"東", "東京"},
		{"中", "中山"},
		{"中京", "中京"},
		{"阪", "阪神"},
		{"門別", "門別"}, // NAR venue, passed through untouched
		{"", ""},
	}

	for _, tt := range tests {
		if got := NormalizeAbbrev(tt.short); got != tt.want {
			t.Errorf("NormalizeAbbrev(%q) = %q, want %q", tt.short, got, tt.want)
		}
	}
}

func TestPriorityOrderCoversAllVenues(t *testing.T) {
	if len(PriorityOrder) != 10 {
		t.Fatalf("expected 10 venues, got %d", len(PriorityOrder))
	}
	for _, code := range []string{"01", "02", "03", "04", "05", "06", "07", "08", "09", "10"} {
		if !Canonical(Decode(code)) {
			t.Errorf("venue for code %s missing from priority order", code)
		}
	}
}
