package marketplace

import "testing"

func TestHumanFormat(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1K"},
		{1500, "1.5K"},
		{2000000, "2M"},
		{3500000000, "3.5B"},
		{1000000000000, "1T"},
		{-1500, "-1.5K"},
	}
	for _, tt := range tests {
		if got := HumanFormat(tt.in); got != tt.want {
			t.Errorf("HumanFormat(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestQuickPickDetail(t *testing.T) {
	tests := []struct {
		name  string
		count int
		stats Statistics
		want  string
	}{
		{
			name:  "NoStats",
			count: 1,
			want:  "$(symbol-color) 1 Theme",
		},
		{
			name:  "PluralWithInstalls",
			count: 3,
			stats: Statistics{Installs: 1500},
			want:  "$(symbol-color) 3 Themes | $(extensions-install-count) 1.5K",
		},
		{
			name:  "Full",
			count: 2,
			stats: Statistics{Installs: 2000000, Rating: 4.5, RatingCount: 321},
			want:  "$(symbol-color) 2 Themes | $(extensions-install-count) 2M | $(star-full) 4.5/321",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := QuickPickDetail(tt.count, tt.stats); got != tt.want {
				t.Errorf("QuickPickDetail = %q, want %q", got, tt.want)
			}
		})
	}
}
