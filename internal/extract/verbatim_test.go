package extract

import "testing"

func TestIsVerbatim(t *testing.T) {
	source := "Clinically   Proven to Improve\nSleep Quality by 87%"

	cases := []struct {
		name  string
		claim string
		want  bool
	}{
		{"exact substring", "Proven to Improve Sleep", true},
		{"case difference", "clinically proven", true},
		{"whitespace difference", "Improve  Sleep   Quality", true},
		{"synthesized text", "Helps you fall asleep faster", false},
		{"empty claim", "", false},
		{"reordered words", "Sleep Improve Proven", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := isVerbatim(tc.claim, source); got != tc.want {
				t.Errorf("isVerbatim(%q) = %v, want %v", tc.claim, got, tc.want)
			}
		})
	}
}

func TestCollapseWhitespace(t *testing.T) {
	if got := collapseWhitespace("  a \t b\n\nc  "); got != "a b c" {
		t.Errorf("Expected %q, got %q", "a b c", got)
	}
}
