package utils

import (
	"testing"
)

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Code Week Oslo":     "code-week-oslo",
		"Søndagsskole: Kidz": "sondagsskole-kidz",
		"  spaced   out  ":   "spaced-out",
	}
	for in, want := range cases {
		if got := Slugify(in); got != want {
			t.Fatalf("Slugify(%q) = %q, want %q", in, got, want)
		}
	}
}
