package bundle

import (
	"strings"
	"testing"
)

func TestSlug(t *testing.T) {
	tests := []struct {
		title string
		year  int
		want  string
	}{
		{"Scaling Laws for X", 2024, "scaling-laws-for-x-2024"},
		{"Bits & Bytes", 2023, "bits-and-bytes-2023"},
		{"{GPT}-4 Technical Report", 2023, "gpt-4-technical-report-2023"},
		{"  --Hello,   World!--  ", 2022, "hello-world-2022"},
		{"Café au lait", 2021, "caf-au-lait-2021"},
		{"深度学习", 2020, "publication-2020"},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			if got := Slug(tt.title, tt.year); got != tt.want {
				t.Errorf("Slug(%q, %d) = %q, want %q", tt.title, tt.year, got, tt.want)
			}
		})
	}
}

func TestSlug_PunctuationCollapses(t *testing.T) {
	a := Slug("Scaling Laws: For X!", 2024)
	b := Slug("Scaling laws -- for x", 2024)
	if a != b {
		t.Errorf("punctuation variants gave %q and %q", a, b)
	}
	if Slug("Scaling Laws: For X!", 2024) != a {
		t.Error("Slug is not deterministic")
	}
}

func TestSlug_Truncation(t *testing.T) {
	title := strings.Repeat("word ", 30)
	got := Slug(title, 2024)
	stem := strings.TrimSuffix(got, "-2024")
	if len(stem) > MaxSlugLen {
		t.Errorf("slug stem %q is %d chars, want <= %d", stem, len(stem), MaxSlugLen)
	}
	if strings.HasSuffix(stem, "-") || strings.Contains(stem, "wor-") {
		t.Errorf("slug %q not cut on a hyphen boundary", got)
	}
	if stem != strings.TrimSuffix(strings.Repeat("word-", 16), "-") {
		t.Errorf("slug stem = %q", stem)
	}

	long := strings.Repeat("a", 100)
	if got := Slug(long, 2024); got != strings.Repeat("a", MaxSlugLen)+"-2024" {
		t.Errorf("Slug(long word) = %q", got)
	}
}
