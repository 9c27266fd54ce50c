package venue

import (
	"testing"
	"time"
)

var fixedNow = time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)

func TestExtractArxivID(t *testing.T) {
	tests := []struct {
		name   string
		fields map[string]string
		want   string
	}{
		{"eprinttype", map[string]string{"eprinttype": "arXiv", "eprint": "2301.01234"}, "2301.01234"},
		{"corr eprint", map[string]string{"journal": "CoRR", "eprint": "2212.10509"}, "2212.10509"},
		{"corr volume", map[string]string{"journal": "CoRR", "volume": "abs/2212.10509"}, "2212.10509"},
		{"doi url", map[string]string{"url": "https://doi.org/10.48550/arXiv.2403.12345"}, "2403.12345"},
		{"abs link alone", map[string]string{"eprint_url": "https://arxiv.org/abs/2506.13992v2"}, ""},
		{"proceedings with arxiv ee", map[string]string{"booktitle": "Proc. ICML 2023", "ee": "https://arxiv.org/abs/2205.01234"}, ""},
		{"eprinttype wins", map[string]string{"eprinttype": "arxiv", "eprint": "2301.00001", "url": "https://arxiv.org/abs/2301.00002"}, "2301.00001"},
		{"volume without corr", map[string]string{"journal": "Nature", "volume": "abs/2212.10509"}, ""},
		{"none", map[string]string{"journal": "Nature"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractArxivID(tt.fields); got != tt.want {
				t.Errorf("ExtractArxivID() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestArxivDate(t *testing.T) {
	tests := []struct {
		id        string
		wantYear  int
		wantMonth int
		wantOK    bool
	}{
		{"2212.10509", 2022, 12, true},
		{"2301.01234v3", 2023, 1, true},
		{"1501.0001", 2015, 1, true},
		{"9912.00001", 0, 0, false}, // pre-2000 scheme, not guessed
		{"2613.00001", 0, 0, false}, // month 13
		{"hep-th/9901001", 0, 0, false},
		{"", 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			y, m, ok := ArxivDate(tt.id, fixedNow)
			if y != tt.wantYear || m != tt.wantMonth || ok != tt.wantOK {
				t.Errorf("ArxivDate(%q) = (%d, %d, %v), want (%d, %d, %v)",
					tt.id, y, m, ok, tt.wantYear, tt.wantMonth, tt.wantOK)
			}
		})
	}
}
