package ytdlp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseProgress(t *testing.T) {
	tests := []struct {
		line   string
		want   uint8
		wantOK bool
	}{
		{"[download]  45.0% of 10MiB", 45, true},
		{"[download] 100% of 3.20MiB in 00:01", 100, true},
		{"[download]   0.0% of ~5MiB at Unknown speed ETA Unknown", 0, true},
		{"[download]\t12.9%", 12, true},
		{"[download]  99.99% of 1MiB", 99, true},
		{"[download]  250% of 1MiB", 100, true},
		{"[download]  bogus", 0, false},
		{"[download] Destination: /music/Song.webm", 0, false},
		{"[download]  45.0 of 10MiB", 0, false},
		{"[download]  -3% of 10MiB", 0, false},
		{"[download]  NaN%", 0, false},
		{"[download]  Inf%", 0, false},
		{"[download]", 0, false},
		{"[ExtractAudio] Destination: /music/Song.mp3", 0, false},
		{"  [download]  45.0%", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, ok := ParseProgress(tt.line)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
