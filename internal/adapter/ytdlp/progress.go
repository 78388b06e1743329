package ytdlp

import (
	"math"
	"strconv"
	"strings"
)

// ProgressMarker starts every download progress line in --newline mode.
const ProgressMarker = "[download]"

// ParseProgress extracts the percentage from a progress line of the form
//
//	[download] <ws> <number>% <rest>
//
// The value is truncated and clamped to 0-100. Any other line yields false.
func ParseProgress(line string) (uint8, bool) {
	rest, ok := strings.CutPrefix(line, ProgressMarker)
	if !ok {
		return 0, false
	}
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return 0, false
	}
	token, ok := strings.CutSuffix(fields[0], "%")
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseFloat(token, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, false
	}
	if v > 100 {
		v = 100
	}
	return uint8(v), true
}
