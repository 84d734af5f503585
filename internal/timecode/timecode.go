// Package timecode converts between user supplied offsets and seconds.
package timecode

import (
	"fmt"
	"strconv"
	"strings"
)

// Parse reads "90", "1:30", "0:01:30" or "1h2m3s" style offsets into seconds
//
// Unparsable components count as zero, so the result is always usable.
func Parse(s string) float64 {
	s = strings.TrimSpace(s)

	if strings.ContainsAny(s, "hms") {
		var total uint64
		for _, unit := range []struct {
			suffix byte
			scale  uint64
		}{
			{'h', 3600},
			{'m', 60},
			{'s', 1},
		} {
			i := strings.IndexByte(s, unit.suffix)
			if i < 0 {
				continue
			}

			total += parseUint(s[:i]) * unit.scale
			s = s[i+1:]
		}

		return float64(total)
	}

	if !strings.Contains(s, ":") {
		return float64(parseUint(s))
	}

	var total uint64
	for _, part := range strings.Split(s, ":") {
		total = total*60 + parseUint(part)
	}

	return float64(total)
}

func parseUint(s string) uint64 {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0
	}

	return v
}

// Format renders whole seconds as [h:]mm:ss; non-positive values render as a bare integer
func Format(seconds float64) string {
	t := int64(seconds)

	if t <= 0 {
		return strconv.FormatInt(t, 10)
	}

	h := t / 3600
	m := (t % 3600) / 60
	sec := t % 60

	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, sec)
	}

	return fmt.Sprintf("%02d:%02d", m, sec)
}
