package youtube

import (
	"regexp"
	"strconv"
)

// durationRe matches ISO-8601 durations as the platform emits them
// (e.g. "PT1H2M3S", "PT45S", "P1DT2H").
var durationRe = regexp.MustCompile(`^P(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?)?$`)

// ParseISODuration converts an ISO-8601 duration string to whole seconds.
// Malformed input parses to 0; durations are never negative.
func ParseISODuration(s string) int {
	m := durationRe.FindStringSubmatch(s)
	if m == nil {
		return 0
	}

	days := atoi(m[1])
	hours := atoi(m[2])
	minutes := atoi(m[3])
	seconds := atoi(m[4])

	return ((days*24+hours)*60+minutes)*60 + seconds
}

func atoi(s string) int {
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
