package youtube

import (
	"errors"
	"regexp"
	"strconv"
)

// ErrInvalidDuration is returned for strings that are not ISO 8601 durations.
var ErrInvalidDuration = errors.New("invalid ISO 8601 duration")

var isoDurationPattern = regexp.MustCompile(`^P(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?)?$`)

// ParseISODuration converts a YouTube content duration such as "PT1H2M3S"
// into whole seconds.
func ParseISODuration(s string) (int, error) {
	m := isoDurationPattern.FindStringSubmatch(s)
	if m == nil || s == "P" || s == "PT" {
		return 0, ErrInvalidDuration
	}

	multipliers := []int{24 * 3600, 3600, 60, 1}
	total := 0
	for i, mult := range multipliers {
		if m[i+1] == "" {
			continue
		}
		n, err := strconv.Atoi(m[i+1])
		if err != nil {
			return 0, ErrInvalidDuration
		}
		total += n * mult
	}
	return total, nil
}
