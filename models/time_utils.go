package models

import "time"

// TimeframeDuration maps an interval label to its bar duration
func TimeframeDuration(interval string) (time.Duration, bool) {
	switch interval {
	case "1min", "1m":
		return time.Minute, true
	case "5min", "5m":
		return 5 * time.Minute, true
	case "15min", "15m":
		return 15 * time.Minute, true
	case "30min", "30m":
		return 30 * time.Minute, true
	case "45min", "45m":
		return 45 * time.Minute, true
	case "1h":
		return time.Hour, true
	case "2h":
		return 2 * time.Hour, true
	case "4h":
		return 4 * time.Hour, true
	case "8h":
		return 8 * time.Hour, true
	case "1day", "1d":
		return 24 * time.Hour, true
	case "1week", "1w":
		return 7 * 24 * time.Hour, true
	}
	return 0, false
}

var canonicalLabels = []string{"1min", "5min", "15min", "30min", "45min", "1h", "2h", "4h", "8h", "1day", "1week"}

// HigherTimeframeLabel names the interval obtained by grouping multiplier bars
func HigherTimeframeLabel(interval string, multiplier int) string {
	d, ok := TimeframeDuration(interval)
	if !ok || multiplier <= 1 {
		return interval
	}
	target := d * time.Duration(multiplier)
	for _, label := range canonicalLabels {
		if ld, _ := TimeframeDuration(label); ld == target {
			return label
		}
	}
	return target.String()
}
