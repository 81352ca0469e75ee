package geo

import (
	"fmt"
	"math"
)

// FormatDistance renders meters as feet below 1000 ft and miles above,
// e.g. "500 ft" or "1.5 mi".
func FormatDistance(meters float64) string {
	feet := meters * FeetPerMeter
	if feet < 1000 {
		return fmt.Sprintf("%d ft", int(math.Round(feet)))
	}
	return fmt.Sprintf("%.1f mi", feet/5280)
}

// FormatDuration renders seconds as "1h 30m" or "45m"
func FormatDuration(seconds int) string {
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	return fmt.Sprintf("%dm", minutes)
}
