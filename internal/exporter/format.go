package exporter

import (
	"fmt"
	"strconv"
)

// formatFloat formats a float64 value for CSV output with exactly 2 decimal places
func formatFloat(f float64) string {
	return fmt.Sprintf("%.2f", f)
}

// FormatFloat2 is the exported 2-decimal form used by summary tables.
func FormatFloat2(f float64) string {
	return formatFloat(f)
}

// FormatFloat4 formats statistics that need the extra precision of the
// analysis artifacts (means, correlations, skewness).
func FormatFloat4(f float64) string {
	return strconv.FormatFloat(f, 'f', 4, 64)
}

// FormatInt formats an int64 value for CSV output
func FormatInt(i int64) string {
	return strconv.FormatInt(i, 10)
}

// FormatBool formats a boolean value for CSV output
func FormatBool(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
