package terminal

import (
	"fmt"
	"strconv"
	"time"
)

// FormatBytes renders a byte count as "0 bytes", "512 bytes", "1.50 KB" or "2.00 MB".
func FormatBytes(n uint64) string {
	const (
		kb = 1024
		mb = 1024 * kb
	)

	switch {
	case n == 0:
		return "0 bytes"
	case n < kb:
		return strconv.FormatUint(n, 10) + " bytes"
	case n < mb:
		return fmt.Sprintf("%.2f KB", float64(n)/kb)
	default:
		return fmt.Sprintf("%.2f MB", float64(n)/mb)
	}
}

// FormatUptime renders d as HH:MM:SS, truncated to whole seconds. Negative durations render as 00:00:00.
func FormatUptime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int64(d / time.Second)

	return fmt.Sprintf("%02d:%02d:%02d", secs/3600, (secs%3600)/60, secs%60)
}
