package utils

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

const MB = 1024 * 1024

// FormatSize renders a byte count the way the package list shows it: always
// megabytes with two decimals, so small packages read "0.00 MB".
func FormatSize(b int64) string {
	if b < 0 {
		b = 0
	}
	return fmt.Sprintf("%.2f MB", float64(b)/float64(MB))
}

// HumanizeBytes formats a byte count into a readable string for logs and summaries.
func HumanizeBytes(b int64) string {
	if b < 0 {
		b = 0
	}
	return humanize.IBytes(uint64(b))
}
