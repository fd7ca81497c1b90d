package crawl

import (
	"fmt"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/dustin/go-humanize"
)

// computeHash computes a hash of the content using xxhash.
func computeHash(content string) string {
	h := xxhash.Sum64String(content)
	return fmt.Sprintf("%016x", h)
}

// ComputeHash returns the change-detection hash stored on pages.
func ComputeHash(content string) string {
	return computeHash(content)
}

// TruncateURL shortens a URL for progress output to at most maxLen runes.
// The scheme and host at the front and the last path segment at the back
// are the parts kept, joined by "...".
func TruncateURL(rawURL string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	r := []rune(rawURL)
	if len(r) <= maxLen {
		return rawURL
	}
	if maxLen <= len(ellipsis) {
		return string(r[:maxLen])
	}
	head := (maxLen - len(ellipsis)) / 2
	tail := maxLen - len(ellipsis) - head
	return string(r[:head]) + ellipsis + string(r[len(r)-tail:])
}

const ellipsis = "..."

// FormatBytes formats a fetched byte count using binary units.
func FormatBytes(bytes int) string {
	return humanize.IBytes(uint64(max(bytes, 0)))
}

// FormatRate formats a pages-per-second rate over an elapsed duration.
func FormatRate(pages int, elapsed time.Duration) string {
	if elapsed <= 0 || pages == 0 {
		return "0.0 pages/s"
	}
	return fmt.Sprintf("%.1f pages/s", float64(pages)/elapsed.Seconds())
}
