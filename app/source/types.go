package source

import (
	"time"
)

// Article is one (URL, raw text) pair produced by a news source. The
// ingestion pipeline depends only on this shape and does not care
// whether it came from a feed or a scraped index page.
type Article struct {
	URL         string
	Title       string
	Content     string
	Source      string
	PublishedAt *time.Time
}
