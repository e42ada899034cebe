package domain

import (
	"fmt"
	"time"
)

// Visit is one browser history entry, or a collapsed episode of consecutive
// visits to the same page.
type Visit struct {
	Provenance

	// Hostname identifies the machine the snapshot came from.
	Hostname string

	URL   string
	Title string

	// ViewTime is the earliest view of the episode.
	ViewTime *time.Time

	// LastViewTime is the latest view of the episode.
	LastViewTime time.Time

	// Duration is the summed positive time on page. Nil when the browser does not record it.
	Duration *time.Duration

	// Gap is the largest time since the previous view of the same url. Nil for a first view.
	Gap *time.Duration

	// VisitCount is the number of raw visits merged into the episode.
	VisitCount int
}

// Key returns the natural key: hostname, earliest view time and url.
func (v *Visit) Key() string {
	var at int64
	if v.ViewTime != nil {
		at = v.ViewTime.UnixMicro()
	}
	return fmt.Sprintf("%s|%d|%s", v.Hostname, at, v.URL)
}

// SameEpisode reports whether other continues the episode v.
func (v *Visit) SameEpisode(other *Visit) bool {
	return v.URL == other.URL && v.Title == other.Title
}
