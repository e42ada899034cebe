package services

import (
	"time"

	"github.com/custodia-labs/almanac/internal/core/domain"
)

// CollapseVisits merges runs of consecutive visits with the same url and title
// into one episode, in a single pass. Input must be ordered by view time then url.
//
// Within an episode: positive durations are summed; the earliest non-nil view
// time is kept; the latest view time and visit count accumulate; the gap is the
// maximum seen.
func CollapseVisits(visits []domain.Visit) []domain.Visit {
	if len(visits) == 0 {
		return nil
	}

	out := make([]domain.Visit, 0, len(visits))
	cur := startEpisode(visits[0])

	for _, v := range visits[1:] {
		if !cur.SameEpisode(&v) {
			out = append(out, cur)
			cur = startEpisode(v)
			continue
		}

		if v.Duration != nil && *v.Duration > 0 {
			sum := *v.Duration
			if cur.Duration != nil {
				sum += *cur.Duration
			}
			cur.Duration = &sum
		}
		if cur.ViewTime == nil && v.ViewTime != nil {
			at := *v.ViewTime
			cur.ViewTime = &at
		}
		if last := lastViewTime(v); last.After(cur.LastViewTime) {
			cur.LastViewTime = last
		}
		if v.Gap != nil && (cur.Gap == nil || *v.Gap > *cur.Gap) {
			gap := *v.Gap
			cur.Gap = &gap
		}
		cur.VisitCount += visitCount(v)
	}

	return append(out, cur)
}

func startEpisode(v domain.Visit) domain.Visit {
	if v.Duration != nil && *v.Duration < 0 {
		var zero time.Duration
		v.Duration = &zero
	}
	v.LastViewTime = lastViewTime(v)
	v.VisitCount = visitCount(v)
	return v
}

func visitCount(v domain.Visit) int {
	if v.VisitCount < 1 {
		return 1
	}
	return v.VisitCount
}

func lastViewTime(v domain.Visit) time.Time {
	if v.LastViewTime.IsZero() && v.ViewTime != nil {
		return *v.ViewTime
	}
	return v.LastViewTime
}
