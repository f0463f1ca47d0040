package chatlog

import (
	"strings"
	"time"

	"github.com/okian/waffles/internal/domain/model"
)

// Filter keeps records at or after since (when non-nil) whose message contains
// keyword, ignoring case. When no record matches the keyword the date-bounded
// set is returned instead; matched reports which of the two happened.
func Filter(records []model.Record, keyword string, since *time.Time) (out []model.Record, matched bool) {
	bounded := make([]model.Record, 0, len(records))
	for _, r := range records {
		if since != nil && r.Timestamp.Before(*since) {
			continue
		}
		bounded = append(bounded, r)
	}

	needle := strings.ToLower(keyword)
	hits := make([]model.Record, 0, len(bounded))
	for _, r := range bounded {
		if r.Message == "" {
			continue
		}
		if strings.Contains(strings.ToLower(r.Message), needle) {
			hits = append(hits, r)
		}
	}
	if len(hits) == 0 {
		return bounded, false
	}
	return hits, true
}
