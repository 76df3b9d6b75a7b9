package state

import (
	"fmt"
	"strings"
	"time"
)

// StatusLine summarizes the index for display. It is empty when the state
// has no index service.
func (s *State) StatusLine() string {
	if s == nil {
		return ""
	}
	return formatIndexStatus(s.Index)
}

func formatIndexStatus(svc IndexService) string {
	if svc == nil {
		return ""
	}

	stats := svc.Stats()
	parts := []string{
		fmt.Sprintf("Idx: %d docs", stats.Documents),
		fmt.Sprintf("%d tags", stats.Tags),
		fmt.Sprintf("pending %d", stats.Pending),
	}
	if svc.IsIndexing() {
		parts = append(parts, "indexing")
	}
	if !stats.LastRebuild.IsZero() {
		parts = append(parts, fmt.Sprintf("rebuilt %s", formatRebuildTime(stats.LastRebuild)))
	}

	return strings.Join(parts, " · ")
}

func formatRebuildTime(t time.Time) string {
	return t.Local().Format("15:04")
}
