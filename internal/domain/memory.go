package domain

import (
	"math"
	"strings"
	"time"
)

const (
	MinMemoryWeight = 0.0
	MaxMemoryWeight = 5.0
)

type MemoryID string

type MemoryEvent struct {
	ID        MemoryID
	Who       AgentID
	Summary   string
	Tone      string
	Tags      []string
	Weight    float64
	Timestamp time.Time
	Date      string
}

func ClampWeight(weight float64) float64 {
	if math.IsNaN(weight) {
		return MinMemoryWeight
	}

	return math.Max(MinMemoryWeight, math.Min(MaxMemoryWeight, weight))
}

// SameSummary compares summaries case-insensitively after trimming.
func (e MemoryEvent) SameSummary(summary string) bool {
	return strings.EqualFold(strings.TrimSpace(e.Summary), strings.TrimSpace(summary))
}

// AgeDays is the fractional age in days; events stamped in the future have age 0.
func (e MemoryEvent) AgeDays(now time.Time) float64 {
	age := now.Sub(e.Timestamp).Hours() / 24
	if age < 0 {
		return 0
	}
	return age
}

// MatchedTags counts preferred tags present on the event, ignoring case.
func (e MemoryEvent) MatchedTags(preferred []string) int {
	if len(preferred) == 0 || len(e.Tags) == 0 {
		return 0
	}

	own := make(map[string]struct{}, len(e.Tags))
	for _, tag := range e.Tags {
		own[strings.ToLower(strings.TrimSpace(tag))] = struct{}{}
	}

	matched := 0
	seen := make(map[string]struct{}, len(preferred))
	for _, tag := range preferred {
		key := strings.ToLower(strings.TrimSpace(tag))
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		if _, ok := own[key]; ok {
			matched++
		}
	}
	return matched
}

// RecallScore is weight × recency × (1 + tag bonus); recency halves roughly every week.
func (e MemoryEvent) RecallScore(now time.Time, preferred []string) float64 {
	recency := 1 / (1 + e.AgeDays(now)/7)
	bonus := math.Min(0.5, 0.15*float64(e.MatchedTags(preferred)))
	return e.Weight * recency * (1 + bonus)
}
