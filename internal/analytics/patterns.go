package analytics

import (
	"fmt"
	"math"
	"sort"

	"github.com/pulseops/behavior-telemetry/internal/models"
)

// Pattern thresholds.
const (
	switchingRatioMin    = 0.3    // navigation share of all events
	switchingRatioHigh   = 0.5    // share above which switching is high severity
	longIdleMin          = 60000  // blur duration qualifying as a long idle, ms
	longIdleHighAvg      = 300000 // mean idle above which severity is high, ms
	patternRapidClickGap = 300    // click pair gap for the rapid_clicking pattern, ms
	rapidClickCountMin   = 10     // occurrences above which the pattern fires
	rapidClickCountHigh  = 30     // occurrences above which severity is high
)

// DistractionPatterns emits qualitative findings over the event history:
// frequent screen switching, long idle periods, and rapid clicking.
func DistractionPatterns(events []models.MicroEvent) []models.DistractionPattern {
	patterns := []models.DistractionPattern{}
	if len(events) == 0 {
		return patterns
	}

	navigations := 0
	for _, event := range events {
		if event.Kind == models.KindNavigation {
			navigations++
		}
	}
	ratio := float64(navigations) / float64(len(events))
	if ratio > switchingRatioMin {
		severity := models.SeverityMedium
		if ratio > switchingRatioHigh {
			severity = models.SeverityHigh
		}
		patterns = append(patterns, models.DistractionPattern{
			Type:        models.PatternFrequentSwitching,
			Severity:    severity,
			Description: fmt.Sprintf("Switched screens %d times, %.0f%% of all activity", navigations, ratio*100),
			Frequency:   navigations,
		})
	}

	var idleTotal int64
	idleCount := 0
	for _, event := range events {
		if event.Kind == models.KindBlur && event.Duration != nil && *event.Duration > longIdleMin {
			idleTotal += *event.Duration
			idleCount++
		}
	}
	if idleCount > 0 {
		average := float64(idleTotal) / float64(idleCount)
		severity := models.SeverityMedium
		if average > longIdleHighAvg {
			severity = models.SeverityHigh
		}
		patterns = append(patterns, models.DistractionPattern{
			Type:            models.PatternLongIdle,
			Severity:        severity,
			Description:     fmt.Sprintf("%d idle periods averaging %.0fs away from the screen", idleCount, average/1000),
			Frequency:       idleCount,
			AverageDuration: average,
		})
	}

	rapidClicks := 0
	var lastClick int64
	seenClick := false
	for _, event := range events {
		if event.Kind != models.KindClick {
			continue
		}
		if seenClick && event.Timestamp-lastClick < patternRapidClickGap {
			rapidClicks++
		}
		lastClick = event.Timestamp
		seenClick = true
	}
	if rapidClicks > rapidClickCountMin {
		severity := models.SeverityMedium
		if rapidClicks > rapidClickCountHigh {
			severity = models.SeverityHigh
		}
		patterns = append(patterns, models.DistractionPattern{
			Type:        models.PatternRapidClicking,
			Severity:    severity,
			Description: fmt.Sprintf("%d rapid click bursts, a possible frustration signal", rapidClicks),
			Frequency:   rapidClicks,
		})
	}

	return patterns
}

// ConfusionMap breaks confusion indicators down per screen, sorted by
// descending confusion score. Backtracking counts repeat navigations to a
// screen (the first visit is free); hesitation time sums slow click gaps
// within the screen's own events.
func ConfusionMap(events []models.MicroEvent) []models.ScreenConfusion {
	type screenStats struct {
		navigations int
		clicks      []int64
	}
	byScreen := make(map[string]*screenStats)

	for _, event := range events {
		if event.Screen == "" {
			continue
		}
		stats, ok := byScreen[event.Screen]
		if !ok {
			stats = &screenStats{}
			byScreen[event.Screen] = stats
		}
		switch event.Kind {
		case models.KindNavigation:
			stats.navigations++
		case models.KindClick:
			stats.clicks = append(stats.clicks, event.Timestamp)
		}
	}

	entries := make([]models.ScreenConfusion, 0, len(byScreen))
	for screen, stats := range byScreen {
		backtracking := stats.navigations - 1
		if backtracking < 0 {
			backtracking = 0
		}

		var hesitation float64
		for i := 1; i < len(stats.clicks); i++ {
			gap := stats.clicks[i] - stats.clicks[i-1]
			if gap > hesitationMinGap && gap < hesitationMaxGap {
				hesitation += float64(gap)
			}
		}

		score := math.Min(float64(backtracking)*20+hesitation/1000+float64(len(stats.clicks))*2, 100)
		entries = append(entries, models.ScreenConfusion{
			Screen:         screen,
			ConfusionScore: score,
			Backtracking:   backtracking,
			HesitationTime: hesitation,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].ConfusionScore != entries[j].ConfusionScore {
			return entries[i].ConfusionScore > entries[j].ConfusionScore
		}
		return entries[i].Screen < entries[j].Screen
	})
	return entries
}
