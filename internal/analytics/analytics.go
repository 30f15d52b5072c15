// Package analytics derives behavioral scores from a time-ordered list of
// captured interaction events. Every function is a pure transform: no
// hidden state, no I/O, and degenerate input (empty or single-element
// lists) yields neutral values instead of errors.
package analytics

import (
	"math"
	"time"

	"github.com/pulseops/behavior-telemetry/internal/models"
)

// Thresholds used across the scoring functions, in milliseconds unless
// noted.
const (
	navigationGroupGap = 60000 // navigation burst grouping window
	navigationGroupMin = 5     // group size above which each extra nav penalizes
	hesitationMinGap   = 5000  // click hesitation lower bound (exclusive)
	hesitationMaxGap   = 30000 // click hesitation upper bound (exclusive)
	rapidClickGap      = 200   // stress: rapid click pair bound
	taskSwitchGap      = 5000  // stress: rapid navigation pair bound
	lateHourStart      = 22    // local hour at or after which work counts as late
	lateHourEnd        = 5     // local hour at or before which work counts as late
)

// DistractionIndex scores how fragmented a subject's navigation and
// attention were, 0-100. Bursts of more than five navigations within
// 60-second gaps add (size-5)*10 each; time spent blurred adds its share of
// the total event span as a percentage.
func DistractionIndex(events []models.MicroEvent) int {
	if len(events) == 0 {
		return 0
	}

	score := 0.0

	groupSize := 0
	var lastNav int64
	for _, event := range events {
		if event.Kind != models.KindNavigation {
			continue
		}
		if groupSize > 0 && event.Timestamp-lastNav > navigationGroupGap {
			score += groupPenalty(groupSize)
			groupSize = 0
		}
		groupSize++
		lastNav = event.Timestamp
	}
	score += groupPenalty(groupSize)

	span := events[len(events)-1].Timestamp - events[0].Timestamp
	if span > 0 {
		var blurTotal int64
		for _, event := range events {
			if event.Kind == models.KindBlur && event.Duration != nil {
				blurTotal += *event.Duration
			}
		}
		score += float64(blurTotal) / float64(span) * 100
	}

	return clampScore(score)
}

func groupPenalty(size int) float64 {
	if size > navigationGroupMin {
		return float64((size - navigationGroupMin) * 10)
	}
	return 0
}

// ConfusionScore scores hesitation and backtracking, 0-100. Click pairs
// separated by 5-30 seconds count as hesitations; a navigation to a screen
// already seen anywhere earlier in the history counts as a backtrack. Each
// signal contributes up to 50 points proportionally.
func ConfusionScore(events []models.MicroEvent) int {
	if len(events) == 0 {
		return 0
	}

	score := 0.0

	var clicks []models.MicroEvent
	for _, event := range events {
		if event.Kind == models.KindClick {
			clicks = append(clicks, event)
		}
	}
	if len(clicks) > 0 {
		hesitations := 0
		for i := 1; i < len(clicks); i++ {
			gap := clicks[i].Timestamp - clicks[i-1].Timestamp
			if gap > hesitationMinGap && gap < hesitationMaxGap {
				hesitations++
			}
		}
		score += float64(hesitations) / float64(len(clicks)) * 50
	}

	var history []string
	backtracks := 0
	navigations := 0
	for _, event := range events {
		if event.Kind != models.KindNavigation {
			continue
		}
		navigations++
		for _, seen := range history {
			if seen == event.Screen {
				backtracks++
				break
			}
		}
		history = append(history, event.Screen)
	}
	if navigations > 0 {
		score += float64(backtracks) / float64(navigations) * 50
	}

	return clampScore(score)
}

// Stress counts raw stress signals. TypingErrors and ShortBreaks have no
// data source wired up yet and are always 0.
func Stress(events []models.MicroEvent) models.StressIndicators {
	indicators := models.StressIndicators{}

	var lastClick, lastNav int64
	seenClick, seenNav := false, false
	for _, event := range events {
		switch event.Kind {
		case models.KindClick:
			if seenClick && event.Timestamp-lastClick < rapidClickGap {
				indicators.RapidClicking++
			}
			lastClick = event.Timestamp
			seenClick = true
		case models.KindNavigation:
			if seenNav && event.Timestamp-lastNav < taskSwitchGap {
				indicators.TaskSwitching++
			}
			lastNav = event.Timestamp
			seenNav = true
		}

		hour := time.UnixMilli(event.Timestamp).Hour()
		if hour >= lateHourStart || hour <= lateHourEnd {
			indicators.WorkingHoursLate = true
		}
	}

	return indicators
}

func clampScore(score float64) int {
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return int(math.Round(score))
}
