package capture

import (
	"sort"

	"github.com/pulseops/behavior-telemetry/internal/models"
)

// allEvents returns the durable log followed by the unflushed buffer, which
// together form the full capture history in append order. The log read and
// the buffer copy happen under one lock so a concurrent flush cannot move
// events between the two reads and drop them from the snapshot.
func (c *Capture) allEvents() []models.MicroEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append(c.loadEvents(), c.buffer...)
}

// ScreenTimeMetrics aggregates the event history per screen. Visits count
// navigation enters, TotalTime accumulates navigation leave durations, and
// FocusTime accumulates blur durations — the latter matches what the
// upstream consumers were built against, even though blur durations measure
// time unfocused. Recomputed fully on each call.
func (c *Capture) ScreenTimeMetrics() []models.ScreenTimeMetric {
	byScreen := make(map[string]*models.ScreenTimeMetric)

	for _, event := range c.allEvents() {
		if event.Screen == "" {
			continue
		}
		metric, ok := byScreen[event.Screen]
		if !ok {
			metric = &models.ScreenTimeMetric{Screen: event.Screen}
			byScreen[event.Screen] = metric
		}

		switch event.Kind {
		case models.KindNavigation:
			switch navigationAction(event) {
			case models.ActionEnter:
				metric.Visits++
				metric.LastVisit = event.Timestamp
			case models.ActionLeave:
				if event.Duration != nil {
					metric.TotalTime += *event.Duration
				}
			}
		case models.KindBlur:
			if event.Duration != nil {
				metric.FocusTime += *event.Duration
			}
		}
	}

	metrics := make([]models.ScreenTimeMetric, 0, len(byScreen))
	for _, metric := range byScreen {
		metrics = append(metrics, *metric)
	}
	sort.Slice(metrics, func(i, j int) bool {
		return metrics[i].Screen < metrics[j].Screen
	})
	return metrics
}

// BehaviorMetrics computes coarse per-subject aggregates, normalized
// against the elapsed span of the subject's events. Returns nil when the
// subject has no events.
func (c *Capture) BehaviorMetrics(subjectID string) *models.BehaviorMetrics {
	var events []models.MicroEvent
	for _, event := range c.allEvents() {
		if event.SubjectID == subjectID {
			events = append(events, event)
		}
	}
	if len(events) == 0 {
		return nil
	}

	elapsedMinutes := float64(events[len(events)-1].Timestamp-events[0].Timestamp) / 60000
	perMinute := func(n int) float64 {
		if elapsedMinutes <= 0 {
			return 0
		}
		return float64(n) / elapsedMinutes
	}

	var clicks, navigations, inputs int
	var focusTime, blurTime int64
	var leaveTime int64
	var leaves int
	visitsByScreen := make(map[string]int)

	for _, event := range events {
		switch event.Kind {
		case models.KindClick:
			clicks++
		case models.KindInput, models.KindKeypress:
			inputs++
		case models.KindNavigation:
			navigations++
			switch navigationAction(event) {
			case models.ActionEnter:
				visitsByScreen[event.Screen]++
			case models.ActionLeave:
				if event.Duration != nil {
					leaveTime += *event.Duration
					leaves++
				}
			}
		case models.KindFocus:
			if event.Duration != nil {
				focusTime += *event.Duration
			}
		case models.KindBlur:
			if event.Duration != nil {
				blurTime += *event.Duration
			}
		}
	}

	metrics := &models.BehaviorMetrics{
		SubjectID:       subjectID,
		ClicksPerMinute: perMinute(clicks),
		NavigationSpeed: perMinute(navigations),
		InputSpeed:      perMinute(inputs),
	}

	if leaves > 0 {
		metrics.AvgTimePerScreen = float64(leaveTime) / float64(leaves)
	}
	if focusTime+blurTime > 0 {
		metrics.FocusScore = float64(focusTime) / float64(focusTime+blurTime) * 100
	}
	metrics.DistractionScore = 100 - metrics.FocusScore

	screens := make([]string, 0, len(visitsByScreen))
	for screen := range visitsByScreen {
		screens = append(screens, screen)
	}
	sort.Strings(screens)
	for _, screen := range screens {
		visits := visitsByScreen[screen]
		if metrics.MostVisitedScreen == "" || visits > visitsByScreen[metrics.MostVisitedScreen] {
			metrics.MostVisitedScreen = screen
		}
		if metrics.LeastVisitedScreen == "" || visits < visitsByScreen[metrics.LeastVisitedScreen] {
			metrics.LeastVisitedScreen = screen
		}
	}

	return metrics
}

func navigationAction(event models.MicroEvent) string {
	if event.Metadata == nil || event.Metadata.Action == nil {
		return ""
	}
	return *event.Metadata.Action
}
