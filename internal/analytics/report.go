package analytics

import (
	"math"
	"time"

	"github.com/pulseops/behavior-telemetry/internal/models"
)

// Composite score weights and bands.
const (
	recommendDistractionMin = 70
	recommendConfusionMin   = 60
	recommendStressMin      = 70
	trendBand               = 5 // overall points beyond which the trend moves
)

// Recommendations returns threshold-driven advice for an assembled
// analysis, in a fixed order: distraction, confusion, stress, then
// per-pattern advice. A quiet analysis gets a single positive note.
func Recommendations(analysis *models.DistractionAnalysis) []string {
	var recs []string

	if analysis.DistractionIndex > recommendDistractionMin {
		recs = append(recs, "High distraction detected: block notifications and schedule uninterrupted focus time.")
	}
	if analysis.ConfusionScore > recommendConfusionMin {
		recs = append(recs, "Confusion signals are elevated: the most affected screens may need clearer layout or guidance.")
	}
	if analysis.StressIndicator > recommendStressMin {
		recs = append(recs, "High stress indicators: encourage regular breaks and review the current workload.")
	}

	for _, pattern := range analysis.Patterns {
		switch {
		case pattern.Type == models.PatternFrequentSwitching && pattern.Severity == models.SeverityHigh:
			recs = append(recs, "Screen switching is very frequent: batch related tasks to cut context switches.")
		case pattern.Type == models.PatternLongIdle:
			recs = append(recs, "Long idle periods found: check for blockers or unclear next steps.")
		}
	}

	if len(recs) == 0 {
		recs = append(recs, "Behavior looks healthy. Keep up the good work!")
	}
	return recs
}

// FullAnalysis assembles the complete derived report for one subject's
// event history.
func FullAnalysis(subjectID, subjectName string, events []models.MicroEvent) *models.DistractionAnalysis {
	stress := Stress(events)

	analysis := &models.DistractionAnalysis{
		SubjectID:        subjectID,
		SubjectName:      subjectName,
		Timestamp:        time.Now().UnixMilli(),
		DistractionIndex: DistractionIndex(events),
		ConfusionScore:   ConfusionScore(events),
		StressIndicator:  stressComposite(stress),
		Patterns:         DistractionPatterns(events),
		ConfusionMap:     ConfusionMap(events),
	}
	analysis.FocusQuality = focusQuality(analysis.DistractionIndex)
	analysis.Recommendations = Recommendations(analysis)
	return analysis
}

// Score rolls the derived metrics into a weighted behavior score with a
// trend against the previous score, when one exists.
func Score(subjectID, subjectName string, events []models.MicroEvent, previous *models.BehaviorScore) *models.BehaviorScore {
	distraction := DistractionIndex(events)
	confusion := ConfusionScore(events)
	stress := stressComposite(Stress(events))

	clicks := 0
	for _, event := range events {
		if event.Kind == models.KindClick {
			clicks++
		}
	}

	efficiency := 50.0
	if len(events) > 0 {
		span := events[len(events)-1].Timestamp - events[0].Timestamp
		if span > 0 {
			minutes := float64(span) / 60000
			efficiency = math.Min(float64(clicks)/minutes*10, 100)
		}
	}

	score := &models.BehaviorScore{
		SubjectID:         subjectID,
		SubjectName:       subjectName,
		Timestamp:         time.Now().UnixMilli(),
		ProductivityScore: 100 - distraction,
		EngagementScore:   100 - confusion,
		EfficiencyScore:   int(math.Round(efficiency)),
		QualityScore:      100 - stress,
	}
	score.Overall = int(math.Round(
		0.30*float64(score.ProductivityScore) +
			0.25*float64(score.EngagementScore) +
			0.25*efficiency +
			0.20*float64(score.QualityScore)))

	score.Trend = models.TrendStable
	if previous != nil {
		switch {
		case score.Overall > previous.Overall+trendBand:
			score.Trend = models.TrendImproving
		case score.Overall < previous.Overall-trendBand:
			score.Trend = models.TrendDeclining
		}
	}
	return score
}

// stressComposite folds the raw indicators into a single 0-100 score.
func stressComposite(s models.StressIndicators) int {
	score := s.RapidClicking*2 + s.TaskSwitching*3
	if s.WorkingHoursLate {
		score += 20
	}
	if score > 100 {
		score = 100
	}
	return score
}

func focusQuality(distractionIndex int) string {
	switch {
	case distractionIndex < 30:
		return models.FocusExcellent
	case distractionIndex < 50:
		return models.FocusGood
	case distractionIndex < 70:
		return models.FocusFair
	default:
		return models.FocusPoor
	}
}
