package analytics

import (
	"testing"
	"time"

	"github.com/pulseops/behavior-telemetry/internal/models"
)

func event(kind models.EventKind, screen string, ts int64) models.MicroEvent {
	return models.MicroEvent{
		ID:        "e",
		SubjectID: "subj-1",
		Kind:      kind,
		Screen:    screen,
		Timestamp: ts,
	}
}

func eventWithDuration(kind models.EventKind, screen string, ts, duration int64) models.MicroEvent {
	e := event(kind, screen, ts)
	e.Duration = &duration
	return e
}

func TestDistractionIndexEmpty(t *testing.T) {
	if got := DistractionIndex(nil); got != 0 {
		t.Errorf("DistractionIndex(nil) = %d, want 0", got)
	}
	if got := DistractionIndex([]models.MicroEvent{}); got != 0 {
		t.Errorf("DistractionIndex(empty) = %d, want 0", got)
	}
}

func TestDistractionIndexNavigationBurst(t *testing.T) {
	// 8 navigations 5s apart all land in one 60s window: (8-5)*10 = 30
	var events []models.MicroEvent
	screens := []string{"Home", "Tasks", "Projects", "Finance", "Reports", "Settings", "Team", "Inbox"}
	for i, screen := range screens {
		events = append(events, event(models.KindNavigation, screen, int64(i)*5000))
	}

	if got := DistractionIndex(events); got < 30 {
		t.Errorf("DistractionIndex = %d, want >= 30", got)
	}
}

func TestDistractionIndexGapSplitsGroups(t *testing.T) {
	// Two groups of 4 navigations separated by a >60s gap: no group
	// exceeds 5, so no burst penalty
	var events []models.MicroEvent
	for i := 0; i < 4; i++ {
		events = append(events, event(models.KindNavigation, "A", int64(i)*1000))
	}
	for i := 0; i < 4; i++ {
		events = append(events, event(models.KindNavigation, "B", 200000+int64(i)*1000))
	}

	if got := DistractionIndex(events); got != 0 {
		t.Errorf("DistractionIndex = %d, want 0", got)
	}
}

func TestDistractionIndexBlurShare(t *testing.T) {
	// 30s blurred out of a 60s span contributes 50
	events := []models.MicroEvent{
		event(models.KindNavigation, "Home", 0),
		eventWithDuration(models.KindBlur, "Home", 10000, 30000),
		event(models.KindNavigation, "Tasks", 60000),
	}

	if got := DistractionIndex(events); got < 50 {
		t.Errorf("DistractionIndex = %d, want >= 50", got)
	}
}

func TestConfusionScoreEmpty(t *testing.T) {
	if got := ConfusionScore(nil); got != 0 {
		t.Errorf("ConfusionScore(nil) = %d, want 0", got)
	}
}

func TestConfusionScoreHesitation(t *testing.T) {
	events := []models.MicroEvent{
		event(models.KindClick, "Home", 0),
		event(models.KindClick, "Home", 10000),
	}

	if got := ConfusionScore(events); got <= 0 {
		t.Errorf("ConfusionScore = %d, want > 0", got)
	}
}

func TestConfusionScoreBacktrack(t *testing.T) {
	events := []models.MicroEvent{
		event(models.KindNavigation, "Home", 0),
		event(models.KindNavigation, "Settings", 10000),
		event(models.KindNavigation, "Home", 20000),
	}

	// One backtrack out of three navigations: 1/3 * 50 rounds to 17
	if got := ConfusionScore(events); got <= 0 {
		t.Errorf("ConfusionScore = %d, want > 0", got)
	}
	if got := ConfusionScore(events); got != 17 {
		t.Errorf("ConfusionScore = %d, want 17", got)
	}
}

func TestConfusionScoreFastClicksNotHesitation(t *testing.T) {
	events := []models.MicroEvent{
		event(models.KindClick, "Home", 0),
		event(models.KindClick, "Home", 1000),
		event(models.KindClick, "Home", 2000),
	}

	if got := ConfusionScore(events); got != 0 {
		t.Errorf("ConfusionScore = %d, want 0", got)
	}
}

func TestStressRapidClicking(t *testing.T) {
	events := []models.MicroEvent{
		event(models.KindClick, "Home", 0),
		event(models.KindClick, "Home", 100),
		event(models.KindClick, "Home", 200),
	}

	got := Stress(events)
	if got.RapidClicking != 2 {
		t.Errorf("RapidClicking = %d, want 2", got.RapidClicking)
	}
	if got.TypingErrors != 0 || got.ShortBreaks != 0 {
		t.Errorf("placeholder indicators = %d/%d, want 0/0", got.TypingErrors, got.ShortBreaks)
	}
}

func TestStressTaskSwitching(t *testing.T) {
	events := []models.MicroEvent{
		event(models.KindNavigation, "Home", 0),
		event(models.KindNavigation, "Tasks", 2000),
		event(models.KindNavigation, "Projects", 10000),
	}

	got := Stress(events)
	if got.TaskSwitching != 1 {
		t.Errorf("TaskSwitching = %d, want 1", got.TaskSwitching)
	}
}

func TestStressWorkingHoursLate(t *testing.T) {
	late := time.Date(2026, 3, 10, 23, 0, 0, 0, time.Local).UnixMilli()
	events := []models.MicroEvent{event(models.KindClick, "Home", late)}

	if got := Stress(events); !got.WorkingHoursLate {
		t.Error("WorkingHoursLate = false, want true for 23:00 local")
	}

	noon := time.Date(2026, 3, 10, 12, 0, 0, 0, time.Local).UnixMilli()
	events = []models.MicroEvent{event(models.KindClick, "Home", noon)}

	if got := Stress(events); got.WorkingHoursLate {
		t.Error("WorkingHoursLate = true, want false for 12:00 local")
	}
}
