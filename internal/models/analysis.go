package models

// ScreenTimeMetric is a per-screen aggregate derived from the event log.
// Note: FocusTime accumulates blur durations (time the view was unfocused)
// and BlurTime is never populated. This mirrors the numbers the original
// analytics produced; downstream consumers depend on them as-is.
type ScreenTimeMetric struct {
	Screen    string `json:"screen"`
	TotalTime int64  `json:"totalTime"` // milliseconds, from navigation leave durations
	FocusTime int64  `json:"focusTime"` // milliseconds, from blur durations
	BlurTime  int64  `json:"blurTime"`
	Visits    int    `json:"visits"`
	LastVisit int64  `json:"lastVisit"` // Unix timestamp in milliseconds
}

// BehaviorMetrics are coarse per-subject aggregates over one event history.
type BehaviorMetrics struct {
	SubjectID          string  `json:"subjectId"`
	ClicksPerMinute    float64 `json:"clicksPerMinute"`
	AvgTimePerScreen   float64 `json:"avgTimePerScreen"` // milliseconds
	FocusScore         float64 `json:"focusScore"`       // percent
	DistractionScore   float64 `json:"distractionScore"` // percent
	NavigationSpeed    float64 `json:"navigationSpeed"`  // navigations per minute
	InputSpeed         float64 `json:"inputSpeed"`       // input+keypress per minute
	MostVisitedScreen  string  `json:"mostVisitedScreen"`
	LeastVisitedScreen string  `json:"leastVisitedScreen"`
}

// StressIndicators are raw counts feeding the composite stress score.
// TypingErrors and ShortBreaks have no data source wired up yet and stay 0.
type StressIndicators struct {
	RapidClicking    int  `json:"rapidClicking"`
	TypingErrors     int  `json:"typingErrors"`
	TaskSwitching    int  `json:"taskSwitching"`
	WorkingHoursLate bool `json:"workingHoursLate"`
	ShortBreaks      int  `json:"shortBreaks"`
}

// Pattern types emitted by the analytics engine.
const (
	PatternFrequentSwitching = "frequent_switching"
	PatternLongIdle          = "long_idle"
	PatternRapidClicking     = "rapid_clicking"
)

// Pattern severities.
const (
	SeverityMedium = "medium"
	SeverityHigh   = "high"
)

// DistractionPattern is one qualitative finding over an event history.
type DistractionPattern struct {
	Type            string  `json:"type"`
	Severity        string  `json:"severity"`
	Description     string  `json:"description"`
	Frequency       int     `json:"frequency"`
	AverageDuration float64 `json:"averageDuration,omitempty"` // milliseconds
}

// ScreenConfusion is one entry of the per-screen confusion map.
type ScreenConfusion struct {
	Screen         string  `json:"screen"`
	ConfusionScore float64 `json:"confusionScore"`
	Backtracking   int     `json:"backtracking"`
	HesitationTime float64 `json:"hesitationTime"` // milliseconds
}

// Focus quality buckets derived from the distraction index.
const (
	FocusExcellent = "excellent"
	FocusGood      = "good"
	FocusFair      = "fair"
	FocusPoor      = "poor"
)

// DistractionAnalysis is the full derived report for one subject.
type DistractionAnalysis struct {
	SubjectID        string               `json:"subjectId"`
	SubjectName      string               `json:"subjectName,omitempty"`
	Timestamp        int64                `json:"timestamp"` // report time, ms
	DistractionIndex int                  `json:"distractionIndex"`
	ConfusionScore   int                  `json:"confusionScore"`
	StressIndicator  int                  `json:"stressIndicator"`
	FocusQuality     string               `json:"focusQuality"`
	Patterns         []DistractionPattern `json:"patterns"`
	ConfusionMap     []ScreenConfusion    `json:"confusionMap"`
	Recommendations  []string             `json:"recommendations"`
}

// Score trends relative to a previous BehaviorScore.
const (
	TrendImproving = "improving"
	TrendDeclining = "declining"
	TrendStable    = "stable"
)

// BehaviorScore is the rolled-up behavior score for one subject.
type BehaviorScore struct {
	SubjectID         string `json:"subjectId"`
	SubjectName       string `json:"subjectName,omitempty"`
	Timestamp         int64  `json:"timestamp"` // report time, ms
	Overall           int    `json:"overall"`
	ProductivityScore int    `json:"productivityScore"`
	EngagementScore   int    `json:"engagementScore"`
	EfficiencyScore   int    `json:"efficiencyScore"`
	QualityScore      int    `json:"qualityScore"`
	Trend             string `json:"trend"`
}
