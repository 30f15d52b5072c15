package service

import (
	"sync"
	"time"

	"github.com/pulseops/behavior-telemetry/internal/analytics"
	"github.com/pulseops/behavior-telemetry/internal/capture"
	"github.com/pulseops/behavior-telemetry/internal/models"

	"go.uber.org/zap"
)

// ReportService periodically runs the analytics engine over the captured
// event history and keeps the latest per-subject reports.
type ReportService struct {
	capture  *capture.Capture
	interval time.Duration
	logger   *zap.Logger

	mu       sync.RWMutex
	analyses map[string]*models.DistractionAnalysis
	scores   map[string]*models.BehaviorScore

	stopChan chan struct{}
	wg       sync.WaitGroup
}

// NewReportService creates a report service over the given capture.
func NewReportService(capt *capture.Capture, interval time.Duration, logger *zap.Logger) *ReportService {
	return &ReportService{
		capture:  capt,
		interval: interval,
		logger:   logger,
		analyses: make(map[string]*models.DistractionAnalysis),
		scores:   make(map[string]*models.BehaviorScore),
		stopChan: make(chan struct{}),
	}
}

// Start begins the periodic analysis loop.
func (rs *ReportService) Start() {
	rs.wg.Add(1)
	go rs.analysisLoop()

	rs.logger.Info("Report service started",
		zap.Duration("interval", rs.interval),
	)
}

// Stop stops the analysis loop after one final pass.
func (rs *ReportService) Stop() {
	select {
	case <-rs.stopChan:
		return
	default:
		close(rs.stopChan)
	}
	rs.wg.Wait()
	rs.logger.Info("Report service stopped")
}

// Analysis returns the latest analysis for the subject, or nil.
func (rs *ReportService) Analysis(subjectID string) *models.DistractionAnalysis {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	return rs.analyses[subjectID]
}

// BehaviorScore returns the latest behavior score for the subject, or nil.
func (rs *ReportService) BehaviorScore(subjectID string) *models.BehaviorScore {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	return rs.scores[subjectID]
}

// RunOnce performs a single analysis pass over the stored events. Exposed
// so callers (and tests) can drive analysis without waiting for the timer.
func (rs *ReportService) RunOnce() {
	events := rs.capture.StoredEvents()
	if len(events) == 0 {
		return
	}

	bySubject := make(map[string][]models.MicroEvent)
	names := make(map[string]string)
	for _, event := range events {
		bySubject[event.SubjectID] = append(bySubject[event.SubjectID], event)
		if event.SubjectName != "" {
			names[event.SubjectID] = event.SubjectName
		}
	}

	for subjectID, subjectEvents := range bySubject {
		analysis := analytics.FullAnalysis(subjectID, names[subjectID], subjectEvents)

		rs.mu.Lock()
		previous := rs.scores[subjectID]
		score := analytics.Score(subjectID, names[subjectID], subjectEvents, previous)
		rs.analyses[subjectID] = analysis
		rs.scores[subjectID] = score
		rs.mu.Unlock()

		rs.logger.Debug("Subject analyzed",
			zap.String("subject_id", subjectID),
			zap.Int("events", len(subjectEvents)),
			zap.Int("distraction_index", analysis.DistractionIndex),
			zap.Int("overall_score", score.Overall),
			zap.String("trend", score.Trend),
		)
	}
}

func (rs *ReportService) analysisLoop() {
	defer rs.wg.Done()

	ticker := time.NewTicker(rs.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rs.RunOnce()
		case <-rs.stopChan:
			// One last pass so shutdown reports reflect the final flush
			rs.RunOnce()
			return
		}
	}
}
