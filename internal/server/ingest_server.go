package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/pulseops/behavior-telemetry/internal/capture"
	"github.com/pulseops/behavior-telemetry/internal/models"
	"github.com/pulseops/behavior-telemetry/internal/service"

	"go.uber.org/zap"
)

// SessionStartRequest is the body for POST /api/v1/session/start.
type SessionStartRequest struct {
	SubjectID   string `json:"subjectId"`
	SubjectName string `json:"subjectName"`
}

// EventRequest is one interaction event posted by the browser
// instrumentation.
type EventRequest struct {
	Kind        string                `json:"kind"`
	Screen      string                `json:"screen"`
	Action      string                `json:"action,omitempty"` // navigation: enter/leave
	ElementID   string                `json:"elementId,omitempty"`
	ElementType string                `json:"elementType,omitempty"`
	ElementText string                `json:"elementText,omitempty"`
	Metadata    *models.EventMetadata `json:"metadata,omitempty"`
}

// IngestServer receives interaction events from the page instrumentation
// and serves the derived metrics and reports.
type IngestServer struct {
	capture *capture.Capture
	reports *service.ReportService
	logger  *zap.Logger
}

// NewIngestServer creates the ingest server.
func NewIngestServer(capt *capture.Capture, reports *service.ReportService, logger *zap.Logger) *IngestServer {
	return &IngestServer{
		capture: capt,
		reports: reports,
		logger:  logger,
	}
}

// ServeHTTP implements http.Handler
func (s *IngestServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// The instrumentation runs in the page origin
	s.setCORSHeaders(w)

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	switch r.URL.Path {
	case "/api/v1/session/start":
		s.post(w, r, s.handleSessionStart)
	case "/api/v1/session/end":
		s.post(w, r, s.handleSessionEnd)
	case "/api/v1/events":
		s.post(w, r, s.handleEvent)
	case "/api/v1/metrics/screen-time":
		s.get(w, r, s.handleScreenTime)
	case "/api/v1/metrics/behavior":
		s.get(w, r, s.handleBehaviorMetrics)
	case "/api/v1/analysis":
		s.get(w, r, s.handleAnalysis)
	case "/api/v1/score":
		s.get(w, r, s.handleScore)
	case "/api/v1/health":
		s.get(w, r, s.handleHealth)
	default:
		http.NotFound(w, r)
	}
}

func (s *IngestServer) post(w http.ResponseWriter, r *http.Request, h http.HandlerFunc) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	h(w, r)
}

func (s *IngestServer) get(w http.ResponseWriter, r *http.Request, h http.HandlerFunc) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	h(w, r)
}

func (s *IngestServer) setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	w.Header().Set("Access-Control-Max-Age", "3600")
}

func (s *IngestServer) handleSessionStart(w http.ResponseWriter, r *http.Request) {
	var req SessionStartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.logger.Warn("Failed to decode session start request", zap.Error(err))
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.SubjectID == "" {
		http.Error(w, "Missing subjectId", http.StatusBadRequest)
		return
	}

	sessionID := s.capture.StartSession(req.SubjectID, req.SubjectName)
	if sessionID == "" {
		// A session is already running; the page keeps instrumenting it
		s.writeJSON(w, http.StatusOK, map[string]string{"status": "already_active"})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"sessionId": sessionID,
	})
}

func (s *IngestServer) handleSessionEnd(w http.ResponseWriter, r *http.Request) {
	s.capture.EndSession()
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *IngestServer) handleEvent(w http.ResponseWriter, r *http.Request) {
	var req EventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.logger.Warn("Failed to decode event request", zap.Error(err))
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	kind := models.EventKind(req.Kind)
	if !validKind(kind) {
		http.Error(w, "Invalid event kind", http.StatusBadRequest)
		return
	}

	var kept bool
	switch {
	case kind == models.KindNavigation && req.Action == models.ActionEnter:
		kept = s.capture.EnterScreen(req.Screen)
	case kind == models.KindNavigation && req.Action == models.ActionLeave:
		kept = s.capture.LeaveScreen(req.Screen)
	case kind == models.KindFocus:
		kept = s.capture.OnFocus(req.Screen)
	case kind == models.KindBlur:
		kept = s.capture.OnBlur(req.Screen)
	default:
		event := models.MicroEvent{
			Kind:     kind,
			Screen:   req.Screen,
			Metadata: req.Metadata,
		}
		if req.ElementID != "" {
			event.ElementID = &req.ElementID
		}
		if req.ElementType != "" {
			event.ElementType = &req.ElementType
		}
		if req.ElementText != "" {
			event.ElementText = &req.ElementText
		}
		kept = s.capture.RecordEvent(event)
	}

	// Telemetry never fails the page: dropped events are still accepted
	status := "accepted"
	if !kept {
		status = "dropped"
	}
	s.writeJSON(w, http.StatusAccepted, map[string]string{"status": status})
}

func (s *IngestServer) handleScreenTime(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.capture.ScreenTimeMetrics())
}

func (s *IngestServer) handleBehaviorMetrics(w http.ResponseWriter, r *http.Request) {
	subject := r.URL.Query().Get("subject")
	if subject == "" {
		http.Error(w, "Missing subject", http.StatusBadRequest)
		return
	}
	metrics := s.capture.BehaviorMetrics(subject)
	if metrics == nil {
		http.Error(w, "No events for subject", http.StatusNotFound)
		return
	}
	s.writeJSON(w, http.StatusOK, metrics)
}

func (s *IngestServer) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	subject := r.URL.Query().Get("subject")
	if subject == "" {
		http.Error(w, "Missing subject", http.StatusBadRequest)
		return
	}
	analysis := s.reports.Analysis(subject)
	if analysis == nil {
		http.Error(w, "No analysis for subject", http.StatusNotFound)
		return
	}
	s.writeJSON(w, http.StatusOK, analysis)
}

func (s *IngestServer) handleScore(w http.ResponseWriter, r *http.Request) {
	subject := r.URL.Query().Get("subject")
	if subject == "" {
		http.Error(w, "Missing subject", http.StatusBadRequest)
		return
	}
	score := s.reports.BehaviorScore(subject)
	if score == nil {
		http.Error(w, "No score for subject", http.StatusNotFound)
		return
	}
	s.writeJSON(w, http.StatusOK, score)
}

func (s *IngestServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"state":     string(s.capture.State()),
		"timestamp": time.Now().Unix(),
	})
}

func (s *IngestServer) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Warn("Failed to encode response", zap.Error(err))
	}
}

func validKind(kind models.EventKind) bool {
	switch kind {
	case models.KindClick, models.KindInput, models.KindFocus, models.KindBlur,
		models.KindScroll, models.KindNavigation, models.KindKeypress:
		return true
	}
	return false
}
