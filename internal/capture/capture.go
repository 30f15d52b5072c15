package capture

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/pulseops/behavior-telemetry/internal/models"
	"github.com/pulseops/behavior-telemetry/internal/storage"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Store keys for the durable telemetry state.
const (
	keyActiveSession = "active_session"
	keyEventLog      = "micro_events"
	keySessionLog    = "micro_sessions"
)

// Defaults for batching and log retention.
const (
	DefaultBatchSize         = 10
	DefaultFlushInterval     = 5 * time.Second
	DefaultMaxStoredEvents   = 1000
	DefaultMaxStoredSessions = 100
)

// SessionState is the capture lifecycle state.
type SessionState string

const (
	StateIdle   SessionState = "idle"
	StateActive SessionState = "active"
)

// Option configures a Capture.
type Option func(*Capture)

// WithClock injects the time source. Tests use this to drive durations
// deterministically.
func WithClock(clock func() time.Time) Option {
	return func(c *Capture) { c.clock = clock }
}

// WithBatchSize overrides the flush batch size.
func WithBatchSize(n int) Option {
	return func(c *Capture) { c.batchSize = n }
}

// WithFlushInterval overrides the periodic flush interval.
func WithFlushInterval(d time.Duration) Option {
	return func(c *Capture) { c.flushInterval = d }
}

// WithLogCaps overrides the durable event/session log caps.
func WithLogCaps(maxEvents, maxSessions int) Option {
	return func(c *Capture) {
		c.maxEvents = maxEvents
		c.maxSessions = maxSessions
	}
}

// Capture records a subject's interaction stream with bounded memory and
// bounded write frequency. At most one session is active per instance;
// events recorded outside a session are dropped with a warning, never an
// error, so instrumentation can never break the host.
type Capture struct {
	store         storage.Store
	logger        *zap.Logger
	clock         func() time.Time
	batchSize     int
	flushInterval time.Duration
	maxEvents     int
	maxSessions   int

	mu         sync.Mutex
	state      SessionState
	session    *models.MicroSession
	buffer     []models.MicroEvent
	enterMarks map[string]time.Time // per-screen enter timestamps
	focusMark  time.Time            // single process-wide focus marker
	stopChan   chan struct{}
	wg         sync.WaitGroup
}

// New creates a capture component in the Idle state.
func New(store storage.Store, logger *zap.Logger, opts ...Option) *Capture {
	c := &Capture{
		store:         store,
		logger:        logger,
		clock:         time.Now,
		batchSize:     DefaultBatchSize,
		flushInterval: DefaultFlushInterval,
		maxEvents:     DefaultMaxStoredEvents,
		maxSessions:   DefaultMaxStoredSessions,
		state:         StateIdle,
		enterMarks:    make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the current session state.
func (c *Capture) State() SessionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// StartSession begins a tracking session for the subject and returns the
// session id. Returns "" when a session is already active.
func (c *Capture) StartSession(subjectID, subjectName string) string {
	c.mu.Lock()
	if c.state == StateActive {
		active := c.session.ID
		c.mu.Unlock()
		c.logger.Warn("Session already active, ignoring start",
			zap.String("active_session", active),
			zap.String("subject_id", subjectID),
		)
		return ""
	}

	now := c.clock()
	session := &models.MicroSession{
		ID:          uuid.NewString(),
		SubjectID:   subjectID,
		SubjectName: subjectName,
		StartTime:   now,
		Screens:     []string{},
	}
	c.session = session
	c.state = StateActive
	c.buffer = c.buffer[:0]
	c.enterMarks = make(map[string]time.Time)
	c.focusMark = time.Time{}
	c.stopChan = make(chan struct{})
	c.wg.Add(1)
	go c.autoFlushLoop(c.stopChan)

	snapshot := *session
	c.mu.Unlock()

	c.persistActiveSession(&snapshot)
	c.logger.Info("Session started",
		zap.String("session_id", session.ID),
		zap.String("subject_id", subjectID),
	)
	return session.ID
}

// EndSession finalizes the active session: flushes buffered events, appends
// the session to the capped session log, and stops the flush timer. No-op
// when no session is active.
func (c *Capture) EndSession() {
	c.mu.Lock()
	if c.state != StateActive {
		c.mu.Unlock()
		return
	}

	session := c.session
	now := c.clock()
	end := now
	session.EndTime = &end
	duration := now.Sub(session.StartTime).Milliseconds()
	session.Duration = &duration

	c.state = StateIdle
	c.session = nil
	stop := c.stopChan
	c.stopChan = nil
	c.flushLocked()
	c.mu.Unlock()

	close(stop)
	c.wg.Wait()

	c.appendSessionLog(*session)
	if err := c.store.Delete(keyActiveSession); err != nil {
		c.logger.Warn("Failed to clear active session snapshot", zap.Error(err))
	}

	c.logger.Info("Session ended",
		zap.String("session_id", session.ID),
		zap.Int("event_count", session.EventCount),
		zap.Int64("duration_ms", duration),
	)
}

// Close ends any active session and releases the flush timer. The capture
// can be restarted with StartSession afterwards.
func (c *Capture) Close() {
	c.EndSession()
}

// RecordEvent captures one interaction. The caller sets kind, screen,
// element context, duration, and metadata; id, session, subject identity,
// and timestamp are filled in here. Reports whether the event was kept:
// false means no session was active and the event was dropped with a
// warning.
func (c *Capture) RecordEvent(event models.MicroEvent) bool {
	c.mu.Lock()
	if c.state != StateActive {
		c.mu.Unlock()
		c.logger.Warn("No active session, dropping event",
			zap.String("kind", string(event.Kind)),
			zap.String("screen", event.Screen),
		)
		return false
	}
	c.recordLocked(event)
	c.mu.Unlock()
	return true
}

// EnterScreen records a navigation enter event and stores the enter marker
// for the screen. A second enter before a matching leave overwrites the
// marker. Reports whether the event was kept.
func (c *Capture) EnterScreen(screen string) bool {
	c.mu.Lock()
	if c.state != StateActive {
		c.mu.Unlock()
		c.logger.Warn("No active session, dropping event",
			zap.String("kind", string(models.KindNavigation)),
			zap.String("screen", screen),
		)
		return false
	}

	now := c.clock()
	c.enterMarks[screen] = now
	action := models.ActionEnter
	c.recordLocked(models.MicroEvent{
		Kind:      models.KindNavigation,
		Screen:    screen,
		Timestamp: now.UnixMilli(),
		Metadata:  &models.EventMetadata{Action: &action},
	})
	c.mu.Unlock()
	return true
}

// LeaveScreen records a navigation leave event with dwell time computed
// from the screen's enter marker, when one exists. Reports whether the
// event was kept.
func (c *Capture) LeaveScreen(screen string) bool {
	c.mu.Lock()
	if c.state != StateActive {
		c.mu.Unlock()
		c.logger.Warn("No active session, dropping event",
			zap.String("kind", string(models.KindNavigation)),
			zap.String("screen", screen),
		)
		return false
	}

	now := c.clock()
	action := models.ActionLeave
	event := models.MicroEvent{
		Kind:      models.KindNavigation,
		Screen:    screen,
		Timestamp: now.UnixMilli(),
		Metadata:  &models.EventMetadata{Action: &action},
	}
	if mark, ok := c.enterMarks[screen]; ok {
		dwell := now.Sub(mark).Milliseconds()
		if dwell < 0 {
			dwell = 0
		}
		event.Duration = &dwell
		event.Metadata.DwellMs = &dwell
		delete(c.enterMarks, screen)
	}
	c.recordLocked(event)
	c.mu.Unlock()
	return true
}

// OnFocus records a focus event and resets the process-wide focus marker.
// Reports whether the event was kept.
func (c *Capture) OnFocus(screen string) bool {
	c.mu.Lock()
	if c.state != StateActive {
		c.mu.Unlock()
		c.logger.Warn("No active session, dropping event",
			zap.String("kind", string(models.KindFocus)),
			zap.String("screen", screen),
		)
		return false
	}

	now := c.clock()
	c.focusMark = now
	c.recordLocked(models.MicroEvent{
		Kind:      models.KindFocus,
		Screen:    screen,
		Timestamp: now.UnixMilli(),
	})
	c.mu.Unlock()
	return true
}

// OnBlur records a blur event. When a focus marker exists the elapsed time
// since the last OnFocus is attached as the event duration. The marker is
// process-wide, not per-screen. Reports whether the event was kept.
func (c *Capture) OnBlur(screen string) bool {
	c.mu.Lock()
	if c.state != StateActive {
		c.mu.Unlock()
		c.logger.Warn("No active session, dropping event",
			zap.String("kind", string(models.KindBlur)),
			zap.String("screen", screen),
		)
		return false
	}

	now := c.clock()
	event := models.MicroEvent{
		Kind:      models.KindBlur,
		Screen:    screen,
		Timestamp: now.UnixMilli(),
	}
	if !c.focusMark.IsZero() {
		elapsed := now.Sub(c.focusMark).Milliseconds()
		if elapsed < 0 {
			elapsed = 0
		}
		event.Duration = &elapsed
	}
	c.recordLocked(event)
	c.mu.Unlock()
	return true
}

// Flush writes buffered events to the durable log.
func (c *Capture) Flush() {
	c.mu.Lock()
	c.flushLocked()
	c.mu.Unlock()
}

// PendingCount returns the number of buffered, not yet persisted events.
func (c *Capture) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.buffer)
}

// StoredEvents returns the durable event log. A corrupt or missing log
// reads as empty.
func (c *Capture) StoredEvents() []models.MicroEvent {
	return c.loadEvents()
}

// StoredSessions returns the durable session log. A corrupt or missing log
// reads as empty.
func (c *Capture) StoredSessions() []models.MicroSession {
	return c.loadSessions()
}

// ClearAllData wipes the in-memory buffers, markers, and all durable logs.
func (c *Capture) ClearAllData() {
	c.mu.Lock()
	c.buffer = c.buffer[:0]
	c.enterMarks = make(map[string]time.Time)
	c.focusMark = time.Time{}
	c.mu.Unlock()

	for _, key := range []string{keyActiveSession, keyEventLog, keySessionLog} {
		if err := c.store.Delete(key); err != nil {
			c.logger.Warn("Failed to delete stored data", zap.String("key", key), zap.Error(err))
		}
	}
	c.logger.Info("All telemetry data cleared")
}

// recordLocked fills in identity fields and appends the event. Caller holds
// the mutex and has verified the session is active.
func (c *Capture) recordLocked(event models.MicroEvent) {
	event.ID = uuid.NewString()
	event.SessionID = c.session.ID
	event.SubjectID = c.session.SubjectID
	event.SubjectName = c.session.SubjectName
	if event.Timestamp == 0 {
		event.Timestamp = c.clock().UnixMilli()
	}
	if event.ElementText != nil && len(*event.ElementText) > models.MaxElementTextLen {
		truncated := (*event.ElementText)[:models.MaxElementTextLen]
		event.ElementText = &truncated
	}

	c.session.EventCount++
	if event.Screen != "" && !c.session.HasScreen(event.Screen) {
		c.session.Screens = append(c.session.Screens, event.Screen)
	}

	c.buffer = append(c.buffer, event)
	if len(c.buffer) >= c.batchSize {
		c.flushLocked()
	}
}

// flushLocked appends the buffer to the durable event log, truncated to the
// most recent maxEvents entries. On a write failure the batch is prepended
// back so no event is lost. Caller holds the mutex.
func (c *Capture) flushLocked() {
	if len(c.buffer) == 0 {
		return
	}

	batch := make([]models.MicroEvent, len(c.buffer))
	copy(batch, c.buffer)
	c.buffer = c.buffer[:0]

	stored := c.loadEvents()
	stored = append(stored, batch...)
	if len(stored) > c.maxEvents {
		stored = stored[len(stored)-c.maxEvents:]
	}

	data, err := json.Marshal(stored)
	if err == nil {
		err = c.store.Put(keyEventLog, data)
	}
	if err != nil {
		c.buffer = append(batch, c.buffer...)
		c.logger.Warn("Failed to flush events, restoring buffer",
			zap.Error(err),
			zap.Int("count", len(batch)),
		)
		return
	}

	c.logger.Debug("Flushed events",
		zap.Int("count", len(batch)),
		zap.Int("stored_total", len(stored)),
	)
}

func (c *Capture) autoFlushLoop(stop chan struct{}) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.Flush()
		case <-stop:
			return
		}
	}
}

func (c *Capture) persistActiveSession(session *models.MicroSession) {
	data, err := json.Marshal(session)
	if err == nil {
		err = c.store.Put(keyActiveSession, data)
	}
	if err != nil {
		c.logger.Warn("Failed to persist active session snapshot", zap.Error(err))
	}
}

func (c *Capture) appendSessionLog(session models.MicroSession) {
	sessions := c.loadSessions()
	sessions = append(sessions, session)
	if len(sessions) > c.maxSessions {
		sessions = sessions[len(sessions)-c.maxSessions:]
	}

	data, err := json.Marshal(sessions)
	if err == nil {
		err = c.store.Put(keySessionLog, data)
	}
	if err != nil {
		c.logger.Warn("Failed to append session log", zap.Error(err))
	}
}

func (c *Capture) loadEvents() []models.MicroEvent {
	data, err := c.store.Get(keyEventLog)
	if err != nil {
		c.logger.Warn("Failed to read event log", zap.Error(err))
		return []models.MicroEvent{}
	}
	if len(data) == 0 {
		return []models.MicroEvent{}
	}

	var events []models.MicroEvent
	if err := json.Unmarshal(data, &events); err != nil {
		c.logger.Warn("Corrupt event log, treating as empty", zap.Error(err))
		return []models.MicroEvent{}
	}
	return events
}

func (c *Capture) loadSessions() []models.MicroSession {
	data, err := c.store.Get(keySessionLog)
	if err != nil {
		c.logger.Warn("Failed to read session log", zap.Error(err))
		return []models.MicroSession{}
	}
	if len(data) == 0 {
		return []models.MicroSession{}
	}

	var sessions []models.MicroSession
	if err := json.Unmarshal(data, &sessions); err != nil {
		c.logger.Warn("Corrupt session log, treating as empty", zap.Error(err))
		return []models.MicroSession{}
	}
	return sessions
}
