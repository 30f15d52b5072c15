package models

// EventKind classifies a captured micro-interaction.
type EventKind string

const (
	KindClick      EventKind = "click"
	KindInput      EventKind = "input"
	KindFocus      EventKind = "focus"
	KindBlur       EventKind = "blur"
	KindScroll     EventKind = "scroll"
	KindNavigation EventKind = "navigation"
	KindKeypress   EventKind = "keypress"
)

// Navigation actions carried in EventMetadata.Action
const (
	ActionEnter = "enter"
	ActionLeave = "leave"
)

// MaxElementTextLen caps the element text stored with an event.
const MaxElementTextLen = 50

// EventMetadata carries kind-specific detail. All fields are optional;
// only the ones relevant to the event kind are set.
type EventMetadata struct {
	ScrollX  *float64 `json:"scrollX,omitempty"`
	ScrollY  *float64 `json:"scrollY,omitempty"`
	ClickX   *float64 `json:"clickX,omitempty"`
	ClickY   *float64 `json:"clickY,omitempty"`
	Button   *int     `json:"button,omitempty"`
	KeyCount *int     `json:"keyCount,omitempty"`
	Action   *string  `json:"action,omitempty"`  // navigation: enter/leave
	DwellMs  *int64   `json:"dwellMs,omitempty"` // navigation leave: dwell on screen
}

// MicroEvent represents a single captured interaction
type MicroEvent struct {
	ID          string         `json:"id"`
	SessionID   string         `json:"sessionId"`
	SubjectID   string         `json:"subjectId"`
	SubjectName string         `json:"subjectName,omitempty"`
	Kind        EventKind      `json:"kind"`
	Screen      string         `json:"screen"`
	ElementID   *string        `json:"elementId,omitempty"`
	ElementType *string        `json:"elementType,omitempty"`
	ElementText *string        `json:"elementText,omitempty"`
	Timestamp   int64          `json:"timestamp"`          // Unix timestamp in milliseconds
	Duration    *int64         `json:"duration,omitempty"` // milliseconds, for span-like events
	Metadata    *EventMetadata `json:"metadata,omitempty"`
}
