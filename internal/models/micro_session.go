package models

import "time"

// MicroSession is one bounded tracking run for one subject.
type MicroSession struct {
	ID          string     `json:"id"`
	SubjectID   string     `json:"subjectId"`
	SubjectName string     `json:"subjectName,omitempty"`
	StartTime   time.Time  `json:"startTime"`
	EndTime     *time.Time `json:"endTime,omitempty"`
	Duration    *int64     `json:"duration,omitempty"` // milliseconds
	EventCount  int        `json:"eventCount"`
	Screens     []string   `json:"screens"` // distinct screens, first-visit order
}

// HasScreen reports whether the session already recorded the screen.
func (s *MicroSession) HasScreen(screen string) bool {
	for _, v := range s.Screens {
		if v == screen {
			return true
		}
	}
	return false
}
