package sim

import (
	"context"
	"fmt"
	"strings"
)

// Severity is the dashboard level of an event.
type Severity string

const (
	SeverityInfo     Severity = "INFO"
	SeverityWarning  Severity = "WARNING"
	SeverityCritical Severity = "CRITICAL"
)

// EventKind classifies an event for narration.
type EventKind string

const (
	KindBullwhip    EventKind = "BULLWHIP"
	KindDemandShift EventKind = "DEMAND_SHIFT"
	KindDisruption  EventKind = "DISRUPTION"
	KindUnknown     EventKind = "UNKNOWN"
)

// PendingWeek marks an event whose week is not yet known. Disruption events
// carry it until the Step that consumes the disruption resolves them.
const PendingWeek = -1

// Event is a notable occurrence in a simulated week. Text is empty when no
// narrator is configured or the narrator failed.
type Event struct {
	Week     int            `json:"week"`
	Severity Severity       `json:"type"`
	Kind     EventKind      `json:"kind"`
	Text     string         `json:"text,omitempty"`
	Data     map[string]any `json:"data,omitempty"`
}

// Pending reports whether the event still carries PendingWeek.
func (e Event) Pending() bool {
	return e.Week == PendingWeek
}

// ResolveWeek returns a copy of a pending event bound to week, rewriting the
// week marker in both the structured data and the narrated text.
func (e Event) ResolveWeek(week int) Event {
	if !e.Pending() {
		return e
	}
	out := e
	out.Week = week
	if e.Data != nil {
		out.Data = make(map[string]any, len(e.Data))
		for k, v := range e.Data {
			out.Data[k] = v
		}
		out.Data["week"] = week
	}
	out.Text = strings.ReplaceAll(e.Text, fmt.Sprintf("week %d", PendingWeek), fmt.Sprintf("week %d", week))
	return out
}

// Narrator describes an event in natural language. It returns false when no
// text could be produced; the engine then leaves the event without text.
type Narrator interface {
	Describe(ctx context.Context, kind EventKind, data map[string]any) (string, bool)
}
