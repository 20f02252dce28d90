package trace

// TraceLevel controls the verbosity of decision tracing.
type TraceLevel string

const (
	// TraceLevelNone disables tracing (zero overhead).
	TraceLevelNone TraceLevel = "none"
	// TraceLevelDecisions captures every order-phase decision and every event.
	TraceLevelDecisions TraceLevel = "decisions"
)

// validTraceLevels maps accepted trace level strings.
var validTraceLevels = map[TraceLevel]bool{
	TraceLevelNone:      true,
	TraceLevelDecisions: true,
	"":                  true, // empty defaults to none
}

// IsValidTraceLevel returns true if the given level string is a recognized trace level.
func IsValidTraceLevel(level string) bool {
	return validTraceLevels[TraceLevel(level)]
}

// New returns a DecisionTrace for the level, or nil when tracing is off.
// A nil *DecisionTrace is what the engine treats as "not tracing".
func New(level TraceLevel) *DecisionTrace {
	if level != TraceLevelDecisions {
		return nil
	}
	return NewDecisionTrace()
}

// DecisionTrace collects decision and event records during one run.
type DecisionTrace struct {
	Decisions []DecisionRecord
	Events    []EventRecord
}

// NewDecisionTrace creates a DecisionTrace ready for recording.
func NewDecisionTrace() *DecisionTrace {
	return &DecisionTrace{
		Decisions: make([]DecisionRecord, 0),
		Events:    make([]EventRecord, 0),
	}
}

// RecordDecision appends an order-phase decision record.
func (dt *DecisionTrace) RecordDecision(record DecisionRecord) {
	dt.Decisions = append(dt.Decisions, record)
}

// RecordEvent appends an event record.
func (dt *DecisionTrace) RecordEvent(record EventRecord) {
	dt.Events = append(dt.Events, record)
}

// ForTier returns the decisions of one tier in week order.
func (dt *DecisionTrace) ForTier(tier string) []DecisionRecord {
	var out []DecisionRecord
	for _, d := range dt.Decisions {
		if d.Tier == tier {
			out = append(out, d)
		}
	}
	return out
}
