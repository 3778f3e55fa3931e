package domain

// EventKind names one observable state change of a session.
type EventKind string

const (
	EventPhase     EventKind = "phase"
	EventMessage   EventKind = "message"
	EventInterim   EventKind = "interim"
	EventCountdown EventKind = "countdown"
	EventNotice    EventKind = "notice"
	EventAnalysis  EventKind = "analysis"
)

// Event is a state-change notification delivered to session subscribers.
// Exactly one payload field is set, matching Kind.
type Event struct {
	Kind      EventKind
	SessionID SessionID

	Phase     Phase
	Message   *Message
	Interim   string
	Countdown int
	Notice    string
	Analysis  *AnalysisResult
}
