package domain

// Message is one entry in a session's ordered conversation. Messages are
// created by the controller, appended in order, and never removed or
// reordered. Text is immutable once created; AnalysisInFlight is the only
// mutable field.
type Message struct {
	ID        int64
	SessionID SessionID
	Role      Role
	Text      string
	CreatedAt Timestamp

	// QuestionContext is set on user messages only: the assistant question
	// this message answers, captured at submission time.
	QuestionContext string

	// AnalysisInFlight is true only while an analysis request for this
	// message is outstanding.
	AnalysisInFlight bool
}

// Session is one interview: a phase, an ordered conversation, and the text
// buffer the user is currently composing (typed or dictated).
type Session struct {
	ID        SessionID
	Phase     Phase
	CreatedAt Timestamp
	UpdatedAt Timestamp

	Conversation []*Message
	PendingInput string
}

// LastAssistantText returns the text of the most recent assistant message,
// the implicit "current question", or NoQuestionPlaceholder if none exists.
func (s *Session) LastAssistantText() string {
	for i := len(s.Conversation) - 1; i >= 0; i-- {
		if s.Conversation[i].Role == RoleAssistant {
			return s.Conversation[i].Text
		}
	}
	return NoQuestionPlaceholder
}

// Clone copies the session and every message in its conversation, so a
// caller can keep reading the copy while the controller mutates the live
// session.
func (s *Session) Clone() *Session {
	out := *s
	out.Conversation = make([]*Message, len(s.Conversation))
	for i, m := range s.Conversation {
		mc := *m
		out.Conversation[i] = &mc
	}
	return &out
}

// MessageByID returns the message with the given id, or nil.
func (s *Session) MessageByID(id int64) *Message {
	for _, m := range s.Conversation {
		if m.ID == id {
			return m
		}
	}
	return nil
}

// MistakeSegment is a contiguous span of an answer's text, tagged as
// erroneous or not. Concatenating the Text fields of a segment sequence
// reconstructs the analyzed answer verbatim.
type MistakeSegment struct {
	Text       string `json:"text"`
	IsError    bool   `json:"isError"`
	Correction string `json:"correction"`
}

type AnalysisKind string

const (
	AnalysisMistakes   AnalysisKind = "mistakes"
	AnalysisSuggestion AnalysisKind = "suggestion"
)

// AnalysisResult holds either a mistake breakdown or a suggested answer.
// It is transient: surfaced for display, never stored in the conversation.
type AnalysisResult struct {
	Kind       AnalysisKind
	MessageID  int64
	Segments   []MistakeSegment
	Suggestion string

	// ErrorText replaces the payload when the model output for the
	// requested kind was unusable.
	ErrorText string
}
