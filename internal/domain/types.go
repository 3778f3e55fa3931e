package domain

import "time"

type SessionID string

type Role string

const (
	RoleSystem    Role = "system"
	RoleAssistant Role = "assistant"
	RoleUser      Role = "user"
)

// Phase is the controller's current point in the interview turn cycle.
type Phase string

const (
	PhaseIdle                  Phase = "idle"
	PhaseLoadingResume         Phase = "loading_resume"
	PhaseAwaitingFirstQuestion Phase = "awaiting_first_question"
	PhaseChatting              Phase = "chatting"
	PhaseProcessingAnswer      Phase = "processing_answer"
	PhaseAnalyzingResponse     Phase = "analyzing_response"
)

type Timestamp = time.Time

// NoQuestionPlaceholder is used as QuestionContext when a user message is
// submitted before any assistant question exists.
const NoQuestionPlaceholder = "(no question on record)"

// SystemMarkerText is appended once the resume has been extracted.
// Exactly one message per session carries RoleSystem.
const SystemMarkerText = "Resume processed. Interview ready."
