package domain

import "context"

// ResumeExtractor turns resume file bytes into plain text. Pure function of
// the bytes; a non-PDF or corrupt input fails with ErrInvalidFormat.
type ResumeExtractor interface {
	ExtractText(ctx context.Context, fileBytes []byte) (string, error)
}

// InterviewModel defines how the core application talks to the hosted
// generative model. All four operations are stateless given their inputs and
// absorb transport/API failures into safe fallback values: they never return
// an error, so the conversation flow never halts on a failed call.
type InterviewModel interface {
	// GenerateFirstQuestion returns a warm greeting plus one opening
	// question grounded in the resume text.
	GenerateFirstQuestion(ctx context.Context, resumeText string) string

	// GenerateFollowUpQuestion returns exactly one follow-up question given
	// the full conversation so far.
	GenerateFollowUpQuestion(ctx context.Context, history []*Message) string

	// AnalyzeMistakes returns JSON text: an array of mistake segments whose
	// concatenated text reconstructs the answer.
	AnalyzeMistakes(ctx context.Context, question, answer string) string

	// SuggestAnswer returns a rewritten model answer preserving the
	// original's intent.
	SuggestAnswer(ctx context.Context, question, answer string) string
}

// Voice is one entry of the platform voice catalog.
type Voice struct {
	Name    string
	Vendor  string
	Locale  string
	Default bool
}

// Utterance is one text-to-speech request.
type Utterance struct {
	Text  string
	Voice Voice
	Rate  float64
	Pitch float64
}

// AudioSink consumes synthesized PCM. The default implementation discards.
type AudioSink interface {
	WritePCM(pcm []byte)
}

// Synthesizer is the platform text-to-speech capability.
type Synthesizer interface {
	// Voices returns the platform voice catalog.
	Voices() []Voice

	// Synthesize speaks one utterance, blocking until it finishes or ctx is
	// cancelled. A platform synthesis failure is reported as ErrSynthesis.
	Synthesize(ctx context.Context, u Utterance) error
}

// RecognitionEvent is one interim or final transcript update from the
// platform recognizer, or a terminal error.
type RecognitionEvent struct {
	Transcript string
	Final      bool
	Err        error
}

// Recognizer is one continuous speech-recognition session.
type Recognizer interface {
	Start(ctx context.Context) error
	Events() <-chan RecognitionEvent
	WriteAudio(pcm []byte) error
	Stop() error
}

// RecognizerFactory creates recognition sessions. NewRecognizer fails with
// ErrUnsupported when the platform has no speech-to-text capability.
type RecognizerFactory interface {
	NewRecognizer() (Recognizer, error)
}

// ListenHooks carry the per-listen callbacks of the speech adapter.
type ListenHooks struct {
	// OnInterim receives the running combined transcript on every
	// recognition event: all finalized segments plus pending interim text.
	OnInterim func(text string)

	// OnCountdown receives the remaining listening seconds once per second.
	OnCountdown func(secondsLeft int)
}

// Speech is the per-session speech I/O capability the controller depends on.
type Speech interface {
	// Speak cancels any in-progress utterance and speaks text. Resolves
	// when the utterance finishes.
	Speak(ctx context.Context, text string) error

	// Listen starts a continuous recognition session and blocks until it
	// stops. A Listen call while already listening is a no-op that returns
	// immediately.
	Listen(ctx context.Context, hooks ListenHooks) error

	Listening() bool
	StopListening()

	// WriteAudio forwards microphone PCM into the active recognition
	// session; frames outside a listening session are dropped.
	WriteAudio(pcm []byte) error

	// Close stops speaking and listening and releases the adapter.
	Close()
}

// SessionStore defines session persistence (in-memory only).
type SessionStore interface {
	CreateSession(session *Session) error
	UpdateSession(session *Session) error
	GetSession(id SessionID) (*Session, error)
	DeleteSession(id SessionID) error
}
