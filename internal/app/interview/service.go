package interview

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rddesigner/GoogleAI-Rita-Das-Smart-Interview-Assistant/internal/domain"
	"github.com/rddesigner/GoogleAI-Rita-Das-Smart-Interview-Assistant/internal/observability"
)

const (
	resumeMIMEType = "application/pdf"

	noticeBadUpload        = "Please upload a PDF resume."
	noticeExtractionFailed = "Could not read that PDF. Please try another file."
	noticeMicDenied        = "Microphone access was denied. Please allow it and try again."
	noticeListeningFailed  = "Speech recognition stopped unexpectedly."
	analysisFailedText     = "Could not analyze this answer. Please try again."
)

// SpeechFactory builds one speech adapter per session. It may return nil
// when the platform offers no speech capabilities at all.
type SpeechFactory func() domain.Speech

// Service is the Interview Session Controller: it owns the observable
// session state machine and orchestrates the extractor, the model client,
// and the speech adapter. Each session runs as a single logical flow with
// at most one outstanding asynchronous operation; speaking is the only
// concurrent activity, and the speech adapter's last-writer-wins contract
// keeps it safe.
type Service struct {
	store     domain.SessionStore
	extractor domain.ResumeExtractor
	model     domain.InterviewModel
	newSpeech SpeechFactory

	now           func() time.Time
	followUpDelay time.Duration

	mu       sync.Mutex
	runtimes map[domain.SessionID]*runtime
}

func NewService(
	store domain.SessionStore,
	extractor domain.ResumeExtractor,
	model domain.InterviewModel,
	newSpeech SpeechFactory,
	followUpDelay time.Duration,
) *Service {
	return &Service{
		store:         store,
		extractor:     extractor,
		model:         model,
		newSpeech:     newSpeech,
		now:           time.Now,
		followUpDelay: followUpDelay,
		runtimes:      make(map[domain.SessionID]*runtime),
	}
}

// runtime is the per-session state that never leaves the controller: the
// speech adapter, the subscriber list, and the transient analysis result.
type runtime struct {
	// mu serializes all controller operations on this session.
	mu      sync.Mutex
	session *domain.Session
	speech  domain.Speech

	nextMessageID int64
	countdown     int
	lastAnalysis  *domain.AnalysisResult

	subMu     sync.Mutex
	closed    bool
	subs      map[int]func(domain.Event)
	nextSubID int
}

func (rt *runtime) emit(ev domain.Event) {
	ev.SessionID = rt.session.ID

	rt.subMu.Lock()
	if rt.closed {
		rt.subMu.Unlock()
		return
	}
	fns := make([]func(domain.Event), 0, len(rt.subs))
	for _, fn := range rt.subs {
		fns = append(fns, fn)
	}
	rt.subMu.Unlock()

	// Synchronous on the controller flow; subscribers must not re-enter.
	for _, fn := range fns {
		fn(ev)
	}
}

func (rt *runtime) setPhase(p domain.Phase, now time.Time) {
	rt.session.Phase = p
	rt.session.UpdatedAt = now
	rt.emit(domain.Event{Kind: domain.EventPhase, Phase: p})
}

func (rt *runtime) appendMessage(role domain.Role, text, questionContext string, now time.Time) *domain.Message {
	rt.nextMessageID++
	msg := &domain.Message{
		ID:              rt.nextMessageID,
		SessionID:       rt.session.ID,
		Role:            role,
		Text:            text,
		CreatedAt:       now,
		QuestionContext: questionContext,
	}
	rt.session.Conversation = append(rt.session.Conversation, msg)
	rt.emit(domain.Event{Kind: domain.EventMessage, Message: msg})
	return msg
}

// CreateSession registers a new idle session with its own speech adapter.
func (s *Service) CreateSession(ctx context.Context) (*domain.Session, error) {
	now := s.now()
	session := &domain.Session{
		ID:        domain.SessionID(uuid.NewString()),
		Phase:     domain.PhaseIdle,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.store.CreateSession(session); err != nil {
		return nil, err
	}

	rt := &runtime{
		session: session,
		subs:    make(map[int]func(domain.Event)),
	}
	if s.newSpeech != nil {
		rt.speech = s.newSpeech()
	}

	s.mu.Lock()
	s.runtimes[session.ID] = rt
	s.mu.Unlock()

	observability.LoggerFromContext(ctx).Info("session created", "session_id", session.ID)
	return session, nil
}

func (s *Service) runtimeFor(id domain.SessionID) (*runtime, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rt, ok := s.runtimes[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return rt, nil
}

// Snapshot is the observable state of one session.
type Snapshot struct {
	Session   *domain.Session
	Listening bool
	Countdown int
	Analysis  *domain.AnalysisResult
}

func (s *Service) GetSnapshot(ctx context.Context, id domain.SessionID) (*Snapshot, error) {
	rt, err := s.runtimeFor(id)
	if err != nil {
		return nil, err
	}

	rt.mu.Lock()
	defer rt.mu.Unlock()

	// Copy under the lock: the caller reads the snapshot after it is
	// released while the controller keeps mutating the live session.
	listening := rt.speech != nil && rt.speech.Listening()
	return &Snapshot{
		Session:   rt.session.Clone(),
		Listening: listening,
		Countdown: rt.countdown,
		Analysis:  rt.lastAnalysis,
	}, nil
}

// UploadResume handles the file-selected event: MIME validation, text
// extraction, the system marker, and the first question.
func (s *Service) UploadResume(ctx context.Context, id domain.SessionID, mimeType string, fileBytes []byte) error {
	rt, err := s.runtimeFor(id)
	if err != nil {
		return err
	}

	rt.mu.Lock()
	defer rt.mu.Unlock()

	log := observability.LoggerFromContext(ctx).With("session_id", id)

	if rt.session.Phase != domain.PhaseIdle {
		return domain.ErrNotReady
	}
	if mimeType != resumeMIMEType {
		log.Warn("rejected resume upload", "mime_type", mimeType)
		rt.emit(domain.Event{Kind: domain.EventNotice, Notice: noticeBadUpload})
		return domain.ErrInvalidFormat
	}

	rt.setPhase(domain.PhaseLoadingResume, s.now())

	resumeText, err := s.extractor.ExtractText(ctx, fileBytes)
	if err != nil {
		log.Error("resume extraction failed", "error", err)
		rt.emit(domain.Event{Kind: domain.EventNotice, Notice: noticeExtractionFailed})
		rt.setPhase(domain.PhaseIdle, s.now())
		return err
	}

	rt.appendMessage(domain.RoleSystem, domain.SystemMarkerText, "", s.now())
	rt.setPhase(domain.PhaseChatting, s.now())

	rt.setPhase(domain.PhaseAwaitingFirstQuestion, s.now())
	question := s.model.GenerateFirstQuestion(ctx, resumeText)
	rt.appendMessage(domain.RoleAssistant, question, "", s.now())
	rt.setPhase(domain.PhaseChatting, s.now())

	if err := s.store.UpdateSession(rt.session); err != nil {
		log.Error("failed to update session", "error", err)
	}

	log.Info("interview started", "resume_chars", len(resumeText))
	s.speakAsync(ctx, rt, question)
	return nil
}

// SubmitAnswer handles the submit-answer event. Empty or whitespace-only
// input, or a call outside the chat-ready phase, is a no-op.
func (s *Service) SubmitAnswer(ctx context.Context, id domain.SessionID, text string) error {
	rt, err := s.runtimeFor(id)
	if err != nil {
		return err
	}

	rt.mu.Lock()
	defer rt.mu.Unlock()

	answer := strings.TrimSpace(text)
	if answer == "" || rt.session.Phase != domain.PhaseChatting {
		return nil
	}

	log := observability.LoggerFromContext(ctx).With("session_id", id)

	if rt.speech != nil {
		rt.speech.StopListening()
	}

	questionContext := rt.session.LastAssistantText()
	rt.appendMessage(domain.RoleUser, answer, questionContext, s.now())

	rt.session.PendingInput = ""
	rt.emit(domain.Event{Kind: domain.EventInterim, Interim: ""})

	rt.setPhase(domain.PhaseProcessingAnswer, s.now())

	// Pacing only, not a correctness requirement.
	if s.followUpDelay > 0 {
		time.Sleep(s.followUpDelay)
	}

	question := s.model.GenerateFollowUpQuestion(ctx, rt.session.Conversation)
	rt.appendMessage(domain.RoleAssistant, question, "", s.now())
	rt.setPhase(domain.PhaseChatting, s.now())

	if err := s.store.UpdateSession(rt.session); err != nil {
		log.Error("failed to update session", "error", err)
	}

	log.Info("answer processed", "answer_chars", len(answer))
	s.speakAsync(ctx, rt, question)
	return nil
}

// StartListening begins a recognition session; transcripts and countdown
// ticks flow to subscribers as events. Returns ErrUnsupported when the
// platform has no speech capability at all; recognition failures after
// start surface as notice events.
func (s *Service) StartListening(ctx context.Context, id domain.SessionID) error {
	rt, err := s.runtimeFor(id)
	if err != nil {
		return err
	}
	if rt.speech == nil {
		return domain.ErrUnsupported
	}

	log := observability.LoggerFromContext(ctx).With("session_id", id)

	listenCtx := context.WithoutCancel(ctx)
	go func() {
		err := rt.speech.Listen(listenCtx, domain.ListenHooks{
			OnInterim: func(text string) {
				rt.mu.Lock()
				rt.session.PendingInput = text
				rt.mu.Unlock()
				rt.emit(domain.Event{Kind: domain.EventInterim, Interim: text})
			},
			OnCountdown: func(left int) {
				rt.mu.Lock()
				rt.countdown = left
				rt.mu.Unlock()
				rt.emit(domain.Event{Kind: domain.EventCountdown, Countdown: left})
			},
		})
		if err != nil {
			log.Error("listening failed", "error", err)
			rt.emit(domain.Event{Kind: domain.EventNotice, Notice: listenNotice(err)})
		}
	}()
	return nil
}

func listenNotice(err error) string {
	var recErr *domain.RecognitionError
	if errors.As(err, &recErr) && recErr.PermissionDenied() {
		return noticeMicDenied
	}
	return noticeListeningFailed
}

// StopListening ends the active recognition session. Always safe to call.
func (s *Service) StopListening(ctx context.Context, id domain.SessionID) error {
	rt, err := s.runtimeFor(id)
	if err != nil {
		return err
	}
	if rt.speech != nil {
		rt.speech.StopListening()
	}
	return nil
}

// WriteAudio forwards microphone PCM into the session's recognizer.
func (s *Service) WriteAudio(id domain.SessionID, pcm []byte) error {
	rt, err := s.runtimeFor(id)
	if err != nil {
		return err
	}
	if rt.speech == nil {
		return nil
	}
	return rt.speech.WriteAudio(pcm)
}

// RequestAnalysis runs one analysis operation for a user message. A message
// without a question context is a no-op returning (nil, nil): no call is
// made, no state changes.
func (s *Service) RequestAnalysis(ctx context.Context, id domain.SessionID, messageID int64, kind domain.AnalysisKind) (*domain.AnalysisResult, error) {
	rt, err := s.runtimeFor(id)
	if err != nil {
		return nil, err
	}

	rt.mu.Lock()
	defer rt.mu.Unlock()

	msg := rt.session.MessageByID(messageID)
	if msg == nil || msg.QuestionContext == "" || msg.AnalysisInFlight {
		return nil, nil
	}

	log := observability.LoggerFromContext(ctx).With(
		"session_id", id, "message_id", messageID, "kind", kind)

	prevPhase := rt.session.Phase
	msg.AnalysisInFlight = true
	rt.setPhase(domain.PhaseAnalyzingResponse, s.now())
	defer func() {
		msg.AnalysisInFlight = false
		rt.setPhase(prevPhase, s.now())
	}()

	result := &domain.AnalysisResult{Kind: kind, MessageID: messageID}

	switch kind {
	case domain.AnalysisMistakes:
		jsonText := s.model.AnalyzeMistakes(ctx, msg.QuestionContext, msg.Text)
		segments, err := domain.ParseMistakeSegments(msg.Text, jsonText)
		if err != nil {
			log.Error("analysis output unusable", "error", err)
			result.ErrorText = analysisFailedText
		} else {
			result.Segments = segments
		}
	case domain.AnalysisSuggestion:
		result.Suggestion = s.model.SuggestAnswer(ctx, msg.QuestionContext, msg.Text)
	default:
		return nil, domain.ErrNotReady
	}

	rt.lastAnalysis = result
	rt.emit(domain.Event{Kind: domain.EventAnalysis, Analysis: result})

	log.Info("analysis completed")
	return result, nil
}

// CloseAnalysis handles the close-modal event: the transient result is
// dropped.
func (s *Service) CloseAnalysis(ctx context.Context, id domain.SessionID) error {
	rt, err := s.runtimeFor(id)
	if err != nil {
		return err
	}

	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.lastAnalysis = nil
	return nil
}

// CloseSession stops speech and listening, drops subscribers, and removes
// the session. No subscriber is invoked after CloseSession returns.
func (s *Service) CloseSession(ctx context.Context, id domain.SessionID) error {
	rt, err := s.runtimeFor(id)
	if err != nil {
		return err
	}

	rt.subMu.Lock()
	rt.closed = true
	rt.subs = nil
	rt.subMu.Unlock()

	if rt.speech != nil {
		rt.speech.Close()
	}

	s.mu.Lock()
	delete(s.runtimes, id)
	s.mu.Unlock()

	if err := s.store.DeleteSession(id); err != nil {
		return err
	}

	observability.LoggerFromContext(ctx).Info("session closed", "session_id", id)
	return nil
}

// Subscribe registers a state-change callback and returns its unsubscribe
// function. Callbacks run synchronously on the controller flow.
func (s *Service) Subscribe(id domain.SessionID, fn func(domain.Event)) (func(), error) {
	rt, err := s.runtimeFor(id)
	if err != nil {
		return nil, err
	}

	rt.subMu.Lock()
	defer rt.subMu.Unlock()
	if rt.closed {
		return nil, domain.ErrSessionClosed
	}
	rt.nextSubID++
	subID := rt.nextSubID
	rt.subs[subID] = fn

	return func() {
		rt.subMu.Lock()
		defer rt.subMu.Unlock()
		if rt.subs != nil {
			delete(rt.subs, subID)
		}
	}, nil
}

func (s *Service) speakAsync(ctx context.Context, rt *runtime, text string) {
	if rt.speech == nil {
		return
	}
	speakCtx := context.WithoutCancel(ctx)
	go func() {
		if err := rt.speech.Speak(speakCtx, text); err != nil {
			observability.LoggerFromContext(speakCtx).Error("speaking failed",
				"session_id", rt.session.ID, "error", err)
		}
	}()
}
