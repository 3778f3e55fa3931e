package speech

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rddesigner/GoogleAI-Rita-Das-Smart-Interview-Assistant/internal/domain"
	"github.com/rddesigner/GoogleAI-Rita-Das-Smart-Interview-Assistant/internal/observability"
)

const (
	// SpeakingRate is the fixed utterance rate: slightly slower than normal
	// so spoken questions stay intelligible.
	SpeakingRate = 0.9
	// SpeakingPitch is neutral.
	SpeakingPitch = 1.0
)

// Options tune one adapter instance. Zero values take the platform defaults:
// a 120 s listening budget, a 10 s silence timeout, one-second countdown
// ticks.
type Options struct {
	Prefs       Preferences
	MaxListen   time.Duration
	IdleTimeout time.Duration
	Tick        time.Duration
}

func (o Options) withDefaults() Options {
	if o.MaxListen <= 0 {
		o.MaxListen = 120 * time.Second
	}
	if o.IdleTimeout <= 0 {
		o.IdleTimeout = 10 * time.Second
	}
	if o.Tick <= 0 {
		o.Tick = time.Second
	}
	return o
}

// Adapter implements domain.Speech: one utterance at a time (last writer
// wins) and at most one listening session, guarded by a countdown and a
// silence timer. The listening sub-state is two-valued, idle or listening;
// re-entrant Listen calls while listening are no-ops.
type Adapter struct {
	synth      domain.Synthesizer
	recFactory domain.RecognizerFactory
	opts       Options

	mu          sync.Mutex
	speakCancel context.CancelFunc
	listen      *listeningSession
}

type listeningSession struct {
	recognizer domain.Recognizer
	cancel     context.CancelFunc
}

func NewAdapter(synth domain.Synthesizer, recFactory domain.RecognizerFactory, opts Options) *Adapter {
	return &Adapter{
		synth:      synth,
		recFactory: recFactory,
		opts:       opts.withDefaults(),
	}
}

// Speak cancels any in-progress utterance, selects a voice by the preference
// ladder, and speaks text at the fixed rate and pitch. It returns when the
// utterance finishes; a superseded utterance resolves without error.
func (a *Adapter) Speak(ctx context.Context, text string) error {
	if a.synth == nil {
		observability.LoggerFromContext(ctx).Warn("no synthesizer configured, skipping speech", "text_len", len(text))
		return nil
	}

	a.mu.Lock()
	if a.speakCancel != nil {
		a.speakCancel()
	}
	speakCtx, cancel := context.WithCancel(ctx)
	a.speakCancel = cancel
	a.mu.Unlock()
	defer cancel()

	err := a.synth.Synthesize(speakCtx, domain.Utterance{
		Text:  text,
		Voice: SelectVoice(a.synth.Voices(), a.opts.Prefs),
		Rate:  SpeakingRate,
		Pitch: SpeakingPitch,
	})
	if speakCtx.Err() != nil {
		// Cancelled by a newer utterance or by Close.
		return nil
	}
	return err
}

// Listen runs one continuous recognition session and blocks until it stops:
// explicitly, on the countdown reaching zero, on the silence timeout, or on
// a platform error. While already listening it is an idempotent no-op.
func (a *Adapter) Listen(ctx context.Context, hooks domain.ListenHooks) error {
	a.mu.Lock()
	if a.listen != nil {
		a.mu.Unlock()
		return nil
	}
	if a.recFactory == nil {
		a.mu.Unlock()
		return domain.ErrUnsupported
	}
	recognizer, err := a.recFactory.NewRecognizer()
	if err != nil {
		a.mu.Unlock()
		return err
	}

	listenCtx, cancel := context.WithCancel(ctx)
	session := &listeningSession{recognizer: recognizer, cancel: cancel}
	a.listen = session
	a.mu.Unlock()

	defer a.teardown(session, hooks)

	if err := recognizer.Start(listenCtx); err != nil {
		return err
	}

	return a.run(listenCtx, recognizer, hooks)
}

// run owns both timers. Every exit path goes through the caller's teardown,
// so neither timer can fire after the session is torn down.
func (a *Adapter) run(ctx context.Context, recognizer domain.Recognizer, hooks domain.ListenHooks) error {
	remaining := int(a.opts.MaxListen / a.opts.Tick)

	ticker := time.NewTicker(a.opts.Tick)
	defer ticker.Stop()

	// The silence timer arms on the first recognition event; before any
	// speech only the countdown bounds the session.
	var silence *time.Timer
	var silenceC <-chan time.Time
	defer func() {
		if silence != nil {
			silence.Stop()
		}
	}()

	var finalized []string
	var interim string

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-ticker.C:
			remaining--
			if hooks.OnCountdown != nil {
				hooks.OnCountdown(remaining)
			}
			if remaining <= 0 {
				return nil
			}

		case <-silenceC:
			return nil

		case ev, ok := <-recognizer.Events():
			if !ok {
				return nil
			}
			if ev.Err != nil {
				return ev.Err
			}

			if ev.Final {
				finalized = append(finalized, ev.Transcript)
				interim = ""
			} else {
				interim = ev.Transcript
			}
			if hooks.OnInterim != nil {
				hooks.OnInterim(combineTranscripts(finalized, interim))
			}

			if silence == nil {
				silence = time.NewTimer(a.opts.IdleTimeout)
				silenceC = silence.C
			} else {
				if !silence.Stop() {
					select {
					case <-silence.C:
					default:
					}
				}
				silence.Reset(a.opts.IdleTimeout)
			}
		}
	}
}

func (a *Adapter) teardown(session *listeningSession, hooks domain.ListenHooks) {
	_ = session.recognizer.Stop()
	session.cancel()

	a.mu.Lock()
	if a.listen == session {
		a.listen = nil
	}
	a.mu.Unlock()

	// Clear the countdown display.
	if hooks.OnCountdown != nil {
		hooks.OnCountdown(0)
	}
}

// combineTranscripts joins all finalized segments plus the pending interim
// text in event order. Earlier finalized segments are never discarded during
// a session.
func combineTranscripts(finalized []string, interim string) string {
	parts := make([]string, 0, len(finalized)+1)
	for _, f := range finalized {
		if f != "" {
			parts = append(parts, f)
		}
	}
	if interim != "" {
		parts = append(parts, interim)
	}
	return strings.Join(parts, " ")
}

// Listening reports whether a recognition session is active.
func (a *Adapter) Listening() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.listen != nil
}

// StopListening ends the active recognition session, if any. Always safe.
func (a *Adapter) StopListening() {
	a.mu.Lock()
	session := a.listen
	a.mu.Unlock()
	if session != nil {
		session.cancel()
	}
}

// WriteAudio forwards microphone PCM to the active recognition session.
// Frames outside a listening session are dropped.
func (a *Adapter) WriteAudio(pcm []byte) error {
	a.mu.Lock()
	session := a.listen
	a.mu.Unlock()
	if session == nil {
		return nil
	}
	return session.recognizer.WriteAudio(pcm)
}

// Close cancels speech and listening.
func (a *Adapter) Close() {
	a.mu.Lock()
	if a.speakCancel != nil {
		a.speakCancel()
	}
	session := a.listen
	a.mu.Unlock()
	if session != nil {
		session.cancel()
	}
}
