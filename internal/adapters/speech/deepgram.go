package speech

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	msginterfaces "github.com/deepgram/deepgram-go-sdk/pkg/api/speak/v1/websocket/interfaces"
	clientinterfaces "github.com/deepgram/deepgram-go-sdk/pkg/client/interfaces/v1"
	"github.com/deepgram/deepgram-go-sdk/pkg/client/speak"

	"github.com/rddesigner/GoogleAI-Rita-Das-Smart-Interview-Assistant/internal/domain"
	"github.com/rddesigner/GoogleAI-Rita-Das-Smart-Interview-Assistant/internal/observability"
)

// auraCatalog is the voice catalog exposed by the Deepgram Aura platform.
// Voice names double as TTS model identifiers.
var auraCatalog = []domain.Voice{
	{Name: "aura-2-thalia-en", Vendor: "Deepgram", Locale: "en-US", Default: true},
	{Name: "aura-2-asteria-en", Vendor: "Deepgram", Locale: "en-US"},
	{Name: "aura-2-luna-en", Vendor: "Deepgram", Locale: "en-US"},
	{Name: "aura-2-athena-en", Vendor: "Deepgram", Locale: "en-GB"},
	{Name: "aura-2-helios-en", Vendor: "Deepgram", Locale: "en-GB"},
	{Name: "aura-2-orion-en", Vendor: "Deepgram", Locale: "en-US"},
}

// DiscardSink drops synthesized audio. Used when no delivery target exists.
type DiscardSink struct{}

func (DiscardSink) WritePCM([]byte) {}

// DeepgramSynthesizer implements domain.Synthesizer over the Deepgram Aura
// speak WebSocket. Synthesized PCM goes to the injected sink.
type DeepgramSynthesizer struct {
	apiKey     string
	fallback   string
	sink       domain.AudioSink
	sampleRate int
	encoding   string
}

// NewDeepgramSynthesizer builds a synthesizer. fallbackModel is used when an
// utterance carries no voice; sink may be nil to discard audio.
func NewDeepgramSynthesizer(apiKey, fallbackModel string, sink domain.AudioSink) *DeepgramSynthesizer {
	if fallbackModel == "" {
		fallbackModel = "aura-2-thalia-en"
	}
	if sink == nil {
		sink = DiscardSink{}
	}
	return &DeepgramSynthesizer{
		apiKey:     apiKey,
		fallback:   fallbackModel,
		sink:       sink,
		sampleRate: 48000,
		encoding:   "linear16",
	}
}

func (d *DeepgramSynthesizer) Voices() []domain.Voice {
	return auraCatalog
}

// Synthesize speaks one utterance and returns once the audio stream drains,
// or earlier if ctx is cancelled. Platform errors map to ErrSynthesis. The
// Aura protocol has no rate or pitch knobs, so those utterance fields are
// accepted and ignored here.
func (d *DeepgramSynthesizer) Synthesize(ctx context.Context, u domain.Utterance) error {
	if d.apiKey == "" {
		return fmt.Errorf("%w: no API key", domain.ErrSynthesis)
	}
	if u.Text == "" {
		return nil
	}

	model := u.Voice.Name
	if model == "" {
		model = d.fallback
	}

	options := &clientinterfaces.WSSpeakOptions{
		Model:      model,
		Encoding:   d.encoding,
		SampleRate: d.sampleRate,
	}

	var lastRecvUnix int64
	var seenAudio int32
	var platformErr atomic.Value

	cb := &speakCallback{
		onBinary: func(data []byte) error {
			if len(data) == 0 {
				return nil
			}
			atomic.StoreInt64(&lastRecvUnix, time.Now().UnixNano())
			atomic.StoreInt32(&seenAudio, 1)
			b := make([]byte, len(data))
			copy(b, data)
			d.sink.WritePCM(b)
			return nil
		},
		onError: func(code, description string) {
			platformErr.Store(fmt.Sprintf("%s: %s", code, description))
		},
	}

	dg, err := speak.NewWSUsingCallback(ctx, d.apiKey, &clientinterfaces.ClientOptions{}, options, cb)
	if err != nil {
		return fmt.Errorf("%w: create ws client: %v", domain.ErrSynthesis, err)
	}

	stopped := false
	stopClient := func() {
		if !stopped {
			stopped = true
			dg.Stop()
		}
	}
	defer stopClient()

	if ok := dg.Connect(); !ok {
		return fmt.Errorf("%w: connect failed", domain.ErrSynthesis)
	}

	if err := dg.SpeakWithText(u.Text); err != nil {
		return fmt.Errorf("%w: speak text: %v", domain.ErrSynthesis, err)
	}
	if err := dg.Flush(); err != nil {
		observability.Logger().Warn("deepgram flush failed", "error", err)
	}

	// Done when the audio stream goes quiet after delivering audio, or on
	// the overall deadline.
	idleWindow := 400 * time.Millisecond
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	deadline := time.Now().Add(20 * time.Second)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if msg, ok := platformErr.Load().(string); ok {
				return fmt.Errorf("%w: %s", domain.ErrSynthesis, msg)
			}
			if atomic.LoadInt32(&seenAudio) == 1 {
				last := time.Unix(0, atomic.LoadInt64(&lastRecvUnix))
				if time.Since(last) > idleWindow {
					return nil
				}
			}
			if time.Now().After(deadline) {
				return nil
			}
		}
	}
}

type speakCallback struct {
	onBinary func([]byte) error
	onError  func(code, description string)
}

func (s *speakCallback) Open(*msginterfaces.OpenResponse) error         { return nil }
func (s *speakCallback) Metadata(*msginterfaces.MetadataResponse) error { return nil }
func (s *speakCallback) Flush(*msginterfaces.FlushedResponse) error     { return nil }
func (s *speakCallback) Clear(*msginterfaces.ClearedResponse) error     { return nil }
func (s *speakCallback) Close(*msginterfaces.CloseResponse) error       { return nil }
func (s *speakCallback) Warning(*msginterfaces.WarningResponse) error   { return nil }
func (s *speakCallback) UnhandledEvent([]byte) error                    { return nil }

func (s *speakCallback) Error(e *msginterfaces.ErrorResponse) error {
	if s.onError != nil && e != nil {
		s.onError(e.ErrCode, e.Description)
	}
	return nil
}

func (s *speakCallback) Binary(byMsg []byte) error {
	if s.onBinary != nil {
		return s.onBinary(byMsg)
	}
	return nil
}
