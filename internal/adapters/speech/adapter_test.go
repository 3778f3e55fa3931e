package speech

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rddesigner/GoogleAI-Rita-Das-Smart-Interview-Assistant/internal/domain"
)

type fakeSynth struct {
	mu     sync.Mutex
	spoken []domain.Utterance
	block  chan struct{} // if set, Synthesize waits for close or ctx
	errOut error
}

func (f *fakeSynth) Voices() []domain.Voice {
	return []domain.Voice{{Name: "test female voice", Vendor: "Test", Locale: "en-IN", Default: true}}
}

func (f *fakeSynth) Synthesize(ctx context.Context, u domain.Utterance) error {
	f.mu.Lock()
	f.spoken = append(f.spoken, u)
	block := f.block
	f.mu.Unlock()

	if block != nil {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-block:
		}
	}
	return f.errOut
}

func (f *fakeSynth) spokenCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.spoken)
}

type fakeRecognizer struct {
	events chan domain.RecognitionEvent

	mu      sync.Mutex
	started bool
	stopped bool
	audio   [][]byte
}

func newFakeRecognizer() *fakeRecognizer {
	return &fakeRecognizer{events: make(chan domain.RecognitionEvent, 16)}
}

func (f *fakeRecognizer) Start(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started = true
	return nil
}

func (f *fakeRecognizer) Events() <-chan domain.RecognitionEvent { return f.events }

func (f *fakeRecognizer) WriteAudio(pcm []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.audio = append(f.audio, pcm)
	return nil
}

func (f *fakeRecognizer) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = true
	return nil
}

type fakeFactory struct {
	mu      sync.Mutex
	created []*fakeRecognizer
	err     error
}

func (f *fakeFactory) NewRecognizer() (domain.Recognizer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	r := newFakeRecognizer()
	f.created = append(f.created, r)
	return r, nil
}

func (f *fakeFactory) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.created)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition never became true")
}

func testOptions() Options {
	return Options{
		Prefs:       Preferences{Locale: "en-IN", Vendor: "Test", GenderedName: "female"},
		MaxListen:   time.Second,
		IdleTimeout: time.Second,
		Tick:        5 * time.Millisecond,
	}
}

func TestSpeakUsesFixedRateAndSelectedVoice(t *testing.T) {
	synth := &fakeSynth{}
	a := NewAdapter(synth, nil, testOptions())

	if err := a.Speak(context.Background(), "hello"); err != nil {
		t.Fatalf("Speak failed: %v", err)
	}

	if synth.spokenCount() != 1 {
		t.Fatalf("expected 1 utterance, got %d", synth.spokenCount())
	}
	u := synth.spoken[0]
	if u.Rate != SpeakingRate || u.Pitch != SpeakingPitch {
		t.Fatalf("rate/pitch = %v/%v", u.Rate, u.Pitch)
	}
	if u.Voice.Name != "test female voice" {
		t.Fatalf("selected voice = %q", u.Voice.Name)
	}
}

func TestSpeakCancelsPriorUtterance(t *testing.T) {
	synth := &fakeSynth{block: make(chan struct{})}
	a := NewAdapter(synth, nil, testOptions())

	firstDone := make(chan error, 1)
	go func() { firstDone <- a.Speak(context.Background(), "first") }()
	waitFor(t, func() bool { return synth.spokenCount() == 1 })

	synth.mu.Lock()
	synth.block = nil
	synth.mu.Unlock()

	if err := a.Speak(context.Background(), "second"); err != nil {
		t.Fatalf("second Speak failed: %v", err)
	}

	select {
	case err := <-firstDone:
		// Superseded utterances resolve without error.
		if err != nil {
			t.Fatalf("cancelled Speak returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("first Speak never resolved")
	}
}

func TestSpeakWithoutSynthesizerIsNoOp(t *testing.T) {
	a := NewAdapter(nil, nil, testOptions())
	if err := a.Speak(context.Background(), "hello"); err != nil {
		t.Fatalf("Speak without synthesizer = %v", err)
	}
}

func TestListenUnsupportedWithoutRecognizer(t *testing.T) {
	a := NewAdapter(nil, nil, testOptions())
	if err := a.Listen(context.Background(), domain.ListenHooks{}); !errors.Is(err, domain.ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}

	factory := &fakeFactory{err: domain.ErrUnsupported}
	a = NewAdapter(nil, factory, testOptions())
	if err := a.Listen(context.Background(), domain.ListenHooks{}); !errors.Is(err, domain.ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported from factory, got %v", err)
	}
}

func TestListenWhileListeningIsNoOp(t *testing.T) {
	factory := &fakeFactory{}
	a := NewAdapter(nil, factory, testOptions())

	done := make(chan error, 1)
	go func() { done <- a.Listen(context.Background(), domain.ListenHooks{}) }()
	waitFor(t, a.Listening)

	// Re-entrant call returns immediately without a second session.
	if err := a.Listen(context.Background(), domain.ListenHooks{}); err != nil {
		t.Fatalf("re-entrant Listen = %v", err)
	}
	if factory.count() != 1 {
		t.Fatalf("expected 1 recognizer, got %d", factory.count())
	}

	a.StopListening()
	if err := <-done; err != nil {
		t.Fatalf("Listen returned %v", err)
	}
	if a.Listening() {
		t.Fatal("still listening after stop")
	}
}

func TestListenStopsWhenCountdownExpires(t *testing.T) {
	factory := &fakeFactory{}
	opts := testOptions()
	opts.MaxListen = 50 * time.Millisecond // ten ticks
	a := NewAdapter(nil, factory, opts)

	var mu sync.Mutex
	var ticks []int
	hooks := domain.ListenHooks{OnCountdown: func(left int) {
		mu.Lock()
		ticks = append(ticks, left)
		mu.Unlock()
	}}

	start := time.Now()
	if err := a.Listen(context.Background(), hooks); err != nil {
		t.Fatalf("Listen returned %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("countdown expiry took %v", elapsed)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(ticks) == 0 || ticks[len(ticks)-1] != 0 {
		t.Fatalf("countdown ticks = %v, want final 0", ticks)
	}
	for i := 1; i < len(ticks)-1; i++ {
		if ticks[i] >= ticks[i-1] {
			t.Fatalf("countdown not decreasing: %v", ticks)
		}
	}
}

func TestListenStopsAfterSilenceTimeout(t *testing.T) {
	factory := &fakeFactory{}
	opts := testOptions()
	opts.MaxListen = 10 * time.Second
	opts.Tick = 100 * time.Millisecond
	opts.IdleTimeout = 30 * time.Millisecond
	a := NewAdapter(nil, factory, opts)

	done := make(chan error, 1)
	go func() { done <- a.Listen(context.Background(), domain.ListenHooks{}) }()
	waitFor(t, func() bool { return factory.count() == 1 })
	rec := factory.created[0]

	// The silence timer arms on the first event, then nothing follows.
	rec.events <- domain.RecognitionEvent{Transcript: "hello"}

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Listen returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("silence timeout never fired")
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if !rec.stopped {
		t.Fatal("recognizer not stopped on teardown")
	}
}

func TestListenCombinesFinalizedAndInterimTranscripts(t *testing.T) {
	factory := &fakeFactory{}
	opts := testOptions()
	opts.MaxListen = 10 * time.Second
	opts.Tick = time.Second
	a := NewAdapter(nil, factory, opts)

	var mu sync.Mutex
	var combined []string
	hooks := domain.ListenHooks{OnInterim: func(text string) {
		mu.Lock()
		combined = append(combined, text)
		mu.Unlock()
	}}

	done := make(chan error, 1)
	go func() { done <- a.Listen(context.Background(), hooks) }()
	waitFor(t, func() bool { return factory.count() == 1 })
	rec := factory.created[0]

	rec.events <- domain.RecognitionEvent{Transcript: "good"}
	rec.events <- domain.RecognitionEvent{Transcript: "good morning", Final: true}
	rec.events <- domain.RecognitionEvent{Transcript: "every"}
	rec.events <- domain.RecognitionEvent{Transcript: "everyone", Final: true}

	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(combined) == 4
	})
	a.StopListening()
	<-done

	mu.Lock()
	defer mu.Unlock()
	want := []string{"good", "good morning", "good morning every", "good morning everyone"}
	for i := range want {
		if combined[i] != want[i] {
			t.Fatalf("combined[%d] = %q, want %q", i, combined[i], want[i])
		}
	}
}

func TestListenRejectsWithPlatformError(t *testing.T) {
	factory := &fakeFactory{}
	opts := testOptions()
	opts.MaxListen = 10 * time.Second
	opts.Tick = time.Second
	a := NewAdapter(nil, factory, opts)

	done := make(chan error, 1)
	go func() { done <- a.Listen(context.Background(), domain.ListenHooks{}) }()
	waitFor(t, func() bool { return factory.count() == 1 })

	factory.created[0].events <- domain.RecognitionEvent{Err: &domain.RecognitionError{Code: "not-allowed"}}

	err := <-done
	var recErr *domain.RecognitionError
	if !errors.As(err, &recErr) {
		t.Fatalf("expected RecognitionError, got %v", err)
	}
	if !recErr.PermissionDenied() {
		t.Fatalf("expected permission denial for code %q", recErr.Code)
	}
	if a.Listening() {
		t.Fatal("still listening after error")
	}
}

func TestWriteAudioDroppedOutsideListening(t *testing.T) {
	factory := &fakeFactory{}
	a := NewAdapter(nil, factory, testOptions())

	if err := a.WriteAudio([]byte{1, 2}); err != nil {
		t.Fatalf("WriteAudio while idle = %v", err)
	}
	if factory.count() != 0 {
		t.Fatal("idle WriteAudio must not create a recognizer")
	}

	done := make(chan error, 1)
	go func() { done <- a.Listen(context.Background(), domain.ListenHooks{}) }()
	waitFor(t, a.Listening)

	if err := a.WriteAudio([]byte{3, 4}); err != nil {
		t.Fatalf("WriteAudio while listening = %v", err)
	}
	rec := factory.created[0]
	waitFor(t, func() bool {
		rec.mu.Lock()
		defer rec.mu.Unlock()
		return len(rec.audio) == 1
	})

	a.StopListening()
	<-done
}

func TestStreamRecognizerErrorMessageNeverBlocksAfterStop(t *testing.T) {
	r := &streamRecognizer{
		events: make(chan domain.RecognitionEvent, 1),
		audio:  make(chan []byte, 1),
		stopCh: make(chan struct{}),
	}
	// Fill the buffer so a plain send would block, then stop the session
	// as the adapter does on teardown.
	r.events <- domain.RecognitionEvent{Transcript: "buffered"}
	if err := r.Stop(); err != nil {
		t.Fatalf("Stop returned %v", err)
	}

	done := make(chan bool, 1)
	go func() {
		done <- r.processMessage([]byte(`{"type":"Error","error":"not-allowed"}`))
	}()

	select {
	case ended := <-done:
		if !ended {
			t.Fatal("an Error message must end the read loop")
		}
	case <-time.After(time.Second):
		t.Fatal("processMessage blocked on a full events buffer")
	}
}

func TestStreamFactoryUnsupportedWithoutCredentials(t *testing.T) {
	if _, err := NewStreamFactory("", "", "en-IN").NewRecognizer(); !errors.Is(err, domain.ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
	if _, err := NewStreamFactory("wss://stt.example/v3/ws", "", "en-IN").NewRecognizer(); !errors.Is(err, domain.ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported without key, got %v", err)
	}
	if _, err := NewStreamFactory("wss://stt.example/v3/ws", "key", "en-IN").NewRecognizer(); err != nil {
		t.Fatalf("expected recognizer, got %v", err)
	}
}
