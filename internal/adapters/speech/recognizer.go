package speech

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rddesigner/GoogleAI-Rita-Das-Smart-Interview-Assistant/internal/domain"
	"github.com/rddesigner/GoogleAI-Rita-Das-Smart-Interview-Assistant/internal/observability"
)

// StreamFactory creates streaming speech-to-text sessions against a hosted
// recognition endpoint. Without an endpoint and key the capability is
// absent and NewRecognizer fails with ErrUnsupported.
type StreamFactory struct {
	endpoint string
	apiKey   string
	locale   string
}

func NewStreamFactory(endpoint, apiKey, locale string) *StreamFactory {
	return &StreamFactory{endpoint: endpoint, apiKey: apiKey, locale: locale}
}

func (f *StreamFactory) NewRecognizer() (domain.Recognizer, error) {
	if f == nil || f.endpoint == "" || f.apiKey == "" {
		return nil, domain.ErrUnsupported
	}
	return &streamRecognizer{
		endpoint: f.endpoint,
		apiKey:   f.apiKey,
		locale:   f.locale,
		events:   make(chan domain.RecognitionEvent, 100),
		audio:    make(chan []byte, 1000),
		stopCh:   make(chan struct{}),
	}, nil
}

// Streaming protocol messages: a session opens with Begin, transcript
// updates arrive as Turn events carrying the running transcript and an
// end-of-turn flag, and the session ends with Termination or Error.
type beginMessage struct {
	Type      string `json:"type"`
	ID        string `json:"id"`
	ExpiresAt int64  `json:"expires_at"`
}

type turnMessage struct {
	Type       string `json:"type"`
	Transcript string `json:"transcript"`
	EndOfTurn  bool   `json:"end_of_turn"`
}

type terminationMessage struct {
	Type                   string  `json:"type"`
	AudioDurationSeconds   float64 `json:"audio_duration_seconds"`
	SessionDurationSeconds float64 `json:"session_duration_seconds"`
}

type errorMessage struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

type streamRecognizer struct {
	endpoint string
	apiKey   string
	locale   string

	events chan domain.RecognitionEvent
	audio  chan []byte
	stopCh chan struct{}

	mu        sync.Mutex
	conn      *websocket.Conn
	connected bool
	stopOnce  sync.Once
}

// Start dials the recognition endpoint in continuous mode with interim
// results enabled.
func (r *streamRecognizer) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.connected {
		return nil
	}

	params := url.Values{}
	params.Set("sample_rate", "16000")
	params.Set("encoding", "pcm_s16le")
	params.Set("language", r.locale)
	params.Set("interim_results", "true")

	wsURL := fmt.Sprintf("%s?%s", r.endpoint, params.Encode())
	headers := map[string][]string{"Authorization": {r.apiKey}}
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}

	conn, resp, err := dialer.DialContext(ctx, wsURL, headers)
	if err != nil {
		if resp != nil {
			observability.Logger().Error("recognition connect failed", "status", resp.StatusCode)
		}
		return fmt.Errorf("connecting to recognition endpoint: %w", err)
	}

	r.conn = conn
	r.connected = true

	go r.readLoop()
	go r.writeLoop()
	return nil
}

func (r *streamRecognizer) Events() <-chan domain.RecognitionEvent {
	return r.events
}

// WriteAudio queues one PCM frame. Frames are dropped rather than blocking
// when the buffer is full or the session is not connected.
func (r *streamRecognizer) WriteAudio(pcm []byte) error {
	r.mu.Lock()
	connected := r.connected
	r.mu.Unlock()
	if !connected {
		return nil
	}
	select {
	case r.audio <- pcm:
	default:
		observability.Logger().Warn("audio buffer full, dropping frame")
	}
	return nil
}

// Stop terminates the platform session. Safe to call at any time, including
// before Start and more than once.
func (r *streamRecognizer) Stop() error {
	r.stopOnce.Do(func() {
		close(r.stopCh)
		r.mu.Lock()
		if r.conn != nil {
			_ = r.conn.WriteJSON(map[string]string{"type": "Terminate"})
			_ = r.conn.Close()
		}
		r.connected = false
		r.mu.Unlock()
	})
	return nil
}

// readLoop is the only closer of the events channel.
func (r *streamRecognizer) readLoop() {
	defer close(r.events)
	for {
		select {
		case <-r.stopCh:
			return
		default:
		}

		r.mu.Lock()
		conn := r.conn
		r.mu.Unlock()
		if conn == nil {
			return
		}

		_, message, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-r.stopCh: // expected after Stop
			default:
				observability.Logger().Error("recognition read failed", "error", err)
			}
			return
		}
		if done := r.processMessage(message); done {
			return
		}
	}
}

func (r *streamRecognizer) processMessage(message []byte) bool {
	var base struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(message, &base); err != nil {
		observability.Logger().Error("unparseable recognition message", "error", err)
		return false
	}

	switch base.Type {
	case "Begin":
		var msg beginMessage
		if err := json.Unmarshal(message, &msg); err == nil {
			observability.Logger().Info("recognition session began",
				"id", msg.ID, "expires_at", time.Unix(msg.ExpiresAt, 0).Format(time.RFC3339))
		}

	case "Turn":
		var msg turnMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			observability.Logger().Error("bad Turn message", "error", err)
			return false
		}
		if msg.Transcript == "" {
			return false
		}
		select {
		case r.events <- domain.RecognitionEvent{Transcript: msg.Transcript, Final: msg.EndOfTurn}:
		default:
		}

	case "Termination":
		var msg terminationMessage
		if err := json.Unmarshal(message, &msg); err == nil {
			observability.Logger().Info("recognition session terminated",
				"audio_seconds", msg.AudioDurationSeconds,
				"session_seconds", msg.SessionDurationSeconds)
		}
		return true

	case "Error":
		var msg errorMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			observability.Logger().Error("bad Error message", "error", err)
			return false
		}
		// Never block on a consumer that already went away.
		select {
		case r.events <- domain.RecognitionEvent{Err: &domain.RecognitionError{Code: msg.Error}}:
		case <-r.stopCh:
		}
		return true

	default:
		observability.Logger().Warn("unknown recognition message type", "type", base.Type)
	}
	return false
}

func (r *streamRecognizer) writeLoop() {
	for {
		select {
		case <-r.stopCh:
			return
		case pcm := <-r.audio:
			r.mu.Lock()
			conn := r.conn
			r.mu.Unlock()
			if conn == nil {
				return
			}
			if err := conn.WriteMessage(websocket.BinaryMessage, pcm); err != nil {
				observability.Logger().Error("recognition write failed", "error", err)
				return
			}
		}
	}
}
