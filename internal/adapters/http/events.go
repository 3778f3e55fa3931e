package httpadapter

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/rddesigner/GoogleAI-Rita-Das-Smart-Interview-Assistant/internal/domain"
	"github.com/rddesigner/GoogleAI-Rita-Das-Smart-Interview-Assistant/internal/observability"
)

// eventPayload is the SSE data body. Exactly one payload field is set,
// matching the event name.
type eventPayload struct {
	Phase     string            `json:"phase,omitempty"`
	Message   *messageResponse  `json:"message,omitempty"`
	Interim   *string           `json:"interim,omitempty"`
	Countdown *int              `json:"countdown,omitempty"`
	Notice    string            `json:"notice,omitempty"`
	Analysis  *analysisResponse `json:"analysis,omitempty"`
}

func toEventPayload(ev domain.Event) eventPayload {
	var p eventPayload
	switch ev.Kind {
	case domain.EventPhase:
		p.Phase = string(ev.Phase)
	case domain.EventMessage:
		m := toMessageResponse(ev.Message)
		p.Message = &m
	case domain.EventInterim:
		interim := ev.Interim
		p.Interim = &interim
	case domain.EventCountdown:
		countdown := ev.Countdown
		p.Countdown = &countdown
	case domain.EventNotice:
		p.Notice = ev.Notice
	case domain.EventAnalysis:
		a := toAnalysisResponse(ev.Analysis)
		p.Analysis = &a
	}
	return p
}

// streamEvents is the publish/subscribe contract for UI consumers: an SSE
// stream of the session's state-change events. Every write is a complete
// event/data pair. The stream ends when the client disconnects or the
// session goes away.
func (s *Server) streamEvents(c echo.Context) error {
	id := sessionID(c)

	events := make(chan domain.Event, 64)
	unsubscribe, err := s.svc.Subscribe(id, func(ev domain.Event) {
		// Never block the controller flow on a slow consumer.
		select {
		case events <- ev:
		default:
		}
	})
	if err != nil {
		return writeError(c, err)
	}
	defer unsubscribe()

	w := c.Response()
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	w.Flush()

	ctx := c.Request().Context()
	keepalive := time.NewTicker(15 * time.Second)
	defer keepalive.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-keepalive.C:
			// Comment line keeps intermediaries from timing out, and the
			// snapshot probe detects a closed session.
			if _, err := s.svc.GetSnapshot(ctx, id); err != nil {
				return nil
			}
			fmt.Fprint(w, ": keepalive\n\n")
			w.Flush()

		case ev := <-events:
			data, err := json.Marshal(toEventPayload(ev))
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Kind, data)
			w.Flush()
		}
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// ingestAudio accepts binary PCM frames over a WebSocket and forwards them
// into the session's recognizer. Frames arriving outside a listening
// session are dropped by the speech adapter.
func (s *Server) ingestAudio(c echo.Context) error {
	id := sessionID(c)
	if _, err := s.svc.GetSnapshot(c.Request().Context(), id); err != nil {
		return writeError(c, err)
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	log := observability.LoggerFromContext(c.Request().Context()).With("session_id", id)
	log.Info("audio ingest connected")

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			log.Info("audio ingest disconnected")
			return nil
		}
		if msgType != websocket.BinaryMessage {
			continue
		}
		if err := s.svc.WriteAudio(id, data); err != nil {
			log.Error("audio forward failed", "error", err)
			return nil
		}
	}
}
