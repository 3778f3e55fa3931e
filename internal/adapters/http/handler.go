package httpadapter

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/rddesigner/GoogleAI-Rita-Das-Smart-Interview-Assistant/internal/app/interview"
	"github.com/rddesigner/GoogleAI-Rita-Das-Smart-Interview-Assistant/internal/domain"
)

type Server struct {
	svc *interview.Service
}

// NewServer builds the echo server with every route mapped 1:1 to one
// controller operation.
func NewServer(svc *interview.Service) *echo.Echo {
	s := &Server{svc: svc}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(requestID())

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	api := e.Group("/api")
	api.POST("/sessions", s.createSession)
	api.GET("/sessions/:id", s.getSession)
	api.DELETE("/sessions/:id", s.closeSession)
	api.POST("/sessions/:id/resume", s.uploadResume)
	api.POST("/sessions/:id/answers", s.submitAnswer)
	api.POST("/sessions/:id/listening", s.startListening)
	api.DELETE("/sessions/:id/listening", s.stopListening)
	api.POST("/sessions/:id/messages/:messageID/analysis", s.requestAnalysis)
	api.DELETE("/sessions/:id/analysis", s.closeAnalysis)
	api.GET("/sessions/:id/events", s.streamEvents)
	api.GET("/sessions/:id/audio", s.ingestAudio)

	return e
}

// ─────────────────────────────────────────────
// DTOs (request/response)
// ─────────────────────────────────────────────

type messageResponse struct {
	ID               int64     `json:"id"`
	Role             string    `json:"role"`
	Text             string    `json:"text"`
	QuestionContext  string    `json:"question_context,omitempty"`
	AnalysisInFlight bool      `json:"analysis_in_flight"`
	CreatedAt        time.Time `json:"created_at"`
}

type sessionResponse struct {
	ID           string            `json:"id"`
	Phase        string            `json:"phase"`
	Conversation []messageResponse `json:"conversation"`
	PendingInput string            `json:"pending_input"`
	Listening    bool              `json:"listening"`
	Countdown    int               `json:"countdown"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

type segmentResponse struct {
	Text       string `json:"text"`
	IsError    bool   `json:"is_error"`
	Correction string `json:"correction"`
}

type analysisResponse struct {
	Kind       string            `json:"kind"`
	MessageID  int64             `json:"message_id"`
	Segments   []segmentResponse `json:"segments,omitempty"`
	Suggestion string            `json:"suggestion,omitempty"`
	Error      string            `json:"error,omitempty"`
}

type submitAnswerRequest struct {
	Text string `json:"text"`
}

type analysisRequest struct {
	Kind string `json:"kind"`
}

// ─────────────────────────────────────────────
// Handlers
// ─────────────────────────────────────────────

func (s *Server) createSession(c echo.Context) error {
	session, err := s.svc.CreateSession(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	snap, err := s.svc.GetSnapshot(c.Request().Context(), session.ID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, toSessionResponse(snap))
}

func (s *Server) getSession(c echo.Context) error {
	snap, err := s.svc.GetSnapshot(c.Request().Context(), sessionID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toSessionResponse(snap))
}

func (s *Server) closeSession(c echo.Context) error {
	if err := s.svc.CloseSession(c.Request().Context(), sessionID(c)); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) uploadResume(c echo.Context) error {
	file, err := c.FormFile("resume")
	if err != nil {
		return badRequest(c, "multipart field 'resume' is required")
	}

	src, err := file.Open()
	if err != nil {
		return writeError(c, err)
	}
	defer src.Close()

	fileBytes, err := io.ReadAll(src)
	if err != nil {
		return writeError(c, err)
	}

	mimeType := file.Header.Get(echo.HeaderContentType)
	if err := s.svc.UploadResume(c.Request().Context(), sessionID(c), mimeType, fileBytes); err != nil {
		return writeError(c, err)
	}

	snap, err := s.svc.GetSnapshot(c.Request().Context(), sessionID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toSessionResponse(snap))
}

func (s *Server) submitAnswer(c echo.Context) error {
	var req submitAnswerRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid JSON body")
	}

	if err := s.svc.SubmitAnswer(c.Request().Context(), sessionID(c), req.Text); err != nil {
		return writeError(c, err)
	}

	snap, err := s.svc.GetSnapshot(c.Request().Context(), sessionID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toSessionResponse(snap))
}

func (s *Server) startListening(c echo.Context) error {
	if err := s.svc.StartListening(c.Request().Context(), sessionID(c)); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusAccepted)
}

func (s *Server) stopListening(c echo.Context) error {
	if err := s.svc.StopListening(c.Request().Context(), sessionID(c)); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) requestAnalysis(c echo.Context) error {
	messageID, err := strconv.ParseInt(c.Param("messageID"), 10, 64)
	if err != nil {
		return badRequest(c, "invalid message id")
	}

	var req analysisRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid JSON body")
	}

	var kind domain.AnalysisKind
	switch req.Kind {
	case string(domain.AnalysisMistakes):
		kind = domain.AnalysisMistakes
	case string(domain.AnalysisSuggestion):
		kind = domain.AnalysisSuggestion
	default:
		return badRequest(c, "kind must be 'mistakes' or 'suggestion'")
	}

	result, err := s.svc.RequestAnalysis(c.Request().Context(), sessionID(c), messageID, kind)
	if err != nil {
		return writeError(c, err)
	}
	if result == nil {
		// No question context on the target message: nothing happened.
		return c.NoContent(http.StatusNoContent)
	}
	return c.JSON(http.StatusOK, toAnalysisResponse(result))
}

func (s *Server) closeAnalysis(c echo.Context) error {
	if err := s.svc.CloseAnalysis(c.Request().Context(), sessionID(c)); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ─────────────────────────────────────────────
// Mapping helpers
// ─────────────────────────────────────────────

func sessionID(c echo.Context) domain.SessionID {
	return domain.SessionID(c.Param("id"))
}

func toSessionResponse(snap *interview.Snapshot) sessionResponse {
	msgs := make([]messageResponse, 0, len(snap.Session.Conversation))
	for _, m := range snap.Session.Conversation {
		msgs = append(msgs, toMessageResponse(m))
	}
	return sessionResponse{
		ID:           string(snap.Session.ID),
		Phase:        string(snap.Session.Phase),
		Conversation: msgs,
		PendingInput: snap.Session.PendingInput,
		Listening:    snap.Listening,
		Countdown:    snap.Countdown,
		CreatedAt:    snap.Session.CreatedAt,
		UpdatedAt:    snap.Session.UpdatedAt,
	}
}

func toMessageResponse(m *domain.Message) messageResponse {
	return messageResponse{
		ID:               m.ID,
		Role:             string(m.Role),
		Text:             m.Text,
		QuestionContext:  m.QuestionContext,
		AnalysisInFlight: m.AnalysisInFlight,
		CreatedAt:        m.CreatedAt,
	}
}

func toAnalysisResponse(r *domain.AnalysisResult) analysisResponse {
	segments := make([]segmentResponse, 0, len(r.Segments))
	for _, seg := range r.Segments {
		segments = append(segments, segmentResponse{
			Text:       seg.Text,
			IsError:    seg.IsError,
			Correction: seg.Correction,
		})
	}
	return analysisResponse{
		Kind:       string(r.Kind),
		MessageID:  r.MessageID,
		Segments:   segments,
		Suggestion: r.Suggestion,
		Error:      r.ErrorText,
	}
}

// ─────────────────────────────────────────────
// Error helpers
// ─────────────────────────────────────────────

func writeError(c echo.Context, err error) error {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidFormat):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrNotReady), errors.Is(err, domain.ErrSessionExists):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrUnsupported):
		status = http.StatusUnprocessableEntity
	}

	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal server error"
	}
	return c.JSON(status, map[string]string{"error": msg})
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, map[string]string{"error": msg})
}
