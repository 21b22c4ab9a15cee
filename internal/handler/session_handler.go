package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/teachexamhub/examhub-backend/internal/metrics"
	"github.com/teachexamhub/examhub-backend/internal/model"
	"github.com/teachexamhub/examhub-backend/internal/response"
	"github.com/teachexamhub/examhub-backend/internal/service"
	"github.com/teachexamhub/examhub-backend/internal/session"
	ws "github.com/teachexamhub/examhub-backend/internal/websocket"
)

const (
	outboxSize    = 64
	feedSize      = 32
	trackTimeout  = 3 * time.Second
	submitTimeout = 15 * time.Second
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// PublicExamSource resolves share codes to student-facing exams.
type PublicExamSource interface {
	GetPublicExam(ctx context.Context, code string) (*model.PublicExam, error)
}

// SessionTracker receives live monitor updates.
type SessionTracker interface {
	Track(ctx context.Context, typ service.MonitorEventType, live service.LiveSession) error
}

// SessionOptions carries the session settings shared by every connection.
type SessionOptions struct {
	WarningSeconds        int
	FinalCountdownSeconds int
	AllowedOrigins        []string
}

// SessionHandler hosts one exam session per WebSocket connection.
type SessionHandler struct {
	exams     PublicExamSource
	submitter session.Submitter
	tracker   SessionTracker
	opts      SessionOptions
	log       zerolog.Logger
	upgrader  websocket.Upgrader
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(
	exams PublicExamSource,
	submitter session.Submitter,
	tracker SessionTracker,
	opts SessionOptions,
	log zerolog.Logger,
) *SessionHandler {
	return &SessionHandler{
		exams:     exams,
		submitter: submitter,
		tracker:   tracker,
		opts:      opts,
		log:       log.With().Str("component", "session_handler").Logger(),
		upgrader:  buildUpgrader(opts.AllowedOrigins),
	}
}

// ExamSession godoc
// WS /ws/v1/exams/:code/session
// Upgrades to a WebSocket that drives one student's timed attempt. The
// session lives exactly as long as the connection.
func (h *SessionHandler) ExamSession(c *gin.Context) {
	exam, err := h.exams.GetPublicExam(c.Request.Context(), c.Param("code"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrExamNotFound):
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		case errors.Is(err, service.ErrExamNotAvailable):
			response.Fail(c, http.StatusGone, response.ErrExamNotAvailable)
		default:
			h.log.Error().Err(err).Msg("Failed to load exam for session")
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()
	conn.SetReadLimit(ws.MaxMessageSize)

	outbox := ws.NewOutbox(conn, outboxSize)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		if err := outbox.Run(); err != nil {
			conn.Close()
		}
	}()

	feed := make(chan monitorUpdate, feedSize)
	feedDone := make(chan struct{})
	go func() {
		defer close(feedDone)
		h.runFeed(feed)
	}()

	bridge := &sessionBridge{out: outbox, feed: feed}
	sess, err := session.New(&exam.ExamDefinition,
		session.WithSubmitter(h.submitter),
		session.WithObserver(bridge),
		session.WithThresholds(h.opts.WarningSeconds, h.opts.FinalCountdownSeconds),
		session.WithSubmitTimeout(submitTimeout),
	)
	if err != nil {
		h.log.Error().Err(err).Str("exam_id", exam.ID.String()).Msg("Invalid exam definition")
		outbox.Send(ws.NewError(response.ErrExamNotAvailable, ""))
		close(feed)
		outbox.Close()
		<-writerDone
		return
	}
	bridge.log = h.log.With().
		Str("session_id", sess.ID().String()).
		Str("exam_id", exam.ID.String()).
		Logger()
	wsLog := bridge.log

	metrics.ActiveSessions.Inc()
	defer metrics.ActiveSessions.Dec()
	wsLog.Info().Msg("Student connected")

	outbox.Send(ws.Message{Event: ws.EventExam, Data: exam})
	outbox.Send(ws.Message{Event: ws.EventState, Data: sess.Snapshot()})

	for {
		raw, err := ws.ReadMessage(conn)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			break
		}
		h.dispatch(sess, outbox, raw)
	}

	// Closing the session stops its timer and silences the bridge, so the
	// feed can be closed safely afterwards.
	sess.Close()
	if update, ok := h.finalUpdate(sess, bridge.started, wsLog); ok {
		feed <- update
	}
	close(feed)
	outbox.Close()
	<-writerDone
	<-feedDone

	wsLog.Info().Msg("Student disconnected")
}

// dispatch applies one client action to the session.
// finalUpdate picks the monitor update for a closed session. A submission
// still in flight is awaited, since the silenced bridge will not report it.
func (h *SessionHandler) finalUpdate(sess *session.Session, started bool, log zerolog.Logger) (monitorUpdate, bool) {
	snap := sess.Snapshot()
	if snap.Submitting {
		select {
		case <-sess.Settled():
		case <-time.After(submitTimeout + time.Second):
			log.Warn().Msg("Submission still pending at disconnect")
		}
		snap = sess.Snapshot()
		if snap.Phase == session.PhaseSubmitted && !snap.Submitting {
			return monitorUpdate{typ: service.MonitorSubmitted, snap: snap}, true
		}
		return monitorUpdate{typ: service.MonitorLeft, snap: snap}, true
	}
	if started && snap.Phase != session.PhaseSubmitted {
		return monitorUpdate{typ: service.MonitorLeft, snap: snap}, true
	}
	return monitorUpdate{}, false
}

func (h *SessionHandler) dispatch(sess *session.Session, out *ws.Outbox, raw []byte) {
	action, err := ws.PeekAction(raw)
	if err != nil {
		out.Send(ws.NewError(response.ErrInvalidPayload, err.Error()))
		return
	}

	switch action {
	case ws.ActionStart:
		var req ws.StartRequest
		if req, err = ws.DecodeStart(raw); err == nil {
			err = sess.Start(model.StudentInfo{Name: req.Name, Email: req.Email, StudentID: req.StudentID})
		}

	case ws.ActionAnswer:
		var req ws.AnswerRequest
		if req, err = ws.DecodeAnswer(raw); err == nil {
			if req.Option != nil {
				err = sess.AnswerOption(req.QuestionID, *req.Option)
			} else {
				err = sess.AnswerText(req.QuestionID, *req.Text)
			}
		}
		if err == nil {
			metrics.AnswersRecorded.Inc()
		}

	case ws.ActionClear:
		qid, derr := ws.DecodeClear(raw)
		if err = derr; err == nil {
			err = sess.ClearAnswer(qid)
		}

	case ws.ActionSubmit:
		err = sess.RequestSubmit()

	case ws.ActionCancel:
		err = sess.Cancel()

	case ws.ActionConfirm:
		err = sess.Confirm()

	case ws.ActionState:
		out.Send(ws.Message{Event: ws.EventState, Data: sess.Snapshot()})

	case ws.ActionPing:
		out.Send(ws.Message{Event: ws.EventPong})

	default:
		out.Send(ws.NewError(response.ErrUnknownAction, "unknown action: "+string(action)))
	}

	// Validation failures were already reported by the session itself.
	if err != nil && !errors.Is(err, session.ErrValidation) {
		out.Send(actionError(err))
	}
}

func actionError(err error) ws.ErrorResponse {
	switch {
	case errors.Is(err, session.ErrInvalidTransition):
		return ws.NewError(response.ErrSessionPhase, "")
	case errors.Is(err, session.ErrUnknownQuestion):
		return ws.NewError(response.ErrUnknownQuestion, "")
	case errors.Is(err, session.ErrWrongAnswerType),
		errors.Is(err, session.ErrOptionOutOfRange),
		errors.Is(err, ws.ErrAnswerValue):
		return ws.NewError(response.ErrInvalidAnswer, err.Error())
	case errors.Is(err, session.ErrForcedSubmission):
		return ws.NewError(response.ErrTimeExpired, "")
	case errors.Is(err, session.ErrClosed):
		return ws.NewError(response.ErrSessionClosed, "")
	case errors.Is(err, ws.ErrMalformed),
		errors.Is(err, ws.ErrMissingQID),
		errors.Is(err, ws.ErrInvalidQID):
		return ws.NewError(response.ErrInvalidPayload, err.Error())
	default:
		return ws.NewError(response.ErrInternal, "")
	}
}

// runFeed forwards monitor updates to the tracker until feed is closed.
func (h *SessionHandler) runFeed(feed <-chan monitorUpdate) {
	for u := range feed {
		ctx, cancel := context.WithTimeout(context.Background(), trackTimeout)
		if err := h.tracker.Track(ctx, u.typ, liveSession(u.snap)); err != nil {
			h.log.Warn().Err(err).Str("session_id", u.snap.SessionID.String()).Msg("Failed to track session")
		}
		cancel()
	}
}

func liveSession(snap session.Snapshot) service.LiveSession {
	return service.LiveSession{
		SessionID:        snap.SessionID,
		ExamID:           snap.ExamID,
		StudentName:      snap.Student.Name,
		StudentEmail:     snap.Student.Email,
		Phase:            string(snap.Phase),
		RemainingSeconds: snap.RemainingSeconds,
		Progress:         snap.Progress,
		Forced:           snap.Forced,
		UpdatedAt:        time.Now(),
	}
}
