package handler

import (
	"github.com/rs/zerolog"
	"github.com/teachexamhub/examhub-backend/internal/metrics"
	"github.com/teachexamhub/examhub-backend/internal/response"
	"github.com/teachexamhub/examhub-backend/internal/service"
	"github.com/teachexamhub/examhub-backend/internal/session"
	"github.com/teachexamhub/examhub-backend/internal/validator"
	ws "github.com/teachexamhub/examhub-backend/internal/websocket"
)

type monitorUpdate struct {
	typ  service.MonitorEventType
	snap session.Snapshot
}

// sessionBridge turns session events into WebSocket messages, metrics and
// monitor updates. The session calls OnEvent under its lock, so the bridge
// never blocks: both the outbox and the feed drop when full.
type sessionBridge struct {
	out     *ws.Outbox
	feed    chan<- monitorUpdate
	log     zerolog.Logger
	started bool
}

func (b *sessionBridge) OnEvent(ev session.Event) {
	snap := ev.Snapshot
	tick := ws.TickData{RemainingSeconds: snap.RemainingSeconds, Progress: snap.Progress}

	var msg interface{}
	switch ev.Kind {
	case session.EventTick:
		msg = ws.Message{Event: ws.EventTick, Data: tick}

	case session.EventTimeWarning:
		msg = ws.Message{Event: ws.EventWarning, Data: tick}

	case session.EventFinalCountdown:
		msg = ws.Message{Event: ws.EventFinalCountdown, Data: tick}

	case session.EventPhaseChanged:
		msg = ws.Message{Event: ws.EventState, Data: snap}
		if snap.Phase == session.PhaseInProgress && !b.started {
			b.started = true
			metrics.SessionsStarted.Inc()
			b.track(service.MonitorJoined, snap)
		} else if snap.Phase != session.PhaseSubmitted {
			b.track(service.MonitorProgress, snap)
		}

	case session.EventAnswerChanged:
		msg = ws.Message{Event: ws.EventState, Data: snap}
		b.track(service.MonitorProgress, snap)

	case session.EventForcedSubmit:
		msg = ws.Message{Event: ws.EventForcedSubmit, Data: snap}

	case session.EventValidationFailed:
		msg = ws.ErrorResponse{
			Event:  ws.EventValidationError,
			Code:   response.ErrValidation,
			Error:  response.GetMessage(response.ErrValidation),
			Fields: validator.TranslateErrors(ev.Err),
		}

	case session.EventSubmitting:
		msg = ws.Message{Event: ws.EventSubmitting, Data: snap}
		trigger := metrics.TriggerManual
		if snap.Forced {
			trigger = metrics.TriggerForced
		}
		metrics.Submissions.WithLabelValues(trigger).Inc()

	case session.EventSubmitted:
		msg = ws.Message{Event: ws.EventSubmitted, Data: snap}
		b.track(service.MonitorSubmitted, snap)

	case session.EventSubmissionFailed:
		msg = ws.ErrorResponse{
			Event: ws.EventSubmissionFailed,
			Code:  response.ErrSubmissionFailed,
			Error: response.GetMessage(response.ErrSubmissionFailed),
			Data:  snap,
		}
		metrics.SubmissionFailures.Inc()
		b.log.Warn().Err(ev.Err).Msg("Submission failed")

	default:
		return
	}

	if !b.out.Send(msg) {
		b.log.Warn().Str("event", string(ev.Kind)).Msg("Outbox full or closed, dropping event")
	}
}

func (b *sessionBridge) track(typ service.MonitorEventType, snap session.Snapshot) {
	select {
	case b.feed <- monitorUpdate{typ: typ, snap: snap}:
	default:
		b.log.Warn().Str("type", string(typ)).Msg("Monitor feed full, dropping update")
	}
}
