package dispatch

// Outcome classifies a completed send for the notification log.
type Outcome string

const (
	OutcomeSent      Outcome = "sent"
	OutcomeDisabled  Outcome = "disabled"
	OutcomeTransport Outcome = "transport_error"
	OutcomeRender    Outcome = "render_failure"
	OutcomeTimeout   Outcome = "timeout"
	OutcomeCanceled  Outcome = "canceled"
)

// Result is the typed outcome of one delivery. Logging is layered on top
// of it, not a substitute for it.
type Result struct {
	OK      bool
	Outcome Outcome
	Err     error
}

// Bus event types emitted by the dispatcher.
const (
	EventQueued  = "dispatch.queued"
	EventDropped = "dispatch.dropped"
	EventSent    = "dispatch.sent"
	EventFailed  = "dispatch.failed"
)
