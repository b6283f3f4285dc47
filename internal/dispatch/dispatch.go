// Package dispatch delivers formatted notifications to the general admin
// channel.
//
// Send is the synchronous core: it never panics, returns false instead of
// erroring, makes exactly one transport attempt per message, and gives the
// whole operation a 10 second budget. Notify is the async front door used
// by the ingestion server: a bounded queue drained by a small worker pool.
package dispatch

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"notibot/internal/attachment"
	"notibot/internal/eventbus"
	"notibot/internal/markup"
	"notibot/internal/render"
	"notibot/internal/request"
	"notibot/internal/runtime/supervisor"
	"notibot/internal/storage"
	"notibot/internal/tgconfig"
	"notibot/internal/transport"
	logx "notibot/pkg/logx"
)

// sendTimeout bounds one complete send: config check, render, rate wait,
// transport call, attachment follow-up.
const sendTimeout = 10 * time.Second

// Config tunes the async queue. Zero values get sane defaults.
type Config struct {
	QueueSize  int
	Workers    int
	RatePerSec float64
	Burst      int
}

func (c Config) withDefaults() Config {
	if c.QueueSize <= 0 {
		c.QueueSize = 256
	}
	if c.Workers <= 0 {
		c.Workers = 2
	}
	if c.RatePerSec <= 0 {
		c.RatePerSec = 25
	}
	if c.Burst <= 0 {
		c.Burst = 5
	}
	return c
}

// Job is one queued notification.
type Job struct {
	ID            string
	Data          request.Data
	AttachmentRef string
	EnqueuedAt    time.Time
}

type Dispatcher struct {
	cfg      Config
	channels *tgconfig.Store
	client   transport.Client
	resolver *attachment.Resolver
	store    storage.Store
	bus      eventbus.Bus
	limiter  *rate.Limiter
	log      logx.Logger

	queue chan Job
}

func New(cfg Config, channels *tgconfig.Store, client transport.Client, resolver *attachment.Resolver, store storage.Store, bus eventbus.Bus, log logx.Logger) *Dispatcher {
	cfg = cfg.withDefaults()
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Dispatcher{
		cfg:      cfg,
		channels: channels,
		client:   client,
		resolver: resolver,
		store:    store,
		bus:      bus,
		limiter:  rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.Burst),
		log:      log,
	}
}

// Start launches the worker pool under the supervisor. Call once.
func (d *Dispatcher) Start(sup *supervisor.Supervisor) {
	d.queue = make(chan Job, d.cfg.QueueSize)
	for i := 0; i < d.cfg.Workers; i++ {
		d.startWorker(sup, i)
	}
}

func (d *Dispatcher) startWorker(sup *supervisor.Supervisor, n int) {
	name := "dispatch.worker." + strconv.Itoa(n)
	sup.GoRestart(name, func(ctx context.Context) error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case job := <-d.queue:
				d.Send(ctx, job.Data, job.AttachmentRef)
			}
		}
	})
}

// Notify enqueues a notification for async delivery. It never blocks; when
// the queue is full the job is dropped and false is returned.
func (d *Dispatcher) Notify(data request.Data, ref string) bool {
	job := Job{
		ID:            uuid.NewString(),
		Data:          data,
		AttachmentRef: ref,
		EnqueuedAt:    time.Now(),
	}
	select {
	case d.queue <- job:
		d.publish(EventQueued, job.ID, data, "")
		return true
	default:
		d.log.Warn("dispatch queue full, dropping",
			logx.String("type", string(data.Type)),
			logx.String("correlation_id", data.CorrelationID()))
		d.publish(EventDropped, job.ID, data, "")
		return false
	}
}

// Send delivers one notification to the general channel. It reports whether
// the text message reached the transport; it never panics and never returns
// an error. A disabled or missing channel config yields false without any
// transport call. An attachment that cannot be resolved or sent does not
// fail an otherwise delivered message.
func (d *Dispatcher) Send(ctx context.Context, data request.Data, ref string) bool {
	return d.Deliver(ctx, data, ref).OK
}

// Deliver is Send with the classified outcome exposed.
func (d *Dispatcher) Deliver(ctx context.Context, data request.Data, ref string) (res Result) {
	started := time.Now()
	res = Result{Outcome: OutcomeRender}

	defer func() {
		if r := recover(); r != nil {
			d.log.Error("dispatch send panicked",
				logx.String("type", string(data.Type)), logx.Any("panic", r))
			res = Result{Outcome: OutcomeRender}
		}
		d.record(data, res, time.Since(started))
	}()

	ch := d.channels.Get(tgconfig.GeneralID)
	if !ch.Ready() {
		d.log.Debug("general channel not configured, skipping",
			logx.String("type", string(data.Type)))
		res = Result{Outcome: OutcomeDisabled}
		return res
	}

	text := render.Format(data)
	kb := markup.Build(data)

	sctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	if err := d.limiter.Wait(sctx); err != nil {
		res = Result{Outcome: OutcomeCanceled, Err: err}
		return res
	}

	target := transport.Target{Token: ch.BotToken, ChatID: ch.AdminChatID}
	if err := d.client.SendMessage(sctx, target, transport.Message{Text: text, Markup: kb}); err != nil {
		d.log.Error("notification send failed",
			logx.String("type", string(data.Type)),
			logx.String("correlation_id", data.CorrelationID()),
			logx.Err(err))
		outcome := OutcomeTransport
		if errors.Is(err, context.DeadlineExceeded) {
			outcome = OutcomeTimeout
		}
		res = Result{Outcome: outcome, Err: err}
		return res
	}
	res = Result{OK: true, Outcome: OutcomeSent}

	d.sendAttachment(sctx, target, data, ref)

	d.log.Info("notification sent",
		logx.String("type", string(data.Type)),
		logx.String("correlation_id", data.CorrelationID()),
		logx.Duration("took", time.Since(started)))
	return res
}

// sendAttachment is best effort: the message already went out, so failures
// here are logged and swallowed.
func (d *Dispatcher) sendAttachment(ctx context.Context, target transport.Target, data request.Data, ref string) {
	if ref == "" {
		return
	}
	parsed := attachment.Parse(ref)
	caption := render.AttachmentCaption(data.Language)

	var doc transport.Document
	switch parsed.Kind {
	case attachment.KindURL:
		doc = transport.Document{URL: parsed.URL, Caption: caption}
	case attachment.KindByID:
		f := d.resolver.Resolve(ctx, parsed)
		if f == nil {
			d.log.Warn("attachment unresolved, message sent without it",
				logx.String("ref", ref),
				logx.String("correlation_id", data.CorrelationID()))
			return
		}
		doc = transport.Document{Name: f.Name, MIME: f.MIME, Data: f.Data, Caption: caption}
	default:
		d.log.Warn("attachment reference malformed, ignoring", logx.String("ref", ref))
		return
	}

	if err := d.client.SendDocument(ctx, target, doc); err != nil {
		d.log.Warn("attachment send failed",
			logx.String("ref", ref),
			logx.String("correlation_id", data.CorrelationID()),
			logx.Err(err))
	}
}

func (d *Dispatcher) record(data request.Data, res Result, took time.Duration) {
	entry := storage.NotificationLogEntry{
		At:            time.Now(),
		Channel:       "general",
		RequestType:   string(data.Type),
		CorrelationID: data.CorrelationID(),
		Outcome:       string(res.Outcome),
		TookMS:        took.Milliseconds(),
	}
	if res.Err != nil {
		entry.Error = res.Err.Error()
	}
	lctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	if err := d.store.AppendNotificationLog(lctx, entry); err != nil {
		d.log.Warn("notification log append failed", logx.Err(err))
	}
	cancel()

	evType := EventSent
	if res.Outcome != OutcomeSent {
		evType = EventFailed
	}
	d.publish(evType, "", data, res.Outcome)
}

func (d *Dispatcher) publish(evType, jobID string, data request.Data, outcome Outcome) {
	if d.bus == nil {
		return
	}
	d.bus.Publish(eventbus.Event{
		Type:          evType,
		JobID:         jobID,
		RequestType:   string(data.Type),
		CorrelationID: data.CorrelationID(),
		Outcome:       string(outcome),
	})
}
