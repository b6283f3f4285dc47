// Package app wires the process together: config, logging, storage, the
// dispatch pipeline, the HTTP surface, and the scheduled accounting jobs.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/robfig/cron/v3"

	"notibot/internal/accounting"
	"notibot/internal/attachment"
	"notibot/internal/config"
	"notibot/internal/dispatch"
	"notibot/internal/eventbus"
	"notibot/internal/runtime/supervisor"
	"notibot/internal/server"
	"notibot/internal/storage"
	"notibot/internal/tgconfig"
	"notibot/internal/transport/telegram"
	logx "notibot/pkg/logx"
)

const defaultLogRetention = 720 * time.Hour

type App struct {
	cfgMgr *config.Manager
	logSvc *logx.Service
	log    logx.Logger

	store    storage.Store
	channels *tgconfig.Store
	bus      eventbus.Bus

	dispatcher *dispatch.Dispatcher
	acct       *accounting.Service
	httpSrv    *server.Server

	sup  *supervisor.Supervisor
	cron *cron.Cron
}

func New(cfgPath string) (*App, error) {
	mgr := config.NewManager(cfgPath)
	cfg, err := mgr.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logSvc, log := logx.New(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	})
	mgr.SetLogger(log.With(logx.String("svc", "config")))

	busyTimeout, err := config.ParseDurationOrDefault("storage.busy_timeout", cfg.Storage.BusyTimeout, 5*time.Second)
	if err != nil {
		return nil, err
	}
	store, err := storage.Open(storage.Config{
		Path:        cfg.Storage.Path,
		BusyTimeout: busyTimeout,
	}, log.With(logx.String("svc", "storage")))
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	channels := tgconfig.New(store, log.With(logx.String("svc", "tgconfig")))
	bus := eventbus.New()
	client := telegram.New(log.With(logx.String("svc", "telegram")))
	resolver := attachment.NewResolver(store, log.With(logx.String("svc", "attachment")))

	dispatcher := dispatch.New(dispatch.Config{
		QueueSize:  cfg.Dispatch.QueueSize,
		Workers:    cfg.Dispatch.Workers,
		RatePerSec: cfg.Dispatch.RatePerSec,
		Burst:      cfg.Dispatch.Burst,
	}, channels, client, resolver, store, bus, log.With(logx.String("svc", "dispatch")))

	pdf := accounting.NewPDFRenderer(cfg.Accounting.PDFEndpoint, cfg.Accounting.PDFAPIKey)
	acct := accounting.New(channels, client, store, pdf, log.With(logx.String("svc", "accounting")))

	httpSrv := server.New(server.Config{Addr: cfg.Server.Addr},
		dispatcher, acct, channels, log.With(logx.String("svc", "http")))

	return &App{
		cfgMgr:     mgr,
		logSvc:     logSvc,
		log:        log,
		store:      store,
		channels:   channels,
		bus:        bus,
		dispatcher: dispatcher,
		acct:       acct,
		httpSrv:    httpSrv,
	}, nil
}

// Start brings up the background machinery and returns once the process is
// ready to accept traffic.
func (a *App) Start(ctx context.Context) error {
	a.sup = supervisor.New(ctx, supervisor.WithLogger(a.log.With(logx.String("svc", "supervisor"))))

	// Initial channel snapshot; a missing row is fine (channel disabled).
	rctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	if err := a.channels.Reload(rctx); err != nil {
		a.log.Warn("initial telegram config load incomplete", logx.Err(err))
	}
	cancel()

	a.dispatcher.Start(a.sup)

	a.sup.GoRestart("config.watch", a.cfgMgr.Watch)
	a.sup.Go("config.apply", a.applyConfigUpdates)
	a.sup.Go("http", a.httpSrv.Run)
	a.sup.Go("events", a.consumeEvents)

	if err := a.startCron(); err != nil {
		return err
	}

	if sent, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		a.log.Warn("sd_notify failed", logx.Err(err))
	} else if sent {
		a.log.Debug("sd_notify ready sent")
	}

	a.log.Info("notibot started")
	return nil
}

func (a *App) startCron() error {
	cfg := a.cfgMgr.Get()
	a.cron = cron.New()

	if expr := cfg.Accounting.DailyReportCron; expr != "" {
		_, err := a.cron.AddFunc(expr, func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			sent, total := a.acct.DailyReport(ctx, time.Now())
			a.log.Info("daily accounting report", logx.Int("sent", sent), logx.Int("recipients", total))
		})
		if err != nil {
			return fmt.Errorf("accounting.daily_report_cron: %w", err)
		}
	}

	if expr := cfg.Accounting.MonthlyReportCron; expr != "" {
		_, err := a.cron.AddFunc(expr, func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			// Any instant inside the previous month selects it.
			now := time.Now()
			sent, total := a.acct.MonthlyReport(ctx, now.AddDate(0, 0, -now.Day()))
			a.log.Info("monthly accounting report", logx.Int("sent", sent), logx.Int("recipients", total))
		})
		if err != nil {
			return fmt.Errorf("accounting.monthly_report_cron: %w", err)
		}
	}

	retention, err := config.ParseDurationOrDefault("accounting.log_retention", cfg.Accounting.LogRetention, defaultLogRetention)
	if err != nil {
		return err
	}
	_, err = a.cron.AddFunc("30 3 * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		n, err := a.store.PruneNotificationLog(ctx, time.Now().Add(-retention))
		if err != nil {
			a.log.Warn("notification log prune failed", logx.Err(err))
			return
		}
		a.log.Debug("notification log pruned", logx.Int64("removed", n))
	})
	if err != nil {
		return err
	}

	a.cron.Start()
	return nil
}

// applyConfigUpdates handles hot-reloadable settings. Only logging is hot;
// everything else needs a restart and says so.
func (a *App) applyConfigUpdates(ctx context.Context) error {
	ch := a.cfgMgr.Subscribe(4)
	defer a.cfgMgr.Unsubscribe(ch)

	for {
		select {
		case <-ctx.Done():
			return nil
		case cfg, ok := <-ch:
			if !ok || cfg == nil {
				return nil
			}
			a.logSvc.Apply(logx.Config{
				Level:   cfg.Logging.Level,
				Console: cfg.Logging.Console,
				File: logx.FileConfig{
					Enabled: cfg.Logging.File.Enabled,
					Path:    cfg.Logging.File.Path,
				},
			})
			a.log.Info("logging config applied; other sections apply on restart")
		}
	}
}

// consumeEvents drains the internal bus at debug level. Keeps the bus
// exercised even with no external subscribers attached.
func (a *App) consumeEvents(ctx context.Context) error {
	ch, unsub := a.bus.Subscribe(64)
	defer unsub()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-ch:
			if !ok {
				return nil
			}
			a.log.Debug("event",
				logx.String("type", ev.Type),
				logx.String("request_type", ev.RequestType),
				logx.String("correlation_id", ev.CorrelationID),
				logx.String("outcome", ev.Outcome))
		}
	}
}

// Stop shuts everything down in reverse order of startup.
func (a *App) Stop(ctx context.Context) error {
	if a.cron != nil {
		cronCtx := a.cron.Stop()
		select {
		case <-cronCtx.Done():
		case <-ctx.Done():
		}
	}

	var err error
	if a.sup != nil {
		sctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		err = a.sup.Stop(sctx)
		cancel()
	}

	if cerr := a.store.Close(); cerr != nil && err == nil {
		err = cerr
	}
	_ = a.logSvc.Close()
	return err
}
