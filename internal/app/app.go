// Package app wires the bot together and owns its lifecycle.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"

	"flydealsbot/internal/bot"
	"flydealsbot/internal/catalog"
	"flydealsbot/internal/config"
	"flydealsbot/internal/dialog"
	"flydealsbot/internal/notify"
	"flydealsbot/internal/poller"
	"flydealsbot/internal/storage"
	"flydealsbot/internal/transport"
	"flydealsbot/internal/transport/telegram"
	"flydealsbot/pkg/logx"
)

type App struct {
	cfg     config.Config
	cfgPath string

	logSvc *logx.Service
	log    logx.Logger

	store   storage.Store
	adapter transport.Adapter
	router  *bot.Router
	sched   *poller.Scheduler

	updates chan transport.Update
	cancel  context.CancelFunc
	done    chan struct{}
}

func New(cfgPath string) (*App, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}

	logSvc, log := logx.New(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File:    logx.FileConfig(cfg.Logging.File),
	})

	store, err := storage.Open(storage.Config{
		Path:        cfg.Storage.Path,
		BusyTimeout: cfg.Storage.BusyTimeout.Std(),
	}, log.With(logx.String("comp", "storage")))
	if err != nil {
		_ = logSvc.Close()
		return nil, fmt.Errorf("open storage: %w", err)
	}

	gw, err := catalog.NewClient(catalog.Config{
		BaseURL: cfg.Catalog.BaseURL,
		Timeout: cfg.Catalog.Timeout.Std(),
	})
	if err != nil {
		_ = store.Close()
		_ = logSvc.Close()
		return nil, err
	}

	adapter, err := telegram.New(telegram.Config{
		Token:       cfg.Telegram.Token,
		PollTimeout: cfg.Telegram.PollTimeout.Std(),
	}, log.With(logx.String("comp", "telegram")))
	if err != nil {
		_ = store.Close()
		_ = logSvc.Close()
		return nil, err
	}

	engine := dialog.NewEngine(gw, store, adapter, cfg.Poll.PageSize,
		log.With(logx.String("comp", "dialog")))
	router := bot.NewRouter(engine, gw, store, adapter, cfg.Poll.PageSize,
		log.With(logx.String("comp", "router")))

	dispatcher := notify.NewDispatcher(notify.Config{RatePerSec: cfg.Poll.SendRatePerSec},
		adapter, store, log.With(logx.String("comp", "notify")))

	sched := poller.NewScheduler(log.With(logx.String("comp", "poller")))
	newDeals := poller.NewNewDealsJob(gw, store, dispatcher, log.With(logx.String("job", "new_deals")))
	alerts := poller.NewAlertsJob(gw, store, dispatcher, log.With(logx.String("job", "price_alerts")))
	retention := poller.NewRetentionJob(store,
		time.Duration(cfg.Poll.RetentionDays)*24*time.Hour,
		log.With(logx.String("job", "retention")))

	if err := sched.AddInterval("new_deals", cfg.Poll.NewDealsInterval.Std(), newDeals.Run); err != nil {
		_ = store.Close()
		_ = logSvc.Close()
		return nil, err
	}
	if err := sched.AddInterval("price_alerts", cfg.Poll.PriceAlertsInterval.Std(), alerts.Run); err != nil {
		_ = store.Close()
		_ = logSvc.Close()
		return nil, err
	}
	if err := sched.AddDaily("retention_sweep", cfg.Poll.RetentionSweepAt, retention.Run); err != nil {
		_ = store.Close()
		_ = logSvc.Close()
		return nil, err
	}

	return &App{
		cfg:     cfg,
		cfgPath: cfgPath,
		logSvc:  logSvc,
		log:     log,
		store:   store,
		adapter: adapter,
		router:  router,
		sched:   sched,
		updates: make(chan transport.Update, 128),
		done:    make(chan struct{}),
	}, nil
}

func (a *App) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	if err := a.adapter.Start(runCtx, a.updates); err != nil {
		cancel()
		return err
	}

	if err := a.adapter.SetCommands(runCtx, commandMenu()); err != nil {
		a.log.Warn("command menu update failed", logx.Err(err))
	}

	go func() {
		defer close(a.done)
		a.router.Run(runCtx, a.updates)
	}()

	a.sched.Start(runCtx)

	// Live re-apply of dynamic settings on config edits.
	if err := config.Watch(runCtx, a.cfgPath, func(cfg config.Config) {
		a.logSvc.Apply(logx.Config{
			Level:   cfg.Logging.Level,
			Console: cfg.Logging.Console,
			File:    logx.FileConfig(cfg.Logging.File),
		})
		a.log.Info("config reloaded", logx.String("level", cfg.Logging.Level))
	}, func(err error) {
		a.log.Warn("config reload failed", logx.Err(err))
	}); err != nil {
		a.log.Warn("config watch unavailable", logx.Err(err))
	}

	_, _ = daemon.SdNotify(false, daemon.SdNotifyReady)
	a.log.Info("flydealsbot started",
		logx.String("catalog", a.cfg.Catalog.BaseURL),
		logx.Duration("new_deals_every", a.cfg.Poll.NewDealsInterval.Std()),
		logx.Duration("price_alerts_every", a.cfg.Poll.PriceAlertsInterval.Std()))
	return nil
}

func (a *App) Stop(ctx context.Context) error {
	_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)

	if a.cancel != nil {
		a.cancel()
	}
	a.sched.Stop()
	_ = a.adapter.Stop(ctx)

	select {
	case <-a.done:
	case <-ctx.Done():
	case <-time.After(3 * time.Second):
	}

	err := a.store.Close()
	a.log.Info("flydealsbot stopped")
	_ = a.logSvc.Close()
	return err
}

func commandMenu() []transport.BotCommand {
	return []transport.BotCommand{
		{Command: "deals", Description: "Browse latest deals"},
		{Command: "search", Description: "Search for specific deals"},
		{Command: "destinations", Description: "Popular destinations"},
		{Command: "alert", Description: "Set up price alerts"},
		{Command: "subscribe", Description: "Get new deal notifications"},
		{Command: "unsubscribe", Description: "Stop notifications"},
		{Command: "help", Description: "Show help"},
	}
}
