package app

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"wisdombot/internal/broadcast"
	"wisdombot/internal/config"
	"wisdombot/internal/runtime/supervisor"
	"wisdombot/internal/server"
	"wisdombot/internal/storage"
	"wisdombot/internal/task/scheduler"
	"wisdombot/internal/transport/telegram"
	logx "wisdombot/pkg/logx"
)

// broadcastSchedule names the scheduler entry that triggers the daily broadcast.
const broadcastSchedule = "daily-broadcast"

type App struct {
	cfgm *config.ConfigManager
	sup  *supervisor.Supervisor

	root logx.Logger // without comp, for component loggers
	log  logx.Logger
	logs *logx.Service

	store storage.Store
	live  *livePipeline
	disp  *broadcast.Dispatcher
	srv   *server.Server
	sched *scheduler.Service
	tg    *telegram.Adapter

	listen server.ListenConfig
}

// New loads the configuration and builds every component. Config errors are
// returned; missing secrets only disable the features that need them.
func New(ctx context.Context, cfgPath string) (*App, error) {
	cfgm := config.NewConfigManager(cfgPath)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, err
	}

	logSvc, root := logx.New(logConfig(cfg))
	log := root.With(logx.String("comp", "app"))
	a := &App{cfgm: cfgm, root: root, log: log, logs: logSvc, live: &livePipeline{}}

	st, err := storage.Open(storage.Config{
		Driver:      cfg.Storage.Driver,
		Path:        cfg.Storage.Path,
		BusyTimeout: duration("storage.busy_timeout", cfg.Storage.BusyTimeout, time.Second),
	}, root.With(logx.String("comp", "storage")))
	if err != nil {
		return nil, fmt.Errorf("storage: %w", err)
	}
	a.store = st
	if st != nil {
		log.Info("storage enabled", logx.String("driver", cfg.Storage.Driver))
	}

	p, err := buildPipeline(ctx, cfg, root)
	if err != nil {
		a.closeStore()
		return nil, err
	}
	a.live.store(p)

	channels, err := a.buildChannels(cfg)
	if err != nil {
		a.closeStore()
		return nil, err
	}
	// Interfaces stay nil when storage is off so the dispatcher skips auditing.
	var audit broadcast.AuditSink
	if a.store != nil {
		audit = a.store
	}
	a.disp = broadcast.NewDispatcher(a.live, channels, audit, root)

	a.sched = scheduler.New(scheduler.Config{
		Enabled:  cfg.Scheduler.Enabled,
		Timezone: cfg.Scheduler.Timezone,
	}, root)
	if cfg.Scheduler.Enabled {
		timeout := duration("scheduler.timeout", cfg.Scheduler.Timeout, 2*time.Minute)
		if err := a.sched.AddSchedule(broadcastSchedule, cfg.Scheduler.Broadcast, timeout, a.scheduledBroadcast); err != nil {
			a.closeStore()
			return nil, fmt.Errorf("scheduler.broadcast: %w", err)
		}
	}

	a.srv, err = server.New(server.Options{
		Dispatcher:     a.disp,
		Preview:        a.live,
		Rows:           a.live,
		Secrets:        func() []config.Secret { return a.cfgm.Get().Secrets() },
		DebugEndpoints: cfg.Server.DebugEnabled(),
		Pprof:          cfg.Server.Pprof,
		Log:            root,
	})
	if err != nil {
		a.closeStore()
		return nil, err
	}
	a.listen = server.ListenConfig{
		Addr:            cfg.Server.Addr,
		ReadTimeout:     duration("server.read_timeout", cfg.Server.ReadTimeout, 15*time.Second),
		WriteTimeout:    duration("server.write_timeout", cfg.Server.WriteTimeout, 60*time.Second),
		ShutdownTimeout: duration("server.shutdown_timeout", cfg.Server.ShutdownTimeout, 10*time.Second),
	}
	return a, nil
}

// buildChannels returns every delivery channel cfg enables. An empty Fanout
// makes each dispatch fail with broadcast.ErrNoChannel.
func (a *App) buildChannels(cfg *config.Config) (broadcast.Fanout, error) {
	var out broadcast.Fanout
	if strings.TrimSpace(cfg.Line.ChannelAccessToken) != "" {
		line, err := broadcast.NewLine(broadcast.LineConfig{
			ChannelAccessToken: cfg.Line.ChannelAccessToken,
			Timeout:            duration("line.timeout", cfg.Line.Timeout, 15*time.Second),
		}, a.root)
		if err != nil {
			return nil, err
		}
		out = append(out, line)
	} else {
		a.log.Warn("LINE channel access token not set; LINE delivery disabled")
	}

	if strings.TrimSpace(cfg.Telegram.Token) == "" {
		return out, nil
	}
	tg, err := telegram.New(telegram.Config{
		Token:       cfg.Telegram.Token,
		PollTimeout: duration("telegram.poll_timeout", cfg.Telegram.PollTimeout, 10*time.Second),
	}, a.root)
	if err != nil {
		return nil, err
	}
	a.tg = tg

	var subs telegram.Subscriptions
	if a.store != nil {
		subs = a.store
	}
	telegram.NewCommands(subs, a.live, 0, a.root).Bind(tg)

	if a.store == nil {
		a.log.Warn("telegram bot enabled without storage; subscriptions and telegram broadcast disabled")
		return out, nil
	}
	out = append(out, broadcast.NewTelegram(tg, a.store, broadcast.TelegramConfig{
		Workers:    cfg.Telegram.Workers,
		RatePerSec: cfg.Telegram.RatePerSec,
		RetryMax:   cfg.Telegram.RetryMax,
	}, a.root))
	return out, nil
}

func (a *App) scheduledBroadcast(ctx context.Context) error {
	_, err := a.disp.Dispatch(ctx, "")
	return err
}

// Dispatcher exposes the broadcast dispatcher (used by the -once flag).
func (a *App) Dispatcher() *broadcast.Dispatcher { return a.disp }

// ShutdownTimeout is the configured grace period for Stop.
func (a *App) ShutdownTimeout() time.Duration { return a.listen.ShutdownTimeout }

// Done is closed when the app supervisor context is canceled (fatal error or Stop()).
func (a *App) Done() <-chan struct{} {
	if a.sup == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return a.sup.Context().Done()
}

func (a *App) Err() error {
	if a.sup == nil {
		return nil
	}
	return a.sup.Err()
}

// Wait blocks until ctx is done or the supervisor stops on its own. Both
// channels close on a signal, so the reason comes from the supervisor error.
func (a *App) Wait(ctx context.Context) StopReason {
	select {
	case <-ctx.Done():
	case <-a.Done():
	}
	if a.Err() != nil {
		return StopFatalError
	}
	return StopSignal
}

// Start launches the HTTP server, the telegram poller, the scheduler and the
// config watcher under one supervisor.
func (a *App) Start(ctx context.Context) error {
	a.sup = supervisor.New(ctx, supervisor.WithLogger(a.log), supervisor.WithCancelOnError(true))

	a.cfgm.SetLogger(a.root.With(logx.String("comp", "config")))
	a.cfgm.SetValidator(func(c context.Context, cfg *config.Config) error {
		// Reject a reload whose collaborators cannot be built.
		_, err := buildPipeline(c, cfg, logx.Nop())
		return err
	})

	a.sup.Go("http", func(c context.Context) error {
		return a.srv.Serve(c, a.listen)
	})
	if a.tg != nil {
		a.sup.GoRestart("telegram.poll", a.tg.Run, supervisor.WithRestartBackoff(time.Second, time.Minute))
	}
	a.sched.Start(a.sup.Context())
	for _, s := range a.sched.Schedules() {
		a.log.Info("broadcast scheduled", logx.String("name", s.Name), logx.String("spec", s.Spec), logx.String("tz", a.sched.Location().String()))
	}

	sub := a.cfgm.Subscribe(8)
	a.sup.Go("config.reload", func(c context.Context) error {
		defer a.cfgm.Unsubscribe(sub)
		a.reloadLoop(c, sub)
		return nil
	})
	a.sup.Go("config.watch", a.cfgm.Watch)

	a.log.Info("app started", logx.String("addr", a.listen.Addr), logx.Bool("telegram", a.tg != nil), logx.Bool("storage", a.store != nil))
	return nil
}

func (a *App) reloadLoop(ctx context.Context, sub <-chan *config.Config) {
	lastApplied := a.cfgm.Get()
	for {
		var newCfg *config.Config
		select {
		case <-ctx.Done():
			return
		case c, ok := <-sub:
			if !ok {
				return
			}
			newCfg = c
		}
		// Coalesce bursts: keep only the latest config.
	drain:
		for {
			select {
			case newer := <-sub:
				if newer != nil {
					newCfg = newer
				}
			default:
				break drain
			}
		}
		a.applyConfig(ctx, lastApplied, newCfg)
		lastApplied = newCfg
	}
}

// applyConfig applies logging and selection changes live. Sections that need
// a restart are only reported.
func (a *App) applyConfig(ctx context.Context, oldCfg, newCfg *config.Config) {
	sections, attrs := config.SummarizeConfigChange(oldCfg, newCfg)
	if len(sections) == 0 {
		a.log.Debug("config reload received, but no effective changes detected")
		return
	}

	a.logs.Apply(logConfig(newCfg))

	if slices.Contains(sections, "sheets") || slices.Contains(sections, "generator") || slices.Contains(sections, "rotation") {
		if p, err := buildPipeline(ctx, newCfg, a.root); err != nil {
			a.log.Warn("selection config invalid; keeping previous", logx.Err(err))
		} else {
			a.live.store(p)
			a.log.Info("selection pipeline rebuilt")
		}
	}
	if config.NeedsRestart(sections) {
		a.log.Warn("config changed in sections that need a restart", logx.String("changed", strings.Join(sections, ",")))
	}

	fields := append([]logx.Field{logx.String("changed", strings.Join(sections, ","))}, attrs...)
	a.log.Info("config reloaded", fields...)
}

// Stop shuts components down in order, each step bounded so one component
// can't stall the whole stop.
func (a *App) Stop(ctx context.Context, reason StopReason) error {
	if a.sup == nil {
		a.closeStore()
		return nil
	}
	a.log.Info("stopping", logx.String("reason", string(reason)))
	a.sup.Cancel()

	step := func(name string, max time.Duration, fn func(context.Context) error) {
		start := time.Now()
		stepCtx, cancel := context.WithTimeout(ctx, max)
		defer cancel()

		done := make(chan error, 1)
		go func() {
			defer func() {
				if r := recover(); r != nil {
					done <- fmt.Errorf("panic in stop step %s: %v", name, r)
				}
			}()
			done <- fn(stepCtx)
		}()

		select {
		case err := <-done:
			if err != nil {
				a.log.Warn("stop step error", logx.String("name", name), logx.Err(err))
			}
			a.log.Debug("stop step end", logx.String("name", name), logx.Duration("took", time.Since(start)))
		case <-stepCtx.Done():
			a.log.Warn("stop step deadline reached (continuing)", logx.String("name", name), logx.Duration("elapsed", time.Since(start)))
		}
	}

	step("scheduler", 3*time.Second, func(c context.Context) error { a.sched.Stop(c); return nil })
	// The HTTP server drains in-flight requests within its own shutdown timeout.
	step("supervisor", a.listen.ShutdownTimeout+2*time.Second, a.sup.Wait)
	step("storage", time.Second, func(context.Context) error { return a.closeStoreErr() })

	a.log.Info("stopped")
	if a.logs != nil {
		_ = a.logs.Close()
	}
	return nil
}

func (a *App) closeStore() { _ = a.closeStoreErr() }

func (a *App) closeStoreErr() error {
	if a.store == nil {
		return nil
	}
	st := a.store
	a.store = nil
	return st.Close()
}

func logConfig(cfg *config.Config) logx.Config {
	return logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	}
}
