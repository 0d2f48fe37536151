package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/robfig/cron"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/tasklist/internal/auth"
	"github.com/fyrsmithlabs/tasklist/internal/backup"
	"github.com/fyrsmithlabs/tasklist/internal/config"
	httpserver "github.com/fyrsmithlabs/tasklist/internal/http"
	"github.com/fyrsmithlabs/tasklist/internal/logging"
	"github.com/fyrsmithlabs/tasklist/internal/session"
	"github.com/fyrsmithlabs/tasklist/internal/store"
	"github.com/fyrsmithlabs/tasklist/internal/tasks"
	"github.com/fyrsmithlabs/tasklist/internal/telemetry"
)

// sessionSweepSchedule drops expired sessions from memory.
const sessionSweepSchedule = "@every 15m"

// app holds the process-wide components.
//
// newApp builds what both the server and the one-shot backup command need
// (telemetry, logger, backup job). initServer adds storage, services and the
// HTTP server on top.
type app struct {
	cfg      *config.Config
	tel      *telemetry.Telemetry
	logger   *logging.Logger
	registry *prometheus.Registry

	job *backup.Job

	store        *store.Store
	sessions     *session.Store
	scheduler    *backup.Scheduler
	housekeeping *cron.Cron
	server       *httpserver.Server
}

// newApp initializes telemetry, logging and the backup job.
//
// A nil registry gets a fresh one carrying the Go runtime and process
// collectors.
func newApp(ctx context.Context, cfg *config.Config, registry *prometheus.Registry) (*app, error) {
	tel, err := telemetry.New(ctx, telemetry.FromConfig(cfg.Observability, version))
	if err != nil {
		return nil, fmt.Errorf("initializing telemetry: %w", err)
	}

	logger, err := logging.NewLogger(logging.FromConfig(cfg.Logging), tel.LoggerProvider())
	if err != nil {
		_ = tel.Shutdown(ctx)
		return nil, fmt.Errorf("initializing logger: %w", err)
	}

	if health := tel.Health(); health.Degraded {
		logger.Warn(ctx, "telemetry degraded", zap.String("error", health.LastError))
	}

	if registry == nil {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	job, err := backup.NewJob(backup.Config{
		DataPath: cfg.Database.Path,
		TempDir:  cfg.Backup.TempDir,
		Subject:  cfg.Backup.Subject,
	},
		backup.NewSMTPSender(cfg.Backup.SMTPHost, cfg.Backup.SMTPPort),
		backup.NewMetrics(registry),
		logger.Underlying().Named("backup"),
	)
	if err != nil {
		_ = logger.Sync()
		_ = tel.Shutdown(ctx)
		return nil, fmt.Errorf("initializing backup job: %w", err)
	}

	return &app{
		cfg:      cfg,
		tel:      tel,
		logger:   logger,
		registry: registry,
		job:      job,
	}, nil
}

// initServer opens the database and builds the services and HTTP server.
func (a *app) initServer(ctx context.Context) error {
	cfg := a.cfg
	zl := a.logger.Underlying()

	st, err := store.Open(ctx, cfg.Database.Path, zl.Named("store"))
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	a.store = st

	authSvc, err := auth.NewService(&auth.Config{BcryptCost: cfg.Auth.BcryptCost}, st.DB(), zl.Named("auth"))
	if err != nil {
		return fmt.Errorf("initializing auth service: %w", err)
	}
	taskSvc, err := tasks.NewService(st.DB(), zl.Named("tasks"))
	if err != nil {
		return fmt.Errorf("initializing task service: %w", err)
	}

	a.sessions = session.NewStore(cfg.Session.TTL)
	codec, err := session.NewCodec([]byte(cfg.Session.Secret.Value()))
	if err != nil {
		return fmt.Errorf("initializing session codec: %w", err)
	}

	doneMode, err := tasks.ParseDoneMode(cfg.Tasks.DoneMode)
	if err != nil {
		return err
	}

	if !cfg.Backup.Disabled {
		a.scheduler, err = backup.NewScheduler(a.job, cfg.Backup.Schedule, zl.Named("backup"))
		if err != nil {
			return err
		}
	}

	a.housekeeping = cron.New()
	if err := a.housekeeping.AddFunc(sessionSweepSchedule, a.sweepSessions); err != nil {
		return fmt.Errorf("scheduling session sweep: %w", err)
	}

	a.server, err = httpserver.NewServer(&httpserver.Config{
		Host:            cfg.Server.Host,
		Port:            cfg.Server.Port,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		CookieName:      cfg.Session.CookieName,
		SecureCookie:    cfg.Session.SecureCookie,
		DoneMode:        doneMode,
		ServiceName:     cfg.Observability.ServiceName,
	}, httpserver.Deps{
		Auth:     authSvc,
		Tasks:    taskSvc,
		Sessions: a.sessions,
		Codec:    codec,
		Backup:   a.job,
		Store:    st,
		Gatherer: a.registry,
	}, a.logger)
	if err != nil {
		return fmt.Errorf("initializing http server: %w", err)
	}

	return nil
}

// serve runs the HTTP server and background schedules until ctx is
// cancelled.
func (a *app) serve(ctx context.Context) error {
	if a.server == nil {
		if err := a.initServer(ctx); err != nil {
			return err
		}
	}

	if a.scheduler != nil {
		a.scheduler.Start()
		defer a.scheduler.Stop()
	} else {
		a.logger.Info(ctx, "backup scheduler disabled")
	}

	a.housekeeping.Start()
	defer a.housekeeping.Stop()

	a.logger.Info(ctx, "tasklistd started",
		zap.String("version", version),
		zap.String("database", a.cfg.Database.Path),
		zap.Int("port", a.cfg.Server.Port),
	)

	return a.server.Start(ctx)
}

func (a *app) sweepSessions() {
	if n := a.sessions.Sweep(); n > 0 {
		a.logger.Debug(context.Background(), "expired sessions swept", zap.Int("count", n))
	}
}

// close releases resources in reverse order of creation.
func (a *app) close(ctx context.Context) error {
	var errs []error
	if a.scheduler != nil {
		a.scheduler.Stop()
	}
	if err := a.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("closing store: %w", err))
	}
	if err := a.tel.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("telemetry shutdown: %w", err))
	}
	_ = a.logger.Sync()
	return errors.Join(errs...)
}
