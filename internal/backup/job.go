package backup

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Environment variables read on every run.
const (
	EnvMailUsername    = "MAIL_USERNAME"
	EnvMailPassword    = "MAIL_PASSWORD"
	EnvMailDestination = "MAIL_DESTINATION"
)

// ArchiveName is the fixed file name of the temporary archive.
const ArchiveName = "tasklist_backup.zip"

// DefaultSubject is used when Config.Subject is empty.
const DefaultSubject = "Task list weekly backup"

// Config configures a Job.
type Config struct {
	// DataPath is the SQLite file to archive.
	DataPath string

	// TempDir holds the archive while it is being sent (default: os.TempDir()).
	TempDir string

	// Subject is the mail subject line.
	Subject string

	// LookupEnv reads environment variables (default: os.LookupEnv).
	LookupEnv func(string) (string, bool)
}

// Job is the backup-and-notify job. A Job is safe for concurrent use; a run
// started while another is in progress is skipped.
type Job struct {
	dataPath  string
	tempDir   string
	subject   string
	lookupEnv func(string) (string, bool)

	sender  Sender
	metrics *Metrics
	logger  *zap.Logger
	now     func() time.Time

	running atomic.Bool
}

// NewJob creates a backup job.
func NewJob(cfg Config, sender Sender, metrics *Metrics, logger *zap.Logger) (*Job, error) {
	if strings.TrimSpace(cfg.DataPath) == "" {
		return nil, errors.New("data path is required")
	}
	if sender == nil {
		return nil, errors.New("sender is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	j := &Job{
		dataPath:  cfg.DataPath,
		tempDir:   cfg.TempDir,
		subject:   cfg.Subject,
		lookupEnv: cfg.LookupEnv,
		sender:    sender,
		metrics:   metrics,
		logger:    logger,
		now:       time.Now,
	}
	if j.tempDir == "" {
		j.tempDir = os.TempDir()
	}
	if j.subject == "" {
		j.subject = DefaultSubject
	}
	if j.lookupEnv == nil {
		j.lookupEnv = os.LookupEnv
	}
	return j, nil
}

// ArchivePath returns where the temporary archive is written.
func (j *Job) ArchivePath() string {
	return filepath.Join(j.tempDir, ArchiveName)
}

// Running reports whether a run is in progress.
func (j *Job) Running() bool {
	return j.running.Load()
}

// Run performs one backup. It always returns an Outcome and never panics.
func (j *Job) Run(ctx context.Context, trigger Trigger) (out Outcome) {
	start := j.now()
	out = Outcome{Trigger: trigger, StartedAt: start}

	if !j.running.CompareAndSwap(false, true) {
		out.Status = StatusSkipped
		out.Reason = ReasonAlreadyRunning
		j.finish(ctx, &out, start)
		return out
	}
	defer j.running.Store(false)

	defer func() {
		if r := recover(); r != nil {
			j.logger.Error("backup panicked",
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()),
			)
			out.Status = StatusFailed
			out.Reason = ReasonPanic
			out.Detail = fmt.Sprint(r)
			j.finish(ctx, &out, start)
		}
	}()

	j.logger.Info("backup started", zap.String("trigger", string(trigger)))
	j.run(ctx, &out)
	j.finish(ctx, &out, start)
	return out
}

func (j *Job) run(ctx context.Context, out *Outcome) {
	creds, to, err := j.readEnv()
	if err != nil {
		out.Status, out.Reason, out.Detail = StatusFailed, ReasonConfigurationMissing, err.Error()
		return
	}
	out.Recipient = to

	archive := j.ArchivePath()
	size, err := writeArchive(j.dataPath, archive)
	if err != nil {
		// writeArchive may leave a partial file behind.
		j.removeArchive(archive)
		out.Status, out.Reason, out.Detail = StatusFailed, ReasonArchiveFailure, err.Error()
		return
	}
	defer j.removeArchive(archive)
	out.ArchiveBytes = size

	msg := &Message{
		From:           creds.Username,
		To:             to,
		Subject:        j.subject,
		Body:           j.body(),
		AttachmentPath: archive,
		AttachmentName: ArchiveName,
	}
	if err := j.sender.Send(ctx, creds, msg); err != nil {
		out.Status, out.Reason, out.Detail = StatusFailed, ReasonTransportFailure, err.Error()
		return
	}

	out.Status = StatusSuccess
}

func (j *Job) readEnv() (Credentials, string, error) {
	var missing []string
	get := func(key string) string {
		v, ok := j.lookupEnv(key)
		v = strings.TrimSpace(v)
		if !ok || v == "" {
			missing = append(missing, key)
		}
		return v
	}

	creds := Credentials{
		Username: get(EnvMailUsername),
		Password: get(EnvMailPassword),
	}
	to := get(EnvMailDestination)

	if len(missing) > 0 {
		return Credentials{}, "", fmt.Errorf("missing environment variables: %s", strings.Join(missing, ", "))
	}
	return creds, to, nil
}

func (j *Job) body() string {
	return fmt.Sprintf("Automatic backup of %s generated at %s.\n",
		filepath.Base(j.dataPath), j.now().Format(time.RFC1123))
}

func (j *Job) removeArchive(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		j.logger.Warn("failed to remove backup archive", zap.String("path", path), zap.Error(err))
	}
}

func (j *Job) finish(_ context.Context, out *Outcome, start time.Time) {
	out.Duration = j.now().Sub(start)
	j.metrics.observe(*out)

	fields := []zap.Field{
		zap.String("trigger", string(out.Trigger)),
		zap.String("status", string(out.Status)),
		zap.Duration("duration", out.Duration),
	}
	switch out.Status {
	case StatusSuccess:
		j.logger.Info(out.String(), fields...)
	case StatusSkipped:
		j.logger.Warn(out.String(), fields...)
	default:
		j.logger.Error(out.String(), append(fields, zap.String("reason", string(out.Reason)))...)
	}
}
