// Package logging provides structured logging for tasklist on top of Zap.
//
// The logger adds:
//   - a Trace level below Debug
//   - stdout output with optional OpenTelemetry log export
//   - correlation fields pulled from context (trace, request, session, user)
//   - redaction of credential-bearing fields
//   - level-aware sampling where errors are never dropped
//
// Typical use:
//
//	logger, err := logging.NewLogger(logging.FromConfig(cfg.Logging), nil)
//	if err != nil {
//	    return err
//	}
//	defer logger.Sync()
//
//	ctx = logging.WithRequestID(ctx, reqID)
//	ctx = logging.WithUser(ctx, &logging.User{ID: 7, Name: "alice"})
//	logger.Info(ctx, "task added", zap.Uint("task_id", id))
//
// Services that only need a plain *zap.Logger receive logger.Underlying().
package logging
