package tasks

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/fyrsmithlabs/tasklist/internal/store"
)

const instrumentationName = "github.com/fyrsmithlabs/tasklist/internal/tasks"

// Service provides task storage and queries.
type Service interface {
	// Add creates a task owned by req.OwnerID.
	Add(ctx context.Context, req AddRequest) (*Task, error)

	// Update replaces text, due date and priority of a task the requester owns.
	Update(ctx context.Context, taskID, requesterID uint, req UpdateRequest) error

	// SetDone marks a task done, or flips its flag in DoneToggle mode.
	SetDone(ctx context.Context, taskID, requesterID uint, mode DoneMode) error

	// Delete removes a task the requester owns.
	Delete(ctx context.Context, taskID, requesterID uint) error

	// Get returns a task the requester owns.
	Get(ctx context.Context, taskID, requesterID uint) (*Task, error)

	// List returns the user's tasks, filtered by search when non-empty, in
	// rank order.
	List(ctx context.Context, userID uint, search string) ([]Task, error)

	// Stats returns the user's completion counts.
	Stats(ctx context.Context, userID uint) (Stats, error)

	// Overview returns counts across all users.
	Overview(ctx context.Context) (Overview, error)
}

type service struct {
	db     *gorm.DB
	logger *zap.Logger

	tracer    trace.Tracer
	meter     metric.Meter
	mutations metric.Int64Counter
	denied    metric.Int64Counter
}

// NewService creates a task service backed by db.
func NewService(db *gorm.DB, logger *zap.Logger) (Service, error) {
	if db == nil {
		return nil, errors.New("database is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &service{
		db:     db,
		logger: logger,
		tracer: otel.Tracer(instrumentationName),
		meter:  otel.Meter(instrumentationName),
	}
	s.initMetrics()

	return s, nil
}

func (s *service) initMetrics() {
	var err error

	s.mutations, err = s.meter.Int64Counter(
		"tasklist.tasks.mutations_total",
		metric.WithDescription("Successful task mutations by operation"),
		metric.WithUnit("{mutation}"),
	)
	if err != nil {
		s.logger.Warn("failed to create mutations counter", zap.Error(err))
	}

	s.denied, err = s.meter.Int64Counter(
		"tasklist.tasks.denied_total",
		metric.WithDescription("Task mutations rejected by the ownership check"),
		metric.WithUnit("{mutation}"),
	)
	if err != nil {
		s.logger.Warn("failed to create denied counter", zap.Error(err))
	}
}

func (s *service) Add(ctx context.Context, req AddRequest) (*Task, error) {
	ctx, span := s.tracer.Start(ctx, "tasks.Add",
		trace.WithAttributes(attribute.Int64("user.id", int64(req.OwnerID))))
	defer span.End()

	text, err := normalizeText(req.Text)
	if err != nil {
		return nil, err
	}

	row := store.Task{
		Text:     text,
		DueDate:  normalizeDueDate(req.DueDate),
		Priority: int(normalizePriority(req.Priority)),
		OwnerID:  req.OwnerID,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		return nil, fmt.Errorf("creating task: %w", err)
	}

	span.SetAttributes(attribute.Int64("task.id", int64(row.ID)))
	s.countMutation(ctx, "add")

	t := fromRow(row)
	return &t, nil
}

func (s *service) Update(ctx context.Context, taskID, requesterID uint, req UpdateRequest) error {
	ctx, span := s.startMutation(ctx, "tasks.Update", taskID, requesterID)
	defer span.End()

	text, err := normalizeText(req.Text)
	if err != nil {
		return err
	}

	if _, err := s.owned(ctx, span, "update", taskID, requesterID); err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Model(&store.Task{}).
		Where("id = ? AND owner_id = ?", taskID, requesterID).
		Updates(map[string]interface{}{
			"text":     text,
			"due_date": normalizeDueDate(req.DueDate),
			"priority": int(normalizePriority(req.Priority)),
		}).Error
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		return fmt.Errorf("updating task %d: %w", taskID, err)
	}

	s.countMutation(ctx, "update")
	return nil
}

func (s *service) SetDone(ctx context.Context, taskID, requesterID uint, mode DoneMode) error {
	ctx, span := s.startMutation(ctx, "tasks.SetDone", taskID, requesterID)
	defer span.End()
	span.SetAttributes(attribute.String("task.done_mode", mode.String()))

	if _, err := s.owned(ctx, span, "set_done", taskID, requesterID); err != nil {
		return err
	}

	var value interface{} = true
	if mode == DoneToggle {
		value = gorm.Expr("NOT done")
	}

	err := s.db.WithContext(ctx).Model(&store.Task{}).
		Where("id = ? AND owner_id = ?", taskID, requesterID).
		Update("done", value).Error
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		return fmt.Errorf("setting done on task %d: %w", taskID, err)
	}

	s.countMutation(ctx, "set_done")
	return nil
}

func (s *service) Delete(ctx context.Context, taskID, requesterID uint) error {
	ctx, span := s.startMutation(ctx, "tasks.Delete", taskID, requesterID)
	defer span.End()

	if _, err := s.owned(ctx, span, "delete", taskID, requesterID); err != nil {
		return err
	}

	err := s.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", taskID, requesterID).
		Delete(&store.Task{}).Error
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "delete failed")
		return fmt.Errorf("deleting task %d: %w", taskID, err)
	}

	s.countMutation(ctx, "delete")
	return nil
}

func (s *service) Get(ctx context.Context, taskID, requesterID uint) (*Task, error) {
	ctx, span := s.startMutation(ctx, "tasks.Get", taskID, requesterID)
	defer span.End()

	row, err := s.owned(ctx, span, "get", taskID, requesterID)
	if err != nil {
		return nil, err
	}
	t := fromRow(*row)
	return &t, nil
}

func (s *service) List(ctx context.Context, userID uint, search string) ([]Task, error) {
	ctx, span := s.tracer.Start(ctx, "tasks.List", trace.WithAttributes(
		attribute.Int64("user.id", int64(userID)),
		attribute.Bool("tasks.search", search != ""),
	))
	defer span.End()

	q := s.db.WithContext(ctx).Where("owner_id = ?", userID)
	if search != "" {
		// instr is case-sensitive; LIKE would fold ASCII case.
		q = q.Where("instr(text, ?) > 0", search)
	}

	var rows []store.Task
	err := q.Order("priority DESC").
		Order("due_date IS NULL").
		Order("due_date ASC").
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "query failed")
		return nil, fmt.Errorf("listing tasks: %w", err)
	}

	out := make([]Task, len(rows))
	for i, r := range rows {
		out[i] = fromRow(r)
	}
	span.SetAttributes(attribute.Int("tasks.count", len(out)))
	return out, nil
}

func (s *service) Stats(ctx context.Context, userID uint) (Stats, error) {
	ctx, span := s.tracer.Start(ctx, "tasks.Stats",
		trace.WithAttributes(attribute.Int64("user.id", int64(userID))))
	defer span.End()

	var st Stats
	db := s.db.WithContext(ctx)
	if err := db.Model(&store.Task{}).Where("owner_id = ?", userID).Count(&st.Total).Error; err != nil {
		span.RecordError(err)
		return Stats{}, fmt.Errorf("counting tasks: %w", err)
	}
	if st.Total == 0 {
		return Stats{}, nil
	}
	if err := db.Model(&store.Task{}).Where("owner_id = ? AND done = ?", userID, true).Count(&st.Completed).Error; err != nil {
		span.RecordError(err)
		return Stats{}, fmt.Errorf("counting completed tasks: %w", err)
	}
	st.PercentComplete = percentComplete(st.Completed, st.Total)
	return st, nil
}

func (s *service) Overview(ctx context.Context) (Overview, error) {
	ctx, span := s.tracer.Start(ctx, "tasks.Overview")
	defer span.End()

	var ov Overview
	db := s.db.WithContext(ctx)
	if err := db.Model(&store.User{}).Count(&ov.Users).Error; err != nil {
		span.RecordError(err)
		return Overview{}, fmt.Errorf("counting users: %w", err)
	}
	if err := db.Model(&store.Task{}).Count(&ov.Tasks).Error; err != nil {
		span.RecordError(err)
		return Overview{}, fmt.Errorf("counting tasks: %w", err)
	}
	if err := db.Model(&store.Task{}).Where("done = ?", true).Count(&ov.Completed).Error; err != nil {
		span.RecordError(err)
		return Overview{}, fmt.Errorf("counting completed tasks: %w", err)
	}
	return ov, nil
}

func (s *service) startMutation(ctx context.Context, name string, taskID, requesterID uint) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, name, trace.WithAttributes(
		attribute.Int64("task.id", int64(taskID)),
		attribute.Int64("user.id", int64(requesterID)),
	))
}

// owned loads a task and checks it belongs to requesterID.
func (s *service) owned(ctx context.Context, span trace.Span, op string, taskID, requesterID uint) (*store.Task, error) {
	var row store.Task
	err := s.db.WithContext(ctx).First(&row, taskID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		s.countDenied(ctx, op, "not_found")
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "lookup failed")
		return nil, fmt.Errorf("loading task %d: %w", taskID, err)
	}

	if row.OwnerID != requesterID {
		s.countDenied(ctx, op, "forbidden")
		s.logger.Warn("task access denied",
			zap.String("op", op),
			zap.Uint("task.id", taskID),
			zap.Uint("user.id", requesterID),
		)
		return nil, ErrForbidden
	}
	return &row, nil
}

func (s *service) countMutation(ctx context.Context, op string) {
	if s.mutations != nil {
		s.mutations.Add(ctx, 1, metric.WithAttributes(attribute.String("op", op)))
	}
}

func (s *service) countDenied(ctx context.Context, op, reason string) {
	if s.denied != nil {
		s.denied.Add(ctx, 1, metric.WithAttributes(
			attribute.String("op", op),
			attribute.String("reason", reason),
		))
	}
}

func fromRow(r store.Task) Task {
	return Task{
		ID:       r.ID,
		Text:     r.Text,
		Done:     r.Done,
		DueDate:  r.DueDate,
		Priority: Priority(r.Priority),
		OwnerID:  r.OwnerID,
	}
}
