package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/fyrsmithlabs/tasklist/internal/store"
)

const instrumentationName = "github.com/fyrsmithlabs/tasklist/internal/auth"

var (
	// ErrAlreadyExists is returned when registering a taken username.
	ErrAlreadyExists = errors.New("username already exists")

	// ErrInvalidCredentials is returned for an unknown user or a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidInput is returned for an empty username or password.
	ErrInvalidInput = errors.New("username and password are required")
)

// User is an authenticated account without its password hash.
type User struct {
	ID       uint
	Username string
}

// Service provides credential operations.
type Service interface {
	// Register creates an account and returns its id.
	Register(ctx context.Context, username, password string) (uint, error)

	// Login verifies a username and password.
	Login(ctx context.Context, username, password string) (*User, error)

	// ChangePassword replaces the password after verifying the current one.
	ChangePassword(ctx context.Context, userID uint, oldPassword, newPassword string) error
}

// Config configures the auth service.
type Config struct {
	// BcryptCost is the bcrypt work factor (default: bcrypt.DefaultCost).
	BcryptCost int
}

type service struct {
	db     *gorm.DB
	cost   int
	logger *zap.Logger

	tracer        trace.Tracer
	meter         metric.Meter
	registrations metric.Int64Counter
	logins        metric.Int64Counter
}

// NewService creates an auth service backed by db.
func NewService(cfg *Config, db *gorm.DB, logger *zap.Logger) (Service, error) {
	if db == nil {
		return nil, errors.New("database is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	cost := bcrypt.DefaultCost
	if cfg != nil && cfg.BcryptCost != 0 {
		cost = cfg.BcryptCost
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("invalid bcrypt cost %d", cost)
	}

	s := &service{
		db:     db,
		cost:   cost,
		logger: logger,
		tracer: otel.Tracer(instrumentationName),
		meter:  otel.Meter(instrumentationName),
	}
	s.initMetrics()

	return s, nil
}

func (s *service) initMetrics() {
	var err error

	s.registrations, err = s.meter.Int64Counter(
		"tasklist.auth.registrations_total",
		metric.WithDescription("Registration attempts by outcome"),
		metric.WithUnit("{registration}"),
	)
	if err != nil {
		s.logger.Warn("failed to create registrations counter", zap.Error(err))
	}

	s.logins, err = s.meter.Int64Counter(
		"tasklist.auth.logins_total",
		metric.WithDescription("Login attempts by outcome"),
		metric.WithUnit("{login}"),
	)
	if err != nil {
		s.logger.Warn("failed to create logins counter", zap.Error(err))
	}
}

func (s *service) Register(ctx context.Context, username, password string) (uint, error) {
	ctx, span := s.tracer.Start(ctx, "auth.Register")
	defer span.End()

	if strings.TrimSpace(username) == "" || password == "" {
		s.count(ctx, s.registrations, "invalid")
		return 0, ErrInvalidInput
	}

	var existing int64
	if err := s.db.WithContext(ctx).Model(&store.User{}).
		Where("username = ?", username).Count(&existing).Error; err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "lookup failed")
		return 0, fmt.Errorf("checking username: %w", err)
	}
	if existing > 0 {
		s.count(ctx, s.registrations, "duplicate")
		return 0, ErrAlreadyExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "hash failed")
		return 0, fmt.Errorf("hashing password: %w", err)
	}

	user := store.User{Username: username, PasswordHash: string(hash)}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		// A concurrent registration can win between the check and the insert.
		if store.IsUniqueViolation(err) {
			s.count(ctx, s.registrations, "duplicate")
			return 0, ErrAlreadyExists
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		return 0, fmt.Errorf("creating user: %w", err)
	}

	span.SetAttributes(attribute.Int64("user.id", int64(user.ID)))
	s.count(ctx, s.registrations, "created")
	s.logger.Info("user registered", zap.Uint("user.id", user.ID), zap.String("user.name", username))

	return user.ID, nil
}

func (s *service) Login(ctx context.Context, username, password string) (*User, error) {
	ctx, span := s.tracer.Start(ctx, "auth.Login")
	defer span.End()

	var user store.User
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		s.count(ctx, s.logins, "rejected")
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "lookup failed")
		return nil, fmt.Errorf("looking up user: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		s.count(ctx, s.logins, "rejected")
		return nil, ErrInvalidCredentials
	}

	span.SetAttributes(attribute.Int64("user.id", int64(user.ID)))
	s.count(ctx, s.logins, "accepted")

	return &User{ID: user.ID, Username: user.Username}, nil
}

func (s *service) ChangePassword(ctx context.Context, userID uint, oldPassword, newPassword string) error {
	ctx, span := s.tracer.Start(ctx, "auth.ChangePassword",
		trace.WithAttributes(attribute.Int64("user.id", int64(userID))))
	defer span.End()

	if newPassword == "" {
		return ErrInvalidInput
	}

	var user store.User
	err := s.db.WithContext(ctx).First(&user, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrInvalidCredentials
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "lookup failed")
		return fmt.Errorf("looking up user: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(oldPassword)) != nil {
		return ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.cost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	if err := s.db.WithContext(ctx).Model(&user).Update("password_hash", string(hash)).Error; err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		return fmt.Errorf("updating password: %w", err)
	}

	s.logger.Info("password changed", zap.Uint("user.id", userID))
	return nil
}

func (s *service) count(ctx context.Context, c metric.Int64Counter, outcome string) {
	if c != nil {
		c.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	}
}
