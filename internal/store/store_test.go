package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "tasks.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpen_MigratesSchema(t *testing.T) {
	s := openTestStore(t)

	assert.True(t, s.DB().Migrator().HasTable(&User{}))
	assert.True(t, s.DB().Migrator().HasTable(&Task{}))
	assert.True(t, s.DB().Migrator().HasIndex(&Task{}, "OwnerID"))
	assert.NoError(t, s.Ping(context.Background()))
}

func TestOpen_EmptyPath(t *testing.T) {
	_, err := Open(context.Background(), "  ", nil)
	require.Error(t, err)
}

func TestOpen_ReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.db")

	s, err := Open(context.Background(), path, nil)
	require.NoError(t, err)
	require.NoError(t, s.DB().Create(&User{Username: "alice", PasswordHash: "x"}).Error)
	require.NoError(t, s.Close())

	s, err = Open(context.Background(), path, nil)
	require.NoError(t, err)
	defer s.Close()

	var count int64
	require.NoError(t, s.DB().Model(&User{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
	assert.Equal(t, path, s.Path())
}

func TestTask_Defaults(t *testing.T) {
	s := openTestStore(t)
	owner := User{Username: "alice", PasswordHash: "x"}
	require.NoError(t, s.DB().Create(&owner).Error)

	task := Task{Text: "buy milk", OwnerID: owner.ID}
	require.NoError(t, s.DB().Create(&task).Error)

	var got Task
	require.NoError(t, s.DB().First(&got, task.ID).Error)
	assert.False(t, got.Done)
	assert.Equal(t, 2, got.Priority)
	assert.Nil(t, got.DueDate)
}

func TestUser_UsernameUnique(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.DB().Create(&User{Username: "alice", PasswordHash: "x"}).Error)
	err := s.DB().Create(&User{Username: "alice", PasswordHash: "y"}).Error
	assert.Error(t, err)

	// Case-sensitive: a different casing is a different user.
	assert.NoError(t, s.DB().Create(&User{Username: "Alice", PasswordHash: "z"}).Error)
}

func TestClose_NilSafe(t *testing.T) {
	var s *Store
	assert.NoError(t, s.Close())
}

func TestGormLogger_Trace(t *testing.T) {
	core, observed := observer.New(zapcore.DebugLevel)
	l := newGormLogger(zap.New(core))
	ctx := context.Background()
	fc := func() (string, int64) { return "SELECT 1", 1 }

	l.Trace(ctx, time.Now(), fc, gorm.ErrRecordNotFound)
	assert.Zero(t, observed.Len())

	l.Trace(ctx, time.Now(), fc, errors.New("disk I/O error"))
	assert.Equal(t, 1, observed.FilterMessage("query failed").Len())

	l.Trace(ctx, time.Now().Add(-time.Second), fc, nil)
	assert.Equal(t, 1, observed.FilterMessage("slow query").Len())

	l.LogMode(gormlogger.Silent).Trace(ctx, time.Now(), fc, errors.New("ignored"))
	assert.Equal(t, 1, observed.FilterMessage("query failed").Len())

	l.Trace(ctx, time.Now(), fc, errors.New("constraint failed: UNIQUE constraint failed: users.username (2067)"))
	assert.Equal(t, 1, observed.FilterMessage("query failed").Len())
	violations := observed.FilterMessage("constraint violation").All()
	require.Len(t, violations, 1)
	assert.Equal(t, zapcore.DebugLevel, violations[0].Level)
}

func TestGormLogger_DuplicateInsertNotLoggedAsError(t *testing.T) {
	core, observed := observer.New(zapcore.DebugLevel)
	st, err := Open(context.Background(), filepath.Join(t.TempDir(), "tasks.db"), zap.New(core))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	require.NoError(t, st.DB().Create(&User{Username: "alice", PasswordHash: "x"}).Error)
	err = st.DB().Create(&User{Username: "alice", PasswordHash: "y"}).Error
	require.Error(t, err)
	assert.True(t, IsUniqueViolation(err))

	assert.Zero(t, observed.FilterLevelExact(zapcore.ErrorLevel).Len())
	assert.Equal(t, 1, observed.FilterMessage("constraint violation").Len())
}

func TestIsUniqueViolation(t *testing.T) {
	assert.False(t, IsUniqueViolation(nil))
	assert.False(t, IsUniqueViolation(errors.New("disk I/O error")))
	assert.True(t, IsUniqueViolation(gorm.ErrDuplicatedKey))
	assert.True(t, IsUniqueViolation(errors.New("UNIQUE constraint failed: users.username")))
}
