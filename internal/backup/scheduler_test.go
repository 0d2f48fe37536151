package backup

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingRunner struct {
	calls    atomic.Int32
	triggers chan Trigger
}

func (r *countingRunner) Run(_ context.Context, trigger Trigger) Outcome {
	r.calls.Add(1)
	select {
	case r.triggers <- trigger:
	default:
	}
	return Outcome{Trigger: trigger, Status: StatusSuccess}
}

func TestNewScheduler_InvalidSchedule(t *testing.T) {
	_, err := NewScheduler(&countingRunner{}, "every sunday", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid backup schedule")
}

func TestNewScheduler_RequiresJob(t *testing.T) {
	_, err := NewScheduler(nil, DefaultSchedule, nil)
	assert.Error(t, err)
}

func TestNewScheduler_DefaultSchedule(t *testing.T) {
	s, err := NewScheduler(&countingRunner{}, "", nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultSchedule, s.schedule)
}

func TestScheduler_FiresScheduledTrigger(t *testing.T) {
	r := &countingRunner{triggers: make(chan Trigger, 1)}
	s, err := NewScheduler(r, "* * * * * *", nil)
	require.NoError(t, err)

	s.Start()
	s.Start()
	defer s.Stop()

	select {
	case trigger := <-r.triggers:
		assert.Equal(t, TriggerScheduled, trigger)
	case <-time.After(3 * time.Second):
		t.Fatal("scheduler did not fire")
	}
}

func TestScheduler_StopHaltsFiring(t *testing.T) {
	r := &countingRunner{triggers: make(chan Trigger, 1)}
	s, err := NewScheduler(r, "* * * * * *", nil)
	require.NoError(t, err)

	s.Stop() // stop before start is a no-op
	s.Start()
	<-r.triggers
	s.Stop()

	time.Sleep(100 * time.Millisecond)
	after := r.calls.Load()
	time.Sleep(1500 * time.Millisecond)
	assert.Equal(t, after, r.calls.Load())
}
