package scheduler

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/serendib/internal/interfaces"
)

func TestRegisterJob_Validation(t *testing.T) {
	svc := NewService(arbor.NewLogger())

	assert.Error(t, svc.RegisterJob("bad", "not a schedule", "", func() error { return nil }))
	assert.Error(t, svc.RegisterJob("nil", "* * * * *", "", nil))

	require.NoError(t, svc.RegisterJob("sweep", "*/5 * * * *", "Sweep sessions", func() error { return nil }))
	assert.Error(t, svc.RegisterJob("sweep", "*/5 * * * *", "", func() error { return nil }))
}

func TestRunJob_RecordsOutcome(t *testing.T) {
	svc := NewService(arbor.NewLogger())
	runs := 0

	require.NoError(t, svc.RegisterJob("ok", "0 * * * *", "", func() error { runs++; return nil }))
	require.NoError(t, svc.RegisterJob("broken", "0 * * * *", "", func() error { return errors.New("smtp offline") }))
	require.NoError(t, svc.RegisterJob("panics", "0 * * * *", "", func() error { panic("bug") }))

	assert.NoError(t, svc.RunJob("ok"))
	assert.NoError(t, svc.RunJob("ok"))
	assert.EqualError(t, svc.RunJob("broken"), "smtp offline")
	assert.Error(t, svc.RunJob("panics"))
	assert.ErrorIs(t, svc.RunJob("missing"), interfaces.ErrJobNotFound)
	assert.Equal(t, 2, runs)

	jobs := svc.Jobs()
	require.Len(t, jobs, 3)

	assert.Equal(t, "broken", jobs[0].Name)
	assert.Equal(t, "smtp offline", jobs[0].LastError)
	assert.Equal(t, 1, jobs[0].Failures)

	assert.Equal(t, "ok", jobs[1].Name)
	assert.Equal(t, 2, jobs[1].Runs)
	assert.Zero(t, jobs[1].Failures)
	assert.NotNil(t, jobs[1].LastRun)
	assert.Empty(t, jobs[1].LastError)
	assert.Nil(t, jobs[1].NextRun, "no next run before Start")

	assert.Contains(t, jobs[2].LastError, "panicked")
}

func TestRunJob_RejectsOverlap(t *testing.T) {
	svc := NewService(arbor.NewLogger())
	release := make(chan struct{})
	entered := make(chan struct{})

	require.NoError(t, svc.RegisterJob("slow", "0 * * * *", "", func() error {
		close(entered)
		<-release
		return nil
	}))

	done := make(chan error, 1)
	go func() { done <- svc.RunJob("slow") }()
	<-entered

	assert.ErrorIs(t, svc.RunJob("slow"), interfaces.ErrJobRunning)
	assert.True(t, svc.Jobs()[0].IsRunning)

	close(release)
	assert.NoError(t, <-done)
	assert.Equal(t, 1, svc.Jobs()[0].Runs)
}

func TestStartStop(t *testing.T) {
	svc := NewService(arbor.NewLogger())
	require.NoError(t, svc.RegisterJob("tick", "* * * * *", "", func() error { return nil }))

	require.NoError(t, svc.Start())
	assert.Error(t, svc.Start())

	jobs := svc.Jobs()
	require.Len(t, jobs, 1)
	assert.NotNil(t, jobs[0].NextRun)

	require.NoError(t, svc.Stop())
	require.NoError(t, svc.Stop())
}

func TestFormatKV(t *testing.T) {
	assert.Equal(t, " entry=3 next=soon", formatKV([]interface{}{"entry", 3, "next", "soon"}))
	assert.Equal(t, "", formatKV([]interface{}{"dangling"}))
}
