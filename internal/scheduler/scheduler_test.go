package scheduler

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingJob struct {
	name  string
	runs  atomic.Int32
	fails bool
}

func (j *countingJob) Name() string { return j.name }

func (j *countingJob) Run() error {
	j.runs.Add(1)
	if j.fails {
		return errors.New("boom")
	}
	return nil
}

func TestScheduler_AddJob(t *testing.T) {
	s := New(zerolog.Nop())

	job := &countingJob{name: "cleanup"}
	require.NoError(t, s.AddJob("0 0 3 * * *", job))
	assert.Equal(t, []string{"cleanup"}, s.Jobs())
}

func TestScheduler_AddJob_InvalidSchedule(t *testing.T) {
	s := New(zerolog.Nop())

	err := s.AddJob("every now and then", &countingJob{name: "bad"})
	assert.Error(t, err)
	assert.Empty(t, s.Jobs())
}

func TestScheduler_RunsJobs(t *testing.T) {
	s := New(zerolog.Nop())

	ok := &countingJob{name: "ok"}
	failing := &countingJob{name: "failing", fails: true}
	require.NoError(t, s.AddJob("@every 1s", ok))
	require.NoError(t, s.AddJob("@every 1s", failing))

	s.Start()
	assert.Eventually(t, func() bool {
		return ok.runs.Load() > 0 && failing.runs.Load() > 0
	}, 3*time.Second, 20*time.Millisecond, "a failing job does not stop the others")
	s.Stop()
}

func TestScheduler_RunNow(t *testing.T) {
	s := New(zerolog.Nop())

	job := &countingJob{name: "now"}
	require.NoError(t, s.RunNow(job))
	assert.Equal(t, int32(1), job.runs.Load())

	assert.Error(t, s.RunNow(&countingJob{name: "fails", fails: true}))
}
