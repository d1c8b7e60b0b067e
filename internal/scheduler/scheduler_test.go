package scheduler

import (
	"errors"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aristath/portfolio-analytics/internal/database"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingJob struct {
	name string
	runs atomic.Int32
	err  error
}

func (j *countingJob) Run() error {
	j.runs.Add(1)
	return j.err
}

func (j *countingJob) Name() string { return j.name }

func TestScheduler_AddJobAndRunByName(t *testing.T) {
	s := New(zerolog.Nop())
	b := &countingJob{name: "b"}
	a := &countingJob{name: "a", err: errors.New("boom")}

	require.NoError(t, s.AddJob("@hourly", b))
	require.NoError(t, s.AddJob("0 0 3 * * *", a))
	assert.Equal(t, []string{"a", "b"}, s.JobNames())

	require.NoError(t, s.RunByName("b"))
	assert.Equal(t, int32(1), b.runs.Load())

	assert.EqualError(t, s.RunByName("a"), "boom")

	err := s.RunByName("missing")
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestScheduler_InvalidSchedule(t *testing.T) {
	s := New(zerolog.Nop())
	err := s.AddJob("every now and then", &countingJob{name: "x"})
	assert.Error(t, err)
	assert.Empty(t, s.JobNames())
}

func TestScheduler_RunsOnSchedule(t *testing.T) {
	s := New(zerolog.Nop())
	job := &countingJob{name: "tick"}
	require.NoError(t, s.AddJob("@every 1s", job))

	s.Start()
	defer s.Stop()

	assert.Eventually(t, func() bool { return job.runs.Load() > 0 }, 3*time.Second, 50*time.Millisecond)
}

func TestCheckDatabasesJob_Name(t *testing.T) {
	job := NewCheckDatabasesJob(zerolog.Nop())
	assert.Equal(t, "check_databases", job.Name())
}

func TestCheckDatabasesJob_Run(t *testing.T) {
	log := zerolog.New(nil).Level(zerolog.Disabled)

	db, err := database.New(database.Config{
		Path:    filepath.Join(t.TempDir(), "market.db"),
		Profile: database.ProfileStandard,
		Name:    "market",
	})
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.Migrate())

	job := NewCheckDatabasesJob(log, db, nil)
	assert.NoError(t, job.Run())
}

func TestCheckDatabasesJob_ClosedDatabase(t *testing.T) {
	db, err := database.New(database.Config{
		Path: filepath.Join(t.TempDir(), "cache.db"),
		Name: "cache",
	})
	require.NoError(t, err)
	require.NoError(t, db.Close())

	job := NewCheckDatabasesJob(zerolog.Nop(), db)
	assert.Error(t, job.Run())
}
