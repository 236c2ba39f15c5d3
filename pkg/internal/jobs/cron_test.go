package jobs_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/sharesmallbiz/pkg/configs"
	"github.com/yeisme/sharesmallbiz/pkg/internal/jobs"
	"github.com/yeisme/sharesmallbiz/pkg/internal/types"
	"github.com/yeisme/sharesmallbiz/pkg/scheduler"
)

type sweeper struct {
	batch chan int
	err   error
}

func (s *sweeper) ProcessPendingCleanup(_ context.Context, batch int) (types.CleanupResult, error) {
	s.batch <- batch
	return types.CleanupResult{Processed: 1, Deleted: 1}, s.err
}

type refresher struct {
	calls chan struct{}
}

func (r *refresher) RefreshNames(context.Context) (int, error) {
	r.calls <- struct{}{}
	return 3, nil
}

func TestRegisterCronJobs(t *testing.T) {
	sched, err := scheduler.NewScheduler()
	require.NoError(t, err)

	sched.Start()
	t.Cleanup(func() { _ = sched.Shutdown() })

	sw := &sweeper{batch: make(chan int, 1)}
	rf := &refresher{calls: make(chan struct{}, 1)}

	cfg := configs.JobsConfig{MediaCleanup: "0 0 1 1 *", CleanupBatch: 25, KeywordRefresh: "0 0 1 1 *"}
	require.NoError(t, jobs.RegisterCronJobs(context.Background(), sched, cfg, sw, rf))

	infos := sched.GetJobInfos()
	require.Len(t, infos, 2)
	assert.Equal(t, jobs.JobKeywordRefresh, infos[0].Name)
	assert.Equal(t, jobs.JobMediaCleanup, infos[1].Name)

	require.NoError(t, sched.RunNow(jobs.JobMediaCleanup))
	require.NoError(t, sched.RunNow(jobs.JobKeywordRefresh))

	select {
	case batch := <-sw.batch:
		assert.Equal(t, 25, batch)
	case <-time.After(5 * time.Second):
		t.Fatal("media cleanup did not run")
	}

	select {
	case <-rf.calls:
	case <-time.After(5 * time.Second):
		t.Fatal("keyword refresh did not run")
	}
}

func TestRegisterCronJobsSkipsDisabled(t *testing.T) {
	sched, err := scheduler.NewScheduler()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sched.Shutdown() })

	require.NoError(t, jobs.RegisterCronJobs(context.Background(), sched, configs.JobsConfig{KeywordRefresh: "0 * * * *"}, &sweeper{}, nil))
	assert.Empty(t, sched.GetJobInfos())

	assert.Error(t, jobs.RegisterCronJobs(context.Background(), nil, configs.JobsConfig{}, nil, nil))
}

func TestMediaCleanupPropagatesError(t *testing.T) {
	sw := &sweeper{batch: make(chan int, 1), err: errors.New("db down")}

	err := jobs.MediaCleanup(sw, 10)(context.Background())
	assert.EqualError(t, err, "db down")
}
