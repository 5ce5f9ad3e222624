package daemon

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ovforge/ovforge/pkg/types"
)

func newTestJobManager(t *testing.T, run RunFunc) *JobManager {
	t.Helper()

	stateFile := filepath.Join(t.TempDir(), "state.json")
	state := NewState(stateFile)
	return NewJobManager(state, run)
}

func TestJobManagerSubmit(t *testing.T) {
	jm := newTestJobManager(t, nil)

	job, err := jm.Submit("microsoft/phi-2", "phi-2-int8", nil)
	require.NoError(t, err)

	assert.NotEmpty(t, job.ID)
	assert.Equal(t, JobStatusPending, job.Status)
	assert.Equal(t, "microsoft/phi-2", job.Model)
	assert.Equal(t, "phi-2-int8", job.OutputName)
	assert.False(t, job.SubmittedAt.IsZero())

	// State tracks the job too
	assert.Contains(t, jm.state.GetJobs(), job.ID)
}

func TestJobManagerRunJobSuccess(t *testing.T) {
	run := func(ctx context.Context, job *Job) (types.Handler, error) {
		return &types.ModelHandler{ModelPath: "/outputs/phi-2-int8"}, nil
	}
	jm := newTestJobManager(t, run)

	job, err := jm.Submit("microsoft/phi-2", "phi-2-int8", nil)
	require.NoError(t, err)

	jm.runJob(context.Background(), job.ID)

	got, exists := jm.GetJob(job.ID)
	require.True(t, exists)
	assert.Equal(t, JobStatusCompleted, got.Status)
	assert.Equal(t, "/outputs/phi-2-int8", got.OutputPath)
	assert.NotNil(t, got.StartedAt)
	assert.NotNil(t, got.CompletedAt)
	assert.Empty(t, got.Error)
	assert.Equal(t, 1, jm.state.GetStatistics().TotalConversions)
}

func TestJobManagerRunJobCompositeComponents(t *testing.T) {
	run := func(ctx context.Context, job *Job) (types.Handler, error) {
		return &types.CompositeModelHandler{
			Names: []string{"text_encoder", "unet", "vae_decoder"},
			Components: []*types.ModelHandler{
				{ModelPath: "/outputs/sdxl"},
				{ModelPath: "/outputs/sdxl"},
				{ModelPath: "/outputs/sdxl"},
			},
		}, nil
	}
	jm := newTestJobManager(t, run)

	job, err := jm.Submit("stabilityai/sdxl", "sdxl-fp16", nil)
	require.NoError(t, err)

	jm.runJob(context.Background(), job.ID)

	got, _ := jm.GetJob(job.ID)
	assert.Equal(t, JobStatusCompleted, got.Status)
	assert.Equal(t, "/outputs/sdxl", got.OutputPath)
	assert.Equal(t, []string{"text_encoder", "unet", "vae_decoder"}, got.Components)
}

func TestJobManagerRunJobFailure(t *testing.T) {
	run := func(ctx context.Context, job *Job) (types.Handler, error) {
		return nil, errors.New("optimum-cli exited with status 1")
	}
	jm := newTestJobManager(t, run)

	job, err := jm.Submit("bad/model", "bad-output", nil)
	require.NoError(t, err)

	jm.runJob(context.Background(), job.ID)

	got, _ := jm.GetJob(job.ID)
	assert.Equal(t, JobStatusFailed, got.Status)
	assert.Contains(t, got.Error, "exited with status 1")
	assert.Equal(t, 1, jm.state.GetStatistics().TotalFailures)
}

func TestJobManagerCancelPending(t *testing.T) {
	jm := newTestJobManager(t, nil)

	job, err := jm.Submit("microsoft/phi-2", "phi-2-int8", nil)
	require.NoError(t, err)

	require.NoError(t, jm.CancelJob(job.ID))

	got, _ := jm.GetJob(job.ID)
	assert.Equal(t, JobStatusCancelled, got.Status)
	assert.NotNil(t, got.CompletedAt)

	// The worker skips cancelled jobs
	jm.runJob(context.Background(), job.ID)
	got, _ = jm.GetJob(job.ID)
	assert.Equal(t, JobStatusCancelled, got.Status)
}

func TestJobManagerCancelRunning(t *testing.T) {
	started := make(chan struct{})
	run := func(ctx context.Context, job *Job) (types.Handler, error) {
		close(started)
		<-ctx.Done()
		return nil, ctx.Err()
	}
	jm := newTestJobManager(t, run)

	job, err := jm.Submit("microsoft/phi-2", "phi-2-int8", nil)
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		jm.runJob(context.Background(), job.ID)
		close(done)
	}()

	<-started
	require.NoError(t, jm.CancelJob(job.ID))

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("job did not stop after cancel")
	}

	got, _ := jm.GetJob(job.ID)
	assert.Equal(t, JobStatusCancelled, got.Status)
}

func TestJobManagerCancelFinished(t *testing.T) {
	run := func(ctx context.Context, job *Job) (types.Handler, error) {
		return &types.ModelHandler{ModelPath: "/outputs/done"}, nil
	}
	jm := newTestJobManager(t, run)

	job, err := jm.Submit("microsoft/phi-2", "phi-2-int8", nil)
	require.NoError(t, err)
	jm.runJob(context.Background(), job.ID)

	assert.Error(t, jm.CancelJob(job.ID))
	assert.Error(t, jm.CancelJob("no-such-job"))
}

func TestJobManagerGetActiveJobs(t *testing.T) {
	run := func(ctx context.Context, job *Job) (types.Handler, error) {
		return &types.ModelHandler{ModelPath: "/outputs/done"}, nil
	}
	jm := newTestJobManager(t, run)

	first, err := jm.Submit("model/a", "a", nil)
	require.NoError(t, err)
	_, err = jm.Submit("model/b", "b", nil)
	require.NoError(t, err)

	assert.Equal(t, 2, jm.GetActiveCount())
	assert.Len(t, jm.GetActiveJobs(), 2)
	assert.Len(t, jm.GetAllJobs(), 2)

	jm.runJob(context.Background(), first.ID)
	assert.Equal(t, 1, jm.GetActiveCount())
}

func TestJobManagerCleanupOldJobs(t *testing.T) {
	jm := newTestJobManager(t, nil)

	oldTime := time.Now().Add(-48 * time.Hour)
	jm.jobs["old"] = &Job{ID: "old", Status: JobStatusCompleted, CompletedAt: &oldTime}
	recentTime := time.Now().Add(-1 * time.Hour)
	jm.jobs["recent"] = &Job{ID: "recent", Status: JobStatusFailed, CompletedAt: &recentTime}
	jm.jobs["active"] = &Job{ID: "active", Status: JobStatusRunning}

	jm.CleanupOldJobs(24 * time.Hour)

	assert.NotContains(t, jm.jobs, "old")
	assert.Contains(t, jm.jobs, "recent")
	assert.Contains(t, jm.jobs, "active")
}

func TestJobManagerRestoreJobs(t *testing.T) {
	jm := newTestJobManager(t, nil)

	completedAt := time.Now().Add(-1 * time.Hour)
	restored := map[string]*Job{
		"finished":    {ID: "finished", Status: JobStatusCompleted, CompletedAt: &completedAt},
		"interrupted": {ID: "interrupted", Status: JobStatusRunning},
	}

	jm.RestoreJobs(restored)

	finished, _ := jm.GetJob("finished")
	assert.Equal(t, JobStatusCompleted, finished.Status)

	// Jobs cut off mid-run cannot be resumed
	interrupted, _ := jm.GetJob("interrupted")
	assert.Equal(t, JobStatusFailed, interrupted.Status)
	assert.NotEmpty(t, interrupted.Error)
	assert.NotNil(t, interrupted.CompletedAt)
}

func TestJobManagerStartProcessesQueue(t *testing.T) {
	processed := make(chan string, 2)
	run := func(ctx context.Context, job *Job) (types.Handler, error) {
		processed <- job.ID
		return &types.ModelHandler{ModelPath: "/outputs/" + job.OutputName}, nil
	}
	jm := newTestJobManager(t, run)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go jm.Start(ctx)

	first, err := jm.Submit("model/a", "a", nil)
	require.NoError(t, err)
	second, err := jm.Submit("model/b", "b", nil)
	require.NoError(t, err)

	assert.Equal(t, first.ID, <-processed)
	assert.Equal(t, second.ID, <-processed)
}
