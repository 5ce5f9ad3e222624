package daemon

import (
	"context"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ovforge/ovforge/internal/config"
)

func newTestDaemon(t *testing.T) *Daemon {
	t.Helper()

	tmpDir := t.TempDir()
	originalHome := os.Getenv("OVFORGE_HOME")
	t.Cleanup(func() { os.Setenv("OVFORGE_HOME", originalHome) })
	os.Setenv("OVFORGE_HOME", tmpDir)

	cfg := &config.Config{
		Storage: config.StorageConfig{
			BaseDir: tmpDir,
		},
		Export: config.ExportConfig{
			Binary:          "optimum-cli",
			TokenizerBinary: "convert_tokenizer",
		},
	}

	d, err := New(cfg)
	require.NoError(t, err)
	return d
}

func TestDaemonNew(t *testing.T) {
	d := newTestDaemon(t)

	// Verify components are initialized
	assert.NotNil(t, d.jobManager)
	assert.NotNil(t, d.registry)
	assert.NotNil(t, d.exporter)
	assert.NotNil(t, d.state)

	// Clean up
	d.Shutdown()
}

func TestDaemonRestoresInterruptedJobs(t *testing.T) {
	d := newTestDaemon(t)

	// Simulate a daemon that died mid-conversion
	d.state.AddJob(&Job{ID: "stale", Status: JobStatusRunning, Model: "microsoft/phi-2"})
	require.NoError(t, d.state.Save())
	d.Shutdown()

	// A restarted daemon reloads the state file and fails the stale job
	state := NewState(d.state.filePath)
	require.NoError(t, state.Load())

	jm := NewJobManager(state, nil)
	jm.RestoreJobs(state.GetJobs())

	job, exists := jm.GetJob("stale")
	require.True(t, exists)
	assert.Equal(t, JobStatusFailed, job.Status)
}

func TestDaemonGetters(t *testing.T) {
	d := newTestDaemon(t)

	// Test getters
	assert.NotNil(t, d.GetJobManager())
	assert.NotNil(t, d.GetRegistry())
	assert.NotNil(t, d.GetState())

	// Test status
	status := d.GetStatus()
	assert.NotNil(t, status)
	assert.Contains(t, status, "pid")
	assert.Contains(t, status, "uptime")
	assert.Contains(t, status, "active_jobs")
	assert.Contains(t, status, "total_conversions")
	assert.Contains(t, status, "total_failures")

	// Clean up
	d.Shutdown()
}

func TestDaemonBackgroundWorkers(t *testing.T) {
	d := newTestDaemon(t)

	// Start workers in a controlled way
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	// Override daemon context for testing
	d.ctx = ctx
	d.cancel = cancel

	// Start workers
	d.startWorkers()

	// Wait a bit for workers to start
	time.Sleep(50 * time.Millisecond)

	// Wait for context to expire
	<-ctx.Done()

	// Wait for workers to finish
	done := make(chan struct{})
	go func() {
		d.workers.Wait()
		close(done)
	}()

	select {
	case <-done:
		// Good, workers finished
	case <-time.After(1 * time.Second):
		t.Error("Workers did not finish in time")
	}

	// Clean up
	d.Shutdown()
}

func TestDaemonSetAPIHandler(t *testing.T) {
	d := newTestDaemon(t)

	// Create a test handler
	testHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("test"))
	})

	// Set API handler
	d.SetAPIHandler(testHandler)

	// Clean up
	d.Shutdown()
}
