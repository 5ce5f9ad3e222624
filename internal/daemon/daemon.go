package daemon

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/ovforge/ovforge/internal/config"
	"github.com/ovforge/ovforge/internal/convert"
	"github.com/ovforge/ovforge/internal/exporter"
	"github.com/ovforge/ovforge/internal/models"
	"github.com/ovforge/ovforge/internal/storage"
	"github.com/ovforge/ovforge/pkg/types"
)

type Daemon struct {
	mu         sync.RWMutex
	ctx        context.Context
	cancel     context.CancelFunc
	config     *config.Config
	paths      *storage.Paths
	registry   *models.Registry
	exporter   convert.Exporter
	jobManager *JobManager
	state      *State
	server     *http.Server
	apiHandler http.Handler // Store the API handler
	workers    sync.WaitGroup
}

func New(cfg *config.Config) (*Daemon, error) {
	ctx, cancel := context.WithCancel(context.Background())

	paths, err := storage.NewPaths()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to resolve storage paths: %w", err)
	}
	if err := os.MkdirAll(paths.DaemonDir(), 0755); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to create daemon directory: %w", err)
	}

	d := &Daemon{
		ctx:    ctx,
		cancel: cancel,
		config: cfg,
		paths:  paths,
	}

	// Initialize state
	d.state = NewState(filepath.Join(paths.DaemonDir(), "state.json"))
	if err := d.state.Load(); err != nil {
		// Non-fatal: just log and continue with empty state
		fmt.Printf("Warning: could not load previous state: %v\n", err)
	}

	// Output registry for converted models
	d.registry, err = models.NewRegistry(paths)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to initialize output registry: %w", err)
	}

	// Export backend
	opts := exporter.Options{}
	if cfg != nil {
		opts.Binary = cfg.Export.Binary
		opts.TokenizerBinary = cfg.Export.TokenizerBinary
		opts.Env = cfg.Export.Env
	}
	d.exporter = exporter.New(opts)

	d.jobManager = NewJobManager(d.state, d.runConversion)
	d.jobManager.RestoreJobs(d.state.GetJobs())

	return d, nil
}

// runConversion executes one queued conversion and records its manifest
func (d *Daemon) runConversion(ctx context.Context, job *Job) (types.Handler, error) {
	outputPath := d.paths.OutputPath(job.OutputName)

	model := types.ModelReference{NameOrPath: job.Model}
	handler, err := convert.Run(ctx, d.exporter, model, job.Config, outputPath)
	if err != nil {
		return nil, err
	}

	if _, err := d.registry.RecordConversion(job.OutputName, job.Model, handler); err != nil {
		// The conversion itself succeeded; a manifest failure is not fatal
		fmt.Printf("Warning: could not record manifest for %s: %v\n", job.OutputName, err)
	}

	return handler, nil
}

func (d *Daemon) Start(apiPort int) error {
	// Start background workers
	d.startWorkers()

	// Start HTTP API server
	if err := d.startAPIServer(apiPort); err != nil {
		return fmt.Errorf("failed to start API server: %w", err)
	}

	// Setup signal handlers
	d.setupSignalHandlers()

	fmt.Printf("Daemon started on port %d (PID: %d)\n", apiPort, os.Getpid())

	return nil
}

// Wait blocks until the daemon is asked to stop
func (d *Daemon) Wait() {
	<-d.ctx.Done()
}

func (d *Daemon) startWorkers() {
	// Conversion worker
	d.workers.Add(1)
	go d.conversionWorker()

	// State persistence worker
	d.workers.Add(1)
	go d.statePersistenceWorker()

	// Cleanup worker
	d.workers.Add(1)
	go d.cleanupWorker()
}

func (d *Daemon) conversionWorker() {
	defer d.workers.Done()
	d.jobManager.Start(d.ctx)
}

func (d *Daemon) statePersistenceWorker() {
	defer d.workers.Done()
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-d.ctx.Done():
			return
		case <-ticker.C:
			if err := d.state.Save(); err != nil {
				fmt.Printf("Error saving state: %v\n", err)
			}
		}
	}
}

func (d *Daemon) cleanupWorker() {
	defer d.workers.Done()
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-d.ctx.Done():
			return
		case <-ticker.C:
			d.jobManager.CleanupOldJobs(7 * 24 * time.Hour)
		}
	}
}

func (d *Daemon) setupSignalHandlers() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nReceived shutdown signal, shutting down gracefully...")
		d.cancel()
	}()
}

func (d *Daemon) Shutdown() error {
	fmt.Println("Shutting down daemon...")

	// Stop accepting new requests
	if d.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := d.server.Shutdown(ctx); err != nil {
			fmt.Printf("Error shutting down API server: %v\n", err)
		}
	}

	// Stop the workers
	d.cancel()

	// Save state
	if err := d.state.Save(); err != nil {
		fmt.Printf("Error saving final state: %v\n", err)
	}

	// Wait for workers to finish
	d.workers.Wait()

	fmt.Println("Daemon shutdown complete")
	return nil
}

func (d *Daemon) startAPIServer(port int) error {
	// Use the handler set by SetAPIHandler if available, otherwise use basic routes
	d.mu.RLock()
	customHandler := d.apiHandler
	d.mu.RUnlock()

	var handler http.Handler
	if customHandler != nil {
		handler = customHandler
	} else {
		handler = d.setupAPIRoutes()
	}

	d.server = &http.Server{
		Addr:         fmt.Sprintf("127.0.0.1:%d", port),
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		if err := d.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Printf("API server error: %v\n", err)
		}
	}()

	return nil
}

func (d *Daemon) setupAPIRoutes() http.Handler {
	// Minimal fallback when the full API router has not been attached
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		switch {
		case r.URL.Path == "/api/v1/health" && r.Method == "GET":
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"status":"healthy"}`))

		case r.URL.Path == "/api/v1/status" && r.Method == "GET":
			status := d.GetStatus()
			data, _ := json.Marshal(status)
			w.Write(data)

		case r.URL.Path == "/api/v1/admin/shutdown" && r.Method == "POST":
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"message":"daemon shutting down"}`))
			go func() {
				time.Sleep(100 * time.Millisecond)
				d.cancel()
			}()

		default:
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"error":"endpoint not found"}`))
		}
	})
}

// SetAPIHandler sets a custom API handler for the daemon
func (d *Daemon) SetAPIHandler(handler http.Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.apiHandler = handler
	if d.server != nil {
		d.server.Handler = handler
	}
}

// GetStatus returns the current daemon status
func (d *Daemon) GetStatus() map[string]interface{} {
	d.mu.RLock()
	defer d.mu.RUnlock()

	stats := d.state.GetStatistics()

	return map[string]interface{}{
		"pid":               os.Getpid(),
		"uptime":            time.Since(d.state.StartTime).String(),
		"active_jobs":       d.jobManager.GetActiveCount(),
		"total_conversions": stats.TotalConversions,
		"total_failures":    stats.TotalFailures,
	}
}

// GetJobManager returns the job manager
func (d *Daemon) GetJobManager() *JobManager {
	return d.jobManager
}

// GetRegistry returns the output registry
func (d *Daemon) GetRegistry() *models.Registry {
	return d.registry
}

// GetState returns the daemon state
func (d *Daemon) GetState() *State {
	return d.state
}
