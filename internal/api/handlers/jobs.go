package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ovforge/ovforge/internal/convert"
	"github.com/ovforge/ovforge/internal/daemon"
)

// SubmitJobRequest represents a conversion request
type SubmitJobRequest struct {
	Model      string              `json:"model" binding:"required"`
	OutputName string              `json:"output_name"`
	Config     *convert.PassConfig `json:"config"`
}

// SubmitJob queues a new conversion job
func (h *Handlers) SubmitJob(c *gin.Context) {
	var req SubmitJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("invalid request: %v", err),
		})
		return
	}

	if req.Config != nil && !convert.Validate(req.Config) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "invalid conversion config",
		})
		return
	}

	outputName := req.OutputName
	if outputName == "" {
		outputName = strings.ReplaceAll(req.Model, "/", "_")
	}

	job, err := h.daemon.GetJobManager().Submit(req.Model, outputName, req.Config)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": fmt.Sprintf("failed to queue job: %v", err),
		})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"job_id":      job.ID,
		"model":       job.Model,
		"output_name": job.OutputName,
		"message":     "conversion queued",
	})
}

// ListJobs returns all conversion jobs
func (h *Handlers) ListJobs(c *gin.Context) {
	jm := h.daemon.GetJobManager()

	// Filter by status if provided
	status := c.Query("status")
	var jobs []*daemon.Job

	if status == "active" {
		jobs = jm.GetActiveJobs()
	} else {
		jobs = jm.GetAllJobs()
	}

	c.JSON(http.StatusOK, gin.H{
		"jobs":  jobs,
		"count": len(jobs),
	})
}

// GetJob returns details about a specific job
func (h *Handlers) GetJob(c *gin.Context) {
	jobID := c.Param("id")

	jm := h.daemon.GetJobManager()
	job, exists := jm.GetJob(jobID)
	if !exists {
		c.JSON(http.StatusNotFound, gin.H{
			"error": fmt.Sprintf("job %s not found", jobID),
		})
		return
	}

	c.JSON(http.StatusOK, job)
}

// CancelJob cancels a pending or running job
func (h *Handlers) CancelJob(c *gin.Context) {
	jobID := c.Param("id")

	jm := h.daemon.GetJobManager()
	if err := jm.CancelJob(jobID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("failed to cancel job: %v", err),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "job cancelled",
		"job_id":  jobID,
	})
}

// ValidateConfigRequest wraps a config for standalone validation
type ValidateConfigRequest struct {
	Config *convert.PassConfig `json:"config" binding:"required"`
}

// ValidateConfig checks a conversion config without queueing a job
func (h *Handlers) ValidateConfig(c *gin.Context) {
	var req ValidateConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("invalid request: %v", err),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"valid": convert.Validate(req.Config),
	})
}
