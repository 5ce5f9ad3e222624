package client

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ovforge/ovforge/internal/convert"
)

func TestNewClient(t *testing.T) {
	client := NewClient("http://localhost:7684")
	assert.NotNil(t, client)
	assert.Equal(t, "http://localhost:7684", client.baseURL)
	assert.NotNil(t, client.httpClient)
}

func TestClientHealth(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/health", r.URL.Path)
		assert.Equal(t, "GET", r.Method)

		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status": "healthy",
			"time":   "2025-01-01T00:00:00Z",
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	err := client.Health()
	assert.NoError(t, err)
}

func TestClientHealthError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	err := client.Health()
	assert.Error(t, err)
}

func TestClientGetStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/status", r.URL.Path)
		assert.Equal(t, "GET", r.Method)

		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"pid":               12345,
			"uptime":            "1h30m",
			"active_jobs":       1,
			"total_conversions": 7,
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	status, err := client.GetStatus()
	require.NoError(t, err)
	assert.NotNil(t, status)
	assert.Equal(t, float64(12345), status["pid"])
	assert.Equal(t, float64(7), status["total_conversions"])
}

func TestClientSubmitJob(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/jobs", r.URL.Path)
		assert.Equal(t, "POST", r.Method)

		var req map[string]interface{}
		json.NewDecoder(r.Body).Decode(&req)
		assert.Equal(t, "microsoft/phi-2", req["model"])
		assert.Equal(t, "phi-2-int8", req["output_name"])

		cfg, ok := req["config"].(map[string]interface{})
		require.True(t, ok)
		quant, ok := cfg["ov_quant_config"].(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, "int8", quant["weight_format"])

		w.WriteHeader(http.StatusAccepted)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"job_id":      "job-123",
			"model":       "microsoft/phi-2",
			"output_name": "phi-2-int8",
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	cfg := &convert.PassConfig{
		Quant: &convert.QuantOptions{WeightFormat: "int8"},
	}
	result, err := client.SubmitJob("microsoft/phi-2", "phi-2-int8", cfg)
	require.NoError(t, err)
	assert.Equal(t, "job-123", result["job_id"])
}

func TestClientSubmitJobRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error": "invalid conversion config",
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.SubmitJob("microsoft/phi-2", "", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid conversion config")
}

func TestClientListJobs(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/jobs", r.URL.Path)
		assert.Equal(t, "GET", r.Method)
		assert.Equal(t, "active", r.URL.Query().Get("status"))

		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"jobs": []map[string]interface{}{
				{"id": "j1", "status": "running"},
				{"id": "j2", "status": "pending"},
			},
			"count": 2,
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	jobs, err := client.ListJobs("active")
	require.NoError(t, err)
	assert.Len(t, jobs, 2)
	assert.Equal(t, "j1", jobs[0]["id"])
}

func TestClientGetJob(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/jobs/job-123", r.URL.Path)
		assert.Equal(t, "GET", r.Method)

		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":     "job-123",
			"status": "completed",
			"model":  "microsoft/phi-2",
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	job, err := client.GetJob("job-123")
	require.NoError(t, err)
	assert.Equal(t, "job-123", job["id"])
	assert.Equal(t, "completed", job["status"])
}

func TestClientGetJobNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.GetJob("missing")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestClientCancelJob(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/jobs/job-123", r.URL.Path)
		assert.Equal(t, "DELETE", r.Method)

		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"message": "job cancelled",
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	err := client.CancelJob("job-123")
	assert.NoError(t, err)
}

func TestClientValidateConfig(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/validate", r.URL.Path)
		assert.Equal(t, "POST", r.Method)

		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"valid": true,
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	cfg := &convert.PassConfig{
		ExtraArgs: &convert.ExtraArgs{Library: "diffusers"},
	}
	valid, err := client.ValidateConfig(cfg)
	require.NoError(t, err)
	assert.True(t, valid)
}

func TestClientListModels(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/models", r.URL.Path)
		assert.Equal(t, "GET", r.Method)

		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"models": []map[string]interface{}{
				{"name": "phi-2", "total_size": 1000},
				{"name": "sdxl-base", "total_size": 2000},
			},
			"count": 2,
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	models, err := client.ListModels()
	require.NoError(t, err)
	assert.Len(t, models, 2)
	assert.Equal(t, "phi-2", models[0]["name"])
}

func TestClientGetModel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/models/phi-2", r.URL.Path)
		assert.Equal(t, "GET", r.Method)

		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"name":       "phi-2",
			"components": []string{"openvino_model"},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	model, err := client.GetModel("phi-2")
	require.NoError(t, err)
	assert.Equal(t, "phi-2", model["name"])
}

func TestClientGetModelNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.GetModel("nonexistent")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestClientRemoveModel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/models/phi-2", r.URL.Path)
		assert.Equal(t, "DELETE", r.Method)

		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"message": "model removed",
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	err := client.RemoveModel("phi-2")
	assert.NoError(t, err)
}

func TestClientShutdown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/admin/shutdown", r.URL.Path)
		assert.Equal(t, "POST", r.Method)

		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"message": "daemon shutting down",
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	err := client.Shutdown()
	assert.NoError(t, err)
}
