package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// ListModels returns all converted models in the output registry
func (h *Handlers) ListModels(c *gin.Context) {
	registry := h.daemon.GetRegistry()

	if err := registry.Rescan(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": fmt.Sprintf("failed to scan outputs: %v", err),
		})
		return
	}

	var modelDetails []map[string]interface{}
	for _, manifest := range registry.GetAllManifests() {
		modelMap := map[string]interface{}{
			"name":       manifest.Name,
			"components": manifest.Components,
			"total_size": manifest.TotalSize,
			"created_at": manifest.CreatedAt,
		}
		if manifest.SourceModel != "" {
			modelMap["source_model"] = manifest.SourceModel
		}
		modelDetails = append(modelDetails, modelMap)
	}

	c.JSON(http.StatusOK, gin.H{
		"models": modelDetails,
		"count":  len(modelDetails),
	})
}

// GetModel returns the full manifest of a converted model
func (h *Handlers) GetModel(c *gin.Context) {
	modelName := c.Param("name")

	registry := h.daemon.GetRegistry()
	manifest, err := registry.GetManifest(modelName)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": fmt.Sprintf("model %s not found", modelName),
		})
		return
	}

	c.JSON(http.StatusOK, manifest)
}

// RemoveModel drops a converted model from the registry. Files stay on disk.
func (h *Handlers) RemoveModel(c *gin.Context) {
	modelName := c.Param("name")

	registry := h.daemon.GetRegistry()
	if err := registry.DeleteModel(modelName); err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": fmt.Sprintf("model %s not found: %v", modelName, err),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":    "model removed from registry",
		"model_name": modelName,
	})
}
