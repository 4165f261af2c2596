package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"terarelay/internal"
	"terarelay/pipeline"
	"terarelay/resolver"
)

type handlers struct {
	orch     *pipeline.Orchestrator
	registry *resolver.Registry
}

type batchRequest struct {
	Links []string `json:"links" binding:"required"`
}

// processBatch runs one batch synchronously and returns the per-link
// outcomes in input order.
func (h *handlers) processBatch(c *gin.Context) {
	var req batchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "body must contain a links array"})
		return
	}

	result, err := h.orch.ProcessBatch(c.Request.Context(), req.Links, nil)
	if err != nil {
		if internal.IsType(err, internal.ErrNoLinks) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "no eligible links in batch"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"results":   result.Outcomes,
		"succeeded": result.Succeeded(),
	})
}

// listBackends returns the known resolver backends and the active one.
func (h *handlers) listBackends(c *gin.Context) {
	active := h.registry.Active(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"active":   active.ID,
		"backends": h.registry.List(),
	})
}

// switchBackend persists a new resolver backend selection.
func (h *handlers) switchBackend(c *gin.Context) {
	id := c.Param("id")
	if err := h.registry.SetActive(c.Request.Context(), id); err != nil {
		if internal.IsType(err, internal.ErrUnknownBackend) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}
