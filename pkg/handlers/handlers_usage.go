package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/TusharMannDev/jira-capacity-tracker/pkg/database"
)

// usageDays is how many days of history a usage report carries
const usageDays = 30

// GetUsage returns the usage report of any key
func (h *Handler) GetUsage(c *gin.Context) {
	id, err := paramID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	key, err := h.Store.APIKeyByID(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.writeUsage(c, key)
}

// GetMyUsage returns the usage report of the calling key
func (h *Handler) GetMyUsage(c *gin.Context) {
	raw, ok := c.Get("apiKey")
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "API Key context missing"})
		return
	}
	h.writeUsage(c, *raw.(*database.APIKey))
}

func (h *Handler) writeUsage(c *gin.Context, key database.APIKey) {
	report, err := h.Store.Usage(c.Request.Context(), key, usageDays)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}
