package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/TusharMannDev/jira-capacity-tracker/pkg/models"
)

// ValidateInput checks a roster and work item payload before evaluation.
// Structural problems make the payload invalid; data that the calculator
// would silently ignore is reported as warnings.
func (h *Handler) ValidateInput(c *gin.Context) {
	var input models.EvaluateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"valid": false,
			"error": err.Error(),
		})
		return
	}

	if len(input.People) == 0 {
		c.JSON(http.StatusOK, gin.H{
			"valid": false,
			"error": "At least one person is required",
		})
		return
	}

	names := make(map[string]bool)
	for _, p := range input.People {
		if names[p.Name] {
			c.JSON(http.StatusOK, gin.H{"valid": false, "error": "Duplicate person name: " + p.Name})
			return
		}
		names[p.Name] = true
	}

	warnings := make([]string, 0)
	for _, p := range input.People {
		if p.DailyCapacity() == 0 {
			warnings = append(warnings, fmt.Sprintf("%s has no daily capacity", p.Name))
		}
	}
	for _, w := range input.Items {
		if w.Status != "" && !w.Status.Valid() {
			warnings = append(warnings, fmt.Sprintf("%s has unknown status %s", w.IssueKey, w.Status))
		}
		if !names[w.AssigneeName] {
			warnings = append(warnings, fmt.Sprintf("%s is assigned to unknown person %s", w.IssueKey, w.AssigneeName))
		}
		if w.RemainingHours != nil && *w.RemainingHours < 0 {
			warnings = append(warnings, fmt.Sprintf("%s has negative remaining hours", w.IssueKey))
		}
		if w.EstimatedCompletionDate == nil {
			warnings = append(warnings, fmt.Sprintf("%s has no estimated completion date", w.IssueKey))
			continue
		}
		if w.StartDate != nil && w.EstimatedCompletionDate.Before(*w.StartDate) {
			warnings = append(warnings, fmt.Sprintf("%s completes before it starts", w.IssueKey))
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"valid":    true,
		"warnings": warnings,
		"stats": gin.H{
			"person_count": len(input.People),
			"item_count":   len(input.Items),
		},
	})
}
