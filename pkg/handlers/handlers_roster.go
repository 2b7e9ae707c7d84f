package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/TusharMannDev/jira-capacity-tracker/pkg/models"
)

// ListMembers returns every team member
func (h *Handler) ListMembers(c *gin.Context) {
	people, err := h.Store.ListPeople(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, people)
}

// AvailableMembers returns members still on the team at the given date
func (h *Handler) AvailableMembers(c *gin.Context) {
	date, err := h.today(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	people, err := h.Store.AvailablePeople(c.Request.Context(), date)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, people)
}

// CreateMember adds a team member
func (h *Handler) CreateMember(c *gin.Context) {
	var p models.Person
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	created, err := h.Store.CreatePerson(c.Request.Context(), p)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// UpdateMember replaces a team member
func (h *Handler) UpdateMember(c *gin.Context) {
	id, err := paramID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var p models.Person
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := h.Store.UpdatePerson(c.Request.Context(), id, p)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// ListAssignments returns every task assignment
func (h *Handler) ListAssignments(c *gin.Context) {
	items, err := h.Store.ListAssignments(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// AssignmentsByAssignee returns every assignment of one person
func (h *Handler) AssignmentsByAssignee(c *gin.Context) {
	items, err := h.Store.AssignmentsByAssignee(c.Request.Context(), c.Param("name"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func validStatus(w models.WorkItem) bool {
	return w.Status == "" || w.Status.Valid()
}

// CreateAssignment adds a task assignment
func (h *Handler) CreateAssignment(c *gin.Context) {
	var w models.WorkItem
	if err := c.ShouldBindJSON(&w); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !validStatus(w) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown task_status " + string(w.Status)})
		return
	}

	created, err := h.Store.CreateAssignment(c.Request.Context(), w)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// UpdateAssignment replaces a task assignment
func (h *Handler) UpdateAssignment(c *gin.Context) {
	id, err := paramID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var w models.WorkItem
	if err := c.ShouldBindJSON(&w); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !validStatus(w) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown task_status " + string(w.Status)})
		return
	}

	updated, err := h.Store.UpdateAssignment(c.Request.Context(), id, w)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}
