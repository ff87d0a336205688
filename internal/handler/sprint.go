package handler

import (
	"errors"
	"net/http"
	"strconv"

	"sprintdesk/internal/logger"
	"sprintdesk/internal/model"
	"sprintdesk/internal/service"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type SprintHandler struct{ sprints *service.SprintService }

func NewSprintHandler(sprints *service.SprintService) *SprintHandler {
	return &SprintHandler{sprints: sprints}
}

// loadSprint parses :id, fetches the sprint and enforces visibility:
// consultants see everything, clients only their own. A foreign sprint
// reads as not-found so ids cannot be probed.
func loadSprint(c *gin.Context, sprints *service.SprintService) (*model.Sprint, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return nil, false
	}
	sp, err := sprints.Get(c.Request.Context(), id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "sprint not found"})
		return nil, false
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return nil, false
	}
	if !c.GetBool("is_consultant") && sp.ClientID != c.GetInt("user_id") {
		c.JSON(http.StatusNotFound, gin.H{"error": "sprint not found"})
		return nil, false
	}
	return sp, true
}

// GET /api/sprints
func (h *SprintHandler) List(c *gin.Context) {
	sprints, err := h.sprints.List(c.Request.Context(), c.GetInt("user_id"), c.GetBool("is_consultant"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if sprints == nil {
		sprints = []model.Sprint{}
	}
	c.JSON(http.StatusOK, sprints)
}

// GET /api/sprints/:id
func (h *SprintHandler) Get(c *gin.Context) {
	sp, ok := loadSprint(c, h.sprints)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, sp)
}

// POST /api/consultant/create-sprint
func (h *SprintHandler) Create(c *gin.Context) {
	var req model.CreateSprintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sp, err := h.sprints.Create(c.Request.Context(), c.GetInt("user_id"), req)
	if err != nil {
		logger.Error("create sprint failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	logger.Info("sprint.created", "id", sp.ID, "tier", sp.Tier, "price", sp.Price)
	c.JSON(http.StatusOK, sp)
}

// POST /api/sprints/:id/status
func (h *SprintHandler) Transition(c *gin.Context) {
	sp, ok := loadSprint(c, h.sprints)
	if !ok {
		return
	}
	var req model.TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if !model.IsStatus(req.Status) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown status"})
		return
	}

	updated, err := h.sprints.Transition(c.Request.Context(), sp.ID, req.Status)
	if errors.Is(err, model.ErrInvalidTransition) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	logger.Info("sprint.status", "id", sp.ID, "from", sp.Status, "to", updated.Status)
	c.JSON(http.StatusOK, updated)
}
