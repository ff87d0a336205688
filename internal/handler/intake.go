package handler

import (
	"net/http"

	"sprintdesk/internal/logger"
	"sprintdesk/internal/model"
	"sprintdesk/internal/service"

	"github.com/gin-gonic/gin"
)

type IntakeHandler struct {
	sprints *service.SprintService
	intake  *service.IntakeService
}

func NewIntakeHandler(sprints *service.SprintService, intake *service.IntakeService) *IntakeHandler {
	return &IntakeHandler{sprints: sprints, intake: intake}
}

// PUT /api/sprints/:id/intake
func (h *IntakeHandler) Update(c *gin.Context) {
	sp, ok := loadSprint(c, h.sprints)
	if !ok {
		return
	}
	var req model.IntakeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	row, err := h.intake.Upsert(c.Request.Context(), sp.ID, req)
	if err != nil {
		logger.Error("intake upsert failed", "sprint", sp.ID, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, row)
}
