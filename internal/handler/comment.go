package handler

import (
	"net/http"

	"sprintdesk/internal/model"
	"sprintdesk/internal/service"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type CommentHandler struct {
	sprints *service.SprintService
	db      *gorm.DB
}

func NewCommentHandler(sprints *service.SprintService, db *gorm.DB) *CommentHandler {
	return &CommentHandler{sprints: sprints, db: db}
}

// GET /api/sprints/:id/comments?module=risk_assessment
func (h *CommentHandler) List(c *gin.Context) {
	sp, ok := loadSprint(c, h.sprints)
	if !ok {
		return
	}
	q := h.db.WithContext(c.Request.Context()).
		Preload("Author").
		Where("sprint_id = ?", sp.ID).
		Order("created_at ASC")
	if mt := c.Query("module"); mt != "" {
		q = q.Where("module_type = ?", mt)
	}

	var comments []model.Comment
	if err := q.Find(&comments).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if comments == nil {
		comments = []model.Comment{}
	}
	c.JSON(http.StatusOK, comments)
}

// POST /api/sprints/:id/comments — append-only, no edit or delete.
func (h *CommentHandler) Create(c *gin.Context) {
	sp, ok := loadSprint(c, h.sprints)
	if !ok {
		return
	}
	var req model.CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	comment := model.Comment{
		SprintID:   sp.ID,
		ModuleType: req.ModuleType,
		AuthorID:   c.GetInt("user_id"),
		Content:    req.Content,
	}
	if err := h.db.WithContext(c.Request.Context()).Create(&comment).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, comment)
}
