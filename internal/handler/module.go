package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"sprintdesk/internal/logger"
	"sprintdesk/internal/model"
	"sprintdesk/internal/service"
	"sprintdesk/internal/tier"

	"github.com/gin-gonic/gin"
)

type ModuleHandler struct {
	sprints   *service.SprintService
	modules   *service.ModuleService
	generator *service.GeneratorService
}

func NewModuleHandler(sprints *service.SprintService, modules *service.ModuleService, generator *service.GeneratorService) *ModuleHandler {
	return &ModuleHandler{sprints: sprints, modules: modules, generator: generator}
}

// Routes named after tier-specific report buttons in the dashboard.
// Kept alongside the generic :type/generate route for compatibility.
var namedGenerateRoutes = map[string]string{
	"generate-market-sizing-report": "market_sizing",
	"generate-assumption-report":    "assumption_mapping",
	"generate-assumption-playbook":  "assumption_playbook",
	"generate-decision":             "decision_engine",
}

func (h *ModuleHandler) RegisterNamed(group *gin.RouterGroup) {
	for route, moduleType := range namedGenerateRoutes {
		mt := moduleType
		group.POST("/sprints/:id/"+route, func(c *gin.Context) {
			h.generate(c, mt)
		})
	}
}

// GET /api/sprints/:id/modules
func (h *ModuleHandler) List(c *gin.Context) {
	sp, ok := loadSprint(c, h.sprints)
	if !ok {
		return
	}
	views, err := h.modules.Views(c.Request.Context(), sp)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, views)
}

// POST /api/sprints/:id/modules/:type/data
func (h *ModuleHandler) SaveData(c *gin.Context) {
	sp, ok := loadSprint(c, h.sprints)
	if !ok {
		return
	}
	var data json.RawMessage
	if err := c.ShouldBindJSON(&data); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	row, err := h.modules.SaveData(c.Request.Context(), sp, c.Param("type"), data)
	if writeModuleError(c, err) {
		return
	}
	c.JSON(http.StatusOK, row)
}

// POST /api/sprints/:id/modules/:type/complete
func (h *ModuleHandler) Complete(c *gin.Context) {
	sp, ok := loadSprint(c, h.sprints)
	if !ok {
		return
	}
	row, err := h.modules.Complete(c.Request.Context(), sp, c.Param("type"))
	if writeModuleError(c, err) {
		return
	}

	progress, err := h.sprints.RecomputeProgress(c.Request.Context(), sp.ID)
	if err != nil {
		logger.Error("progress recompute failed", "sprint", sp.ID, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	logger.Info("module.completed", "sprint", sp.ID, "module", row.ModuleType, "progress", progress)
	c.JSON(http.StatusOK, gin.H{"module": row, "progress": progress})
}

// POST /api/sprints/:id/modules/:type/generate
func (h *ModuleHandler) Generate(c *gin.Context) {
	h.generate(c, c.Param("type"))
}

func (h *ModuleHandler) generate(c *gin.Context, moduleType string) {
	sp, ok := loadSprint(c, h.sprints)
	if !ok {
		return
	}
	// lock state is checked before the network call so a locked module
	// never reaches the generator
	d, ok := tier.Find(sp.Tier, moduleType)
	if !ok {
		writeModuleError(c, service.ErrUnknownModule)
		return
	}
	if d.Locked {
		writeModuleError(c, service.ErrTierLocked)
		return
	}
	row, err := h.modules.Row(c.Request.Context(), sp.ID, moduleType)
	if err == nil && row.IsLocked {
		writeModuleError(c, service.ErrModuleLocked)
		return
	}
	if err := service.CheckPreconditions(moduleType, sp, sp.Intake); err != nil {
		writeModuleError(c, err)
		return
	}

	if moduleType == "decision_engine" {
		h.generateDecision(c, sp)
		return
	}

	report, err := h.generator.GenerateReport(c.Request.Context(), moduleType, sp, sp.Intake)
	if err != nil {
		if writeModuleError(c, err) {
			return
		}
		logger.Error("generation failed", "sprint", sp.ID, "module", moduleType, "err", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "report generation failed, please retry"})
		return
	}

	analysis, _ := json.Marshal(model.GenerateResponse{Report: report})
	if _, err := h.modules.SaveAnalysis(c.Request.Context(), sp, moduleType, analysis); err != nil {
		if writeModuleError(c, err) {
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	logger.Info("module.generated", "sprint", sp.ID, "module", moduleType)
	c.JSON(http.StatusOK, model.GenerateResponse{Report: report})
}

func (h *ModuleHandler) generateDecision(c *gin.Context, sp *model.Sprint) {
	analyzed, err := h.modules.CompletedCount(c.Request.Context(), sp.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	d, err := h.generator.GenerateDecision(c.Request.Context(), sp, sp.Intake, analyzed)
	if err != nil {
		logger.Error("decision generation failed", "sprint", sp.ID, "err", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "decision generation failed, please retry"})
		return
	}

	analysis, _ := json.Marshal(d)
	if _, err := h.modules.SaveAnalysis(c.Request.Context(), sp, "decision_engine", analysis); err != nil {
		if writeModuleError(c, err) {
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	logger.Info("decision.generated", "sprint", sp.ID, "recommendation", d.Recommendation, "confidence", d.Confidence)
	c.JSON(http.StatusOK, model.DecisionResponse{
		Report:          d.Report,
		Recommendation:  d.Recommendation,
		Confidence:      d.Confidence,
		ModulesAnalyzed: d.ModulesAnalyzed,
	})
}

// writeModuleError maps module service sentinels to HTTP statuses.
// Returns true when it wrote a response.
func writeModuleError(c *gin.Context, err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, service.ErrUnknownModule):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrTierLocked):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrModuleLocked):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrPrecondition):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		return false
	}
	return true
}
