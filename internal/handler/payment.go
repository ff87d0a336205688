package handler

import (
	"errors"
	"net/http"

	"sprintdesk/internal/logger"
	"sprintdesk/internal/model"
	"sprintdesk/internal/service"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type PaymentHandler struct {
	sprints  *service.SprintService
	payments *service.PaymentService
}

func NewPaymentHandler(sprints *service.SprintService, payments *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{sprints: sprints, payments: payments}
}

// POST /api/sprints/:id/payment-link
func (h *PaymentHandler) CreateLink(c *gin.Context) {
	sp, ok := loadSprint(c, h.sprints)
	if !ok {
		return
	}
	if sp.Status != model.StatusDraft && sp.Status != model.StatusPaymentPending {
		c.JSON(http.StatusConflict, gin.H{"error": "sprint is not awaiting payment"})
		return
	}

	sess, err := h.payments.CreateCheckout(c.Request.Context(), sp)
	if err != nil {
		logger.Error("checkout creation failed", "sprint", sp.ID, "err", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "payment provider unavailable, please retry"})
		return
	}

	if err := h.sprints.AttachPaymentRef(c.Request.Context(), sp.ID, sess.Reference); err != nil {
		if errors.Is(err, model.ErrInvalidTransition) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	logger.Info("payment.link", "sprint", sp.ID, "reference", sess.Reference)
	c.JSON(http.StatusOK, model.PaymentLinkResponse{URL: sess.URL, Reference: sess.Reference})
}

// POST /api/payments/confirm — provider webhook carrying the checkout
// reference issued in CreateLink.
func (h *PaymentHandler) Confirm(c *gin.Context) {
	var req model.PaymentConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	sp, err := h.sprints.ConfirmPayment(c.Request.Context(), req.Reference)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown payment reference"})
		return
	}
	if errors.Is(err, model.ErrInvalidTransition) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	logger.Info("payment.confirmed", "sprint", sp.ID)
	c.JSON(http.StatusOK, sp)
}
