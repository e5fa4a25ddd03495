package v1

import (
	"net/http"

	"github.com/billmint/billmint/internal/api/dto"
	ierr "github.com/billmint/billmint/internal/errors"
	"github.com/billmint/billmint/internal/logger"
	"github.com/billmint/billmint/internal/service"
	"github.com/gin-gonic/gin"
)

type PaymentHandler struct {
	paymentService service.PaymentService
	logger         *logger.Logger
}

func NewPaymentHandler(paymentService service.PaymentService, logger *logger.Logger) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
		logger:         logger,
	}
}

// RecordPayment handles POST /payments. An idempotent replay answers 200 with
// the original payment; a newly recorded payment answers 201.
func (h *PaymentHandler) RecordPayment(c *gin.Context) {
	var req dto.RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Errorw("failed to bind request", "error", err)
		c.Error(ierr.WithError(err).WithHint("invalid request").Mark(ierr.ErrValidation))
		return
	}

	payment, err := h.paymentService.RecordPayment(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}

	status := http.StatusCreated
	if payment.Duplicate {
		status = http.StatusOK
	}

	c.JSON(status, payment)
}

// ListPayments handles GET /payments
func (h *PaymentHandler) ListPayments(c *gin.Context) {
	resp, err := h.paymentService.ListPayments(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
