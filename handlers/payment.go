package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"talkthreads/events"
	"talkthreads/models"
	"talkthreads/payments"
)

type PaymentIntentRequest struct {
	Price float64 `json:"price"`
}

type PremiumUserRequest struct {
	Email         string  `json:"email" binding:"required"`
	Name          string  `json:"name"`
	Price         float64 `json:"price" binding:"required,gt=0"`
	TransactionID string  `json:"transactionId" binding:"required"`
}

func (h *Handler) paymentsUnavailable(c *gin.Context) bool {
	if h.payments == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Payments are not configured"})
		return true
	}
	return false
}

// CreatePaymentIntent opens a payment intent for price and returns its
// client secret.
func (h *Handler) CreatePaymentIntent(c *gin.Context) {
	if h.paymentsUnavailable(c) {
		return
	}

	var req PaymentIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	amount := payments.ToMinorUnits(req.Price)
	if amount <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid price"})
		return
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	intent, err := h.payments.CreateIntent(ctx, amount)
	if err != nil {
		log.Printf("[CreatePaymentIntent] provider error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create payment intent"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"clientSecret": intent.ClientSecret})
}

// CreatePremiumUser grants premium status once the payment intent named by
// transactionId has succeeded for exactly the submitted price in the
// configured currency.
func (h *Handler) CreatePremiumUser(c *gin.Context) {
	if h.paymentsUnavailable(c) {
		return
	}

	var req PremiumUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	intent, err := h.payments.GetIntent(ctx, strings.TrimSpace(req.TransactionID))
	switch {
	case errors.Is(err, payments.ErrIntentNotFound):
		c.JSON(http.StatusPaymentRequired, gin.H{"error": "Unknown payment"})
		return
	case err != nil:
		log.Printf("[CreatePremiumUser] provider error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify payment"})
		return
	}
	if !intent.Succeeded() ||
		intent.Amount != payments.ToMinorUnits(req.Price) ||
		!strings.EqualFold(intent.Currency, h.payments.Currency()) {
		log.Printf("[CreatePremiumUser] payment %s not accepted: status=%s amount=%d currency=%s",
			intent.ID, intent.Status, intent.Amount, intent.Currency)
		c.JSON(http.StatusPaymentRequired, gin.H{"error": "Payment not completed"})
		return
	}

	premium := models.PremiumUser{
		Email:         req.Email,
		Name:          req.Name,
		Price:         req.Price,
		TransactionID: intent.ID,
	}
	id, err := h.store.UpgradePremium(ctx, &premium)
	if err != nil {
		storeError(c, "CreatePremiumUser", err)
		return
	}

	h.publish(ctx, events.UserPremium, premium)
	c.JSON(http.StatusCreated, models.NewInsertResult(id))
}
