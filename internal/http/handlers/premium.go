package handlers

import (
	"net/http"

	"fitquest/internal/domain"

	"github.com/gin-gonic/gin"
)

func (h *Handler) PremiumPlans(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"plans": h.Premium.Plans()})
}

type buyPremiumRequest struct {
	Plan   string               `json:"plan"`
	Method domain.PaymentMethod `json:"method"`
}

func (h *Handler) BuyPremium(c *gin.Context) {
	uid, ok := mustUser(c)
	if !ok {
		return
	}
	var req buyPremiumRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid body")
		return
	}
	ctx := c.Request.Context()
	purchase, err := h.Premium.BuyPremium(ctx, uid, req.Plan, req.Method)
	if err != nil {
		writeError(c, err)
		return
	}
	h.Audit.LogPurchase(ctx, uid, purchase, c.ClientIP(), c.Request.UserAgent())
	c.JSON(http.StatusOK, purchase)
}

func (h *Handler) PremiumHistory(c *gin.Context) {
	uid, ok := mustUser(c)
	if !ok {
		return
	}
	history, err := h.Premium.History(c.Request.Context(), uid)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": history})
}
