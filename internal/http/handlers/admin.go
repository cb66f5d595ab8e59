package handlers

import (
	"net/http"
	"strconv"

	"fitquest/internal/domain"

	"github.com/gin-gonic/gin"
)

type adjustRequest struct {
	UserID int64  `json:"userId"`
	Amount int64  `json:"amount"`
	Reason string `json:"reason"`
}

// AdjustBalance credits or debits tokens by operator decision
func (h *Handler) AdjustBalance(c *gin.Context) {
	var req adjustRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.UserID == 0 {
		badRequest(c, "userId and amount required")
		return
	}
	ctx := c.Request.Context()
	balance, err := h.Balance.Adjust(ctx, req.UserID, req.Amount, req.Reason)
	if err != nil {
		writeError(c, err)
		return
	}
	h.Audit.LogAdjustment(ctx, req.UserID, req.Amount, balance, req.Reason, c.ClientIP(), c.Request.UserAgent())
	c.JSON(http.StatusOK, gin.H{"userId": req.UserID, "balance": balance})
}

func (h *Handler) SweepPremium(c *gin.Context) {
	ctx := c.Request.Context()
	n, err := h.Premium.SweepExpired(ctx)
	if err != nil {
		writeError(c, err)
		return
	}
	h.Audit.LogWithRequest(ctx, 0, domain.AuditActionPremiumSweep, domain.AuditCategoryAdmin,
		c.ClientIP(), c.Request.UserAgent(), map[string]interface{}{"downgraded": n})
	c.JSON(http.StatusOK, gin.H{"downgraded": n})
}

// AuditLog lists audit entries for ?user_id= or, without it, the latest
// entries of ?category=
func (h *Handler) AuditLog(c *gin.Context) {
	ctx := c.Request.Context()
	limit := queryInt(c, "limit", 50)

	var (
		logs []*domain.AuditLog
		err  error
	)
	if v := c.Query("user_id"); v != "" {
		uid, perr := strconv.ParseInt(v, 10, 64)
		if perr != nil || uid <= 0 {
			badRequest(c, "invalid user_id")
			return
		}
		logs, err = h.Audit.ForUser(ctx, uid, limit)
	} else {
		logs, err = h.Audit.Recent(ctx, c.Query("category"), limit)
	}
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": logs})
}
