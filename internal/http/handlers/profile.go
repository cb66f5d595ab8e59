package handlers

import (
	"net/http"
	"strings"
	"time"

	"fitquest/internal/domain"

	"github.com/gin-gonic/gin"
)

// Login starts a session: today's quests, login streak, premium expiry.
func (h *Handler) Login(c *gin.Context) {
	uid, ok := mustUser(c)
	if !ok {
		return
	}
	res, err := h.Activity.RecordLogin(c.Request.Context(), uid)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

type usernameRequest struct {
	Username string `json:"username"`
}

func (h *Handler) Register(c *gin.Context) {
	var req usernameRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Username) == "" {
		badRequest(c, "username required")
		return
	}
	u, err := h.Activity.Register(c.Request.Context(), req.Username)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, u)
}

func (h *Handler) Me(c *gin.Context) {
	uid, ok := mustUser(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	progress, err := h.Rewards.Progress(ctx, uid)
	if err != nil {
		writeError(c, err)
		return
	}
	premium, err := h.Premium.IsPremium(ctx, uid)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"progress": progress, "isPremium": premium})
}

func (h *Handler) Rename(c *gin.Context) {
	uid, ok := mustUser(c)
	if !ok {
		return
	}
	var req usernameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "username required")
		return
	}
	ctx := c.Request.Context()
	if err := h.Activity.Rename(ctx, uid, req.Username); err != nil {
		writeError(c, err)
		return
	}
	h.Audit.LogWithRequest(ctx, uid, domain.AuditActionUsernameChange, domain.AuditCategoryAccount,
		c.ClientIP(), c.Request.UserAgent(), map[string]interface{}{"username": strings.TrimSpace(req.Username)})
	c.JSON(http.StatusOK, gin.H{"username": strings.TrimSpace(req.Username)})
}

// DailyXP reports XP earned on ?date=YYYY-MM-DD, today by default.
func (h *Handler) DailyXP(c *gin.Context) {
	uid, ok := mustUser(c)
	if !ok {
		return
	}
	day := time.Now()
	if v := c.Query("date"); v != "" {
		d, err := time.Parse(time.DateOnly, v)
		if err != nil {
			badRequest(c, "date must be YYYY-MM-DD")
			return
		}
		day = d
	}
	xp, err := h.Rewards.DailyXP(c.Request.Context(), uid, day)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"date": domain.Day(day).Format(time.DateOnly), "xp": xp})
}

func (h *Handler) Transactions(c *gin.Context) {
	uid, ok := mustUser(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	balance, err := h.Balance.GetBalance(ctx, uid)
	if err != nil {
		writeError(c, err)
		return
	}
	txs, err := h.Balance.GetTransactionHistory(ctx, uid, queryInt(c, "limit", 20))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"balance": balance, "transactions": txs})
}

func (h *Handler) Leaderboard(c *gin.Context) {
	entries, err := h.Rewards.Leaderboard(c.Request.Context(), queryInt(c, "limit", 20))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"leaderboard": entries})
}

func (h *Handler) Levels(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"levels": h.Rewards.Levels().Levels()})
}

func (h *Handler) BadgeCatalog(c *gin.Context) {
	badges, err := h.Badges.All(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"badges": badges})
}

func (h *Handler) MyBadges(c *gin.Context) {
	uid, ok := mustUser(c)
	if !ok {
		return
	}
	badges, err := h.Badges.ForUser(c.Request.Context(), uid)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"badges": badges})
}
