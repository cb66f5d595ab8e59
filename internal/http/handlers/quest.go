package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// TodayQuests lists today's quests, creating the rows on first read
func (h *Handler) TodayQuests(c *gin.Context) {
	uid, ok := mustUser(c)
	if !ok {
		return
	}
	quests, err := h.Quests.Today(c.Request.Context(), uid)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"quests": quests})
}

func (h *Handler) ClaimQuest(c *gin.Context) {
	uid, ok := mustUser(c)
	if !ok {
		return
	}
	code := strings.ToUpper(strings.TrimSpace(c.Param("code")))
	claim, err := h.Quests.Claim(c.Request.Context(), uid, code)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, claim)
}

func (h *Handler) ClaimAllQuests(c *gin.Context) {
	uid, ok := mustUser(c)
	if !ok {
		return
	}
	xp, res, err := h.Quests.ClaimAll(c.Request.Context(), uid)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"xpGranted": xp, "result": res})
}
