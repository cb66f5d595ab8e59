package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handler) ActiveTournaments(c *gin.Context) {
	ts, err := h.Tournaments.Active(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tournaments": ts})
}

func (h *Handler) JoinedTournaments(c *gin.Context) {
	uid, ok := mustUser(c)
	if !ok {
		return
	}
	ts, err := h.Tournaments.Joined(c.Request.Context(), uid)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tournaments": ts})
}

func (h *Handler) JoinTournament(c *gin.Context) {
	uid, ok := mustUser(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	status, err := h.Tournaments.Join(c.Request.Context(), id, uid)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": status})
}

func (h *Handler) TournamentParticipants(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	ps, err := h.Tournaments.Participants(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"participants": ps})
}
