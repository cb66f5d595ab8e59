package handlers

import (
	"net/http"

	"fitquest/internal/service"

	"github.com/gin-gonic/gin"
)

func (h *Handler) ChallengeTemplates(c *gin.Context) {
	templates, err := h.Challenges.Templates(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"challenges": templates})
}

func (h *Handler) SendChallenge(c *gin.Context) {
	uid, ok := mustUser(c)
	if !ok {
		return
	}
	var req service.SendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid body")
		return
	}
	req.SenderID = uid
	inv, err := h.Challenges.Send(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, inv)
}

func (h *Handler) AcceptChallenge(c *gin.Context) {
	uid, ok := mustUser(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	inv, err := h.Challenges.Accept(c.Request.Context(), uid, id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, inv)
}

func (h *Handler) RejectChallenge(c *gin.Context) {
	uid, ok := mustUser(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.Challenges.Reject(c.Request.Context(), uid, id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "rejected"})
}

// CompleteChallenge settles the caller's invite once a participant reached
// the target
func (h *Handler) CompleteChallenge(c *gin.Context) {
	uid, ok := mustUser(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	outcome, err := h.Challenges.CompleteFor(c.Request.Context(), uid, id)
	if err != nil {
		writeError(c, err)
		return
	}
	if outcome == nil {
		c.JSON(http.StatusOK, gin.H{"completed": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"completed": true, "outcome": outcome})
}

func (h *Handler) PendingChallenges(c *gin.Context) {
	uid, ok := mustUser(c)
	if !ok {
		return
	}
	invites, err := h.Challenges.Pending(c.Request.Context(), uid)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"invites": invites})
}

func (h *Handler) AcceptedChallenges(c *gin.Context) {
	uid, ok := mustUser(c)
	if !ok {
		return
	}
	invites, err := h.Challenges.Accepted(c.Request.Context(), uid)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"invites": invites})
}

func (h *Handler) ActiveChallenges(c *gin.Context) {
	uid, ok := mustUser(c)
	if !ok {
		return
	}
	invites, err := h.Challenges.Active(c.Request.Context(), uid)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"invites": invites})
}

func (h *Handler) ChallengeStandings(c *gin.Context) {
	uid, ok := mustUser(c)
	if !ok {
		return
	}
	standings, err := h.Challenges.Standings(c.Request.Context(), uid)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"standings": standings})
}

// FriendsToChallenge lists premium friends without an open invite of ?type=
func (h *Handler) FriendsToChallenge(c *gin.Context) {
	uid, ok := mustUser(c)
	if !ok {
		return
	}
	kind := c.Query("type")
	if kind == "" {
		badRequest(c, "type required")
		return
	}
	friends, err := h.Challenges.FriendsToChallenge(c.Request.Context(), uid, kind)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"friends": friends})
}
