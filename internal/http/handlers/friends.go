package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handler) Friends(c *gin.Context) {
	uid, ok := mustUser(c)
	if !ok {
		return
	}
	friends, err := h.Activity.Friends(c.Request.Context(), uid)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"friends": friends})
}

func (h *Handler) FriendRequests(c *gin.Context) {
	uid, ok := mustUser(c)
	if !ok {
		return
	}
	requests, err := h.Activity.FriendRequests(c.Request.Context(), uid)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"requests": requests})
}

// friendAction runs fn for the authenticated user and the :id user
func (h *Handler) friendAction(status string, fn func(c *gin.Context, userID, friendID int64) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid, ok := mustUser(c)
		if !ok {
			return
		}
		fid, ok := paramID(c, "id")
		if !ok {
			return
		}
		if err := fn(c, uid, fid); err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": status})
	}
}

func (h *Handler) RequestFriend() gin.HandlerFunc {
	return h.friendAction("requested", func(c *gin.Context, uid, fid int64) error {
		return h.Activity.RequestFriend(c.Request.Context(), uid, fid)
	})
}

func (h *Handler) AcceptFriend() gin.HandlerFunc {
	return h.friendAction("accepted", func(c *gin.Context, uid, fid int64) error {
		return h.Activity.AcceptFriend(c.Request.Context(), uid, fid)
	})
}

func (h *Handler) RejectFriend() gin.HandlerFunc {
	return h.friendAction("rejected", func(c *gin.Context, uid, fid int64) error {
		return h.Activity.RejectFriend(c.Request.Context(), uid, fid)
	})
}

type messageRequest struct {
	ReceiverID int64 `json:"receiverId"`
}

// MessageSent records that the user messaged a friend (MESSAGE_FRIEND quest)
func (h *Handler) MessageSent(c *gin.Context) {
	uid, ok := mustUser(c)
	if !ok {
		return
	}
	var req messageRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.ReceiverID == 0 {
		badRequest(c, "receiverId required")
		return
	}
	if err := h.Activity.RecordMessage(c.Request.Context(), uid, req.ReceiverID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "recorded"})
}
