package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type spinRequest struct {
	Force bool `json:"force"`
}

func (h *Handler) Spin(c *gin.Context) {
	uid, ok := mustUser(c)
	if !ok {
		return
	}
	var req spinRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid body")
			return
		}
	}
	res, err := h.Spins.Spin(c.Request.Context(), uid, req.Force)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) SpinStatus(c *gin.Context) {
	uid, ok := mustUser(c)
	if !ok {
		return
	}
	status, err := h.Spins.Status(c.Request.Context(), uid)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": status, "respinCost": h.Spins.RespinCost()})
}

func (h *Handler) Prizes(c *gin.Context) {
	prizes, err := h.Spins.Prizes(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"prizes": prizes})
}
