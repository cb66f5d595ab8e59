package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"fitquest/internal/domain"
	"fitquest/internal/logger"
	"fitquest/internal/service"

	"github.com/gin-gonic/gin"
)

// Handler exposes the engine services over HTTP.
type Handler struct {
	*service.Engine
}

func NewHandler(engine *service.Engine) *Handler {
	return &Handler{Engine: engine}
}

// getUserID extracts user_id set by the JWT middleware
func getUserID(c *gin.Context) (int64, bool) {
	uidVal, ok := c.Get("user_id")
	if !ok {
		return 0, false
	}
	switch v := uidVal.(type) {
	case int64:
		return v, true
	case float64:
		return int64(v), true
	default:
		return 0, false
	}
}

// mustUser writes 401 and returns false when no user is authenticated.
func mustUser(c *gin.Context) (int64, bool) {
	uid, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
	}
	return uid, ok
}

func paramID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}

func queryInt(c *gin.Context, name string, def int) int {
	if v := c.Query(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

// StatusForKind maps an engine error kind to an HTTP status.
func StatusForKind(kind string) int {
	switch kind {
	case domain.ErrAlreadySpun.Kind,
		domain.ErrNotEnoughTokens.Kind,
		domain.ErrPlanNotBuyableWithTokens.Kind:
		return http.StatusForbidden
	case domain.ErrQuestNotFound.Kind,
		domain.ErrQuestNotDone.Kind,
		domain.ErrQuestAlreadyClaimed.Kind,
		domain.ErrInvalidPlan.Kind,
		domain.ErrInvalidMethod.Kind,
		domain.ErrMissingData.Kind,
		domain.ErrInviteNotPending.Kind,
		domain.ErrTournamentClosed.Kind,
		domain.ErrInvalidAmount.Kind:
		return http.StatusBadRequest
	case domain.ErrInviteNotFound.Kind,
		domain.ErrTournamentNotFound.Kind,
		domain.ErrUserNotFound.Kind,
		domain.ErrChallengeNotFound.Kind:
		return http.StatusNotFound
	case domain.ErrUsernameExists.Kind:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err. Server errors are logged and hidden behind a
// generic message.
func writeError(c *gin.Context, err error) {
	kind := domain.KindOf(err)
	status := StatusForKind(kind)
	if status == http.StatusInternalServerError {
		logger.WithContext(c.Request.Context()).Error("request failed",
			"path", c.FullPath(), "kind", kind, "error", err)
		c.JSON(status, gin.H{"error": "server error", "kind": domain.KindServerError})
		return
	}

	msg := err.Error()
	var de *domain.Error
	if errors.As(err, &de) {
		msg = de.Message
	}
	c.JSON(status, gin.H{"error": msg, "kind": kind})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg, "kind": domain.ErrMissingData.Kind})
}
