package handlers

import (
	"net/http"
	"time"

	"fitquest/internal/domain"

	"github.com/gin-gonic/gin"
)

type workoutRequest struct {
	WorkoutID      *int64                `json:"workoutId"`
	StartTime      *time.Time            `json:"startTime"`
	EndTime        *time.Time            `json:"endTime"`
	Duration       int64                 `json:"duration"`
	CaloriesBurned float64               `json:"caloriesBurned"`
	Notes          string                `json:"notes"`
	Exercises      []*domain.ExerciseLog `json:"exercises"`
}

// SaveWorkout stores a finished session. Fan-out failures do not fail the
// request; they are listed in failedSteps.
func (h *Handler) SaveWorkout(c *gin.Context) {
	uid, ok := mustUser(c)
	if !ok {
		return
	}
	var req workoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid body")
		return
	}

	session := &domain.WorkoutSession{
		UserID:         uid,
		WorkoutID:      req.WorkoutID,
		EndTime:        req.EndTime,
		Duration:       req.Duration,
		CaloriesBurned: req.CaloriesBurned,
		Notes:          req.Notes,
	}
	if req.StartTime != nil {
		session.StartTime = *req.StartTime
	}

	res, err := h.Workouts.SaveWorkoutSession(c.Request.Context(), session, req.Exercises)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (h *Handler) WorkoutSessions(c *gin.Context) {
	uid, ok := mustUser(c)
	if !ok {
		return
	}
	sessions, err := h.Workouts.Sessions(c.Request.Context(), uid, queryInt(c, "limit", 50))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}

func (h *Handler) DailyCalories(c *gin.Context) {
	uid, ok := mustUser(c)
	if !ok {
		return
	}
	days, err := h.Workouts.DailyCalories(c.Request.Context(), uid, queryInt(c, "days", 7))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"days": days})
}
