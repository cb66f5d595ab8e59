package http

import (
	"time"

	"fitquest/internal/config"
	"fitquest/internal/http/handlers"
	"fitquest/internal/http/middleware"
	"fitquest/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Deps is everything the router needs.
type Deps struct {
	Handler *handlers.Handler
	Health  *handlers.HealthHandler
	Limiter *middleware.RateLimiter
	Hub     *ws.Hub
	Config  *config.Config
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	cfg := d.Config
	h := d.Handler

	r.Use(middleware.RequestID(), middleware.Metrics(), middleware.AccessLog())

	// Health checks and metrics (no rate limiting)
	r.GET("/health", d.Health.Health)
	r.GET("/healthz", d.Health.Liveness)
	r.GET("/readyz", d.Health.Readiness)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Reward events
	r.GET("/ws", ws.HandleWS(d.Hub, cfg.AllowedOrigin))

	apiWindow := time.Duration(cfg.APIRateWindow) * time.Second
	spinWindow := time.Duration(cfg.SpinRateWindow) * time.Second

	v1 := r.Group("/api/v1")
	v1.Use(d.Limiter.PerIP(cfg.APIRateLimit, apiWindow))

	// Public catalogue
	v1.POST("/users", h.Register)
	v1.GET("/levels", h.Levels)
	v1.GET("/badges", h.BadgeCatalog)
	v1.GET("/leaderboard", h.Leaderboard)
	v1.GET("/spin/prizes", h.Prizes)
	v1.GET("/challenges/templates", h.ChallengeTemplates)
	v1.GET("/tournaments", h.ActiveTournaments)
	v1.GET("/tournaments/:id/participants", h.TournamentParticipants)
	v1.GET("/premium/plans", h.PremiumPlans)

	auth := v1.Group("")
	auth.Use(middleware.JWT())

	// Profile
	auth.POST("/login", h.Login)
	auth.GET("/me", h.Me)
	auth.PATCH("/me/username", h.Rename)
	auth.GET("/me/xp", h.DailyXP)
	auth.GET("/me/transactions", h.Transactions)
	auth.GET("/me/badges", h.MyBadges)

	// Quests
	auth.GET("/quests/today", h.TodayQuests)
	auth.POST("/quests/claim-all", h.ClaimAllQuests)
	auth.POST("/quests/:code/claim", h.ClaimQuest)

	// Lucky wheel, rate limited per user
	auth.GET("/spin/status", h.SpinStatus)
	auth.POST("/spin", d.Limiter.PerUser("spin", cfg.SpinRateLimit, spinWindow), h.Spin)

	// Challenges
	challenges := auth.Group("/challenges")
	{
		challenges.POST("", h.SendChallenge)
		challenges.GET("/pending", h.PendingChallenges)
		challenges.GET("/accepted", h.AcceptedChallenges)
		challenges.GET("/active", h.ActiveChallenges)
		challenges.GET("/standings", h.ChallengeStandings)
		challenges.GET("/friends", h.FriendsToChallenge)
		challenges.POST("/:id/accept", h.AcceptChallenge)
		challenges.POST("/:id/reject", h.RejectChallenge)
		challenges.POST("/:id/complete", h.CompleteChallenge)
	}

	// Tournaments
	auth.GET("/tournaments/joined", h.JoinedTournaments)
	auth.POST("/tournaments/:id/join", h.JoinTournament)

	// Workouts
	auth.POST("/workouts", h.SaveWorkout)
	auth.GET("/workouts", h.WorkoutSessions)
	auth.GET("/workouts/calories", h.DailyCalories)

	// Premium
	auth.POST("/premium/buy", h.BuyPremium)
	auth.GET("/premium/history", h.PremiumHistory)

	// Friends
	friends := auth.Group("/friends")
	{
		friends.GET("", h.Friends)
		friends.GET("/requests", h.FriendRequests)
		friends.POST("/:id", h.RequestFriend())
		friends.POST("/:id/accept", h.AcceptFriend())
		friends.POST("/:id/reject", h.RejectFriend())
	}
	auth.POST("/messages", h.MessageSent)

	// Operator endpoints
	admin := v1.Group("/admin")
	admin.Use(middleware.AdminToken(cfg.AdminToken))
	{
		admin.POST("/balance", h.AdjustBalance)
		admin.POST("/premium/sweep", h.SweepPremium)
		admin.GET("/audit", h.AuditLog)
	}
}
