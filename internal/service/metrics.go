package service

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	XPGranted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "fitquest_xp_granted_total",
			Help: "Total XP granted through the reward resolver",
		},
	)
	TokensMoved = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fitquest_tokens_total",
			Help: "Tokens credited or debited by the engine",
		},
		[]string{"direction", "reason"},
	)
	BadgesGranted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fitquest_badges_granted_total",
			Help: "Badges granted for the first time",
		},
		[]string{"badge"},
	)
	FanoutFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fitquest_fanout_failures_total",
			Help: "Workout ingestion fan-out steps that failed",
		},
		[]string{"step"},
	)
	PremiumDowngrades = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "fitquest_premium_downgrades_total",
			Help: "Expired premium entitlements reverted to user",
		},
	)
)

func init() {
	prometheus.MustRegister(XPGranted)
	prometheus.MustRegister(TokensMoved)
	prometheus.MustRegister(BadgesGranted)
	prometheus.MustRegister(FanoutFailures)
	prometheus.MustRegister(PremiumDowngrades)
}
