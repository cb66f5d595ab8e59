package domain

import "errors"

// Error is a named engine failure. Handlers map Kind to a status code.
type Error struct {
	Kind    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func newError(kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

var (
	ErrAlreadySpun              = newError("AlreadySpun", "already spun today")
	ErrNotEnoughTokens          = newError("NotEnoughTokens", "not enough tokens")
	ErrNoPrizesConfigured       = newError("NoPrizesConfigured", "no prizes configured")
	ErrQuestNotFound            = newError("QuestNotFound", "quest not found for today")
	ErrQuestNotDone             = newError("QuestNotDone", "quest is not completed yet")
	ErrQuestAlreadyClaimed      = newError("QuestAlreadyClaimed", "quest reward already claimed")
	ErrInviteNotFound           = newError("InviteNotFound", "challenge invite not found")
	ErrInviteNotPending         = newError("InviteNotPending", "challenge invite is no longer pending")
	ErrChallengeNotFound        = newError("ChallengeNotFound", "challenge template not found")
	ErrInvalidPlan              = newError("InvalidPlan", "invalid premium plan")
	ErrInvalidMethod            = newError("InvalidMethod", "invalid payment method")
	ErrPlanNotBuyableWithTokens = newError("PlanNotBuyableWithTokens", "plan cannot be bought with tokens")
	ErrUsernameExists           = newError("UsernameExists", "username already taken")
	ErrMissingData              = newError("MissingData", "missing required data")
	ErrUserNotFound             = newError("UserNotFound", "user not found")
	ErrTournamentNotFound       = newError("TournamentNotFound", "tournament not found")
	ErrTournamentClosed         = newError("TournamentClosed", "tournament is not open")
	ErrInvalidAmount            = newError("InvalidAmount", "invalid amount")
)

// KindServerError is reported for failures that carry no engine kind.
const KindServerError = "ServerError"

// KindOf returns the kind of the first engine error in err's chain.
func KindOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindServerError
}
