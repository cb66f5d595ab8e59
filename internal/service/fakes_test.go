package service

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"fitquest/internal/config"
	"fitquest/internal/domain"
)

// memDB holds the user rows shared by the fakes that touch balances.
type memDB struct {
	mu      sync.Mutex
	nextID  int64
	users   map[int64]*domain.User
	txs     []*domain.Transaction
	dailyXP map[string]int64
	// xpErr fails the next XP write for a user, then clears
	xpErr map[int64]error
}

func newMemDB() *memDB {
	return &memDB{users: make(map[int64]*domain.User), dailyXP: make(map[string]int64), xpErr: make(map[int64]error)}
}

func (db *memDB) id() int64 {
	db.nextID++
	return db.nextID
}

func (db *memDB) addUser(username string) *domain.User {
	db.mu.Lock()
	defer db.mu.Unlock()
	u := &domain.User{ID: db.id(), Username: username, Role: domain.RoleUser}
	db.users[u.ID] = u
	return u
}

func (db *memDB) user(id int64) domain.User {
	db.mu.Lock()
	defer db.mu.Unlock()
	return *db.users[id]
}

// must hold mu
func (db *memDB) move(userID, amount int64, txType string, meta map[string]interface{}) (int64, error) {
	u, ok := db.users[userID]
	if !ok {
		return 0, domain.ErrUserNotFound
	}
	if u.Tokens+amount < 0 {
		return 0, domain.ErrNotEnoughTokens
	}
	u.Tokens += amount
	db.txs = append(db.txs, &domain.Transaction{ID: db.id(), UserID: userID, Type: txType, Amount: amount, Meta: meta})
	return u.Tokens, nil
}

type memSnapshot struct {
	users   map[int64]domain.User
	txs     int
	dailyXP map[string]int64
}

// must hold mu
func (db *memDB) snapshot() memSnapshot {
	snap := memSnapshot{users: make(map[int64]domain.User, len(db.users)), txs: len(db.txs), dailyXP: make(map[string]int64, len(db.dailyXP))}
	for id, u := range db.users {
		snap.users[id] = *u
	}
	for k, v := range db.dailyXP {
		snap.dailyXP[k] = v
	}
	return snap
}

// must hold mu
func (db *memDB) restore(snap memSnapshot) {
	for id, u := range snap.users {
		*db.users[id] = u
	}
	db.txs = db.txs[:snap.txs]
	db.dailyXP = snap.dailyXP
}

type fakeLedger struct{ db *memDB }

func (l *fakeLedger) GetUser(_ context.Context, userID int64) (*domain.User, error) {
	l.db.mu.Lock()
	defer l.db.mu.Unlock()
	u, ok := l.db.users[userID]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (l *fakeLedger) CreateUser(_ context.Context, username string) (*domain.User, error) {
	l.db.mu.Lock()
	for _, u := range l.db.users {
		if u.Username == username {
			l.db.mu.Unlock()
			return nil, domain.ErrUsernameExists
		}
	}
	l.db.mu.Unlock()
	return l.db.addUser(username), nil
}

func (l *fakeLedger) AddXP(_ context.Context, userID, delta int64, day time.Time, bonus func(oldXP, newXP int64) int64) (domain.XPChange, error) {
	l.db.mu.Lock()
	defer l.db.mu.Unlock()
	return l.db.addXP(userID, delta, day, bonus)
}

// must hold mu
func (db *memDB) addXP(userID, delta int64, day time.Time, bonus func(oldXP, newXP int64) int64) (domain.XPChange, error) {
	if err, ok := db.xpErr[userID]; ok {
		delete(db.xpErr, userID)
		return domain.XPChange{}, err
	}
	u, ok := db.users[userID]
	if !ok {
		return domain.XPChange{}, domain.ErrUserNotFound
	}
	change := domain.XPChange{OldXP: u.XP, NewXP: u.XP + delta}
	u.XP = change.NewXP
	db.dailyXP[dailyKey(userID, day)] += delta
	if reward := bonus(change.OldXP, change.NewXP); reward > 0 {
		if _, err := db.move(userID, reward, domain.TxLevelUp, nil); err != nil {
			return domain.XPChange{}, err
		}
		change.RewardedTokens = reward
	}
	change.Tokens = u.Tokens
	return change, nil
}

func dailyKey(userID int64, day time.Time) string {
	return domain.Day(day).Format("2006-01-02") + "/" + strconv.FormatInt(userID, 10)
}

func (l *fakeLedger) CreditTokens(_ context.Context, userID, amount int64, txType string, meta map[string]interface{}) (int64, error) {
	l.db.mu.Lock()
	defer l.db.mu.Unlock()
	return l.db.move(userID, amount, txType, meta)
}

func (l *fakeLedger) DebitTokens(_ context.Context, userID, amount int64, txType string, meta map[string]interface{}) (int64, error) {
	l.db.mu.Lock()
	defer l.db.mu.Unlock()
	return l.db.move(userID, -amount, txType, meta)
}

func (l *fakeLedger) ExtendPremium(_ context.Context, userID int64, extend func(current *time.Time) time.Time) (time.Time, error) {
	l.db.mu.Lock()
	defer l.db.mu.Unlock()
	u, ok := l.db.users[userID]
	if !ok {
		return time.Time{}, domain.ErrUserNotFound
	}
	until := extend(u.PremiumUntil)
	u.PremiumUntil = &until
	u.Role = domain.RolePremium
	return until, nil
}

func (l *fakeLedger) DowngradeIfExpired(_ context.Context, userID int64, now time.Time) (bool, error) {
	l.db.mu.Lock()
	defer l.db.mu.Unlock()
	u, ok := l.db.users[userID]
	if !ok {
		return false, domain.ErrUserNotFound
	}
	if !u.PremiumExpired(now) {
		return false, nil
	}
	u.Role = domain.RoleUser
	return true, nil
}

func (l *fakeLedger) DowngradeAllExpired(_ context.Context, now time.Time) (int64, error) {
	l.db.mu.Lock()
	defer l.db.mu.Unlock()
	var n int64
	for _, u := range l.db.users {
		if u.PremiumExpired(now) {
			u.Role = domain.RoleUser
			n++
		}
	}
	return n, nil
}

func (l *fakeLedger) UpdateLoginStreak(_ context.Context, userID int64, prev *time.Time, streak int, at time.Time) (bool, error) {
	l.db.mu.Lock()
	defer l.db.mu.Unlock()
	u, ok := l.db.users[userID]
	if !ok {
		return false, domain.ErrUserNotFound
	}
	same := (prev == nil && u.LastLogin == nil) || (prev != nil && u.LastLogin != nil && prev.Equal(*u.LastLogin))
	if !same {
		return false, nil
	}
	u.LoginStreak = streak
	u.LastLogin = &at
	return true, nil
}

func (l *fakeLedger) UpdateUsername(_ context.Context, userID int64, username string) error {
	l.db.mu.Lock()
	defer l.db.mu.Unlock()
	for _, u := range l.db.users {
		if u.Username == username && u.ID != userID {
			return domain.ErrUsernameExists
		}
	}
	u, ok := l.db.users[userID]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.Username = username
	return nil
}

func (l *fakeLedger) TopByXP(_ context.Context, limit int) ([]*domain.User, error) {
	l.db.mu.Lock()
	defer l.db.mu.Unlock()
	var out []*domain.User
	for _, u := range l.db.users {
		cp := *u
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].XP > out[j].XP })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (l *fakeLedger) DailyXP(_ context.Context, userID int64, day time.Time) (int64, error) {
	l.db.mu.Lock()
	defer l.db.mu.Unlock()
	return l.db.dailyXP[dailyKey(userID, day)], nil
}

func (l *fakeLedger) Transactions(_ context.Context, userID int64, limit int) ([]*domain.Transaction, error) {
	l.db.mu.Lock()
	defer l.db.mu.Unlock()
	var out []*domain.Transaction
	for i := len(l.db.txs) - 1; i >= 0 && len(out) < limit; i-- {
		if l.db.txs[i].UserID == userID {
			out = append(out, l.db.txs[i])
		}
	}
	return out, nil
}

type questKey struct {
	userID int64
	code   string
	day    string
}

type fakeQuests struct {
	db        *memDB
	mu        sync.Mutex
	templates []domain.Quest
	rows      map[questKey]*domain.DailyQuest
	markErr   error
}

func newFakeQuests(db *memDB) *fakeQuests {
	return &fakeQuests{
		templates: []domain.Quest{
			{Code: domain.QuestDailyLogin, Text: "Log in today", XPReward: 10},
			{Code: domain.QuestMessageFriend, Text: "Send a message", XPReward: 15},
			{Code: domain.QuestSpinLucky, Text: "Spin the wheel", XPReward: 10},
			{Code: domain.QuestAnyWorkout, Text: "Complete any workout", XPReward: 50},
		},
		rows: make(map[questKey]*domain.DailyQuest),
		db:   db,
	}
}

func qk(userID int64, code string, day time.Time) questKey {
	return questKey{userID, code, day.Format("2006-01-02")}
}

func (f *fakeQuests) EnsureDay(_ context.Context, userID int64, day time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.templates {
		k := qk(userID, t.Code, day)
		if _, ok := f.rows[k]; !ok {
			f.rows[k] = &domain.DailyQuest{UserID: userID, Code: t.Code, Date: day, State: domain.QuestPending, Text: t.Text, XPReward: t.XPReward}
		}
	}
	return nil
}

func (f *fakeQuests) MarkDone(_ context.Context, userID int64, code string, day, at time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.markErr != nil {
		return false, f.markErr
	}
	q, ok := f.rows[qk(userID, code, day)]
	if !ok || q.State != domain.QuestPending {
		return false, nil
	}
	q.State = domain.QuestDone
	q.CompletedAt = &at
	return true, nil
}

func (f *fakeQuests) Get(_ context.Context, userID int64, code string, day time.Time) (*domain.DailyQuest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	q, ok := f.rows[qk(userID, code, day)]
	if !ok {
		return nil, domain.ErrQuestNotFound
	}
	cp := *q
	return &cp, nil
}

func (f *fakeQuests) Claim(_ context.Context, userID int64, code string, day, at time.Time, bonus func(oldXP, newXP int64) int64) (int64, domain.XPChange, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	q, ok := f.rows[qk(userID, code, day)]
	if !ok || q.State != domain.QuestDone {
		return 0, domain.XPChange{}, false, nil
	}

	f.db.mu.Lock()
	change, err := f.db.addXP(userID, q.XPReward, at, bonus)
	f.db.mu.Unlock()
	if err != nil {
		return 0, domain.XPChange{}, false, err
	}
	q.State = domain.QuestClaimed
	q.ClaimedAt = &at
	return q.XPReward, change, true, nil
}

func (f *fakeQuests) ListDay(_ context.Context, userID int64, day time.Time) ([]*domain.DailyQuest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.DailyQuest
	for _, t := range f.templates {
		if q, ok := f.rows[qk(userID, t.Code, day)]; ok {
			cp := *q
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeQuests) PurgeBefore(_ context.Context, day time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for k, q := range f.rows {
		if q.Date.Before(day) {
			delete(f.rows, k)
			n++
		}
	}
	return n, nil
}

func (f *fakeQuests) state(userID int64, code string, day time.Time) domain.QuestState {
	f.mu.Lock()
	defer f.mu.Unlock()
	if q, ok := f.rows[qk(userID, code, day)]; ok {
		return q.State
	}
	return ""
}

type fakeBadges struct {
	mu     sync.Mutex
	grants map[[2]int64]bool
	err    error
}

func newFakeBadges() *fakeBadges {
	return &fakeBadges{grants: make(map[[2]int64]bool)}
}

func (f *fakeBadges) Grant(_ context.Context, userID, badgeID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	k := [2]int64{userID, badgeID}
	if f.grants[k] {
		return false, nil
	}
	f.grants[k] = true
	return true, nil
}

func (f *fakeBadges) All(context.Context) ([]*domain.Badge, error) { return nil, nil }

func (f *fakeBadges) ForUser(_ context.Context, userID int64) ([]*domain.UserBadge, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.UserBadge
	for k := range f.grants {
		if k[0] == userID {
			out = append(out, &domain.UserBadge{Badge: domain.Badge{ID: k[1]}})
		}
	}
	return out, nil
}

func (f *fakeBadges) has(userID, badgeID int64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.grants[[2]int64{userID, badgeID}]
}

type fakeSpins struct {
	db     *memDB
	prizes []*domain.Prize
	spins  []*domain.Spin
}

func (f *fakeSpins) ActivePrizes(context.Context) ([]*domain.Prize, error) {
	return f.prizes, nil
}

func (f *fakeSpins) LogFreeSpin(_ context.Context, spin *domain.Spin) (domain.SpinPayout, bool, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for _, s := range f.spins {
		if s.UserID == spin.UserID && !s.Paid && s.SpinDay.Equal(spin.SpinDay) {
			return domain.SpinPayout{}, false, nil
		}
	}
	payout, err := f.db.bookPrize(spin, 0)
	if err != nil {
		return domain.SpinPayout{}, false, err
	}
	cp := *spin
	f.spins = append(f.spins, &cp)
	return payout, true, nil
}

func (f *fakeSpins) LogPaidSpin(_ context.Context, spin *domain.Spin, cost int64) (domain.SpinPayout, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	payout, err := f.db.bookPrize(spin, cost)
	if err != nil {
		return domain.SpinPayout{}, err
	}
	cp := *spin
	f.spins = append(f.spins, &cp)
	return payout, nil
}

// bookPrize charges cost and applies the spin's prize, all or nothing.
// must hold mu
func (db *memDB) bookPrize(spin *domain.Spin, cost int64) (domain.SpinPayout, error) {
	saved := db.snapshot()
	fail := func(err error) (domain.SpinPayout, error) {
		db.restore(saved)
		return domain.SpinPayout{}, err
	}

	var payout domain.SpinPayout
	if cost > 0 {
		if _, err := db.move(spin.UserID, -cost, domain.TxRespin, nil); err != nil {
			return fail(err)
		}
	}
	switch spin.PrizeType {
	case domain.PrizeTokens:
		balance, err := db.move(spin.UserID, spin.PrizeValue, domain.TxSpinPrize, nil)
		if err != nil {
			return fail(err)
		}
		payout.Tokens = balance
	case domain.PrizeTrial:
		u, ok := db.users[spin.UserID]
		if !ok {
			return fail(domain.ErrUserNotFound)
		}
		until := domain.StackPremium(u.PremiumUntil, spin.SpunAt, int(spin.PrizeValue))
		u.PremiumUntil, u.Role = &until, domain.RolePremium
		payout.Tokens, payout.PremiumUntil = u.Tokens, &until
	default:
		return fail(errors.New("unknown prize type"))
	}
	return payout, nil
}

func (f *fakeSpins) LastSpin(_ context.Context, userID int64) (*time.Time, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	var last *time.Time
	for _, s := range f.spins {
		if s.UserID == userID && (last == nil || s.SpunAt.After(*last)) {
			t := s.SpunAt
			last = &t
		}
	}
	return last, nil
}

func (f *fakeSpins) CountSpins(_ context.Context, userID int64) (int64, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	var n int64
	for _, s := range f.spins {
		if s.UserID == userID {
			n++
		}
	}
	return n, nil
}

type fakeChallenges struct {
	db        *memDB
	mu        sync.Mutex
	nextID    int64
	templates []*domain.Challenge
	invites   map[int64]*domain.ChallengeInvite
	progress  map[[2]int64]int64
	incErr    error
}

func newFakeChallenges(db *memDB) *fakeChallenges {
	return &fakeChallenges{
		templates: []*domain.Challenge{
			{ID: 1, Type: "Push-up Duel", Value: 100, Unit: "push ups", Duration: 7},
			{ID: 2, Type: "Squat Showdown", Value: 150, Unit: "squats", Duration: 7},
		},
		invites:  make(map[int64]*domain.ChallengeInvite),
		progress: make(map[[2]int64]int64),
		db:       db,
	}
}

func (f *fakeChallenges) Templates(context.Context) ([]*domain.Challenge, error) {
	return f.templates, nil
}

func (f *fakeChallenges) TemplateByType(_ context.Context, challengeType string) (*domain.Challenge, error) {
	for _, t := range f.templates {
		if t.Type == challengeType {
			return t, nil
		}
	}
	return nil, domain.ErrChallengeNotFound
}

func (f *fakeChallenges) CreateInvite(_ context.Context, inv *domain.ChallengeInvite) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	inv.ID = f.nextID
	cp := *inv
	f.invites[inv.ID] = &cp
	return nil
}

func (f *fakeChallenges) Accept(_ context.Context, inviteID, receiverID int64, at time.Time, expiry func(inv *domain.ChallengeInvite) time.Time) (*domain.ChallengeInvite, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	inv, ok := f.invites[inviteID]
	if !ok || inv.ReceiverID != receiverID {
		return nil, domain.ErrInviteNotFound
	}
	if inv.Status != domain.InvitePending {
		return nil, domain.ErrInviteNotPending
	}
	exp := expiry(inv)
	inv.Status = domain.InviteAccepted
	inv.AcceptedAt = &at
	inv.ExpiresAt = &exp
	f.progress[[2]int64{inviteID, inv.SenderID}] = 0
	f.progress[[2]int64{inviteID, inv.ReceiverID}] = 0
	cp := *inv
	return &cp, nil
}

func (f *fakeChallenges) Reject(_ context.Context, inviteID, receiverID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	inv, ok := f.invites[inviteID]
	if !ok || inv.ReceiverID != receiverID {
		return domain.ErrInviteNotFound
	}
	if inv.Status != domain.InvitePending {
		return domain.ErrInviteNotPending
	}
	inv.Status = domain.InviteRejected
	return nil
}

func (f *fakeChallenges) list(match func(*domain.ChallengeInvite) bool) []*domain.ChallengeInvite {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.ChallengeInvite
	for _, inv := range f.invites {
		if match(inv) {
			cp := *inv
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (f *fakeChallenges) Pending(_ context.Context, userID int64) ([]*domain.ChallengeInvite, error) {
	return f.list(func(inv *domain.ChallengeInvite) bool {
		return inv.ReceiverID == userID && inv.Status == domain.InvitePending
	}), nil
}

func (f *fakeChallenges) Accepted(_ context.Context, userID int64, now time.Time) ([]*domain.ChallengeInvite, error) {
	return f.ActiveForUser(context.Background(), userID, now)
}

func (f *fakeChallenges) ActiveForUser(_ context.Context, userID int64, now time.Time) ([]*domain.ChallengeInvite, error) {
	return f.list(func(inv *domain.ChallengeInvite) bool {
		return (inv.SenderID == userID || inv.ReceiverID == userID) && inv.ActiveAt(now)
	}), nil
}

func (f *fakeChallenges) IncrementProgress(_ context.Context, inviteID, userID, delta int64, now time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.incErr != nil {
		return false, f.incErr
	}
	inv, ok := f.invites[inviteID]
	if !ok || !inv.ActiveAt(now) {
		return false, nil
	}
	k := [2]int64{inviteID, userID}
	if _, ok := f.progress[k]; !ok {
		return false, nil
	}
	f.progress[k] += delta
	return true, nil
}

func (f *fakeChallenges) Progress(_ context.Context, inviteID int64) (*domain.ChallengeInvite, []domain.ChallengeProgress, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	inv, ok := f.invites[inviteID]
	if !ok {
		return nil, nil, domain.ErrInviteNotFound
	}
	var rows []domain.ChallengeProgress
	for _, uid := range []int64{inv.SenderID, inv.ReceiverID} {
		if v, ok := f.progress[[2]int64{inviteID, uid}]; ok {
			rows = append(rows, domain.ChallengeProgress{InviteID: inviteID, UserID: uid, ProgressValue: v})
		}
	}
	cp := *inv
	return &cp, rows, nil
}

// Complete applies the payouts on a copy of the user rows and swaps them
// in only when every payout succeeded.
func (f *fakeChallenges) Complete(_ context.Context, inviteID int64, at time.Time, payouts []domain.ChallengePayout, bonus func(oldXP, newXP int64) int64) ([]domain.XPChange, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	inv, ok := f.invites[inviteID]
	if !ok || inv.Status != domain.InviteAccepted || inv.CompletedAt != nil {
		return nil, false, nil
	}

	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	saved := f.db.snapshot()
	changes := make([]domain.XPChange, len(payouts))
	for i, p := range payouts {
		var err error
		if p.XP > 0 {
			if changes[i], err = f.db.addXP(p.UserID, p.XP, at, bonus); err != nil {
				f.db.restore(saved)
				return nil, false, err
			}
		}
		if p.Tokens > 0 {
			meta := map[string]interface{}{"invite_id": inviteID, "role": p.Role}
			if changes[i].Tokens, err = f.db.move(p.UserID, p.Tokens, domain.TxChallengeReward, meta); err != nil {
				f.db.restore(saved)
				return nil, false, err
			}
		}
	}
	inv.CompletedAt = &at
	return changes, true, nil
}

func (f *fakeChallenges) FriendsToChallenge(context.Context, int64, string, time.Time) ([]*domain.Friend, error) {
	return nil, nil
}

func (f *fakeChallenges) Standings(context.Context, int64) ([]*domain.ChallengeStanding, error) {
	return nil, nil
}

func (f *fakeChallenges) value(inviteID, userID int64) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.progress[[2]int64{inviteID, userID}]
}

type fakeTournaments struct {
	mu           sync.Mutex
	tournaments  map[int64]*domain.Tournament
	participants map[[2]int64]int64
}

func newFakeTournaments(ts ...*domain.Tournament) *fakeTournaments {
	f := &fakeTournaments{tournaments: make(map[int64]*domain.Tournament), participants: make(map[[2]int64]int64)}
	for _, t := range ts {
		f.tournaments[t.ID] = t
	}
	return f
}

func (f *fakeTournaments) Get(_ context.Context, id int64) (*domain.Tournament, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tournaments[id]
	if !ok {
		return nil, domain.ErrTournamentNotFound
	}
	cp := *t
	return &cp, nil
}

func (f *fakeTournaments) Active(_ context.Context, now time.Time) ([]*domain.Tournament, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.Tournament
	for _, t := range f.tournaments {
		if now.Before(t.EndDate) {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeTournaments) Join(_ context.Context, tournamentID, userID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := [2]int64{tournamentID, userID}
	if _, ok := f.participants[k]; ok {
		return false, nil
	}
	f.participants[k] = 0
	return true, nil
}

func (f *fakeTournaments) Joined(_ context.Context, userID int64, now time.Time) ([]*domain.Tournament, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.Tournament
	for k := range f.participants {
		if t := f.tournaments[k[0]]; k[1] == userID && now.Before(t.EndDate) {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeTournaments) IncrementProgress(_ context.Context, tournamentID, userID, delta int64, now time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tournaments[tournamentID]
	if !ok || !t.OpenAt(now) {
		return false, nil
	}
	k := [2]int64{tournamentID, userID}
	if _, ok := f.participants[k]; !ok {
		return false, nil
	}
	f.participants[k] += delta
	return true, nil
}

func (f *fakeTournaments) Participants(_ context.Context, tournamentID int64) ([]*domain.TournamentParticipant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.TournamentParticipant
	for k, v := range f.participants {
		if k[0] == tournamentID {
			out = append(out, &domain.TournamentParticipant{TournamentID: k[0], UserID: k[1], Progress: v})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Progress > out[j].Progress })
	return out, nil
}

func (f *fakeTournaments) progress(tournamentID, userID int64) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.participants[[2]int64{tournamentID, userID}]
}

type fakeWorkouts struct {
	mu       sync.Mutex
	sessions []*domain.WorkoutSession
	saveErr  error
}

func (f *fakeWorkouts) SaveSession(_ context.Context, s *domain.WorkoutSession, logs []*domain.ExerciseLog) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return 0, f.saveErr
	}
	cp := *s
	cp.SessionID = int64(len(f.sessions) + 1)
	cp.Exercises = logs
	f.sessions = append(f.sessions, &cp)
	return cp.SessionID, nil
}

func (f *fakeWorkouts) CountSessions(_ context.Context, userID int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, s := range f.sessions {
		if s.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (f *fakeWorkouts) TotalCalories(_ context.Context, userID int64) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var total float64
	for _, s := range f.sessions {
		if s.UserID == userID {
			total += s.CaloriesBurned
		}
	}
	return total, nil
}

func (f *fakeWorkouts) Sessions(_ context.Context, userID int64, limit int) ([]*domain.WorkoutSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.WorkoutSession
	for i := len(f.sessions) - 1; i >= 0 && len(out) < limit; i-- {
		if f.sessions[i].UserID == userID {
			out = append(out, f.sessions[i])
		}
	}
	return out, nil
}

func (f *fakeWorkouts) DailyCalories(context.Context, int64, time.Time, time.Time) ([]domain.DailyCalories, error) {
	return nil, nil
}

type fakeSubscriptions struct {
	ledger  *fakeLedger
	mu      sync.Mutex
	history []*domain.SubscriptionRecord
}

func (f *fakeSubscriptions) Purchase(ctx context.Context, userID int64, plan domain.PremiumPlan, method domain.PaymentMethod, now time.Time) (*domain.PremiumPurchase, error) {
	db := f.ledger.db
	db.mu.Lock()
	u, ok := db.users[userID]
	if !ok {
		db.mu.Unlock()
		return nil, domain.ErrUserNotFound
	}
	var tokensUsed *int64
	if method == domain.PayTokens {
		if _, err := db.move(userID, -plan.TokenCost, domain.TxPremiumPurchase, map[string]interface{}{"plan": plan.Name}); err != nil {
			db.mu.Unlock()
			return nil, err
		}
		cost := plan.TokenCost
		tokensUsed = &cost
	}
	until := domain.StackPremium(u.PremiumUntil, now, plan.DurationDays)
	u.PremiumUntil = &until
	u.Role = domain.RolePremium
	tokens := u.Tokens
	db.mu.Unlock()

	rec := domain.SubscriptionRecord{UserID: userID, Plan: plan.Name, Method: method, TokensUsed: tokensUsed, StartDate: now, EndDate: domain.PlanExpiry(now, plan.DurationDays), CreatedAt: now}
	f.mu.Lock()
	f.history = append(f.history, &rec)
	f.mu.Unlock()
	return &domain.PremiumPurchase{PremiumUntil: until, Tokens: tokens, Record: rec}, nil
}

func (f *fakeSubscriptions) History(_ context.Context, userID int64) ([]*domain.SubscriptionRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.SubscriptionRecord
	for _, r := range f.history {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

type fakeFriends struct {
	mu    sync.Mutex
	edges map[[2]int64]string
}

func newFakeFriends() *fakeFriends {
	return &fakeFriends{edges: make(map[[2]int64]string)}
}

func (f *fakeFriends) Request(_ context.Context, userID, friendID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.edges[[2]int64{userID, friendID}]; !ok {
		f.edges[[2]int64{userID, friendID}] = "pending"
	}
	return nil
}

func (f *fakeFriends) Accept(_ context.Context, userID, friendID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := [2]int64{friendID, userID}
	if f.edges[k] != "pending" {
		return false, nil
	}
	f.edges[k] = "accepted"
	return true, nil
}

func (f *fakeFriends) Reject(_ context.Context, userID, friendID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.edges, [2]int64{friendID, userID})
	return nil
}

func (f *fakeFriends) Count(_ context.Context, userID int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for k, status := range f.edges {
		if status == "accepted" && (k[0] == userID || k[1] == userID) {
			n++
		}
	}
	return n, nil
}

func (f *fakeFriends) List(context.Context, int64) ([]*domain.Friend, error)    { return nil, nil }
func (f *fakeFriends) Pending(context.Context, int64) ([]*domain.Friend, error) { return nil, nil }

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.Event
}

func (p *recordingPublisher) Publish(ev domain.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
}

func (p *recordingPublisher) count(t domain.EventType) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, ev := range p.events {
		if ev.Type == t {
			n++
		}
	}
	return n
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

var testLevels = []domain.Level{
	{Level: 1, XPRequired: 0, RewardTokens: 0},
	{Level: 2, XPRequired: 50, RewardTokens: 10},
	{Level: 3, XPRequired: 150, RewardTokens: 20},
	{Level: 4, XPRequired: 300, RewardTokens: 30},
	{Level: 5, XPRequired: 500, RewardTokens: 40},
}

// engine wires every service over the fakes.
type engine struct {
	clock   *testClock
	db      *memDB
	ledger  *fakeLedger
	quests  *fakeQuests
	badges  *fakeBadges
	spins   *fakeSpins
	chals   *fakeChallenges
	tourns  *fakeTournaments
	works   *fakeWorkouts
	subs    *fakeSubscriptions
	friends *fakeFriends
	audit   *fakeAudit
	events  *recordingPublisher

	rewardSvc     *RewardService
	badgeSvc      *BadgeService
	questSvc      *QuestService
	spinSvc       *SpinService
	challengeSvc  *ChallengeService
	tournamentSvc *TournamentService
	workoutSvc    *WorkoutService
	premiumSvc    *PremiumService
	activitySvc   *ActivityService
	balanceSvc    *BalanceService
	auditSvc      *AuditService
}

type fakeAudit struct {
	mu      sync.Mutex
	entries []*domain.AuditLog
	err     error
}

func (f *fakeAudit) Create(_ context.Context, log *domain.AuditLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	log.ID = int64(len(f.entries) + 1)
	f.entries = append(f.entries, log)
	return nil
}

func (f *fakeAudit) GetByUserID(_ context.Context, userID int64, limit int) ([]*domain.AuditLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.AuditLog
	for i := len(f.entries) - 1; i >= 0 && len(out) < limit; i-- {
		if f.entries[i].UserID == userID {
			out = append(out, f.entries[i])
		}
	}
	return out, nil
}

func (f *fakeAudit) GetRecent(_ context.Context, category string, limit int) ([]*domain.AuditLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.AuditLog
	for i := len(f.entries) - 1; i >= 0 && len(out) < limit; i-- {
		if category == "" || f.entries[i].Category == category {
			out = append(out, f.entries[i])
		}
	}
	return out, nil
}

func newEngine(t testing.TB) *engine {
	t.Helper()
	table, err := domain.NewLevelTable(testLevels)
	if err != nil {
		t.Fatalf("level table: %v", err)
	}

	e := &engine{
		clock:   &testClock{now: time.Date(2025, time.March, 10, 10, 0, 0, 0, time.UTC)},
		db:      newMemDB(),
		badges:  newFakeBadges(),
		tourns:  newFakeTournaments(),
		works:   &fakeWorkouts{},
		friends: newFakeFriends(),
		audit:   &fakeAudit{},
		events:  &recordingPublisher{},
	}
	e.ledger = &fakeLedger{db: e.db}
	e.quests = newFakeQuests(e.db)
	e.chals = newFakeChallenges(e.db)
	e.spins = &fakeSpins{db: e.db}
	e.subs = &fakeSubscriptions{ledger: e.ledger}

	wired := NewEngine(Stores{
		Ledger:        e.ledger,
		Quests:        e.quests,
		Badges:        e.badges,
		Spins:         e.spins,
		Challenges:    e.chals,
		Tournaments:   e.tourns,
		Workouts:      e.works,
		Subscriptions: e.subs,
		Friends:       e.friends,
		Audit:         e.audit,
	}, table, config.DefaultEconomy(), e.events, e.clock.Now)
	e.rewardSvc = wired.Rewards
	e.badgeSvc = wired.Badges
	e.questSvc = wired.Quests
	e.spinSvc = wired.Spins
	e.challengeSvc = wired.Challenges
	e.tournamentSvc = wired.Tournaments
	e.workoutSvc = wired.Workouts
	e.premiumSvc = wired.Premium
	e.activitySvc = wired.Activity
	e.balanceSvc = wired.Balance
	e.auditSvc = wired.Audit
	return e
}

func (e *engine) today() time.Time {
	return domain.Day(e.clock.Now())
}

func (e *engine) failNextXP(userID int64, err error) {
	e.db.mu.Lock()
	defer e.db.mu.Unlock()
	e.db.xpErr[userID] = err
}

func (e *engine) setTokens(userID, tokens int64) {
	e.db.mu.Lock()
	defer e.db.mu.Unlock()
	e.db.users[userID].Tokens = tokens
}

var errBoom = errors.New("boom")

func containsStep(steps []string, step string) bool {
	for _, s := range steps {
		if strings.EqualFold(s, step) {
			return true
		}
	}
	return false
}
