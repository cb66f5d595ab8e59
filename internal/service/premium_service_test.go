package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"fitquest/internal/domain"
)

func TestBuyPremiumValidation(t *testing.T) {
	e := newEngine(t)
	u := e.db.addUser("ana")
	e.premiumSvc = NewPremiumService(e.subs, e.ledger, e.badgeSvc, e.events, e.clock.Now, map[string]domain.PremiumPlan{
		"monthly": {Name: "monthly", DurationDays: 30, Price: 2.99, TokenCost: 4000},
		"promo":   {Name: "promo", DurationDays: 7, Price: 0.99},
	})
	ctx := context.Background()

	tests := []struct {
		name   string
		plan   string
		method domain.PaymentMethod
		want   error
	}{
		{"unknown plan", "weekly", domain.PayMoney, domain.ErrInvalidPlan},
		{"empty plan", "", domain.PayMoney, domain.ErrInvalidPlan},
		{"bad method", "monthly", "card", domain.ErrInvalidMethod},
		{"money only plan", "promo", domain.PayTokens, domain.ErrPlanNotBuyableWithTokens},
		{"short balance", "monthly", domain.PayTokens, domain.ErrNotEnoughTokens},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := e.premiumSvc.BuyPremium(ctx, u.ID, tt.plan, tt.method); !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}

	if got := e.db.user(u.ID); got.Role != domain.RoleUser || got.PremiumUntil != nil {
		t.Fatalf("failed purchases changed the user: %+v", got)
	}
}

func TestBuyPremiumStacks(t *testing.T) {
	e := newEngine(t)
	u := e.db.addUser("ana")
	now := e.clock.Now()
	current := now.AddDate(0, 0, 10)
	e.db.users[u.ID].Role = domain.RolePremium
	e.db.users[u.ID].PremiumUntil = &current

	p, err := e.premiumSvc.BuyPremium(context.Background(), u.ID, "monthly", domain.PayMoney)
	if err != nil {
		t.Fatal(err)
	}
	if want := now.AddDate(0, 0, 40); !p.PremiumUntil.Equal(want) {
		t.Fatalf("premium until = %v, want %v", p.PremiumUntil, want)
	}
	// the record covers this purchase only
	if !p.Record.StartDate.Equal(now) || !p.Record.EndDate.Equal(now.AddDate(0, 0, 30)) {
		t.Fatalf("record = [%v, %v], want [%v, %v]", p.Record.StartDate, p.Record.EndDate, now, now.AddDate(0, 0, 30))
	}
	if !e.badges.has(u.ID, domain.BadgePremium) {
		t.Fatal("premium badge missing")
	}
	if n := e.events.count(domain.EventPremium); n != 1 {
		t.Fatalf("premium events = %d", n)
	}
}

func TestBuyPremiumWithTokens(t *testing.T) {
	e := newEngine(t)
	u := e.db.addUser("ana")
	e.setTokens(u.ID, 5000)

	p, err := e.premiumSvc.BuyPremium(context.Background(), u.ID, "monthly", domain.PayTokens)
	if err != nil {
		t.Fatal(err)
	}
	if p.Tokens != 1000 || p.Record.TokensUsed == nil || *p.Record.TokensUsed != 4000 {
		t.Fatalf("purchase = %+v", p)
	}
	if want := e.clock.Now().AddDate(0, 0, 30); !p.PremiumUntil.Equal(want) {
		t.Fatalf("premium until = %v", p.PremiumUntil)
	}
}

func TestBuyLifetimeUsesSentinel(t *testing.T) {
	e := newEngine(t)
	u := e.db.addUser("ana")

	p, err := e.premiumSvc.BuyPremium(context.Background(), u.ID, "lifetime", domain.PayMoney)
	if err != nil {
		t.Fatal(err)
	}
	if !p.PremiumUntil.Equal(domain.PremiumSentinel) {
		t.Fatalf("premium until = %v", p.PremiumUntil)
	}
	if !p.Record.EndDate.Equal(domain.PremiumSentinel) {
		t.Fatalf("record end = %v", p.Record.EndDate)
	}
}

func TestPremiumLazyExpiry(t *testing.T) {
	e := newEngine(t)
	u := e.db.addUser("ana")
	v := e.db.addUser("vic")
	ctx := context.Background()

	for _, id := range []int64{u.ID, v.ID} {
		if _, err := e.premiumSvc.BuyPremium(ctx, id, "monthly", domain.PayMoney); err != nil {
			t.Fatal(err)
		}
	}
	if ok, err := e.premiumSvc.IsPremium(ctx, u.ID); err != nil || !ok {
		t.Fatalf("IsPremium before expiry = %v, %v", ok, err)
	}

	e.clock.Advance(31 * 24 * time.Hour)
	if ok, err := e.premiumSvc.IsPremium(ctx, u.ID); err != nil || ok {
		t.Fatalf("IsPremium after expiry = %v, %v", ok, err)
	}
	if role := e.db.user(u.ID).Role; role != domain.RoleUser {
		t.Fatalf("role = %s", role)
	}

	n, err := e.premiumSvc.SweepExpired(ctx)
	if err != nil || n != 1 {
		t.Fatalf("sweep = %d, %v", n, err)
	}
}
