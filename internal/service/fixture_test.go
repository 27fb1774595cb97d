package service

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/kkkkikiki/promo/internal/clock"
	"github.com/kkkkikiki/promo/internal/model"
	"github.com/kkkkikiki/promo/internal/repository"
)

var launch = time.Date(2026, 11, 20, 8, 0, 0, 0, time.UTC)

type countingInvalidator struct {
	calls atomic.Int64
}

func (c *countingInvalidator) Invalidate(context.Context) { c.calls.Add(1) }

type fixture struct {
	store     *repository.MemoryCampaignRepository
	clock     *clock.Fixed
	cache     *countingInvalidator
	campaigns *CampaignService
	lifecycle *LifecycleManager
	resolver  *DiscountResolver
	analytics *AnalyticsAccumulator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := zaptest.NewLogger(t)
	store := repository.NewMemoryCampaignRepository()
	clk := clock.NewFixed(launch)
	inv := &countingInvalidator{}
	return &fixture{
		store:     store,
		clock:     clk,
		cache:     inv,
		campaigns: NewCampaignService(store, store, inv, clk, logger),
		lifecycle: NewLifecycleManager(store, inv, clk, logger),
		resolver:  NewDiscountResolver(store, clk, BadgeDefaults{Text: "Sale", TextLocalized: "Soldes"}, logger),
		analytics: NewAnalyticsAccumulator(store, logger),
	}
}

// spec returns a campaign running for a week from launch
func spec(mutators ...func(*model.CampaignSpec)) model.CampaignSpec {
	s := model.CampaignSpec{
		Name:                       "Black Friday",
		StartDate:                  launch,
		EndDate:                    launch.Add(7 * 24 * time.Hour),
		AppliesTo:                  model.VisitorTags{model.VisitorAll},
		OnlyProductsWithPermission: true,
		DiscountSource:             model.SourceProductPermission,
		MaxDiscountPercent:         model.PercentFromInt(15),
		CreatedBy:                  "admin",
	}
	for _, m := range mutators {
		m(&s)
	}
	return s
}

func (f *fixture) create(t *testing.T, s model.CampaignSpec) *model.Campaign {
	t.Helper()
	c, err := f.campaigns.CreateCampaign(context.Background(), s)
	if err != nil {
		t.Fatalf("create campaign: %v", err)
	}
	return c
}

func (f *fixture) activate(t *testing.T, s model.CampaignSpec) *model.Campaign {
	t.Helper()
	c := f.create(t, s)
	active, err := f.lifecycle.Activate(context.Background(), c.ID.String())
	if err != nil {
		t.Fatalf("activate campaign: %v", err)
	}
	return active
}

func money(t *testing.T, s string) model.Money {
	t.Helper()
	m, err := model.ParseMoney(s)
	if err != nil {
		t.Fatalf("parse money: %v", err)
	}
	return m
}

func pct(v int64) model.Percent { return model.PercentFromInt(v) }

// forbiddenStore fails the test on any store access
type forbiddenStore struct {
	repository.CampaignStore
}
