package main

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/kkkkikiki/promo/internal/clock"
	"github.com/kkkkikiki/promo/internal/model"
	"github.com/kkkkikiki/promo/internal/repository"
	"github.com/kkkkikiki/promo/internal/rpc"
	"github.com/kkkkikiki/promo/internal/service"
)

func newLocalClient(t *testing.T) *rpc.CampaignServiceClient {
	t.Helper()
	logger := zaptest.NewLogger(t)
	store := repository.NewMemoryCampaignRepository()
	clk := clock.System{}

	server := rpc.NewCampaignServer(
		service.NewCampaignService(store, store, service.NopInvalidator, clk, logger),
		service.NewLifecycleManager(store, service.NopInvalidator, clk, logger),
		service.NewDiscountResolver(store, clk, service.BadgeDefaults{}, logger),
		service.NewAnalyticsAccumulator(store, logger),
		logger,
	)
	mux := http.NewServeMux()
	path, handler := rpc.NewCampaignServiceHandler(server)
	mux.Handle(path, handler)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return rpc.NewCampaignServiceClient(srv.Client(), srv.URL)
}

func TestRecordedTotalsMatchStore(t *testing.T) {
	client := newLocalClient(t)
	campaign, err := createActiveCampaign(client, time.Minute)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	price, _ := model.ParseMoney("19.99")
	product := model.ProductEligibility{Price: price, ReferralDiscountPercent: model.PercentFromInt(20)}
	var result PerfResult
	var expected expectedTotals
	latencies := make(chan time.Duration, 16)
	for i := 0; i < 5; i++ {
		doRequest(client, 5*time.Second, campaign.ID.String(), product, &result, &expected, latencies)
	}
	if result.SuccessCount != 5 || result.ErrorCount != 0 {
		t.Fatalf("unexpected result %+v", result)
	}

	revenue, discount := expected.snapshot()
	if revenue.String() != "84.95" || discount.String() != "15.00" {
		t.Fatalf("unexpected client totals %s %s", revenue, discount)
	}
	if err := verifyTotals(client, campaign.ID.String(), result.SuccessCount, revenue, discount); err != nil {
		t.Fatalf("verify: %v", err)
	}
	if err := verifyTotals(client, campaign.ID.String(), result.SuccessCount+1, revenue, discount); err == nil {
		t.Fatalf("an order count mismatch must be reported")
	}
}
