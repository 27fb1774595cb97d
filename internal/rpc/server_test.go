package rpc

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"connectrpc.com/connect"
	"go.uber.org/zap/zaptest"

	"github.com/kkkkikiki/promo/internal/clock"
	"github.com/kkkkikiki/promo/internal/model"
	"github.com/kkkkikiki/promo/internal/repository"
	"github.com/kkkkikiki/promo/internal/service"
)

var opening = time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC)

func newTestClient(t *testing.T) (*CampaignServiceClient, *clock.Fixed) {
	t.Helper()
	logger := zaptest.NewLogger(t)
	store := repository.NewMemoryCampaignRepository()
	clk := clock.NewFixed(opening)

	server := NewCampaignServer(
		service.NewCampaignService(store, store, service.NopInvalidator, clk, logger),
		service.NewLifecycleManager(store, service.NopInvalidator, clk, logger),
		service.NewDiscountResolver(store, clk, service.BadgeDefaults{Text: "Special Offer"}, logger),
		service.NewAnalyticsAccumulator(store, logger),
		logger,
	)
	mux := http.NewServeMux()
	path, handler := NewCampaignServiceHandler(server)
	mux.Handle(path, handler)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return NewCampaignServiceClient(srv.Client(), srv.URL), clk
}

func createAndActivate(t *testing.T, client *CampaignServiceClient) *model.Campaign {
	t.Helper()
	ctx := context.Background()
	created, err := client.CreateCampaign(ctx, connect.NewRequest(&CreateCampaignRequest{Campaign: model.CampaignSpec{
		Name:                       "Winter Sale",
		StartDate:                  opening,
		EndDate:                    opening.Add(72 * time.Hour),
		AppliesTo:                  model.VisitorTags{model.VisitorAll},
		OnlyProductsWithPermission: true,
		DiscountSource:             model.SourceProductPermission,
		MaxDiscountPercent:         model.PercentFromInt(15),
		CreatedBy:                  "ops",
	}}))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Msg.Campaign.Status != model.StatusDraft {
		t.Fatalf("expected DRAFT, got %s", created.Msg.Campaign.Status)
	}
	activated, err := client.ActivateCampaign(ctx, connect.NewRequest(&CampaignRequest{CampaignID: created.Msg.Campaign.ID.String()}))
	if err != nil {
		t.Fatalf("activate: %v", err)
	}
	return activated.Msg.Campaign
}

func TestCalculateDiscountOverRPC(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()
	campaign := createAndActivate(t, client)

	res, err := client.CalculateDiscount(ctx, connect.NewRequest(&service.DiscountQuery{
		Product: model.ProductEligibility{Price: model.MoneyFromInt(100), ReferralDiscountPercent: model.PercentFromInt(20)},
	}))
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}
	d := res.Msg.Discount
	if d == nil {
		t.Fatalf("expected a discount")
	}
	if d.DiscountAmount.String() != "15.00" || d.FinalPrice.String() != "85.00" || d.CampaignID != campaign.ID {
		t.Fatalf("unexpected decision %+v", d)
	}
	if d.BadgeText != "Special Offer" {
		t.Fatalf("expected default badge, got %q", d.BadgeText)
	}

	batch, err := client.CalculateDiscounts(ctx, connect.NewRequest(&CalculateDiscountsRequest{Queries: []service.DiscountQuery{
		{Product: model.ProductEligibility{Price: model.MoneyFromInt(10), ReferralDiscountPercent: model.PercentFromInt(0)}},
		{Product: model.ProductEligibility{Price: model.MoneyFromInt(10), ReferralDiscountPercent: model.PercentFromInt(5)}},
	}}))
	if err != nil {
		t.Fatalf("calculate many: %v", err)
	}
	if len(batch.Msg.Discounts) != 2 || batch.Msg.Discounts[0] != nil || batch.Msg.Discounts[1] == nil {
		t.Fatalf("unexpected batch %+v", batch.Msg.Discounts)
	}
}

func TestNoDiscountIsNotAnError(t *testing.T) {
	client, _ := newTestClient(t)
	res, err := client.CalculateDiscount(context.Background(), connect.NewRequest(&service.DiscountQuery{
		Product:           model.ProductEligibility{Price: model.MoneyFromInt(100), ReferralDiscountPercent: model.PercentFromInt(20)},
		IsReferralVisitor: true,
	}))
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}
	if res.Msg.Discount != nil {
		t.Fatalf("no active campaign must yield no discount")
	}
	active, err := client.GetActiveCampaign(context.Background(), connect.NewRequest(&Empty{}))
	if err != nil || active.Msg.Campaign != nil {
		t.Fatalf("expected empty active campaign, got %v %v", active, err)
	}
}

func TestErrorCodes(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()
	campaign := createAndActivate(t, client)

	_, err := client.GetCampaign(ctx, connect.NewRequest(&CampaignRequest{CampaignID: "not-a-uuid"}))
	if connect.CodeOf(err) != connect.CodeInvalidArgument {
		t.Fatalf("expected invalid argument, got %v", err)
	}
	_, err = client.GetCampaign(ctx, connect.NewRequest(&CampaignRequest{CampaignID: "0f8fad5b-d9cb-469f-a165-70867728950e"}))
	if connect.CodeOf(err) != connect.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
	_, err = client.ActivateCampaign(ctx, connect.NewRequest(&CampaignRequest{CampaignID: campaign.ID.String()}))
	if connect.CodeOf(err) != connect.CodeFailedPrecondition {
		t.Fatalf("expected failed precondition, got %v", err)
	}
	_, err = client.CreateCampaign(ctx, connect.NewRequest(&CreateCampaignRequest{}))
	if connect.CodeOf(err) != connect.CodeInvalidArgument {
		t.Fatalf("expected invalid argument for empty campaign, got %v", err)
	}
}

func TestLifecycleAndAnalyticsOverRPC(t *testing.T) {
	client, clk := newTestClient(t)
	ctx := context.Background()
	campaign := createAndActivate(t, client)
	id := campaign.ID.String()

	for i := 0; i < 3; i++ {
		if _, err := client.RecordOrder(ctx, connect.NewRequest(&RecordOrderRequest{
			CampaignID:     id,
			OrderAmount:    model.MoneyFromInt(85),
			DiscountAmount: model.MoneyFromInt(15),
		})); err != nil {
			t.Fatalf("record order: %v", err)
		}
	}

	paused, err := client.DeactivateCampaign(ctx, connect.NewRequest(&CampaignRequest{CampaignID: id}))
	if err != nil || paused.Msg.Campaign.Status != model.StatusPaused {
		t.Fatalf("deactivate: %v", err)
	}
	if _, err := client.ScheduleCampaign(ctx, connect.NewRequest(&CampaignRequest{CampaignID: id})); err != nil {
		t.Fatalf("schedule: %v", err)
	}
	swept, err := client.SweepScheduled(ctx, connect.NewRequest(&Empty{}))
	if err != nil || swept.Msg.Transitioned != 1 {
		t.Fatalf("expected the scheduled campaign to activate, got %v %v", swept, err)
	}

	clk.Advance(96 * time.Hour)
	expired, err := client.SweepExpired(ctx, connect.NewRequest(&Empty{}))
	if err != nil || expired.Msg.Transitioned != 1 {
		t.Fatalf("expected the campaign to expire, got %v %v", expired, err)
	}

	got, err := client.GetCampaign(ctx, connect.NewRequest(&CampaignRequest{CampaignID: id}))
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	c := got.Msg.Campaign
	if c.Status != model.StatusEnded || c.TotalOrders != 3 || c.TotalRevenue.String() != "255.00" || c.TotalDiscount.String() != "45.00" {
		t.Fatalf("unexpected final campaign %+v", c)
	}

	list, err := client.ListCampaigns(ctx, connect.NewRequest(&ListCampaignsRequest{Status: model.StatusEnded}))
	if err != nil || len(list.Msg.Campaigns) != 1 {
		t.Fatalf("expected one ended campaign, got %v %v", list, err)
	}

	if _, err := client.DeleteCampaign(ctx, connect.NewRequest(&CampaignRequest{CampaignID: id})); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := client.RecordOrder(ctx, connect.NewRequest(&RecordOrderRequest{CampaignID: id, OrderAmount: model.MoneyFromInt(1)})); err != nil {
		t.Fatalf("orders against deleted campaigns must not fail, got %v", err)
	}
}

func TestUpdateCampaignOverRPC(t *testing.T) {
	client, _ := newTestClient(t)
	campaign := createAndActivate(t, client)
	badge := "Winter Week"
	res, err := client.UpdateCampaign(context.Background(), connect.NewRequest(&UpdateCampaignRequest{
		CampaignID: campaign.ID.String(),
		Patch:      model.CampaignPatch{BadgeText: &badge},
	}))
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if res.Msg.Campaign.BadgeText != badge || res.Msg.Campaign.Status != model.StatusActive {
		t.Fatalf("unexpected update result %+v", res.Msg.Campaign)
	}
}

func TestCalculateDiscountRejectsOutOfRangeInputs(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()
	createAndActivate(t, client)

	sellerDefault := model.PercentFromInt(150)
	_, err := client.CalculateDiscount(ctx, connect.NewRequest(&service.DiscountQuery{
		Product:               model.ProductEligibility{Price: model.MoneyFromInt(100), ReferralDiscountPercent: model.PercentFromInt(10)},
		SellerDefaultDiscount: &sellerDefault,
	}))
	if connect.CodeOf(err) != connect.CodeInvalidArgument {
		t.Fatalf("expected invalid argument for seller default over 100, got %v", err)
	}

	_, err = client.CalculateDiscounts(ctx, connect.NewRequest(&CalculateDiscountsRequest{Queries: []service.DiscountQuery{
		{Product: model.ProductEligibility{Price: model.MoneyFromInt(10), ReferralDiscountPercent: model.PercentFromInt(5)}},
		{Product: model.ProductEligibility{Price: model.MoneyFromInt(10), ReferralDiscountPercent: model.PercentFromInt(-10)}},
	}}))
	if connect.CodeOf(err) != connect.CodeInvalidArgument {
		t.Fatalf("expected invalid argument for negative percent, got %v", err)
	}
}
