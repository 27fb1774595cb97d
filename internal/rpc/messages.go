package rpc

import (
	"github.com/kkkkikiki/promo/internal/model"
	"github.com/kkkkikiki/promo/internal/service"
)

// CampaignRequest addresses a single campaign
type CampaignRequest struct {
	CampaignID string `json:"campaign_id"`
}

// CampaignResponse carries one campaign. Campaign is null when none matched
// a GetActiveCampaign call.
type CampaignResponse struct {
	Campaign *model.Campaign `json:"campaign"`
}

type CreateCampaignRequest struct {
	Campaign model.CampaignSpec `json:"campaign"`
}

type ListCampaignsRequest struct {
	Status model.CampaignStatus `json:"status,omitempty"`
}

type ListCampaignsResponse struct {
	Campaigns []*model.Campaign `json:"campaigns"`
}

type UpdateCampaignRequest struct {
	CampaignID string              `json:"campaign_id"`
	Patch      model.CampaignPatch `json:"patch"`
}

type Empty struct{}

// CalculateDiscountResponse holds the decision for one product; Discount is null for no discount
type CalculateDiscountResponse struct {
	Discount *model.DiscountDecision `json:"discount"`
}

type CalculateDiscountsRequest struct {
	Queries []service.DiscountQuery `json:"queries"`
}

// CalculateDiscountsResponse is index-aligned with the request queries
type CalculateDiscountsResponse struct {
	Discounts []*model.DiscountDecision `json:"discounts"`
}

type RecordOrderRequest struct {
	CampaignID     string      `json:"campaign_id"`
	OrderAmount    model.Money `json:"order_amount"`
	DiscountAmount model.Money `json:"discount_amount"`
}

type SweepResponse struct {
	Transitioned int64 `json:"transitioned"`
}
