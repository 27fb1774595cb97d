package model

import "github.com/google/uuid"

// ProductEligibility is how far a product's owner opted it into promotional discounting.
type ProductEligibility struct {
	Price                   Money   `json:"price"`
	ReferralDiscountPercent Percent `json:"referral_discount_percent"`
}

// DiscountDecision is the resolved promotional discount for one product view.
// It is never persisted.
type DiscountDecision struct {
	DiscountPercent    Percent   `json:"discount_percent"`
	DiscountAmount     Money     `json:"discount_amount"`
	FinalPrice         Money     `json:"final_price"`
	CampaignID         uuid.UUID `json:"campaign_id"`
	CampaignName       string    `json:"campaign_name"`
	BadgeText          string    `json:"badge_text"`
	BadgeTextLocalized string    `json:"badge_text_localized"`
}
