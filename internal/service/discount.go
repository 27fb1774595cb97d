package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kkkkikiki/promo/internal/clock"
	"github.com/kkkkikiki/promo/internal/metrics"
	"github.com/kkkkikiki/promo/internal/model"
	"github.com/kkkkikiki/promo/internal/repository"
)

// Resolver outcomes, also used as metric labels
const (
	OutcomeApplied           = "applied"
	OutcomeNoCampaign        = "no_campaign"
	OutcomeVisitorIneligible = "visitor_ineligible"
	OutcomeProductIneligible = "product_ineligible"
)

// BadgeDefaults are shown when a campaign leaves its badge texts empty
type BadgeDefaults struct {
	Text          string
	TextLocalized string
}

// DiscountQuery is one product view to resolve
type DiscountQuery struct {
	Product               model.ProductEligibility `json:"product"`
	SellerDefaultDiscount *model.Percent           `json:"seller_default_discount,omitempty"`
	IsReferralVisitor     bool                     `json:"is_referral_visitor"`
}

// Validate rejects prices below zero and percentages outside [0,100]
func (q DiscountQuery) Validate() error {
	if q.Product.Price.IsNegative() {
		return fmt.Errorf("%w: price must not be negative", model.ErrInvalidArgument)
	}
	if !q.Product.ReferralDiscountPercent.Within(model.Percent{}, model.MaxPercent) {
		return fmt.Errorf("%w: referral_discount_percent must be within [0,100]", model.ErrInvalidArgument)
	}
	if q.SellerDefaultDiscount != nil && !q.SellerDefaultDiscount.Within(model.Percent{}, model.MaxPercent) {
		return fmt.Errorf("%w: seller_default_discount must be within [0,100]", model.ErrInvalidArgument)
	}
	return nil
}

// DiscountResolver combines the active campaign with product, seller and visitor
// inputs into a discount decision. It holds no state and takes no locks.
type DiscountResolver struct {
	active   repository.ActiveFinder
	clock    clock.Clock
	defaults BadgeDefaults
	logger   *zap.Logger
}

// NewDiscountResolver creates a resolver reading the active campaign from active
func NewDiscountResolver(active repository.ActiveFinder, clk clock.Clock, defaults BadgeDefaults, logger *zap.Logger) *DiscountResolver {
	return &DiscountResolver{
		active:   active,
		clock:    clk,
		defaults: defaults,
		logger:   logger,
	}
}

// Resolve returns the discount for one product view, or nil when none applies.
// A nil decision is the normal "no discount" answer; errors only come from the store.
func (r *DiscountResolver) Resolve(ctx context.Context, product model.ProductEligibility, sellerDefault *model.Percent, isReferralVisitor bool) (*model.DiscountDecision, error) {
	decisions, err := r.ResolveMany(ctx, []DiscountQuery{{
		Product:               product,
		SellerDefaultDiscount: sellerDefault,
		IsReferralVisitor:     isReferralVisitor,
	}})
	if err != nil {
		return nil, err
	}
	return decisions[0], nil
}

// ResolveMany resolves a page of products against a single active campaign read.
// Any invalid query rejects the whole page before the store is read.
func (r *DiscountResolver) ResolveMany(ctx context.Context, queries []DiscountQuery) ([]*model.DiscountDecision, error) {
	for i, q := range queries {
		if err := q.Validate(); err != nil {
			return nil, fmt.Errorf("query %d: %w", i, err)
		}
	}

	start := time.Now()
	status := "failure"
	defer func() {
		metrics.RecordResolveDuration(status, time.Since(start).Seconds())
	}()

	campaign, err := r.active.FindActive(ctx, r.clock.Now())
	if err != nil {
		r.logger.Error("failed to load active campaign", zap.Error(err))
		return nil, fmt.Errorf("failed to load active campaign: %w", err)
	}
	status = "success"

	decisions := make([]*model.DiscountDecision, len(queries))
	for i, q := range queries {
		decision, outcome := Decide(campaign, q.Product, q.SellerDefaultDiscount, q.IsReferralVisitor, r.defaults)
		metrics.RecordDecision(outcome)
		decisions[i] = decision
	}
	return decisions, nil
}

// Decide is the deterministic core of the resolver. It returns the decision (nil
// for no discount) and the outcome label explaining it.
func Decide(campaign *model.Campaign, product model.ProductEligibility, sellerDefault *model.Percent, isReferralVisitor bool, defaults BadgeDefaults) (*model.DiscountDecision, string) {
	if campaign == nil {
		return nil, OutcomeNoCampaign
	}

	// Only non-referral visitors are ever blocked here: a referral visitor passes even
	// when the campaign does not list INFLUENCER_REFERRALS.
	if !campaign.AppliesTo.Contains(model.VisitorAll) && !isReferralVisitor {
		return nil, OutcomeVisitorIneligible
	}

	if campaign.OnlyProductsWithPermission && product.ReferralDiscountPercent.IsZero() {
		return nil, OutcomeProductIneligible
	}

	var percent model.Percent
	switch campaign.DiscountSource {
	case model.SourceProductPermission:
		percent = product.ReferralDiscountPercent
	case model.SourceArtistDefault:
		if sellerDefault != nil {
			percent = *sellerDefault
		} else {
			percent = product.ReferralDiscountPercent
		}
	case model.SourceOverride:
		percent = campaign.MaxDiscountPercent
	default:
		return nil, OutcomeProductIneligible
	}

	// The cap only ever lowers the percent
	if !campaign.UseMaxAsOverride {
		percent = percent.Min(campaign.MaxDiscountPercent)
	}

	amount := product.Price.Portion(percent)

	badge := campaign.BadgeText
	if badge == "" {
		badge = defaults.Text
	}
	badgeLocalized := campaign.BadgeTextLocalized
	if badgeLocalized == "" {
		badgeLocalized = defaults.TextLocalized
	}

	return &model.DiscountDecision{
		DiscountPercent:    percent,
		DiscountAmount:     amount,
		FinalPrice:         product.Price.Sub(amount),
		CampaignID:         campaign.ID,
		CampaignName:       campaign.Name,
		BadgeText:          badge,
		BadgeTextLocalized: badgeLocalized,
	}, OutcomeApplied
}
