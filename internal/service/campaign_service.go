package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kkkkikiki/promo/internal/clock"
	"github.com/kkkkikiki/promo/internal/model"
	"github.com/kkkkikiki/promo/internal/repository"
)

// Invalidator drops cached views of the active campaign
type Invalidator interface {
	Invalidate(ctx context.Context)
}

type nopInvalidator struct{}

func (nopInvalidator) Invalidate(context.Context) {}

// NopInvalidator is used when no cache sits in front of the store
var NopInvalidator Invalidator = nopInvalidator{}

// CampaignService implements the administrative campaign commands and queries
type CampaignService struct {
	store  repository.CampaignStore
	active repository.ActiveFinder
	cache  Invalidator
	clock  clock.Clock
	logger *zap.Logger
}

// NewCampaignService creates a new CampaignService. active may be a cache in front of store.
func NewCampaignService(store repository.CampaignStore, active repository.ActiveFinder, cache Invalidator, clk clock.Clock, logger *zap.Logger) *CampaignService {
	return &CampaignService{
		store:  store,
		active: active,
		cache:  cache,
		clock:  clk,
		logger: logger,
	}
}

// CreateCampaign stores a new DRAFT campaign
func (s *CampaignService) CreateCampaign(ctx context.Context, spec model.CampaignSpec) (*model.Campaign, error) {
	campaign, err := model.NewCampaign(spec, s.clock.Now())
	if err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, campaign); err != nil {
		return nil, err
	}

	s.logger.Info("campaign created",
		zap.String("campaign_id", campaign.ID.String()),
		zap.String("name", campaign.Name),
		zap.String("created_by", campaign.CreatedBy),
	)
	return campaign, nil
}

// GetCampaign returns a campaign by its identifier
func (s *CampaignService) GetCampaign(ctx context.Context, rawID string) (*model.Campaign, error) {
	id, err := model.ParseID(rawID)
	if err != nil {
		return nil, err
	}
	return s.store.GetByID(ctx, id)
}

// ListCampaigns lists campaigns, optionally restricted to one status
func (s *CampaignService) ListCampaigns(ctx context.Context, status model.CampaignStatus) ([]*model.Campaign, error) {
	if status != "" && !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", model.ErrInvalidArgument, status)
	}
	return s.store.List(ctx, status)
}

// UpdateCampaign applies a partial update. Status only changes through the lifecycle commands.
func (s *CampaignService) UpdateCampaign(ctx context.Context, rawID string, patch model.CampaignPatch) (*model.Campaign, error) {
	id, err := model.ParseID(rawID)
	if err != nil {
		return nil, err
	}
	current, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	updated, err := current.Apply(patch, s.clock.Now())
	if err != nil {
		return nil, err
	}
	if err := s.store.Update(ctx, updated); err != nil {
		return nil, err
	}
	// Dates or discount settings of the displayed campaign may have changed
	s.cache.Invalidate(ctx)

	s.logger.Info("campaign updated", zap.String("campaign_id", id.String()))
	return updated, nil
}

// DeleteCampaign removes a campaign
func (s *CampaignService) DeleteCampaign(ctx context.Context, rawID string) error {
	id, err := model.ParseID(rawID)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.cache.Invalidate(ctx)

	s.logger.Info("campaign deleted", zap.String("campaign_id", id.String()))
	return nil
}

// GetActiveCampaign returns the campaign on display right now, or nil
func (s *CampaignService) GetActiveCampaign(ctx context.Context) (*model.Campaign, error) {
	return s.active.FindActive(ctx, s.clock.Now())
}
