package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kkkkikiki/promo/internal/model"
)

// MemoryCampaignRepository is an in-process CampaignStore. Every method holds the
// mutex for its whole critical section, which gives it the same atomicity as the
// single-statement updates of the PostgreSQL repository. Values are copied in and
// out so callers never share state with the store.
type MemoryCampaignRepository struct {
	mu        sync.RWMutex
	campaigns map[uuid.UUID]*model.Campaign
}

// NewMemoryCampaignRepository creates an empty store
func NewMemoryCampaignRepository() *MemoryCampaignRepository {
	return &MemoryCampaignRepository{
		campaigns: make(map[uuid.UUID]*model.Campaign),
	}
}

func clone(c *model.Campaign) *model.Campaign {
	cp := *c
	cp.AppliesTo = append(model.VisitorTags(nil), c.AppliesTo...)
	if c.Description != nil {
		d := *c.Description
		cp.Description = &d
	}
	return &cp
}

func (r *MemoryCampaignRepository) Create(_ context.Context, campaign *model.Campaign) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.campaigns[campaign.ID]; exists {
		return fmt.Errorf("failed to create campaign: duplicate id %s", campaign.ID)
	}
	r.campaigns[campaign.ID] = clone(campaign)
	return nil
}

func (r *MemoryCampaignRepository) GetByID(_ context.Context, id uuid.UUID) (*model.Campaign, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.campaigns[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	return clone(c), nil
}

func (r *MemoryCampaignRepository) List(_ context.Context, status model.CampaignStatus) ([]*model.Campaign, error) {
	r.mu.RLock()
	res := make([]*model.Campaign, 0, len(r.campaigns))
	for _, c := range r.campaigns {
		if status == "" || c.Status == status {
			res = append(res, clone(c))
		}
	}
	r.mu.RUnlock()

	sortNewestFirst(res)
	return res, nil
}

func (r *MemoryCampaignRepository) Update(_ context.Context, campaign *model.Campaign) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.campaigns[campaign.ID]
	if !ok {
		return model.ErrNotFound
	}
	next := clone(campaign)
	next.Status = current.Status
	next.TotalOrders = current.TotalOrders
	next.TotalRevenue = current.TotalRevenue
	next.TotalDiscount = current.TotalDiscount
	next.CreatedAt = current.CreatedAt
	next.CreatedBy = current.CreatedBy
	r.campaigns[campaign.ID] = next
	return nil
}

func (r *MemoryCampaignRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.campaigns[id]; !ok {
		return model.ErrNotFound
	}
	delete(r.campaigns, id)
	return nil
}

func (r *MemoryCampaignRepository) FindActive(_ context.Context, now time.Time) (*model.Campaign, error) {
	r.mu.RLock()
	var live []*model.Campaign
	for _, c := range r.campaigns {
		if c.LiveAt(now) {
			live = append(live, c)
		}
	}
	if len(live) == 0 {
		r.mu.RUnlock()
		return nil, nil
	}
	sortNewestFirst(live)
	found := clone(live[0])
	r.mu.RUnlock()
	return found, nil
}

func (r *MemoryCampaignRepository) TransitionStatus(_ context.Context, id uuid.UUID, from, to model.CampaignStatus, now time.Time) (*model.Campaign, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.campaigns[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	if c.Status != from {
		return nil, fmt.Errorf("%w: expected %s, found %s", model.ErrInvalidState, from, c.Status)
	}
	c.Status = to
	c.UpdatedAt = now
	return clone(c), nil
}

func (r *MemoryCampaignRepository) EndExpired(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, c := range r.campaigns {
		if c.Status == model.StatusActive && c.EndDate.Before(now) {
			c.Status = model.StatusEnded
			c.UpdatedAt = now
			n++
		}
	}
	return n, nil
}

func (r *MemoryCampaignRepository) ActivateScheduled(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, c := range r.campaigns {
		if c.Status == model.StatusScheduled && !now.Before(c.StartDate) && !now.After(c.EndDate) {
			c.Status = model.StatusActive
			c.UpdatedAt = now
			n++
		}
	}
	return n, nil
}

func (r *MemoryCampaignRepository) IncrementTotals(_ context.Context, id uuid.UUID, orderAmount, discountAmount model.Money) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.campaigns[id]
	if !ok {
		return model.ErrNotFound
	}
	c.TotalOrders++
	c.TotalRevenue = c.TotalRevenue.Add(orderAmount)
	c.TotalDiscount = c.TotalDiscount.Add(discountAmount)
	return nil
}

// sortNewestFirst matches the ORDER BY of the SQL queries
func sortNewestFirst(cs []*model.Campaign) {
	sort.Slice(cs, func(i, j int) bool {
		if !cs[i].StartDate.Equal(cs[j].StartDate) {
			return cs[i].StartDate.After(cs[j].StartDate)
		}
		return cs[i].CreatedAt.After(cs[j].CreatedAt)
	})
}
