package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/kkkkikiki/promo/internal/clock"
	"github.com/kkkkikiki/promo/internal/metrics"
	"github.com/kkkkikiki/promo/internal/model"
	"github.com/kkkkikiki/promo/internal/repository"
)

// LifecycleManager moves campaigns between statuses, either on an administrator's
// command or when the periodic sweeps find a date boundary has been crossed.
//
// Dates hold the intended schedule; status is authoritative. The display path only
// ever asks for status = ACTIVE within the date window, so status has to be kept
// fresh by running the sweeps more often than the shortest campaign window.
type LifecycleManager struct {
	store  repository.CampaignStore
	cache  Invalidator
	clock  clock.Clock
	logger *zap.Logger
}

// NewLifecycleManager creates a lifecycle manager
func NewLifecycleManager(store repository.CampaignStore, cache Invalidator, clk clock.Clock, logger *zap.Logger) *LifecycleManager {
	return &LifecycleManager{
		store:  store,
		cache:  cache,
		clock:  clk,
		logger: logger,
	}
}

// Activate makes a campaign ACTIVE. Rejected when it already is, has ended,
// or its end date has passed.
func (m *LifecycleManager) Activate(ctx context.Context, rawID string) (*model.Campaign, error) {
	return m.transition(ctx, rawID, model.StatusActive)
}

// Deactivate pauses an ACTIVE campaign. Paused campaigns stay paused until activated again.
func (m *LifecycleManager) Deactivate(ctx context.Context, rawID string) (*model.Campaign, error) {
	return m.transition(ctx, rawID, model.StatusPaused)
}

// Schedule stages a DRAFT or PAUSED campaign so the scheduled sweep activates it
// once its start date arrives.
func (m *LifecycleManager) Schedule(ctx context.Context, rawID string) (*model.Campaign, error) {
	return m.transition(ctx, rawID, model.StatusScheduled)
}

// End terminates a campaign from any status. Ending an ended campaign is a no-op.
func (m *LifecycleManager) End(ctx context.Context, rawID string) (*model.Campaign, error) {
	return m.transition(ctx, rawID, model.StatusEnded)
}

func (m *LifecycleManager) transition(ctx context.Context, rawID string, to model.CampaignStatus) (*model.Campaign, error) {
	id, err := model.ParseID(rawID)
	if err != nil {
		return nil, err
	}
	current, err := m.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if to == model.StatusEnded && current.Status == model.StatusEnded {
		return current, nil
	}

	now := m.clock.Now()
	if err := current.CheckTransition(to, now); err != nil {
		metrics.RecordTransition(string(to), "rejected")
		return nil, err
	}

	updated, err := m.store.TransitionStatus(ctx, id, current.Status, to, now)
	if err != nil {
		if errors.Is(err, model.ErrInvalidState) {
			metrics.RecordTransition(string(to), "rejected")
		}
		return nil, err
	}
	m.cache.Invalidate(ctx)
	metrics.RecordTransition(string(to), "ok")

	m.logger.Info("campaign status changed",
		zap.String("campaign_id", id.String()),
		zap.String("from", string(current.Status)),
		zap.String("to", string(to)),
	)
	return updated, nil
}

// SweepExpired ends every ACTIVE campaign whose end date has passed and returns how many moved.
// Running it again with nothing eligible is a no-op.
func (m *LifecycleManager) SweepExpired(ctx context.Context) (int64, error) {
	n, err := m.store.EndExpired(ctx, m.clock.Now())
	if err != nil {
		return 0, err
	}
	m.afterSweep(ctx, "expired", n)
	return n, nil
}

// SweepScheduled activates every SCHEDULED campaign whose window has opened.
func (m *LifecycleManager) SweepScheduled(ctx context.Context) (int64, error) {
	n, err := m.store.ActivateScheduled(ctx, m.clock.Now())
	if err != nil {
		return 0, err
	}
	m.afterSweep(ctx, "scheduled", n)
	return n, nil
}

func (m *LifecycleManager) afterSweep(ctx context.Context, sweep string, n int64) {
	metrics.RecordSweep(sweep, n)
	if n == 0 {
		return
	}
	m.cache.Invalidate(ctx)
	m.logger.Info("lifecycle sweep transitioned campaigns",
		zap.String("sweep", sweep),
		zap.Int64("count", n),
	)
}
