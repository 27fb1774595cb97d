package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kkkkikiki/promo/internal/model"
)

// ActiveFinder looks up the campaign currently on display
type ActiveFinder interface {
	// FindActive returns the ACTIVE campaign whose window contains now, or nil
	FindActive(ctx context.Context, now time.Time) (*model.Campaign, error)
}

// CampaignStore is the persistence surface the campaign services depend on
type CampaignStore interface {
	ActiveFinder

	Create(ctx context.Context, campaign *model.Campaign) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Campaign, error)
	// List returns campaigns ordered by start date, newest first. An empty status lists everything.
	List(ctx context.Context, status model.CampaignStatus) ([]*model.Campaign, error)
	// Update writes the editable fields; status and accumulators are left untouched.
	Update(ctx context.Context, campaign *model.Campaign) error
	Delete(ctx context.Context, id uuid.UUID) error

	// TransitionStatus moves id from one status to another only if it is still in from
	TransitionStatus(ctx context.Context, id uuid.UUID, from, to model.CampaignStatus, now time.Time) (*model.Campaign, error)
	EndExpired(ctx context.Context, now time.Time) (int64, error)
	ActivateScheduled(ctx context.Context, now time.Time) (int64, error)

	// IncrementTotals atomically adds one order to the campaign accumulators
	IncrementTotals(ctx context.Context, id uuid.UUID, orderAmount, discountAmount model.Money) error
}

// DBExecutor interface for database operations (can be *sqlx.DB or *sqlx.Tx)
type DBExecutor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	NamedExecContext(ctx context.Context, query string, arg interface{}) (sql.Result, error)
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

const campaignColumns = `id, name, description, status, start_date, end_date, applies_to,
	only_products_with_permission, discount_source, max_discount_percent, use_max_as_override,
	badge_text, badge_text_localized, created_by, total_orders, total_revenue, total_discount,
	created_at, updated_at`

// CampaignRepository handles campaign data operations on PostgreSQL
type CampaignRepository struct {
	db DBExecutor
}

// NewCampaignRepository creates a new campaign repository
func NewCampaignRepository(db DBExecutor) *CampaignRepository {
	return &CampaignRepository{db: db}
}

// Create inserts a new campaign
func (r *CampaignRepository) Create(ctx context.Context, campaign *model.Campaign) error {
	query := `
		INSERT INTO campaigns (` + campaignColumns + `)
		VALUES (:id, :name, :description, :status, :start_date, :end_date, :applies_to,
			:only_products_with_permission, :discount_source, :max_discount_percent, :use_max_as_override,
			:badge_text, :badge_text_localized, :created_by, :total_orders, :total_revenue, :total_discount,
			:created_at, :updated_at)
	`

	if _, err := r.db.NamedExecContext(ctx, query, campaign); err != nil {
		return fmt.Errorf("failed to create campaign: %w", err)
	}
	return nil
}

// GetByID retrieves a campaign by ID
func (r *CampaignRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE id = $1`

	var campaign model.Campaign
	if err := r.db.GetContext(ctx, &campaign, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get campaign: %w", err)
	}
	return &campaign, nil
}

// List retrieves campaigns, optionally filtered by status
func (r *CampaignRepository) List(ctx context.Context, status model.CampaignStatus) ([]*model.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns`
	args := []interface{}{}
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, status)
	}
	query += ` ORDER BY start_date DESC, created_at DESC`

	var campaigns []*model.Campaign
	if err := r.db.SelectContext(ctx, &campaigns, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list campaigns: %w", err)
	}
	return campaigns, nil
}

// Update writes the editable campaign fields
func (r *CampaignRepository) Update(ctx context.Context, campaign *model.Campaign) error {
	query := `
		UPDATE campaigns SET
			name = :name,
			description = :description,
			start_date = :start_date,
			end_date = :end_date,
			applies_to = :applies_to,
			only_products_with_permission = :only_products_with_permission,
			discount_source = :discount_source,
			max_discount_percent = :max_discount_percent,
			use_max_as_override = :use_max_as_override,
			badge_text = :badge_text,
			badge_text_localized = :badge_text_localized,
			updated_at = :updated_at
		WHERE id = :id
	`

	result, err := r.db.NamedExecContext(ctx, query, campaign)
	if err != nil {
		return fmt.Errorf("failed to update campaign: %w", err)
	}
	return expectOneRow(result)
}

// Delete removes a campaign
func (r *CampaignRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM campaigns WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete campaign: %w", err)
	}
	return expectOneRow(result)
}

// FindActive uses the (status, start_date, end_date) index. When several campaigns are
// ACTIVE at once the most recently started one wins.
func (r *CampaignRepository) FindActive(ctx context.Context, now time.Time) (*model.Campaign, error) {
	query := `
		SELECT ` + campaignColumns + `
		FROM campaigns
		WHERE status = $1 AND start_date <= $2 AND end_date >= $2
		ORDER BY start_date DESC, created_at DESC
		LIMIT 1
	`

	var campaign model.Campaign
	if err := r.db.GetContext(ctx, &campaign, query, model.StatusActive, now); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find active campaign: %w", err)
	}
	return &campaign, nil
}

// TransitionStatus performs a compare-and-set on the status column
func (r *CampaignRepository) TransitionStatus(ctx context.Context, id uuid.UUID, from, to model.CampaignStatus, now time.Time) (*model.Campaign, error) {
	query := `
		UPDATE campaigns
		SET status = $1, updated_at = $2
		WHERE id = $3 AND status = $4
		RETURNING ` + campaignColumns

	var campaign model.Campaign
	err := r.db.GetContext(ctx, &campaign, query, to, now, id, from)
	if err == nil {
		return &campaign, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to transition campaign: %w", err)
	}

	// Nothing matched: either the row is gone or someone else moved it first
	current, getErr := r.GetByID(ctx, id)
	if getErr != nil {
		return nil, getErr
	}
	return nil, fmt.Errorf("%w: expected %s, found %s", model.ErrInvalidState, from, current.Status)
}

// EndExpired moves every ACTIVE campaign whose end date has passed to ENDED
func (r *CampaignRepository) EndExpired(ctx context.Context, now time.Time) (int64, error) {
	query := `
		UPDATE campaigns
		SET status = $1, updated_at = $2
		WHERE status = $3 AND end_date < $2
	`

	result, err := r.db.ExecContext(ctx, query, model.StatusEnded, now, model.StatusActive)
	if err != nil {
		return 0, fmt.Errorf("failed to end expired campaigns: %w", err)
	}
	return result.RowsAffected()
}

// ActivateScheduled moves every SCHEDULED campaign whose window has opened to ACTIVE
func (r *CampaignRepository) ActivateScheduled(ctx context.Context, now time.Time) (int64, error) {
	query := `
		UPDATE campaigns
		SET status = $1, updated_at = $2
		WHERE status = $3 AND start_date <= $2 AND end_date >= $2
	`

	result, err := r.db.ExecContext(ctx, query, model.StatusActive, now, model.StatusScheduled)
	if err != nil {
		return 0, fmt.Errorf("failed to activate scheduled campaigns: %w", err)
	}
	return result.RowsAffected()
}

// IncrementTotals adds to the accumulators in a single statement, no read-modify-write
func (r *CampaignRepository) IncrementTotals(ctx context.Context, id uuid.UUID, orderAmount, discountAmount model.Money) error {
	query := `
		UPDATE campaigns
		SET total_orders = total_orders + 1,
			total_revenue = total_revenue + $2,
			total_discount = total_discount + $3
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, id, orderAmount, discountAmount)
	if err != nil {
		return fmt.Errorf("failed to increment campaign totals: %w", err)
	}
	return expectOneRow(result)
}

func expectOneRow(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return model.ErrNotFound
	}
	return nil
}
