package model

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// CampaignStatus is the authoritative temporal state of a campaign
type CampaignStatus string

const (
	StatusDraft     CampaignStatus = "DRAFT"
	StatusScheduled CampaignStatus = "SCHEDULED"
	StatusActive    CampaignStatus = "ACTIVE"
	StatusPaused    CampaignStatus = "PAUSED"
	StatusEnded     CampaignStatus = "ENDED"
)

// Valid reports whether s is one of the known statuses
func (s CampaignStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusScheduled, StatusActive, StatusPaused, StatusEnded:
		return true
	}
	return false
}

// VisitorTag selects which visitors a campaign applies to
type VisitorTag string

const (
	VisitorInfluencerReferrals VisitorTag = "INFLUENCER_REFERRALS"
	VisitorAll                 VisitorTag = "ALL_VISITORS"
)

func (t VisitorTag) Valid() bool {
	switch t {
	case VisitorInfluencerReferrals, VisitorAll:
		return true
	}
	return false
}

// DiscountSource decides which input determines the discount magnitude
type DiscountSource string

const (
	SourceProductPermission DiscountSource = "PRODUCT_PERMISSION"
	SourceArtistDefault     DiscountSource = "ARTIST_DEFAULT"
	SourceOverride          DiscountSource = "OVERRIDE"
)

func (s DiscountSource) Valid() bool {
	switch s {
	case SourceProductPermission, SourceArtistDefault, SourceOverride:
		return true
	}
	return false
}

// VisitorTags is stored as a TEXT[] column
type VisitorTags []VisitorTag

// Contains reports whether tag is present
func (v VisitorTags) Contains(tag VisitorTag) bool {
	for _, t := range v {
		if t == tag {
			return true
		}
	}
	return false
}

// Scan implements sql.Scanner
func (v *VisitorTags) Scan(src interface{}) error {
	var raw pq.StringArray
	if err := raw.Scan(src); err != nil {
		return fmt.Errorf("failed to scan applies_to: %w", err)
	}
	tags := make(VisitorTags, 0, len(raw))
	for _, s := range raw {
		tags = append(tags, VisitorTag(s))
	}
	*v = tags
	return nil
}

// Value implements driver.Valuer
func (v VisitorTags) Value() (driver.Value, error) {
	raw := make(pq.StringArray, 0, len(v))
	for _, t := range v {
		raw = append(raw, string(t))
	}
	return raw.Value()
}

// MaxDiscountCap is the upper bound of Campaign.MaxDiscountPercent
var MaxDiscountCap = PercentFromInt(50)

// MaxPercent is the upper bound of any percentage input
var MaxPercent = PercentFromInt(100)

// Campaign represents a promotional campaign in the database
type Campaign struct {
	ID                         uuid.UUID      `db:"id" json:"id"`
	Name                       string         `db:"name" json:"name"`
	Description                *string        `db:"description" json:"description,omitempty"`
	Status                     CampaignStatus `db:"status" json:"status"`
	StartDate                  time.Time      `db:"start_date" json:"start_date"`
	EndDate                    time.Time      `db:"end_date" json:"end_date"`
	AppliesTo                  VisitorTags    `db:"applies_to" json:"applies_to"`
	OnlyProductsWithPermission bool           `db:"only_products_with_permission" json:"only_products_with_permission"`
	DiscountSource             DiscountSource `db:"discount_source" json:"discount_source"`
	MaxDiscountPercent         Percent        `db:"max_discount_percent" json:"max_discount_percent"`
	UseMaxAsOverride           bool           `db:"use_max_as_override" json:"use_max_as_override"`
	BadgeText                  string         `db:"badge_text" json:"badge_text"`
	BadgeTextLocalized         string         `db:"badge_text_localized" json:"badge_text_localized"`
	CreatedBy                  string         `db:"created_by" json:"created_by"`
	TotalOrders                int64          `db:"total_orders" json:"total_orders"`
	TotalRevenue               Money          `db:"total_revenue" json:"total_revenue"`
	TotalDiscount              Money          `db:"total_discount" json:"total_discount"`
	CreatedAt                  time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt                  time.Time      `db:"updated_at" json:"updated_at"`
}

// Validate checks the campaign invariants
func (c *Campaign) Validate() error {
	var problems []string
	if strings.TrimSpace(c.Name) == "" {
		problems = append(problems, "name is required")
	}
	if !c.Status.Valid() {
		problems = append(problems, fmt.Sprintf("unknown status %q", c.Status))
	}
	if c.StartDate.IsZero() || c.EndDate.IsZero() {
		problems = append(problems, "start_date and end_date are required")
	} else if !c.StartDate.Before(c.EndDate) {
		problems = append(problems, "start_date must be before end_date")
	}
	if len(c.AppliesTo) == 0 {
		problems = append(problems, "applies_to must not be empty")
	}
	for _, t := range c.AppliesTo {
		if !t.Valid() {
			problems = append(problems, fmt.Sprintf("unknown visitor tag %q", t))
		}
	}
	if !c.DiscountSource.Valid() {
		problems = append(problems, fmt.Sprintf("unknown discount source %q", c.DiscountSource))
	}
	if !c.MaxDiscountPercent.Within(Percent{}, MaxDiscountCap) {
		problems = append(problems, "max_discount_percent must be within [0,50]")
	}
	if !c.MaxDiscountPercent.FitsStoredPrecision() {
		problems = append(problems, "max_discount_percent must have at most 2 decimal places")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidArgument, strings.Join(problems, "; "))
	}
	return nil
}

// LiveAt reports whether the campaign is ACTIVE and now falls inside [StartDate, EndDate]
func (c *Campaign) LiveAt(now time.Time) bool {
	return c.Status == StatusActive && !now.Before(c.StartDate) && !now.After(c.EndDate)
}

// Expired reports whether the end date has passed
func (c *Campaign) Expired(now time.Time) bool {
	return c.EndDate.Before(now)
}

// CheckTransition validates a manual move from the current status to next.
func (c *Campaign) CheckTransition(next CampaignStatus, now time.Time) error {
	if c.Status == StatusEnded {
		return fmt.Errorf("%w: campaign has ended", ErrInvalidState)
	}

	switch next {
	case StatusActive:
		switch c.Status {
		case StatusActive:
			return fmt.Errorf("%w: campaign is already active", ErrInvalidState)
		case StatusDraft, StatusPaused, StatusScheduled:
			if c.Expired(now) {
				return fmt.Errorf("%w: campaign end date has passed", ErrInvalidState)
			}
			return nil
		}
	case StatusPaused:
		if c.Status != StatusActive {
			return fmt.Errorf("%w: only active campaigns can be paused, status is %s", ErrInvalidState, c.Status)
		}
		return nil
	case StatusScheduled:
		switch c.Status {
		case StatusDraft, StatusPaused:
			if c.Expired(now) {
				return fmt.Errorf("%w: campaign end date has passed", ErrInvalidState)
			}
			return nil
		case StatusScheduled, StatusActive:
			return fmt.Errorf("%w: cannot schedule a %s campaign", ErrInvalidState, c.Status)
		}
	case StatusEnded:
		return nil
	case StatusDraft:
		return fmt.Errorf("%w: campaigns cannot return to draft", ErrInvalidState)
	}
	return fmt.Errorf("%w: unknown transition %s -> %s", ErrInvalidState, c.Status, next)
}

// CampaignSpec holds the administrator-supplied fields of a new campaign
type CampaignSpec struct {
	Name                       string         `json:"name"`
	Description                *string        `json:"description,omitempty"`
	StartDate                  time.Time      `json:"start_date"`
	EndDate                    time.Time      `json:"end_date"`
	AppliesTo                  VisitorTags    `json:"applies_to"`
	OnlyProductsWithPermission bool           `json:"only_products_with_permission"`
	DiscountSource             DiscountSource `json:"discount_source"`
	MaxDiscountPercent         Percent        `json:"max_discount_percent"`
	UseMaxAsOverride           bool           `json:"use_max_as_override"`
	BadgeText                  string         `json:"badge_text"`
	BadgeTextLocalized         string         `json:"badge_text_localized"`
	CreatedBy                  string         `json:"created_by"`
}

// NewCampaign builds a DRAFT campaign from spec
func NewCampaign(spec CampaignSpec, now time.Time) (*Campaign, error) {
	c := &Campaign{
		ID:                         uuid.New(),
		Name:                       spec.Name,
		Description:                spec.Description,
		Status:                     StatusDraft,
		StartDate:                  spec.StartDate.UTC(),
		EndDate:                    spec.EndDate.UTC(),
		AppliesTo:                  append(VisitorTags(nil), spec.AppliesTo...),
		OnlyProductsWithPermission: spec.OnlyProductsWithPermission,
		DiscountSource:             spec.DiscountSource,
		MaxDiscountPercent:         spec.MaxDiscountPercent,
		UseMaxAsOverride:           spec.UseMaxAsOverride,
		BadgeText:                  spec.BadgeText,
		BadgeTextLocalized:         spec.BadgeTextLocalized,
		CreatedBy:                  spec.CreatedBy,
		CreatedAt:                  now,
		UpdatedAt:                  now,
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// CampaignPatch is a partial update; nil fields are left untouched.
// Status is intentionally absent: it only changes through lifecycle commands.
type CampaignPatch struct {
	Name                       *string         `json:"name,omitempty"`
	Description                *string         `json:"description,omitempty"`
	StartDate                  *time.Time      `json:"start_date,omitempty"`
	EndDate                    *time.Time      `json:"end_date,omitempty"`
	AppliesTo                  VisitorTags     `json:"applies_to,omitempty"`
	OnlyProductsWithPermission *bool           `json:"only_products_with_permission,omitempty"`
	DiscountSource             *DiscountSource `json:"discount_source,omitempty"`
	MaxDiscountPercent         *Percent        `json:"max_discount_percent,omitempty"`
	UseMaxAsOverride           *bool           `json:"use_max_as_override,omitempty"`
	BadgeText                  *string         `json:"badge_text,omitempty"`
	BadgeTextLocalized         *string         `json:"badge_text_localized,omitempty"`
}

// Apply returns a copy of c with the patch applied and validated
func (c *Campaign) Apply(p CampaignPatch, now time.Time) (*Campaign, error) {
	cp := *c
	if p.Name != nil {
		cp.Name = *p.Name
	}
	if p.Description != nil {
		cp.Description = p.Description
	}
	if p.StartDate != nil {
		cp.StartDate = p.StartDate.UTC()
	}
	if p.EndDate != nil {
		cp.EndDate = p.EndDate.UTC()
	}
	if p.AppliesTo != nil {
		cp.AppliesTo = append(VisitorTags(nil), p.AppliesTo...)
	}
	if p.OnlyProductsWithPermission != nil {
		cp.OnlyProductsWithPermission = *p.OnlyProductsWithPermission
	}
	if p.DiscountSource != nil {
		cp.DiscountSource = *p.DiscountSource
	}
	if p.MaxDiscountPercent != nil {
		cp.MaxDiscountPercent = *p.MaxDiscountPercent
	}
	if p.UseMaxAsOverride != nil {
		cp.UseMaxAsOverride = *p.UseMaxAsOverride
	}
	if p.BadgeText != nil {
		cp.BadgeText = *p.BadgeText
	}
	if p.BadgeTextLocalized != nil {
		cp.BadgeTextLocalized = *p.BadgeTextLocalized
	}
	cp.UpdatedAt = now
	if err := cp.Validate(); err != nil {
		return nil, err
	}
	return &cp, nil
}
