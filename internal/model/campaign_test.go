package model

import (
	"errors"
	"testing"
	"time"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func validSpec() CampaignSpec {
	return CampaignSpec{
		Name:               "Spring sale",
		StartDate:          t0,
		EndDate:            t0.Add(72 * time.Hour),
		AppliesTo:          VisitorTags{VisitorAll},
		DiscountSource:     SourceProductPermission,
		MaxDiscountPercent: PercentFromInt(15),
		CreatedBy:          "admin-1",
	}
}

func TestNewCampaignStartsInDraft(t *testing.T) {
	c, err := NewCampaign(validSpec(), t0)
	if err != nil {
		t.Fatalf("new campaign: %v", err)
	}
	if c.Status != StatusDraft {
		t.Fatalf("expected DRAFT, got %s", c.Status)
	}
	if c.TotalOrders != 0 || !c.TotalRevenue.IsZero() || !c.TotalDiscount.IsZero() {
		t.Fatalf("accumulators must start at zero")
	}
}

func TestCampaignValidateRejectsBrokenInvariants(t *testing.T) {
	mutations := map[string]func(*CampaignSpec){
		"missing name":    func(s *CampaignSpec) { s.Name = " " },
		"reversed dates":  func(s *CampaignSpec) { s.EndDate = s.StartDate.Add(-time.Hour) },
		"equal dates":     func(s *CampaignSpec) { s.EndDate = s.StartDate },
		"empty audience":  func(s *CampaignSpec) { s.AppliesTo = nil },
		"unknown tag":     func(s *CampaignSpec) { s.AppliesTo = VisitorTags{"VIP"} },
		"unknown source":  func(s *CampaignSpec) { s.DiscountSource = "LOYALTY_POINTS" },
		"cap too large":   func(s *CampaignSpec) { s.MaxDiscountPercent = PercentFromInt(51) },
		"negative cap":    func(s *CampaignSpec) { s.MaxDiscountPercent = PercentFromInt(-1) },
		"cap too precise": func(s *CampaignSpec) { s.MaxDiscountPercent, _ = ParsePercent("12.345") },
	}
	for name, mutate := range mutations {
		spec := validSpec()
		mutate(&spec)
		if _, err := NewCampaign(spec, t0); !errors.Is(err, ErrInvalidArgument) {
			t.Fatalf("%s: expected invalid argument, got %v", name, err)
		}
	}
}

func TestCampaignCapKeepsTwoDecimals(t *testing.T) {
	spec := validSpec()
	spec.MaxDiscountPercent, _ = ParsePercent("12.34")
	c, err := NewCampaign(spec, t0)
	if err != nil {
		t.Fatalf("two decimal cap must be accepted: %v", err)
	}
	if c.MaxDiscountPercent.String() != "12.34" {
		t.Fatalf("cap changed to %s", c.MaxDiscountPercent)
	}
}

func TestCheckTransition(t *testing.T) {
	before := t0.Add(time.Hour)
	after := t0.Add(100 * time.Hour)

	cases := []struct {
		from    CampaignStatus
		to      CampaignStatus
		now     time.Time
		allowed bool
	}{
		{StatusDraft, StatusActive, before, true},
		{StatusDraft, StatusActive, after, false},
		{StatusActive, StatusActive, before, false},
		{StatusPaused, StatusActive, before, true},
		{StatusScheduled, StatusActive, before, true},
		{StatusActive, StatusPaused, before, true},
		{StatusDraft, StatusPaused, before, false},
		{StatusPaused, StatusPaused, before, false},
		{StatusDraft, StatusScheduled, before, true},
		{StatusPaused, StatusScheduled, before, true},
		{StatusActive, StatusScheduled, before, false},
		{StatusDraft, StatusScheduled, after, false},
		{StatusActive, StatusEnded, before, true},
		{StatusDraft, StatusEnded, before, true},
		{StatusEnded, StatusActive, before, false},
		{StatusEnded, StatusPaused, before, false},
		{StatusActive, StatusDraft, before, false},
	}
	for _, tc := range cases {
		c, _ := NewCampaign(validSpec(), t0)
		c.Status = tc.from
		err := c.CheckTransition(tc.to, tc.now)
		if tc.allowed && err != nil {
			t.Fatalf("%s -> %s: unexpected error %v", tc.from, tc.to, err)
		}
		if !tc.allowed && !errors.Is(err, ErrInvalidState) {
			t.Fatalf("%s -> %s: expected invalid state, got %v", tc.from, tc.to, err)
		}
	}
}

func TestLiveAtIncludesBoundaries(t *testing.T) {
	c, _ := NewCampaign(validSpec(), t0)
	c.Status = StatusActive
	if !c.LiveAt(c.StartDate) || !c.LiveAt(c.EndDate) {
		t.Fatalf("window must be inclusive")
	}
	if c.LiveAt(c.StartDate.Add(-time.Second)) || c.LiveAt(c.EndDate.Add(time.Second)) {
		t.Fatalf("outside the window must not be live")
	}
	c.Status = StatusPaused
	if c.LiveAt(c.StartDate.Add(time.Hour)) {
		t.Fatalf("paused campaign must not be live")
	}
}

func TestApplyPatchKeepsOriginal(t *testing.T) {
	c, _ := NewCampaign(validSpec(), t0)
	name := "Renamed"
	limit := PercentFromInt(20)
	updated, err := c.Apply(CampaignPatch{Name: &name, MaxDiscountPercent: &limit}, t0.Add(time.Minute))
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if updated.Name != name || !updated.MaxDiscountPercent.Equal(limit) {
		t.Fatalf("patch not applied: %+v", updated)
	}
	if c.Name != "Spring sale" {
		t.Fatalf("original mutated")
	}

	bad := PercentFromInt(80)
	if _, err := c.Apply(CampaignPatch{MaxDiscountPercent: &bad}, t0); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected invalid argument, got %v", err)
	}
}

func TestParseID(t *testing.T) {
	if _, err := ParseID("not-a-uuid"); !errors.Is(err, ErrInvalidID) {
		t.Fatalf("expected invalid id, got %v", err)
	}
	if _, err := ParseID("00000000-0000-0000-0000-000000000000"); !errors.Is(err, ErrInvalidID) {
		t.Fatalf("expected invalid id for nil uuid, got %v", err)
	}
	if _, err := ParseID("6f1c1a52-6a55-4f4e-9d8e-0c2a4f3b9a11"); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
}
