package rpc

import (
	"context"
	"errors"
	"net/http"

	"connectrpc.com/connect"
	"go.uber.org/zap"

	"github.com/kkkkikiki/promo/internal/model"
	"github.com/kkkkikiki/promo/internal/service"
)

// CampaignServiceName is the fully-qualified name of the campaign service
const CampaignServiceName = "promo.v1.CampaignService"

// Procedure paths of CampaignService
const (
	CreateCampaignProcedure     = "/" + CampaignServiceName + "/CreateCampaign"
	GetCampaignProcedure        = "/" + CampaignServiceName + "/GetCampaign"
	ListCampaignsProcedure      = "/" + CampaignServiceName + "/ListCampaigns"
	UpdateCampaignProcedure     = "/" + CampaignServiceName + "/UpdateCampaign"
	DeleteCampaignProcedure     = "/" + CampaignServiceName + "/DeleteCampaign"
	ActivateCampaignProcedure   = "/" + CampaignServiceName + "/ActivateCampaign"
	DeactivateCampaignProcedure = "/" + CampaignServiceName + "/DeactivateCampaign"
	EndCampaignProcedure        = "/" + CampaignServiceName + "/EndCampaign"
	ScheduleCampaignProcedure   = "/" + CampaignServiceName + "/ScheduleCampaign"
	GetActiveCampaignProcedure  = "/" + CampaignServiceName + "/GetActiveCampaign"
	CalculateDiscountProcedure  = "/" + CampaignServiceName + "/CalculateDiscount"
	CalculateDiscountsProcedure = "/" + CampaignServiceName + "/CalculateDiscounts"
	RecordOrderProcedure        = "/" + CampaignServiceName + "/RecordOrder"
	SweepExpiredProcedure       = "/" + CampaignServiceName + "/SweepExpired"
	SweepScheduledProcedure     = "/" + CampaignServiceName + "/SweepScheduled"
)

// CampaignServer exposes the campaign services over connect
type CampaignServer struct {
	campaigns *service.CampaignService
	lifecycle *service.LifecycleManager
	resolver  *service.DiscountResolver
	analytics *service.AnalyticsAccumulator
	logger    *zap.Logger
}

// NewCampaignServer creates a new CampaignServer instance
func NewCampaignServer(
	campaigns *service.CampaignService,
	lifecycle *service.LifecycleManager,
	resolver *service.DiscountResolver,
	analytics *service.AnalyticsAccumulator,
	logger *zap.Logger,
) *CampaignServer {
	return &CampaignServer{
		campaigns: campaigns,
		lifecycle: lifecycle,
		resolver:  resolver,
		analytics: analytics,
		logger:    logger,
	}
}

// NewCampaignServiceHandler builds an HTTP handler serving every CampaignService
// procedure. It returns the path to mount the handler on.
func NewCampaignServiceHandler(s *CampaignServer, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(jsonCodec{})}, opts...)

	mux := http.NewServeMux()
	mux.Handle(CreateCampaignProcedure, connect.NewUnaryHandler(CreateCampaignProcedure, s.CreateCampaign, opts...))
	mux.Handle(GetCampaignProcedure, connect.NewUnaryHandler(GetCampaignProcedure, s.GetCampaign, opts...))
	mux.Handle(ListCampaignsProcedure, connect.NewUnaryHandler(ListCampaignsProcedure, s.ListCampaigns, opts...))
	mux.Handle(UpdateCampaignProcedure, connect.NewUnaryHandler(UpdateCampaignProcedure, s.UpdateCampaign, opts...))
	mux.Handle(DeleteCampaignProcedure, connect.NewUnaryHandler(DeleteCampaignProcedure, s.DeleteCampaign, opts...))
	mux.Handle(ActivateCampaignProcedure, connect.NewUnaryHandler(ActivateCampaignProcedure, s.ActivateCampaign, opts...))
	mux.Handle(DeactivateCampaignProcedure, connect.NewUnaryHandler(DeactivateCampaignProcedure, s.DeactivateCampaign, opts...))
	mux.Handle(EndCampaignProcedure, connect.NewUnaryHandler(EndCampaignProcedure, s.EndCampaign, opts...))
	mux.Handle(ScheduleCampaignProcedure, connect.NewUnaryHandler(ScheduleCampaignProcedure, s.ScheduleCampaign, opts...))
	mux.Handle(GetActiveCampaignProcedure, connect.NewUnaryHandler(GetActiveCampaignProcedure, s.GetActiveCampaign, opts...))
	mux.Handle(CalculateDiscountProcedure, connect.NewUnaryHandler(CalculateDiscountProcedure, s.CalculateDiscount, opts...))
	mux.Handle(CalculateDiscountsProcedure, connect.NewUnaryHandler(CalculateDiscountsProcedure, s.CalculateDiscounts, opts...))
	mux.Handle(RecordOrderProcedure, connect.NewUnaryHandler(RecordOrderProcedure, s.RecordOrder, opts...))
	mux.Handle(SweepExpiredProcedure, connect.NewUnaryHandler(SweepExpiredProcedure, s.SweepExpired, opts...))
	mux.Handle(SweepScheduledProcedure, connect.NewUnaryHandler(SweepScheduledProcedure, s.SweepScheduled, opts...))

	return "/" + CampaignServiceName + "/", mux
}

// CreateCampaign creates a new DRAFT campaign
func (s *CampaignServer) CreateCampaign(
	ctx context.Context,
	req *connect.Request[CreateCampaignRequest],
) (*connect.Response[CampaignResponse], error) {
	campaign, err := s.campaigns.CreateCampaign(ctx, req.Msg.Campaign)
	if err != nil {
		return nil, s.connectError(CreateCampaignProcedure, err)
	}
	return connect.NewResponse(&CampaignResponse{Campaign: campaign}), nil
}

// GetCampaign retrieves campaign information
func (s *CampaignServer) GetCampaign(
	ctx context.Context,
	req *connect.Request[CampaignRequest],
) (*connect.Response[CampaignResponse], error) {
	campaign, err := s.campaigns.GetCampaign(ctx, req.Msg.CampaignID)
	if err != nil {
		return nil, s.connectError(GetCampaignProcedure, err)
	}
	return connect.NewResponse(&CampaignResponse{Campaign: campaign}), nil
}

func (s *CampaignServer) ListCampaigns(
	ctx context.Context,
	req *connect.Request[ListCampaignsRequest],
) (*connect.Response[ListCampaignsResponse], error) {
	campaigns, err := s.campaigns.ListCampaigns(ctx, req.Msg.Status)
	if err != nil {
		return nil, s.connectError(ListCampaignsProcedure, err)
	}
	if campaigns == nil {
		campaigns = []*model.Campaign{}
	}
	return connect.NewResponse(&ListCampaignsResponse{Campaigns: campaigns}), nil
}

func (s *CampaignServer) UpdateCampaign(
	ctx context.Context,
	req *connect.Request[UpdateCampaignRequest],
) (*connect.Response[CampaignResponse], error) {
	campaign, err := s.campaigns.UpdateCampaign(ctx, req.Msg.CampaignID, req.Msg.Patch)
	if err != nil {
		return nil, s.connectError(UpdateCampaignProcedure, err)
	}
	return connect.NewResponse(&CampaignResponse{Campaign: campaign}), nil
}

func (s *CampaignServer) DeleteCampaign(
	ctx context.Context,
	req *connect.Request[CampaignRequest],
) (*connect.Response[Empty], error) {
	if err := s.campaigns.DeleteCampaign(ctx, req.Msg.CampaignID); err != nil {
		return nil, s.connectError(DeleteCampaignProcedure, err)
	}
	return connect.NewResponse(&Empty{}), nil
}

func (s *CampaignServer) ActivateCampaign(
	ctx context.Context,
	req *connect.Request[CampaignRequest],
) (*connect.Response[CampaignResponse], error) {
	return s.lifecycleCommand(ctx, ActivateCampaignProcedure, req.Msg.CampaignID, s.lifecycle.Activate)
}

func (s *CampaignServer) DeactivateCampaign(
	ctx context.Context,
	req *connect.Request[CampaignRequest],
) (*connect.Response[CampaignResponse], error) {
	return s.lifecycleCommand(ctx, DeactivateCampaignProcedure, req.Msg.CampaignID, s.lifecycle.Deactivate)
}

func (s *CampaignServer) EndCampaign(
	ctx context.Context,
	req *connect.Request[CampaignRequest],
) (*connect.Response[CampaignResponse], error) {
	return s.lifecycleCommand(ctx, EndCampaignProcedure, req.Msg.CampaignID, s.lifecycle.End)
}

func (s *CampaignServer) ScheduleCampaign(
	ctx context.Context,
	req *connect.Request[CampaignRequest],
) (*connect.Response[CampaignResponse], error) {
	return s.lifecycleCommand(ctx, ScheduleCampaignProcedure, req.Msg.CampaignID, s.lifecycle.Schedule)
}

func (s *CampaignServer) lifecycleCommand(
	ctx context.Context,
	procedure, campaignID string,
	command func(context.Context, string) (*model.Campaign, error),
) (*connect.Response[CampaignResponse], error) {
	campaign, err := command(ctx, campaignID)
	if err != nil {
		return nil, s.connectError(procedure, err)
	}
	return connect.NewResponse(&CampaignResponse{Campaign: campaign}), nil
}

// GetActiveCampaign returns the campaign on display right now. An empty
// response, not an error, means no campaign is running.
func (s *CampaignServer) GetActiveCampaign(
	ctx context.Context,
	_ *connect.Request[Empty],
) (*connect.Response[CampaignResponse], error) {
	campaign, err := s.campaigns.GetActiveCampaign(ctx)
	if err != nil {
		return nil, s.connectError(GetActiveCampaignProcedure, err)
	}
	return connect.NewResponse(&CampaignResponse{Campaign: campaign}), nil
}

// CalculateDiscount resolves the discount for one product view
func (s *CampaignServer) CalculateDiscount(
	ctx context.Context,
	req *connect.Request[service.DiscountQuery],
) (*connect.Response[CalculateDiscountResponse], error) {
	q := req.Msg
	decision, err := s.resolver.Resolve(ctx, q.Product, q.SellerDefaultDiscount, q.IsReferralVisitor)
	if err != nil {
		return nil, s.connectError(CalculateDiscountProcedure, err)
	}
	return connect.NewResponse(&CalculateDiscountResponse{Discount: decision}), nil
}

// CalculateDiscounts resolves a listing page against a single active campaign read
func (s *CampaignServer) CalculateDiscounts(
	ctx context.Context,
	req *connect.Request[CalculateDiscountsRequest],
) (*connect.Response[CalculateDiscountsResponse], error) {
	decisions, err := s.resolver.ResolveMany(ctx, req.Msg.Queries)
	if err != nil {
		return nil, s.connectError(CalculateDiscountsProcedure, err)
	}
	return connect.NewResponse(&CalculateDiscountsResponse{Discounts: decisions}), nil
}

// RecordOrder adds a completed order to its campaign's totals
func (s *CampaignServer) RecordOrder(
	ctx context.Context,
	req *connect.Request[RecordOrderRequest],
) (*connect.Response[Empty], error) {
	m := req.Msg
	if err := s.analytics.RecordOrder(ctx, m.CampaignID, m.OrderAmount, m.DiscountAmount); err != nil {
		return nil, s.connectError(RecordOrderProcedure, err)
	}
	return connect.NewResponse(&Empty{}), nil
}

func (s *CampaignServer) SweepExpired(
	ctx context.Context,
	_ *connect.Request[Empty],
) (*connect.Response[SweepResponse], error) {
	n, err := s.lifecycle.SweepExpired(ctx)
	if err != nil {
		return nil, s.connectError(SweepExpiredProcedure, err)
	}
	return connect.NewResponse(&SweepResponse{Transitioned: n}), nil
}

func (s *CampaignServer) SweepScheduled(
	ctx context.Context,
	_ *connect.Request[Empty],
) (*connect.Response[SweepResponse], error) {
	n, err := s.lifecycle.SweepScheduled(ctx)
	if err != nil {
		return nil, s.connectError(SweepScheduledProcedure, err)
	}
	return connect.NewResponse(&SweepResponse{Transitioned: n}), nil
}

// connectError maps domain errors onto connect codes. Unexpected errors are
// logged here and reach the caller as CodeInternal.
func (s *CampaignServer) connectError(procedure string, err error) error {
	var ce *connect.Error
	if errors.As(err, &ce) {
		return ce
	}
	switch {
	case errors.Is(err, model.ErrNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, model.ErrInvalidState):
		return connect.NewError(connect.CodeFailedPrecondition, err)
	case errors.Is(err, model.ErrInvalidID), errors.Is(err, model.ErrInvalidArgument):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, context.Canceled):
		return connect.NewError(connect.CodeCanceled, err)
	case errors.Is(err, context.DeadlineExceeded):
		return connect.NewError(connect.CodeDeadlineExceeded, err)
	}
	s.logger.Error("procedure failed", zap.String("procedure", procedure), zap.Error(err))
	return connect.NewError(connect.CodeInternal, err)
}
