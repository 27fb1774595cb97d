package rpc

import (
	"context"

	"connectrpc.com/connect"

	"github.com/kkkkikiki/promo/internal/service"
)

// CampaignServiceClient is a connect client for CampaignService speaking the JSON codec
type CampaignServiceClient struct {
	createCampaign     *connect.Client[CreateCampaignRequest, CampaignResponse]
	getCampaign        *connect.Client[CampaignRequest, CampaignResponse]
	listCampaigns      *connect.Client[ListCampaignsRequest, ListCampaignsResponse]
	updateCampaign     *connect.Client[UpdateCampaignRequest, CampaignResponse]
	deleteCampaign     *connect.Client[CampaignRequest, Empty]
	activateCampaign   *connect.Client[CampaignRequest, CampaignResponse]
	deactivateCampaign *connect.Client[CampaignRequest, CampaignResponse]
	endCampaign        *connect.Client[CampaignRequest, CampaignResponse]
	scheduleCampaign   *connect.Client[CampaignRequest, CampaignResponse]
	getActiveCampaign  *connect.Client[Empty, CampaignResponse]
	calculateDiscount  *connect.Client[service.DiscountQuery, CalculateDiscountResponse]
	calculateDiscounts *connect.Client[CalculateDiscountsRequest, CalculateDiscountsResponse]
	recordOrder        *connect.Client[RecordOrderRequest, Empty]
	sweepExpired       *connect.Client[Empty, SweepResponse]
	sweepScheduled     *connect.Client[Empty, SweepResponse]
}

// NewCampaignServiceClient creates a client for the service hosted at baseURL
func NewCampaignServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *CampaignServiceClient {
	opts = append([]connect.ClientOption{connect.WithCodec(jsonCodec{})}, opts...)
	return &CampaignServiceClient{
		createCampaign:     connect.NewClient[CreateCampaignRequest, CampaignResponse](httpClient, baseURL+CreateCampaignProcedure, opts...),
		getCampaign:        connect.NewClient[CampaignRequest, CampaignResponse](httpClient, baseURL+GetCampaignProcedure, opts...),
		listCampaigns:      connect.NewClient[ListCampaignsRequest, ListCampaignsResponse](httpClient, baseURL+ListCampaignsProcedure, opts...),
		updateCampaign:     connect.NewClient[UpdateCampaignRequest, CampaignResponse](httpClient, baseURL+UpdateCampaignProcedure, opts...),
		deleteCampaign:     connect.NewClient[CampaignRequest, Empty](httpClient, baseURL+DeleteCampaignProcedure, opts...),
		activateCampaign:   connect.NewClient[CampaignRequest, CampaignResponse](httpClient, baseURL+ActivateCampaignProcedure, opts...),
		deactivateCampaign: connect.NewClient[CampaignRequest, CampaignResponse](httpClient, baseURL+DeactivateCampaignProcedure, opts...),
		endCampaign:        connect.NewClient[CampaignRequest, CampaignResponse](httpClient, baseURL+EndCampaignProcedure, opts...),
		scheduleCampaign:   connect.NewClient[CampaignRequest, CampaignResponse](httpClient, baseURL+ScheduleCampaignProcedure, opts...),
		getActiveCampaign:  connect.NewClient[Empty, CampaignResponse](httpClient, baseURL+GetActiveCampaignProcedure, opts...),
		calculateDiscount:  connect.NewClient[service.DiscountQuery, CalculateDiscountResponse](httpClient, baseURL+CalculateDiscountProcedure, opts...),
		calculateDiscounts: connect.NewClient[CalculateDiscountsRequest, CalculateDiscountsResponse](httpClient, baseURL+CalculateDiscountsProcedure, opts...),
		recordOrder:        connect.NewClient[RecordOrderRequest, Empty](httpClient, baseURL+RecordOrderProcedure, opts...),
		sweepExpired:       connect.NewClient[Empty, SweepResponse](httpClient, baseURL+SweepExpiredProcedure, opts...),
		sweepScheduled:     connect.NewClient[Empty, SweepResponse](httpClient, baseURL+SweepScheduledProcedure, opts...),
	}
}

func (c *CampaignServiceClient) CreateCampaign(ctx context.Context, req *connect.Request[CreateCampaignRequest]) (*connect.Response[CampaignResponse], error) {
	return c.createCampaign.CallUnary(ctx, req)
}

func (c *CampaignServiceClient) GetCampaign(ctx context.Context, req *connect.Request[CampaignRequest]) (*connect.Response[CampaignResponse], error) {
	return c.getCampaign.CallUnary(ctx, req)
}

func (c *CampaignServiceClient) ListCampaigns(ctx context.Context, req *connect.Request[ListCampaignsRequest]) (*connect.Response[ListCampaignsResponse], error) {
	return c.listCampaigns.CallUnary(ctx, req)
}

func (c *CampaignServiceClient) UpdateCampaign(ctx context.Context, req *connect.Request[UpdateCampaignRequest]) (*connect.Response[CampaignResponse], error) {
	return c.updateCampaign.CallUnary(ctx, req)
}

func (c *CampaignServiceClient) DeleteCampaign(ctx context.Context, req *connect.Request[CampaignRequest]) (*connect.Response[Empty], error) {
	return c.deleteCampaign.CallUnary(ctx, req)
}

func (c *CampaignServiceClient) ActivateCampaign(ctx context.Context, req *connect.Request[CampaignRequest]) (*connect.Response[CampaignResponse], error) {
	return c.activateCampaign.CallUnary(ctx, req)
}

func (c *CampaignServiceClient) DeactivateCampaign(ctx context.Context, req *connect.Request[CampaignRequest]) (*connect.Response[CampaignResponse], error) {
	return c.deactivateCampaign.CallUnary(ctx, req)
}

func (c *CampaignServiceClient) EndCampaign(ctx context.Context, req *connect.Request[CampaignRequest]) (*connect.Response[CampaignResponse], error) {
	return c.endCampaign.CallUnary(ctx, req)
}

func (c *CampaignServiceClient) ScheduleCampaign(ctx context.Context, req *connect.Request[CampaignRequest]) (*connect.Response[CampaignResponse], error) {
	return c.scheduleCampaign.CallUnary(ctx, req)
}

func (c *CampaignServiceClient) GetActiveCampaign(ctx context.Context, req *connect.Request[Empty]) (*connect.Response[CampaignResponse], error) {
	return c.getActiveCampaign.CallUnary(ctx, req)
}

func (c *CampaignServiceClient) CalculateDiscount(ctx context.Context, req *connect.Request[service.DiscountQuery]) (*connect.Response[CalculateDiscountResponse], error) {
	return c.calculateDiscount.CallUnary(ctx, req)
}

func (c *CampaignServiceClient) CalculateDiscounts(ctx context.Context, req *connect.Request[CalculateDiscountsRequest]) (*connect.Response[CalculateDiscountsResponse], error) {
	return c.calculateDiscounts.CallUnary(ctx, req)
}

func (c *CampaignServiceClient) RecordOrder(ctx context.Context, req *connect.Request[RecordOrderRequest]) (*connect.Response[Empty], error) {
	return c.recordOrder.CallUnary(ctx, req)
}

func (c *CampaignServiceClient) SweepExpired(ctx context.Context, req *connect.Request[Empty]) (*connect.Response[SweepResponse], error) {
	return c.sweepExpired.CallUnary(ctx, req)
}

func (c *CampaignServiceClient) SweepScheduled(ctx context.Context, req *connect.Request[Empty]) (*connect.Response[SweepResponse], error) {
	return c.sweepScheduled.CallUnary(ctx, req)
}
