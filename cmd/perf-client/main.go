package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"connectrpc.com/connect"
	"github.com/sethvargo/go-envconfig"
	"golang.org/x/time/rate"

	"github.com/kkkkikiki/promo/internal/model"
	"github.com/kkkkikiki/promo/internal/rpc"
	"github.com/kkkkikiki/promo/internal/service"
)

// PerfResult gathers aggregated metrics for the test run.
// LatencySum & P95Latency are in nanoseconds.
type PerfResult struct {
	TotalRequests int64
	SuccessCount  int64
	ErrorCount    int64
	LatencySum    int64
	P95Latency    int64
}

// perfConfig is read from PERF_* environment variables
type perfConfig struct {
	BaseURL  string        `env:"BASE_URL,default=http://localhost:8080"`
	Workers  int           `env:"WORKERS,default=50"`
	RPS      int           `env:"RPS,default=700"`
	Duration time.Duration `env:"DURATION,default=30s"`
	Timeout  time.Duration `env:"TIMEOUT,default=30s"`
	Price    string        `env:"PRICE,default=100.00"`
	Percent  string        `env:"PERCENT,default=20"`
}

func main() {
	var cfg perfConfig
	if err := envconfig.ProcessWith(context.Background(), &envconfig.Config{
		Target:   &cfg,
		Lookuper: envconfig.PrefixLookuper("PERF_", envconfig.OsLookuper()),
	}); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	price, err := model.ParseMoney(cfg.Price)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid PERF_PRICE: %v\n", err)
		os.Exit(1)
	}
	percent, err := model.ParsePercent(cfg.Percent)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid PERF_PERCENT: %v\n", err)
		os.Exit(1)
	}
	product := model.ProductEligibility{Price: price, ReferralDiscountPercent: percent}

	transport := &http.Transport{
		MaxIdleConns:        cfg.Workers * 4,
		MaxIdleConnsPerHost: cfg.Workers * 4,
		IdleConnTimeout:     90 * time.Second,
	}
	httpClient := &http.Client{
		Transport: transport,
		Timeout:   cfg.Timeout,
	}
	client := rpc.NewCampaignServiceClient(httpClient, cfg.BaseURL)

	campaign, err := createActiveCampaign(client, cfg.Duration)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create campaign: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("==========================================")
	fmt.Println("promo load test (resolve + record order)")
	fmt.Println("==========================================")
	fmt.Printf("campaign    : %s\n", campaign.ID)
	fmt.Printf("target RPS  : %d\n", cfg.RPS)
	fmt.Printf("duration    : %v\n", cfg.Duration)
	fmt.Printf("product     : %s at %s%%\n", price, percent)
	fmt.Println("==========================================")

	burst := cfg.RPS / cfg.Workers
	if burst < 1 {
		burst = 1
	}
	limiter := rate.NewLimiter(rate.Limit(cfg.RPS), burst)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Duration)
	defer cancel()

	var result PerfResult
	var expected expectedTotals
	var wg sync.WaitGroup

	latencyChan := make(chan time.Duration, 4096)
	trackerDone := make(chan struct{})
	go func() {
		trackP95(latencyChan, &result)
		close(trackerDone)
	}()

	for i := 0; i < cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				if err := limiter.Wait(ctx); err != nil {
					return
				}
				doRequest(client, cfg.Timeout, campaign.ID.String(), product, &result, &expected, latencyChan)
			}
		}()
	}

	start := time.Now()
	<-ctx.Done()

	wg.Wait()
	close(latencyChan)
	<-trackerDone

	totalDur := time.Since(start)

	fmt.Println("==========================================")
	fmt.Println("results")
	fmt.Println("==========================================")
	fmt.Printf("elapsed      : %.2fs\n", totalDur.Seconds())
	fmt.Printf("requests     : %d\n", result.TotalRequests)
	fmt.Printf("succeeded    : %d\n", result.SuccessCount)
	fmt.Printf("failed       : %d\n", result.ErrorCount)

	actualRPS := float64(result.SuccessCount) / totalDur.Seconds()
	var successRate float64
	if result.TotalRequests > 0 {
		successRate = float64(result.SuccessCount) / float64(result.TotalRequests) * 100
	}

	var avgLatency time.Duration
	if result.SuccessCount > 0 {
		avgLatency = time.Duration(result.LatencySum / result.SuccessCount)
	}

	fmt.Printf("actual RPS   : %.2f\n", actualRPS)
	fmt.Printf("success rate : %.2f%%\n", successRate)
	fmt.Printf("avg latency  : %v\n", avgLatency)
	fmt.Printf("p95 latency  : %v\n", time.Duration(result.P95Latency))
	fmt.Println("==========================================")

	fmt.Println("==========================================")
	fmt.Println("campaign totals consistency")
	fmt.Println("==========================================")
	revenue, discount := expected.snapshot()
	if err := verifyTotals(client, campaign.ID.String(), result.SuccessCount, revenue, discount); err != nil {
		fmt.Printf("FAILED: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("OK: campaign totals match recorded orders")
	fmt.Println("==========================================")
}

// expectedTotals sums what the workers successfully recorded
type expectedTotals struct {
	mu       sync.Mutex
	revenue  model.Money
	discount model.Money
}

func (e *expectedTotals) add(order, discount model.Money) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.revenue = e.revenue.Add(order)
	e.discount = e.discount.Add(discount)
}

func (e *expectedTotals) snapshot() (model.Money, model.Money) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.revenue, e.discount
}

// createActiveCampaign creates a campaign covering the whole run and activates it
func createActiveCampaign(client *rpc.CampaignServiceClient, duration time.Duration) (*model.Campaign, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	now := time.Now().UTC()
	created, err := client.CreateCampaign(ctx, connect.NewRequest(&rpc.CreateCampaignRequest{Campaign: model.CampaignSpec{
		Name:                       fmt.Sprintf("perf-%d", now.Unix()),
		StartDate:                  now.Add(-time.Minute),
		EndDate:                    now.Add(duration + time.Hour),
		AppliesTo:                  model.VisitorTags{model.VisitorAll},
		OnlyProductsWithPermission: true,
		DiscountSource:             model.SourceProductPermission,
		MaxDiscountPercent:         model.PercentFromInt(15),
		CreatedBy:                  "perf-client",
	}}))
	if err != nil {
		return nil, fmt.Errorf("create campaign failed: %w", err)
	}

	activated, err := client.ActivateCampaign(ctx, connect.NewRequest(&rpc.CampaignRequest{
		CampaignID: created.Msg.Campaign.ID.String(),
	}))
	if err != nil {
		return nil, fmt.Errorf("activate campaign failed: %w", err)
	}
	return activated.Msg.Campaign, nil
}

// doRequest resolves the discount for one product view and records the resulting order
func doRequest(
	client *rpc.CampaignServiceClient,
	timeout time.Duration,
	campaignID string,
	product model.ProductEligibility,
	result *PerfResult,
	expected *expectedTotals,
	latencyChan chan<- time.Duration,
) {
	// Independent context so in-flight requests finish when the run ends
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	start := time.Now()
	atomic.AddInt64(&result.TotalRequests, 1)

	resolved, err := client.CalculateDiscount(ctx, connect.NewRequest(&service.DiscountQuery{Product: product}))
	if err != nil || resolved.Msg.Discount == nil {
		atomic.AddInt64(&result.ErrorCount, 1)
		return
	}
	d := resolved.Msg.Discount

	_, err = client.RecordOrder(ctx, connect.NewRequest(&rpc.RecordOrderRequest{
		CampaignID:     campaignID,
		OrderAmount:    d.FinalPrice,
		DiscountAmount: d.DiscountAmount,
	}))
	latency := time.Since(start)
	if err != nil {
		atomic.AddInt64(&result.ErrorCount, 1)
		return
	}

	expected.add(d.FinalPrice, d.DiscountAmount)
	atomic.AddInt64(&result.SuccessCount, 1)
	atomic.AddInt64(&result.LatencySum, latency.Nanoseconds())
	select {
	case latencyChan <- latency:
	default:
	}
}

// trackP95 maintains a best-effort rolling P95 latency estimation
func trackP95(latencies <-chan time.Duration, result *PerfResult) {
	const size = 1000
	buf := make([]int64, 0, size)

	for lat := range latencies {
		if len(buf) < size {
			buf = append(buf, lat.Nanoseconds())
		} else if idx := time.Now().UnixNano() % int64(size); idx < int64(size/10) {
			buf[idx] = lat.Nanoseconds()
		}

		if len(buf) >= 100 && len(buf)%100 == 0 {
			sorted := slices.Clone(buf)
			slices.Sort(sorted)
			p95Index := int(float64(len(sorted)) * 0.95)
			if p95Index >= len(sorted) {
				p95Index = len(sorted) - 1
			}
			atomic.StoreInt64(&result.P95Latency, sorted[p95Index])
		}
	}
}

// verifyTotals checks the campaign analytics against what this run recorded
func verifyTotals(client *rpc.CampaignServiceClient, campaignID string, expectedOrders int64, revenue, discount model.Money) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	resp, err := client.GetCampaign(ctx, connect.NewRequest(&rpc.CampaignRequest{CampaignID: campaignID}))
	if err != nil {
		return fmt.Errorf("failed to get campaign: %w", err)
	}
	c := resp.Msg.Campaign

	fmt.Printf("orders (store)     : %d\n", c.TotalOrders)
	fmt.Printf("orders (client)    : %d\n", expectedOrders)
	fmt.Printf("revenue (store)    : %s\n", c.TotalRevenue)
	fmt.Printf("revenue (client)   : %s\n", revenue)
	fmt.Printf("discount (store)   : %s\n", c.TotalDiscount)
	fmt.Printf("discount (client)  : %s\n", discount)

	if c.TotalOrders != expectedOrders {
		return fmt.Errorf("order count mismatch: store=%d, client=%d, diff=%d",
			c.TotalOrders, expectedOrders, c.TotalOrders-expectedOrders)
	}
	if !c.TotalRevenue.Equal(revenue) {
		return fmt.Errorf("revenue mismatch: store=%s, client=%s", c.TotalRevenue, revenue)
	}
	if !c.TotalDiscount.Equal(discount) {
		return fmt.Errorf("discount mismatch: store=%s, client=%s", c.TotalDiscount, discount)
	}
	return nil
}
