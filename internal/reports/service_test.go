package reports

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	valuation []ValuationRow
	revenue   float64
	cogs      float64
	sellers   []BestSeller
	daily     struct {
		count    int
		revenue  float64
		deposits float64
	}
	depositsHeld float64
	profitCalls  int
}

func (f *fakeRepo) Valuation(ctx context.Context) ([]ValuationRow, error) {
	return f.valuation, nil
}

func (f *fakeRepo) ProfitByRange(ctx context.Context, from, to time.Time) (float64, float64, error) {
	f.profitCalls++
	return f.revenue, f.cogs, nil
}

func (f *fakeRepo) BestSellers(ctx context.Context, from, to time.Time, limit int) ([]BestSeller, error) {
	if limit < len(f.sellers) {
		return f.sellers[:limit], nil
	}
	return f.sellers, nil
}

func (f *fakeRepo) DailySummary(ctx context.Context, day time.Time) (int, float64, float64, error) {
	return f.daily.count, f.daily.revenue, f.daily.deposits, nil
}

func (f *fakeRepo) DepositsOutstanding(ctx context.Context) (float64, error) {
	return f.depositsHeld, nil
}

func cachedService(t *testing.T, repo RepositoryPort) (*Service, *Cache) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := NewCache(client, time.Minute)
	return NewService(repo, cache), cache
}

func TestValuationSumsRows(t *testing.T) {
	repo := &fakeRepo{valuation: []ValuationRow{
		{ProductID: 1, ProductName: "Kombucha", CurrentStock: 10, CostUnit: 2, Value: 20},
		{ProductID: 2, ProductName: "Kefir", CurrentStock: 5, CostUnit: 3, Value: 15},
	}}
	svc, _ := cachedService(t, repo)

	report, err := svc.Valuation(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Items, 2)
	require.Equal(t, 35.0, report.TotalValue)
	require.Contains(t, report.TotalValueBRL, "R$")
}

func TestProfitCachedUntilInvalidated(t *testing.T) {
	repo := &fakeRepo{revenue: 1000, cogs: 400}
	svc, _ := cachedService(t, repo)

	from := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

	report, err := svc.Profit(context.Background(), from, to)
	require.NoError(t, err)
	require.Equal(t, 600.0, report.Profit)
	require.Equal(t, 60.0, report.MarginPct)
	require.Equal(t, 1, repo.profitCalls)

	// Second read hits the cache.
	_, err = svc.Profit(context.Background(), from, to)
	require.NoError(t, err)
	require.Equal(t, 1, repo.profitCalls)

	// A version bump forces a reload.
	require.NoError(t, svc.Invalidate(context.Background()))
	repo.revenue = 2000
	report, err = svc.Profit(context.Background(), from, to)
	require.NoError(t, err)
	require.Equal(t, 2, repo.profitCalls)
	require.Equal(t, 1600.0, report.Profit)
}

func TestProfitWithoutRevenueHasZeroMargin(t *testing.T) {
	svc, _ := cachedService(t, &fakeRepo{})

	report, err := svc.Profit(context.Background(), time.Now().AddDate(0, -1, 0), time.Now())
	require.NoError(t, err)
	require.Zero(t, report.MarginPct)
}

func TestDailyAverageTicket(t *testing.T) {
	repo := &fakeRepo{}
	repo.daily.count = 4
	repo.daily.revenue = 220
	repo.daily.deposits = 20
	svc, _ := cachedService(t, repo)

	report, err := svc.Daily(context.Background(), time.Now())
	require.NoError(t, err)
	require.Equal(t, 4, report.SalesCount)
	require.Equal(t, 55.0, report.AverageTicket)
	require.Equal(t, 20.0, report.DepositsCharged)
}

func TestCacheDegradesWithoutRedis(t *testing.T) {
	svc := NewService(&fakeRepo{revenue: 100}, NewCache(nil, time.Minute))

	report, err := svc.Profit(context.Background(), time.Now().AddDate(0, -1, 0), time.Now())
	require.NoError(t, err)
	require.Equal(t, 100.0, report.Revenue)
}
