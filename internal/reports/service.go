package reports

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	Valuation(ctx context.Context) ([]ValuationRow, error)
	ProfitByRange(ctx context.Context, from, to time.Time) (revenue, costOfGoods float64, err error)
	BestSellers(ctx context.Context, from, to time.Time, limit int) ([]BestSeller, error)
	DailySummary(ctx context.Context, day time.Time) (count int, revenue, deposits float64, err error)
	DepositsOutstanding(ctx context.Context) (float64, error)
}

// Service assembles cached report views.
type Service struct {
	repo    RepositoryPort
	cache   *Cache
	printer *message.Printer
}

// NewService builds Service.
func NewService(repo RepositoryPort, cache *Cache) *Service {
	return &Service{
		repo:    repo,
		cache:   cache,
		printer: message.NewPrinter(language.BrazilianPortuguese),
	}
}

// FormatBRL renders a money amount the way the vendor reads it.
func (s *Service) FormatBRL(v float64) string {
	return s.printer.Sprintf("R$ %.2f", v)
}

// Valuation returns the inventory value snapshot.
func (s *Service) Valuation(ctx context.Context) (Valuation, error) {
	key, err := s.cache.BuildKey(ctx, "reports", "valuation")
	if err != nil {
		return Valuation{}, err
	}
	var report Valuation
	err = s.cache.FetchJSON(ctx, key, &report, func(ctx context.Context) (any, error) {
		items, err := s.repo.Valuation(ctx)
		if err != nil {
			return nil, err
		}
		var total float64
		for _, item := range items {
			total += item.Value
		}
		return Valuation{Items: items, TotalValue: total, TotalValueBRL: s.FormatBRL(total)}, nil
	})
	return report, err
}

// Profit returns the profit summary for [from, to).
func (s *Service) Profit(ctx context.Context, from, to time.Time) (Profit, error) {
	key, err := s.cache.BuildKey(ctx, "reports", "profit", from.Format("2006-01-02"), to.Format("2006-01-02"))
	if err != nil {
		return Profit{}, err
	}
	var report Profit
	err = s.cache.FetchJSON(ctx, key, &report, func(ctx context.Context) (any, error) {
		revenue, cogs, err := s.repo.ProfitByRange(ctx, from, to)
		if err != nil {
			return nil, err
		}
		profit := revenue - cogs
		var margin float64
		if revenue > 0 {
			margin = profit / revenue * 100
		}
		return Profit{
			From:        from,
			To:          to,
			Revenue:     revenue,
			CostOfGoods: cogs,
			Profit:      profit,
			MarginPct:   margin,
			RevenueBRL:  s.FormatBRL(revenue),
			ProfitBRL:   s.FormatBRL(profit),
		}, nil
	})
	return report, err
}

// BestSellers ranks products sold in [from, to).
func (s *Service) BestSellers(ctx context.Context, from, to time.Time, limit int) ([]BestSeller, error) {
	key, err := s.cache.BuildKey(ctx, "reports", "bestsellers", from.Format("2006-01-02"), to.Format("2006-01-02"), fmt.Sprint(limit))
	if err != nil {
		return nil, err
	}
	var report []BestSeller
	err = s.cache.FetchJSON(ctx, key, &report, func(ctx context.Context) (any, error) {
		return s.repo.BestSellers(ctx, from, to, limit)
	})
	return report, err
}

// Daily returns the dashboard summary for one day. Never cached; it backs
// the landing page and must reflect the sale just made.
func (s *Service) Daily(ctx context.Context, day time.Time) (DailySummary, error) {
	count, revenue, deposits, err := s.repo.DailySummary(ctx, day)
	if err != nil {
		return DailySummary{}, err
	}
	summary := DailySummary{
		Date:            day,
		SalesCount:      count,
		Revenue:         revenue,
		DepositsCharged: deposits,
		RevenueBRL:      s.FormatBRL(revenue),
	}
	if count > 0 {
		summary.AverageTicket = revenue / float64(count)
	}
	return summary, nil
}

// DepositsHeld totals the deposit money currently out with customers.
func (s *Service) DepositsHeld(ctx context.Context) (DepositsOutstanding, error) {
	total, err := s.repo.DepositsOutstanding(ctx)
	if err != nil {
		return DepositsOutstanding{}, err
	}
	return DepositsOutstanding{Total: total, TotalBRL: s.FormatBRL(total)}, nil
}

// Invalidate bumps the cache version after a lifecycle mutation.
func (s *Service) Invalidate(ctx context.Context) error {
	return s.cache.Bump(ctx)
}
