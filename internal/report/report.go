package report

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/Sang14121315/DATN-LinhKien5AE-sub001/internal/order"
)

// Service computes dashboard projections on demand from the order
// repository. There is no cache: every call re-queries the store, so
// a projection may lag a concurrent transition by one request.
type Service struct {
	orderRepo order.Repository
}

func NewService(orderRepo order.Repository) *Service {
	return &Service{orderRepo: orderRepo}
}

// Summary aggregates order counts per canonical status plus the
// revenue of completed orders within the window.
type Summary struct {
	TotalOrders      int                  `json:"total_orders"`
	CountsByStatus   map[order.Status]int `json:"counts_by_status"`
	CompletedRevenue float64              `json:"completed_revenue"`
}

func (s *Service) Summary(ctx context.Context, from, to time.Time) (*Summary, error) {
	orders, err := s.orderRepo.List(ctx, order.Filter{From: from, To: to})
	if err != nil {
		return nil, fmt.Errorf("report: failed to load orders for summary: %w", err)
	}

	summary := &Summary{
		CountsByStatus: make(map[order.Status]int),
	}
	for _, o := range orders {
		status := o.Status.Canonical()
		summary.TotalOrders++
		summary.CountsByStatus[status]++
		if status == order.StatusCompleted {
			summary.CompletedRevenue += o.Total
		}
	}
	return summary, nil
}

// ProductSales is one row of the top-products projection.
type ProductSales struct {
	ProductID    string  `json:"product_id"`
	Name         string  `json:"name"`
	QuantitySold int     `json:"quantity_sold"`
	Revenue      float64 `json:"revenue"`
}

// TopProducts ranks products by quantity sold within the window.
// Canceled orders do not count as sales.
func (s *Service) TopProducts(ctx context.Context, n int, from, to time.Time) ([]ProductSales, error) {
	if n <= 0 {
		n = 10
	}
	orders, err := s.orderRepo.List(ctx, order.Filter{From: from, To: to})
	if err != nil {
		return nil, fmt.Errorf("report: failed to load orders for top products: %w", err)
	}

	byProduct := make(map[string]*ProductSales)
	for _, o := range orders {
		if o.Status.Canonical() == order.StatusCanceled {
			continue
		}
		for _, item := range o.Items {
			key := item.ProductID.String()
			row, ok := byProduct[key]
			if !ok {
				row = &ProductSales{ProductID: key, Name: item.Name}
				byProduct[key] = row
			}
			row.QuantitySold += item.Quantity
			row.Revenue += item.LineTotal()
		}
	}

	rows := make([]ProductSales, 0, len(byProduct))
	for _, row := range byProduct {
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].QuantitySold != rows[j].QuantitySold {
			return rows[i].QuantitySold > rows[j].QuantitySold
		}
		return rows[i].ProductID < rows[j].ProductID
	})
	if len(rows) > n {
		rows = rows[:n]
	}
	return rows, nil
}

// Bucket is the granularity of a revenue series.
type Bucket string

const (
	BucketDay   Bucket = "day"
	BucketMonth Bucket = "month"
	BucketYear  Bucket = "year"
)

// RevenuePoint is one bucket of the revenue series. Revenue counts
// completed orders only; OrderCount counts every order created in the
// bucket.
type RevenuePoint struct {
	Period     string  `json:"period"`
	OrderCount int     `json:"order_count"`
	Revenue    float64 `json:"revenue"`
}

func (s *Service) RevenueSeries(ctx context.Context, bucket Bucket, from, to time.Time) ([]RevenuePoint, error) {
	var layout string
	switch bucket {
	case BucketDay:
		layout = "2006-01-02"
	case BucketMonth:
		layout = "2006-01"
	case BucketYear:
		layout = "2006"
	default:
		return nil, fmt.Errorf("report: unknown revenue bucket %q", bucket)
	}

	orders, err := s.orderRepo.List(ctx, order.Filter{From: from, To: to})
	if err != nil {
		return nil, fmt.Errorf("report: failed to load orders for revenue series: %w", err)
	}

	byPeriod := make(map[string]*RevenuePoint)
	for _, o := range orders {
		period := o.CreatedAt.UTC().Format(layout)
		point, ok := byPeriod[period]
		if !ok {
			point = &RevenuePoint{Period: period}
			byPeriod[period] = point
		}
		point.OrderCount++
		if o.Status.Canonical() == order.StatusCompleted {
			point.Revenue += o.Total
		}
	}

	series := make([]RevenuePoint, 0, len(byPeriod))
	for _, point := range byPeriod {
		series = append(series, *point)
	}
	sort.Slice(series, func(i, j int) bool {
		return series[i].Period < series[j].Period
	})
	return series, nil
}

// CustomerOrders is the customer-scoped listing the admin view uses.
// The sort contract (updated_at desc, created_at desc) is enforced by
// the repository.
func (s *Service) CustomerOrders(ctx context.Context, email string) ([]order.Order, error) {
	orders, err := s.orderRepo.ListByCustomer(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("report: failed to load customer orders: %w", err)
	}
	return orders, nil
}
