package console

import (
	"sort"

	"github.com/montanaflynn/stats"

	"github.com/bozorplus/bozoradmin/internal/domain"
)

// ProductStat is one row of the most-ordered-products ranking
type ProductStat struct {
	ProductName string `json:"product_name"`
	Orders      int    `json:"orders"`
	Quantity    int    `json:"quantity"`
}

// DashboardStats are the KPI cards on the dashboard screen
type DashboardStats struct {
	TotalOrders   int           `json:"total_orders"`
	TotalRevenue  float64       `json:"total_revenue"`
	TotalItems    int           `json:"total_items"`
	PendingOrders int           `json:"pending_orders"`
	TopProducts   []ProductStat `json:"top_products"`
}

// OrderStats aggregates the KPI cards and the top-N product ranking
// over an order set.
func OrderStats(orders []domain.Order, topN int) DashboardStats {
	out := DashboardStats{TotalOrders: len(orders)}

	amounts := make([]float64, 0, len(orders))
	byProduct := map[string]*ProductStat{}
	for _, o := range orders {
		amounts = append(amounts, o.Amount)
		out.TotalItems += o.ItemCount
		if o.Status == domain.OrderPending {
			out.PendingOrders++
		}
		for _, it := range o.Items {
			ps, ok := byProduct[it.ProductName]
			if !ok {
				ps = &ProductStat{ProductName: it.ProductName}
				byProduct[it.ProductName] = ps
			}
			ps.Orders++
			ps.Quantity += it.Quantity
		}
	}
	if len(amounts) > 0 {
		if sum, err := stats.Sum(amounts); err == nil {
			out.TotalRevenue = sum
		}
	}

	ranking := make([]ProductStat, 0, len(byProduct))
	for _, ps := range byProduct {
		ranking = append(ranking, *ps)
	}
	sort.Slice(ranking, func(i, j int) bool {
		if ranking[i].Quantity != ranking[j].Quantity {
			return ranking[i].Quantity > ranking[j].Quantity
		}
		return ranking[i].ProductName < ranking[j].ProductName
	})
	if topN > 0 && len(ranking) > topN {
		ranking = ranking[:topN]
	}
	out.TopProducts = ranking
	return out
}
