package repository

import (
	"context"
	"net/http"

	"github.com/bozorplus/bozoradmin/internal/domain"
	"github.com/bozorplus/bozoradmin/internal/restclient"
)

// fetchAllMaxPages caps the page walk in All so a misbehaving backend
// cannot loop us forever.
const fetchAllMaxPages = 1000

// OrdersRepository adds order-specific operations on top of the
// generic engine: status updates and the full fetch used by exports.
type OrdersRepository struct {
	*Repository[domain.Order]
}

// Orders returns the order repository. Orders are read-mostly; the
// only mutable field from the dashboard is the status.
func Orders(api *restclient.Client) *OrdersRepository {
	base := New(api, Spec[domain.Order]{
		Path:     "order",
		ID:       func(o domain.Order) string { return o.ID },
		Required: []string{"status"},
		Defaults: func() map[string]string {
			return map[string]string{"status": domain.OrderPending}
		},
		Draft: func(o domain.Order) map[string]string {
			return map[string]string{"status": o.Status}
		},
		Decode: decodeOrder,
		Encode: func(draft map[string]string) map[string]interface{} {
			body := map[string]interface{}{}
			put(body, draft, "status", "status")
			return body
		},
	})
	return &OrdersRepository{Repository: base}
}

// UpdateStatus patches a single order's status as plain JSON
func (r *OrdersRepository) UpdateStatus(ctx context.Context, id, status string) (domain.Order, error) {
	if !domain.ValidOrderStatus(status) {
		return domain.Order{}, domain.NewAPIError(domain.KindValidation, http.StatusBadRequest, "invalid order status: "+status)
	}
	return r.Update(ctx, id, map[string]interface{}{"status": status}, nil)
}

// All walks every page matching the filters, in server order. Used by
// the export service, which needs the complete filtered set rather
// than one screenful.
func (r *OrdersRepository) All(ctx context.Context, filters map[string]string) ([]domain.Order, error) {
	q := domain.ListQuery{Page: 1, PageSize: 100, Filters: filters}
	var out []domain.Order
	for n := 0; n < fetchAllMaxPages; n++ {
		page, err := r.List(ctx, q)
		if err != nil {
			return nil, err
		}
		out = append(out, page.Items...)
		if page.TotalPages <= q.Page || len(page.Items) == 0 {
			break
		}
		q.Page++
	}
	return out, nil
}

func decodeOrder(m map[string]interface{}) (domain.Order, error) {
	var o domain.Order
	if err := decodeInto(m, &o); err != nil {
		return o, err
	}
	if o.Number == "" {
		o.Number = o.ID
	}
	if o.ItemCount == 0 {
		o.ItemCount = len(o.Items)
	}
	return o, nil
}
