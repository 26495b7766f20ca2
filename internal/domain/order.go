package domain

import "time"

// Order statuses as reported by the backend
const (
	OrderPending    = "pending"
	OrderProcessing = "processing"
	OrderShipped    = "shipped"
	OrderDelivered  = "delivered"
	OrderCancelled  = "cancelled"
)

// OrderStatuses lists the valid status transitions targets for the
// status update operation.
var OrderStatuses = []string{OrderPending, OrderProcessing, OrderShipped, OrderDelivered, OrderCancelled}

// OrderItem is one line of an order. CatalogPrice is the list price at
// order time; Price is what was actually charged per unit.
type OrderItem struct {
	ProductID    string  `json:"product_id"`
	ProductCode  string  `json:"product_code"`
	ProductName  string  `json:"product_name"`
	Quantity     int     `json:"quantity"`
	UnitName     string  `json:"unit"`
	CatalogPrice float64 `json:"catalog_price"`
	Price        float64 `json:"price"`
}

// LineTotal is the charged amount for the line
func (i OrderItem) LineTotal() float64 {
	return float64(i.Quantity) * i.Price
}

// Order is a customer order with its line items. Number is the
// human-facing order number ("ORD-001" style).
type Order struct {
	ID            string      `json:"id"`
	Number        string      `json:"number"`
	CustomerName  string      `json:"customer_name"`
	CustomerEmail string      `json:"customer_email"`
	Amount        float64     `json:"amount"`
	Status        string      `json:"status"`
	ItemCount     int         `json:"item_count"`
	Items         []OrderItem `json:"items"`
	CreatedAt     time.Time   `json:"created_at"`
}

// ValidOrderStatus reports whether s is an accepted order status
func ValidOrderStatus(s string) bool {
	for _, v := range OrderStatuses {
		if v == s {
			return true
		}
	}
	return false
}
