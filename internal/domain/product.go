package domain

import "time"

// Product is the catalog item shown on the products screen. Identifiers
// are normalized to strings because the backend is inconsistent about
// numeric vs string ids.
type Product struct {
	ID           string    `json:"id"`
	NameUZ       string    `json:"name_uz"`
	NameRU       string    `json:"name_ru"`
	Price        float64   `json:"price"`
	CategoryID   string    `json:"category"`
	UnitID       string    `json:"unity"`
	Description  string    `json:"description"`
	Code         string    `json:"code"`
	Article      string    `json:"article"`
	TgID         string    `json:"tg_id"`
	QuantityLeft float64   `json:"quantity_left"`
	Image        string    `json:"image,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
