package domain

// Category groups products; carries an optional image served by the
// backend as a relative path.
type Category struct {
	ID     string `json:"id"`
	NameUZ string `json:"name_uz"`
	NameRU string `json:"name_ru"`
	Image  string `json:"image,omitempty"`
}

// Unit is a measurement unit (piece, kg, ...) referenced by products.
type Unit struct {
	ID     string `json:"id"`
	NameUZ string `json:"name_uz"`
	NameRU string `json:"name_ru"`
}

// Banner is an image-only promo resource.
type Banner struct {
	ID    string `json:"id"`
	Image string `json:"banner"`
}
