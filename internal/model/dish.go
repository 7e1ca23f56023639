package model

// Dish is a catalog item served by the restaurant.  Prices are stored in
// cents to avoid floating point rounding.  ImagePath is relative to the
// configured image directory and is nil when no image has been uploaded.
//
// Fields:
//  ID          – primary key identifier.
//  Name        – display name of the dish.
//  PriceCents  – non-negative price in cents.
//  Ingredients – free-form ingredient description.
//  ImagePath   – relative path of the uploaded image (nullable).
type Dish struct {
	ID          uint64  `json:"id"`
	Name        string  `json:"name"`
	PriceCents  int64   `json:"price_cents"`
	Ingredients string  `json:"ingredients"`
	ImagePath   *string `json:"image_path,omitempty"`
}
