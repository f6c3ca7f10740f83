package car

import (
	"time"

	"github.com/shopspring/decimal"
)

// Car is the domain representation of a rentable vehicle. Brand and model are
// required; everything else is optional inventory detail.
type Car struct {
	ID          string
	Brand       string
	Model       string
	Type        string
	Year        int
	Horsepower  int
	PricePerDay decimal.Decimal
	ImageKey    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CreateParams contains write parameters for adding a car.
type CreateParams struct {
	Brand       string
	Model       string
	Type        string
	Year        int
	Horsepower  int
	PricePerDay decimal.Decimal
	ImageKey    string
}

// UpdateParams is the explicit allow-list of updatable fields. Nil fields are
// left untouched; request bodies are never merged into the row wholesale.
type UpdateParams struct {
	Brand       *string
	Model       *string
	Type        *string
	Year        *int
	Horsepower  *int
	PricePerDay *decimal.Decimal
	ImageKey    *string
}

// Filter narrows List results. Zero values match everything.
type Filter struct {
	// Query is matched case-insensitively as a substring of brand or model.
	Query string
	// Year, when non-zero, must match exactly.
	Year int
	// Sort is a directive of the form "field-asc" or "field-desc" over
	// year, horsepower, or price.
	Sort string
}
