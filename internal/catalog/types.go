package catalog

import "time"

// Product is a vendor's listing.
type Product struct {
	ID          string    `json:"id"`
	VendorID    string    `json:"vendor"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	Category    string    `json:"category"`
	Image       string    `json:"image"`
	Deleted     bool      `json:"deleted"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ProductUpdate is a partial update. Nil fields are left unchanged.
type ProductUpdate struct {
	Name        *string
	Description *string
	Price       *float64
	Category    *string
	Image       *string
}

// Empty reports whether the update changes nothing.
func (u ProductUpdate) Empty() bool {
	return u.Name == nil && u.Description == nil && u.Price == nil && u.Category == nil && u.Image == nil
}

// CategoryType distinguishes goods from services.
type CategoryType string

// Category types.
const (
	CategoryTypeProduct CategoryType = "product"
	CategoryTypeService CategoryType = "service"
)

// Category is one allow-listed category.
type Category struct {
	Name string       `json:"name"`
	Type CategoryType `json:"type"`
}
