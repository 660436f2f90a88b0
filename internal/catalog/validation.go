package catalog

import (
	"math"
	"strconv"
	"strings"
)

// ProductInput is the raw create form.
type ProductInput struct {
	Name        string
	Description string
	Price       string
	Category    string
}

// UpdateInput is the raw update form. A nil field was not submitted.
type UpdateInput struct {
	Name        *string
	Description *string
	Price       *string
	Category    *string
}

// ParsePrice parses a decimal price. Empty, non-numeric, infinite, NaN,
// zero and negative values are ErrInvalidPrice.
func ParsePrice(s string) (float64, error) {
	p, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(p) || math.IsInf(p, 0) || p <= 0 {
		return 0, ErrInvalidPrice
	}
	return p, nil
}

// NewProduct validates a create form for vendorID and returns the product
// to insert (without ID or image). Checks run in order: required fields,
// category, price.
func (s *CategorySet) NewProduct(vendorID string, in ProductInput) (*Product, error) {
	name := strings.TrimSpace(in.Name)
	desc := strings.TrimSpace(in.Description)
	category := strings.TrimSpace(in.Category)

	if name == "" || desc == "" || strings.TrimSpace(in.Price) == "" || category == "" {
		return nil, ErrMissingFields
	}

	canonical, ok := s.Canonical(category)
	if !ok {
		return nil, ErrInvalidCategory
	}

	price, err := ParsePrice(in.Price)
	if err != nil {
		return nil, err
	}

	return &Product{
		VendorID:    vendorID,
		Name:        name,
		Description: desc,
		Price:       price,
		Category:    canonical,
	}, nil
}

// ParseUpdate validates an update form. Blank name, description and
// category are treated as not submitted; a submitted price must be valid
// even when blank.
func (s *CategorySet) ParseUpdate(in UpdateInput) (ProductUpdate, error) {
	var u ProductUpdate

	if v := trimmedPtr(in.Category); v != nil {
		canonical, ok := s.Canonical(*v)
		if !ok {
			return ProductUpdate{}, ErrInvalidCategory
		}
		u.Category = &canonical
	}

	u.Name = trimmedPtr(in.Name)
	u.Description = trimmedPtr(in.Description)

	if in.Price != nil {
		price, err := ParsePrice(*in.Price)
		if err != nil {
			return ProductUpdate{}, err
		}
		u.Price = &price
	}

	return u, nil
}

// trimmedPtr returns a pointer to the trimmed value, or nil if p is nil or
// blank.
func trimmedPtr(p *string) *string {
	if p == nil {
		return nil
	}
	v := strings.TrimSpace(*p)
	if v == "" {
		return nil
	}
	return &v
}
