package catalog

import "errors"

// Domain errors. Messages match the text returned to API clients.
var (
	ErrProductNotFound = errors.New("product not found")
	ErrMissingFields   = errors.New("all fields are required")
	ErrInvalidCategory = errors.New("invalid category")
	ErrInvalidPrice    = errors.New("price must be a positive number")
	ErrImageRequired   = errors.New("image is required")
)
