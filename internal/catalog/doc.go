// Package catalog holds vendor products and the category allow-list.
//
// Products belong to exactly one vendor. Every single-product read or
// write is filtered by owner, so a vendor asking for another vendor's
// product sees ErrProductNotFound, the same as for an id that does not
// exist. Deletion is a soft flag that can be toggled back; the public
// category listing never includes deleted products.
//
// Categories are loaded once at startup into a CategorySet. Lookups are
// case-insensitive and return the canonical spelling, which is what gets
// stored on the product.
package catalog
