// Package logging provides the structured logger used across the
// marketplace service.
//
// It wraps log/slog. Every record carries service=marketplace and the
// build version. Components derive child loggers with With:
//
//	log := logging.New(cfg.Logging, version).With("component", "api")
//	log.Info("product created", "product_id", p.ID, "vendor_id", p.VendorID)
//
// Never log passwords, password hashes or tokens.
package logging
