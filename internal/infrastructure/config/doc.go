// Package config loads and validates the marketplace service configuration.
//
// Values come from three layers, later ones winning: built-in defaults, an
// optional YAML file, and environment variables. The environment layer
// recognises the short names a bare .env file would use (JWT_SECRET, PORT,
// DATABASE_PATH) plus MARKET_-prefixed secrets for MQTT, InfluxDB and S3.
//
// The JWT secret has no default; Load fails until one is supplied.
//
// Usage:
//
//	cfg, err := config.Load(os.Getenv("MARKET_CONFIG"))
//	if err != nil {
//	    return err
//	}
package config
