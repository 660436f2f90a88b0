// Package api implements the HTTP REST API and WebSocket feed for the
// marketplace.
//
// This package provides:
//   - signup and login for shoppers and vendors
//   - vendor product management, scoped to the owning vendor
//   - the public category listing and a live product feed over WebSocket
//   - a single role-parameterised auth gate with a pluggable observer
//   - middleware (request ID, logging, recovery, CORS, body limits)
//
// # Events
//
// Product changes are published to MQTT under marketplace/products/... and
// relayed back to WebSocket clients from a wildcard subscription, so every
// instance behind the same broker feeds its own clients. Without a broker
// the server broadcasts to its own hub directly.
//
// # Graceful Degradation
//
// MQTT, InfluxDB and the audit trail are optional. The HTTP API keeps
// working when any of them is missing or unreachable.
package api
