package influxdb

import (
	"strings"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurements written by the marketplace.
const (
	MeasurementAuthEvents    = "auth_events"
	MeasurementProductEvents = "product_events"
	MeasurementGateDecisions = "gate_decisions"
)

// Outcome tag values.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeAllowed = "allowed"
	OutcomeDenied  = "denied"
)

// WriteAuthEvent records a signup or login attempt.
//
//	client.WriteAuthEvent("vendor", "login", influxdb.OutcomeFailure)
func (c *Client) WriteAuthEvent(role, action, outcome string) {
	c.writePoint(authEventPoint(role, action, outcome, time.Now()))
}

// WriteProductEvent records a product change in a category.
func (c *Client) WriteProductEvent(category, action string) {
	c.writePoint(productEventPoint(category, action, time.Now()))
}

// WriteGateDecision records an auth gate allow or deny for a role.
// reason is empty for allowed requests.
func (c *Client) WriteGateDecision(role, outcome, reason string) {
	c.writePoint(gateDecisionPoint(role, outcome, reason, time.Now()))
}

// WritePoint writes an arbitrary point stamped now.
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]any) {
	c.writePoint(write.NewPoint(measurement, tags, fields, time.Now()))
}

func (c *Client) writePoint(p *write.Point) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(p)
}

func authEventPoint(role, action, outcome string, ts time.Time) *write.Point {
	return write.NewPoint(MeasurementAuthEvents,
		map[string]string{"role": role, "action": action, "outcome": outcome},
		map[string]any{"count": 1},
		ts,
	)
}

// productEventPoint lowercases the category so "Lighting" and "lighting"
// land in one series.
func productEventPoint(category, action string, ts time.Time) *write.Point {
	return write.NewPoint(MeasurementProductEvents,
		map[string]string{"category": strings.ToLower(category), "action": action},
		map[string]any{"count": 1},
		ts,
	)
}

func gateDecisionPoint(role, outcome, reason string, ts time.Time) *write.Point {
	tags := map[string]string{"role": role, "outcome": outcome}
	if reason != "" {
		tags["reason"] = reason
	}
	return write.NewPoint(MeasurementGateDecisions, tags, map[string]any{"count": 1}, ts)
}
