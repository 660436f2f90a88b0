// Package influxdb records marketplace activity metrics in InfluxDB.
//
// Three measurements are written, each with a count=1 field so dashboards
// can sum over any tag:
//
//   - auth_events{role, action, outcome}: signups and logins
//   - product_events{category, action}: creates, updates, deletes, restores
//   - gate_decisions{role, outcome, reason}: auth gate allows and denials
//
// InfluxDB is optional. Connect returns ErrDisabled when it is switched off,
// and every write method is a no-op on a nil or closed client.
//
//	client, err := influxdb.Connect(ctx, cfg.InfluxDB)
//	if errors.Is(err, influxdb.ErrDisabled) {
//	    // run without metrics
//	}
package influxdb
