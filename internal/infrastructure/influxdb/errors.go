package influxdb

import "errors"

// Sentinel errors. Write failures are asynchronous and arrive through
// SetOnError rather than as return values.
var (
	ErrNotConnected     = errors.New("influxdb: not connected")
	ErrConnectionFailed = errors.New("influxdb: connection failed")
	ErrDisabled         = errors.New("influxdb: disabled in configuration")
)
