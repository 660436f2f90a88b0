package api

import (
	"context"
	"net/http"
	"runtime"
	"time"
)

// healthCheckTimeout bounds each dependency probe in /api/health.
const healthCheckTimeout = 3 * time.Second

// Health check states.
const (
	checkOK       = "ok"
	checkDown     = "down"
	statusOK      = "ok"
	statusDegrade = "degraded"
	statusDown    = "unavailable"
)

// HealthResponse is the body of GET /api/health.
type HealthResponse struct {
	Status  string            `json:"status"`
	Version string            `json:"version"`
	Checks  map[string]string `json:"checks"`
}

// handleHealth probes the database and, when configured, MQTT and
// InfluxDB. A failed database makes the service unavailable (503); a failed
// optional dependency only degrades it.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: statusOK, Version: s.version, Checks: map[string]string{}}

	probe := func(name string, required bool, check func(context.Context) error) {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		defer cancel()

		if err := check(ctx); err != nil {
			resp.Checks[name] = checkDown
			s.logger.Warn("health check failed", "dependency", name, "error", err)
			if required {
				resp.Status = statusDown
			} else if resp.Status == statusOK {
				resp.Status = statusDegrade
			}
			return
		}
		resp.Checks[name] = checkOK
	}

	if s.db != nil {
		probe("database", true, s.db.HealthCheck)
	}
	if s.mqtt != nil {
		probe("mqtt", false, s.mqtt.HealthCheck)
	}
	if s.influx != nil {
		probe("influxdb", false, s.influx.HealthCheck)
	}

	status := http.StatusOK
	if resp.Status == statusDown {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}

// SystemMetrics represents the complete system metrics response.
type SystemMetrics struct {
	Timestamp     string          `json:"timestamp"`
	Version       string          `json:"version"`
	UptimeSeconds int64           `json:"uptime_seconds"`
	Runtime       RuntimeMetrics  `json:"runtime"`
	Feed          FeedMetrics     `json:"feed"`
	MQTT          MQTTMetrics     `json:"mqtt"`
	InfluxDB      InfluxMetrics   `json:"influxdb"`
	Catalog       CatalogMetrics  `json:"catalog"`
	Database      DatabaseMetrics `json:"database"`
}

// RuntimeMetrics contains Go runtime statistics.
type RuntimeMetrics struct {
	Goroutines    int     `json:"goroutines"`
	MemoryAllocMB float64 `json:"memory_alloc_mb"`
	MemoryTotalMB float64 `json:"memory_total_mb"`
	NumGC         uint32  `json:"num_gc"`
}

// FeedMetrics contains WebSocket feed statistics.
type FeedMetrics struct {
	ConnectedClients int  `json:"connected_clients"`
	Relaying         bool `json:"relaying"`
}

// MQTTMetrics contains MQTT client statistics.
type MQTTMetrics struct {
	Connected bool `json:"connected"`
}

// InfluxMetrics contains InfluxDB client statistics.
type InfluxMetrics struct {
	Connected bool `json:"connected"`
}

// CatalogMetrics describes the loaded category allow-list.
type CatalogMetrics struct {
	Categories int `json:"categories"`
}

// DatabaseMetrics contains database connection pool statistics.
type DatabaseMetrics struct {
	OpenConnections int   `json:"open_connections"`
	InUse           int   `json:"in_use"`
	Idle            int   `json:"idle"`
	WaitCount       int64 `json:"wait_count"`
}

// handleMetrics returns process and dependency statistics.
func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	metrics := SystemMetrics{
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		Version:       s.version,
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		Runtime: RuntimeMetrics{
			Goroutines:    runtime.NumGoroutine(),
			MemoryAllocMB: float64(memStats.Alloc) / 1024 / 1024,
			MemoryTotalMB: float64(memStats.TotalAlloc) / 1024 / 1024,
			NumGC:         memStats.NumGC,
		},
		Feed: FeedMetrics{
			ConnectedClients: s.hub.ClientCount(),
			Relaying:         s.relaying.Load(),
		},
		MQTT:     MQTTMetrics{Connected: s.mqtt.IsConnected()},
		InfluxDB: InfluxMetrics{Connected: s.influx.IsConnected()},
		Catalog:  CatalogMetrics{Categories: s.categories.Len()},
	}

	if s.db != nil {
		dbStats := s.db.Stats()
		metrics.Database = DatabaseMetrics{
			OpenConnections: dbStats.OpenConnections,
			InUse:           dbStats.InUse,
			Idle:            dbStats.Idle,
			WaitCount:       dbStats.WaitCount,
		}
	}

	writeJSON(w, http.StatusOK, metrics)
}
