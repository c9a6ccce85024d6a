// Package metrics provides observability for the game server.
// Collected for load-testing analysis and live operations.
package metrics

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// Collector gathers performance metrics.
type Collector struct {
	// Tick metrics
	TickCount      int64
	TickLatencySum int64 // nanoseconds
	TickLatencyMax int64
	LastTickTime   time.Time

	// Session metrics
	SessionsStarted   int64
	SessionsActive    int64
	SessionsCompleted int64

	// Incident metrics
	EventsSpawned       int64
	EventsResolved      int64
	ConsequencesApplied int64

	// Command metrics
	CommandsAccepted int64
	CommandsRejected int64

	// WebSocket metrics
	WSConnectionsActive int64
	WSMessagesIn        int64
	WSMessagesOut       int64
	WSErrors            int64

	// System
	StartTime time.Time
	mu        sync.RWMutex
}

// Global collector instance
var collector = &Collector{
	StartTime: time.Now(),
}

// Get returns the global collector.
func Get() *Collector {
	return collector
}

// RecordTick records a tick cycle completion.
func (c *Collector) RecordTick(latency time.Duration) {
	atomic.AddInt64(&c.TickCount, 1)
	atomic.AddInt64(&c.TickLatencySum, int64(latency))

	// Update max (non-atomic but acceptable for metrics)
	if int64(latency) > atomic.LoadInt64(&c.TickLatencyMax) {
		atomic.StoreInt64(&c.TickLatencyMax, int64(latency))
	}

	c.mu.Lock()
	c.LastTickTime = time.Now()
	c.mu.Unlock()
}

// RecordSessionStart records a room entering the running state.
func (c *Collector) RecordSessionStart() {
	atomic.AddInt64(&c.SessionsStarted, 1)
	atomic.AddInt64(&c.SessionsActive, 1)
}

// RecordSessionEnd records a session reaching its terminal state.
func (c *Collector) RecordSessionEnd() {
	atomic.AddInt64(&c.SessionsCompleted, 1)
	atomic.AddInt64(&c.SessionsActive, -1)
}

// RecordEvents accumulates incident counters from one tick.
func (c *Collector) RecordEvents(spawned, resolved, consequences int64) {
	atomic.AddInt64(&c.EventsSpawned, spawned)
	atomic.AddInt64(&c.EventsResolved, resolved)
	atomic.AddInt64(&c.ConsequencesApplied, consequences)
}

// RecordCommand records a validated player command.
func (c *Collector) RecordCommand(accepted bool) {
	if accepted {
		atomic.AddInt64(&c.CommandsAccepted, 1)
	} else {
		atomic.AddInt64(&c.CommandsRejected, 1)
	}
}

// RecordWSConnection records WebSocket connection changes.
func (c *Collector) RecordWSConnection(delta int64) {
	atomic.AddInt64(&c.WSConnectionsActive, delta)
}

// RecordWSMessage records WebSocket messages.
func (c *Collector) RecordWSMessage(incoming bool) {
	if incoming {
		atomic.AddInt64(&c.WSMessagesIn, 1)
	} else {
		atomic.AddInt64(&c.WSMessagesOut, 1)
	}
}

// RecordWSError records a WebSocket error.
func (c *Collector) RecordWSError() {
	atomic.AddInt64(&c.WSErrors, 1)
}

// Snapshot returns current metrics as a map.
func (c *Collector) Snapshot() map[string]interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	tickCount := atomic.LoadInt64(&c.TickCount)

	var tickAvg float64
	if tickCount > 0 {
		tickAvg = float64(atomic.LoadInt64(&c.TickLatencySum)) / float64(tickCount) / 1e6 // ms
	}

	return map[string]interface{}{
		"uptime_seconds": time.Since(c.StartTime).Seconds(),

		"tick": map[string]interface{}{
			"count":          tickCount,
			"avg_latency_ms": tickAvg,
			"max_latency_ms": float64(atomic.LoadInt64(&c.TickLatencyMax)) / 1e6,
			"last_tick":      c.LastTickTime.Format(time.RFC3339),
		},

		"sessions": map[string]interface{}{
			"started":   atomic.LoadInt64(&c.SessionsStarted),
			"active":    atomic.LoadInt64(&c.SessionsActive),
			"completed": atomic.LoadInt64(&c.SessionsCompleted),
		},

		"incidents": map[string]interface{}{
			"spawned":              atomic.LoadInt64(&c.EventsSpawned),
			"resolved":             atomic.LoadInt64(&c.EventsResolved),
			"consequences_applied": atomic.LoadInt64(&c.ConsequencesApplied),
		},

		"commands": map[string]interface{}{
			"accepted": atomic.LoadInt64(&c.CommandsAccepted),
			"rejected": atomic.LoadInt64(&c.CommandsRejected),
		},

		"websocket": map[string]interface{}{
			"active_connections": atomic.LoadInt64(&c.WSConnectionsActive),
			"messages_in":        atomic.LoadInt64(&c.WSMessagesIn),
			"messages_out":       atomic.LoadInt64(&c.WSMessagesOut),
			"errors":             atomic.LoadInt64(&c.WSErrors),
		},
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-cache")

		snapshot := collector.Snapshot()
		json.NewEncoder(w).Encode(snapshot)
	}
}

// PrometheusHandler returns metrics in Prometheus format.
func PrometheusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")

		c := collector

		fmt.Fprintf(w, "# HELP meltdown_tick_count Total tick cycles\n")
		fmt.Fprintf(w, "# TYPE meltdown_tick_count counter\n")
		fmt.Fprintf(w, "meltdown_tick_count %d\n\n", atomic.LoadInt64(&c.TickCount))

		fmt.Fprintf(w, "# HELP meltdown_tick_latency_max_ms Maximum tick latency\n")
		fmt.Fprintf(w, "# TYPE meltdown_tick_latency_max_ms gauge\n")
		fmt.Fprintf(w, "meltdown_tick_latency_max_ms %.2f\n\n", float64(atomic.LoadInt64(&c.TickLatencyMax))/1e6)

		fmt.Fprintf(w, "# HELP meltdown_sessions_active Running game sessions\n")
		fmt.Fprintf(w, "# TYPE meltdown_sessions_active gauge\n")
		fmt.Fprintf(w, "meltdown_sessions_active %d\n\n", atomic.LoadInt64(&c.SessionsActive))

		fmt.Fprintf(w, "# HELP meltdown_sessions_total Sessions started\n")
		fmt.Fprintf(w, "# TYPE meltdown_sessions_total counter\n")
		fmt.Fprintf(w, "meltdown_sessions_total %d\n\n", atomic.LoadInt64(&c.SessionsStarted))

		fmt.Fprintf(w, "# HELP meltdown_incidents_total Incidents spawned\n")
		fmt.Fprintf(w, "# TYPE meltdown_incidents_total counter\n")
		fmt.Fprintf(w, "meltdown_incidents_total{outcome=\"spawned\"} %d\n", atomic.LoadInt64(&c.EventsSpawned))
		fmt.Fprintf(w, "meltdown_incidents_total{outcome=\"resolved\"} %d\n", atomic.LoadInt64(&c.EventsResolved))
		fmt.Fprintf(w, "meltdown_incidents_total{outcome=\"consequence\"} %d\n\n", atomic.LoadInt64(&c.ConsequencesApplied))

		fmt.Fprintf(w, "# HELP meltdown_commands_total Player commands processed\n")
		fmt.Fprintf(w, "# TYPE meltdown_commands_total counter\n")
		fmt.Fprintf(w, "meltdown_commands_total{result=\"accepted\"} %d\n", atomic.LoadInt64(&c.CommandsAccepted))
		fmt.Fprintf(w, "meltdown_commands_total{result=\"rejected\"} %d\n\n", atomic.LoadInt64(&c.CommandsRejected))

		fmt.Fprintf(w, "# HELP meltdown_ws_connections Active WebSocket connections\n")
		fmt.Fprintf(w, "# TYPE meltdown_ws_connections gauge\n")
		fmt.Fprintf(w, "meltdown_ws_connections %d\n\n", atomic.LoadInt64(&c.WSConnectionsActive))

		fmt.Fprintf(w, "# HELP meltdown_ws_messages_total Total WebSocket messages\n")
		fmt.Fprintf(w, "# TYPE meltdown_ws_messages_total counter\n")
		fmt.Fprintf(w, "meltdown_ws_messages_total{direction=\"in\"} %d\n", atomic.LoadInt64(&c.WSMessagesIn))
		fmt.Fprintf(w, "meltdown_ws_messages_total{direction=\"out\"} %d\n", atomic.LoadInt64(&c.WSMessagesOut))
	}
}
