// Package observability holds the Prometheus metrics for the tracker.
// Collectors are registered with promauto at package load and exported
// on /metrics when the daemon has metrics enabled.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ─── Engine Metrics ─────────────────────────────────────────────────────────

// CommandsTotal counts committed engine commands by command name.
var CommandsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "betmanager",
	Subsystem: "engine",
	Name:      "commands_total",
	Help:      "Total committed state-transition commands.",
}, []string{"command"})

// CommandFailures counts rejected commands by command name and reason.
var CommandFailures = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "betmanager",
	Subsystem: "engine",
	Name:      "command_failures_total",
	Help:      "Total rejected commands (no state change, no audit entry).",
}, []string{"command", "reason"})

// TasksFinalized counts tasks that reached FINALIZED via delivery.
var TasksFinalized = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "betmanager",
	Subsystem: "engine",
	Name:      "tasks_finalized_total",
	Help:      "Total tasks finalized by delivery completion.",
})

// PacksCompleted counts packs whose delivered counter reached the
// requested quantity.
var PacksCompleted = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "betmanager",
	Subsystem: "engine",
	Name:      "packs_completed_total",
	Help:      "Total packs that reached COMPLETED.",
})

// AccountsRegistered counts accounts created, by origin.
var AccountsRegistered = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "betmanager",
	Subsystem: "engine",
	Name:      "accounts_registered_total",
	Help:      "Total accounts created, labeled by origin (delivery or manual).",
}, []string{"origin"})

// AuditEntries counts audit log entries written.
var AuditEntries = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "betmanager",
	Subsystem: "audit",
	Name:      "entries_total",
	Help:      "Total audit log entries appended.",
})

// ─── Persistence Metrics ────────────────────────────────────────────────────

// PersistFailures counts write-through failures. Persistence is
// best-effort after commit, so failures surface here and in the log
// rather than as command errors.
var PersistFailures = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "betmanager",
	Subsystem: "store",
	Name:      "persist_failures_total",
	Help:      "Total failed write-through snapshot saves.",
})
