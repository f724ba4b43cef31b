// Package domain contains pure business types with ZERO infrastructure imports.
// This is the innermost ring of the application — it depends on nothing.
package domain

import (
	"fmt"
	"time"
)

// ─── Task Types ─────────────────────────────────────────────────────────────

// TaskStatus is the lifecycle state of a task. Tasks are never physically
// removed; deletion is the DELETED status plus a reason.
type TaskStatus string

const (
	TaskPending   TaskStatus = "PENDING"
	TaskRequested TaskStatus = "REQUESTED"
	TaskFinalized TaskStatus = "FINALIZED"
	TaskDeleted   TaskStatus = "DELETED"
)

// StatusLabel returns the display label for a task status.
func StatusLabel(s TaskStatus) string {
	switch s {
	case TaskPending:
		return "Pending"
	case TaskRequested:
		return "Requested"
	case TaskFinalized:
		return "Finalized"
	case TaskDeleted:
		return "Deleted"
	default:
		return string(s)
	}
}

// Default task-type values. The live set is runtime-extensible
// configuration; these seed it and are referenced where the engine
// creates tasks on its own (automatic withdrawals).
const (
	TypeSMS          = "SMS"
	TypeWeeklyFacial = "FACIAL_SEMANAL"
	TypeRemove2FA    = "REMOVER_2FA"
	TypeDeposit      = "DEPOSITO"
	TypeWithdrawal   = "SAQUE"
	TypeBalanceSend  = "ENVIO_SALDO"
	TypeNewAccount   = "CONTA_NOVA"
	TypeOther        = "OUTRO"
)

// Task is a unit of requested operational work against a betting-house
// account. Type and House are opaque validated strings — the allowed sets
// are configuration, not a closed enum.
type Task struct {
	ID             string     `json:"id"`
	Type           string     `json:"type"`
	House          string     `json:"house"`
	AccountName    string     `json:"accountName,omitempty"`
	Quantity       int        `json:"quantity,omitempty"` // 0 means absent (single-unit task)
	Description    string     `json:"description,omitempty"`
	PixKeyInfo     string     `json:"pixKeyInfo,omitempty"`
	Status         TaskStatus `json:"status"`
	DeletionReason string     `json:"deletionReason,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// RequestedUnits returns the outstanding quantity, treating absent as 1.
func (t Task) RequestedUnits() int {
	if t.Quantity <= 0 {
		return 1
	}
	return t.Quantity
}

// ─── Account Types ──────────────────────────────────────────────────────────

// AccountStatus is the lifecycle state of a managed account. Accounts leave
// active duty via LIMITED or REPLACEMENT but are never hard-deleted.
type AccountStatus string

const (
	AccountActive      AccountStatus = "ACTIVE"
	AccountLimited     AccountStatus = "LIMITED"
	AccountReplacement AccountStatus = "REPLACEMENT"
)

// Account is a betting-house account under management.
type Account struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Email        string        `json:"email"`
	Password     string        `json:"password,omitempty"`
	Card         string        `json:"card,omitempty"`
	House        string        `json:"house"`
	DepositValue float64       `json:"depositValue"`
	Status       AccountStatus `json:"status"`
	Owner        string        `json:"owner,omitempty"`
	Tags         []string      `json:"tags"`
	CreatedAt    time.Time     `json:"createdAt"`
	TaskIDSource string        `json:"taskIdSource,omitempty"`
	PackID       string        `json:"packId,omitempty"`
}

// ─── Pack Types ─────────────────────────────────────────────────────────────

// PackStatus reflects delivery progress: COMPLETED once delivered catches
// up with the requested quantity, ACTIVE otherwise.
type PackStatus string

const (
	PackActive    PackStatus = "ACTIVE"
	PackCompleted PackStatus = "COMPLETED"
)

// Pack is a purchased batch of accounts from one house.
type Pack struct {
	ID        string     `json:"id"`
	House     string     `json:"house"`
	Quantity  int        `json:"quantity"`
	Delivered int        `json:"delivered"`
	Price     float64    `json:"price"`
	Status    PackStatus `json:"status"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// Progress returns delivery progress as a 0–100 percentage, capped at 100.
func (p Pack) Progress() int {
	if p.Quantity <= 0 {
		return 0
	}
	pct := p.Delivered * 100 / p.Quantity
	if pct > 100 {
		return 100
	}
	return pct
}

// ─── Audit Types ────────────────────────────────────────────────────────────

// SystemRelatedID is the sentinel related-entity id for system-level
// audit entries (configuration changes, session events).
const SystemRelatedID = "SYSTEM"

// DefaultActor is the audit attribution used when no user is logged in.
const DefaultActor = "System"

// LogEntry is an immutable audit record. RelatedID points at the task,
// account, or pack the action touched, or SystemRelatedID.
type LogEntry struct {
	ID          string    `json:"id"`
	RelatedID   string    `json:"taskId"`
	Description string    `json:"taskDescription"`
	Action      string    `json:"action"`
	User        string    `json:"user"`
	Timestamp   time.Time `json:"timestamp"`
}

// ─── State Snapshot ─────────────────────────────────────────────────────────

// State is the complete snapshot of the four engine-owned collections.
// All slices are ordered newest-first at insertion time.
type State struct {
	Tasks    []Task     `json:"tasks"`
	Accounts []Account  `json:"accounts"`
	Packs    []Pack     `json:"packs"`
	Logs     []LogEntry `json:"logs"`
}

// Clone returns a deep copy. The engine mutates only clones so that a
// failed command leaves the committed state untouched.
func (s State) Clone() State {
	out := State{
		Tasks:    make([]Task, len(s.Tasks)),
		Accounts: make([]Account, len(s.Accounts)),
		Packs:    make([]Pack, len(s.Packs)),
		Logs:     make([]LogEntry, len(s.Logs)),
	}
	copy(out.Tasks, s.Tasks)
	copy(out.Packs, s.Packs)
	copy(out.Logs, s.Logs)
	for i, a := range s.Accounts {
		if a.Tags != nil {
			tags := make([]string, len(a.Tags))
			copy(tags, a.Tags)
			a.Tags = tags
		}
		out.Accounts[i] = a
	}
	return out
}

// ─── Configuration Types ────────────────────────────────────────────────────

// TaskTypeOption is one entry of the runtime-extensible task-type set.
type TaskTypeOption struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// PixKey is a configured payout destination.
type PixKey struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Bank    string `json:"bank"`
	KeyType string `json:"keyType"` // CPF | CNPJ | EMAIL | TELEFONE | ALEATORIA
	Key     string `json:"key"`
}

// User is a local identity record. There is no real password security in
// this design: the tool is single-user-per-session and trust based.
type User struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Email           string `json:"email"`
	Role            string `json:"role"` // ADMIN | USER
	DefaultPixKeyID string `json:"defaultPixKeyId,omitempty"`
}

// ─── Utilities ──────────────────────────────────────────────────────────────

// FormatMoney renders a monetary amount for audit text and CLI output.
func FormatMoney(v float64) string {
	return fmt.Sprintf("R$ %.2f", v)
}
