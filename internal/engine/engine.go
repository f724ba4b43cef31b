// Package engine implements the transition engine: the orchestrator that
// applies commands across the task registry, account registry, pack
// ledger, and audit log as one atomic step each.
//
// Every command:
//  1. Short-circuits on validation or lookup failure — no partial
//     effects, no audit entry, collections byte-for-byte unchanged.
//  2. Mutates a clone of the committed state through the registries.
//  3. Commits the clone, appends its audit entries, and hands the new
//     snapshot to the persistence collaborator (write-through,
//     best-effort — a failed save is logged and counted, never fatal).
//
// Commands are serialized behind one exclusive lock, preserving the
// single-logical-thread discipline under concurrent callers. Follow-up
// commands (the automatic withdrawal task from LimitAccount and
// MarkReplacement) are enqueued and drained on the same serialized
// queue after the triggering command commits, never by recursing into
// the registries mid-command.
package engine

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/betmanager/betmanager/internal/domain"
	"github.com/betmanager/betmanager/internal/idgen"
	"github.com/betmanager/betmanager/internal/infra/observability"
	"github.com/betmanager/betmanager/internal/registry"
)

// Config wires the engine's collaborators. All fields are optional:
// a zero Config yields a fully in-memory engine with System attribution.
type Config struct {
	Store  domain.StateStore  // write-through persistence, may be nil
	Labels domain.TypeLabeler // task-type display labels for audit text
	Actor  func() string      // acting user's display name, may be nil
	Now    func() time.Time
	NewID  func() string
}

// Engine is the sole writer of the four entity collections.
type Engine struct {
	mu     sync.Mutex
	state  domain.State
	store  domain.StateStore
	labels domain.TypeLabeler
	actor  func() string
	now    func() time.Time
	newID  func() string

	followUps []CreateTaskInput
}

// New creates an engine with empty state.
func New(cfg Config) *Engine {
	e := &Engine{
		store:  cfg.Store,
		labels: cfg.Labels,
		actor:  cfg.Actor,
		now:    cfg.Now,
		newID:  cfg.NewID,
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.newID == nil {
		e.newID = idgen.NewID
	}
	return e
}

// LoadFromStore replaces the in-memory state with the persisted
// snapshot. Called once at startup; an absent store is a no-op.
func (e *Engine) LoadFromStore() error {
	if e.store == nil {
		return nil
	}
	st, err := e.store.LoadState()
	if err != nil {
		return fmt.Errorf("load state: %w", err)
	}
	e.mu.Lock()
	e.state = st
	e.mu.Unlock()
	return nil
}

// Snapshot returns a deep copy of the committed state. Callers may read
// it freely; mutations never flow back.
func (e *Engine) Snapshot() domain.State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Clone()
}

// ─── Command Plumbing ───────────────────────────────────────────────────────

func (e *Engine) registries(work *domain.State) (registry.Tasks, registry.Accounts, registry.Packs, registry.Audit) {
	return registry.Tasks{State: work, Now: e.now, NewID: e.newID},
		registry.Accounts{State: work, Now: e.now, NewID: e.newID},
		registry.Packs{State: work, Now: e.now, NewID: e.newID},
		registry.Audit{State: work, Now: e.now, NewID: e.newID}
}

func (e *Engine) actorName() string {
	if e.actor == nil {
		return domain.DefaultActor
	}
	if name := e.actor(); name != "" {
		return name
	}
	return domain.DefaultActor
}

func (e *Engine) typeLabel(value string) string {
	if e.labels != nil {
		if l := e.labels.TypeLabel(value); l != "" {
			return l
		}
	}
	return value
}

// commit replaces the committed state with the worked clone, persists
// it, and records metrics. Caller holds the lock.
func (e *Engine) commit(command string, work domain.State) {
	newEntries := len(work.Logs) - len(e.state.Logs)
	e.state = work
	observability.CommandsTotal.WithLabelValues(command).Inc()
	if newEntries > 0 {
		observability.AuditEntries.Add(float64(newEntries))
	}
	if e.store != nil {
		if err := e.store.SaveState(e.state); err != nil {
			observability.PersistFailures.Inc()
			log.Printf("[engine] persist after %s failed: %v", command, err)
		}
	}
}

func (e *Engine) fail(command string, err error) error {
	reason := "invalid_input"
	switch {
	case errors.Is(err, domain.ErrTaskNotFound):
		reason = "task_not_found"
	case errors.Is(err, domain.ErrAccountNotFound):
		reason = "account_not_found"
	case errors.Is(err, domain.ErrPackNotFound):
		reason = "pack_not_found"
	}
	observability.CommandFailures.WithLabelValues(command, reason).Inc()
	return err
}

// drainFollowUps commits any enqueued follow-up commands, one atomic
// step each, in enqueue order. Caller holds the lock.
func (e *Engine) drainFollowUps() {
	for len(e.followUps) > 0 {
		in := e.followUps[0]
		e.followUps = e.followUps[1:]
		work := e.state.Clone()
		if _, err := e.applyCreateTask(&work, in); err != nil {
			log.Printf("[engine] follow-up task dropped: %v", err)
			continue
		}
		e.commit("CreateTask", work)
	}
}

// ─── CreateTask ─────────────────────────────────────────────────────────────

// CreateTaskInput carries the caller-chosen fields for a new task.
type CreateTaskInput struct {
	Type        string            `json:"type"`
	House       string            `json:"house"`
	AccountName string            `json:"accountName,omitempty"`
	Quantity    int               `json:"quantity,omitempty"`
	Description string            `json:"description,omitempty"`
	PixKeyInfo  string            `json:"pixKeyInfo,omitempty"`
	Status      domain.TaskStatus `json:"status,omitempty"`
}

func validTaskStatus(s domain.TaskStatus) bool {
	switch s {
	case domain.TaskPending, domain.TaskRequested, domain.TaskFinalized, domain.TaskDeleted:
		return true
	}
	return false
}

func (e *Engine) applyCreateTask(work *domain.State, in CreateTaskInput) (domain.Task, error) {
	if in.Type == "" || in.House == "" {
		return domain.Task{}, fmt.Errorf("%w: task type and house are required", domain.ErrInvalidInput)
	}
	if in.Quantity < 0 {
		return domain.Task{}, fmt.Errorf("%w: task quantity must not be negative", domain.ErrInvalidInput)
	}
	if in.Status == "" {
		in.Status = domain.TaskPending
	}
	if !validTaskStatus(in.Status) {
		return domain.Task{}, fmt.Errorf("%w: unknown task status %q", domain.ErrInvalidInput, in.Status)
	}

	tasks, _, _, audit := e.registries(work)
	task := tasks.Create(domain.Task{
		Type:        in.Type,
		House:       in.House,
		AccountName: in.AccountName,
		Quantity:    in.Quantity,
		Description: in.Description,
		PixKeyInfo:  in.PixKeyInfo,
		Status:      in.Status,
	})
	audit.Append(task.ID,
		fmt.Sprintf("%s - %s", e.typeLabel(task.Type), task.House),
		fmt.Sprintf("Task created (%s)", domain.StatusLabel(task.Status)),
		e.actorName())
	return task, nil
}

// CreateTask records a new task with the caller-chosen initial status
// (PENDING when unset).
func (e *Engine) CreateTask(in CreateTaskInput) (domain.Task, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	work := e.state.Clone()
	task, err := e.applyCreateTask(&work, in)
	if err != nil {
		return domain.Task{}, e.fail("CreateTask", err)
	}
	e.commit("CreateTask", work)
	return task, nil
}

// ─── CreatePack ─────────────────────────────────────────────────────────────

// CreatePack opens a new purchased batch with delivered = 0.
func (e *Engine) CreatePack(house string, quantity int, price float64) (domain.Pack, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	work := e.state.Clone()
	_, _, packs, audit := e.registries(&work)
	pack, err := packs.Create(house, quantity, price)
	if err != nil {
		return domain.Pack{}, e.fail("CreatePack", err)
	}
	audit.Append(pack.ID,
		fmt.Sprintf("Pack %s", pack.House),
		fmt.Sprintf("New pack created: %d accounts", pack.Quantity),
		e.actorName())
	e.commit("CreatePack", work)
	return pack, nil
}

// ─── ChangeStatus ───────────────────────────────────────────────────────────

// ChangeStatus moves a task to a new status and logs the transition.
func (e *Engine) ChangeStatus(taskID string, status domain.TaskStatus) (domain.Task, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !validTaskStatus(status) {
		return domain.Task{}, e.fail("ChangeStatus",
			fmt.Errorf("%w: unknown task status %q", domain.ErrInvalidInput, status))
	}

	work := e.state.Clone()
	tasks, _, _, audit := e.registries(&work)
	old, ok := tasks.ChangeStatus(taskID, status)
	if !ok {
		return domain.Task{}, e.fail("ChangeStatus",
			fmt.Errorf("%w: %s", domain.ErrTaskNotFound, taskID))
	}
	task, _ := tasks.Get(taskID)
	audit.Append(task.ID,
		fmt.Sprintf("%s - %s", e.typeLabel(task.Type), task.House),
		fmt.Sprintf("Status changed: %s → %s", domain.StatusLabel(old), domain.StatusLabel(status)),
		e.actorName())
	e.commit("ChangeStatus", work)
	return task, nil
}

// ─── EditTask ───────────────────────────────────────────────────────────────

// EditTask merges a partial update into a task. A changed payout
// destination produces one extra audit entry; nothing else is logged.
func (e *Engine) EditTask(taskID string, u registry.TaskUpdate) (domain.Task, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if u.Quantity != nil && *u.Quantity < 0 {
		return domain.Task{}, e.fail("EditTask",
			fmt.Errorf("%w: task quantity must not be negative", domain.ErrInvalidInput))
	}

	work := e.state.Clone()
	tasks, _, _, audit := e.registries(&work)
	before, ok := tasks.Edit(taskID, u)
	if !ok {
		return domain.Task{}, e.fail("EditTask",
			fmt.Errorf("%w: %s", domain.ErrTaskNotFound, taskID))
	}
	if u.PixKeyInfo != nil && *u.PixKeyInfo != "" && *u.PixKeyInfo != before.PixKeyInfo {
		audit.Append(taskID,
			fmt.Sprintf("Edit - %s", before.House),
			"Pix key updated",
			e.actorName())
	}
	task, _ := tasks.Get(taskID)
	e.commit("EditTask", work)
	return task, nil
}

// ─── DeleteTask ─────────────────────────────────────────────────────────────

// DeleteTask performs a logical deletion: the task stays in the registry
// with status DELETED and the stored reason.
func (e *Engine) DeleteTask(taskID, reason string) (domain.Task, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	work := e.state.Clone()
	tasks, _, _, audit := e.registries(&work)
	task, ok := tasks.MarkDeleted(taskID, reason)
	if !ok {
		return domain.Task{}, e.fail("DeleteTask",
			fmt.Errorf("%w: %s", domain.ErrTaskNotFound, taskID))
	}
	audit.Append(task.ID,
		fmt.Sprintf("%s - %s", e.typeLabel(task.Type), task.House),
		fmt.Sprintf("Request deleted. Reason: %s", task.DeletionReason),
		e.actorName())
	e.commit("DeleteTask", work)
	return task, nil
}

// ─── FinishDelivery ─────────────────────────────────────────────────────────

// FinishResult reports the outcome of a delivery command.
type FinishResult struct {
	Task            domain.Task      `json:"task"`
	CreatedAccounts []domain.Account `json:"createdAccounts"`
	PackDeducted    bool             `json:"packDeducted"`
	Remaining       int              `json:"remaining"`
	FullyDelivered  bool             `json:"fullyDelivered"`
}

// FinishDelivery attributes delivered accounts to a task: accounts are
// created first, then the pack counter is advanced (when a pack id was
// supplied), then the task quantity is reduced — in that order, so the
// most financially consequential record is committed first and the
// derived counters stay consistent with it. Delivering fewer accounts
// than outstanding leaves the task open with the remainder; delivering
// the outstanding quantity or more finalizes it.
func (e *Engine) FinishDelivery(taskID string, data []registry.AccountData, packID string) (FinishResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(data) == 0 {
		return FinishResult{}, e.fail("FinishDelivery",
			fmt.Errorf("%w: at least one delivered account is required", domain.ErrInvalidInput))
	}

	work := e.state.Clone()
	tasks, accounts, packs, audit := e.registries(&work)

	task, ok := tasks.Get(taskID)
	if !ok {
		return FinishResult{}, e.fail("FinishDelivery",
			fmt.Errorf("%w: %s", domain.ErrTaskNotFound, taskID))
	}

	created := accounts.CreateFromDelivery(task, data, packID)
	if packID != "" {
		packs.ApplyDelivery(packID, len(created))
		if p, ok := packs.Get(packID); ok && p.Status == domain.PackCompleted {
			observability.PacksCompleted.Inc()
		}
	}
	res, _ := tasks.ApplyPartialDelivery(taskID, len(created))

	deducted := "No"
	if packID != "" {
		deducted = "Yes"
	}
	if res.FullyDelivered {
		audit.Append(taskID,
			fmt.Sprintf("Delivery finished - %s", task.House),
			fmt.Sprintf("Task concluded. %d accounts delivered. Pack deducted: %s", len(created), deducted),
			e.actorName())
		observability.TasksFinalized.Inc()
	} else {
		audit.Append(taskID,
			fmt.Sprintf("Partial delivery - %s", task.House),
			fmt.Sprintf("Delivered: %d. Remaining: %d. Pack deducted: %s", len(created), res.RemainingQuantity, deducted),
			e.actorName())
	}
	observability.AccountsRegistered.WithLabelValues("delivery").Add(float64(len(created)))

	after, _ := tasks.Get(taskID)
	e.commit("FinishDelivery", work)
	return FinishResult{
		Task:            after,
		CreatedAccounts: created,
		PackDeducted:    packID != "",
		Remaining:       res.RemainingQuantity,
		FullyDelivered:  res.FullyDelivered,
	}, nil
}

// ─── LimitAccount ───────────────────────────────────────────────────────────

func (e *Engine) withdrawalFollowUp(acc domain.Account, description, pixInfo string) CreateTaskInput {
	return CreateTaskInput{
		Type:        domain.TypeWithdrawal,
		House:       acc.House,
		AccountName: acc.Name,
		Description: description,
		PixKeyInfo:  pixInfo,
		Status:      domain.TaskPending,
	}
}

// LimitAccount marks an account as LIMITED. When requested, a
// withdrawal task is created as a follow-up command on the same
// serialized queue, after this command commits.
func (e *Engine) LimitAccount(accountID string, createWithdrawal bool, pixInfo string) (domain.Account, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	work := e.state.Clone()
	_, accounts, _, audit := e.registries(&work)

	acc, ok := accounts.Get(accountID)
	if !ok {
		return domain.Account{}, e.fail("LimitAccount",
			fmt.Errorf("%w: %s", domain.ErrAccountNotFound, accountID))
	}
	accounts.UpdateStatus(accountID, domain.AccountLimited)
	audit.Append(acc.ID,
		fmt.Sprintf("Account %s", acc.Name),
		"Account marked as LIMITED",
		e.actorName())

	if createWithdrawal {
		e.followUps = append(e.followUps,
			e.withdrawalFollowUp(acc, "Generated automatically when limiting the account.", pixInfo))
	}
	e.commit("LimitAccount", work)
	e.drainFollowUps()

	out, _ := registry.Accounts{State: &e.state}.Get(accountID)
	return out, nil
}

// ─── MarkReplacement ────────────────────────────────────────────────────────

// MarkReplacement takes an account out of duty for replacement. If the
// account was attributed to a pack, the pack gives one unit of capacity
// back and reopens to ACTIVE. An optional withdrawal task is created as
// a follow-up, like LimitAccount.
func (e *Engine) MarkReplacement(accountID string, createWithdrawal bool, pixInfo string) (domain.Account, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	work := e.state.Clone()
	_, accounts, packs, audit := e.registries(&work)

	acc, ok := accounts.Get(accountID)
	if !ok {
		return domain.Account{}, e.fail("MarkReplacement",
			fmt.Errorf("%w: %s", domain.ErrAccountNotFound, accountID))
	}
	if acc.PackID != "" {
		packs.ReverseOne(acc.PackID)
	}
	accounts.UpdateStatus(accountID, domain.AccountReplacement)
	audit.Append(acc.ID,
		fmt.Sprintf("Account %s", acc.Name),
		"Marked for REPLACEMENT",
		e.actorName())

	if createWithdrawal {
		e.followUps = append(e.followUps,
			e.withdrawalFollowUp(acc, "Generated automatically (account for replacement).", pixInfo))
	}
	e.commit("MarkReplacement", work)
	e.drainFollowUps()

	out, _ := registry.Accounts{State: &e.state}.Get(accountID)
	return out, nil
}

// ─── SaveAccount ────────────────────────────────────────────────────────────

// SaveAccount creates an account when the input carries no id, or edits
// the existing one otherwise. A manual creation attributed to a pack
// advances that pack's delivered counter by one.
func (e *Engine) SaveAccount(a domain.Account, packID string) (domain.Account, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if a.Name == "" || a.House == "" {
		return domain.Account{}, e.fail("SaveAccount",
			fmt.Errorf("%w: account name and house are required", domain.ErrInvalidInput))
	}
	if a.DepositValue < 0 {
		return domain.Account{}, e.fail("SaveAccount",
			fmt.Errorf("%w: deposit value must not be negative", domain.ErrInvalidInput))
	}

	work := e.state.Clone()
	_, accounts, packs, audit := e.registries(&work)

	if a.ID != "" {
		updated, ok := accounts.Edit(a.ID, a)
		if !ok {
			return domain.Account{}, e.fail("SaveAccount",
				fmt.Errorf("%w: %s", domain.ErrAccountNotFound, a.ID))
		}
		audit.Append(updated.ID,
			fmt.Sprintf("Account %s", updated.Name),
			"Account data updated manually",
			e.actorName())
		e.commit("SaveAccount", work)
		return updated, nil
	}

	created := accounts.CreateManual(a, packID)
	if packID != "" {
		packs.ApplyDelivery(packID, 1)
		if p, ok := packs.Get(packID); ok && p.Status == domain.PackCompleted {
			observability.PacksCompleted.Inc()
		}
	}
	audit.Append(created.ID,
		fmt.Sprintf("Account %s", created.Name),
		"Account manually registered",
		e.actorName())
	observability.AccountsRegistered.WithLabelValues("manual").Inc()
	e.commit("SaveAccount", work)
	return created, nil
}

// ─── AppendSystemLog ────────────────────────────────────────────────────────

// AppendSystemLog records a system-level audit entry (configuration and
// session changes). It exists so the engine remains the sole writer of
// the log collection.
func (e *Engine) AppendSystemLog(description, action string) domain.LogEntry {
	e.mu.Lock()
	defer e.mu.Unlock()

	work := e.state.Clone()
	_, _, _, audit := e.registries(&work)
	entry := audit.Append("", description, action, e.actorName())
	e.commit("AppendSystemLog", work)
	return entry
}
