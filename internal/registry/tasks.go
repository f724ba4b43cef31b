// Package registry implements the collection operations over a working
// state snapshot: task registry, account registry, pack ledger, and the
// audit log. Registries never touch each other — cross-collection
// cascades (pack deduction on delivery, reversal on replacement) belong
// to the engine, which is the sole writer of all four collections.
package registry

import (
	"time"

	"github.com/betmanager/betmanager/internal/domain"
)

// Clock and IDFunc let tests pin timestamps and identifiers.
type Clock func() time.Time
type IDFunc func() string

// Tasks operates on the task collection of a working snapshot.
type Tasks struct {
	State *domain.State
	Now   Clock
	NewID IDFunc
}

// Create assigns id and timestamps and prepends the task (newest-first).
// Status is part of the input: the caller decides the initial status.
func (r Tasks) Create(t domain.Task) domain.Task {
	now := r.Now()
	t.ID = r.NewID()
	t.CreatedAt = now
	t.UpdatedAt = now
	r.State.Tasks = append([]domain.Task{t}, r.State.Tasks...)
	return t
}

// Get returns the task with the given id, or false.
func (r Tasks) Get(id string) (domain.Task, bool) {
	for _, t := range r.State.Tasks {
		if t.ID == id {
			return t, true
		}
	}
	return domain.Task{}, false
}

// ChangeStatus sets a new status and refreshes the update timestamp.
// It returns the old status so the engine can log the transition.
func (r Tasks) ChangeStatus(id string, status domain.TaskStatus) (old domain.TaskStatus, ok bool) {
	for i, t := range r.State.Tasks {
		if t.ID == id {
			old = t.Status
			r.State.Tasks[i].Status = status
			r.State.Tasks[i].UpdatedAt = r.Now()
			return old, true
		}
	}
	return "", false
}

// TaskUpdate carries a partial edit. Nil fields are left untouched.
type TaskUpdate struct {
	Type        *string
	House       *string
	AccountName *string
	Quantity    *int
	Description *string
	PixKeyInfo  *string
}

// Edit merges the supplied fields and refreshes the update timestamp.
// It returns the pre-edit task so the engine can detect payout changes.
func (r Tasks) Edit(id string, u TaskUpdate) (before domain.Task, ok bool) {
	for i, t := range r.State.Tasks {
		if t.ID != id {
			continue
		}
		before = t
		if u.Type != nil {
			t.Type = *u.Type
		}
		if u.House != nil {
			t.House = *u.House
		}
		if u.AccountName != nil {
			t.AccountName = *u.AccountName
		}
		if u.Quantity != nil {
			t.Quantity = *u.Quantity
		}
		if u.Description != nil {
			t.Description = *u.Description
		}
		if u.PixKeyInfo != nil {
			t.PixKeyInfo = *u.PixKeyInfo
		}
		t.UpdatedAt = r.Now()
		r.State.Tasks[i] = t
		return before, true
	}
	return domain.Task{}, false
}

// DefaultDeletionReason labels a deletion with no reason supplied.
const DefaultDeletionReason = "not provided"

// MarkDeleted performs a logical deletion: the record persists with
// status DELETED and the stored reason.
func (r Tasks) MarkDeleted(id, reason string) (domain.Task, bool) {
	if reason == "" {
		reason = DefaultDeletionReason
	}
	for i, t := range r.State.Tasks {
		if t.ID == id {
			t.Status = domain.TaskDeleted
			t.DeletionReason = reason
			t.UpdatedAt = r.Now()
			r.State.Tasks[i] = t
			return t, true
		}
	}
	return domain.Task{}, false
}

// DeliveryResult reports the outcome of a partial-delivery application.
type DeliveryResult struct {
	RemainingQuantity int
	FullyDelivered    bool
}

// ApplyPartialDelivery subtracts delivered units from the task's
// outstanding quantity (absent quantity counts as 1). A remainder of zero
// or below finalizes the task — over-delivery is accepted and treated
// identically to exact delivery, and the stored quantity is left as it
// was, never negative. A positive remainder is stored and the status is
// left unchanged.
func (r Tasks) ApplyPartialDelivery(id string, delivered int) (DeliveryResult, bool) {
	for i, t := range r.State.Tasks {
		if t.ID != id {
			continue
		}
		remaining := t.RequestedUnits() - delivered
		if remaining <= 0 {
			t.Status = domain.TaskFinalized
			t.UpdatedAt = r.Now()
			r.State.Tasks[i] = t
			return DeliveryResult{RemainingQuantity: 0, FullyDelivered: true}, true
		}
		t.Quantity = remaining
		t.UpdatedAt = r.Now()
		r.State.Tasks[i] = t
		return DeliveryResult{RemainingQuantity: remaining}, true
	}
	return DeliveryResult{}, false
}
