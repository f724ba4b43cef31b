package registry

import (
	"fmt"

	"github.com/betmanager/betmanager/internal/domain"
)

// Packs is the pack ledger: delivered-vs-requested bookkeeping for
// purchased account batches. Packs are permanent records — no deletion
// operation exists.
type Packs struct {
	State *domain.State
	Now   Clock
	NewID IDFunc
}

// Create produces a new ACTIVE pack with delivered = 0. Quantity must be
// a positive integer and price non-negative.
func (r Packs) Create(house string, quantity int, price float64) (domain.Pack, error) {
	if house == "" {
		return domain.Pack{}, fmt.Errorf("%w: pack house is required", domain.ErrInvalidInput)
	}
	if quantity <= 0 {
		return domain.Pack{}, fmt.Errorf("%w: pack quantity must be positive, got %d", domain.ErrInvalidInput, quantity)
	}
	if price < 0 {
		return domain.Pack{}, fmt.Errorf("%w: pack price must not be negative", domain.ErrInvalidInput)
	}
	now := r.Now()
	p := domain.Pack{
		ID:        r.NewID(),
		House:     house,
		Quantity:  quantity,
		Delivered: 0,
		Price:     price,
		Status:    domain.PackActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.State.Packs = append([]domain.Pack{p}, r.State.Packs...)
	return p, nil
}

// Get returns the pack with the given id, or false.
func (r Packs) Get(id string) (domain.Pack, bool) {
	for _, p := range r.State.Packs {
		if p.ID == id {
			return p, true
		}
	}
	return domain.Pack{}, false
}

// ApplyDelivery adds delta to the delivered counter, clamped at a floor
// of zero, and recomputes the status: COMPLETED once delivered reaches
// the requested quantity, ACTIVE otherwise. An unknown pack id is a
// silent no-op — stale references left by manual data edits are
// tolerated rather than fatal.
func (r Packs) ApplyDelivery(id string, delta int) {
	for i, p := range r.State.Packs {
		if p.ID != id {
			continue
		}
		p.Delivered += delta
		if p.Delivered < 0 {
			p.Delivered = 0
		}
		if p.Delivered >= p.Quantity {
			p.Status = domain.PackCompleted
		} else {
			p.Status = domain.PackActive
		}
		p.UpdatedAt = r.Now()
		r.State.Packs[i] = p
		return
	}
}

// ReverseOne gives one unit of capacity back to the pack for a
// replacement: delivered drops by one (floor zero) and the status goes
// back to ACTIVE unconditionally — a replacement reopens the pack even
// if the counter would still read complete. Unknown ids are ignored
// like in ApplyDelivery.
func (r Packs) ReverseOne(id string) {
	for i, p := range r.State.Packs {
		if p.ID != id {
			continue
		}
		p.Delivered--
		if p.Delivered < 0 {
			p.Delivered = 0
		}
		p.Status = domain.PackActive
		p.UpdatedAt = r.Now()
		r.State.Packs[i] = p
		return
	}
}
