package registry

import (
	"github.com/betmanager/betmanager/internal/domain"
)

// Accounts operates on the account collection of a working snapshot.
type Accounts struct {
	State *domain.State
	Now   Clock
	NewID IDFunc
}

// AccountData is the caller-supplied payload for one delivered account.
type AccountData struct {
	Name         string  `json:"name"`
	Email        string  `json:"email"`
	DepositValue float64 `json:"depositValue"`
}

// CreateFromDelivery creates one ACTIVE account per input record, carrying
// the task's house, the task id as source, and the pack id when the
// delivery is attributed to a pack. It does not update the pack — that is
// the engine's responsibility, kept separate for testability.
func (r Accounts) CreateFromDelivery(task domain.Task, data []AccountData, packID string) []domain.Account {
	now := r.Now()
	created := make([]domain.Account, 0, len(data))
	for _, d := range data {
		created = append(created, domain.Account{
			ID:           r.NewID(),
			Name:         d.Name,
			Email:        d.Email,
			DepositValue: d.DepositValue,
			House:        task.House,
			Status:       domain.AccountActive,
			Tags:         []string{},
			CreatedAt:    now,
			TaskIDSource: task.ID,
			PackID:       packID,
		})
	}
	r.State.Accounts = append(created, r.State.Accounts...)
	return created
}

// CreateManual creates an ACTIVE account with no source task.
func (r Accounts) CreateManual(a domain.Account, packID string) domain.Account {
	a.ID = r.NewID()
	a.Status = domain.AccountActive
	a.PackID = packID
	a.CreatedAt = r.Now()
	if a.Tags == nil {
		a.Tags = []string{}
	}
	r.State.Accounts = append([]domain.Account{a}, r.State.Accounts...)
	return a
}

// Get returns the account with the given id, or false.
func (r Accounts) Get(id string) (domain.Account, bool) {
	for _, a := range r.State.Accounts {
		if a.ID == id {
			return a, true
		}
	}
	return domain.Account{}, false
}

// UpdateStatus is a pure status mutation. It does not cascade to pack
// bookkeeping: not all status transitions affect packs, so the cascade
// lives in the engine.
func (r Accounts) UpdateStatus(id string, status domain.AccountStatus) bool {
	for i, a := range r.State.Accounts {
		if a.ID == id {
			r.State.Accounts[i].Status = status
			return true
		}
	}
	return false
}

// Edit replaces the mutable fields of an existing account with the
// supplied data, preserving identity, lifecycle, and provenance fields.
func (r Accounts) Edit(id string, a domain.Account) (domain.Account, bool) {
	for i, cur := range r.State.Accounts {
		if cur.ID != id {
			continue
		}
		cur.Name = a.Name
		cur.Email = a.Email
		cur.Password = a.Password
		cur.Card = a.Card
		cur.House = a.House
		cur.DepositValue = a.DepositValue
		cur.Owner = a.Owner
		if a.Tags != nil {
			cur.Tags = a.Tags
		}
		r.State.Accounts[i] = cur
		return cur, true
	}
	return domain.Account{}, false
}
