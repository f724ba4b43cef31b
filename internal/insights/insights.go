// Package insights computes the dashboard aggregates over a state
// snapshot. Everything here is a pure function of the snapshot — no
// registry access, no mutation — so the rendering layer (CLI tables,
// HTTP JSON) can call it on any copy it holds.
package insights

import (
	"sort"

	"github.com/betmanager/betmanager/internal/domain"
)

// Summary is the headline KPI block.
type Summary struct {
	TotalDeposited  float64 `json:"totalDeposited"`
	ActiveAccounts  int     `json:"activeAccounts"`
	LimitedAccounts int     `json:"limitedAccounts"`
	PendingTasks    int     `json:"pendingTasks"`
	CompletionRate  int     `json:"completionRate"` // percent of non-deleted tasks finalized
}

// Summarize computes the headline metrics. Deleted tasks are excluded
// from both the pending count and the completion rate.
func Summarize(st domain.State) Summary {
	var s Summary
	for _, a := range st.Accounts {
		s.TotalDeposited += a.DepositValue
		switch a.Status {
		case domain.AccountActive:
			s.ActiveAccounts++
		case domain.AccountLimited:
			s.LimitedAccounts++
		}
	}
	valid, finalized := 0, 0
	for _, t := range st.Tasks {
		if t.Status == domain.TaskDeleted {
			continue
		}
		valid++
		if t.Status == domain.TaskFinalized {
			finalized++
		} else {
			s.PendingTasks++
		}
	}
	if valid > 0 {
		s.CompletionRate = finalized * 100 / valid
	}
	return s
}

// HouseValue is one house's share of a metric.
type HouseValue struct {
	House string  `json:"house"`
	Value float64 `json:"value"`
}

// DepositsByHouse sums deposit values per configured house, dropping
// houses with no deposits and sorting by value descending.
func DepositsByHouse(st domain.State, houses []string) []HouseValue {
	out := make([]HouseValue, 0, len(houses))
	for _, house := range houses {
		var total float64
		for _, a := range st.Accounts {
			if a.House == house {
				total += a.DepositValue
			}
		}
		if total > 0 {
			out = append(out, HouseValue{House: house, Value: total})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Value > out[j].Value })
	return out
}

// StatusCount is one slice of the task-status distribution.
type StatusCount struct {
	Status domain.TaskStatus `json:"status"`
	Label  string            `json:"label"`
	Count  int               `json:"count"`
}

// StatusDistribution counts non-deleted tasks per status, dropping
// empty slices.
func StatusDistribution(st domain.State) []StatusCount {
	order := []domain.TaskStatus{domain.TaskPending, domain.TaskRequested, domain.TaskFinalized}
	counts := make(map[domain.TaskStatus]int)
	for _, t := range st.Tasks {
		if t.Status != domain.TaskDeleted {
			counts[t.Status]++
		}
	}
	out := make([]StatusCount, 0, len(order))
	for _, s := range order {
		if counts[s] > 0 {
			out = append(out, StatusCount{Status: s, Label: domain.StatusLabel(s), Count: counts[s]})
		}
	}
	return out
}

// HouseVolume pairs a house with its task and account volume.
type HouseVolume struct {
	House    string `json:"house"`
	Tasks    int    `json:"tasks"`
	Accounts int    `json:"accounts"`
}

// VolumeByHouse counts non-deleted tasks and all accounts per
// configured house, sorted by combined volume descending.
func VolumeByHouse(st domain.State, houses []string) []HouseVolume {
	out := make([]HouseVolume, 0, len(houses))
	for _, house := range houses {
		v := HouseVolume{House: house}
		for _, t := range st.Tasks {
			if t.House == house && t.Status != domain.TaskDeleted {
				v.Tasks++
			}
		}
		for _, a := range st.Accounts {
			if a.House == house {
				v.Accounts++
			}
		}
		out = append(out, v)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Tasks+out[i].Accounts > out[j].Tasks+out[j].Accounts
	})
	return out
}
