package insights

import (
	"testing"

	"github.com/betmanager/betmanager/internal/domain"
)

func sampleState() domain.State {
	return domain.State{
		Tasks: []domain.Task{
			{ID: "t1", House: "Bet365", Status: domain.TaskPending},
			{ID: "t2", House: "Bet365", Status: domain.TaskFinalized},
			{ID: "t3", House: "Betano", Status: domain.TaskRequested},
			{ID: "t4", House: "Betano", Status: domain.TaskDeleted},
		},
		Accounts: []domain.Account{
			{ID: "a1", House: "Bet365", DepositValue: 100, Status: domain.AccountActive},
			{ID: "a2", House: "Bet365", DepositValue: 50, Status: domain.AccountLimited},
			{ID: "a3", House: "Betano", DepositValue: 30, Status: domain.AccountActive},
			{ID: "a4", House: "KTO", Status: domain.AccountReplacement},
		},
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize(sampleState())

	if s.TotalDeposited != 180 {
		t.Errorf("TotalDeposited = %v, want 180", s.TotalDeposited)
	}
	if s.ActiveAccounts != 2 {
		t.Errorf("ActiveAccounts = %d, want 2", s.ActiveAccounts)
	}
	if s.LimitedAccounts != 1 {
		t.Errorf("LimitedAccounts = %d, want 1", s.LimitedAccounts)
	}
	// deleted task excluded: 3 valid, 1 finalized, 2 open
	if s.PendingTasks != 2 {
		t.Errorf("PendingTasks = %d, want 2", s.PendingTasks)
	}
	if s.CompletionRate != 33 {
		t.Errorf("CompletionRate = %d, want 33", s.CompletionRate)
	}
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(domain.State{})
	if s.CompletionRate != 0 {
		t.Errorf("empty state completion rate = %d, want 0", s.CompletionRate)
	}
}

func TestDepositsByHouse(t *testing.T) {
	houses := []string{"Bet365", "Betano", "KTO", "Sportingbet"}
	got := DepositsByHouse(sampleState(), houses)

	if len(got) != 2 {
		t.Fatalf("got %d houses, want 2 — zero-deposit houses dropped", len(got))
	}
	if got[0].House != "Bet365" || got[0].Value != 150 {
		t.Errorf("top house = %+v, want Bet365/150", got[0])
	}
	if got[1].House != "Betano" || got[1].Value != 30 {
		t.Errorf("second house = %+v, want Betano/30", got[1])
	}
}

func TestStatusDistribution(t *testing.T) {
	got := StatusDistribution(sampleState())

	want := []StatusCount{
		{Status: domain.TaskPending, Label: "Pending", Count: 1},
		{Status: domain.TaskRequested, Label: "Requested", Count: 1},
		{Status: domain.TaskFinalized, Label: "Finalized", Count: 1},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d slices %v, want %d", len(got), got, len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("slice[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestStatusDistribution_DropsEmptyAndDeleted(t *testing.T) {
	st := domain.State{Tasks: []domain.Task{
		{ID: "t1", Status: domain.TaskDeleted},
		{ID: "t2", Status: domain.TaskFinalized},
	}}
	got := StatusDistribution(st)
	if len(got) != 1 || got[0].Status != domain.TaskFinalized {
		t.Errorf("got %v, want only the finalized slice", got)
	}
}

func TestVolumeByHouse(t *testing.T) {
	houses := []string{"KTO", "Bet365", "Betano"}
	got := VolumeByHouse(sampleState(), houses)

	if len(got) != 3 {
		t.Fatalf("got %d rows, want one per configured house", len(got))
	}
	// Bet365: 2 tasks + 2 accounts; Betano: 1 non-deleted task + 1 account; KTO: 0 + 1
	if got[0].House != "Bet365" || got[0].Tasks != 2 || got[0].Accounts != 2 {
		t.Errorf("top row = %+v", got[0])
	}
	if got[1].House != "Betano" || got[1].Tasks != 1 {
		t.Errorf("second row = %+v — deleted tasks must not count", got[1])
	}
	if got[2].House != "KTO" || got[2].Accounts != 1 {
		t.Errorf("third row = %+v", got[2])
	}
}
