package engine

import (
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/betmanager/betmanager/internal/domain"
	"github.com/betmanager/betmanager/internal/registry"
)

func newTestEngine() *Engine {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	n := 0
	return New(Config{
		Now: func() time.Time { return base },
		NewID: func() string {
			n++
			return fmt.Sprintf("id-%d", n)
		},
	})
}

func mustCreateTask(t *testing.T, e *Engine, in CreateTaskInput) domain.Task {
	t.Helper()
	task, err := e.CreateTask(in)
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	return task
}

func mustCreatePack(t *testing.T, e *Engine, house string, qty int, price float64) domain.Pack {
	t.Helper()
	pack, err := e.CreatePack(house, qty, price)
	if err != nil {
		t.Fatalf("CreatePack: %v", err)
	}
	return pack
}

func deliveries(n int) []registry.AccountData {
	out := make([]registry.AccountData, n)
	for i := range out {
		out[i] = registry.AccountData{
			Name:         fmt.Sprintf("acct-%d", i+1),
			Email:        fmt.Sprintf("acct%d@mail.com", i+1),
			DepositValue: 10,
		}
	}
	return out
}

// ─── CreateTask ─────────────────────────────────────────────────────────────

func TestCreateTask(t *testing.T) {
	e := newTestEngine()
	task := mustCreateTask(t, e, CreateTaskInput{Type: domain.TypeSMS, House: "Bet365", Quantity: 2})

	if task.Status != domain.TaskPending {
		t.Errorf("default status = %s, want PENDING", task.Status)
	}
	st := e.Snapshot()
	if len(st.Tasks) != 1 {
		t.Fatalf("got %d tasks, want 1", len(st.Tasks))
	}
	if len(st.Logs) != 1 {
		t.Fatalf("got %d log entries, want 1", len(st.Logs))
	}
	entry := st.Logs[0]
	if entry.RelatedID != task.ID {
		t.Errorf("log related id = %s, want the task id", entry.RelatedID)
	}
	if entry.Action != "Task created (Pending)" {
		t.Errorf("log action = %q", entry.Action)
	}
	if entry.User != domain.DefaultActor {
		t.Errorf("log user = %q, want System", entry.User)
	}
}

func TestCreateTask_Validation(t *testing.T) {
	tests := []struct {
		name string
		in   CreateTaskInput
	}{
		{name: "missing type", in: CreateTaskInput{House: "Bet365"}},
		{name: "missing house", in: CreateTaskInput{Type: domain.TypeSMS}},
		{name: "negative quantity", in: CreateTaskInput{Type: domain.TypeSMS, House: "Bet365", Quantity: -1}},
		{name: "unknown status", in: CreateTaskInput{Type: domain.TypeSMS, House: "Bet365", Status: "BOGUS"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEngine()
			_, err := e.CreateTask(tt.in)
			if !errors.Is(err, domain.ErrInvalidInput) {
				t.Fatalf("err = %v, want ErrInvalidInput", err)
			}
			st := e.Snapshot()
			if len(st.Tasks) != 0 || len(st.Logs) != 0 {
				t.Error("failed command must leave no partial effects")
			}
		})
	}
}

// ─── Atomicity ──────────────────────────────────────────────────────────────

func TestFailedCommand_LeavesStateUntouched(t *testing.T) {
	e := newTestEngine()
	mustCreatePack(t, e, "Bet365", 10, 150)
	mustCreateTask(t, e, CreateTaskInput{Type: domain.TypeNewAccount, House: "Bet365", Quantity: 10})
	before := e.Snapshot()

	if _, err := e.ChangeStatus("missing", domain.TaskFinalized); !errors.Is(err, domain.ErrTaskNotFound) {
		t.Fatalf("err = %v, want ErrTaskNotFound", err)
	}
	if _, err := e.DeleteTask("missing", "whatever"); !errors.Is(err, domain.ErrTaskNotFound) {
		t.Fatalf("err = %v, want ErrTaskNotFound", err)
	}
	if _, err := e.LimitAccount("missing", true, ""); !errors.Is(err, domain.ErrAccountNotFound) {
		t.Fatalf("err = %v, want ErrAccountNotFound", err)
	}
	if _, err := e.FinishDelivery("missing", deliveries(1), ""); !errors.Is(err, domain.ErrTaskNotFound) {
		t.Fatalf("err = %v, want ErrTaskNotFound", err)
	}

	after := e.Snapshot()
	if !reflect.DeepEqual(before, after) {
		t.Error("failed commands must leave every collection unchanged, audit log included")
	}
}

// ─── ChangeStatus ───────────────────────────────────────────────────────────

func TestChangeStatus_LogsTransition(t *testing.T) {
	e := newTestEngine()
	task := mustCreateTask(t, e, CreateTaskInput{Type: domain.TypeSMS, House: "Bet365"})

	got, err := e.ChangeStatus(task.ID, domain.TaskRequested)
	if err != nil {
		t.Fatalf("ChangeStatus: %v", err)
	}
	if got.Status != domain.TaskRequested {
		t.Errorf("status = %s, want REQUESTED", got.Status)
	}
	st := e.Snapshot()
	if st.Logs[0].Action != "Status changed: Pending → Requested" {
		t.Errorf("log action = %q", st.Logs[0].Action)
	}
}

// ─── EditTask ───────────────────────────────────────────────────────────────

func TestEditTask_PixKeyAudit(t *testing.T) {
	oldKey := "old@pix.com"
	newKey := "new@pix.com"
	sameKey := oldKey
	empty := ""

	tests := []struct {
		name       string
		update     registry.TaskUpdate
		wantExtras int
	}{
		{name: "changed pix key logs once", update: registry.TaskUpdate{PixKeyInfo: &newKey}, wantExtras: 1},
		{name: "unchanged pix key logs nothing", update: registry.TaskUpdate{PixKeyInfo: &sameKey}, wantExtras: 0},
		{name: "cleared pix key logs nothing", update: registry.TaskUpdate{PixKeyInfo: &empty}, wantExtras: 0},
		{name: "untouched pix key logs nothing", update: registry.TaskUpdate{Description: &newKey}, wantExtras: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEngine()
			task := mustCreateTask(t, e, CreateTaskInput{
				Type: domain.TypeWithdrawal, House: "Bet365", PixKeyInfo: oldKey,
			})
			logsBefore := len(e.Snapshot().Logs)

			if _, err := e.EditTask(task.ID, tt.update); err != nil {
				t.Fatalf("EditTask: %v", err)
			}
			extras := len(e.Snapshot().Logs) - logsBefore
			if extras != tt.wantExtras {
				t.Errorf("got %d new log entries, want %d", extras, tt.wantExtras)
			}
			if tt.wantExtras == 1 {
				if act := e.Snapshot().Logs[0].Action; act != "Pix key updated" {
					t.Errorf("log action = %q", act)
				}
			}
		})
	}
}

func TestEditTask_NotFound(t *testing.T) {
	e := newTestEngine()
	if _, err := e.EditTask("missing", registry.TaskUpdate{}); !errors.Is(err, domain.ErrTaskNotFound) {
		t.Fatalf("err = %v, want ErrTaskNotFound", err)
	}
}

// ─── DeleteTask ─────────────────────────────────────────────────────────────

func TestDeleteTask(t *testing.T) {
	e := newTestEngine()
	task := mustCreateTask(t, e, CreateTaskInput{Type: domain.TypeSMS, House: "Bet365"})

	got, err := e.DeleteTask(task.ID, "")
	if err != nil {
		t.Fatalf("DeleteTask: %v", err)
	}
	if got.Status != domain.TaskDeleted {
		t.Errorf("status = %s, want DELETED", got.Status)
	}
	if got.DeletionReason != registry.DefaultDeletionReason {
		t.Errorf("reason = %q, want the default", got.DeletionReason)
	}
	st := e.Snapshot()
	if len(st.Tasks) != 1 {
		t.Error("logical deletion must keep the task on record")
	}
	if st.Logs[0].Action != "Request deleted. Reason: not provided" {
		t.Errorf("log action = %q", st.Logs[0].Action)
	}
}

// ─── FinishDelivery ─────────────────────────────────────────────────────────

func TestFinishDelivery_FullWithPack(t *testing.T) {
	e := newTestEngine()
	pack := mustCreatePack(t, e, "Bet365", 10, 150)
	task := mustCreateTask(t, e, CreateTaskInput{Type: domain.TypeNewAccount, House: "Bet365", Quantity: 10})

	res, err := e.FinishDelivery(task.ID, deliveries(10), pack.ID)
	if err != nil {
		t.Fatalf("FinishDelivery: %v", err)
	}
	if !res.FullyDelivered || res.Remaining != 0 {
		t.Errorf("result = %+v, want fully delivered", res)
	}
	if res.Task.Status != domain.TaskFinalized {
		t.Errorf("task status = %s, want FINALIZED", res.Task.Status)
	}

	st := e.Snapshot()
	if len(st.Accounts) != 10 {
		t.Fatalf("got %d accounts, want 10", len(st.Accounts))
	}
	for _, a := range st.Accounts {
		if a.Status != domain.AccountActive || a.TaskIDSource != task.ID || a.PackID != pack.ID {
			t.Errorf("account %s = %+v", a.Name, a)
		}
	}
	p := st.Packs[0]
	if p.Delivered != 10 || p.Status != domain.PackCompleted {
		t.Errorf("pack delivered=%d status=%s, want 10/COMPLETED", p.Delivered, p.Status)
	}
	if st.Logs[0].Action != "Task concluded. 10 accounts delivered. Pack deducted: Yes" {
		t.Errorf("log action = %q", st.Logs[0].Action)
	}
}

func TestFinishDelivery_PartialLeavesRemainder(t *testing.T) {
	e := newTestEngine()
	task := mustCreateTask(t, e, CreateTaskInput{Type: domain.TypeNewAccount, House: "Betano", Quantity: 10})

	res, err := e.FinishDelivery(task.ID, deliveries(4), "")
	if err != nil {
		t.Fatalf("FinishDelivery: %v", err)
	}
	if res.FullyDelivered {
		t.Error("partial delivery must not finalize the task")
	}
	if res.Remaining != 6 {
		t.Errorf("remaining = %d, want 6", res.Remaining)
	}
	if res.Task.Status != domain.TaskPending || res.Task.Quantity != 6 {
		t.Errorf("task = %+v, want PENDING with quantity 6", res.Task)
	}
	st := e.Snapshot()
	if st.Logs[0].Action != "Delivered: 4. Remaining: 6. Pack deducted: No" {
		t.Errorf("log action = %q", st.Logs[0].Action)
	}
}

func TestFinishDelivery_OverDeliveryFinalizes(t *testing.T) {
	e := newTestEngine()
	task := mustCreateTask(t, e, CreateTaskInput{Type: domain.TypeNewAccount, House: "Bet365", Quantity: 3})

	res, err := e.FinishDelivery(task.ID, deliveries(5), "")
	if err != nil {
		t.Fatalf("FinishDelivery: %v", err)
	}
	if !res.FullyDelivered {
		t.Error("over-delivery must finalize the task")
	}
	if len(e.Snapshot().Accounts) != 5 {
		t.Error("all delivered accounts must be created even on over-delivery")
	}
}

func TestFinishDelivery_AbsentQuantityCountsAsOne(t *testing.T) {
	e := newTestEngine()
	task := mustCreateTask(t, e, CreateTaskInput{Type: domain.TypeNewAccount, House: "KTO"})

	res, err := e.FinishDelivery(task.ID, deliveries(1), "")
	if err != nil {
		t.Fatalf("FinishDelivery: %v", err)
	}
	if !res.FullyDelivered {
		t.Error("a single delivery must finalize a task with no quantity")
	}
}

func TestFinishDelivery_RequiresAccounts(t *testing.T) {
	e := newTestEngine()
	task := mustCreateTask(t, e, CreateTaskInput{Type: domain.TypeNewAccount, House: "Bet365"})

	if _, err := e.FinishDelivery(task.ID, nil, ""); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}

// ─── LimitAccount / MarkReplacement ─────────────────────────────────────────

func TestLimitAccount_CreatesWithdrawalFollowUp(t *testing.T) {
	e := newTestEngine()
	acc, err := e.SaveAccount(domain.Account{Name: "ana", House: "Bet365", DepositValue: 50}, "")
	if err != nil {
		t.Fatalf("SaveAccount: %v", err)
	}

	got, err := e.LimitAccount(acc.ID, true, "pix@mail.com")
	if err != nil {
		t.Fatalf("LimitAccount: %v", err)
	}
	if got.Status != domain.AccountLimited {
		t.Errorf("status = %s, want LIMITED", got.Status)
	}

	st := e.Snapshot()
	if len(st.Tasks) != 1 {
		t.Fatalf("got %d tasks, want 1 withdrawal follow-up", len(st.Tasks))
	}
	task := st.Tasks[0]
	if task.Type != domain.TypeWithdrawal {
		t.Errorf("follow-up type = %s, want SAQUE", task.Type)
	}
	if task.House != "Bet365" || task.AccountName != "ana" || task.PixKeyInfo != "pix@mail.com" {
		t.Errorf("follow-up task = %+v", task)
	}
	if task.Description != "Generated automatically when limiting the account." {
		t.Errorf("follow-up description = %q", task.Description)
	}
	// one for the manual registration, one for the limit, one for the
	// follow-up task creation
	if len(st.Logs) != 3 {
		t.Errorf("got %d log entries, want 3", len(st.Logs))
	}
}

func TestLimitAccount_WithoutWithdrawal(t *testing.T) {
	e := newTestEngine()
	acc, err := e.SaveAccount(domain.Account{Name: "bia", House: "KTO"}, "")
	if err != nil {
		t.Fatalf("SaveAccount: %v", err)
	}

	if _, err := e.LimitAccount(acc.ID, false, ""); err != nil {
		t.Fatalf("LimitAccount: %v", err)
	}
	if got := len(e.Snapshot().Tasks); got != 0 {
		t.Errorf("got %d tasks, want none", got)
	}
}

func TestMarkReplacement_ReversesPack(t *testing.T) {
	e := newTestEngine()
	pack := mustCreatePack(t, e, "Bet365", 10, 150)
	task := mustCreateTask(t, e, CreateTaskInput{Type: domain.TypeNewAccount, House: "Bet365", Quantity: 10})
	res, err := e.FinishDelivery(task.ID, deliveries(10), pack.ID)
	if err != nil {
		t.Fatalf("FinishDelivery: %v", err)
	}

	got, err := e.MarkReplacement(res.CreatedAccounts[0].ID, false, "")
	if err != nil {
		t.Fatalf("MarkReplacement: %v", err)
	}
	if got.Status != domain.AccountReplacement {
		t.Errorf("status = %s, want REPLACEMENT", got.Status)
	}

	st := e.Snapshot()
	p := st.Packs[0]
	if p.Delivered != 9 {
		t.Errorf("pack delivered = %d, want 9", p.Delivered)
	}
	if p.Status != domain.PackActive {
		t.Errorf("pack status = %s, want ACTIVE", p.Status)
	}
	if st.Logs[0].Action != "Marked for REPLACEMENT" {
		t.Errorf("log action = %q", st.Logs[0].Action)
	}
}

func TestMarkReplacement_NoPackAttribution(t *testing.T) {
	e := newTestEngine()
	pack := mustCreatePack(t, e, "Bet365", 10, 150)
	acc, err := e.SaveAccount(domain.Account{Name: "solo", House: "Bet365"}, "")
	if err != nil {
		t.Fatalf("SaveAccount: %v", err)
	}

	if _, err := e.MarkReplacement(acc.ID, false, ""); err != nil {
		t.Fatalf("MarkReplacement: %v", err)
	}
	if got := e.Snapshot().Packs[0].Delivered; got != 0 {
		t.Errorf("pack %s delivered = %d, want untouched 0", pack.ID, got)
	}
}

// ─── SaveAccount ────────────────────────────────────────────────────────────

func TestSaveAccount_ManualCreateWithPack(t *testing.T) {
	e := newTestEngine()
	pack := mustCreatePack(t, e, "Betano", 2, 80)

	acc, err := e.SaveAccount(domain.Account{Name: "dora", House: "Betano", DepositValue: 25}, pack.ID)
	if err != nil {
		t.Fatalf("SaveAccount: %v", err)
	}
	if acc.Status != domain.AccountActive || acc.PackID != pack.ID {
		t.Errorf("account = %+v", acc)
	}
	st := e.Snapshot()
	if st.Packs[0].Delivered != 1 {
		t.Errorf("pack delivered = %d, want 1", st.Packs[0].Delivered)
	}
	if st.Logs[0].Action != "Account manually registered" {
		t.Errorf("log action = %q", st.Logs[0].Action)
	}
}

func TestSaveAccount_Edit(t *testing.T) {
	e := newTestEngine()
	acc, err := e.SaveAccount(domain.Account{Name: "eva", House: "Bet365", DepositValue: 10}, "")
	if err != nil {
		t.Fatalf("SaveAccount: %v", err)
	}

	acc.DepositValue = 99
	acc.Email = "eva@mail.com"
	updated, err := e.SaveAccount(acc, "")
	if err != nil {
		t.Fatalf("SaveAccount edit: %v", err)
	}
	if updated.DepositValue != 99 || updated.Email != "eva@mail.com" {
		t.Errorf("updated = %+v", updated)
	}
	st := e.Snapshot()
	if len(st.Accounts) != 1 {
		t.Errorf("got %d accounts, want 1 — edit must not duplicate", len(st.Accounts))
	}
	if st.Logs[0].Action != "Account data updated manually" {
		t.Errorf("log action = %q", st.Logs[0].Action)
	}
}

func TestSaveAccount_EditUnknownID(t *testing.T) {
	e := newTestEngine()
	_, err := e.SaveAccount(domain.Account{ID: "ghost", Name: "x", House: "Bet365"}, "")
	if !errors.Is(err, domain.ErrAccountNotFound) {
		t.Fatalf("err = %v, want ErrAccountNotFound", err)
	}
}

func TestSaveAccount_Validation(t *testing.T) {
	e := newTestEngine()
	tests := []struct {
		name string
		in   domain.Account
	}{
		{name: "missing name", in: domain.Account{House: "Bet365"}},
		{name: "missing house", in: domain.Account{Name: "ana"}},
		{name: "negative deposit", in: domain.Account{Name: "ana", House: "Bet365", DepositValue: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := e.SaveAccount(tt.in, ""); !errors.Is(err, domain.ErrInvalidInput) {
				t.Fatalf("err = %v, want ErrInvalidInput", err)
			}
		})
	}
}

// ─── Persistence & Attribution ──────────────────────────────────────────────

type recordingStore struct {
	saved  []domain.State
	failOn int // fail the nth save (1-based), 0 = never
}

func (s *recordingStore) LoadState() (domain.State, error) { return domain.State{}, nil }

func (s *recordingStore) SaveState(st domain.State) error {
	s.saved = append(s.saved, st)
	if s.failOn > 0 && len(s.saved) == s.failOn {
		return errors.New("disk full")
	}
	return nil
}

func TestEngine_WriteThroughPersistence(t *testing.T) {
	store := &recordingStore{}
	e := New(Config{Store: store})

	mustCreateTask(t, e, CreateTaskInput{Type: domain.TypeSMS, House: "Bet365"})
	if len(store.saved) != 1 {
		t.Fatalf("store saw %d saves, want 1", len(store.saved))
	}
	if len(store.saved[0].Tasks) != 1 {
		t.Error("saved snapshot should carry the new task")
	}
}

func TestEngine_PersistFailureIsNotFatal(t *testing.T) {
	store := &recordingStore{failOn: 1}
	e := New(Config{Store: store})

	task, err := e.CreateTask(CreateTaskInput{Type: domain.TypeSMS, House: "Bet365"})
	if err != nil {
		t.Fatalf("a failed save must not fail the command: %v", err)
	}
	if _, ok := findTask(e.Snapshot(), task.ID); !ok {
		t.Error("in-memory state must keep the committed task")
	}
}

func findTask(st domain.State, id string) (domain.Task, bool) {
	for _, tk := range st.Tasks {
		if tk.ID == id {
			return tk, true
		}
	}
	return domain.Task{}, false
}

func TestEngine_ActorAttribution(t *testing.T) {
	e := New(Config{Actor: func() string { return "Maria" }})
	mustCreateTask(t, e, CreateTaskInput{Type: domain.TypeSMS, House: "Bet365"})
	if got := e.Snapshot().Logs[0].User; got != "Maria" {
		t.Errorf("log user = %q, want Maria", got)
	}
}

type staticLabels map[string]string

func (l staticLabels) TypeLabel(v string) string { return l[v] }

func TestEngine_TypeLabelsInAuditText(t *testing.T) {
	e := New(Config{Labels: staticLabels{domain.TypeSMS: "SMS Verification"}})
	task := mustCreateTask(t, e, CreateTaskInput{Type: domain.TypeSMS, House: "Bet365"})

	st := e.Snapshot()
	if st.Logs[0].Description != "SMS Verification - Bet365" {
		t.Errorf("log description = %q", st.Logs[0].Description)
	}
	// unknown value falls back to the raw value
	task2 := mustCreateTask(t, e, CreateTaskInput{Type: "CUSTOM_TYPE", House: "KTO"})
	st = e.Snapshot()
	if st.Logs[0].Description != "CUSTOM_TYPE - KTO" {
		t.Errorf("fallback description = %q", st.Logs[0].Description)
	}
	_, _ = task, task2
}

func TestAppendSystemLog(t *testing.T) {
	e := newTestEngine()
	entry := e.AppendSystemLog("House added: KTO", "Settings changed")
	if entry.RelatedID != domain.SystemRelatedID {
		t.Errorf("related id = %q, want SYSTEM", entry.RelatedID)
	}
	if len(e.Snapshot().Logs) != 1 {
		t.Error("system log entry must be committed")
	}
}
