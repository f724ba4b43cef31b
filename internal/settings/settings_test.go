package settings

import (
	"errors"
	"testing"

	"github.com/betmanager/betmanager/internal/domain"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	s := New(nil)
	if err := s.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	return s
}

func TestLoad_SeedsDefaults(t *testing.T) {
	s := newTestService(t)

	if got := len(s.Houses()); got != len(DefaultHouses) {
		t.Errorf("got %d houses, want %d", got, len(DefaultHouses))
	}
	if got := len(s.TaskTypes()); got != len(DefaultTaskTypes) {
		t.Errorf("got %d task types, want %d", got, len(DefaultTaskTypes))
	}
	if !s.ValidHouse("Bet365") {
		t.Error("default house Bet365 should validate")
	}
	if !s.ValidType(domain.TypeWithdrawal) {
		t.Error("default type SAQUE should validate")
	}
	if s.CurrentUser() != nil {
		t.Error("fresh service should have no session")
	}
}

func TestHouses_AddRemove(t *testing.T) {
	s := newTestService(t)

	if err := s.AddHouse("  Novibet  "); err != nil {
		t.Fatalf("AddHouse: %v", err)
	}
	if !s.ValidHouse("Novibet") {
		t.Error("added house should validate trimmed")
	}

	if err := s.RemoveHouse("Novibet"); err != nil {
		t.Fatalf("RemoveHouse: %v", err)
	}
	if s.ValidHouse("Novibet") {
		t.Error("removed house should not validate")
	}

	if err := s.AddHouse(""); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("AddHouse(\"\") err = %v, want ErrInvalidInput", err)
	}
	if err := s.RemoveHouse("NotThere"); err == nil {
		t.Error("removing an unknown house should error")
	}
}

func TestTaskTypes_AddDerivesValue(t *testing.T) {
	s := newTestService(t)

	opt, err := s.AddTaskType("proof of address")
	if err != nil {
		t.Fatalf("AddTaskType: %v", err)
	}
	if opt.Value != "PROOF_OF_ADDRESS" {
		t.Errorf("derived value = %q, want PROOF_OF_ADDRESS", opt.Value)
	}
	if !s.ValidType("PROOF_OF_ADDRESS") {
		t.Error("added type should validate")
	}
	if got := s.TypeLabel("PROOF_OF_ADDRESS"); got != "proof of address" {
		t.Errorf("TypeLabel = %q", got)
	}

	if err := s.RemoveTaskType("PROOF_OF_ADDRESS"); err != nil {
		t.Fatalf("RemoveTaskType: %v", err)
	}
	if s.ValidType("PROOF_OF_ADDRESS") {
		t.Error("removed type should not validate")
	}
}

func TestTypeLabel_UnknownYieldsEmpty(t *testing.T) {
	s := newTestService(t)
	if got := s.TypeLabel("NOPE"); got != "" {
		t.Errorf("TypeLabel(NOPE) = %q, want empty", got)
	}
}

func TestPixKeys(t *testing.T) {
	s := newTestService(t)

	pk, err := s.AddPixKey("Main", "Nubank", "EMAIL", "a@b.com")
	if err != nil {
		t.Fatalf("AddPixKey: %v", err)
	}
	if pk.ID == "" {
		t.Error("AddPixKey should assign an id")
	}
	if got := len(s.PixKeys()); got != 1 {
		t.Errorf("got %d pix keys, want 1", got)
	}

	if _, err := s.AddPixKey("Bad", "Bank", "IBAN", "x"); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("unknown key type err = %v, want ErrInvalidInput", err)
	}
	if _, err := s.AddPixKey("", "Bank", "CPF", "123"); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("missing name err = %v, want ErrInvalidInput", err)
	}

	if err := s.RemovePixKey(pk.ID); err != nil {
		t.Fatalf("RemovePixKey: %v", err)
	}
	if got := len(s.PixKeys()); got != 0 {
		t.Errorf("got %d pix keys after removal, want 0", got)
	}
}

func TestResetDefaults(t *testing.T) {
	s := newTestService(t)
	if err := s.AddHouse("Extra"); err != nil {
		t.Fatalf("AddHouse: %v", err)
	}
	if _, err := s.AddTaskType("extra type"); err != nil {
		t.Fatalf("AddTaskType: %v", err)
	}
	pk, err := s.AddPixKey("Keep", "Bank", "CPF", "123")
	if err != nil {
		t.Fatalf("AddPixKey: %v", err)
	}

	if err := s.ResetDefaults(); err != nil {
		t.Fatalf("ResetDefaults: %v", err)
	}
	if s.ValidHouse("Extra") || s.ValidType("EXTRA_TYPE") {
		t.Error("reset should drop added houses and types")
	}
	if got := len(s.Houses()); got != len(DefaultHouses) {
		t.Errorf("got %d houses, want defaults", got)
	}
	found := false
	for _, k := range s.PixKeys() {
		if k.ID == pk.ID {
			found = true
		}
	}
	if !found {
		t.Error("reset must leave pix keys alone")
	}
}

func TestSession_FirstUserIsAdmin(t *testing.T) {
	s := newTestService(t)

	first, err := s.Login("Maria", "maria@mail.com")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if first.Role != "ADMIN" {
		t.Errorf("first user role = %s, want ADMIN", first.Role)
	}
	if first.ID != "maria@mail.com" {
		t.Errorf("user id = %s, want the email", first.ID)
	}

	second, err := s.Login("Joao", "joao@mail.com")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if second.Role != "USER" {
		t.Errorf("second user role = %s, want USER", second.Role)
	}
	if got := s.ActorName(); got != "Joao" {
		t.Errorf("ActorName = %q, want the session user", got)
	}
}

func TestSession_ReLoginKeepsIdentity(t *testing.T) {
	s := newTestService(t)
	if _, err := s.Login("Maria", "maria@mail.com"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	again, err := s.Login("Maria Silva", "maria@mail.com")
	if err != nil {
		t.Fatalf("re-Login: %v", err)
	}
	if again.Role != "ADMIN" {
		t.Error("re-login must keep the original role")
	}
	if again.Name != "Maria Silva" {
		t.Error("re-login should refresh the display name")
	}
}

func TestSession_Logout(t *testing.T) {
	s := newTestService(t)

	if err := s.Logout(); !errors.Is(err, domain.ErrNotAuthenticated) {
		t.Errorf("logout without session err = %v, want ErrNotAuthenticated", err)
	}

	if _, err := s.Login("Maria", "maria@mail.com"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if err := s.Logout(); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if s.CurrentUser() != nil {
		t.Error("session should be cleared after logout")
	}
	if got := s.ActorName(); got != "" {
		t.Errorf("ActorName after logout = %q, want empty", got)
	}
}

func TestSetDefaultPixKey(t *testing.T) {
	s := newTestService(t)

	if err := s.SetDefaultPixKey("k1"); !errors.Is(err, domain.ErrNotAuthenticated) {
		t.Errorf("err = %v, want ErrNotAuthenticated", err)
	}

	if _, err := s.Login("Maria", "maria@mail.com"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if err := s.SetDefaultPixKey("k1"); err != nil {
		t.Fatalf("SetDefaultPixKey: %v", err)
	}
	if got := s.CurrentUser().DefaultPixKeyID; got != "k1" {
		t.Errorf("DefaultPixKeyID = %q, want k1", got)
	}
}

func TestMutations_RecordAuditEntries(t *testing.T) {
	s := newTestService(t)
	var actions []string
	s.SetLogger(func(description, action string) {
		actions = append(actions, action)
	})

	if err := s.AddHouse("Novibet"); err != nil {
		t.Fatalf("AddHouse: %v", err)
	}
	if _, err := s.Login("Maria", "maria@mail.com"); err != nil {
		t.Fatalf("Login: %v", err)
	}

	want := []string{"Added house: Novibet", "User logged in: Maria"}
	if len(actions) != len(want) {
		t.Fatalf("got %d audit actions %v, want %d", len(actions), actions, len(want))
	}
	for i := range want {
		if actions[i] != want[i] {
			t.Errorf("action[%d] = %q, want %q", i, actions[i], want[i])
		}
	}
}
