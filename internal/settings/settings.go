// Package settings manages the configuration collaborators of the core:
// the runtime-extensible house and task-type sets, payout destinations,
// and the local identity/session records. The engine treats house and
// type as opaque validated strings; this package owns the sets they are
// validated against and the labels used in audit text.
//
// Settings are not engine-owned state, but every mutation is still
// recorded to the audit trail through the engine's system-log command,
// so the engine stays the sole writer of the log collection.
package settings

import (
	"fmt"
	"strings"
	"sync"

	"github.com/betmanager/betmanager/internal/domain"
	"github.com/betmanager/betmanager/internal/idgen"
)

// DefaultHouses seeds the house list on first run and on factory reset.
var DefaultHouses = []string{"Bet365", "Betano", "Sportingbet", "KTO", "Estrela Bet"}

// DefaultTaskTypes seeds the task-type options.
var DefaultTaskTypes = []domain.TaskTypeOption{
	{Label: "SMS Verification", Value: domain.TypeSMS},
	{Label: "Weekly Facial Check", Value: domain.TypeWeeklyFacial},
	{Label: "Remove 2FA", Value: domain.TypeRemove2FA},
	{Label: "Deposit", Value: domain.TypeDeposit},
	{Label: "Withdrawal", Value: domain.TypeWithdrawal},
	{Label: "Balance Transfer", Value: domain.TypeBalanceSend},
	{Label: "New Account", Value: domain.TypeNewAccount},
	{Label: "Other", Value: domain.TypeOther},
}

var pixKeyTypes = map[string]bool{
	"CPF": true, "CNPJ": true, "EMAIL": true, "TELEFONE": true, "ALEATORIA": true,
}

// LogFunc records a system-level audit entry. Wired to the engine's
// AppendSystemLog after construction; nil means no audit trail (tests).
type LogFunc func(description, action string)

// Service holds the configuration state and writes it through to the
// settings store on every mutation.
type Service struct {
	mu        sync.RWMutex
	store     domain.SettingsStore
	logFn     LogFunc
	houses    []string
	taskTypes []domain.TaskTypeOption
	pixKeys   []domain.PixKey
	users     []domain.User
	current   *domain.User
	newID     func() string
}

// New creates a Service bound to store (which may be nil for a purely
// in-memory instance). Call Load before first use.
func New(store domain.SettingsStore) *Service {
	return &Service{store: store, newID: idgen.NewID}
}

// SetLogger wires the audit sink. Separate from New because the engine
// that provides it is constructed after the Service it labels for.
func (s *Service) SetLogger(fn LogFunc) {
	s.mu.Lock()
	s.logFn = fn
	s.mu.Unlock()
}

func (s *Service) log(description, action string) {
	if s.logFn != nil {
		s.logFn(description, action)
	}
}

// Load pulls the persisted configuration, seeding defaults for any
// collection the store has never written.
func (s *Service) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.houses = append([]string(nil), DefaultHouses...)
	s.taskTypes = append([]domain.TaskTypeOption(nil), DefaultTaskTypes...)
	if s.store == nil {
		return nil
	}

	if houses, err := s.store.LoadHouses(); err != nil {
		return fmt.Errorf("load houses: %w", err)
	} else if houses != nil {
		s.houses = houses
	}
	if types, err := s.store.LoadTaskTypes(); err != nil {
		return fmt.Errorf("load task types: %w", err)
	} else if types != nil {
		s.taskTypes = types
	}
	keys, err := s.store.LoadPixKeys()
	if err != nil {
		return fmt.Errorf("load pix keys: %w", err)
	}
	s.pixKeys = keys
	users, err := s.store.LoadUsers()
	if err != nil {
		return fmt.Errorf("load users: %w", err)
	}
	s.users = users
	current, err := s.store.LoadCurrentUser()
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	s.current = current
	return nil
}

// ─── Houses ─────────────────────────────────────────────────────────────────

// Houses returns a copy of the configured house names.
func (s *Service) Houses() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.houses...)
}

// ValidHouse reports whether name is a configured house.
func (s *Service) ValidHouse(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, h := range s.houses {
		if h == name {
			return true
		}
	}
	return false
}

// AddHouse appends a new house name.
func (s *Service) AddHouse(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: house name is required", domain.ErrInvalidInput)
	}
	s.mu.Lock()
	s.houses = append(s.houses, name)
	err := s.saveHousesLocked()
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.log("Settings: Houses", fmt.Sprintf("Added house: %s", name))
	return nil
}

// RemoveHouse removes a house by name.
func (s *Service) RemoveHouse(name string) error {
	s.mu.Lock()
	found := false
	out := s.houses[:0]
	for _, h := range s.houses {
		if h == name && !found {
			found = true
			continue
		}
		out = append(out, h)
	}
	s.houses = out
	var err error
	if found {
		err = s.saveHousesLocked()
	}
	s.mu.Unlock()
	if !found {
		return fmt.Errorf("house %q not configured", name)
	}
	if err != nil {
		return err
	}
	s.log("Settings: Houses", fmt.Sprintf("Removed house: %s", name))
	return nil
}

func (s *Service) saveHousesLocked() error {
	if s.store == nil {
		return nil
	}
	return s.store.SaveHouses(s.houses)
}

// ─── Task Types ─────────────────────────────────────────────────────────────

// TaskTypes returns a copy of the configured task-type options.
func (s *Service) TaskTypes() []domain.TaskTypeOption {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.TaskTypeOption(nil), s.taskTypes...)
}

// ValidType reports whether value is a configured task type. Callers of
// CreateTask consult this; the engine itself treats type as opaque.
func (s *Service) ValidType(value string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.taskTypes {
		if t.Value == value {
			return true
		}
	}
	return false
}

// TypeLabel implements domain.TypeLabeler. Unknown values yield "" so
// the engine falls back to the raw value.
func (s *Service) TypeLabel(value string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.taskTypes {
		if t.Value == value {
			return t.Label
		}
	}
	return ""
}

// AddTaskType registers a new option. The stored value is derived from
// the label: uppercased with spaces collapsed to underscores.
func (s *Service) AddTaskType(label string) (domain.TaskTypeOption, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return domain.TaskTypeOption{}, fmt.Errorf("%w: task type label is required", domain.ErrInvalidInput)
	}
	value := strings.ToUpper(strings.Join(strings.Fields(label), "_"))
	opt := domain.TaskTypeOption{Label: label, Value: value}

	s.mu.Lock()
	s.taskTypes = append(s.taskTypes, opt)
	err := s.saveTaskTypesLocked()
	s.mu.Unlock()
	if err != nil {
		return domain.TaskTypeOption{}, err
	}
	s.log("Settings: Task types", fmt.Sprintf("Added type: %s", label))
	return opt, nil
}

// RemoveTaskType removes the option with the given value.
func (s *Service) RemoveTaskType(value string) error {
	s.mu.Lock()
	found := false
	var label string
	out := s.taskTypes[:0]
	for _, t := range s.taskTypes {
		if t.Value == value && !found {
			found = true
			label = t.Label
			continue
		}
		out = append(out, t)
	}
	s.taskTypes = out
	var err error
	if found {
		err = s.saveTaskTypesLocked()
	}
	s.mu.Unlock()
	if !found {
		return fmt.Errorf("task type %q not configured", value)
	}
	if err != nil {
		return err
	}
	s.log("Settings: Task types", fmt.Sprintf("Removed type: %s", label))
	return nil
}

func (s *Service) saveTaskTypesLocked() error {
	if s.store == nil {
		return nil
	}
	return s.store.SaveTaskTypes(s.taskTypes)
}

// ─── Pix Keys ───────────────────────────────────────────────────────────────

// PixKeys returns a copy of the configured payout destinations.
func (s *Service) PixKeys() []domain.PixKey {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.PixKey(nil), s.pixKeys...)
}

// AddPixKey registers a payout destination.
func (s *Service) AddPixKey(name, bank, keyType, key string) (domain.PixKey, error) {
	if name == "" || bank == "" || key == "" {
		return domain.PixKey{}, fmt.Errorf("%w: pix key name, bank and key are required", domain.ErrInvalidInput)
	}
	if !pixKeyTypes[keyType] {
		return domain.PixKey{}, fmt.Errorf("%w: unknown pix key type %q", domain.ErrInvalidInput, keyType)
	}
	pk := domain.PixKey{
		ID:      s.newID(),
		Name:    name,
		Bank:    bank,
		KeyType: keyType,
		Key:     key,
	}
	s.mu.Lock()
	s.pixKeys = append(s.pixKeys, pk)
	err := s.savePixKeysLocked()
	s.mu.Unlock()
	if err != nil {
		return domain.PixKey{}, err
	}
	s.log("Settings: Pix", fmt.Sprintf("Added pix key: %s (%s)", name, bank))
	return pk, nil
}

// RemovePixKey removes a payout destination by id.
func (s *Service) RemovePixKey(id string) error {
	s.mu.Lock()
	found := false
	var name string
	out := s.pixKeys[:0]
	for _, k := range s.pixKeys {
		if k.ID == id {
			found = true
			name = k.Name
			continue
		}
		out = append(out, k)
	}
	s.pixKeys = out
	var err error
	if found {
		err = s.savePixKeysLocked()
	}
	s.mu.Unlock()
	if !found {
		return fmt.Errorf("pix key %q not configured", id)
	}
	if err != nil {
		return err
	}
	s.log("Settings: Pix", fmt.Sprintf("Removed pix key: %s", name))
	return nil
}

func (s *Service) savePixKeysLocked() error {
	if s.store == nil {
		return nil
	}
	return s.store.SavePixKeys(s.pixKeys)
}

// ─── Factory Reset ──────────────────────────────────────────────────────────

// ResetDefaults restores the house and task-type sets to their seeds.
// Pix keys and identities are left alone.
func (s *Service) ResetDefaults() error {
	s.mu.Lock()
	s.houses = append([]string(nil), DefaultHouses...)
	s.taskTypes = append([]domain.TaskTypeOption(nil), DefaultTaskTypes...)
	var err error
	if e := s.saveHousesLocked(); e != nil {
		err = e
	}
	if e := s.saveTaskTypesLocked(); e != nil && err == nil {
		err = e
	}
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.log("Settings", "Restored factory defaults")
	return nil
}

// ─── Session ────────────────────────────────────────────────────────────────

// Login starts a session for the given identity, registering it on
// first sight. The first user ever seen becomes ADMIN; later ones are
// plain users. There is no password: the tool is local and trust based.
func (s *Service) Login(name, email string) (domain.User, error) {
	if name == "" || email == "" {
		return domain.User{}, fmt.Errorf("%w: name and email are required", domain.ErrInvalidInput)
	}
	s.mu.Lock()
	var user *domain.User
	for i := range s.users {
		if s.users[i].Email == email {
			s.users[i].Name = name
			user = &s.users[i]
			break
		}
	}
	if user == nil {
		role := "USER"
		if len(s.users) == 0 {
			role = "ADMIN"
		}
		s.users = append(s.users, domain.User{ID: email, Name: name, Email: email, Role: role})
		user = &s.users[len(s.users)-1]
	}
	u := *user
	s.current = &u
	var err error
	if s.store != nil {
		if e := s.store.SaveUsers(s.users); e != nil {
			err = e
		}
		if e := s.store.SaveCurrentUser(s.current); e != nil && err == nil {
			err = e
		}
	}
	s.mu.Unlock()
	if err != nil {
		return domain.User{}, err
	}
	s.log("Session", fmt.Sprintf("User logged in: %s", name))
	return u, nil
}

// Logout clears the session.
func (s *Service) Logout() error {
	s.mu.Lock()
	had := s.current != nil
	var name string
	if had {
		name = s.current.Name
	}
	s.current = nil
	var err error
	if s.store != nil && had {
		err = s.store.SaveCurrentUser(nil)
	}
	s.mu.Unlock()
	if !had {
		return domain.ErrNotAuthenticated
	}
	if err != nil {
		return err
	}
	s.log("Session", fmt.Sprintf("User logged out: %s", name))
	return nil
}

// CurrentUser returns the session user, or nil.
func (s *Service) CurrentUser() *domain.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil
	}
	u := *s.current
	return &u
}

// ActorName supplies audit attribution: the session user's display
// name, or "" for the engine to substitute its System default.
func (s *Service) ActorName() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return ""
	}
	return s.current.Name
}

// SetDefaultPixKey stores the session user's preferred payout key.
func (s *Service) SetDefaultPixKey(keyID string) error {
	s.mu.Lock()
	if s.current == nil {
		s.mu.Unlock()
		return domain.ErrNotAuthenticated
	}
	s.current.DefaultPixKeyID = keyID
	for i := range s.users {
		if s.users[i].ID == s.current.ID {
			s.users[i].DefaultPixKeyID = keyID
		}
	}
	var err error
	if s.store != nil {
		if e := s.store.SaveUsers(s.users); e != nil {
			err = e
		}
		if e := s.store.SaveCurrentUser(s.current); e != nil && err == nil {
			err = e
		}
	}
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.log("Settings: User", "Changed default pix key")
	return nil
}
