package domain

// ─── Service Interfaces ─────────────────────────────────────────────────────
// These interfaces define boundaries between layers.
// Infrastructure implements them; the engine and settings layers depend
// on them, never on concrete storage.

// StateStore persists the four engine-owned collections. The engine hands
// off a committed snapshot after every command (write-through, last write
// wins); it never blocks on the store mid-command.
type StateStore interface {
	LoadState() (State, error)
	SaveState(State) error
}

// SettingsStore persists the configuration collections (houses, task
// types, pix keys) and identity records.
type SettingsStore interface {
	LoadHouses() ([]string, error)
	SaveHouses([]string) error
	LoadTaskTypes() ([]TaskTypeOption, error)
	SaveTaskTypes([]TaskTypeOption) error
	LoadPixKeys() ([]PixKey, error)
	SavePixKeys([]PixKey) error
	LoadUsers() ([]User, error)
	SaveUsers([]User) error
	LoadCurrentUser() (*User, error)
	SaveCurrentUser(*User) error
}

// TypeLabeler resolves a task-type value to its display label for audit
// text. The configuration layer implements it; the engine falls back to
// the raw value when no labeler is wired or the value is unknown.
type TypeLabeler interface {
	TypeLabel(value string) string
}
