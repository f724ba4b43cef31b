package registry

import (
	"github.com/betmanager/betmanager/internal/domain"
)

// Audit is the append-only audit log. Entries are prepended so the
// externally observed order is always newest-first; they are never
// mutated or removed.
type Audit struct {
	State *domain.State
	Now   Clock
	NewID IDFunc
}

// Append records one audit entry. relatedID may be empty for
// system-level events, in which case the SYSTEM sentinel is stored;
// actor falls back to the literal System attribution.
func (l Audit) Append(relatedID, description, action, actor string) domain.LogEntry {
	if relatedID == "" {
		relatedID = domain.SystemRelatedID
	}
	if actor == "" {
		actor = domain.DefaultActor
	}
	e := domain.LogEntry{
		ID:          l.NewID(),
		RelatedID:   relatedID,
		Description: description,
		Action:      action,
		User:        actor,
		Timestamp:   l.Now(),
	}
	l.State.Logs = append([]domain.LogEntry{e}, l.State.Logs...)
	return e
}
