package pkg

import (
	"time"
)

// Core types for the hotel booking assistant's two-tier memory.

// PreferenceSet maps a preference key (name, location, room_type, other,
// budget) to its stored value. Keys are unique; last write wins.
type PreferenceSet map[string]string

// Clone returns an independent copy of the set.
func (p PreferenceSet) Clone() PreferenceSet {
	if p == nil {
		return PreferenceSet{}
	}
	out := make(PreferenceSet, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// InteractionRecord is one completed conversational turn. Records are
// immutable and append-only; the store deduplicates them by full-content
// equality on save.
type InteractionRecord struct {
	UserInput         string    `json:"user_input"`
	AssistantResponse string    `json:"assistant_response"`
	Timestamp         time.Time `json:"timestamp"`
}

// Equal reports full-content equality, the identity used for history dedup.
func (r InteractionRecord) Equal(other InteractionRecord) bool {
	return r.UserInput == other.UserInput &&
		r.AssistantResponse == other.AssistantResponse &&
		r.Timestamp.Equal(other.Timestamp)
}

// LongTermMemory is the durable cross-session record for one user: their
// structured preferences plus the append-only interaction log.
type LongTermMemory struct {
	UserID      string              `json:"user_id"`
	Preferences PreferenceSet       `json:"preferences"`
	History     []InteractionRecord `json:"history"`
}

// NewLongTermMemory returns a fresh empty memory for a user. Load paths use
// it both for first-seen users and for corrupt records recovered as empty.
func NewLongTermMemory(userID string) *LongTermMemory {
	return &LongTermMemory{
		UserID:      userID,
		Preferences: PreferenceSet{},
		History:     []InteractionRecord{},
	}
}

// AppendInteraction appends a record, skipping exact duplicates already in
// the in-memory history.
func (m *LongTermMemory) AppendInteraction(rec InteractionRecord) {
	for _, existing := range m.History {
		if existing.Equal(rec) {
			return
		}
	}
	m.History = append(m.History, rec)
}

// RecentHistory returns the last n interaction records. Older entries stay
// in storage but are dropped from prompt context.
func (m *LongTermMemory) RecentHistory(n int) []InteractionRecord {
	if n <= 0 || len(m.History) == 0 {
		return nil
	}
	if len(m.History) <= n {
		return m.History
	}
	return m.History[len(m.History)-n:]
}

// Turn is a just-completed exchange handed to the consolidator.
type Turn struct {
	UserInput         string `json:"user_input"`
	AssistantResponse string `json:"assistant_response"`
}
