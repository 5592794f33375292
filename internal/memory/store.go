package memory

import (
	"context"

	"hotelbot/pkg"
)

// Store persists per-user long-term memory.
//
// Load never fails for a syntactically valid identity: unknown users get a
// fresh empty memory and corrupt records are recovered as empty. Save
// overwrites preferences key by key and appends only interaction records
// not already persisted, so repeated saves of the same memory are
// idempotent.
type Store interface {
	Load(ctx context.Context, userID string) (*pkg.LongTermMemory, error)
	Save(ctx context.Context, userID string, mem *pkg.LongTermMemory) error
	Close() error
}

func containsRecord(records []pkg.InteractionRecord, rec pkg.InteractionRecord) bool {
	for _, existing := range records {
		if existing.Equal(rec) {
			return true
		}
	}
	return false
}
