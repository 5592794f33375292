package consolidate

import (
	"context"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"

	"hotelbot/pkg"
)

// Strategy derives an updated preference set and one interaction record
// from a just-completed turn. history is the full accumulated conversation
// including the turn itself.
//
// Implementations treat generation or parse failures as non-fatal: the
// prior preferences stay untouched and the turn still succeeds.
type Strategy interface {
	Consolidate(ctx context.Context, mem *pkg.LongTermMemory, turn pkg.Turn, history []*schema.Message) error
}

// Heuristic is the crude baseline: fixed trigger substrings in the user
// input overwrite the matching preference key with the whole raw sentence.
type Heuristic struct{}

func NewHeuristic() Heuristic {
	return Heuristic{}
}

func (Heuristic) Consolidate(ctx context.Context, mem *pkg.LongTermMemory, turn pkg.Turn, history []*schema.Message) error {
	lower := strings.ToLower(turn.UserInput)
	if strings.Contains(lower, "budget") {
		mem.Preferences["budget"] = turn.UserInput
	}
	if strings.Contains(lower, "location") || strings.Contains(lower, "city") {
		mem.Preferences["location"] = turn.UserInput
	}

	mem.AppendInteraction(newRecord(turn))
	return nil
}

func newRecord(turn pkg.Turn) pkg.InteractionRecord {
	return pkg.InteractionRecord{
		UserInput:         turn.UserInput,
		AssistantResponse: turn.AssistantResponse,
		Timestamp:         time.Now().UTC(),
	}
}
