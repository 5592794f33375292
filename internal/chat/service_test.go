package chat

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hotelbot/internal/consolidate"
	"hotelbot/internal/memory"
	"hotelbot/internal/session"
)

// queuedGateway replays scripted replies and records every prompt it sees.
// The first call of a turn is the chat reply, the second the summary.
type queuedGateway struct {
	replies []string
	err     error
	prompts [][]*schema.Message
}

func (g *queuedGateway) Generate(ctx context.Context, messages []*schema.Message) (*schema.Message, error) {
	g.prompts = append(g.prompts, messages)
	if g.err != nil {
		return nil, g.err
	}
	if len(g.replies) == 0 {
		return schema.AssistantMessage("ok", nil), nil
	}
	reply := g.replies[0]
	g.replies = g.replies[1:]
	return schema.AssistantMessage(reply, nil), nil
}

func newTestService(t *testing.T, gw *queuedGateway) (*Service, memory.Store) {
	t.Helper()
	store := memory.NewFileStore(filepath.Join(t.TempDir(), "memory.json"))
	svc := NewService(gw, session.NewMemoryStore(), store, consolidate.NewSummarizer(gw), NewComposer(3))
	return svc, store
}

func TestRespondEndToEnd(t *testing.T) {
	gw := &queuedGateway{replies: []string{
		"Certainly John, a suite in London with a pool.",
		"Name: John, Location: London, Room Type: Suite, Other: Has Pool",
	}}
	svc, store := newTestService(t, gw)
	ctx := context.Background()

	reply, err := svc.Respond(ctx, "u1", "s1", "I'm John, I need a suite in London with a pool.")
	require.NoError(t, err)
	assert.Equal(t, "Certainly John, a suite in London with a pool.", reply)

	// First turn: the composed context reports no stored preferences yet.
	require.NotEmpty(t, gw.prompts)
	firstSystem := gw.prompts[0][0]
	require.Equal(t, schema.System, firstSystem.Role)
	assert.Contains(t, firstSystem.Content, "None available")

	// Consolidation persisted the four summary fields and one record.
	mem, err := store.Load(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "John", mem.Preferences["name"])
	assert.Equal(t, "London", mem.Preferences["location"])
	assert.Equal(t, "Suite", mem.Preferences["room_type"])
	assert.Equal(t, "Has Pool", mem.Preferences["other"])
	require.Len(t, mem.History, 1)
	assert.Equal(t, "I'm John, I need a suite in London with a pool.", mem.History[0].UserInput)
}

func TestRespondSecondTurnSeesStoredPreferences(t *testing.T) {
	gw := &queuedGateway{replies: []string{
		"Of course.",
		"Name: John, Location: London, Room Type: Suite, Other: Has Pool",
		"London it stays.",
		"Name: John, Location: London, Room Type: Suite, Other: Has Pool",
	}}
	svc, _ := newTestService(t, gw)
	ctx := context.Background()

	_, err := svc.Respond(ctx, "u1", "s1", "I'm John, I need a suite in London with a pool.")
	require.NoError(t, err)
	_, err = svc.Respond(ctx, "u1", "s1", "Is breakfast included?")
	require.NoError(t, err)

	// Third prompt is the second turn's chat call.
	require.Len(t, gw.prompts, 4)
	secondSystem := gw.prompts[2][0].Content
	assert.Contains(t, secondSystem, "- location: London")
	assert.Contains(t, secondSystem, "- room_type: Suite")
	// Live conversation from the first turn is carried along.
	assert.Equal(t, "I'm John, I need a suite in London with a pool.", gw.prompts[2][1].Content)
}

func TestRespondGenerationFailureWritesNothing(t *testing.T) {
	fatal := errors.New("model not found")
	gw := &queuedGateway{err: fatal}
	sessions := session.NewMemoryStore()
	store := memory.NewFileStore(filepath.Join(t.TempDir(), "memory.json"))
	svc := NewService(gw, sessions, store, consolidate.NewSummarizer(gw), NewComposer(3))
	ctx := context.Background()

	_, err := svc.Respond(ctx, "u1", "s1", "hello")
	require.Error(t, err)
	assert.Equal(t, fatal, err)

	// No partial state: no session messages, no interaction record.
	history, err := sessions.History(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, history)

	mem, err := store.Load(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, mem.Preferences)
	assert.Empty(t, mem.History)
}

func TestRespondRejectsEmptyUser(t *testing.T) {
	svc, _ := newTestService(t, &queuedGateway{})
	_, err := svc.Respond(context.Background(), "", "s1", "hello")
	require.Error(t, err)
}

func TestRespondHeuristicStrategy(t *testing.T) {
	gw := &queuedGateway{replies: []string{"Noted."}}
	store := memory.NewFileStore(filepath.Join(t.TempDir(), "memory.json"))
	svc := NewService(gw, session.NewMemoryStore(), store, consolidate.NewHeuristic(), NewComposer(3))
	ctx := context.Background()

	_, err := svc.Respond(ctx, "u2", "s2", "My budget is 100 euros")
	require.NoError(t, err)

	// Heuristic path makes no second generation call.
	assert.Len(t, gw.prompts, 1)

	mem, err := store.Load(ctx, "u2")
	require.NoError(t, err)
	assert.Equal(t, "My budget is 100 euros", mem.Preferences["budget"])
	require.Len(t, mem.History, 1)
}
