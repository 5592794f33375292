package chat

import (
	"testing"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hotelbot/pkg"
)

func TestComposeFirstTurnShowsNoneAvailable(t *testing.T) {
	composer := NewComposer(3)
	mem := pkg.NewLongTermMemory("u1")

	messages := composer.Compose(mem, nil, "hello")
	require.Len(t, messages, 2)
	assert.Equal(t, schema.System, messages[0].Role)
	assert.Contains(t, messages[0].Content, "Stored Preferences:\nNone available")
	assert.Contains(t, messages[0].Content, "Recent Past Interactions:\nNone available")
	assert.Equal(t, "hello", messages[1].Content)
}

func TestComposeRendersPreferencesSorted(t *testing.T) {
	composer := NewComposer(3)
	mem := pkg.NewLongTermMemory("u1")
	mem.Preferences["room_type"] = "Suite"
	mem.Preferences["location"] = "London"

	messages := composer.Compose(mem, nil, "hi")
	system := messages[0].Content
	assert.Contains(t, system, "- location: London\n- room_type: Suite")
}

func TestComposeLimitsRecentInteractions(t *testing.T) {
	composer := NewComposer(3)
	mem := pkg.NewLongTermMemory("u1")
	at := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	for _, input := range []string{"one", "two", "three", "four", "five"} {
		mem.History = append(mem.History, pkg.InteractionRecord{
			UserInput:         input,
			AssistantResponse: "ok",
			Timestamp:         at,
		})
		at = at.Add(time.Minute)
	}

	system := composer.Compose(mem, nil, "hi")[0].Content
	assert.NotContains(t, system, "User: one")
	assert.NotContains(t, system, "User: two")
	assert.Contains(t, system, "- User: three | Assistant: ok")
	assert.Contains(t, system, "- User: four | Assistant: ok")
	assert.Contains(t, system, "- User: five | Assistant: ok")
}

func TestComposeIncludesLiveConversation(t *testing.T) {
	composer := NewComposer(3)
	mem := pkg.NewLongTermMemory("u1")
	conversation := []*schema.Message{
		schema.UserMessage("earlier question"),
		schema.AssistantMessage("earlier answer", nil),
	}

	messages := composer.Compose(mem, conversation, "follow-up")
	require.Len(t, messages, 4)
	assert.Equal(t, "earlier question", messages[1].Content)
	assert.Equal(t, "earlier answer", messages[2].Content)
	assert.Equal(t, "follow-up", messages[3].Content)
}

func TestComposeIsDeterministic(t *testing.T) {
	composer := NewComposer(3)
	mem := pkg.NewLongTermMemory("u1")
	mem.Preferences["location"] = "Paris"
	mem.Preferences["budget"] = "under 150"
	conversation := []*schema.Message{schema.UserMessage("hi")}

	first := composer.Compose(mem, conversation, "again")
	second := composer.Compose(mem, conversation, "again")
	require.Len(t, second, len(first))
	for i := range first {
		assert.Equal(t, first[i].Content, second[i].Content)
	}
}
