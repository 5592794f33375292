package chat

import (
	"sort"
	"strings"

	"github.com/cloudwego/eino/schema"

	"hotelbot/pkg"
)

// systemInstruction is the stable role description injected into every
// generation prompt.
const systemInstruction = `You are a hotel booking assistant. Your goal is to help the user book a hotel by asking relevant questions (e.g., location, dates, budget). Always reference and utilize the user's stored preferences and past interactions from the long-term context when relevant to the current query. If the user has previously mentioned preferences (like budget or location), acknowledge them in your response or confirm if they still apply before proceeding.`

// noneAvailable renders empty preference sets and empty history.
const noneAvailable = "None available"

// Composer assembles long-term memory and the live conversation into the
// prompt context. It is pure: identical inputs produce identical output.
type Composer struct {
	contextWindow int // how many recent interactions are rendered
}

func NewComposer(contextWindow int) *Composer {
	if contextWindow <= 0 {
		contextWindow = 3
	}
	return &Composer{contextWindow: contextWindow}
}

// Compose returns the full message slice for one generation call: a system
// message carrying the long-term context, the conversation so far, and the
// current user input.
func (c *Composer) Compose(mem *pkg.LongTermMemory, conversation []*schema.Message, input string) []*schema.Message {
	messages := make([]*schema.Message, 0, len(conversation)+2)
	messages = append(messages, schema.SystemMessage(c.systemPrompt(mem)))
	messages = append(messages, conversation...)
	messages = append(messages, schema.UserMessage(input))
	return messages
}

func (c *Composer) systemPrompt(mem *pkg.LongTermMemory) string {
	var b strings.Builder
	b.WriteString(systemInstruction)
	b.WriteString("\n\nLong-Term Context (User Preferences and Past Interactions):\n")
	b.WriteString("Stored Preferences:\n")
	b.WriteString(renderPreferences(mem.Preferences))
	b.WriteString("\n\nRecent Past Interactions:\n")
	b.WriteString(renderRecentHistory(mem.RecentHistory(c.contextWindow)))
	return b.String()
}

func renderPreferences(prefs pkg.PreferenceSet) string {
	if len(prefs) == 0 {
		return noneAvailable
	}
	keys := make([]string, 0, len(prefs))
	for k := range prefs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, "- "+k+": "+prefs[k])
	}
	return strings.Join(lines, "\n")
}

func renderRecentHistory(records []pkg.InteractionRecord) string {
	if len(records) == 0 {
		return noneAvailable
	}
	lines := make([]string, 0, len(records))
	for _, rec := range records {
		lines = append(lines, "- User: "+rec.UserInput+" | Assistant: "+rec.AssistantResponse)
	}
	return strings.Join(lines, "\n")
}
