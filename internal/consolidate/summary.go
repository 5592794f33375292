package consolidate

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/cloudwego/eino/schema"

	"hotelbot/internal/logger"
	"hotelbot/pkg"
)

// Generator is the slice of the capability gateway the summarizer needs.
type Generator interface {
	Generate(ctx context.Context, messages []*schema.Message) (*schema.Message, error)
}

// Summarizer asks the generation capability to compress the whole
// conversation into one fixed-format preference line, then parses that line
// back into structured keys.
type Summarizer struct {
	gateway Generator
}

func NewSummarizer(gateway Generator) *Summarizer {
	return &Summarizer{gateway: gateway}
}

const summaryInstruction = `Summarize the conversation to extract user preferences in this exact format:
"Name: <name>, Location: <location>, Room Type: <room type>, Other: <other preferences>"
- Name: Use the name the user gave, or 'Not Provided' if none.
- Location: Identify the city or area (e.g., Paris, New York).
- Room Type: Identify the room type (e.g., King Bed, Double Bed, Suite). Do not use 'Not Specified' unless no room type is mentioned.
- Other: Include other preferences (e.g., Near Eiffel Tower, Has Pool).
Examples:
- "I want a hotel in Paris with a king bed near the Eiffel Tower" -> "Name: Not Provided, Location: Paris, Room Type: King Bed, Other: Near Eiffel Tower"
- "I'm John, I need a suite in London with a pool" -> "Name: John, Location: London, Room Type: Suite, Other: Has Pool"
Conversation:
%s`

// roomTypeSentinel is what the capability emits when it could not find a
// room type; the fallback extractor then takes over.
const roomTypeSentinel = "Room Type: Not Specified"

// roomTypePhrases is the fallback vocabulary, in priority order.
var roomTypePhrases = []string{"king bed", "double bed", "queen bed", "suite", "single bed"}

var summaryPattern = regexp.MustCompile(`Name:\s*(.+?),\s*Location:\s*(.+?),\s*Room Type:\s*(.+?),\s*Other:\s*(.+)`)

func (s *Summarizer) Consolidate(ctx context.Context, mem *pkg.LongTermMemory, turn pkg.Turn, history []*schema.Message) error {
	mem.AppendInteraction(newRecord(turn))

	historyText := RenderHistory(history)
	prompt := fmt.Sprintf(summaryInstruction, historyText)

	out, err := s.gateway.Generate(ctx, []*schema.Message{schema.UserMessage(prompt)})
	if err != nil {
		logger.Warn().Err(err).Str("user_id", mem.UserID).
			Msg("preference summary generation failed, keeping prior preferences")
		return nil
	}

	summary := out.Content
	if strings.Contains(summary, roomTypeSentinel) {
		if room := FallbackRoomType(historyText); room != "" {
			summary = strings.Replace(summary, roomTypeSentinel, "Room Type: "+room, 1)
		}
	}

	prefs, ok := ParseSummary(summary)
	if !ok {
		logger.Warn().Str("user_id", mem.UserID).Str("summary", summary).
			Msg("unexpected summary format, keeping prior preferences")
		return nil
	}

	mem.Preferences["name"] = prefs["name"]
	mem.Preferences["location"] = prefs["location"]
	mem.Preferences["room_type"] = prefs["room_type"]
	mem.Preferences["other"] = prefs["other"]
	return nil
}

// RenderHistory flattens a conversation to "{role}: {content}" lines, the
// form the summary prompt and the fallback extractor both scan.
func RenderHistory(history []*schema.Message) string {
	var b strings.Builder
	for _, msg := range history {
		b.WriteString(string(msg.Role))
		b.WriteString(": ")
		b.WriteString(msg.Content)
		b.WriteString("\n")
	}
	return b.String()
}

// ParseSummary extracts the four named fields from the fixed-format
// summary line. ok is false when the line does not match.
func ParseSummary(summary string) (pkg.PreferenceSet, bool) {
	m := summaryPattern.FindStringSubmatch(summary)
	if m == nil {
		return nil, false
	}
	return pkg.PreferenceSet{
		"name":      cleanField(m[1]),
		"location":  cleanField(m[2]),
		"room_type": cleanField(m[3]),
		"other":     cleanField(m[4]),
	}, true
}

func cleanField(s string) string {
	return strings.Trim(strings.TrimSpace(s), `"`)
}

// FallbackRoomType scans the lower-cased conversation text for a known
// room-type phrase and returns it title-cased, or "" when none occurs.
func FallbackRoomType(historyText string) string {
	lower := strings.ToLower(historyText)
	for _, phrase := range roomTypePhrases {
		if strings.Contains(lower, phrase) {
			return titleWords(phrase)
		}
	}
	return ""
}

func titleWords(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
