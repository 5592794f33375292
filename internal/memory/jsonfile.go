package memory

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/bytedance/sonic"

	"hotelbot/internal/logger"
	"hotelbot/pkg"
)

// FileStore keeps every user's memory in one JSON document mapping
// user_id to {preferences, history}, rewritten in full on every save.
type FileStore struct {
	mu   sync.Mutex
	path string
}

type userRecord struct {
	Preferences pkg.PreferenceSet       `json:"preferences"`
	History     []pkg.InteractionRecord `json:"history"`
}

type memoryDocument map[string]userRecord

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// readDocument loads the backing file. A missing or malformed file yields
// an empty document; corruption is non-fatal.
func (s *FileStore) readDocument() memoryDocument {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn().Err(err).Str("path", s.path).Msg("failed to read long-term memory file, treating as empty")
		}
		return memoryDocument{}
	}

	var doc memoryDocument
	if err := sonic.Unmarshal(data, &doc); err != nil {
		logger.Warn().Err(err).Str("path", s.path).Msg("malformed long-term memory file, treating as empty")
		return memoryDocument{}
	}
	if doc == nil {
		doc = memoryDocument{}
	}
	return doc
}

func (s *FileStore) writeDocument(doc memoryDocument) error {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create memory directory: %w", err)
		}
	}

	data, err := sonic.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal long-term memory: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write long-term memory file: %w", err)
	}
	return nil
}

func (s *FileStore) Load(ctx context.Context, userID string) (*pkg.LongTermMemory, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.readDocument()
	rec, ok := doc[userID]
	if !ok {
		return pkg.NewLongTermMemory(userID), nil
	}

	mem := pkg.NewLongTermMemory(userID)
	mem.Preferences = rec.Preferences.Clone()
	mem.History = append(mem.History, rec.History...)
	return mem, nil
}

func (s *FileStore) Save(ctx context.Context, userID string, mem *pkg.LongTermMemory) error {
	if userID == "" {
		return fmt.Errorf("user id cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.readDocument()
	existing := doc[userID]

	merged := userRecord{
		Preferences: existing.Preferences.Clone(),
		History:     existing.History,
	}
	for key, value := range mem.Preferences {
		merged.Preferences[key] = value
	}
	for _, rec := range mem.History {
		if !containsRecord(merged.History, rec) {
			merged.History = append(merged.History, rec)
		}
	}

	doc[userID] = merged
	return s.writeDocument(doc)
}

func (s *FileStore) Close() error {
	return nil
}
