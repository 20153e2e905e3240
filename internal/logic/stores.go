package logic

import (
	"strings"
	"sync"

	"storyscroll/internal/domain"
)

// MemorySectionStore is an in-memory implementation of SectionStore
type MemorySectionStore struct {
	mu       sync.RWMutex
	sections []domain.Section
	byName   map[string]int
}

// NewMemorySectionStore creates a store holding story's sections
func NewMemorySectionStore(story domain.Story) *MemorySectionStore {
	s := &MemorySectionStore{}
	s.SetStory(story)
	return s
}

// SetStory replaces the sections. Names are matched case-insensitively;
// when two sections share a name the first one wins.
func (s *MemorySectionStore) SetStory(story domain.Story) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sections = append([]domain.Section(nil), story.Sections...)
	s.byName = make(map[string]int, len(s.sections))
	for i, sec := range s.sections {
		key := strings.ToLower(sec.Name)
		if _, exists := s.byName[key]; !exists {
			s.byName[key] = i
		}
	}
}

func (s *MemorySectionStore) IndexOf(name string) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.byName[strings.ToLower(name)]
	return i, ok
}

func (s *MemorySectionStore) Section(index int) (domain.Section, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if index < 0 || index >= len(s.sections) {
		return domain.Section{}, false
	}
	return s.sections[index], true
}

func (s *MemorySectionStore) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// Return a copy to prevent external modification
	names := make([]string, len(s.sections))
	for i, sec := range s.sections {
		names[i] = sec.Name
	}
	return names
}

func (s *MemorySectionStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sections)
}
