package logic

import "storyscroll/internal/domain"

// SectionStore provides name lookups over the loaded story
type SectionStore interface {
	IndexOf(name string) (int, bool)
	Section(index int) (domain.Section, bool)
	Names() []string
	Count() int
	SetStory(story domain.Story)
}
