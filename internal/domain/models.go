package domain

// Section is one full-viewport unit of a story
type Section struct {
	Name   string // symbolic name used by debug hooks ("hero", "about", ...)
	Title  string
	Body   string // markdown
	Height int    // rendered height in rows; 0 means one viewport
}

// Story is an ordered list of sections
type Story struct {
	Title    string
	Path     string // file or directory the story was loaded from
	Sections []Section
}

// SectionNames returns the section names in order
func (s *Story) SectionNames() []string {
	names := make([]string, len(s.Sections))
	for i, sec := range s.Sections {
		names[i] = sec.Name
	}
	return names
}

// Position is a persisted navigation position
type Position struct {
	Section  int
	Pathname string
}
