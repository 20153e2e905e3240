package discovery

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"

	"github.com/pelletier/go-toml/v2"
	"go.uber.org/zap"

	"storyscroll/internal/domain"
	"storyscroll/internal/eventbus"
)

// ErrEmptyStory is returned when a source yields no sections
var ErrEmptyStory = errors.New("story has no sections")

// StoryFile is the name of the optional metadata file in a story directory
const StoryFile = "story.toml"

// maxDepth limits how far below the story root markdown files are collected
const maxDepth = 2

// DiscoveryService loads stories from the filesystem
type DiscoveryService interface {
	Load(ctx context.Context, path string) (domain.Story, error)
}

// discoveryService is the concrete implementation
type discoveryService struct {
	bus eventbus.EventBus
	log *zap.Logger
}

// NewDiscoveryService creates a new discovery service
func NewDiscoveryService(bus eventbus.EventBus, log *zap.Logger) DiscoveryService {
	if log == nil {
		log = zap.NewNop()
	}
	return &discoveryService{bus: bus, log: log}
}

// Load loads the story at path and publishes StoryLoadedEvent, or ErrorEvent on failure
func (ds *discoveryService) Load(ctx context.Context, path string) (domain.Story, error) {
	story, err := LoadStory(ctx, path)
	if err != nil {
		ds.log.Error("failed to load story", zap.String("path", path), zap.Error(err))
		if ds.bus != nil {
			ds.bus.Publish(eventbus.ErrorEvent{
				Message: fmt.Sprintf("Failed to load story %s", path),
				Err:     err,
			})
		}
		return domain.Story{}, err
	}

	ds.log.Info("story loaded", zap.String("path", story.Path), zap.Int("sections", len(story.Sections)))
	if ds.bus != nil {
		ds.bus.Publish(eventbus.StoryLoadedEvent{Story: story})
	}
	return story, nil
}

// tomlStory is the on-disk shape of a TOML story file
type tomlStory struct {
	Title    string        `toml:"title"`
	Sections []tomlSection `toml:"section"`
}

type tomlSection struct {
	Name   string `toml:"name"`
	Title  string `toml:"title"`
	Body   string `toml:"body"`
	Height int    `toml:"height"`
}

// LoadStory reads a story from a TOML file, a single markdown file split on
// "---" lines, or a directory of markdown files (one section per file)
func LoadStory(ctx context.Context, path string) (domain.Story, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return domain.Story{}, fmt.Errorf("resolve story path: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return domain.Story{}, fmt.Errorf("stat story: %w", err)
	}

	var story domain.Story
	switch {
	case info.IsDir():
		story, err = loadDir(ctx, abs)
	case strings.EqualFold(filepath.Ext(abs), ".toml"):
		story, err = loadTOML(abs)
	case strings.EqualFold(filepath.Ext(abs), ".md"):
		story, err = loadMarkdownFile(abs)
	default:
		return domain.Story{}, fmt.Errorf("unsupported story source %s", abs)
	}
	if err != nil {
		return domain.Story{}, err
	}
	if len(story.Sections) == 0 {
		return domain.Story{}, fmt.Errorf("%s: %w", abs, ErrEmptyStory)
	}

	story.Path = abs
	if story.Title == "" {
		story.Title = titleFromPath(abs)
	}
	uniqueNames(story.Sections)
	return story, nil
}

func loadTOML(path string) (domain.Story, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Story{}, fmt.Errorf("failed to read story file: %w", err)
	}
	var ts tomlStory
	if err := toml.Unmarshal(data, &ts); err != nil {
		return domain.Story{}, fmt.Errorf("failed to parse story file: %w", err)
	}

	story := domain.Story{Title: ts.Title}
	for i, s := range ts.Sections {
		sec := domain.Section{Name: s.Name, Title: s.Title, Body: s.Body, Height: s.Height}
		if sec.Title == "" {
			sec.Title = headingOf(sec.Body)
		}
		if sec.Name == "" {
			sec.Name = Slug(sec.Title)
		}
		if sec.Name == "" {
			sec.Name = fmt.Sprintf("section-%d", i+1)
		}
		story.Sections = append(story.Sections, sec)
	}
	return story, nil
}

func loadMarkdownFile(path string) (domain.Story, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Story{}, fmt.Errorf("failed to read story file: %w", err)
	}

	var story domain.Story
	for i, chunk := range splitSections(string(data)) {
		title := headingOf(chunk)
		name := Slug(title)
		if name == "" {
			name = fmt.Sprintf("section-%d", i+1)
		}
		story.Sections = append(story.Sections, domain.Section{Name: name, Title: title, Body: chunk})
	}
	if len(story.Sections) > 0 {
		story.Title = story.Sections[0].Title
	}
	return story, nil
}

// splitSections splits markdown on lines consisting only of "---"
func splitSections(md string) []string {
	var out []string
	var cur strings.Builder
	flush := func() {
		if s := strings.TrimSpace(cur.String()); s != "" {
			out = append(out, s)
		}
		cur.Reset()
	}

	scanner := bufio.NewScanner(strings.NewReader(md))
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "---" {
			flush()
			continue
		}
		cur.WriteString(line)
		cur.WriteByte('\n')
	}
	flush()
	return out
}

func loadDir(ctx context.Context, root string) (domain.Story, error) {
	var story domain.Story
	if data, err := os.ReadFile(filepath.Join(root, StoryFile)); err == nil {
		var ts tomlStory
		if err := toml.Unmarshal(data, &ts); err != nil {
			return domain.Story{}, fmt.Errorf("failed to parse %s: %w", StoryFile, err)
		}
		story.Title = ts.Title
	}

	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err != nil {
			return err
		}

		if d.IsDir() {
			if path == root {
				return nil
			}
			relPath, _ := filepath.Rel(root, path)
			depth := strings.Count(relPath, string(filepath.Separator)) + 1
			if depth > maxDepth || skipDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}

		if strings.EqualFold(filepath.Ext(path), ".md") && !strings.HasPrefix(d.Name(), ".") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return domain.Story{}, fmt.Errorf("scan %s: %w", root, err)
	}

	sort.Strings(files)
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			return domain.Story{}, fmt.Errorf("failed to read section: %w", err)
		}
		body := strings.TrimSpace(string(data))
		base := strings.TrimSuffix(filepath.Base(f), filepath.Ext(f))
		title := headingOf(body)
		if title == "" {
			title = base
		}
		story.Sections = append(story.Sections, domain.Section{
			Name:  Slug(stripOrdinal(base)),
			Title: title,
			Body:  body,
		})
	}
	return story, nil
}

func skipDir(name string) bool {
	if strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") {
		return true
	}
	switch name {
	case "node_modules", "vendor", "dist", "build", "assets":
		return true
	}
	return false
}

// headingOf returns the text of the first markdown heading, or ""
func headingOf(md string) string {
	for _, line := range strings.Split(md, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "#") {
			return strings.TrimSpace(strings.TrimLeft(line, "#"))
		}
	}
	return ""
}

// stripOrdinal removes an ordering prefix such as "01-" or "2_"
func stripOrdinal(name string) string {
	trimmed := strings.TrimLeftFunc(name, unicode.IsDigit)
	if trimmed == name || trimmed == "" {
		return name
	}
	if trimmed[0] == '-' || trimmed[0] == '_' || trimmed[0] == '.' {
		return trimmed[1:]
	}
	return name
}

// Slug lowercases s and joins its alphanumeric runs with "-"
func Slug(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r)
			dash = false
			continue
		}
		dash = true
	}
	return b.String()
}

func titleFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// uniqueNames suffixes repeated section names with -2, -3, ...
func uniqueNames(sections []domain.Section) {
	seen := make(map[string]int, len(sections))
	for i := range sections {
		name := sections[i].Name
		seen[name]++
		if n := seen[name]; n > 1 {
			sections[i].Name = fmt.Sprintf("%s-%d", name, n)
		}
	}
}
