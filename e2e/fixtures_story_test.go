//go:build e2e && unix

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// storySection is one markdown file of a test story
type storySection struct {
	Name  string
	Title string
	Body  string
}

// defaultStory is a three-section story used by most tests
var defaultStory = []storySection{
	{Name: "intro", Title: "Intro Chapter", Body: "Once upon a time."},
	{Name: "middle", Title: "Middle Chapter", Body: "Things happened."},
	{Name: "ending", Title: "Ending Chapter", Body: "The end."},
}

// CreateTestWorkspace creates an isolated workspace directory
func (tf *TUITestFramework) CreateTestWorkspace() (string, error) {
	dir, err := os.MkdirTemp("", "storyscroll-e2e-*")
	if err != nil {
		return "", fmt.Errorf("failed to create workspace: %w", err)
	}
	tf.workspace = dir
	return dir, nil
}

// CreateStory writes sections as numbered markdown files under workspace/story
func (tf *TUITestFramework) CreateStory(sections ...storySection) (string, error) {
	if tf.workspace == "" {
		if _, err := tf.CreateTestWorkspace(); err != nil {
			return "", err
		}
	}
	if len(sections) == 0 {
		sections = defaultStory
	}

	dir := filepath.Join(tf.workspace, "story")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create story dir: %w", err)
	}
	for i, sec := range sections {
		if err := tf.WriteSection(dir, i, sec); err != nil {
			return "", err
		}
	}
	return dir, nil
}

// WriteSection writes (or rewrites) the markdown file for section i
func (tf *TUITestFramework) WriteSection(dir string, i int, sec storySection) error {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n%s\n", sec.Title, sec.Body)
	path := filepath.Join(dir, fmt.Sprintf("%02d-%s.md", i+1, sec.Name))
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("failed to write section %s: %w", sec.Name, err)
	}
	return nil
}
