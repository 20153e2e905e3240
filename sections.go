package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"storyscroll/internal/discovery"
)

var sectionsCmd = &cobra.Command{
	Use:   "sections [path]",
	Short: "List the sections of a story",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSections,
}

var (
	sectionTitleStyle = lipgloss.NewStyle().Bold(true)
	sectionDimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

func runSections(cmd *cobra.Command, args []string) error {
	story, err := discovery.LoadStory(cmd.Context(), storyArg(args, nil))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, sectionTitleStyle.Render(story.Title))
	width := 0
	for _, sec := range story.Sections {
		width = max(width, len(sec.Name))
	}
	for i, sec := range story.Sections {
		fmt.Fprintf(out, "%3d  %-*s  %s\n", i+1, width, sec.Name, sectionDimStyle.Render(sec.Title))
	}
	return nil
}
