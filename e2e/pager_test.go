//go:build e2e && unix

package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSectionPager(t *testing.T) {
	t.Parallel()
	tf := NewTUITest(t)
	defer tf.Cleanup()

	story, err := tf.CreateStory(
		storySection{Name: "long", Title: "Long Read", Body: "The pager shows this paragraph."},
		storySection{Name: "short", Title: "Short Read", Body: "Done."},
	)
	require.NoError(t, err)

	require.NoError(t, tf.StartApp(story))
	require.True(t, tf.Ready(), "Should receive ready signal")

	tf.SendKeys(KeyPager)
	require.True(t, tf.OutputContainsPlain("The pager shows this paragraph.", 3*time.Second),
		"Pager should show the current section")

	// quit ov and ensure the viewer is back and still responsive
	before := len(tf.Snapshot())
	tf.Quit()
	require.True(t, tf.WaitFor(func(s string) bool { return len(s) > before }, 3*time.Second),
		"Viewer should redraw after the pager closes")

	tf.Next()
	require.True(t, tf.OutputContainsPlain("2/2", 3*time.Second), "Navigation should work after the pager")
}
