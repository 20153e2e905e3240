//go:build e2e && unix

package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/creack/pty"
)

// binPath is set by TestMain once the viewer is built
var binPath = "storyscroll_e2e"

const (
	scrollback   = 1 << 20
	pollInterval = 25 * time.Millisecond
	readyMarker  = "__READY__"
)

const (
	KeyEnter     = "\r"
	KeyEsc       = "\x1b"
	KeyCtrlC     = "\x03"
	KeyNext      = "j"
	KeyPrev      = "k"
	KeyGoto      = ":"
	KeyHelp      = "?"
	KeyDebug     = "d"
	KeyEmergency = "e"
	KeySync      = "s"
	KeyPager     = "p"
	KeyQuit      = "q"
)

// ansiRe strips CSI, OSC, charset and keypad sequences plus carriage returns
var ansiRe = regexp.MustCompile(
	`(?:\x1b\[[0-9;?]*[ -/]*[@-~])|` +
		`(?:\x1b\][^\x07]*\x07)|` +
		`(?:\x1b[\(\)][A-Za-z])|` +
		`(?:\x1b=|\x1b>)|` +
		`\r`,
)

func plain(s string) string { return ansiRe.ReplaceAllString(s, "") }

// ring keeps the last scrollback bytes written by the viewer
type ring struct {
	mu   sync.Mutex
	data []byte
	next int
	full bool
}

func (r *ring) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range p {
		r.data[r.next] = b
		r.next++
		if r.next == len(r.data) {
			r.next = 0
			r.full = true
		}
	}
	return len(p), nil
}

func (r *ring) String() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.full {
		return string(r.data[:r.next])
	}
	return string(r.data[r.next:]) + string(r.data[:r.next])
}

// TUITestFramework runs one viewer process in a PTY and inspects its output
type TUITestFramework struct {
	t         *testing.T
	cmd       *exec.Cmd
	pty       *os.File
	out       *ring
	workspace string
}

func NewTUITest(t *testing.T) *TUITestFramework {
	return &TUITestFramework{t: t, out: &ring{data: make([]byte, scrollback)}}
}

// StartApp launches the viewer in a 120x40 PTY with an isolated home
func (tf *TUITestFramework) StartApp(args ...string) error {
	if tf.workspace == "" {
		if _, err := tf.CreateTestWorkspace(); err != nil {
			return err
		}
	}

	tf.cmd = exec.Command(binPath, args...)
	tf.cmd.Env = append(os.Environ(),
		"TERM=xterm-256color",
		"LC_ALL=C",
		"LANG=C",
		"HOME="+tf.workspace,
		"XDG_CONFIG_HOME="+filepath.Join(tf.workspace, ".config"),
		"STORYSCROLL_LOG_OUTPUT="+filepath.Join(tf.workspace, "storyscroll.log"),
		"STORYSCROLL_E2E=1",
	)

	f, err := pty.StartWithSize(tf.cmd, &pty.Winsize{Rows: 40, Cols: 120})
	if err != nil {
		return fmt.Errorf("start in pty: %w", err)
	}
	tf.pty = f

	go func() {
		buf := make([]byte, 8192)
		for {
			n, err := f.Read(buf)
			if n > 0 {
				_, _ = tf.out.Write(buf[:n])
			}
			if err != nil {
				return
			}
		}
	}()
	return nil
}

func (tf *TUITestFramework) SendKeys(keys string) error {
	tf.t.Helper()
	_, err := tf.pty.Write([]byte(keys))
	return err
}

func (tf *TUITestFramework) SendCtrlC() error { return tf.SendKeys(KeyCtrlC) }
func (tf *TUITestFramework) Quit() error      { return tf.SendKeys(KeyQuit) }
func (tf *TUITestFramework) Next() error      { return tf.SendKeys(KeyNext) }
func (tf *TUITestFramework) Prev() error      { return tf.SendKeys(KeyPrev) }

// Goto opens the goto prompt, types name and submits it. The keys go out in
// separate writes so the prompt key is not read together with the name.
func (tf *TUITestFramework) Goto(name string) error {
	tf.t.Helper()
	for _, keys := range []string{KeyGoto, name, KeyEnter} {
		if err := tf.SendKeys(keys); err != nil {
			return err
		}
		time.Sleep(50 * time.Millisecond)
	}
	return nil
}

// Ready waits for the viewer's first full frame
func (tf *TUITestFramework) Ready() bool {
	tf.t.Helper()
	return tf.WaitFor(func(s string) bool { return strings.Contains(s, readyMarker) }, 5*time.Second)
}

func (tf *TUITestFramework) SeePlain(text string) bool {
	tf.t.Helper()
	return tf.OutputContainsPlain(text, 3*time.Second)
}

func (tf *TUITestFramework) OutputContainsPlain(text string, timeout time.Duration) bool {
	tf.t.Helper()
	return tf.WaitFor(func(s string) bool { return strings.Contains(plain(s), text) }, timeout)
}

// CountPlain counts how often text has been drawn so far
func (tf *TUITestFramework) CountPlain(text string) int {
	return strings.Count(tf.SnapshotPlain(), text)
}

// SeeAgain waits until text has been drawn more than seen times. The renderer
// only repaints changed lines, so a fresh draw of a line means its state changed.
func (tf *TUITestFramework) SeeAgain(text string, seen int) bool {
	tf.t.Helper()
	return tf.WaitFor(func(s string) bool { return strings.Count(plain(s), text) > seen }, 3*time.Second)
}

// WaitFor polls the raw output until pred holds or timeout passes
func (tf *TUITestFramework) WaitFor(pred func(string) bool, timeout time.Duration) bool {
	tf.t.Helper()
	deadline := time.Now().Add(timeout)
	for {
		if pred(tf.Snapshot()) {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(pollInterval)
	}
}

func (tf *TUITestFramework) Snapshot() string      { return tf.out.String() }
func (tf *TUITestFramework) SnapshotPlain() string { return plain(tf.Snapshot()) }

// DumpTailOnFail writes the last n bytes of plain output to a file and logs its path
func (tf *TUITestFramework) DumpTailOnFail(t *testing.T, name string, n int) {
	s := tf.SnapshotPlain()
	if len(s) > n {
		s = s[len(s)-n:]
	}
	p := filepath.Join(t.TempDir(), name+".txt")
	_ = os.WriteFile(p, []byte(s), 0o644)
	t.Logf("output tail saved to %s", p)
}

// Cleanup closes the PTY, which hangs up the viewer, then reaps it
func (tf *TUITestFramework) Cleanup() {
	if tf.pty != nil {
		_ = tf.pty.Close()
		tf.pty = nil
	}
	if tf.cmd != nil && tf.cmd.Process != nil {
		_ = tf.cmd.Process.Kill()
		_, _ = tf.cmd.Process.Wait()
		tf.cmd = nil
	}
	if tf.workspace != "" {
		_ = os.RemoveAll(tf.workspace)
		tf.workspace = ""
	}
}
