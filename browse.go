package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"storyscroll/internal/browser"
	"storyscroll/internal/eventbus"
	"storyscroll/internal/input"
	"storyscroll/internal/logging"
	"storyscroll/internal/queue"
	"storyscroll/internal/recovery"
	"storyscroll/internal/scroller"
	"storyscroll/internal/tween"
)

var (
	browseSelector string
	browseHeadful  bool
	browseTour     time.Duration
)

var browseCmd = &cobra.Command{
	Use:   "browse URL",
	Short: "Drive section scrolling on a live web page through Chrome",
	Long: `Loads URL in Chrome and treats every element matching --selector as a
section. Commands are read from stdin, one per line:

  next | prev | first | last | <number> | sync | emergency | quit

With --tour the page is stepped through automatically instead.`,
	Args: cobra.ExactArgs(1),
	RunE: runBrowse,
}

func init() {
	browseCmd.Flags().StringVar(&browseSelector, "selector", "", "CSS selector for sections (default from config)")
	browseCmd.Flags().BoolVar(&browseHeadful, "headful", false, "show the browser window")
	browseCmd.Flags().DurationVar(&browseTour, "tour", 0, "step through every section, pausing this long on each")
}

func runBrowse(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	cfg, err := loadConfig(nil)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger, err := logging.New(cfg.Logging, verbose)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	selector := cfg.Browser.SectionSelector
	if browseSelector != "" {
		selector = browseSelector
	}
	surface, closeBrowser, err := browser.Attach(ctx, args[0], browser.Options{
		Selector: selector,
		Headless: cfg.Browser.Headless && !browseHeadful,
		Timeout:  cfg.Browser.Timeout.Duration,
		Logger:   logger.Named("browser"),
	})
	if err != nil {
		return err
	}
	defer closeBrowser()

	engine, err := tween.NewEngine(cfg.Animation.Engine, cfg.Animation.Easing)
	if err != nil {
		return err
	}

	bus := eventbus.New(logger)
	defer bus.Close()
	bus.Subscribe(eventbus.EventRecovery, func(e eventbus.DomainEvent) {
		if ev, ok := e.(eventbus.RecoveryEvent); ok {
			fmt.Fprintf(cmd.ErrOrStderr(), "recovered: %s (%s)\n", ev.Check, ev.Detail)
		}
	})

	mgr := scroller.New(scroller.Options{
		Settings: scroller.SettingsFromConfig(cfg),
		Logger:   logger.Named("scroller"),
		Bus:      bus,
		Surface:  surface,
		Engine:   engine,
		Reload: func() {
			if err := surface.Measure(); err != nil {
				logger.Error("re-measure failed", zap.Error(err))
			}
		},
	})
	mgr.SetPathname(args[0])
	mgr.Mount()

	out := cmd.OutOrStdout()
	changed := make(chan int, 1)
	mgr.OnSectionChange(func(i int) {
		fmt.Fprintf(out, "section %d/%d\n", i+1, surface.SectionCount())
		select {
		case changed <- i:
		default:
		}
	})

	verifier := recovery.New(mgr, recovery.ConfigFromSettings(cfg.Verification), nil, logger.Named("verify"), bus)
	frame := time.Second / time.Duration(cfg.UI.FrameRate)

	runCtx, stop := context.WithCancel(ctx)
	defer stop()
	done := make(chan error, 1)
	go func() { done <- scroller.Run(runCtx, mgr, frame, verifier) }()

	fmt.Fprintf(out, "%d sections on %s\n", surface.SectionCount(), args[0])
	if browseTour > 0 {
		err = tour(runCtx, mgr, surface.SectionCount(), browseTour, changed)
	} else {
		err = readCommands(runCtx, mgr, cmd.InOrStdin(), out)
	}
	stop()
	if runErr := <-done; runErr != nil {
		return runErr
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// tour visits every section in order, waiting pause after each arrives
func tour(ctx context.Context, mgr *scroller.Manager, count int, pause time.Duration, changed <-chan int) error {
	for i := 1; i < count; i++ {
		res := mgr.GotoSection(i, scroller.WithSource(queue.SourceNarrative), scroller.Force())
		if !res.Accepted {
			return fmt.Errorf("section %d: %s", i+1, res.Reason)
		}
		for arrived := false; !arrived; {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case idx := <-changed:
				arrived = idx == i
			}
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(pause):
		}
	}
	return nil
}

// readCommands executes one navigation command per input line until EOF or quit
func readCommands(ctx context.Context, mgr *scroller.Manager, in io.Reader, out io.Writer) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- strings.TrimSpace(scanner.Text()):
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok || line == "quit" || line == "q" {
				return nil
			}
			if msg := runCommand(mgr, line); msg != "" {
				fmt.Fprintln(out, msg)
			}
		}
	}
}

// runCommand applies one command and returns feedback for the user, if any
func runCommand(mgr *scroller.Manager, line string) string {
	var res scroller.Result
	switch line {
	case "":
		return ""
	case "next", "j":
		res = mgr.HandleGesture(input.IntentForward, queue.SourceKeyboard)
	case "prev", "k":
		res = mgr.HandleGesture(input.IntentBackward, queue.SourceKeyboard)
	case "first":
		res = mgr.HandleGesture(input.IntentFirst, queue.SourceKeyboard)
	case "last":
		res = mgr.HandleGesture(input.IntentLast, queue.SourceKeyboard)
	case "sync":
		mgr.ForceSync()
		return fmt.Sprintf("synced at section %d", mgr.State().CurrentSection+1)
	case "emergency":
		mgr.Emergency()
		return "reset to section 1"
	default:
		n, err := strconv.Atoi(line)
		if err != nil {
			return fmt.Sprintf("unknown command %q", line)
		}
		res = mgr.GotoSection(n-1, scroller.WithSource(queue.SourceKeyboard))
	}
	if !res.Accepted {
		return fmt.Sprintf("ignored: %s", res.Reason)
	}
	return ""
}
