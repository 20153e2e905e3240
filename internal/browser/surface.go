// Package browser drives a real page through headless Chrome so the scroller
// can animate between the page's section elements.
package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os/exec"
	"sort"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// ErrChromeMissing is returned when no Chrome or Chromium binary is installed
var ErrChromeMissing = errors.New("chrome not installed")

// evalTimeout bounds each round trip to the page
const evalTimeout = 2 * time.Second

// Options configures Attach
type Options struct {
	Selector string
	Headless bool
	Timeout  time.Duration
	Logger   *zap.Logger
}

// ChromeSurface is a scroll surface backed by a live page. Section offsets
// are measured once and refreshed by Measure.
type ChromeSurface struct {
	ctx      context.Context
	selector string
	log      *zap.Logger

	mu       sync.RWMutex
	offsets  []float64
	viewport float64
	top      float64
}

// ChromeAvailable reports whether a browser binary can be found
func ChromeAvailable() bool {
	for _, name := range []string{"chromium-browser", "chromium", "google-chrome", "google-chrome-stable", "headless-shell"} {
		if _, err := exec.LookPath(name); err == nil {
			return true
		}
	}
	return false
}

// Attach starts Chrome, loads pageURL and measures the elements matching
// the selector. The returned cancel func shuts the browser down.
func Attach(ctx context.Context, pageURL string, opts Options) (*ChromeSurface, context.CancelFunc, error) {
	if !ChromeAvailable() {
		return nil, nil, ErrChromeMissing
	}
	if _, err := url.Parse(pageURL); err != nil {
		return nil, nil, fmt.Errorf("parse url: %w", err)
	}
	if opts.Selector == "" {
		opts.Selector = "section"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.WindowSize(1280, 800),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)
	taskCtx, cancelTask := chromedp.NewContext(allocCtx)
	cancel := func() {
		cancelTask()
		cancelAlloc()
	}

	loadCtx, cancelLoad := context.WithTimeout(taskCtx, opts.Timeout)
	defer cancelLoad()
	if err := chromedp.Run(loadCtx,
		chromedp.Navigate(pageURL),
		chromedp.WaitReady("body"),
	); err != nil {
		cancel()
		return nil, nil, fmt.Errorf("load %s: %w", pageURL, err)
	}

	s := &ChromeSurface{ctx: taskCtx, selector: opts.Selector, log: opts.Logger}
	if err := s.Measure(); err != nil {
		cancel()
		return nil, nil, err
	}
	opts.Logger.Info("attached to page",
		zap.String("url", pageURL),
		zap.String("selector", opts.Selector),
		zap.Int("sections", s.SectionCount()))
	return s, cancel, nil
}

// layout is what the measuring script returns
type layout struct {
	Offsets  []float64 `json:"offsets"`
	Viewport float64   `json:"viewport"`
	Top      float64   `json:"top"`
}

// measureScript returns JS that reports section offsets relative to the
// document along with the viewport height and scroll position
func measureScript(selector string) string {
	quoted, _ := json.Marshal(selector)
	return fmt.Sprintf(`(() => {
  const els = Array.from(document.querySelectorAll(%s));
  return {
    offsets: els.map(el => el.getBoundingClientRect().top + window.scrollY),
    viewport: window.innerHeight,
    top: window.scrollY,
  };
})()`, quoted)
}

// normalize sorts offsets so section order follows document order
func normalize(l layout) layout {
	sort.Float64s(l.Offsets)
	return l
}

// Measure re-reads the section layout from the page
func (s *ChromeSurface) Measure() error {
	var l layout
	if err := s.eval(measureScript(s.selector), &l); err != nil {
		return fmt.Errorf("measure sections: %w", err)
	}
	l = normalize(l)

	s.mu.Lock()
	s.offsets = l.Offsets
	s.viewport = l.Viewport
	s.top = l.Top
	s.mu.Unlock()
	return nil
}

func (s *ChromeSurface) eval(script string, out any) error {
	ctx, cancel := context.WithTimeout(s.ctx, evalTimeout)
	defer cancel()
	return chromedp.Run(ctx, chromedp.Evaluate(script, out))
}

// ScrollTop reads window.scrollY, falling back to the last known value
func (s *ChromeSurface) ScrollTop() float64 {
	var y float64
	if err := s.eval(`window.scrollY`, &y); err != nil {
		s.log.Debug("read scroll position failed", zap.Error(err))
		s.mu.RLock()
		defer s.mu.RUnlock()
		return s.top
	}
	s.mu.Lock()
	s.top = y
	s.mu.Unlock()
	return y
}

// ScrollTo jumps the page without native smoothing; easing is done by the caller
func (s *ChromeSurface) ScrollTo(y float64) {
	script := fmt.Sprintf(`window.scrollTo({top: %f, left: 0, behavior: "instant"})`, y)
	var ignored any
	if err := s.eval(script, &ignored); err != nil {
		s.log.Debug("scroll failed", zap.Float64("y", y), zap.Error(err))
		return
	}
	s.mu.Lock()
	s.top = y
	s.mu.Unlock()
}

func (s *ChromeSurface) ViewportHeight() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.viewport
}

func (s *ChromeSurface) SectionOffset(i int) (float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i < 0 || i >= len(s.offsets) {
		return 0, false
	}
	return s.offsets[i], true
}

func (s *ChromeSurface) SectionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.offsets)
}
