package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/maltedev/product-page-scraper/internal/extract"
	"github.com/playwright-community/playwright-go"
)

var (
	ErrNavigation = errors.New("navigation failed")
	ErrNoSession  = errors.New("no open browser session")
)

// Session owns the browser engine and the single live context/page pair.
// It is not safe for concurrent use.
type Session struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	context playwright.BrowserContext
	page    playwright.Page

	opts      *Options
	rnd       *rand.Rand
	userAgent string
	rotations int
	logger    *slog.Logger
}

type Options struct {
	Headless          bool
	LaunchTimeout     time.Duration
	NavigationTimeout time.Duration
	UserAgents        []string
	AcceptLanguages   []string
	ViewportWidth     int
	ViewportHeight    int
	// Snapshot makes Visit return a parsed copy of the page markup instead of
	// querying the live page for every selector.
	Snapshot bool
}

func DefaultOptions() *Options {
	return &Options{
		Headless:          true,
		LaunchTimeout:     120 * time.Second,
		NavigationTimeout: 90 * time.Second,
		UserAgents: []string{
			"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
			"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.2 Safari/605.1.15",
		},
		AcceptLanguages: []string{"en-US,en;q=0.9"},
		ViewportWidth:   1920,
		ViewportHeight:  1080,
	}
}

// New starts playwright and launches Chromium with a randomly chosen user
// agent. Any failure here is fatal for a run. Call Open before Visit.
func New(opts *Options, logger *slog.Logger) (*Session, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Session{
		opts:   opts,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		logger: logger.With("component", "browser"),
	}
	s.userAgent = s.pick(opts.UserAgents)

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}

	launchOpts := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
		Timeout:  playwright.Float(float64(opts.LaunchTimeout.Milliseconds())),
		Args:     launchArgs(s.userAgent),
	}

	browser, err := pw.Chromium.Launch(launchOpts)
	if err != nil {
		pw.Stop()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	s.pw = pw
	s.browser = browser

	s.logger.Info("browser launched", "headless", opts.Headless, "user_agent", s.userAgent)

	return s, nil
}

func launchArgs(userAgent string) []string {
	args := []string{"--disable-blink-features=AutomationControlled"}
	if userAgent != "" {
		args = append(args, "--user-agent="+userAgent)
	}
	return args
}

// UserAgent is the identity the engine was launched with. Every context
// opened by the session uses it too.
func (s *Session) UserAgent() string {
	return s.userAgent
}

// Open creates a fresh isolated context and page.
func (s *Session) Open() error {
	if s.browser == nil {
		return ErrNoSession
	}

	bctx, err := s.browser.NewContext(s.contextOptions())
	if err != nil {
		return fmt.Errorf("failed to create browser context: %w", err)
	}

	page, err := bctx.NewPage()
	if err != nil {
		bctx.Close()
		return fmt.Errorf("failed to create new page: %w", err)
	}
	page.SetDefaultNavigationTimeout(float64(s.opts.NavigationTimeout.Milliseconds()))

	s.context = bctx
	s.page = page
	return nil
}

// Rotate discards the current context and page and opens a new pair, so no
// cookies or storage carry over.
func (s *Session) Rotate() error {
	if err := s.closeContext(); err != nil {
		s.logger.Warn("failed to close context during rotation", "error", err)
	}

	if err := s.Open(); err != nil {
		return fmt.Errorf("failed to rotate session: %w", err)
	}

	s.rotations++
	s.logger.Debug("session rotated", "rotations", s.rotations)
	return nil
}

// Visit navigates the current page and waits for DOMContentLoaded.
func (s *Session) Visit(ctx context.Context, url string) (extract.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.page == nil {
		return nil, ErrNoSession
	}

	resp, err := s.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(float64(s.opts.NavigationTimeout.Milliseconds())),
	})
	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrNavigation, url, err)
	}
	if resp != nil {
		s.logger.Debug("page loaded", "url", url, "status", resp.Status())
	}

	if !s.opts.Snapshot {
		return extract.NewPageDocument(s.page), nil
	}

	html, err := s.page.Content()
	if err != nil {
		return nil, fmt.Errorf("failed to get page content: %w", err)
	}
	doc, err := extract.NewHTMLDocument(html)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// Close tears down page, context, browser and the playwright driver. It
// attempts every step even if an earlier one fails.
func (s *Session) Close() error {
	var errs []error

	if err := s.closeContext(); err != nil {
		errs = append(errs, err)
	}

	if s.browser != nil {
		if err := s.browser.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close browser: %w", err))
		}
		s.browser = nil
	}

	if s.pw != nil {
		if err := s.pw.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop playwright: %w", err))
		}
		s.pw = nil
	}

	return errors.Join(errs...)
}

func (s *Session) closeContext() error {
	var errs []error

	if s.page != nil {
		if err := s.page.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close page: %w", err))
		}
		s.page = nil
	}

	if s.context != nil {
		if err := s.context.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close context: %w", err))
		}
		s.context = nil
	}

	return errors.Join(errs...)
}

// contextOptions keeps the launch user agent so pages and image downloads
// present the same identity. Only Accept-Language varies per context.
func (s *Session) contextOptions() playwright.BrowserNewContextOptions {
	opts := playwright.BrowserNewContextOptions{
		AcceptDownloads: playwright.Bool(false),
		Viewport: &playwright.Size{
			Width:  s.opts.ViewportWidth,
			Height: s.opts.ViewportHeight,
		},
	}
	if s.userAgent != "" {
		opts.UserAgent = playwright.String(s.userAgent)
	}
	if lang := s.pick(s.opts.AcceptLanguages); lang != "" {
		opts.ExtraHttpHeaders = map[string]string{"Accept-Language": lang}
	}
	return opts
}

func (s *Session) pick(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[s.rnd.Intn(len(values))]
}
