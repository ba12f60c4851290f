// Package browser owns the shared Chromium process and one isolated
// browsing context per user. Contexts load the persisted storage state
// when it exists, so a saved login survives restarts.
package browser

import (
	"fmt"
	"io"
	"sync"

	"github.com/playwright-community/playwright-go"
	"github.com/sirupsen/logrus"

	"github.com/shehryarbajwa/divar-automation/internal/config"
	"github.com/shehryarbajwa/divar-automation/internal/statestore"
)

// Realistic desktop profile; reduces the chance of an anti-bot block.
const userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36"

// Launch flags for constrained hosts (no sandbox, small /dev/shm).
var launchArgs = []string{
	"--no-sandbox",
	"--disable-dev-shm-usage",
	"--disable-gpu",
	"--no-zygote",
}

// userSession is one user's isolated slice of the shared browser: a
// dedicated context plus at most one live page.
type userSession struct {
	context playwright.BrowserContext
	page    playwright.Page
}

// Manager owns the Playwright driver, the single browser process, and
// the per-user session table. It is the only component allowed to
// write or delete the storage-state snapshot.
type Manager struct {
	mu       sync.Mutex
	log      *logrus.Logger
	cfg      *config.Config
	store    *statestore.Store
	pw       *playwright.Playwright
	browser  playwright.Browser
	sessions map[string]*userSession
}

func NewManager(cfg *config.Config, store *statestore.Store, log *logrus.Logger) *Manager {
	return &Manager{
		log:      log,
		cfg:      cfg,
		store:    store,
		sessions: make(map[string]*userSession),
	}
}

// Initialize installs the browser binaries if needed and starts the
// Playwright driver. Safe to call once at boot; the browser process
// itself is launched lazily on first use.
func (m *Manager) Initialize() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.pw != nil {
		return nil
	}

	opts := &playwright.RunOptions{
		Browsers: []string{"chromium"},
		Verbose:  false,
		Stdout:   io.Discard,
		Stderr:   io.Discard,
	}
	if err := playwright.Install(opts); err != nil {
		return fmt.Errorf("failed to install playwright browsers: %w", err)
	}

	pw, err := playwright.Run(opts)
	if err != nil {
		return fmt.Errorf("failed to start playwright driver: %w", err)
	}
	m.pw = pw
	return nil
}

// ensureBrowser launches the shared Chromium instance. Idempotent;
// callers must hold m.mu.
func (m *Manager) ensureBrowser() error {
	if m.pw == nil {
		return fmt.Errorf("browser manager not initialized")
	}
	if m.browser != nil && m.browser.IsConnected() {
		return nil
	}

	m.log.WithField("headless", m.cfg.Headless).Info("launching chromium")
	browser, err := m.pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(m.cfg.Headless),
		Args:     launchArgs,
	})
	if err != nil {
		return fmt.Errorf("failed to launch browser: %w", err)
	}
	m.browser = browser
	return nil
}

// newContext creates an isolated browsing context with the fixed
// fingerprint profile, seeded from the persisted storage state when one
// exists. Callers must hold m.mu.
func (m *Manager) newContext() (playwright.BrowserContext, error) {
	opts := playwright.BrowserNewContextOptions{
		Locale:     playwright.String("fa-IR"),
		TimezoneId: playwright.String("Asia/Tehran"),
		Viewport:   &playwright.Size{Width: 1280, Height: 860},
		UserAgent:  playwright.String(userAgent),
	}
	if m.store.Exists() {
		opts.StorageStatePath = playwright.String(m.store.Path())
	}

	context, err := m.browser.NewContext(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create browser context: %w", err)
	}

	// City cookie scopes the posting flow; not guaranteed to stick.
	err = context.AddCookies([]playwright.OptionalCookie{{
		Name:   "city",
		Value:  m.cfg.CitySlug,
		Domain: playwright.String(".divar.ir"),
		Path:   playwright.String("/"),
	}})
	if err != nil {
		m.log.WithError(err).Warn("could not set city cookie")
	}

	return context, nil
}

// PageFor returns the user's current page, creating the context and
// page on first use or after the previous page was closed. It never
// returns a closed page and never holds more than one live page per
// user.
func (m *Manager) PageFor(userID string) (Page, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.ensureBrowser(); err != nil {
		return nil, err
	}

	sess, ok := m.sessions[userID]
	if !ok {
		context, err := m.newContext()
		if err != nil {
			return nil, err
		}
		sess = &userSession{context: context}
		m.sessions[userID] = sess
	}

	if sess.page != nil && !sess.page.IsClosed() {
		return newPWPage(sess.page), nil
	}

	page, err := sess.context.NewPage()
	if err != nil {
		return nil, fmt.Errorf("failed to create page: %w", err)
	}
	sess.page = page
	return newPWPage(page), nil
}

// ScratchPage opens a throwaway page in a fresh context seeded from the
// persisted state, for probes that must not disturb any user's flow.
// The returned cleanup closes both page and context.
func (m *Manager) ScratchPage() (Page, func(), error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.ensureBrowser(); err != nil {
		return nil, nil, err
	}

	context, err := m.newContext()
	if err != nil {
		return nil, nil, err
	}
	page, err := context.NewPage()
	if err != nil {
		context.Close()
		return nil, nil, fmt.Errorf("failed to create scratch page: %w", err)
	}

	cleanup := func() {
		if err := page.Close(); err != nil {
			m.log.WithError(err).Debug("scratch page close failed")
		}
		if err := context.Close(); err != nil {
			m.log.WithError(err).Debug("scratch context close failed")
		}
	}
	return newPWPage(page), cleanup, nil
}

// Persist snapshots the user's context (cookies + storage) to the
// configured state path, overwriting any prior snapshot. Callers treat
// failure as a warning: the business operation already succeeded.
func (m *Manager) Persist(userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[userID]
	if !ok {
		return fmt.Errorf("no session for user %s", userID)
	}
	if err := m.store.EnsureDir(); err != nil {
		return err
	}
	if _, err := sess.context.StorageState(m.store.Path()); err != nil {
		return fmt.Errorf("failed to save storage state: %w", err)
	}
	m.log.WithField("path", m.store.Path()).Info("storage state saved")
	return nil
}

// ClearCookies wipes the cookies of the user's context, part of the
// strong-logout sequence.
func (m *Manager) ClearCookies(userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[userID]
	if !ok {
		return nil
	}
	return sess.context.ClearCookies()
}

// DestroySession closes the user's page and context, deletes the
// persisted snapshot, and forgets the user. The next PageFor behaves
// like first use.
func (m *Manager) DestroySession(userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if sess, ok := m.sessions[userID]; ok {
		if sess.page != nil && !sess.page.IsClosed() {
			if err := sess.page.Close(); err != nil {
				m.log.WithError(err).Debug("page close failed during destroy")
			}
		}
		if err := sess.context.Close(); err != nil {
			m.log.WithError(err).Debug("context close failed during destroy")
		}
		delete(m.sessions, userID)
	}

	if err := m.store.Delete(); err != nil {
		return err
	}
	return nil
}

// Shutdown tears down every session, the browser process, and the
// Playwright driver.
func (m *Manager) Shutdown() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for userID, sess := range m.sessions {
		if sess.page != nil && !sess.page.IsClosed() {
			sess.page.Close()
		}
		sess.context.Close()
		delete(m.sessions, userID)
	}

	if m.browser != nil {
		if err := m.browser.Close(); err != nil {
			m.log.WithError(err).Warn("browser close failed")
		}
		m.browser = nil
	}
	if m.pw != nil {
		if err := m.pw.Stop(); err != nil {
			return fmt.Errorf("failed to stop playwright: %w", err)
		}
		m.pw = nil
	}
	return nil
}
