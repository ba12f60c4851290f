// Package automation is the facade the front-end talks to. It wires
// the browser manager, login state machine, posting pipeline, and
// persistence together, serializes operations per user, and owns the
// points at which auth state is persisted.
package automation

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"

	"github.com/shehryarbajwa/divar-automation/internal/auth"
	"github.com/shehryarbajwa/divar-automation/internal/browser"
	"github.com/shehryarbajwa/divar-automation/internal/config"
	"github.com/shehryarbajwa/divar-automation/internal/diagnostics"
	"github.com/shehryarbajwa/divar-automation/internal/listing"
	"github.com/shehryarbajwa/divar-automation/internal/ratelimit"
	"github.com/shehryarbajwa/divar-automation/internal/statestore"
	"github.com/shehryarbajwa/divar-automation/pkg/models"
)

const (
	loginAttemptsPerMinute = 6
	loginBurst             = 3
)

// Service exposes the five operations the front-end consumes. Calls
// for the same user id are serialized internally with a weight-1
// semaphore; a page is only ever driven by one flow at a time.
type Service struct {
	log      *logrus.Logger
	cfg      *config.Config
	store    *statestore.Store
	browsers *browser.Manager
	login    *auth.Login
	pipeline *listing.Pipeline
	limiter  *ratelimit.Limiter

	mu     sync.Mutex
	locks  map[string]*semaphore.Weighted
	states map[string]models.LoginState
}

func New(cfg *config.Config, store *statestore.Store, browsers *browser.Manager, log *logrus.Logger) *Service {
	diag := diagnostics.NewCapturer(cfg.DebugDir, log)
	return &Service{
		log:      log,
		cfg:      cfg,
		store:    store,
		browsers: browsers,
		login:    auth.NewLogin(diag, log),
		pipeline: listing.NewPipeline(diag, log),
		limiter:  ratelimit.NewLimiter(loginAttemptsPerMinute, loginBurst),
		locks:    make(map[string]*semaphore.Weighted),
		states:   make(map[string]models.LoginState),
	}
}

// userLock returns the per-user serialization semaphore, creating it on
// first use.
func (s *Service) userLock(userID string) *semaphore.Weighted {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.locks[userID]
	if !ok {
		lock = semaphore.NewWeighted(1)
		s.locks[userID] = lock
	}
	return lock
}

func (s *Service) setState(userID string, state models.LoginState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[userID] = state
}

// LoginStateOf reports where the user is in the login flow.
func (s *Service) LoginStateOf(userID string) models.LoginState {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.states[userID]
	if !ok {
		return models.StateNoSession
	}
	return state
}

func (s *Service) opLog(op, userID string) *logrus.Entry {
	return s.log.WithFields(logrus.Fields{
		"op":   op,
		"id":   uuid.NewString()[:8],
		"user": userID,
	})
}

// HasValidSession reports whether a persisted session is still live.
// With no snapshot on disk the answer is false without touching the
// browser; otherwise a scratch page probes the entry route.
func (s *Service) HasValidSession(ctx context.Context) (bool, error) {
	log := s.opLog("has_valid_session", "")

	if !s.store.Exists() {
		log.Info("no state file, not logged in")
		return false, nil
	}

	page, cleanup, err := s.browsers.ScratchPage()
	if err != nil {
		return false, err
	}
	defer cleanup()

	ok, err := s.login.IsLoggedIn(page)
	if err != nil {
		log.WithError(err).Warn("session probe failed")
		return false, nil
	}
	log.WithField("logged_in", ok).Info("session probe finished")
	return ok, nil
}

// StartLogin validates and normalizes the phone number, then drives the
// phone-submission step. Invalid input is rejected before any browser
// work.
func (s *Service) StartLogin(ctx context.Context, userID, phone string) error {
	log := s.opLog("start_login", userID)

	normalized, err := auth.NormalizePhone(phone)
	if err != nil {
		return models.NewStageError(models.StageStartLogin, models.ErrInvalidInput, err)
	}

	if !s.limiter.Allow(userID) {
		return models.NewStageError(models.StageStartLogin, models.ErrRateLimited,
			fmt.Errorf("too many login attempts, try again later"))
	}

	lock := s.userLock(userID)
	if err := lock.Acquire(ctx, 1); err != nil {
		return err
	}
	defer lock.Release(1)

	page, err := s.browsers.PageFor(userID)
	if err != nil {
		return err
	}

	state, err := s.login.Start(ctx, page, normalized)
	if err != nil {
		s.setState(userID, models.StateNoSession)
		return err
	}
	s.setState(userID, state)
	log.WithField("state", state).Info("login step finished")
	return nil
}

// VerifyOTP submits the code and reports whether the session is now
// authenticated. On success the browsing state is persisted; in every
// case the login flow resets so the caller can retry cleanly.
func (s *Service) VerifyOTP(ctx context.Context, userID, code string) (bool, error) {
	log := s.opLog("verify_otp", userID)

	normalized, err := auth.NormalizeOTP(code)
	if err != nil {
		return false, models.NewStageError(models.StageVerifyOTP, models.ErrInvalidInput, err)
	}

	if !s.limiter.Allow(userID) {
		return false, models.NewStageError(models.StageVerifyOTP, models.ErrRateLimited,
			fmt.Errorf("too many login attempts, try again later"))
	}

	lock := s.userLock(userID)
	if err := lock.Acquire(ctx, 1); err != nil {
		return false, err
	}
	defer lock.Release(1)

	defer s.setState(userID, models.StateNoSession)

	page, err := s.browsers.PageFor(userID)
	if err != nil {
		return false, err
	}

	ok, err := s.login.Verify(ctx, page, normalized)
	if err != nil {
		return false, err
	}
	if ok {
		if perr := s.browsers.Persist(userID); perr != nil {
			// Login already succeeded; a failed save only costs the
			// next restart a fresh login.
			log.WithError(perr).Warn("could not persist auth state")
		}
	}
	log.WithField("authenticated", ok).Info("OTP verification finished")
	return ok, nil
}

// CreateListing validates the draft, requires a valid session, and runs
// the posting pipeline. A completed submission refreshes the persisted
// state, since it proves the session is still live.
func (s *Service) CreateListing(ctx context.Context, userID string, draft models.ListingDraft) (string, error) {
	log := s.opLog("create_listing", userID)

	if err := draft.Validate(); err != nil {
		return "", err
	}

	ok, err := s.HasValidSession(ctx)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", models.NewStageError(models.StageSessionCheck, models.ErrAuthenticationRequired,
			fmt.Errorf("not logged in; run the login flow first"))
	}

	lock := s.userLock(userID)
	if err := lock.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer lock.Release(1)

	page, err := s.browsers.PageFor(userID)
	if err != nil {
		return "", err
	}

	result, err := s.pipeline.Create(ctx, page, draft)
	if err != nil {
		return "", err
	}

	if perr := s.browsers.Persist(userID); perr != nil {
		log.WithError(perr).Warn("could not refresh persisted auth state")
	}
	log.Info("listing created")
	return result, nil
}

// Logout runs the strong logout sequence and destroys the user's
// session and the persisted snapshot. It always completes.
func (s *Service) Logout(ctx context.Context, userID string) (bool, error) {
	log := s.opLog("logout", userID)

	lock := s.userLock(userID)
	if err := lock.Acquire(ctx, 1); err != nil {
		return false, err
	}
	defer lock.Release(1)

	if page, err := s.browsers.PageFor(userID); err != nil {
		log.WithError(err).Warn("could not open page for UI logout, clearing state only")
	} else {
		s.login.Logout(page, func() error {
			return s.browsers.ClearCookies(userID)
		})
	}

	if err := s.browsers.DestroySession(userID); err != nil {
		log.WithError(err).Warn("session teardown reported an error")
	}
	s.setState(userID, models.StateNoSession)
	log.Info("logout finished")
	return true, nil
}

// Shutdown tears down the browser layer.
func (s *Service) Shutdown() error {
	return s.browsers.Shutdown()
}
