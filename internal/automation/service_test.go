package automation

import (
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shehryarbajwa/divar-automation/internal/browser"
	"github.com/shehryarbajwa/divar-automation/internal/config"
	"github.com/shehryarbajwa/divar-automation/internal/statestore"
	"github.com/shehryarbajwa/divar-automation/pkg/models"
)

// newTestService builds a service whose state path points at an empty
// temp dir. The browser layer is never initialized: every test here
// exercises a path that must return before any browser work.
func newTestService(t *testing.T) *Service {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)

	dir := t.TempDir()
	cfg := &config.Config{
		Headless:  true,
		CitySlug:  "mashhad",
		StatePath: filepath.Join(dir, "state.json"),
		DebugDir:  filepath.Join(dir, "debug"),
		Addr:      ":0",
	}
	store := statestore.New(cfg.StatePath)
	browsers := browser.NewManager(cfg, store, log)
	return New(cfg, store, browsers, log)
}

func TestHasValidSessionNoSnapshot(t *testing.T) {
	svc := newTestService(t)

	ok, err := svc.HasValidSession(context.Background())
	require.NoError(t, err)
	assert.False(t, ok, "no snapshot on disk means not logged in, no browser probe")
}

func TestStartLoginRejectsBadPhone(t *testing.T) {
	svc := newTestService(t)

	err := svc.StartLogin(context.Background(), "user-1", "12345")
	require.Error(t, err)
	assert.Equal(t, models.ErrInvalidInput, models.KindOf(err))

	var se *models.StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, models.StageStartLogin, se.Stage)
}

func TestStartLoginRateLimited(t *testing.T) {
	svc := newTestService(t)

	// Burn the user's entire burst budget, then a valid phone must be
	// refused before the limiter's bucket refills.
	for svc.limiter.Allow("user-1") {
	}

	err := svc.StartLogin(context.Background(), "user-1", "09351234567")
	require.Error(t, err)
	assert.Equal(t, models.ErrRateLimited, models.KindOf(err))
}

func TestVerifyOTPRejectsShortCode(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.VerifyOTP(context.Background(), "user-1", "123")
	require.Error(t, err)
	assert.Equal(t, models.ErrInvalidInput, models.KindOf(err))

	var se *models.StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, models.StageVerifyOTP, se.Stage)
}

func TestCreateListingRejectsInvalidDraft(t *testing.T) {
	svc := newTestService(t)

	draft := models.ListingDraft{Title: "", Price: "100"}
	_, err := svc.CreateListing(context.Background(), "user-1", draft)
	require.Error(t, err)
	assert.Equal(t, models.ErrInvalidInput, models.KindOf(err))
}

func TestCreateListingRequiresSession(t *testing.T) {
	svc := newTestService(t)

	draft := models.ListingDraft{
		Title:      "Bike",
		Price:      "100000",
		ImagePaths: []string{"/tmp/a.jpg"},
	}
	_, err := svc.CreateListing(context.Background(), "user-1", draft)
	require.Error(t, err)
	assert.Equal(t, models.ErrAuthenticationRequired, models.KindOf(err))

	var se *models.StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, models.StageSessionCheck, se.Stage)
}

func TestLoginStateDefaultsToNoSession(t *testing.T) {
	svc := newTestService(t)
	assert.Equal(t, models.StateNoSession, svc.LoginStateOf("never-seen"))
}

func TestLoginStateTracking(t *testing.T) {
	svc := newTestService(t)

	svc.setState("user-1", models.StateAwaitingOTP)
	assert.Equal(t, models.StateAwaitingOTP, svc.LoginStateOf("user-1"))
	assert.Equal(t, models.StateNoSession, svc.LoginStateOf("user-2"))

	svc.setState("user-1", models.StateNoSession)
	assert.Equal(t, models.StateNoSession, svc.LoginStateOf("user-1"))
}

func TestUserLockIsPerUser(t *testing.T) {
	svc := newTestService(t)

	lock1 := svc.userLock("user-1")
	lock2 := svc.userLock("user-2")
	assert.NotSame(t, lock1, lock2)
	assert.Same(t, lock1, svc.userLock("user-1"))

	// A held lock for one user must not block another.
	require.NoError(t, lock1.Acquire(context.Background(), 1))
	defer lock1.Release(1)
	require.NoError(t, lock2.Acquire(context.Background(), 1))
	lock2.Release(1)
}
