package auth

import (
	"context"
	"errors"
	"io"
	"os"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shehryarbajwa/divar-automation/internal/browser/browsertest"
	"github.com/shehryarbajwa/divar-automation/internal/diagnostics"
	"github.com/shehryarbajwa/divar-automation/internal/divar"
	"github.com/shehryarbajwa/divar-automation/pkg/models"
)

func newTestLogin(t *testing.T) *Login {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)
	l := NewLogin(diagnostics.NewCapturer(t.TempDir(), log), log)
	l.sleep = func(time.Duration) {}
	return l
}

func stageErr(t *testing.T, err error) *models.StageError {
	t.Helper()
	var se *models.StageError
	require.ErrorAs(t, err, &se)
	return se
}

func TestStartAlreadyLoggedIn(t *testing.T) {
	l := newTestLogin(t)
	page := browsertest.New()
	page.Counts[divar.TitleInput] = 1

	state, err := l.Start(context.Background(), page, "09351234567")
	require.NoError(t, err)
	assert.Equal(t, models.StateAuthenticated, state)
	assert.False(t, page.Did("fill", divar.PhoneInput))
}

func TestStartCodeAlreadyRequested(t *testing.T) {
	l := newTestLogin(t)
	page := browsertest.New()
	page.Counts[divar.OTPInput] = 1

	state, err := l.Start(context.Background(), page, "09351234567")
	require.NoError(t, err)
	assert.Equal(t, models.StateAwaitingOTP, state)
	assert.False(t, page.Did("fill", divar.PhoneInput))
	assert.False(t, page.Did("click", divar.SubmitButton))
}

func TestStartSubmitsPhone(t *testing.T) {
	l := newTestLogin(t)
	page := browsertest.New()
	page.Counts[divar.PhoneInput] = 1

	state, err := l.Start(context.Background(), page, "09351234567")
	require.NoError(t, err)
	assert.Equal(t, models.StateAwaitingOTP, state)

	fills := page.CallsOf("fill")
	require.Len(t, fills, 1)
	assert.Equal(t, divar.PhoneInput, fills[0].Selector)
	assert.Equal(t, "09351234567", fills[0].Value)
	assert.True(t, page.Did("click", divar.SubmitButton))
	assert.True(t, page.Did("wait_visible", divar.OTPInput))
}

func TestStartUnexpectedPage(t *testing.T) {
	l := newTestLogin(t)
	page := browsertest.New() // no login form, no posting form

	_, err := l.Start(context.Background(), page, "09351234567")
	se := stageErr(t, err)
	assert.Equal(t, models.StageStartLogin, se.Stage)
	assert.Equal(t, models.ErrUnexpectedPageState, se.Kind)

	// Diagnostics must have been captured for the operator.
	require.NotEmpty(t, se.ScreenshotPath)
	require.NotEmpty(t, se.HTMLPath)
	_, statErr := os.Stat(se.ScreenshotPath)
	assert.NoError(t, statErr)
	_, statErr = os.Stat(se.HTMLPath)
	assert.NoError(t, statErr)
}

func TestStartOTPNeverAppears(t *testing.T) {
	l := newTestLogin(t)
	page := browsertest.New()
	page.Counts[divar.PhoneInput] = 1
	page.WaitVisibleErrs[divar.OTPInput] = errors.New("timeout 60000ms exceeded")

	_, err := l.Start(context.Background(), page, "09351234567")
	se := stageErr(t, err)
	assert.Equal(t, models.ErrUnexpectedPageState, se.Kind)
}

func TestVerifySuccess(t *testing.T) {
	l := newTestLogin(t)
	page := browsertest.New()

	// The site accepts the code: after submit, no login prompts remain.
	loggedIn := false
	page.OnClick = func(selector string) {
		if selector == divar.SubmitButton {
			loggedIn = true
		}
	}
	page.CountFunc = func(selector string) (int, error) {
		if !loggedIn && selector == divar.OTPInput {
			return 1, nil
		}
		return 0, nil
	}

	ok, err := l.Verify(context.Background(), page, "123456")
	require.NoError(t, err)
	assert.True(t, ok)

	types := page.CallsOf("type")
	require.Len(t, types, 1)
	assert.Equal(t, "123456", types[0].Value)
}

func TestVerifyRejectedCode(t *testing.T) {
	l := newTestLogin(t)
	page := browsertest.New()
	// Code rejected: the OTP prompt never goes away.
	page.Counts[divar.OTPInput] = 1
	page.WaitDetachedErrs[divar.OTPInput] = errors.New("timeout 45000ms exceeded")

	ok, err := l.Verify(context.Background(), page, "123456")
	require.NoError(t, err, "a rejected code is a false return, not an error")
	assert.False(t, ok)
}

func TestVerifyFallsBackToEnter(t *testing.T) {
	l := newTestLogin(t)
	page := browsertest.New()
	page.Counts[divar.OTPInput] = 1
	page.WaitEnabledErr = errors.New("timeout 25000ms exceeded")
	page.WaitDetachedErrs[divar.OTPInput] = errors.New("timeout")

	_, err := l.Verify(context.Background(), page, "123456")
	require.NoError(t, err)
	assert.True(t, page.Did("press_enter", ""))
	assert.False(t, page.Did("click", divar.SubmitButton))
}

func TestLogoutClearsEverything(t *testing.T) {
	l := newTestLogin(t)
	page := browsertest.New()
	page.Counts[divar.LogoutButton] = 1

	cookiesCleared := false
	l.Logout(page, func() error {
		cookiesCleared = true
		return nil
	})

	assert.True(t, page.Did("click", divar.LogoutButton))
	assert.True(t, page.Did("evaluate", "localStorage.clear()"))
	assert.True(t, page.Did("evaluate", "sessionStorage.clear()"))
	assert.True(t, cookiesCleared)
}

func TestLogoutSurvivesMissingButton(t *testing.T) {
	l := newTestLogin(t)
	page := browsertest.New()

	l.Logout(page, func() error { return errors.New("no cookies") })

	assert.False(t, page.Did("click", divar.LogoutButton))
	assert.True(t, page.Did("evaluate", "localStorage.clear()"))
}

func TestIsLoggedIn(t *testing.T) {
	l := newTestLogin(t)

	t.Run("phone prompt means logged out", func(t *testing.T) {
		page := browsertest.New()
		page.Counts[divar.PhoneInput] = 1
		ok, err := l.IsLoggedIn(page)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("otp prompt means logged out", func(t *testing.T) {
		page := browsertest.New()
		page.Counts[divar.OTPInput] = 1
		ok, err := l.IsLoggedIn(page)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("no prompts means logged in", func(t *testing.T) {
		page := browsertest.New()
		ok, err := l.IsLoggedIn(page)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, divar.NewListingURL, page.CurrentURL)
	})
}
