// Package auth drives the phone/OTP login state machine against the
// live login screens, plus the strong-logout sequence.
package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/shehryarbajwa/divar-automation/internal/browser"
	"github.com/shehryarbajwa/divar-automation/internal/diagnostics"
	"github.com/shehryarbajwa/divar-automation/internal/divar"
	"github.com/shehryarbajwa/divar-automation/pkg/models"
)

// Every DOM wait is bounded; timeout expiry becomes a typed failure.
const (
	navTimeout         = 60 * time.Second
	otpAppearTimeout   = 60 * time.Second
	otpDetachTimeout   = 45 * time.Second
	phoneEnableTimeout = 15 * time.Second
	otpEnableTimeout   = 25 * time.Second

	pageSettle   = 1200 * time.Millisecond
	submitSettle = 1500 * time.Millisecond
	typeDelay    = 120 * time.Millisecond
)

// Login runs the phone-submission and OTP-verification steps. It holds
// no per-user state itself; the service layer sequences users.
type Login struct {
	log   *logrus.Logger
	diag  *diagnostics.Capturer
	sleep func(time.Duration)
}

func NewLogin(diag *diagnostics.Capturer, log *logrus.Logger) *Login {
	return &Login{log: log, diag: diag, sleep: time.Sleep}
}

func (l *Login) fail(page browser.Page, stage models.Stage, kind models.ErrorKind, err error) error {
	png, html := l.diag.Capture(page, stage)
	return &models.StageError{Stage: stage, Kind: kind, ScreenshotPath: png, HTMLPath: html, Err: err}
}

// IsLoggedIn probes the posting entry route and decides authentication
// by which login prompt elements are present. The DOM is the actual
// gate a user would see, unlike the site's unstable cookie schema.
func (l *Login) IsLoggedIn(page browser.Page) (bool, error) {
	if err := page.Goto(divar.NewListingURL, navTimeout); err != nil {
		return false, err
	}
	l.sleep(pageSettle)

	phoneCount, err := page.Count(divar.PhoneInput)
	if err != nil {
		return false, err
	}
	if phoneCount > 0 {
		return false, nil
	}
	otpCount, err := page.Count(divar.OTPInput)
	if err != nil {
		return false, err
	}
	return otpCount == 0, nil
}

// Start requests an OTP for the given normalized phone number. It is
// idempotent against the page's current state: an already-authenticated
// page and an already-pending code request both return without side
// effects. The returned state tells the caller which of the three
// expected outcomes happened.
func (l *Login) Start(ctx context.Context, page browser.Page, phone string) (models.LoginState, error) {
	log := l.log.WithField("stage", models.StageStartLogin)
	log.Info("opening entry route for login")

	if err := page.Goto(divar.NewListingURL, navTimeout); err != nil {
		return models.StateNoSession, l.fail(page, models.StageStartLogin, models.ErrUnexpectedPageState, err)
	}
	l.sleep(submitSettle)

	if err := ctx.Err(); err != nil {
		return models.StateNoSession, err
	}

	titleCount, _ := page.Count(divar.TitleInput)
	phoneCount, err := page.Count(divar.PhoneInput)
	if err != nil {
		return models.StateNoSession, l.fail(page, models.StageStartLogin, models.ErrUnexpectedPageState, err)
	}

	// Posting form with no phone prompt means we are already in.
	if titleCount > 0 && phoneCount == 0 {
		log.Info("already logged in, nothing to do")
		return models.StateAuthenticated, nil
	}

	// OTP field visible means a code request is already in flight.
	otpCount, _ := page.Count(divar.OTPInput)
	if otpCount > 0 {
		log.Info("already on OTP step, not re-submitting")
		return models.StateAwaitingOTP, nil
	}

	if phoneCount > 0 {
		log.Info("phone input detected, submitting number")
		if err := page.Fill(divar.PhoneInput, phone); err != nil {
			return models.StateNoSession, l.fail(page, models.StageStartLogin, models.ErrUnexpectedPageState, err)
		}
		if err := page.WaitEnabled(divar.SubmitButton, phoneEnableTimeout); err != nil {
			// Known quirk: the button sometimes never reports enabled.
			log.Warn("submit button did not enable in time, clicking anyway")
		}
		if err := page.Click(divar.SubmitButton); err != nil {
			return models.StateNoSession, l.fail(page, models.StageStartLogin, models.ErrUnexpectedPageState, err)
		}
		if err := page.WaitVisible(divar.OTPInput, otpAppearTimeout); err != nil {
			return models.StateNoSession, l.fail(page, models.StageStartLogin, models.ErrUnexpectedPageState,
				fmt.Errorf("OTP input never appeared after phone submission: %w", err))
		}
		log.Info("OTP input appeared")
		return models.StateAwaitingOTP, nil
	}

	// None of the three expected shapes; likely an anti-bot challenge.
	return models.StateNoSession, l.fail(page, models.StageStartLogin, models.ErrUnexpectedPageState,
		fmt.Errorf("login page showed neither posting form, phone input, nor OTP input"))
}

// Verify submits a normalized six-digit code and reports whether the
// session ended up authenticated. A rejected code is a false return,
// never an error; the caller resets flow state and may retry.
func (l *Login) Verify(ctx context.Context, page browser.Page, code string) (bool, error) {
	log := l.log.WithField("stage", models.StageVerifyOTP)

	if err := page.WaitVisible(divar.OTPInput, otpAppearTimeout); err != nil {
		return false, l.fail(page, models.StageVerifyOTP, models.ErrUnexpectedPageState,
			fmt.Errorf("OTP input not present: %w", err))
	}

	if err := page.Fill(divar.OTPInput, ""); err != nil {
		return false, l.fail(page, models.StageVerifyOTP, models.ErrUnexpectedPageState, err)
	}
	if err := page.TypeSlowly(divar.OTPInput, code, typeDelay); err != nil {
		return false, l.fail(page, models.StageVerifyOTP, models.ErrUnexpectedPageState, err)
	}

	if err := ctx.Err(); err != nil {
		return false, err
	}

	// Two-phase submit: wait for the button to enable, fall back to the
	// keyboard when the site leaves it stuck in the disabled style.
	if err := page.WaitEnabled(divar.SubmitButton, otpEnableTimeout); err == nil {
		if err := page.Click(divar.SubmitButton); err != nil {
			return false, l.fail(page, models.StageVerifyOTP, models.ErrUnexpectedPageState, err)
		}
		log.Info("clicked submit on OTP screen")
	} else {
		log.Warn("submit never enabled, pressing Enter instead")
		if err := page.PressEnter(); err != nil {
			return false, l.fail(page, models.StageVerifyOTP, models.ErrUnexpectedPageState, err)
		}
	}

	// Primary success signal: the OTP field leaves the DOM. If it does
	// not, fall through to the direct login probe.
	if err := page.WaitDetached(divar.OTPInput, otpDetachTimeout); err != nil {
		log.Warn("OTP input did not detach, probing login state directly")
	}

	ok, err := l.IsLoggedIn(page)
	if err != nil {
		log.WithError(err).Warn("login probe failed after OTP submission")
		return false, nil
	}
	log.WithField("authenticated", ok).Info("OTP verification finished")
	return ok, nil
}
