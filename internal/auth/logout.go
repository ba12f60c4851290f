package auth

import (
	"github.com/shehryarbajwa/divar-automation/internal/browser"
	"github.com/shehryarbajwa/divar-automation/internal/divar"
	"github.com/shehryarbajwa/divar-automation/pkg/models"
)

// Logout performs the UI and storage side of a full logout. Clicking
// the logout control alone is not enough: localStorage and cookies can
// keep the session probe believing we are still in, so each layer is
// cleared explicitly. Every step is best-effort; the caller deletes the
// persisted snapshot and tears down the context regardless.
func (l *Login) Logout(page browser.Page, clearCookies func() error) {
	log := l.log.WithField("stage", models.StageLogout)
	log.Info("starting strong logout")

	if err := page.Goto(divar.MyDivarURL, navTimeout); err != nil {
		log.WithError(err).Warn("could not open account page")
	} else {
		l.sleep(pageSettle)
		if count, _ := page.Count(divar.LogoutButton); count > 0 {
			if err := page.Click(divar.LogoutButton); err != nil {
				log.WithError(err).Warn("logout button click failed")
			} else {
				l.sleep(pageSettle)
				log.Info("clicked logout in UI")
			}
		} else {
			log.Info("logout button not found, clearing storage anyway")
		}
	}

	if err := page.Evaluate("localStorage.clear()"); err != nil {
		log.WithError(err).Warn("failed clearing localStorage")
	}
	if err := page.Evaluate("sessionStorage.clear()"); err != nil {
		log.WithError(err).Warn("failed clearing sessionStorage")
	}
	if err := clearCookies(); err != nil {
		log.WithError(err).Warn("failed clearing cookies")
	}

	log.Info("logout UI sequence finished")
}
