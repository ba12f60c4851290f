// Package diagnostics snapshots a failing page so an operator can see
// what the automation saw. Artifacts are write-only: nothing in the
// service reads them back.
package diagnostics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/shehryarbajwa/divar-automation/internal/browser"
	"github.com/shehryarbajwa/divar-automation/pkg/models"
)

// Capturer dumps paired screenshot/markup files named by stage and
// timestamp under a fixed debug directory.
type Capturer struct {
	dir string
	log *logrus.Logger
	now func() time.Time
}

func NewCapturer(dir string, log *logrus.Logger) *Capturer {
	return &Capturer{dir: dir, log: log, now: time.Now}
}

// Capture writes a full-page screenshot and the raw markup for the
// given stage. It never fails the caller: anything that cannot be
// captured degrades to an empty path, and the original failure still
// propagates with whatever paths were obtained.
func (c *Capturer) Capture(page browser.Page, stage models.Stage) (screenshotPath, htmlPath string) {
	if page == nil || page.IsClosed() {
		return "", ""
	}
	if err := os.MkdirAll(c.dir, 0755); err != nil {
		c.log.WithError(err).Warn("could not create debug directory")
		return "", ""
	}

	ts := c.now().Unix()
	screenshotPath = filepath.Join(c.dir, fmt.Sprintf("%s_%d.png", stage, ts))
	htmlPath = filepath.Join(c.dir, fmt.Sprintf("%s_%d.html", stage, ts))

	if err := page.Screenshot(screenshotPath); err != nil {
		c.log.WithError(err).WithField("stage", stage).Warn("screenshot capture failed")
		screenshotPath = ""
	}

	content, err := page.Content()
	if err != nil {
		c.log.WithError(err).WithField("stage", stage).Warn("markup capture failed")
		htmlPath = ""
	} else if err := os.WriteFile(htmlPath, []byte(content), 0644); err != nil {
		c.log.WithError(err).WithField("stage", stage).Warn("markup write failed")
		htmlPath = ""
	}

	if screenshotPath != "" || htmlPath != "" {
		c.log.WithFields(logrus.Fields{
			"stage":      stage,
			"screenshot": screenshotPath,
			"html":       htmlPath,
		}).Info("debug artifacts captured")
	}
	return screenshotPath, htmlPath
}
