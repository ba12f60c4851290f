// Package listing drives the multi-screen posting workflow, stage by
// stage. A stage failure aborts the whole pipeline and comes back
// tagged with the stage name and debug artifacts; there is no partial
// success.
package listing

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

const (
	navTimeout      = 60 * time.Second
	selectorTimeout = 60 * time.Second

	pageSettle   = 1500 * time.Millisecond
	pickSettle   = 1200 * time.Millisecond
	submitSettle = 2500 * time.Millisecond
	typeDelay    = 60 * time.Millisecond
)

// SuccessMessage is returned verbatim when every stage completed. The
// remote site may still review the listing before publication; the
// pipeline only vouches for the local submission.
const SuccessMessage = "listing submitted; remote review may delay publication"

// Pipeline executes the ordered posting stages against a page.
type Pipeline struct {
	log   *logrus.Logger
	diag  *diagnostics.Capturer
	sleep func(time.Duration)
}

func NewPipeline(diag *diagnostics.Capturer, log *logrus.Logger) *Pipeline {
	return &Pipeline{log: log, diag: diag, sleep: time.Sleep}
}

func (p *Pipeline) fail(page browser.Page, stage models.Stage, kind models.ErrorKind, err error) error {
	png, html := p.diag.Capture(page, stage)
	return &models.StageError{Stage: stage, Kind: kind, ScreenshotPath: png, HTMLPath: html, Err: err}
}

// pickCategory selects the draft's category from the live list. Bounds
// are checked against the live count, never a hardcoded one: an index
// equal to the count is the caller's mistake, not something to clamp.
func (p *Pipeline) pickCategory(page browser.Page, stage models.Stage, index int) error {
	if err := page.WaitVisible(divar.CategoryItem, selectorTimeout); err != nil {
		return p.fail(page, stage, models.ErrUnexpectedPageState,
			fmt.Errorf("category items never appeared: %w", err))
	}
	count, err := page.Count(divar.CategoryItem)
	if err != nil {
		return p.fail(page, stage, models.ErrUnexpectedPageState, err)
	}
	p.log.WithFields(logrus.Fields{"stage": stage, "count": count}).Info("category list detected")
	if count == 0 {
		return p.fail(page, stage, models.ErrUnexpectedPageState, fmt.Errorf("category list is empty"))
	}
	if index < 0 || index >= count {
		return p.fail(page, stage, models.ErrInvalidInput,
			fmt.Errorf("category index %d out of range 0..%d", index, count-1))
	}
	if err := page.ClickNth(divar.CategoryItem, index); err != nil {
		return p.fail(page, stage, models.ErrUnexpectedPageState, err)
	}
	return nil
}

// Create runs every stage in order and returns the success message, or
// the first stage-tagged failure. Callers must have verified the
// session beforehand.
func (p *Pipeline) Create(ctx context.Context, page browser.Page, draft models.ListingDraft) (string, error) {
	log := p.log.WithField("title", draft.Title)

	// open_new
	log.WithField("stage", models.StageOpenNew).Info("opening posting entry route")
	if err := page.Goto(divar.NewListingURL, navTimeout); err != nil {
		return "", p.fail(page, models.StageOpenNew, models.ErrUnexpectedPageState, err)
	}
	p.sleep(pageSettle)

	// maybe_category_first: some flows show the category screen before
	// anything else.
	titleCount, _ := page.Count(divar.CategoryTitle)
	itemCount, _ := page.Count(divar.CategoryItem)
	if titleCount > 0 && itemCount > 0 {
		log.WithField("stage", models.StageCategoryFirst).Info("category screen shown first")
		if err := p.pickCategory(page, models.StageCategoryFirst, draft.CategoryIndex); err != nil {
			return "", err
		}
		p.sleep(pickSettle)
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}

	// upload_image: the site treats at least one image as mandatory, so
	// an empty list is surfaced here instead of as a late remote error.
	log.WithField("stage", models.StageUploadImage).WithField("images", len(draft.ImagePaths)).Info("uploading images")
	if len(draft.ImagePaths) == 0 {
		return "", p.fail(page, models.StageUploadImage, models.ErrMissingRequiredField,
			fmt.Errorf("at least one image is required"))
	}
	if err := page.WaitVisible(divar.ImagesInput, selectorTimeout); err != nil {
		return "", p.fail(page, models.StageUploadImage, models.ErrUnexpectedPageState, err)
	}
	if err := page.SetFiles(divar.ImagesInput, draft.ImagePaths); err != nil {
		return "", p.fail(page, models.StageUploadImage, models.ErrUnexpectedPageState, err)
	}
	p.sleep(pageSettle)

	// fill_title
	log.WithField("stage", models.StageFillTitle).Info("filling title")
	if err := page.WaitVisible(divar.TitleInput, selectorTimeout); err != nil {
		return "", p.fail(page, models.StageFillTitle, models.ErrUnexpectedPageState, err)
	}
	if err := page.Fill(divar.TitleInput, draft.Title); err != nil {
		return "", p.fail(page, models.StageFillTitle, models.ErrUnexpectedPageState, err)
	}

	// fill_description
	log.WithField("stage", models.StageFillDescription).Info("filling description")
	if err := page.WaitVisible(divar.DescriptionInput, selectorTimeout); err != nil {
		return "", p.fail(page, models.StageFillDescription, models.ErrUnexpectedPageState, err)
	}
	if err := page.Fill(divar.DescriptionInput, draft.Description); err != nil {
		return "", p.fail(page, models.StageFillDescription, models.ErrUnexpectedPageState, err)
	}

	// click_next_1
	log.WithField("stage", models.StageClickNext1).Info("advancing past first screen")
	if err := page.Click(divar.NextButton); err != nil {
		return "", p.fail(page, models.StageClickNext1, models.ErrUnexpectedPageState, err)
	}
	p.sleep(pageSettle)

	// wait_after_next_1: the site shows one of several screens next.
	// Any of them is acceptable; none appearing within the bound is a
	// failure, usually a required field left empty on screen one.
	if err := page.WaitForAny(selectorTimeout, divar.CategoryItem, divar.PriceInput, divar.CategoryBlock); err != nil {
		return "", p.fail(page, models.StageWaitAfterNext1, models.ErrUnexpectedPageState,
			fmt.Errorf("no expected screen appeared after next; a required field may be missing: %w", err))
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}

	// pick_category_if_list: some flows defer category selection here.
	itemCount, _ = page.Count(divar.CategoryItem)
	if itemCount > 0 {
		log.WithField("stage", models.StagePickCategoryLater).Info("deferred category list detected")
		if err := p.pickCategory(page, models.StagePickCategoryLater, draft.CategoryIndex); err != nil {
			return "", err
		}
		p.sleep(pageSettle)
	}

	// fill_price
	log.WithField("stage", models.StageFillPrice).Info("filling price")
	if err := page.WaitVisible(divar.PriceInput, selectorTimeout); err != nil {
		return "", p.fail(page, models.StageFillPrice, models.ErrUnexpectedPageState, err)
	}
	if err := page.Fill(divar.PriceInput, ""); err != nil {
		return "", p.fail(page, models.StageFillPrice, models.ErrUnexpectedPageState, err)
	}
	if err := page.TypeSlowly(divar.PriceInput, draft.Price, typeDelay); err != nil {
		return "", p.fail(page, models.StageFillPrice, models.ErrUnexpectedPageState, err)
	}

	// location_check: location selection is not automated. A listing
	// whose location is still unset would be rejected remotely, so it
	// is reported as missing data rather than silently skipped.
	locCount, _ := page.Count(divar.LocationUnsetButton)
	if locCount > 0 {
		return "", p.fail(page, models.StageLocationCheck, models.ErrMissingRequiredField,
			fmt.Errorf("listing location is still unset"))
	}

	// click_next_2
	log.WithField("stage", models.StageClickNext2).Info("advancing to contact screen")
	if err := page.Click(divar.NextButton); err != nil {
		return "", p.fail(page, models.StageClickNext2, models.ErrUnexpectedPageState, err)
	}
	p.sleep(pageSettle)

	// contact_prefs: enable chat/call toggles when the screen has them.
	// Absent toggles are normal for some categories.
	for _, toggle := range []string{divar.ContactChatToggle, divar.ContactCallToggle} {
		if count, _ := page.Count(toggle); count > 0 {
			if err := page.Click(toggle); err != nil {
				log.WithField("stage", models.StageContactPrefs).WithError(err).Warn("contact toggle click failed")
			}
		}
	}

	// final_submit
	log.WithField("stage", models.StageFinalSubmit).Info("submitting listing")
	finalCount, _ := page.Count(divar.FinalSubmitButton)
	if finalCount > 0 {
		if err := page.Click(divar.FinalSubmitButton); err != nil {
			return "", p.fail(page, models.StageFinalSubmit, models.ErrUnexpectedPageState, err)
		}
	} else {
		// Button label changed before; the last submit on the page is
		// the next best guess.
		if err := page.ClickLast(divar.NextButton); err != nil {
			return "", p.fail(page, models.StageFinalSubmit, models.ErrUnexpectedPageState, err)
		}
	}
	p.sleep(submitSettle)

	log.Info("posting flow finished")
	return SuccessMessage, nil
}
