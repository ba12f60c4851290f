package browser

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"
)

// Page is the narrow surface the login and posting flows need from a
// browser tab. Flows depend on this interface, not on Playwright, so
// they can be exercised against a fake in tests.
type Page interface {
	// Goto navigates and waits for DOMContentLoaded.
	Goto(url string, timeout time.Duration) error

	// Count returns how many elements currently match selector.
	Count(selector string) (int, error)

	Fill(selector, value string) error

	// TypeSlowly fills character by character with a delay, which reads
	// more like a human to the remote site.
	TypeSlowly(selector, value string, delay time.Duration) error

	Click(selector string) error

	// ClickNth scrolls the nth match into view and clicks it.
	ClickNth(selector string, index int) error

	// ClickLast clicks the last match; used as a fallback when a
	// labeled button cannot be found.
	ClickLast(selector string) error

	// WaitVisible blocks until selector is visible or timeout expires.
	WaitVisible(selector string, timeout time.Duration) error

	// WaitDetached blocks until selector leaves the DOM.
	WaitDetached(selector string, timeout time.Duration) error

	// WaitEnabled blocks until the matched control is clickable: not
	// disabled and not carrying the site's disabled-button class.
	WaitEnabled(selector string, timeout time.Duration) error

	// WaitForAny blocks until at least one of the selectors is present.
	WaitForAny(timeout time.Duration, selectors ...string) error

	// SetFiles uploads the given local files into a file input.
	SetFiles(selector string, paths []string) error

	PressEnter() error

	// Evaluate runs a JS expression on the page, discarding the result.
	Evaluate(expression string) error

	// Screenshot writes a full-page PNG to path.
	Screenshot(path string) error

	// Content returns the page's current raw markup.
	Content() (string, error)

	URL() string
	IsClosed() bool
	Close() error
}

// pwPage adapts a Playwright page to the Page interface.
type pwPage struct {
	page playwright.Page
}

func newPWPage(page playwright.Page) *pwPage {
	return &pwPage{page: page}
}

func ms(d time.Duration) *float64 {
	return playwright.Float(float64(d.Milliseconds()))
}

func (p *pwPage) Goto(url string, timeout time.Duration) error {
	_, err := p.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   ms(timeout),
	})
	if err != nil {
		return fmt.Errorf("navigation to %s failed: %w", url, err)
	}
	return nil
}

func (p *pwPage) Count(selector string) (int, error) {
	return p.page.Locator(selector).Count()
}

func (p *pwPage) Fill(selector, value string) error {
	return p.page.Fill(selector, value)
}

func (p *pwPage) TypeSlowly(selector, value string, delay time.Duration) error {
	return p.page.Locator(selector).PressSequentially(value, playwright.LocatorPressSequentiallyOptions{
		Delay: ms(delay),
	})
}

func (p *pwPage) Click(selector string) error {
	return p.page.Click(selector)
}

func (p *pwPage) ClickNth(selector string, index int) error {
	item := p.page.Locator(selector).Nth(index)
	if err := item.ScrollIntoViewIfNeeded(); err != nil {
		return fmt.Errorf("failed to scroll item %d into view: %w", index, err)
	}
	return item.Click()
}

func (p *pwPage) ClickLast(selector string) error {
	return p.page.Locator(selector).Last().Click()
}

func (p *pwPage) WaitVisible(selector string, timeout time.Duration) error {
	_, err := p.page.WaitForSelector(selector, playwright.PageWaitForSelectorOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: ms(timeout),
	})
	return err
}

func (p *pwPage) WaitDetached(selector string, timeout time.Duration) error {
	_, err := p.page.WaitForSelector(selector, playwright.PageWaitForSelectorOptions{
		State:   playwright.WaitForSelectorStateDetached,
		Timeout: ms(timeout),
	})
	return err
}

// enabledJS mirrors the site quirk where a button stays styled as
// disabled past the point where submission is valid.
const enabledJS = `(sel) => {
	const b = document.querySelector(sel);
	return !!b && !b.disabled && !b.classList.contains('kt-button--disabled');
}`

func (p *pwPage) WaitEnabled(selector string, timeout time.Duration) error {
	_, err := p.page.WaitForFunction(enabledJS, selector, playwright.PageWaitForFunctionOptions{
		Timeout: ms(timeout),
	})
	return err
}

func (p *pwPage) WaitForAny(timeout time.Duration, selectors ...string) error {
	quoted := make([]string, len(selectors))
	for i, sel := range selectors {
		quoted[i] = fmt.Sprintf("document.querySelector(%q)", sel)
	}
	expr := fmt.Sprintf("() => !!(%s)", strings.Join(quoted, " || "))
	_, err := p.page.WaitForFunction(expr, nil, playwright.PageWaitForFunctionOptions{
		Timeout: ms(timeout),
	})
	return err
}

func (p *pwPage) SetFiles(selector string, paths []string) error {
	files := make([]playwright.InputFile, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read upload file %s: %w", path, err)
		}
		files = append(files, playwright.InputFile{
			Name:     filepath.Base(path),
			MimeType: http.DetectContentType(data),
			Buffer:   data,
		})
	}
	return p.page.SetInputFiles(selector, files)
}

func (p *pwPage) PressEnter() error {
	return p.page.Keyboard().Press("Enter")
}

func (p *pwPage) Evaluate(expression string) error {
	_, err := p.page.Evaluate(expression)
	return err
}

func (p *pwPage) Screenshot(path string) error {
	_, err := p.page.Screenshot(playwright.PageScreenshotOptions{
		Path:     playwright.String(path),
		FullPage: playwright.Bool(true),
	})
	return err
}

func (p *pwPage) Content() (string, error) {
	return p.page.Content()
}

func (p *pwPage) URL() string {
	return p.page.URL()
}

func (p *pwPage) IsClosed() bool {
	return p.page.IsClosed()
}

func (p *pwPage) Close() error {
	return p.page.Close()
}
