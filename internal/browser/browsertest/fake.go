// Package browsertest provides a scriptable in-memory Page for testing
// the login and posting flows without a live browser.
package browsertest

import (
	"os"
	"time"

	"github.com/shehryarbajwa/divar-automation/internal/browser"
)

// Call records one operation performed against the fake page.
type Call struct {
	Op       string
	Selector string
	Value    string
	Index    int
}

// FakePage implements browser.Page. Element presence is driven by the
// Counts map (or CountFunc for stateful scenarios); individual waits
// can be scripted to fail via the error maps.
type FakePage struct {
	// Counts maps selector -> number of matching elements.
	Counts map[string]int

	// CountFunc, when set, overrides Counts entirely.
	CountFunc func(selector string) (int, error)

	// OnGoto runs after every successful navigation, letting a test
	// mutate page state as the "site" responds.
	OnGoto func(url string)

	// OnClick runs after every successful click.
	OnClick func(selector string)

	GotoErr          error
	WaitVisibleErrs  map[string]error
	WaitDetachedErrs map[string]error
	WaitEnabledErr   error
	WaitForAnyErr    error
	ScreenshotErr    error
	ContentErr       error

	// HTML is what Content returns.
	HTML string

	CurrentURL string
	Closed     bool
	Calls      []Call
}

var _ browser.Page = (*FakePage)(nil)

func New() *FakePage {
	return &FakePage{
		Counts:           make(map[string]int),
		WaitVisibleErrs:  make(map[string]error),
		WaitDetachedErrs: make(map[string]error),
		HTML:             "<html><body>fake</body></html>",
	}
}

func (f *FakePage) record(op, selector, value string, index int) {
	f.Calls = append(f.Calls, Call{Op: op, Selector: selector, Value: value, Index: index})
}

// CallsOf returns all recorded calls for one operation.
func (f *FakePage) CallsOf(op string) []Call {
	var out []Call
	for _, c := range f.Calls {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

// Did reports whether op was performed against selector.
func (f *FakePage) Did(op, selector string) bool {
	for _, c := range f.Calls {
		if c.Op == op && c.Selector == selector {
			return true
		}
	}
	return false
}

func (f *FakePage) Goto(url string, timeout time.Duration) error {
	f.record("goto", url, "", 0)
	if f.GotoErr != nil {
		return f.GotoErr
	}
	f.CurrentURL = url
	if f.OnGoto != nil {
		f.OnGoto(url)
	}
	return nil
}

func (f *FakePage) Count(selector string) (int, error) {
	if f.CountFunc != nil {
		return f.CountFunc(selector)
	}
	return f.Counts[selector], nil
}

func (f *FakePage) Fill(selector, value string) error {
	f.record("fill", selector, value, 0)
	return nil
}

func (f *FakePage) TypeSlowly(selector, value string, delay time.Duration) error {
	f.record("type", selector, value, 0)
	return nil
}

func (f *FakePage) Click(selector string) error {
	f.record("click", selector, "", 0)
	if f.OnClick != nil {
		f.OnClick(selector)
	}
	return nil
}

func (f *FakePage) ClickNth(selector string, index int) error {
	f.record("click_nth", selector, "", index)
	return nil
}

func (f *FakePage) ClickLast(selector string) error {
	f.record("click_last", selector, "", 0)
	return nil
}

func (f *FakePage) WaitVisible(selector string, timeout time.Duration) error {
	f.record("wait_visible", selector, "", 0)
	return f.WaitVisibleErrs[selector]
}

func (f *FakePage) WaitDetached(selector string, timeout time.Duration) error {
	f.record("wait_detached", selector, "", 0)
	return f.WaitDetachedErrs[selector]
}

func (f *FakePage) WaitEnabled(selector string, timeout time.Duration) error {
	f.record("wait_enabled", selector, "", 0)
	return f.WaitEnabledErr
}

func (f *FakePage) WaitForAny(timeout time.Duration, selectors ...string) error {
	f.record("wait_any", "", "", 0)
	return f.WaitForAnyErr
}

func (f *FakePage) SetFiles(selector string, paths []string) error {
	f.record("set_files", selector, "", len(paths))
	return nil
}

func (f *FakePage) PressEnter() error {
	f.record("press_enter", "", "", 0)
	return nil
}

func (f *FakePage) Evaluate(expression string) error {
	f.record("evaluate", expression, "", 0)
	return nil
}

func (f *FakePage) Screenshot(path string) error {
	f.record("screenshot", path, "", 0)
	if f.ScreenshotErr != nil {
		return f.ScreenshotErr
	}
	return os.WriteFile(path, []byte("png"), 0644)
}

func (f *FakePage) Content() (string, error) {
	if f.ContentErr != nil {
		return "", f.ContentErr
	}
	return f.HTML, nil
}

func (f *FakePage) URL() string {
	return f.CurrentURL
}

func (f *FakePage) IsClosed() bool {
	return f.Closed
}

func (f *FakePage) Close() error {
	f.Closed = true
	return nil
}
