package models

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStageErrorMessage(t *testing.T) {
	base := errors.New("category list is empty")
	se := &StageError{
		Stage:          StagePickCategory,
		Kind:           ErrUnexpectedPageState,
		ScreenshotPath: "/tmp/dbg/pick_category_1.png",
		HTMLPath:       "/tmp/dbg/pick_category_1.html",
		Err:            base,
	}

	msg := se.Error()
	assert.Contains(t, msg, "stage pick_category")
	assert.Contains(t, msg, "unexpected_page_state")
	assert.Contains(t, msg, "category list is empty")
	assert.Contains(t, msg, "/tmp/dbg/pick_category_1.png")
}

func TestStageErrorWithoutArtifacts(t *testing.T) {
	se := NewStageError(StageStartLogin, ErrInvalidInput, errors.New("bad phone"))
	msg := se.Error()
	assert.NotContains(t, msg, "screenshot")
	assert.Contains(t, msg, "invalid_input")
}

func TestStageErrorUnwrap(t *testing.T) {
	base := errors.New("root cause")
	se := NewStageError(StageFillPrice, ErrUnexpectedPageState, base)
	assert.ErrorIs(t, se, base)
}

func TestKindOf(t *testing.T) {
	se := NewStageError(StageVerifyOTP, ErrRateLimited, errors.New("slow down"))

	assert.Equal(t, ErrRateLimited, KindOf(se))
	assert.Equal(t, ErrRateLimited, KindOf(fmt.Errorf("outer: %w", se)))
	assert.Equal(t, ErrorKind(""), KindOf(errors.New("plain")))
	assert.Equal(t, ErrorKind(""), KindOf(nil))
}
