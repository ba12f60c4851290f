package models

import (
	"fmt"
	"regexp"
	"strings"
)

var priceDigits = regexp.MustCompile(`^[0-9]+$`)

// ListingDraft carries everything the posting pipeline needs for one
// submission. Drafts are per-invocation and never persisted.
type ListingDraft struct {
	CategoryIndex int      `json:"categoryIndex"`
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	Price         string   `json:"price"`
	ImagePaths    []string `json:"imagePaths"`
}

// Validate checks everything that can be checked without a browser.
// Image presence is deliberately not checked here: the remote site is
// the authority on mandatory images, so an empty list fails later at
// the upload stage with a diagnostic capture.
func (d ListingDraft) Validate() error {
	if strings.TrimSpace(d.Title) == "" {
		return NewStageError(StageFillTitle, ErrInvalidInput, fmt.Errorf("title must not be empty"))
	}
	if d.CategoryIndex < 0 {
		return NewStageError(StagePickCategory, ErrInvalidInput, fmt.Errorf("category index %d must not be negative", d.CategoryIndex))
	}
	if !priceDigits.MatchString(strings.TrimSpace(d.Price)) {
		return NewStageError(StageFillPrice, ErrInvalidInput, fmt.Errorf("price %q must be a numeric string", d.Price))
	}
	return nil
}
