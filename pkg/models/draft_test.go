package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDraftValidate(t *testing.T) {
	valid := ListingDraft{
		CategoryIndex: 1,
		Title:         "Sofa, three seats",
		Description:   "Good condition.",
		Price:         "1200000",
		ImagePaths:    []string{"/tmp/sofa.jpg"},
	}

	t.Run("valid draft", func(t *testing.T) {
		assert.NoError(t, valid.Validate())
	})

	t.Run("empty title", func(t *testing.T) {
		d := valid
		d.Title = "   "
		err := d.Validate()
		require.Error(t, err)
		assert.Equal(t, ErrInvalidInput, KindOf(err))
	})

	t.Run("negative category index", func(t *testing.T) {
		d := valid
		d.CategoryIndex = -1
		err := d.Validate()
		require.Error(t, err)
		assert.Equal(t, ErrInvalidInput, KindOf(err))
	})

	t.Run("non-numeric price", func(t *testing.T) {
		for _, price := range []string{"", "abc", "1,200,000", "-500", "12.5"} {
			d := valid
			d.Price = price
			assert.Error(t, d.Validate(), "price %q should be rejected", price)
		}
	})

	t.Run("zero price is numeric", func(t *testing.T) {
		d := valid
		d.Price = "0"
		assert.NoError(t, d.Validate())
	})

	t.Run("no images passes static validation", func(t *testing.T) {
		// Image presence is checked by the upload stage, not here.
		d := valid
		d.ImagePaths = nil
		assert.NoError(t, d.Validate())
	})
}
