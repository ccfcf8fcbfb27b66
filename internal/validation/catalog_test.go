package validation

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValidateYearPublished(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC)

	assert.NoError(t, ValidateYearPublished(1869, now))
	assert.NoError(t, ValidateYearPublished(2026, now))
	assert.ErrorContains(t, ValidateYearPublished(2027, now), "2026")
	assert.Error(t, ValidateYearPublished(3000, now))
}

func TestValidateCommentContent(t *testing.T) {
	t.Parallel()
	assert.NoError(t, ValidateCommentContent("Great read"))
	assert.NoError(t, ValidateCommentContent(strings.Repeat("я", MaxCommentLength)))
	assert.Error(t, ValidateCommentContent(""))
	assert.Error(t, ValidateCommentContent("   "))
	assert.Error(t, ValidateCommentContent(strings.Repeat("a", MaxCommentLength+1)))
}

func TestValidateRatingValue(t *testing.T) {
	t.Parallel()
	for v := 0; v <= 5; v++ {
		assert.NoError(t, ValidateRatingValue(v))
	}
	assert.Error(t, ValidateRatingValue(-1))
	assert.Error(t, ValidateRatingValue(6))
}

func TestValidateBookFields(t *testing.T) {
	t.Parallel()
	assert.NoError(t, ValidateTitle("War and Peace"))
	assert.Error(t, ValidateTitle(" "))
	assert.Error(t, ValidateTitle(strings.Repeat("t", MaxTitleLength+1)))

	assert.NoError(t, ValidateDescription(strings.Repeat("d", MaxDescriptionLength)))
	assert.Error(t, ValidateDescription(strings.Repeat("d", MaxDescriptionLength+1)))

	assert.NoError(t, ValidateQuantity(0))
	assert.Error(t, ValidateQuantity(-1))

	assert.NoError(t, ValidateName("name", "Leo Tolstoy", MaxAuthorNameLength))
	assert.ErrorContains(t, ValidateName("content", "", MaxTagLength), "content is required")
}
