package validation

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"librarium/internal/models"
)

// Field limits for catalog entities.
const (
	MaxTitleLength       = 255
	MaxDescriptionLength = 250
	MaxCommentLength     = 300
	MaxAuthorNameLength  = 100
	MaxTagLength         = 100
)

// ValidateTitle requires a non-blank title within MaxTitleLength.
func ValidateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("title is required")
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return fmt.Errorf("title must not exceed %d characters", MaxTitleLength)
	}
	return nil
}

// ValidateDescription bounds the book description length.
func ValidateDescription(description string) error {
	if utf8.RuneCountInString(description) > MaxDescriptionLength {
		return fmt.Errorf("description must not exceed %d characters", MaxDescriptionLength)
	}
	return nil
}

// ValidateYearPublished rejects publication years in the future relative to now.
func ValidateYearPublished(year int, now time.Time) error {
	if year > now.Year() {
		return fmt.Errorf("year_published must not be later than %d", now.Year())
	}
	return nil
}

// ValidateQuantity rejects negative copy counts.
func ValidateQuantity(quantity int) error {
	if quantity < 0 {
		return fmt.Errorf("quantity must not be negative")
	}
	return nil
}

// ValidateCommentContent requires 1 to MaxCommentLength characters of non-blank text.
func ValidateCommentContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("comment content cannot be empty")
	}
	if utf8.RuneCountInString(content) > MaxCommentLength {
		return fmt.Errorf("comment content must not exceed %d characters", MaxCommentLength)
	}
	return nil
}

// ValidateRatingValue bounds a rating to [MinRatingValue, MaxRatingValue].
func ValidateRatingValue(value int) error {
	if value < models.MinRatingValue || value > models.MaxRatingValue {
		return fmt.Errorf("rating value must be between %d and %d", models.MinRatingValue, models.MaxRatingValue)
	}
	return nil
}

// ValidateName validates an author name or tag content against max.
func ValidateName(field, value string, max int) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s is required", field)
	}
	if utf8.RuneCountInString(value) > max {
		return fmt.Errorf("%s must not exceed %d characters", field, max)
	}
	return nil
}
