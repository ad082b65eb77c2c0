package validation

import (
	"errors"
	"strings"
	"unicode/utf8"
)

// ValidatePostTitle requires a non-blank title of at most 300 characters.
func ValidatePostTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return errors.New("title is required")
	}
	if utf8.RuneCountInString(title) > maxTitleLength {
		return errors.New("title too long (max 300 characters)")
	}
	return nil
}

// ValidatePostContent requires non-blank content of at most 50000 characters.
func ValidatePostContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return errors.New("content is required")
	}
	if utf8.RuneCountInString(content) > maxContentLength {
		return errors.New("content too long (max 50000 characters)")
	}
	return nil
}
