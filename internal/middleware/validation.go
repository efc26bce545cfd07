package middleware

import (
	"regexp"
	"strings"

	"github.com/gofiber/fiber/v3"
)

// Field length limits enforced at the API boundary.
const (
	MaxEntityIDLen = 64
	MaxVideoIDLen  = 16
	MaxContentLen  = 10000
	MaxTitleLen    = 200
	MaxWordLen     = 100
	MaxNameLen     = 100
	MaxLanguageLen = 8
	MaxTags        = 20
)

var (
	// entityIDRe matches generated entity ids: uuids and legacy opaque ids.
	entityIDRe = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
	// videoIDRe matches YouTube video ids: alphanumeric, dash, underscore.
	videoIDRe = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
	// languageRe matches BCP 47-ish tags like "en", "nb", "pt-BR".
	languageRe = regexp.MustCompile(`^[A-Za-z]{2,3}(-[A-Za-z0-9]{2,8})?$`)
)

// ErrorResponse is a helper that returns a standard API error response.
func ErrorResponse(c fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    code,
			"message": message,
		},
	})
}

// ValidateEntityID checks a note/chat/word/wordlist id from the path.
func ValidateEntityID(id string) (string, string) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", "id is required"
	}
	if len(id) > MaxEntityIDLen {
		return "", "id must be at most 64 characters"
	}
	if !entityIDRe.MatchString(id) {
		return "", "id contains invalid characters"
	}
	return id, ""
}

// ValidateVideoID checks that a video id is well-formed.
func ValidateVideoID(id string) (string, string) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", "videoId is required"
	}
	if len(id) > MaxVideoIDLen {
		return "", "videoId must be at most 16 characters"
	}
	if !videoIDRe.MatchString(id) {
		return "", "videoId contains invalid characters"
	}
	return id, ""
}

// ValidateContent bounds free text (note contents, chat messages).
func ValidateContent(content string) (string, string) {
	if strings.TrimSpace(content) == "" {
		return "", "content is required"
	}
	if len(content) > MaxContentLen {
		return "", "content must be at most 10000 characters"
	}
	return content, ""
}

// ValidateWord checks the word text of a vocabulary entry.
func ValidateWord(word string) (string, string) {
	word = strings.TrimSpace(word)
	if word == "" {
		return "", "word is required"
	}
	if len(word) > MaxWordLen {
		return "", "word must be at most 100 characters"
	}
	return word, ""
}

// ValidateName checks a wordlist name.
func ValidateName(name string) (string, string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", "name is required"
	}
	if len(name) > MaxNameLen {
		return "", "name must be at most 100 characters"
	}
	return name, ""
}

// ValidateLanguage checks a language tag. Empty is allowed; the store
// falls back to the user's default.
func ValidateLanguage(lang string) (string, string) {
	lang = strings.TrimSpace(lang)
	if lang == "" {
		return "", ""
	}
	if len(lang) > MaxLanguageLen || !languageRe.MatchString(lang) {
		return "", "language must be a valid language tag"
	}
	return lang, ""
}

// ValidateTags trims and bounds a tag list.
func ValidateTags(tags []string) ([]string, string) {
	if len(tags) > MaxTags {
		return nil, "at most 20 tags are allowed"
	}
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if len(t) > MaxNameLen {
			return nil, "tags must be at most 100 characters each"
		}
		out = append(out, t)
	}
	return out, ""
}
