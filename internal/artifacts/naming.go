package artifacts

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DownloadName builds the file name a creation is exported under.
func DownloadName(recordID, ext string) string {
	ext = strings.TrimPrefix(strings.TrimSpace(ext), ".")
	if ext == "" {
		ext = "bin"
	}
	return fmt.Sprintf("glacia-creation-%s.%s", recordID, ext)
}

// Title derives a short display title from a prompt: punctuation collapsed
// to spaces, truncated on a word boundary, title-cased.
func Title(prompt string) string {
	cleaned := strings.Builder{}
	prevSpace := false
	for _, r := range prompt {
		switch {
		case unicode.IsLetter(r) || unicode.IsNumber(r):
			cleaned.WriteRune(r)
			prevSpace = false
		case unicode.IsSpace(r) || r == '-' || r == '_' || r == '.' || r == ',':
			if !prevSpace {
				cleaned.WriteRune(' ')
				prevSpace = true
			}
		}
	}
	title := strings.TrimSpace(cleaned.String())
	if title == "" {
		return "Untitled Creation"
	}

	const maxWords = 6
	words := strings.Fields(title)
	if len(words) > maxWords {
		words = words[:maxWords]
	}
	return cases.Title(language.Und).String(strings.Join(words, " "))
}
