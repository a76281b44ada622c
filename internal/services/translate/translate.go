// Package translate turns extracted PDF text into another language.
//
// Two backends are supported: a LibreTranslate-compatible HTTP endpoint and
// any OpenAI-compatible chat model (via eino). Both sit behind the
// Translator interface so the worker doesn't care which one a job uses.
package translate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// DefaultChunkSize is the largest piece of text sent in one request.
const DefaultChunkSize = 4000

// AutoDetect asks the backend to detect the source language.
const AutoDetect = "auto"

// ErrNotConfigured means the backend is missing its endpoint or credentials.
var ErrNotConfigured = errors.New("translation backend not configured")

// Translator translates plain text.
//
// Go Pattern: Interfaces are defined where they're used, and they're small.
// Anything with this one method can be dropped in as a backend, which also
// makes the worker trivial to test with a fake.
type Translator interface {
	Translate(ctx context.Context, text, source, target string) (string, error)
	Name() string
}

// NormalizeLanguage turns user input like "PT-br" or "en_US" into the bare
// base language code ("pt", "en") that translation endpoints expect.
func NormalizeLanguage(code string) (string, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return "", fmt.Errorf("language code is required")
	}
	if strings.EqualFold(code, AutoDetect) {
		return AutoDetect, nil
	}

	tag, err := language.Parse(strings.ReplaceAll(code, "_", "-"))
	if err != nil {
		return "", fmt.Errorf("invalid language code %q: %w", code, err)
	}
	base, conf := tag.Base()
	if conf == language.No {
		return "", fmt.Errorf("invalid language code %q", code)
	}
	return base.String(), nil
}

// LanguageName returns the English name of a language code, for prompts.
// Unknown codes come back unchanged.
func LanguageName(code string) string {
	if code == AutoDetect {
		return "the detected source language"
	}
	tag, err := language.Parse(code)
	if err != nil {
		return code
	}
	if name := display.English.Languages().Name(tag); name != "" {
		return name
	}
	return code
}

var chunkSeparators = []string{"\n\n", "\n", " "}

// Chunk splits text into pieces of at most max bytes, preferring paragraph
// breaks, then line breaks, then spaces. Separators stay attached to the
// piece they end, so joining the chunks gives back the original text.
func Chunk(text string, max int) []string {
	if max <= 0 {
		max = DefaultChunkSize
	}
	if text == "" {
		return nil
	}
	return pack(text, max, 0)
}

func pack(text string, max, level int) []string {
	if len(text) <= max {
		return []string{text}
	}
	if level >= len(chunkSeparators) {
		return splitRunes(text, max)
	}

	var chunks []string
	current := ""
	for _, part := range strings.SplitAfter(text, chunkSeparators[level]) {
		if part == "" {
			continue
		}
		if len(part) > max {
			if current != "" {
				chunks = append(chunks, current)
				current = ""
			}
			chunks = append(chunks, pack(part, max, level+1)...)
			continue
		}
		if len(current)+len(part) > max {
			chunks = append(chunks, current)
			current = ""
		}
		current += part
	}
	if current != "" {
		chunks = append(chunks, current)
	}
	return chunks
}

// splitRunes cuts text every max bytes without breaking a UTF-8 sequence.
func splitRunes(text string, max int) []string {
	var chunks []string
	for len(text) > max {
		cut := max
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		if cut == 0 {
			_, cut = utf8.DecodeRuneInString(text)
		}
		chunks = append(chunks, text[:cut])
		text = text[cut:]
	}
	if text != "" {
		chunks = append(chunks, text)
	}
	return chunks
}

// TranslateLong chunks text, translates each chunk in order and joins the
// results. Whitespace around each chunk is kept as-is so paragraph layout
// survives; chunks that are only whitespace are not sent.
func TranslateLong(ctx context.Context, t Translator, text, source, target string, max int) (string, error) {
	var sb strings.Builder
	for i, chunk := range Chunk(text, max) {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		core := strings.TrimFunc(chunk, unicode.IsSpace)
		if core == "" {
			sb.WriteString(chunk)
			continue
		}
		lead := chunk[:strings.Index(chunk, core)]
		trail := chunk[len(lead)+len(core):]

		translated, err := t.Translate(ctx, core, source, target)
		if err != nil {
			return "", fmt.Errorf("chunk %d: %w", i+1, err)
		}
		sb.WriteString(lead)
		sb.WriteString(strings.TrimSpace(translated))
		sb.WriteString(trail)
	}
	return sb.String(), nil
}
