// Package cardtext converts a card's name and description to and from the
// plain-text buffer shown in the user's editor.
//
// The buffer layout is:
//
//	Card name
//	=========
//	Description, any number of lines.
//
// The name may span several lines. It ends at the first line made only of
// '=' characters. The delimiter does not have to match the name width when
// decoding, so users can grow or shrink the name without touching it.
package cardtext

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"
)

// Delimiter is the character the name separator line is made of.
const Delimiter = '='

// ErrMissingDelimiter is returned by Decode when no separator line exists.
var ErrMissingDelimiter = errors.New("missing delimiter")

// Contents is the editable part of a card.
type Contents struct {
	Name string
	Desc string
}

// Encode renders name and desc into an editor buffer.
func Encode(name, desc string) string {
	return Header(name, Delimiter) + "\n" + desc
}

// Header returns text followed by a line of ch as wide as text is on screen.
// Wide characters count by display width, not by byte or rune length.
func Header(text string, ch rune) string {
	return text + "\n" + strings.Repeat(string(ch), headerWidth(text))
}

func headerWidth(text string) int {
	width := 1

	for _, line := range strings.Split(text, "\n") {
		width = max(width, runewidth.StringWidth(line))
	}

	return width
}

// Decode parses an editor buffer back into card contents.
// The first line always belongs to the name. Callers should strip trailing
// blank lines (see TrimTrailing) before decoding.
func Decode(buf string) (Contents, error) {
	lines := strings.Split(buf, "\n")

	for idx := 1; idx < len(lines); idx++ {
		if !isDelimiterLine(lines[idx]) {
			continue
		}

		return Contents{
			Name: strings.Join(lines[:idx], "\n"),
			Desc: strings.Join(lines[idx+1:], "\n"),
		}, nil
	}

	return Contents{}, fmt.Errorf("%w: expected a line of %q after the card name", ErrMissingDelimiter, Delimiter)
}

// TrimTrailing removes the trailing newlines and blank lines editors tend to
// append. Whitespace at the end of the last non-blank line is kept, so a
// markdown hard break ("two spaces") survives.
func TrimTrailing(buf string) string {
	for {
		trimmed := strings.TrimRight(buf, "\r\n")

		idx := strings.LastIndexByte(trimmed, '\n')
		if strings.TrimSpace(trimmed[idx+1:]) != "" || trimmed == "" {
			return trimmed
		}

		if idx < 0 {
			return ""
		}

		buf = trimmed[:idx]
	}
}

func isDelimiterLine(line string) bool {
	if line == "" {
		return false
	}

	return strings.Trim(line, string(Delimiter)) == ""
}
