package trello

import (
	"regexp"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/MichaelAquilina/tro/internal/cardtext"
)

// Title renders text padded by one space over a '=' border.
func Title(text string) string {
	border := strings.Repeat("=", runewidth.StringWidth(text))

	return " " + text + " \n=" + border + "="
}

// RenderBoard renders the board title followed by each of its fetched lists.
func RenderBoard(b Board) string {
	parts := []string{Title(b.Name)}

	for _, l := range b.Lists {
		parts = append(parts, "", RenderList(l))
	}

	return strings.Join(parts, "\n")
}

// RenderList renders the list header followed by one line per card.
func RenderList(l List) string {
	parts := []string{cardtext.Header(l.Name, '-')}

	for _, c := range l.Cards {
		parts = append(parts, "* "+SimpleCard(c))
	}

	return strings.Join(parts, "\n")
}

// SimpleCard renders the card name with its labels appended.
func SimpleCard(c Card) string {
	var b strings.Builder

	b.WriteString(c.Name)

	for _, l := range c.Labels {
		b.WriteString(" [" + l.Name + "]")
	}

	return b.String()
}

// RenderCard renders the card name over a '=' header and its description.
func RenderCard(c Card) string {
	desc := c.Desc
	if desc == "" {
		desc = "<No Description>"
	}

	return cardtext.Header(c.Name, cardtext.Delimiter) + "\n" + desc
}

// FilterBoard returns a copy of b whose lists only keep cards carrying a label
// matched by re.
func FilterBoard(b Board, re *regexp.Regexp) Board {
	if b.Lists == nil {
		return b
	}

	lists := make([]List, 0, len(b.Lists))
	for _, l := range b.Lists {
		lists = append(lists, FilterList(l, re))
	}

	b.Lists = lists

	return b
}

// FilterList returns a copy of l that only keeps cards carrying a label
// matched by re.
func FilterList(l List, re *regexp.Regexp) List {
	if l.Cards == nil {
		return l
	}

	cards := make([]Card, 0, len(l.Cards))

	for _, c := range l.Cards {
		for _, label := range c.Labels {
			if re.MatchString(label.Name) {
				cards = append(cards, c)

				break
			}
		}
	}

	l.Cards = cards

	return l
}
