package cli

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/MichaelAquilina/tro/internal/trello"

	flag "github.com/spf13/pflag"
)

// SearchCmd returns the search command.
func SearchCmd(a *app) *Command {
	flags := flag.NewFlagSet("search", flag.ContinueOnError)
	partial := flags.BoolP("partial", "p", false, "Match words by prefix")
	limit := flags.IntP("limit", "n", 0, "Maximum number of cards to return")
	interactive := flags.BoolP("interactive", "i", false, "Pick a card to edit from the results")

	return &Command{
		Flags: flags,
		Usage: "search <query...>",
		Short: "Search cards",
		Long: `Search cards with the Trello search syntax. Words are joined with spaces.
A leading '~' on a word negates it (the same as '-', which would otherwise be
read as a flag), e.g. 'tro search is:open ~label:done'.`,
		Exec: func(ctx context.Context, o *IO, args []string) error {
			if len(args) == 0 {
				return ErrQueryRequired
			}

			c, err := a.client()
			if err != nil {
				return err
			}

			query := searchQuery(args)
			a.log.Debug("searching", zap.String("query", query))

			cards, err := c.SearchCards(ctx, query, trello.SearchOptions{Partial: *partial, CardsLimit: *limit})
			if err != nil {
				return err
			}

			if *interactive {
				idx, ok, err := choose(o, a.prompter(), trello.KindCard, cardNames(cards))
				if err != nil || !ok {
					return err
				}

				return a.editCard(ctx, c, cards[idx])
			}

			for _, card := range cards {
				o.Printf("%s id: %s\n", trello.SimpleCard(card), card.ID)
			}

			return nil
		},
	}
}

func searchQuery(words []string) string {
	out := make([]string, len(words))
	for i, w := range words {
		if rest, ok := strings.CutPrefix(w, "~"); ok {
			w = "-" + rest
		}

		out[i] = w
	}

	return strings.Join(out, " ")
}
