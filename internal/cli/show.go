package cli

import (
	"context"
	"errors"
	"regexp"

	"github.com/MichaelAquilina/tro/internal/find"
	"github.com/MichaelAquilina/tro/internal/trello"

	flag "github.com/spf13/pflag"
)

// ErrInteractiveWithCard is returned by show -i when a card pattern is given.
var ErrInteractiveWithCard = errors.New("cannot use interactive mode if a card pattern is specified")

// ShowCmd returns the show command.
func ShowCmd(a *app) *Command {
	flags := flag.NewFlagSet("show", flag.ContinueOnError)
	pf := addPatternFlags(flags)
	labelFilter := flags.StringP("label-filter", "f", "", "Only show cards with a label matching this pattern")
	interactive := flags.BoolP("interactive", "i", false, "Pick the next level from a numbered list")
	printCard := flags.BoolP("print", "p", false, "Print a card instead of opening it in $EDITOR")

	return &Command{
		Flags: flags,
		Usage: "show [board] [list] [card]",
		Short: "Show boards, lists or edit a card",
		Long: `Without arguments, list the open boards. With a board or list pattern,
print that board or list with its cards. With a card pattern, open the card
in $EDITOR; every save is uploaded to Trello.`,
		Exec: func(ctx context.Context, o *IO, args []string) error {
			params, err := pf.params(args)
			if err != nil {
				return err
			}

			var filter *regexp.Regexp
			if *labelFilter != "" {
				filter, err = find.Compile(*labelFilter, true)
				if err != nil {
					return err
				}
			}

			c, res, err := a.locate(ctx, params)
			if err != nil {
				return err
			}

			if *interactive {
				return showInteractive(ctx, o, a, c, res, filter)
			}

			if *printCard && res.Card != nil {
				o.Println(trello.RenderCard(*res.Card))

				return nil
			}

			return execShow(ctx, o, a, c, res, filter)
		},
	}
}

func execShow(ctx context.Context, o *IO, a *app, c *trello.Client, res find.Result, filter *regexp.Regexp) error {
	switch {
	case res.Card != nil:
		return a.editCard(ctx, c, *res.Card)
	case res.List != nil:
		o.Println(trello.RenderList(filterList(*res.List, filter)))
	case res.Board != nil:
		o.Println(trello.RenderBoard(filterBoard(*res.Board, filter)))
	default:
		boards, err := c.Boards(ctx)
		if err != nil {
			return err
		}

		o.Println(trello.Title("Open Boards"))
		o.Println()

		for _, b := range boards {
			o.Println("* " + b.Name)
		}
	}

	return nil
}

func showInteractive(ctx context.Context, o *IO, a *app, c *trello.Client, res find.Result, filter *regexp.Regexp) error {
	switch {
	case res.Card != nil:
		return ErrInteractiveWithCard
	case res.List != nil:
		cards := filterList(*res.List, filter).Cards

		idx, ok, err := choose(o, a.prompter(), trello.KindCard, cardNames(cards))
		if err != nil || !ok {
			return err
		}

		return a.editCard(ctx, c, cards[idx])
	case res.Board != nil:
		lists := res.Board.Lists

		idx, ok, err := choose(o, a.prompter(), trello.KindList, names(lists))
		if err != nil || !ok {
			return err
		}

		o.Println(trello.RenderList(filterList(lists[idx], filter)))
	default:
		boards, err := c.Boards(ctx)
		if err != nil {
			return err
		}

		idx, ok, err := choose(o, a.prompter(), trello.KindBoard, names(boards))
		if err != nil || !ok {
			return err
		}

		board, err := c.BoardTree(ctx, boards[idx].ID)
		if err != nil {
			return err
		}

		o.Println(trello.RenderBoard(filterBoard(board, filter)))
	}

	return nil
}

func filterList(l trello.List, re *regexp.Regexp) trello.List {
	if re == nil {
		return l
	}

	return trello.FilterList(l, re)
}

func filterBoard(b trello.Board, re *regexp.Regexp) trello.Board {
	if re == nil {
		return b
	}

	return trello.FilterBoard(b, re)
}

func names[T trello.Named](objects []T) []string {
	out := make([]string, len(objects))
	for i, o := range objects {
		out[i] = o.GetName()
	}

	return out
}

func cardNames(cards []trello.Card) []string {
	out := make([]string, len(cards))
	for i, c := range cards {
		out[i] = trello.SimpleCard(c)
	}

	return out
}
