package cli

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/MichaelAquilina/tro/internal/find"
	"github.com/MichaelAquilina/tro/internal/trello"

	flag "github.com/spf13/pflag"
)

// CreateCmd returns the create command.
func CreateCmd(a *app) *Command {
	flags := flag.NewFlagSet("create", flag.ContinueOnError)
	pf := addPatternFlags(flags)
	name := flags.StringP("name", "n", "", "Name of the new object (prompted when empty)")
	labels := flags.StringArrayP("label", "l", nil, "Label pattern to apply to a new card (repeatable)")
	show := flags.BoolP("show", "s", false, "Open a new card in $EDITOR")

	return &Command{
		Flags: flags,
		Usage: "create [board] [list]",
		Short: "Create a board, list or card",
		Long: `Without arguments, create a board. With a board pattern, create a list
on it. With a board and list pattern, create a card at the bottom of the list.`,
		Exec: func(ctx context.Context, o *IO, args []string) error {
			if len(args) > 2 {
				return fmt.Errorf("%w: %v", ErrTooManyArgs, args[2:])
			}

			params, err := pf.params(args)
			if err != nil {
				return err
			}

			c, res, err := a.locate(ctx, params)
			if err != nil {
				return err
			}

			switch {
			case res.List != nil:
				return createCard(ctx, o, a, c, res, createCardInput{
					name:     *name,
					labels:   *labels,
					show:     *show,
					caseless: params.IgnoreCase,
				})
			case res.Board != nil:
				listName, err := a.nameOrPrompt(*name, "List name: ")
				if err != nil {
					return err
				}

				list, err := c.CreateList(ctx, res.Board.ID, listName)
				if err != nil {
					return err
				}

				printChanged(o, "Created", list)
			default:
				boardName, err := a.nameOrPrompt(*name, "Board name: ")
				if err != nil {
					return err
				}

				board, err := c.CreateBoard(ctx, boardName)
				if err != nil {
					return err
				}

				printChanged(o, "Created", board)
			}

			return nil
		},
	}
}

type createCardInput struct {
	name     string
	labels   []string
	show     bool
	caseless bool
}

func createCard(ctx context.Context, o *IO, a *app, c *trello.Client, res find.Result, in createCardInput) error {
	cardName, err := a.nameOrPrompt(in.name, "Card name: ")
	if err != nil {
		return err
	}

	card, err := c.CreateCard(ctx, res.List.ID, cardName, "")
	if err != nil {
		return err
	}

	printChanged(o, "Created", card)

	if len(in.labels) > 0 {
		boardLabels, err := c.BoardLabels(ctx, res.Board.ID)
		if err != nil {
			return err
		}

		card = applyLabels(ctx, o, a, c, card, boardLabels, in.labels, in.caseless)
	}

	if in.show {
		return a.editCard(ctx, c, card)
	}

	return nil
}

// applyLabels resolves each pattern against the board labels not yet on card
// and applies the match, returning the card with its new labels. Patterns that
// resolve to nothing are reported as warnings; the remaining patterns are
// still applied.
func applyLabels(ctx context.Context, o *IO, a *app, c *trello.Client, card trello.Card, boardLabels []trello.Label, patterns []string, ignoreCase bool) trello.Card {
	for _, pattern := range patterns {
		available := make([]trello.Label, 0, len(boardLabels))
		for _, l := range boardLabels {
			if !card.HasLabel(l.ID) {
				available = append(available, l)
			}
		}

		label, err := find.Resolve(available, pattern, ignoreCase)
		if err != nil {
			a.log.Debug("label not applied", zap.String("pattern", pattern), zap.Error(err))
			o.Warnf("Label with pattern '%s' not found or is already assigned", pattern)

			continue
		}

		err = c.ApplyLabel(ctx, card.ID, label.ID)
		if err != nil {
			o.Warnf("%v", err)

			continue
		}

		card.Labels = append(card.Labels, label)

		o.Printf("Applied [%s] label\n", label.Name)
	}

	return card
}

// nameOrPrompt returns name, prompting for one when it is empty.
func (a *app) nameOrPrompt(name, prompt string) (string, error) {
	if name == "" {
		var err error

		name, err = a.prompter().Prompt(prompt)
		if err != nil {
			return "", fmt.Errorf("read name: %w", err)
		}
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrNameRequired
	}

	return name, nil
}
