package cli

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/MichaelAquilina/tro/internal/find"
	"github.com/MichaelAquilina/tro/internal/trello"

	flag "github.com/spf13/pflag"
)

// ErrInteractiveWithDelete is returned by label when -i and -d are combined.
var ErrInteractiveWithDelete = errors.New("cannot combine --delete with interactive mode")

// LabelCmd returns the label command.
func LabelCmd(a *app) *Command {
	flags := flag.NewFlagSet("label", flag.ContinueOnError)
	pf := addPatternFlags(flags)
	remove := flags.BoolP("delete", "d", false, "Remove the labels instead of applying them")
	interactive := flags.BoolP("interactive", "i", false, "Pick the card's labels from a numbered list")

	return &Command{
		Flags: flags,
		Usage: "label <board> <list> <card> [label...]",
		Short: "Apply or remove card labels",
		Long: `Apply each board label matching a pattern to the card. With -d, remove
the card's labels matching the patterns instead. Patterns that match nothing
are reported as warnings. With -i, the board labels are listed with the
card's current labels marked; the selection becomes the card's labels.`,
		Exec: func(ctx context.Context, o *IO, args []string) error {
			if len(args) < 3 {
				return ErrCardRequired
			}

			if *interactive && *remove {
				return ErrInteractiveWithDelete
			}

			if *interactive && len(args) > 3 {
				return fmt.Errorf("%w: %v", ErrTooManyArgs, args[3:])
			}

			if !*interactive && len(args) < 4 {
				return ErrLabelRequired
			}

			params, err := pf.params(args[:3])
			if err != nil {
				return err
			}

			c, res, err := a.locate(ctx, params)
			if err != nil {
				return err
			}

			if res.Card == nil {
				return ErrCardRequired
			}

			if *interactive {
				return selectLabels(ctx, o, a, c, *res.Card, res.Board.ID)
			}

			patterns := args[3:]

			if *remove {
				removeLabels(ctx, o, a, c, *res.Card, patterns, params.IgnoreCase)

				return nil
			}

			boardLabels, err := c.BoardLabels(ctx, res.Board.ID)
			if err != nil {
				return err
			}

			applyLabels(ctx, o, a, c, *res.Card, boardLabels, patterns, params.IgnoreCase)

			return nil
		},
	}
}

// selectLabels lets the user pick the card's labels out of the board labels,
// then applies the new ones and removes the deselected ones.
func selectLabels(ctx context.Context, o *IO, a *app, c *trello.Client, card trello.Card, boardID string) error {
	boardLabels, err := c.BoardLabels(ctx, boardID)
	if err != nil {
		return err
	}

	display := make([]string, len(boardLabels))
	selected := make([]bool, len(boardLabels))

	for i, l := range boardLabels {
		display[i] = fmt.Sprintf("%s (%s)", l.Name, l.Color)
		selected[i] = card.HasLabel(l.ID)
	}

	picked, ok, err := chooseMany(o, a.prompter(), trello.KindLabel, display, selected)
	if err != nil || !ok {
		return err
	}

	keep := make(map[string]bool, len(picked))

	for _, idx := range picked {
		label := boardLabels[idx]
		keep[label.ID] = true

		if card.HasLabel(label.ID) {
			continue
		}

		err := c.ApplyLabel(ctx, card.ID, label.ID)
		if err != nil {
			o.Warnf("%v", err)

			continue
		}

		o.Printf("Applied [%s] label\n", label.Name)
	}

	for _, label := range card.Labels {
		if keep[label.ID] {
			continue
		}

		err := c.RemoveLabel(ctx, card.ID, label.ID)
		if err != nil {
			o.Warnf("%v", err)

			continue
		}

		a.log.Debug("label deselected", zap.String("label", label.ID))
		o.Printf("Removed [%s] label\n", label.Name)
	}

	return nil
}

func removeLabels(ctx context.Context, o *IO, a *app, c *trello.Client, card trello.Card, patterns []string, ignoreCase bool) {
	remaining := card.Labels

	for _, pattern := range patterns {
		label, err := find.Resolve(remaining, pattern, ignoreCase)
		if err != nil {
			a.log.Debug("label not removed", zap.String("pattern", pattern), zap.Error(err))
			o.Warnf("%v", err)

			continue
		}

		err = c.RemoveLabel(ctx, card.ID, label.ID)
		if err != nil {
			o.Warnf("%v", err)

			continue
		}

		remaining = withoutLabel(remaining, label.ID)

		o.Printf("Removed [%s] label\n", label.Name)
	}
}

func withoutLabel(labels []trello.Label, id string) []trello.Label {
	out := make([]trello.Label, 0, len(labels))
	for _, l := range labels {
		if l.ID != id {
			out = append(out, l)
		}
	}

	return out
}
