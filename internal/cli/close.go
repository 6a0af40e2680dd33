package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/MichaelAquilina/tro/internal/find"
	"github.com/MichaelAquilina/tro/internal/trello"

	flag "github.com/spf13/pflag"
)

// ErrNothingToClose is returned by close without any pattern.
var ErrNothingToClose = errors.New("a board, list or card must be specified")

// CloseCmd returns the close command.
func CloseCmd(a *app) *Command {
	flags := flag.NewFlagSet("close", flag.ContinueOnError)
	pf := addPatternFlags(flags)
	interactive := flags.BoolP("interactive", "i", false, "Pick the objects to close from a numbered list")

	return &Command{
		Flags: flags,
		Usage: "close <board> [list] [card]",
		Short: "Close (archive) a board, list or card",
		Long: `Close the most specific object matched by the patterns. With -i, pick
any number of the boards, lists or cards one level below the patterns; the
board pattern may then be omitted to pick boards.`,
		Exec: func(ctx context.Context, o *IO, args []string) error {
			params, err := pf.params(args)
			if err != nil {
				return err
			}

			if params.BoardName == "" && !*interactive {
				return ErrNothingToClose
			}

			c, res, err := a.locate(ctx, params)
			if err != nil {
				return err
			}

			if *interactive {
				return closeInteractive(ctx, o, a, c, res)
			}

			switch {
			case res.Card != nil:
				return closeObject(ctx, o, c, *res.Card)
			case res.List != nil:
				return closeObject(ctx, o, c, *res.List)
			default:
				return closeObject(ctx, o, c, *res.Board)
			}
		},
	}
}

func closeInteractive(ctx context.Context, o *IO, a *app, c *trello.Client, res find.Result) error {
	switch {
	case res.Card != nil:
		return ErrInteractiveWithCard
	case res.List != nil:
		return closeSelected(ctx, o, a, c, trello.KindCard, res.List.Cards, cardNames(res.List.Cards))
	case res.Board != nil:
		return closeSelected(ctx, o, a, c, trello.KindList, res.Board.Lists, names(res.Board.Lists))
	default:
		boards, err := c.Boards(ctx)
		if err != nil {
			return err
		}

		return closeSelected(ctx, o, a, c, trello.KindBoard, boards, names(boards))
	}
}

// closeSelected closes the objects picked by the user. A failure is reported
// and the remaining objects are still closed.
func closeSelected[T trello.Named](ctx context.Context, o *IO, a *app, c *trello.Client, kind string, objects []T, labels []string) error {
	picked, ok, err := chooseMany(o, a.prompter(), kind, labels, nil)
	if err != nil || !ok {
		return err
	}

	for _, idx := range picked {
		err := closeObject(ctx, o, c, objects[idx])
		if err != nil {
			o.Warnf("%v", err)
		}
	}

	return nil
}

func closeObject(ctx context.Context, o *IO, c *trello.Client, obj trello.Named) error {
	var (
		closed trello.Named
		err    error
	)

	switch v := obj.(type) {
	case trello.Card:
		v.Closed = true
		closed, err = c.UpdateCard(ctx, v)
	case trello.List:
		v.Closed = true
		closed, err = c.UpdateList(ctx, v)
	case trello.Board:
		v.Closed = true
		closed, err = c.UpdateBoard(ctx, v)
	default:
		return fmt.Errorf("%w: %s", trello.ErrUnknownKind, obj.Kind())
	}

	if err != nil {
		return err
	}

	printChanged(o, "Closed", closed)

	return nil
}

// printChanged reports an object whose state was changed.
func printChanged(o *IO, verb string, obj trello.Named) {
	o.Printf("%s %s: '%s'\n", verb, lowerKind(obj), obj.GetName())
	o.Println("id:", obj.GetID())
}

func lowerKind(obj trello.Named) string {
	switch obj.Kind() {
	case trello.KindBoard:
		return "board"
	case trello.KindList:
		return "list"
	default:
		return "card"
	}
}
