package cli

import (
	"context"
	"errors"

	flag "github.com/spf13/pflag"
)

// ErrURLTargetRequired is returned by url without a board pattern.
var ErrURLTargetRequired = errors.New("a board must be specified")

// URLCmd returns the url command.
func URLCmd(a *app) *Command {
	flags := flag.NewFlagSet("url", flag.ContinueOnError)
	pf := addPatternFlags(flags)

	return &Command{
		Flags: flags,
		Usage: "url <board> [list] [card]",
		Short: "Print the web url of a board or card",
		Long:  "Print the url of the matched card. Lists have no url of their own, so the board url is printed for them.",
		Exec: func(ctx context.Context, o *IO, args []string) error {
			params, err := pf.params(args)
			if err != nil {
				return err
			}

			if params.BoardName == "" {
				return ErrURLTargetRequired
			}

			_, res, err := a.locate(ctx, params)
			if err != nil {
				return err
			}

			if res.Card != nil {
				o.Println(res.Card.URL)

				return nil
			}

			o.Println(res.Board.URL)

			return nil
		},
	}
}
