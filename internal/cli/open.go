package cli

import (
	"context"
	"fmt"
	"strings"

	flag "github.com/spf13/pflag"
)

// OpenCmd returns the open command.
func OpenCmd(a *app) *Command {
	return &Command{
		Flags: flag.NewFlagSet("open", flag.ContinueOnError),
		Usage: "open <type> <id>",
		Short: "Reopen a closed board, list or card",
		Long: `Reopen a closed object by id. Closed objects cannot be found by name,
so the id printed by close is required. type is board, list or card.`,
		Exec: func(ctx context.Context, o *IO, args []string) error {
			if len(args) < 2 {
				return ErrTypeAndIDRequired
			}

			if len(args) > 2 {
				return fmt.Errorf("%w: %v", ErrTooManyArgs, args[2:])
			}

			c, err := a.client()
			if err != nil {
				return err
			}

			kind, id := strings.ToLower(args[0]), args[1]

			name, err := c.Reopen(ctx, kind, id)
			if err != nil {
				return err
			}

			o.Printf("Opened %s: '%s'\n", kind, name)
			o.Println("id:", id)

			return nil
		},
	}
}
