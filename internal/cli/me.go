package cli

import (
	"context"

	flag "github.com/spf13/pflag"
)

// MeCmd returns the me command.
func MeCmd(a *app) *Command {
	flags := flag.NewFlagSet("me", flag.ContinueOnError)
	detailed := flags.BoolP("detailed", "d", false, "Show full name and id")

	return &Command{
		Flags: flags,
		Usage: "me [-d]",
		Short: "Show the logged in member",
		Exec: func(ctx context.Context, o *IO, _ []string) error {
			c, err := a.client()
			if err != nil {
				return err
			}

			m, err := c.Me(ctx)
			if err != nil {
				return err
			}

			if !*detailed {
				o.Println(m.Username)

				return nil
			}

			o.Println("username:", m.Username)
			o.Println("full name:", m.FullName)
			o.Println("id:", m.ID)

			return nil
		},
	}
}
