package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/MichaelAquilina/tro/internal/config"
	"github.com/MichaelAquilina/tro/internal/trello"

	flag "github.com/spf13/pflag"
)

// ErrInvalidCredentials is returned by setup when Trello rejects the key or token.
var ErrInvalidCredentials = errors.New("unable to validate credentials, please re-check and try again")

// SetupCmd returns the setup command.
func SetupCmd(a *app) *Command {
	return &Command{
		Flags: flag.NewFlagSet("setup", flag.ContinueOnError),
		Usage: "setup",
		Short: "Store Trello credentials",
		Long: `Prompt for a Trello developer key and token, check them against the
Trello API and store them in the global config file.`,
		Exec: func(ctx context.Context, o *IO, _ []string) error {
			return execSetup(ctx, o, a)
		},
	}
}

func execSetup(ctx context.Context, o *IO, a *app) error {
	o.Println("Welcome to tro!")
	o.Println()
	o.Println("Please generate a Developer key and token from https://trello.com/app-key/")
	o.Println("and enter them below")
	o.Println()

	p := a.prompter()

	key, err := p.Prompt("Enter Developer API Key: ")
	if err != nil {
		return fmt.Errorf("read key: %w", err)
	}

	token, err := p.Prompt("Enter Token: ")
	if err != nil {
		return fmt.Errorf("read token: %w", err)
	}

	key, token = strings.TrimSpace(key), strings.TrimSpace(token)

	o.Println()

	member, err := trello.NewClient(a.cfg.Host, key, token).Me(ctx)
	if err != nil {
		a.log.Debug("credential check failed")

		return fmt.Errorf("%w: %w", ErrInvalidCredentials, err)
	}

	path, err := config.SaveCredentials(a.env, key, token)
	if err != nil {
		return err
	}

	o.Printf("Successfully logged in as %s with tro!\n", member.Username)
	o.Println("Saved configuration to", path)

	return nil
}
