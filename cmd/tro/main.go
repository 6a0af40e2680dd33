// Command tro manages Trello boards, lists and cards from the terminal.
//
// Credentials come from `tro setup`, the config files or the TRO_KEY and
// TRO_TOKEN environment variables. Cards are edited in $EDITOR; every save is
// uploaded while the editor stays open.
package main

import (
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/MichaelAquilina/tro/internal/cli"
)

func main() {
	// SIGHUP ends an edit session whose terminal went away.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)

	os.Exit(cli.Run(os.Stdin, os.Stdout, os.Stderr, os.Args, environ(), sigCh))
}

// environ returns the process environment as a map. The editor, the config
// locations and the TRO_* settings are all read from it.
func environ() map[string]string {
	env := map[string]string{}

	for _, e := range os.Environ() {
		if k, v, ok := strings.Cut(e, "="); ok {
			env[k] = v
		}
	}

	return env
}
