package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	flag "github.com/spf13/pflag"
)

// Command is one tro subcommand. Commands that locate Trello objects register
// the pattern flags (see addPatternFlags) and get a note on pattern matching
// in their help.
type Command struct {
	// Flags holds the command's own flags; global flags are parsed by Run.
	Flags *flag.FlagSet

	// Usage starts with the command name, e.g. "label <board> <list> <card> [label...]".
	Usage string

	// Short is the line shown in "tro --help".
	Short string

	// Long replaces Short in "tro <cmd> --help" when set.
	Long string

	// Exec gets the positional arguments left after flag parsing.
	Exec func(ctx context.Context, o *IO, args []string) error
}

const patternHelp = `Patterns:
  board, list and card patterns are regular expressions matched against
  names, case-insensitively unless --case-sensitive is given. A pattern
  must match exactly one object. Use "-" as the list to search the cards
  of every list on the board.`

// Name returns the command name.
func (c *Command) Name() string {
	name, _, _ := strings.Cut(c.Usage, " ")
	return name
}

// HelpLine returns the command's line in the global usage listing.
func (c *Command) HelpLine() string {
	return fmt.Sprintf("  %-34s %s", c.Usage, c.Short)
}

func (c *Command) takesPatterns() bool {
	return c.Flags != nil && c.Flags.Lookup(caseSensitiveFlag) != nil
}

// PrintHelp prints "tro <cmd> --help".
func (c *Command) PrintHelp(o *IO) {
	o.Println("Usage: tro", c.Usage)
	o.Println()

	desc := c.Long
	if desc == "" {
		desc = c.Short
	}

	o.Println(desc)

	if c.takesPatterns() {
		o.Println()
		o.Println(patternHelp)
	}

	if c.Flags != nil && c.Flags.HasFlags() {
		o.Println()
		o.Println("Flags:")

		var buf strings.Builder
		c.Flags.SetOutput(&buf)
		c.Flags.PrintDefaults()
		o.Printf("%s", buf.String())
	}
}

// Run parses flags and executes the command, returning the exit code. Errors
// and help after a bad flag go to stderr; warnings collected by Exec turn a
// successful run into exit code 1.
func (c *Command) Run(ctx context.Context, o *IO, args []string) int {
	c.Flags.SetOutput(&strings.Builder{}) // discard pflag output

	err := c.Flags.Parse(args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			c.PrintHelp(o)
			return 0
		}
		o.ErrPrintln("error:", err)
		o.ErrPrintln()
		c.PrintHelp(NewIO(o.errOut, o.errOut))
		return 1
	}

	if err := c.Exec(ctx, o, c.Flags.Args()); err != nil {
		o.ErrPrintln("error:", err)

		if isUsageError(err) {
			o.ErrPrintln("usage: tro", c.Usage)
		}

		return 1
	}

	return o.Finish()
}

// isUsageError reports whether err means the arguments did not fit Usage.
func isUsageError(err error) bool {
	for _, target := range []error{
		ErrTooManyArgs, ErrCardRequired, ErrLabelRequired, ErrQueryRequired,
		ErrTypeAndIDRequired, ErrURLRequired, ErrNothingToClose, ErrURLTargetRequired,
	} {
		if errors.Is(err, target) {
			return true
		}
	}

	return false
}
