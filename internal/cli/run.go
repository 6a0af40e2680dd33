package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/MichaelAquilina/tro/internal/config"
)

const (
	consumedOne  = 1
	consumedTwo  = 2
	consumedNone = 0
	helpFlag     = "--help"
)

// Errors for global flag parsing.
var (
	ErrFlagRequiresArg = errors.New("flag requires an argument")
	ErrUnknownFlag     = errors.New("unknown flag")
)

// Run is the main entry point. Returns exit code.
// sigCh receives OS signals (SIGINT, SIGTERM, SIGHUP); the first one cancels the
// running command. It may be nil.
func Run(stdin io.Reader, out io.Writer, errOut io.Writer, args []string, env map[string]string, sigCh <-chan os.Signal) int {
	ioCtx := NewIO(out, errOut)

	if len(args) == 0 {
		args = []string{"tro"}
	}

	flags, err := parseGlobalFlags(args[1:])
	if err != nil {
		ioCtx.ErrPrintln("error:", err)
		printUsage(NewIO(errOut, errOut), commandsForHelp())

		return 1
	}

	if len(flags.remaining) == 0 || flags.remaining[0] == helpFlag || flags.remaining[0] == "-h" {
		printUsage(ioCtx, commandsForHelp())

		return 0
	}

	cfg, err := config.LoadConfig(config.LoadConfigInput{
		WorkDirOverride: flags.workDir,
		ConfigPath:      flags.configPath,
		Env:             env,
	})
	if err != nil {
		ioCtx.ErrPrintln("error:", err)

		return 1
	}

	log := newLogger(errOut, flags.verbose)
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if sigCh != nil {
		go func() {
			select {
			case <-sigCh:
				cancel()
			case <-ctx.Done():
			}
		}()
	}

	a := &app{
		cfg:    &cfg,
		env:    env,
		stdin:  stdin,
		out:    out,
		errOut: errOut,
		log:    log,
	}

	name := flags.remaining[0]

	cmd, ok := findCommand(a.commands(), name)
	if !ok {
		ioCtx.ErrPrintln("error: unknown command:", name)
		printUsage(NewIO(errOut, errOut), commandsForHelp())

		return 1
	}

	log.Debug("running command", zap.String("command", name), zap.Strings("args", flags.remaining[1:]))

	return cmd.Run(ctx, ioCtx, flags.remaining[1:])
}

type globalFlags struct {
	workDir    string
	configPath string
	verbose    bool
	remaining  []string
}

func parseGlobalFlags(args []string) (globalFlags, error) {
	var flags globalFlags

	idx := 0
	for idx < len(args) {
		consumed, err := parseFlag(args, idx, &flags)
		if err != nil {
			return globalFlags{}, err
		}

		if consumed == 0 {
			// Not a flag, this is the command
			flags.remaining = args[idx:]

			break
		}

		idx += consumed
	}

	return flags, nil
}

// parseFlag tries to parse a flag at args[idx]. Returns number of args consumed (0 if not a flag).
func parseFlag(args []string, idx int, flags *globalFlags) (int, error) {
	arg := args[idx]

	// -C/--cwd flag (work directory)
	if arg == "-C" || arg == "--cwd" {
		if idx+1 >= len(args) {
			return consumedNone, fmt.Errorf("%w: %s", ErrFlagRequiresArg, arg)
		}

		flags.workDir = args[idx+1]

		return consumedTwo, nil
	}

	if after, ok := strings.CutPrefix(arg, "--cwd="); ok {
		flags.workDir = after

		return consumedOne, nil
	}

	// -c/--config flag
	if arg == "-c" || arg == "--config" {
		if idx+1 >= len(args) {
			return consumedNone, fmt.Errorf("%w: %s", ErrFlagRequiresArg, arg)
		}

		flags.configPath = args[idx+1]

		return consumedTwo, nil
	}

	if after, ok := strings.CutPrefix(arg, "--config="); ok {
		flags.configPath = after

		return consumedOne, nil
	}

	// -v/--verbose flag
	if arg == "-v" || arg == "--verbose" {
		flags.verbose = true

		return consumedOne, nil
	}

	// -h/--help flags
	if arg == "-h" || arg == helpFlag {
		flags.remaining = []string{helpFlag}

		return len(args) - idx, nil
	}

	// Unknown flag
	if strings.HasPrefix(arg, "-") && arg != "-" {
		return consumedNone, fmt.Errorf("%w: %s", ErrUnknownFlag, arg)
	}

	// Not a flag
	return consumedNone, nil
}

func findCommand(cmds []*Command, name string) (*Command, bool) {
	for _, c := range cmds {
		if c.Name() == name {
			return c, true
		}
	}

	return nil, false
}

// commandsForHelp returns the command set without a loaded config, for usage output.
func commandsForHelp() []*Command {
	return (&app{cfg: &config.Config{}}).commands()
}

func printUsage(o *IO, cmds []*Command) {
	o.Println(`tro - Trello from the command line

Usage: tro [options] <command> [args]

Board, list and card arguments are regular expressions matched anywhere in
the name, ignoring case unless --case-sensitive is given. A list pattern of
"-" searches the cards of every list on the board.

Options:
  -C, --cwd <dir>      Run as if started in <dir>
  -c, --config <file>  Use specified config file
  -v, --verbose        Log debug output to stderr
  -h, --help           Show help

Commands:`)

	for _, c := range cmds {
		o.Println(c.HelpLine())
	}
}
