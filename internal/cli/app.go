package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/MichaelAquilina/tro/internal/config"
	"github.com/MichaelAquilina/tro/internal/editsession"
	"github.com/MichaelAquilina/tro/internal/find"
	"github.com/MichaelAquilina/tro/internal/trello"

	flag "github.com/spf13/pflag"
)

// Argument validation errors.
var (
	ErrTooManyArgs       = errors.New("too many arguments")
	ErrCardRequired      = errors.New("a card must be specified")
	ErrLabelRequired     = errors.New("label names must be specified")
	ErrQueryRequired     = errors.New("search query is required")
	ErrTypeAndIDRequired = errors.New("object type and id are required")
	ErrURLRequired       = errors.New("a file or url is required")
	ErrNameRequired      = errors.New("name cannot be empty")
	ErrInvalidSelection  = errors.New("invalid selection")
)

// app carries what every command needs: the loaded config, the environment
// and the process streams.
type app struct {
	cfg    *config.Config
	env    map[string]string
	stdin  io.Reader
	out    io.Writer
	errOut io.Writer
	log    *zap.Logger

	api *trello.Client
	in  *prompter
}

func (a *app) commands() []*Command {
	return []*Command{
		SetupCmd(a),
		MeCmd(a),
		ShowCmd(a),
		CloseCmd(a),
		OpenCmd(a),
		CreateCmd(a),
		URLCmd(a),
		SearchCmd(a),
		LabelCmd(a),
		AttachmentsCmd(a),
		AttachCmd(a),
		PrintConfigCmd(a),
	}
}

// client returns the Trello client, failing when credentials are missing.
func (a *app) client() (*trello.Client, error) {
	if a.api != nil {
		return a.api, nil
	}

	err := a.cfg.RequireCredentials()
	if err != nil {
		return nil, err
	}

	a.api = trello.NewClient(a.cfg.Host, a.cfg.Key, a.cfg.Token)

	return a.api, nil
}

func (a *app) prompter() *prompter {
	if a.in == nil {
		a.in = newPrompter(a.stdin, a.out)
	}

	return a.in
}

// locate resolves the positional patterns through the Trello client.
func (a *app) locate(ctx context.Context, p find.Params) (*trello.Client, find.Result, error) {
	c, err := a.client()
	if err != nil {
		return nil, find.Result{}, err
	}

	a.log.Debug("locating", zap.String("board", p.BoardName), zap.String("list", p.ListName),
		zap.String("card", p.CardName), zap.Bool("ignore_case", p.IgnoreCase))

	res, err := find.NewLocator(c).Locate(ctx, p)
	if err != nil {
		return nil, find.Result{}, err
	}

	return c, res, nil
}

// editCard runs an edit session on card with the configured editor.
func (a *app) editCard(ctx context.Context, c *trello.Client, card trello.Card) error {
	spawner := editsession.ExecSpawner{Stdout: a.out, Stderr: a.errOut}

	// Only a real terminal is handed to the editor; a reader would be drained
	// by the child and lost to later prompts.
	if f, ok := a.stdin.(*os.File); ok {
		spawner.Stdin = f
	}

	session := editsession.New(editsession.Options{
		Uploader: c,
		Spawner:  spawner,
		Prompter: a.prompter(),
		Editor:   a.cfg.ResolveEditor(a.env),
		TempDir:  a.env["TMPDIR"],
		Interval: a.cfg.Interval,
		Logger:   a.log.Named("edit"),
		ErrOut:   a.errOut,
	})

	_, err := session.Run(ctx, card)

	return err
}

const caseSensitiveFlag = "case-sensitive"

// patternFlags registers the flags shared by commands taking board, list and
// card patterns.
type patternFlags struct {
	caseSensitive *bool
}

func addPatternFlags(flags *flag.FlagSet) patternFlags {
	return patternFlags{
		caseSensitive: flags.BoolP(caseSensitiveFlag, "c", false, "Match patterns case sensitively"),
	}
}

// params builds lookup params from up to three positional patterns.
func (p patternFlags) params(args []string) (find.Params, error) {
	if len(args) > 3 {
		return find.Params{}, fmt.Errorf("%w: %v", ErrTooManyArgs, args[3:])
	}

	params := find.Params{IgnoreCase: !*p.caseSensitive}

	if len(args) > 0 {
		params.BoardName = args[0]
	}

	if len(args) > 1 {
		params.ListName = args[1]
	}

	if len(args) > 2 {
		params.CardName = args[2]
	}

	return params, nil
}
