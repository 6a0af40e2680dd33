package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/MichaelAquilina/tro/internal/trello"

	flag "github.com/spf13/pflag"
)

// AttachmentsCmd returns the attachments command.
func AttachmentsCmd(a *app) *Command {
	flags := flag.NewFlagSet("attachments", flag.ContinueOnError)
	pf := addPatternFlags(flags)

	return &Command{
		Flags: flags,
		Usage: "attachments <board> <list> <card>",
		Short: "List the attachment urls of a card",
		Exec: func(ctx context.Context, o *IO, args []string) error {
			params, err := pf.params(args)
			if err != nil {
				return err
			}

			if params.CardName == "" {
				return ErrCardRequired
			}

			c, res, err := a.locate(ctx, params)
			if err != nil {
				return err
			}

			if res.Card == nil {
				return ErrCardRequired
			}

			attachments, err := c.Attachments(ctx, res.Card.ID)
			if err != nil {
				return err
			}

			for _, att := range attachments {
				o.Println(att.URL)
			}

			return nil
		},
	}
}

// AttachCmd returns the attach command.
func AttachCmd(a *app) *Command {
	flags := flag.NewFlagSet("attach", flag.ContinueOnError)
	pf := addPatternFlags(flags)
	name := flags.String("name", "", "Attachment name (derived from the url or file when empty)")

	return &Command{
		Flags: flags,
		Usage: "attach <board> <list> <card> <file|url>",
		Short: "Attach a file or link to a card",
		Long: `Upload the file when the last argument names an existing file, otherwise
attach it to the card as a link.`,
		Exec: func(ctx context.Context, o *IO, args []string) error {
			if len(args) < 3 {
				return ErrCardRequired
			}

			if len(args) < 4 {
				return ErrURLRequired
			}

			if len(args) > 4 {
				return fmt.Errorf("%w: %v", ErrTooManyArgs, args[4:])
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

			var att trello.Attachment

			target := args[3]
			if path, ok := a.regularFile(target); ok {
				a.log.Debug("uploading file", zap.String("path", path))

				att, err = c.AttachFile(ctx, res.Card.ID, path, *name)
			} else {
				att, err = c.AttachURL(ctx, res.Card.ID, target, *name)
			}

			if err != nil {
				return err
			}

			o.Printf("Attached '%s' to card '%s'\n", att.Name, res.Card.Name)
			o.Println("url:", att.URL)

			return nil
		},
	}
}

// regularFile resolves arg against the working directory and reports whether
// it names an existing regular file.
func (a *app) regularFile(arg string) (string, bool) {
	path := arg
	if !filepath.IsAbs(path) {
		path = filepath.Join(a.cfg.EffectiveCwd, path)
	}

	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return "", false
	}

	return path, true
}
