// Package editsession edits a Trello card in an external editor.
//
// The card is written to a temp file and the editor is started on it. While
// the editor runs the file is re-read on a fixed interval; every parsable
// change is uploaded. Saves that happen between two reads are coalesced into
// a single upload. When the editor exits after a failed upload or with an
// unparsable buffer the user is asked to confirm and the editor is reopened
// on the same file.
package editsession

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/MichaelAquilina/tro/internal/cardtext"
	"github.com/MichaelAquilina/tro/internal/trello"
)

// DefaultInterval is the delay between two reads of the temp file.
const DefaultInterval = 500 * time.Millisecond

// DefaultEditor is started when no editor is configured.
const DefaultEditor = "vi"

const (
	errorBanner  = "An error occurred while trying to update the card."
	retryMessage = "Press 'enter' to go back to your editor"
)

var (
	// ErrUpload wraps a failed card update.
	ErrUpload = errors.New("upload failed")
	// ErrSpawn wraps a failure to start the editor.
	ErrSpawn = errors.New("cannot start editor")
)

// Uploader writes card changes back to Trello. *trello.Client implements it.
type Uploader interface {
	UpdateCard(ctx context.Context, card trello.Card) (trello.Card, error)
}

// Process is a running editor.
type Process interface {
	// Exited reports whether the process has terminated. It never blocks.
	Exited() bool
	// Err returns the exit error once Exited reports true.
	Err() error
}

// Spawner starts an editor on a file.
type Spawner interface {
	Spawn(ctx context.Context, editor, path string) (Process, error)
}

// Prompter reads a line of user input after showing text.
type Prompter interface {
	Prompt(text string) (string, error)
}

// SleepFunc blocks for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Options configures a Session. Uploader, Spawner and Prompter are required.
type Options struct {
	Uploader Uploader
	Spawner  Spawner
	Prompter Prompter

	// Editor is the editor command. Defaults to DefaultEditor.
	Editor string
	// TempDir holds the temp file. Defaults to os.TempDir().
	TempDir string
	// Interval between reads. Defaults to DefaultInterval.
	Interval time.Duration
	// Sleep defaults to a context aware timer.
	Sleep SleepFunc
	// Logger defaults to zap.NewNop().
	Logger *zap.Logger
	// ErrOut receives error reports. Defaults to io.Discard.
	ErrOut io.Writer
}

// Session edits one card.
type Session struct {
	uploader Uploader
	spawner  Spawner
	prompter Prompter
	editor   string
	tempDir  string
	interval time.Duration
	sleep    SleepFunc
	log      *zap.Logger
	errOut   io.Writer
}

// New returns a Session for opts, filling in defaults.
func New(opts Options) *Session {
	s := &Session{
		uploader: opts.Uploader,
		spawner:  opts.Spawner,
		prompter: opts.Prompter,
		editor:   opts.Editor,
		tempDir:  opts.TempDir,
		interval: opts.Interval,
		sleep:    opts.Sleep,
		log:      opts.Logger,
		errOut:   opts.ErrOut,
	}

	if s.editor == "" {
		s.editor = DefaultEditor
	}

	if s.tempDir == "" {
		s.tempDir = os.TempDir()
	}

	if s.interval <= 0 {
		s.interval = DefaultInterval
	}

	if s.sleep == nil {
		s.sleep = sleep
	}

	if s.log == nil {
		s.log = zap.NewNop()
	}

	if s.errOut == nil {
		s.errOut = io.Discard
	}

	return s
}

// Run edits card until the editor exits with the last change uploaded, or
// without any change having been attempted. It returns the local copy of card
// carrying the name and description last sent to Trello; the server's response
// is not merged back. A cancelled ctx ends the session with ctx.Err(); uploads
// made so far stay in place.
func (s *Session) Run(ctx context.Context, card trello.Card) (trello.Card, error) {
	path, err := s.writeTemp(card)
	if err != nil {
		return card, err
	}

	defer func() { _ = os.Remove(path) }()

	log := s.log.With(zap.String("card", card.ID), zap.String("path", path))

	for {
		var r round

		r, card, err = s.edit(ctx, log, path, card)
		if err != nil {
			return card, err
		}

		err = ctx.Err()
		if err != nil {
			return card, err
		}

		state := decide(r)
		log.Debug("editor closed", zap.Stringer("state", state), zap.Error(r.err))

		if state == Done {
			return card, nil
		}

		fmt.Fprintln(s.errOut, errorBanner)
		fmt.Fprintln(s.errOut, r.err)
		fmt.Fprintln(s.errOut)

		_, err = s.prompter.Prompt(retryMessage)
		if err != nil {
			return card, fmt.Errorf("prompt: %w", err)
		}
	}
}

func (s *Session) writeTemp(card trello.Card) (string, error) {
	f, err := os.CreateTemp(s.tempDir, "tro-*.md")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}

	_, err = io.WriteString(f, cardtext.Encode(card.Name, card.Desc)+"\n")

	closeErr := f.Close()
	if err == nil {
		err = closeErr
	}

	if err != nil {
		_ = os.Remove(f.Name())

		return "", fmt.Errorf("write temp file: %w", err)
	}

	return f.Name(), nil
}

// edit runs one editor invocation and returns the outcome of its round.
func (s *Session) edit(ctx context.Context, log *zap.Logger, path string, card trello.Card) (round, trello.Card, error) {
	var r round

	proc, err := s.spawner.Spawn(ctx, s.editor, path)
	if err != nil {
		return r, card, fmt.Errorf("%w %q: %w", ErrSpawn, s.editor, err)
	}

	log.Debug("editor started", zap.String("editor", s.editor))

	for {
		err = s.sleep(ctx, s.interval)
		if err != nil {
			return r, card, err
		}

		// Sampled before the read: once the editor is gone the read sees its
		// final save.
		exited := proc.Exited()

		contents, decodeErr := readContents(path)

		act := plan(r, card, contents, decodeErr, exited)
		log.Debug("tick", zap.Stringer("action", act), zap.Bool("exited", exited))

		switch act {
		case actionFail:
			r = r.record(decodeErr)
		case actionUpload:
			card.Name, card.Desc = contents.Name, contents.Desc

			_, upErr := s.uploader.UpdateCard(ctx, card)
			if upErr != nil {
				upErr = fmt.Errorf("%w: %w", ErrUpload, upErr)
				log.Debug("upload failed", zap.Error(upErr))
			}

			r = r.record(upErr)
		case actionWait, actionKeep:
		}

		if exited {
			if exitErr := proc.Err(); exitErr != nil {
				log.Debug("editor exited with error", zap.Error(exitErr))
			}

			return r, card, nil
		}
	}
}

func readContents(path string) (cardtext.Contents, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return cardtext.Contents{}, fmt.Errorf("read %s: %w", path, err)
	}

	return cardtext.Decode(cardtext.TrimTrailing(string(data)))
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
