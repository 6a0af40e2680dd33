package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode"

	"github.com/peterh/liner"
	"golang.org/x/term"
)

// ErrAborted is returned when the user aborts a prompt with Ctrl-C.
var ErrAborted = errors.New("aborted")

// prompter reads single lines of input. On a terminal it uses liner for line
// editing; otherwise it reads plain lines, echoing the prompt to out.
type prompter struct {
	interactive bool
	reader      *bufio.Reader
	out         io.Writer
}

func newPrompter(stdin io.Reader, out io.Writer) *prompter {
	p := &prompter{out: out}

	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		p.interactive = true

		return p
	}

	if stdin != nil {
		p.reader = bufio.NewReader(stdin)
	}

	return p
}

// Prompt shows text and returns the entered line without its newline.
func (p *prompter) Prompt(text string) (string, error) {
	if p.interactive {
		// A fresh liner per prompt so the terminal is back in cooked mode
		// whenever an editor runs in between.
		state := liner.NewLiner()
		defer func() { _ = state.Close() }()

		state.SetCtrlCAborts(true)

		line, err := state.Prompt(text)
		if errors.Is(err, liner.ErrPromptAborted) {
			return "", ErrAborted
		}

		return line, err
	}

	_, _ = fmt.Fprint(p.out, text)

	if p.reader == nil {
		return "", io.EOF
	}

	line, err := p.reader.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		return "", err
	}

	return strings.TrimRight(line, "\r\n"), nil
}

// choose prints names as a numbered list and asks for one of them. It
// returns false when the user enters nothing.
func choose(o *IO, p *prompter, kind string, names []string) (int, bool, error) {
	if len(names) == 0 {
		o.ErrPrintf("No %ss to select from\n", strings.ToLower(kind))

		return 0, false, nil
	}

	for i, name := range names {
		o.Printf("%3d) %s\n", i+1, name)
	}

	answer, err := p.Prompt(fmt.Sprintf("Select %s [1-%d]: ", kind, len(names)))
	if err != nil {
		return 0, false, err
	}

	answer = strings.TrimSpace(answer)
	if answer == "" {
		return 0, false, nil
	}

	n, err := strconv.Atoi(answer)
	if err != nil || n < 1 || n > len(names) {
		return 0, false, fmt.Errorf("%w: %q", ErrInvalidSelection, answer)
	}

	return n - 1, true, nil
}

// chooseMany prints names as a numbered list, marking the entries in selected,
// and asks for any number of them separated by commas or spaces. It returns
// false when the user enters nothing.
func chooseMany(o *IO, p *prompter, kind string, names []string, selected []bool) ([]int, bool, error) {
	if len(names) == 0 {
		o.ErrPrintf("No %ss to select from\n", strings.ToLower(kind))

		return nil, false, nil
	}

	for i, name := range names {
		mark := " "
		if i < len(selected) && selected[i] {
			mark = "x"
		}

		o.Printf("%3d) [%s] %s\n", i+1, mark, name)
	}

	answer, err := p.Prompt(fmt.Sprintf("Select %ss [1-%d, comma separated]: ", kind, len(names)))
	if err != nil {
		return nil, false, err
	}

	fields := strings.FieldsFunc(answer, func(r rune) bool { return r == ',' || unicode.IsSpace(r) })
	if len(fields) == 0 {
		return nil, false, nil
	}

	seen := make(map[int]bool, len(fields))
	picked := make([]int, 0, len(fields))

	for _, field := range fields {
		n, err := strconv.Atoi(field)
		if err != nil || n < 1 || n > len(names) {
			return nil, false, fmt.Errorf("%w: %q", ErrInvalidSelection, field)
		}

		if !seen[n] {
			seen[n] = true
			picked = append(picked, n-1)
		}
	}

	return picked, true, nil
}
