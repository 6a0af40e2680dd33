package editsession_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/MichaelAquilina/tro/internal/editsession"
	"github.com/MichaelAquilina/tro/internal/trello"
)

// step runs while the session sleeps between two reads. It may rewrite the
// temp file or end the editor.
type step func(e *fakeEditor)

func save(content string) step {
	return func(e *fakeEditor) {
		e.t.Helper()
		require.NoError(e.t, os.WriteFile(e.path, []byte(content), 0o600))
	}
}

func quit() step {
	return func(e *fakeEditor) { e.current.exited = true }
}

func saveAndQuit(content string) step {
	return func(e *fakeEditor) {
		save(content)(e)
		quit()(e)
	}
}

func idle() step { return func(*fakeEditor) {} }

type fakeProcess struct{ exited bool }

func (p *fakeProcess) Exited() bool { return p.exited }
func (p *fakeProcess) Err() error   { return nil }

// fakeEditor plays scripted steps, one per sleep.
type fakeEditor struct {
	t        *testing.T
	mu       sync.Mutex
	steps    []step
	path     string
	current  *fakeProcess
	spawns   int
	initial  []string
	spawnErr error
}

func (e *fakeEditor) Spawn(_ context.Context, editor, path string) (editsession.Process, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.spawnErr != nil {
		return nil, e.spawnErr
	}

	data, err := os.ReadFile(path)
	require.NoError(e.t, err)

	e.spawns++
	e.path = path
	e.initial = append(e.initial, string(data))
	e.current = &fakeProcess{}

	if got, want := editor, "my-editor"; got != want {
		e.t.Errorf("editor=%q, want=%q", got, want)
	}

	return e.current, nil
}

func (e *fakeEditor) sleep(ctx context.Context, _ time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.steps) == 0 {
		e.t.Fatal("session polled past the end of the script")
	}

	next := e.steps[0]
	e.steps = e.steps[1:]
	next(e)

	return nil
}

type fakeUploader struct {
	calls []trello.Card
	fail  []error
	// respond rewrites the card returned for a successful upload.
	respond func(trello.Card) trello.Card
}

func (u *fakeUploader) UpdateCard(_ context.Context, card trello.Card) (trello.Card, error) {
	u.calls = append(u.calls, card)

	if len(u.fail) > 0 {
		err := u.fail[0]
		u.fail = u.fail[1:]

		if err != nil {
			return trello.Card{}, err
		}
	}

	if u.respond != nil {
		return u.respond(card), nil
	}

	return card, nil
}

type fakePrompter struct {
	prompts []string
	err     error
}

func (p *fakePrompter) Prompt(text string) (string, error) {
	p.prompts = append(p.prompts, text)

	return "", p.err
}

type harness struct {
	editor   *fakeEditor
	uploader *fakeUploader
	prompter *fakePrompter
	errOut   *bytes.Buffer
	session  *editsession.Session
	dir      string
}

func newHarness(t *testing.T, steps ...step) *harness {
	t.Helper()

	h := &harness{
		editor:   &fakeEditor{t: t, steps: steps},
		uploader: &fakeUploader{},
		prompter: &fakePrompter{},
		errOut:   &bytes.Buffer{},
		dir:      t.TempDir(),
	}

	h.session = editsession.New(editsession.Options{
		Uploader: h.uploader,
		Spawner:  h.editor,
		Prompter: h.prompter,
		Editor:   "my-editor",
		TempDir:  h.dir,
		Sleep:    h.editor.sleep,
		Logger:   zaptest.NewLogger(t),
		ErrOut:   h.errOut,
	})

	return h
}

func (h *harness) uploaded() []string {
	var out []string
	for _, c := range h.uploader.calls {
		out = append(out, c.Name+"|"+c.Desc)
	}

	return out
}

var laundry = trello.Card{ID: "MY-CARD-ID", Name: "Laundry", Desc: "wash the towels"}

func Test_Run_Uploads_Once_When_User_Saves_Then_Quits(t *testing.T) {
	t.Parallel()

	h := newHarness(t,
		save("Washing\n=======\nuse the blue detergent\n\n"),
		quit(),
	)

	got, err := h.session.Run(context.Background(), laundry)
	require.NoError(t, err)

	if diff := cmp.Diff([]string{"Washing|use the blue detergent"}, h.uploaded()); diff != "" {
		t.Errorf("uploads mismatch (-want +got):\n%s", diff)
	}

	if got.Name != "Washing" || got.Desc != "use the blue detergent" {
		t.Errorf("card=%+v, want edited name and desc", got)
	}

	if got, want := h.uploader.calls[0].ID, "MY-CARD-ID"; got != want {
		t.Errorf("id=%q, want=%q", got, want)
	}

	if len(h.prompter.prompts) != 0 {
		t.Errorf("prompts=%v, want none", h.prompter.prompts)
	}
}

func Test_Run_Returns_Uploaded_Text_Not_Server_Response(t *testing.T) {
	t.Parallel()

	h := newHarness(t,
		save("Washing\n=======\nline  \n"),
		quit(),
	)
	h.uploader.respond = func(c trello.Card) trello.Card {
		c.Desc = strings.TrimSpace(c.Desc)
		return c
	}

	got, err := h.session.Run(context.Background(), laundry)
	require.NoError(t, err)

	if want := "line  "; got.Desc != want {
		t.Errorf("desc=%q, want=%q", got.Desc, want)
	}

	// The normalised response does not count as a new change.
	if got := len(h.uploaded()); got != 1 {
		t.Errorf("uploads=%d, want 1", got)
	}
}

func Test_Run_Writes_Encoded_Card_And_Removes_Temp_File(t *testing.T) {
	t.Parallel()

	h := newHarness(t, quit())

	_, err := h.session.Run(context.Background(), laundry)
	require.NoError(t, err)

	if diff := cmp.Diff([]string{"Laundry\n=======\nwash the towels\n"}, h.editor.initial); diff != "" {
		t.Errorf("temp file mismatch (-want +got):\n%s", diff)
	}

	if !strings.HasSuffix(h.editor.path, ".md") {
		t.Errorf("path=%q, want .md suffix", h.editor.path)
	}

	if _, statErr := os.Stat(h.editor.path); !os.IsNotExist(statErr) {
		t.Errorf("temp file still present: %v", statErr)
	}
}

func Test_Run_Uploads_Unchanged_Card_On_First_Successful_Read(t *testing.T) {
	t.Parallel()

	h := newHarness(t, idle(), idle(), quit())

	_, err := h.session.Run(context.Background(), laundry)
	require.NoError(t, err)

	if diff := cmp.Diff([]string{"Laundry|wash the towels"}, h.uploaded()); diff != "" {
		t.Errorf("uploads mismatch (-want +got):\n%s", diff)
	}
}

func Test_Run_Waits_While_Buffer_Is_Unparsable(t *testing.T) {
	t.Parallel()

	h := newHarness(t,
		save("Laundry\nhalf written"),
		idle(),
		save("Laundry\n===\ndone"),
		quit(),
	)

	_, err := h.session.Run(context.Background(), laundry)
	require.NoError(t, err)

	if diff := cmp.Diff([]string{"Laundry|done"}, h.uploaded()); diff != "" {
		t.Errorf("uploads mismatch (-want +got):\n%s", diff)
	}
}

func Test_Run_Uploads_Each_Distinct_Save(t *testing.T) {
	t.Parallel()

	h := newHarness(t,
		save("A\n=\none"),
		save("B\n=\ntwo"),
		idle(),
		saveAndQuit("C\n=\nthree"),
	)

	_, err := h.session.Run(context.Background(), laundry)
	require.NoError(t, err)

	if diff := cmp.Diff([]string{"A|one", "B|two", "C|three"}, h.uploaded()); diff != "" {
		t.Errorf("uploads mismatch (-want +got):\n%s", diff)
	}
}

func Test_Run_Coalesces_Saves_Between_Reads(t *testing.T) {
	t.Parallel()

	h := newHarness(t,
		func(e *fakeEditor) {
			save("first\n=\nx")(e)
			save("second\n=\ny")(e)
		},
		quit(),
	)

	_, err := h.session.Run(context.Background(), laundry)
	require.NoError(t, err)

	if diff := cmp.Diff([]string{"second|y"}, h.uploaded()); diff != "" {
		t.Errorf("uploads mismatch (-want +got):\n%s", diff)
	}
}

func Test_Run_Reopens_Editor_After_Failed_Upload(t *testing.T) {
	t.Parallel()

	h := newHarness(t,
		saveAndQuit("Washing\n===\nnow"),
		// Second editor: quits without touching the file.
		quit(),
	)
	h.uploader.fail = []error{errors.New("connection reset")}

	_, err := h.session.Run(context.Background(), laundry)
	require.NoError(t, err)

	if diff := cmp.Diff([]string{"Washing|now", "Washing|now"}, h.uploaded()); diff != "" {
		t.Errorf("uploads mismatch (-want +got):\n%s", diff)
	}

	if got, want := h.editor.spawns, 2; got != want {
		t.Errorf("spawns=%d, want=%d", got, want)
	}

	if diff := cmp.Diff([]string{"Press 'enter' to go back to your editor"}, h.prompter.prompts); diff != "" {
		t.Errorf("prompts mismatch (-want +got):\n%s", diff)
	}

	out := h.errOut.String()
	for _, want := range []string{"An error occurred while trying to update the card.", "upload failed", "connection reset"} {
		if !strings.Contains(out, want) {
			t.Errorf("stderr=%q, missing %q", out, want)
		}
	}
}

func Test_Run_Retries_Upload_On_Next_Read_While_Editor_Runs(t *testing.T) {
	t.Parallel()

	h := newHarness(t,
		save("Washing\n===\nnow"),
		idle(),
		quit(),
	)
	h.uploader.fail = []error{errors.New("timeout")}

	_, err := h.session.Run(context.Background(), laundry)
	require.NoError(t, err)

	if got, want := len(h.uploader.calls), 2; got != want {
		t.Errorf("uploads=%d, want=%d", got, want)
	}

	if len(h.prompter.prompts) != 0 {
		t.Errorf("prompts=%v, want none", h.prompter.prompts)
	}
}

func Test_Run_Reopens_Editor_When_Buffer_Unparsable_At_Exit(t *testing.T) {
	t.Parallel()

	h := newHarness(t,
		saveAndQuit("no delimiter here"),
		saveAndQuit("Fixed\n=====\nbody"),
	)

	_, err := h.session.Run(context.Background(), laundry)
	require.NoError(t, err)

	if diff := cmp.Diff([]string{"Fixed|body"}, h.uploaded()); diff != "" {
		t.Errorf("uploads mismatch (-want +got):\n%s", diff)
	}

	if got, want := h.editor.spawns, 2; got != want {
		t.Errorf("spawns=%d, want=%d", got, want)
	}

	// The second editor opens the broken buffer, not a fresh render.
	if got, want := h.editor.initial[1], "no delimiter here"; got != want {
		t.Errorf("second buffer=%q, want=%q", got, want)
	}

	if !strings.Contains(h.errOut.String(), "missing delimiter") {
		t.Errorf("stderr=%q, want parse error", h.errOut.String())
	}
}

func Test_Run_Fails_When_Editor_Cannot_Start(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.editor.spawnErr = errors.New("executable file not found")

	_, err := h.session.Run(context.Background(), laundry)
	if !errors.Is(err, editsession.ErrSpawn) {
		t.Fatalf("err=%v, want ErrSpawn", err)
	}

	if len(h.uploader.calls) != 0 {
		t.Errorf("uploads=%d, want 0", len(h.uploader.calls))
	}

	entries, readErr := os.ReadDir(h.dir)
	require.NoError(t, readErr)

	if len(entries) != 0 {
		t.Errorf("temp dir not cleaned: %v", entries)
	}
}

func Test_Run_Stops_When_Context_Cancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := newHarness(t,
		save("Washing\n===\nnow"),
		func(*fakeEditor) { cancel() },
	)

	got, err := h.session.Run(ctx, laundry)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err=%v, want context.Canceled", err)
	}

	if got.Name != "Washing" {
		t.Errorf("name=%q, want uploaded name", got.Name)
	}

	if got, want := len(h.uploader.calls), 1; got != want {
		t.Errorf("uploads=%d, want=%d", got, want)
	}
}

func Test_Run_Returns_Prompt_Error(t *testing.T) {
	t.Parallel()

	h := newHarness(t, saveAndQuit("broken"))
	h.prompter.err = errors.New("EOF")

	_, err := h.session.Run(context.Background(), laundry)
	if err == nil || !strings.Contains(err.Error(), "EOF") {
		t.Errorf("err=%v, want prompt error", err)
	}
}
