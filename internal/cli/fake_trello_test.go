package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
)

const (
	fakeKey   = "test-key"
	fakeToken = "test-token"
)

type fakeBoard struct {
	ID, Name string
	Closed   bool
}

type fakeList struct {
	ID, BoardID, Name string
	Closed            bool
}

type fakeCard struct {
	ID, ListID, Name, Desc string
	Closed                 bool
	LabelIDs               []string
}

type fakeLabel struct {
	ID, BoardID, Name, Color string
}

type fakeAttachment struct {
	ID, CardID, Name, URL string
	// Content is set for uploaded files.
	Content string
}

// fakeTrello is an in-memory Trello API covering the routes tro uses.
type fakeTrello struct {
	t  *testing.T
	mu sync.Mutex

	boards      []*fakeBoard
	lists       []*fakeList
	cards       []*fakeCard
	labels      []*fakeLabel
	attachments []*fakeAttachment

	// failCardUpdates makes the next n card updates fail with a 500.
	failCardUpdates int
	requests        []string
	nextID          int

	URL string
}

// newFakeTrello starts a fake API seeded with two boards:
//
//	TODO:      Today [Dishes {Urgent}, Dish soap], Done [Laundry]
//	Groceries: Fruit [Apples {Organic}]
func newFakeTrello(t *testing.T) *fakeTrello {
	t.Helper()

	f := &fakeTrello{
		t: t,
		boards: []*fakeBoard{
			{ID: "B1", Name: "TODO"},
			{ID: "B2", Name: "Groceries"},
		},
		lists: []*fakeList{
			{ID: "L1", BoardID: "B1", Name: "Today"},
			{ID: "L2", BoardID: "B1", Name: "Done"},
			{ID: "L3", BoardID: "B2", Name: "Fruit"},
		},
		cards: []*fakeCard{
			{ID: "C1", ListID: "L1", Name: "Dishes", LabelIDs: []string{"LB1"}},
			{ID: "C2", ListID: "L1", Name: "Dish soap"},
			{ID: "C3", ListID: "L2", Name: "Laundry", Desc: "with softener"},
			{ID: "C4", ListID: "L3", Name: "Apples", LabelIDs: []string{"LB3"}},
		},
		labels: []*fakeLabel{
			{ID: "LB1", BoardID: "B1", Name: "Urgent", Color: "red"},
			{ID: "LB2", BoardID: "B1", Name: "Later", Color: "blue"},
			{ID: "LB3", BoardID: "B2", Name: "Organic", Color: "green"},
		},
		attachments: []*fakeAttachment{
			{ID: "A1", CardID: "C3", Name: "manual", URL: "https://example.com/manual.pdf"},
		},
	}

	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)

	f.URL = srv.URL

	return f
}

// newTroCLI returns a CLI pointed at a fresh fake API with fast polling.
func newTroCLI(t *testing.T) (*CLI, *fakeTrello) {
	t.Helper()

	f := newFakeTrello(t)

	c := NewCLI(t)
	c.Env["TRO_HOST"] = f.URL
	c.Env["TRO_KEY"] = fakeKey
	c.Env["TRO_TOKEN"] = fakeToken
	c.WriteGlobalConfig(`{"poll_interval": "10ms"}`)

	return c, f
}

// createMockEditor creates an editor script that replaces the file it is
// given. The n-th invocation writes contents[n-1]; later invocations repeat
// the last one.
func createMockEditor(t *testing.T, contents ...string) string {
	t.Helper()

	dir := t.TempDir()
	editor := filepath.Join(dir, "mock-editor")

	for i, content := range contents {
		err := os.WriteFile(filepath.Join(dir, fmt.Sprintf("content.%d", i+1)), []byte(content), 0o600)
		if err != nil {
			t.Fatalf("failed to write editor content: %v", err)
		}
	}

	script := `#!/bin/sh
dir="` + dir + `"
n=$(cat "$dir/count" 2>/dev/null || echo 0)
n=$((n + 1))
echo "$n" > "$dir/count"
src="$dir/content.$n"
[ -f "$src" ] || src="$dir/content.` + strconv.Itoa(len(contents)) + `"
cp "$src" "$1"
exit 0
`

	err := os.WriteFile(editor, []byte(script), 0o700)
	if err != nil {
		t.Fatalf("failed to create mock editor: %v", err)
	}

	return editor
}

func (f *fakeTrello) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.FormValue("key") != fakeKey || r.FormValue("token") != fakeToken {
		http.Error(w, "invalid key", http.StatusUnauthorized)

		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	path := strings.TrimPrefix(r.URL.Path, "/1/")
	f.requests = append(f.requests, r.Method+" "+path)

	body, status := f.route(r, strings.Split(path, "/"))
	if status != http.StatusOK {
		http.Error(w, fmt.Sprint(body), status)

		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(body)
}

func (f *fakeTrello) route(r *http.Request, seg []string) (any, int) {
	switch {
	case r.Method == http.MethodGet && len(seg) == 2 && seg[0] == "members":
		return map[string]any{"id": "M1", "username": "mike", "fullName": "Mike A"}, http.StatusOK
	case r.Method == http.MethodGet && len(seg) == 3 && seg[0] == "members" && seg[2] == "boards":
		out := []any{}

		for _, b := range f.boards {
			if !b.Closed {
				out = append(out, f.boardJSON(b))
			}
		}

		return out, http.StatusOK
	case seg[0] == "boards":
		return f.routeBoards(r, seg)
	case seg[0] == "lists":
		return f.routeLists(r, seg)
	case seg[0] == "cards":
		return f.routeCards(r, seg)
	case r.Method == http.MethodGet && seg[0] == "search":
		return f.search(r), http.StatusOK
	}

	return "no route", http.StatusNotFound
}

func (f *fakeTrello) routeBoards(r *http.Request, seg []string) (any, int) {
	if len(seg) == 1 && r.Method == http.MethodPost {
		b := &fakeBoard{ID: f.newID("B"), Name: r.FormValue("name")}
		f.boards = append(f.boards, b)

		return f.boardJSON(b), http.StatusOK
	}

	b := f.board(seg[1])
	if b == nil {
		return "board not found", http.StatusNotFound
	}

	switch {
	case len(seg) == 3 && seg[2] == "labels":
		out := []any{}

		for _, l := range f.labels {
			if l.BoardID == b.ID {
				out = append(out, labelJSON(l))
			}
		}

		return out, http.StatusOK
	case r.Method == http.MethodPut:
		if v := r.FormValue("name"); v != "" {
			b.Name = v
		}

		b.Closed = r.FormValue("closed") == "true"

		return f.boardJSON(b), http.StatusOK
	case r.Method == http.MethodGet:
		out := f.boardJSON(b)

		if r.FormValue("lists") == "open" {
			lists, cards := []any{}, []any{}

			for _, l := range f.lists {
				if l.BoardID != b.ID || l.Closed {
					continue
				}

				lists = append(lists, map[string]any{"id": l.ID, "name": l.Name, "closed": l.Closed})

				for _, c := range f.cards {
					if c.ListID == l.ID && !c.Closed {
						cards = append(cards, f.cardJSON(c))
					}
				}
			}

			out["lists"] = lists
			out["cards"] = cards
		}

		return out, http.StatusOK
	}

	return "no route", http.StatusNotFound
}

func (f *fakeTrello) routeLists(r *http.Request, seg []string) (any, int) {
	if len(seg) == 1 && r.Method == http.MethodPost {
		l := &fakeList{ID: f.newID("L"), BoardID: r.FormValue("idBoard"), Name: r.FormValue("name")}
		f.lists = append(f.lists, l)

		return map[string]any{"id": l.ID, "name": l.Name}, http.StatusOK
	}

	var list *fakeList

	for _, l := range f.lists {
		if l.ID == seg[1] {
			list = l
		}
	}

	if list == nil {
		return "list not found", http.StatusNotFound
	}

	switch {
	case len(seg) == 3 && seg[2] == "cards":
		out := []any{}

		for _, c := range f.cards {
			if c.ListID == list.ID && !c.Closed {
				out = append(out, f.cardJSON(c))
			}
		}

		return out, http.StatusOK
	case r.Method == http.MethodPut:
		if v := r.FormValue("name"); v != "" {
			list.Name = v
		}

		list.Closed = r.FormValue("closed") == "true"

		return map[string]any{"id": list.ID, "name": list.Name, "closed": list.Closed}, http.StatusOK
	}

	return "no route", http.StatusNotFound
}

func (f *fakeTrello) routeCards(r *http.Request, seg []string) (any, int) {
	if len(seg) == 1 && r.Method == http.MethodPost {
		c := &fakeCard{ID: f.newID("C"), ListID: r.FormValue("idList"), Name: r.FormValue("name"), Desc: r.FormValue("desc")}
		f.cards = append(f.cards, c)

		return f.cardJSON(c), http.StatusOK
	}

	c := f.card(seg[1])
	if c == nil {
		return "card not found", http.StatusNotFound
	}

	switch {
	case len(seg) == 3 && seg[2] == "idLabels" && r.Method == http.MethodPost:
		c.LabelIDs = append(c.LabelIDs, r.FormValue("value"))

		return c.LabelIDs, http.StatusOK
	case len(seg) == 4 && seg[2] == "idLabels" && r.Method == http.MethodDelete:
		kept := []string{}

		for _, id := range c.LabelIDs {
			if id != seg[3] {
				kept = append(kept, id)
			}
		}

		c.LabelIDs = kept

		return kept, http.StatusOK
	case len(seg) == 3 && seg[2] == "attachments" && r.Method == http.MethodGet:
		out := []any{}

		for _, a := range f.attachments {
			if a.CardID == c.ID {
				out = append(out, map[string]any{"id": a.ID, "name": a.Name, "url": a.URL})
			}
		}

		return out, http.StatusOK
	case len(seg) == 3 && seg[2] == "attachments" && r.Method == http.MethodPost:
		a := &fakeAttachment{ID: f.newID("A"), CardID: c.ID, Name: r.FormValue("name"), URL: r.FormValue("url")}

		if file, header, err := r.FormFile("file"); err == nil {
			content, _ := io.ReadAll(file)
			_ = file.Close()

			a.URL = "https://trello.com/attachments/" + header.Filename
			a.Content = string(content)

			if a.Name == "" {
				a.Name = header.Filename
			}
		}

		if a.Name == "" {
			a.Name = a.URL
		}

		f.attachments = append(f.attachments, a)

		return map[string]any{"id": a.ID, "name": a.Name, "url": a.URL}, http.StatusOK
	case len(seg) == 2 && r.Method == http.MethodPut:
		if f.failCardUpdates > 0 {
			f.failCardUpdates--

			return "server error", http.StatusInternalServerError
		}

		if _, ok := r.Form["name"]; ok {
			c.Name = r.FormValue("name")
		}

		if _, ok := r.Form["desc"]; ok {
			c.Desc = r.FormValue("desc")
		}

		c.Closed = r.FormValue("closed") == "true"

		return f.cardJSON(c), http.StatusOK
	}

	return "no route", http.StatusNotFound
}

func (f *fakeTrello) search(r *http.Request) map[string]any {
	terms := strings.Fields(strings.ToLower(r.FormValue("query")))
	limit, _ := strconv.Atoi(r.FormValue("cards_limit"))

	cards := []any{}

	for _, c := range f.cards {
		if !matchesAll(strings.ToLower(c.Name), terms) {
			continue
		}

		if limit > 0 && len(cards) == limit {
			break
		}

		cards = append(cards, f.cardJSON(c))
	}

	return map[string]any{"cards": cards}
}

func matchesAll(name string, terms []string) bool {
	for _, term := range terms {
		if negated, ok := strings.CutPrefix(term, "-"); ok {
			if strings.Contains(name, negated) {
				return false
			}

			continue
		}

		if !strings.Contains(name, term) {
			return false
		}
	}

	return true
}

func (f *fakeTrello) newID(prefix string) string {
	f.nextID++

	return fmt.Sprintf("%s-new%d", prefix, f.nextID)
}

func (f *fakeTrello) board(id string) *fakeBoard {
	for _, b := range f.boards {
		if b.ID == id {
			return b
		}
	}

	return nil
}

func (f *fakeTrello) card(id string) *fakeCard {
	for _, c := range f.cards {
		if c.ID == id {
			return c
		}
	}

	return nil
}

func (f *fakeTrello) boardJSON(b *fakeBoard) map[string]any {
	return map[string]any{"id": b.ID, "name": b.Name, "closed": b.Closed, "url": "https://trello.com/b/" + b.ID}
}

func (f *fakeTrello) cardJSON(c *fakeCard) map[string]any {
	labels := []any{}

	for _, id := range c.LabelIDs {
		for _, l := range f.labels {
			if l.ID == id {
				labels = append(labels, labelJSON(l))
			}
		}
	}

	return map[string]any{
		"id":     c.ID,
		"name":   c.Name,
		"desc":   c.Desc,
		"closed": c.Closed,
		"idList": c.ListID,
		"url":    "https://trello.com/c/" + c.ID,
		"labels": labels,
	}
}

func labelJSON(l *fakeLabel) map[string]any {
	return map[string]any{"id": l.ID, "name": l.Name, "color": l.Color}
}

// Card returns a copy of the stored card.
func (f *fakeTrello) Card(id string) fakeCard {
	f.mu.Lock()
	defer f.mu.Unlock()

	c := f.card(id)
	if c == nil {
		f.t.Fatalf("card %s not found", id)
	}

	return *c
}

// List returns a copy of the stored list.
func (f *fakeTrello) List(id string) fakeList {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, l := range f.lists {
		if l.ID == id {
			return *l
		}
	}

	f.t.Fatalf("list %s not found", id)

	return fakeList{}
}

// Board returns a copy of the stored board.
func (f *fakeTrello) Board(id string) fakeBoard {
	f.mu.Lock()
	defer f.mu.Unlock()

	b := f.board(id)
	if b == nil {
		f.t.Fatalf("board %s not found", id)
	}

	return *b
}

// Attachments returns copies of the attachments stored for a card.
func (f *fakeTrello) Attachments(cardID string) []fakeAttachment {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []fakeAttachment

	for _, a := range f.attachments {
		if a.CardID == cardID {
			out = append(out, *a)
		}
	}

	return out
}

// Requests returns the "METHOD path" of every request so far.
func (f *fakeTrello) Requests() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]string(nil), f.requests...)
}

// FailCardUpdates makes the next n card updates fail.
func (f *fakeTrello) FailCardUpdates(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.failCardUpdates = n
}

// Count returns the number of requests matching "METHOD path".
func (f *fakeTrello) Count(request string) int {
	n := 0

	for _, r := range f.Requests() {
		if r == request {
			n++
		}
	}

	return n
}
