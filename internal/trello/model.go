// Package trello holds the Trello object model used by tro and a thin client
// over the Trello REST API.
package trello

// Named is implemented by every Trello object that can be matched by name.
type Named interface {
	// GetID returns the Trello id of the object.
	GetID() string
	// GetName returns the display name.
	GetName() string
	// Kind returns a type label such as "Board" or "Card".
	Kind() string
}

// Object kinds.
const (
	KindBoard      = "Board"
	KindList       = "List"
	KindCard       = "Card"
	KindLabel      = "Label"
	KindAttachment = "Attachment"
)

// Board is a Trello board. Lists is nil until the board tree was fetched.
type Board struct {
	ID     string
	Name   string
	Closed bool
	URL    string
	Lists  []List
}

func (b Board) GetID() string   { return b.ID }
func (b Board) GetName() string { return b.Name }
func (Board) Kind() string      { return KindBoard }

// List is a column on a board. Cards is nil until they were fetched.
type List struct {
	ID     string
	Name   string
	Closed bool
	Cards  []Card
}

func (l List) GetID() string   { return l.ID }
func (l List) GetName() string { return l.Name }
func (List) Kind() string      { return KindList }

// Card is a single Trello card.
type Card struct {
	ID     string
	Name   string
	Desc   string
	Closed bool
	URL    string
	Labels []Label
}

func (c Card) GetID() string   { return c.ID }
func (c Card) GetName() string { return c.Name }
func (Card) Kind() string      { return KindCard }

// HasLabel reports whether the card carries the label with the given id.
func (c Card) HasLabel(id string) bool {
	for _, l := range c.Labels {
		if l.ID == id {
			return true
		}
	}

	return false
}

// Label is a coloured board label.
type Label struct {
	ID    string
	Name  string
	Color string
}

func (l Label) GetID() string   { return l.ID }
func (l Label) GetName() string { return l.Name }
func (Label) Kind() string      { return KindLabel }

// Attachment is a file or link attached to a card.
type Attachment struct {
	ID   string
	Name string
	URL  string
}

func (a Attachment) GetID() string   { return a.ID }
func (a Attachment) GetName() string { return a.Name }
func (Attachment) Kind() string      { return KindAttachment }

// Member is a Trello user.
type Member struct {
	ID       string
	Username string
	FullName string
}
