package trello

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	adlio "github.com/adlio/trello"
)

// Field selections sent with every request, so responses stay small.
const (
	boardFields      = "id,name,closed,url"
	listFields       = "id,name,closed"
	cardFields       = "id,name,desc,labels,closed,url"
	labelFields      = "id,name,color"
	attachmentFields = "id,name,url"
)

// ErrUnknownKind is returned by Reopen for a type other than board, list or card.
var ErrUnknownKind = errors.New("unknown object type (must be board, list or card)")

// Client talks to the Trello REST API.
type Client struct {
	api *adlio.Client
}

// NewClient returns a client for host (e.g. https://api.trello.com) authenticated with
// the given developer key and token.
func NewClient(host, key, token string) *Client {
	api := adlio.NewClient(key, token)
	api.BaseURL = strings.TrimRight(host, "/") + "/1"

	return &Client{api: api}
}

func (c *Client) get(ctx context.Context, path string, args adlio.Arguments, target any) error {
	return c.api.WithContext(ctx).Get(path, args, target)
}

func (c *Client) put(ctx context.Context, path string, args adlio.Arguments, target any) error {
	return c.api.WithContext(ctx).Put(path, args, target)
}

func (c *Client) post(ctx context.Context, path string, args adlio.Arguments, target any) error {
	return c.api.WithContext(ctx).Post(path, args, target)
}

func (c *Client) delete(ctx context.Context, path string, args adlio.Arguments, target any) error {
	return c.api.WithContext(ctx).Delete(path, args, target)
}

// Me returns the member the credentials belong to.
func (c *Client) Me(ctx context.Context) (Member, error) {
	var m adlio.Member

	err := c.get(ctx, "members/me", adlio.Arguments{"fields": "id,username,fullName"}, &m)
	if err != nil {
		return Member{}, fmt.Errorf("get member: %w", err)
	}

	return Member{ID: m.ID, Username: m.Username, FullName: m.FullName}, nil
}

// Boards returns all open boards of the authenticated member.
func (c *Client) Boards(ctx context.Context) ([]Board, error) {
	var raw []*adlio.Board

	err := c.get(ctx, "members/me/boards", adlio.Arguments{"filter": "open", "fields": boardFields}, &raw)
	if err != nil {
		return nil, fmt.Errorf("get boards: %w", err)
	}

	boards := make([]Board, 0, len(raw))
	for _, b := range raw {
		boards = append(boards, boardFromAPI(b))
	}

	return boards, nil
}

// BoardTree returns a board with all its open lists, each holding its open
// cards. Everything arrives in a single request; cards are grouped into their
// lists by idList, keeping the order Trello returned them in.
func (c *Client) BoardTree(ctx context.Context, boardID string) (Board, error) {
	var raw struct {
		adlio.Board
		Lists []*adlio.List `json:"lists"`
		Cards []*adlio.Card `json:"cards"`
	}

	args := adlio.Arguments{
		"fields":      boardFields,
		"lists":       "open",
		"list_fields": listFields,
		"cards":       "open",
		"card_fields": cardFields + ",idList",
	}

	err := c.get(ctx, "boards/"+boardID, args, &raw)
	if err != nil {
		return Board{}, fmt.Errorf("get board %s: %w", boardID, err)
	}

	board := boardFromAPI(&raw.Board)
	board.Lists = make([]List, 0, len(raw.Lists))

	byList := make(map[string][]Card, len(raw.Lists))
	for _, card := range raw.Cards {
		byList[card.IDList] = append(byList[card.IDList], cardFromAPI(card))
	}

	for _, l := range raw.Lists {
		list := listFromAPI(l)

		list.Cards = byList[l.ID]
		if list.Cards == nil {
			list.Cards = []Card{}
		}

		board.Lists = append(board.Lists, list)
	}

	return board, nil
}

// ListCards returns the open cards of a list.
func (c *Client) ListCards(ctx context.Context, listID string) ([]Card, error) {
	var raw []*adlio.Card

	err := c.get(ctx, "lists/"+listID+"/cards", adlio.Arguments{"fields": cardFields}, &raw)
	if err != nil {
		return nil, fmt.Errorf("get cards of list %s: %w", listID, err)
	}

	return cardsFromAPI(raw), nil
}

// UpdateCard writes the card's name, description and closed state.
func (c *Client) UpdateCard(ctx context.Context, card Card) (Card, error) {
	var raw adlio.Card

	args := adlio.Arguments{
		"name":   card.Name,
		"desc":   card.Desc,
		"closed": strconv.FormatBool(card.Closed),
	}

	err := c.put(ctx, "cards/"+card.ID, args, &raw)
	if err != nil {
		return Card{}, fmt.Errorf("update card %s: %w", card.ID, err)
	}

	return cardFromAPI(&raw), nil
}

// UpdateList writes the list's name and closed state.
func (c *Client) UpdateList(ctx context.Context, list List) (List, error) {
	var raw adlio.List

	args := adlio.Arguments{"name": list.Name, "closed": strconv.FormatBool(list.Closed)}

	err := c.put(ctx, "lists/"+list.ID, args, &raw)
	if err != nil {
		return List{}, fmt.Errorf("update list %s: %w", list.ID, err)
	}

	return listFromAPI(&raw), nil
}

// UpdateBoard writes the board's name and closed state.
func (c *Client) UpdateBoard(ctx context.Context, board Board) (Board, error) {
	var raw adlio.Board

	args := adlio.Arguments{"name": board.Name, "closed": strconv.FormatBool(board.Closed)}

	err := c.put(ctx, "boards/"+board.ID, args, &raw)
	if err != nil {
		return Board{}, fmt.Errorf("update board %s: %w", board.ID, err)
	}

	return boardFromAPI(&raw), nil
}

// Reopen sets closed=false on the board, list or card with the given id.
// kind is one of "board", "list" or "card". It returns the reopened object's name.
func (c *Client) Reopen(ctx context.Context, kind, id string) (string, error) {
	var path string

	switch strings.ToLower(kind) {
	case "board":
		path = "boards/"
	case "list":
		path = "lists/"
	case "card":
		path = "cards/"
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}

	var raw struct {
		Name string `json:"name"`
	}

	err := c.put(ctx, path+id, adlio.Arguments{"closed": "false"}, &raw)
	if err != nil {
		return "", fmt.Errorf("reopen %s %s: %w", kind, id, err)
	}

	return raw.Name, nil
}

// CreateBoard creates a new board.
func (c *Client) CreateBoard(ctx context.Context, name string) (Board, error) {
	var raw adlio.Board

	err := c.post(ctx, "boards", adlio.Arguments{"name": name}, &raw)
	if err != nil {
		return Board{}, fmt.Errorf("create board: %w", err)
	}

	return boardFromAPI(&raw), nil
}

// CreateList creates a new list on a board.
func (c *Client) CreateList(ctx context.Context, boardID, name string) (List, error) {
	var raw adlio.List

	err := c.post(ctx, "lists", adlio.Arguments{"name": name, "idBoard": boardID}, &raw)
	if err != nil {
		return List{}, fmt.Errorf("create list: %w", err)
	}

	return listFromAPI(&raw), nil
}

// CreateCard creates a new card at the bottom of a list.
func (c *Client) CreateCard(ctx context.Context, listID, name, desc string) (Card, error) {
	var raw adlio.Card

	err := c.post(ctx, "cards", adlio.Arguments{"name": name, "desc": desc, "idList": listID}, &raw)
	if err != nil {
		return Card{}, fmt.Errorf("create card: %w", err)
	}

	return cardFromAPI(&raw), nil
}

// BoardLabels returns all labels defined on a board.
func (c *Client) BoardLabels(ctx context.Context, boardID string) ([]Label, error) {
	var raw []*adlio.Label

	err := c.get(ctx, "boards/"+boardID+"/labels", adlio.Arguments{"fields": labelFields}, &raw)
	if err != nil {
		return nil, fmt.Errorf("get labels of board %s: %w", boardID, err)
	}

	return labelsFromAPI(raw), nil
}

// ApplyLabel adds a board label to a card.
func (c *Client) ApplyLabel(ctx context.Context, cardID, labelID string) error {
	var ids []string

	err := c.post(ctx, "cards/"+cardID+"/idLabels", adlio.Arguments{"value": labelID}, &ids)
	if err != nil {
		return fmt.Errorf("apply label %s to card %s: %w", labelID, cardID, err)
	}

	return nil
}

// RemoveLabel removes a label from a card.
func (c *Client) RemoveLabel(ctx context.Context, cardID, labelID string) error {
	var ids []string

	err := c.delete(ctx, "cards/"+cardID+"/idLabels/"+labelID, adlio.Defaults(), &ids)
	if err != nil {
		return fmt.Errorf("remove label %s from card %s: %w", labelID, cardID, err)
	}

	return nil
}

// Attachments returns the attachments of a card.
func (c *Client) Attachments(ctx context.Context, cardID string) ([]Attachment, error) {
	var raw []*adlio.Attachment

	err := c.get(ctx, "cards/"+cardID+"/attachments", adlio.Arguments{"fields": attachmentFields}, &raw)
	if err != nil {
		return nil, fmt.Errorf("get attachments of card %s: %w", cardID, err)
	}

	attachments := make([]Attachment, 0, len(raw))
	for _, a := range raw {
		attachments = append(attachments, Attachment{ID: a.ID, Name: a.Name, URL: a.URL})
	}

	return attachments, nil
}

// AttachURL attaches a link to a card. An empty name lets Trello derive one.
func (c *Client) AttachURL(ctx context.Context, cardID, url, name string) (Attachment, error) {
	args := adlio.Arguments{"url": url}
	if name != "" {
		args["name"] = name
	}

	var raw adlio.Attachment

	err := c.post(ctx, "cards/"+cardID+"/attachments", args, &raw)
	if err != nil {
		return Attachment{}, fmt.Errorf("attach to card %s: %w", cardID, err)
	}

	return Attachment{ID: raw.ID, Name: raw.Name, URL: raw.URL}, nil
}

// AttachFile uploads the file at path to a card. An empty name lets Trello use
// the file name.
func (c *Client) AttachFile(ctx context.Context, cardID, path, name string) (Attachment, error) {
	f, err := os.Open(path)
	if err != nil {
		return Attachment{}, fmt.Errorf("open attachment: %w", err)
	}
	defer func() { _ = f.Close() }()

	args := adlio.Arguments{}
	if name != "" {
		args["name"] = name
	}

	var raw adlio.Attachment

	err = c.api.WithContext(ctx).PostWithBody("cards/"+cardID+"/attachments", args, &raw, filepath.Base(path), f)
	if err != nil {
		return Attachment{}, fmt.Errorf("upload to card %s: %w", cardID, err)
	}

	return Attachment{ID: raw.ID, Name: raw.Name, URL: raw.URL}, nil
}

// SearchOptions tunes a card search.
type SearchOptions struct {
	// Partial matches words by prefix.
	Partial bool
	// CardsLimit caps the number of cards; zero uses the Trello default.
	CardsLimit int
}

// SearchCards runs a Trello search and returns the matching cards.
func (c *Client) SearchCards(ctx context.Context, query string, opts SearchOptions) ([]Card, error) {
	args := adlio.Arguments{
		"query":       query,
		"modelTypes":  "cards",
		"partial":     strconv.FormatBool(opts.Partial),
		"card_fields": cardFields,
		// Zero is rejected by the API, so ask for the smallest board count.
		"boards_limit": "1",
	}
	if opts.CardsLimit > 0 {
		args["cards_limit"] = strconv.Itoa(opts.CardsLimit)
	}

	var raw struct {
		Cards []*adlio.Card `json:"cards"`
	}

	err := c.get(ctx, "search", args, &raw)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	return cardsFromAPI(raw.Cards), nil
}

func boardFromAPI(b *adlio.Board) Board {
	return Board{ID: b.ID, Name: b.Name, Closed: b.Closed, URL: b.URL}
}

func listFromAPI(l *adlio.List) List {
	list := List{ID: l.ID, Name: l.Name, Closed: l.Closed}
	if l.Cards != nil {
		list.Cards = cardsFromAPI(l.Cards)
	}

	return list
}

func cardsFromAPI(raw []*adlio.Card) []Card {
	cards := make([]Card, 0, len(raw))
	for _, c := range raw {
		cards = append(cards, cardFromAPI(c))
	}

	return cards
}

func cardFromAPI(c *adlio.Card) Card {
	card := Card{ID: c.ID, Name: c.Name, Desc: c.Desc, Closed: c.Closed, URL: c.URL}
	if c.Labels != nil {
		card.Labels = labelsFromAPI(c.Labels)
	}

	return card
}

func labelsFromAPI(raw []*adlio.Label) []Label {
	labels := make([]Label, 0, len(raw))
	for _, l := range raw {
		labels = append(labels, Label{ID: l.ID, Name: l.Name, Color: l.Color})
	}

	return labels
}
