package find

import (
	"context"
	"fmt"

	"github.com/MichaelAquilina/tro/internal/trello"
)

// WildcardList is the list pattern that searches the cards of every list on
// the board.
const WildcardList = "-"

// Params holds the patterns of one lookup. Empty strings mean "not given".
type Params struct {
	BoardName  string
	ListName   string
	CardName   string
	IgnoreCase bool
}

// Result is the outcome of Locate. Set fields always form a prefix of the
// board, list, card hierarchy, except that List stays nil when Card was found
// through the wildcard list.
type Result struct {
	Board *trello.Board
	List  *trello.List
	Card  *trello.Card
}

// Fetcher loads Trello objects. *trello.Client implements it.
type Fetcher interface {
	Boards(ctx context.Context) ([]trello.Board, error)
	BoardTree(ctx context.Context, boardID string) (trello.Board, error)
	ListCards(ctx context.Context, listID string) ([]trello.Card, error)
}

// Locator resolves Params against the boards a Fetcher returns.
type Locator struct {
	Fetcher Fetcher
}

// NewLocator returns a Locator backed by f.
func NewLocator(f Fetcher) *Locator {
	return &Locator{Fetcher: f}
}

// Locate resolves the board, then the list and card inside it. Without a
// board pattern it returns an empty Result. The first failing pattern aborts
// the lookup and its error is returned as is.
func (l *Locator) Locate(ctx context.Context, p Params) (Result, error) {
	var res Result

	if p.BoardName == "" {
		return res, nil
	}

	boards, err := l.Fetcher.Boards(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("fetch boards: %w", err)
	}

	board, err := Resolve(boards, p.BoardName, p.IgnoreCase)
	if err != nil {
		return Result{}, err
	}

	board, err = l.Fetcher.BoardTree(ctx, board.ID)
	if err != nil {
		return Result{}, fmt.Errorf("fetch board: %w", err)
	}

	res.Board = &board

	switch {
	case p.ListName == WildcardList:
		if p.CardName == "" {
			return Result{}, ErrWildcardCardRequired
		}

		cards, err := l.allCards(ctx, board.Lists)
		if err != nil {
			return Result{}, err
		}

		card, err := Resolve(cards, p.CardName, p.IgnoreCase)
		if err != nil {
			return Result{}, err
		}

		res.Card = &card

	case p.ListName != "":
		list, err := Resolve(board.Lists, p.ListName, p.IgnoreCase)
		if err != nil {
			return Result{}, err
		}

		res.List = &list

		if p.CardName == "" {
			return res, nil
		}

		cards, err := l.allCards(ctx, []trello.List{list})
		if err != nil {
			return Result{}, err
		}

		card, err := Resolve(cards, p.CardName, p.IgnoreCase)
		if err != nil {
			return Result{}, err
		}

		res.Card = &card
	}

	return res, nil
}

func (l *Locator) allCards(ctx context.Context, lists []trello.List) ([]trello.Card, error) {
	var cards []trello.Card

	for _, list := range lists {
		listCards := list.Cards
		if listCards == nil {
			var err error

			listCards, err = l.Fetcher.ListCards(ctx, list.ID)
			if err != nil {
				return nil, fmt.Errorf("fetch cards of list %s: %w", list.Name, err)
			}
		}

		cards = append(cards, listCards...)
	}

	return cards, nil
}
