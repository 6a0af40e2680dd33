package editsession

import (
	"github.com/MichaelAquilina/tro/internal/cardtext"
	"github.com/MichaelAquilina/tro/internal/trello"
)

// State is the phase of an edit session.
type State int

// Session states. Uploads happen inside an Editing tick.
const (
	Editing State = iota
	WaitingAfterError
	Done
)

func (s State) String() string {
	switch s {
	case Editing:
		return "editing"
	case WaitingAfterError:
		return "waiting-after-error"
	case Done:
		return "done"
	default:
		return "unknown"
	}
}

// round tracks the outcome of one editor invocation.
type round struct {
	attempted bool
	// err is the last recorded outcome; nil means the last attempt succeeded.
	err error
}

func (r round) record(err error) round {
	return round{attempted: true, err: err}
}

type action int

const (
	actionWait action = iota
	actionFail
	actionUpload
	actionKeep
)

func (a action) String() string {
	switch a {
	case actionWait:
		return "wait"
	case actionFail:
		return "fail"
	case actionUpload:
		return "upload"
	case actionKeep:
		return "keep"
	default:
		return "unknown"
	}
}

// plan decides what a tick does with the decoded buffer. card is the
// in-memory card as last uploaded or loaded.
func plan(r round, card trello.Card, contents cardtext.Contents, decodeErr error, exited bool) action {
	if decodeErr != nil {
		if exited {
			return actionFail
		}

		return actionWait
	}

	if !r.attempted || r.err != nil || contents.Name != card.Name || contents.Desc != card.Desc {
		return actionUpload
	}

	return actionKeep
}

// decide picks the state that follows an Editing phase.
func decide(r round) State {
	if !r.attempted || r.err == nil {
		return Done
	}

	return WaitingAfterError
}
