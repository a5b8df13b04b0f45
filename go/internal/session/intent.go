package session

import (
	"errors"
	"fmt"

	"github.com/mcdev12/quizbattle/go/internal/command"
	"github.com/mcdev12/quizbattle/go/internal/game"
	"github.com/mcdev12/quizbattle/go/internal/gate"
)

type intentKind int

const (
	intentCommand intentKind = iota
	intentChoose
	intentSkip
	intentExport
)

// Intent is something the participant asked for. Choose and Skip are
// routed to a concrete command from the current permissions.
type Intent struct {
	kind    intentKind
	option  int
	command command.Command
}

// Send asks for exactly c
func Send(c command.Command) Intent {
	return Intent{kind: intentCommand, command: c}
}

// Choose picks an answer option: a binding answer when the participant may
// answer, a vote otherwise
func Choose(option int) Intent {
	return Intent{kind: intentChoose, option: option}
}

// SkipQuestion skips the question when the participant may answer and
// votes for skipping otherwise
func SkipQuestion() Intent {
	return Intent{kind: intentSkip}
}

// ExportReport re-exports the result of a finished game
func ExportReport() Intent {
	return Intent{kind: intentExport}
}

// resolve turns an intent into the command to check and dispatch
func (in Intent) resolve(p gate.Permissions) (command.Command, error) {
	switch in.kind {
	case intentChoose:
		switch {
		case p.CanAnswer:
			return command.Answer(in.option), nil
		case p.CanVote:
			return command.VoteOption(in.option), nil
		default:
			return command.Command{}, fmt.Errorf("choose option %d: %w", in.option, game.ErrPermissionDenied)
		}
	case intentSkip:
		if p.CanAnswer {
			return command.Skip(), nil
		}
		return command.Vote(game.SkipChoice), nil
	case intentCommand:
		return in.command, nil
	default:
		return command.Command{}, fmt.Errorf("unsupported intent: %w", game.ErrMalformedCommand)
	}
}

// Notices for command outcomes
const (
	NoticeNotAllowed   = "that action is not available right now"
	NoticeConnection   = "connection unstable, try again in a second"
	NoticeRestarting   = "starting a new match..."
	NoticeReconnected  = "connection restarted, check the room state"
	NoticeStarting     = "starting..."
	NoticeNothingSaved = "no finished game to export"
)

// noticeFor maps a non-fatal command error to the inline message shown
func noticeFor(err error) string {
	switch {
	case errors.Is(err, game.ErrPermissionDenied):
		return NoticeNotAllowed
	case errors.Is(err, game.ErrTransportUnavailable):
		return NoticeConnection
	default:
		return err.Error()
	}
}
