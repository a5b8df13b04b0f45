package command

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mcdev12/quizbattle/go/internal/game"
)

// Kind identifies an outbound command
type Kind string

const (
	KindStart           Kind = "start"
	KindVote            Kind = "vote"
	KindAnswer          Kind = "answer"
	KindSkip            Kind = "skip"
	KindTransferCaptain Kind = "transfer_captain"
	KindHostControl     Kind = "host_control"
)

// ControlAction is the host_control sub-action
type ControlAction string

const (
	ControlPause        ControlAction = "pause"
	ControlResume       ControlAction = "resume"
	ControlNextQuestion ControlAction = "next_question"
	ControlKick         ControlAction = "kick"
	ControlRestart      ControlAction = "restart"
)

// DefaultDifficulty is used by Restart when none is given
const DefaultDifficulty = "medium"

// Difficulties lists the difficulty values the server accepts
var Difficulties = []string{"easy", "medium", "hard"}

// Command is a user intent that has been translated into a server command
type Command struct {
	Kind           Kind
	Choice         string
	OptionIndex    int
	ToPlayerID     int
	Control        ControlAction
	TargetPlayerID int
	Topic          string
	Difficulty     string
}

func Start() Command { return Command{Kind: KindStart} }

func Vote(choice string) Command { return Command{Kind: KindVote, Choice: choice} }

// VoteOption votes for the 1-based option index
func VoteOption(optionIndex int) Command { return Vote(strconv.Itoa(optionIndex)) }

func Answer(optionIndex int) Command { return Command{Kind: KindAnswer, OptionIndex: optionIndex} }

func Skip() Command { return Command{Kind: KindSkip} }

func TransferCaptain(toPlayerID int) Command {
	return Command{Kind: KindTransferCaptain, ToPlayerID: toPlayerID}
}

func Pause() Command { return hostControl(ControlPause) }

func Resume() Command { return hostControl(ControlResume) }

func NextQuestion() Command { return hostControl(ControlNextQuestion) }

func Kick(targetPlayerID int) Command {
	c := hostControl(ControlKick)
	c.TargetPlayerID = targetPlayerID
	return c
}

// Restart asks the server for a new match. Topic is trimmed and difficulty
// falls back to DefaultDifficulty.
func Restart(topic, difficulty string) Command {
	c := hostControl(ControlRestart)
	c.Topic = strings.TrimSpace(topic)
	c.Difficulty = strings.ToLower(strings.TrimSpace(difficulty))
	if c.Difficulty == "" {
		c.Difficulty = DefaultDifficulty
	}
	return c
}

func hostControl(action ControlAction) Command {
	return Command{Kind: KindHostControl, Control: action}
}

// Name is a short label used in logs
func (c Command) Name() string {
	if c.Kind == KindHostControl {
		return string(c.Control)
	}
	return string(c.Kind)
}

// Validate checks the payload against the active question. It performs no
// permission checks.
func (c Command) Validate(active *game.Question) error {
	switch c.Kind {
	case KindStart, KindSkip:
		return nil

	case KindAnswer:
		return validateOption(c.OptionIndex, active)

	case KindVote:
		if c.Choice == game.SkipChoice {
			return nil
		}
		idx, err := strconv.Atoi(c.Choice)
		if err != nil {
			return fmt.Errorf("vote choice %q: %w", c.Choice, game.ErrMalformedCommand)
		}
		return validateOption(idx, active)

	case KindTransferCaptain:
		if c.ToPlayerID <= 0 {
			return fmt.Errorf("transfer captain target %d: %w", c.ToPlayerID, game.ErrMalformedCommand)
		}
		return nil

	case KindHostControl:
		return c.validateControl()

	default:
		return fmt.Errorf("unknown command %q: %w", c.Kind, game.ErrMalformedCommand)
	}
}

func (c Command) validateControl() error {
	switch c.Control {
	case ControlPause, ControlResume, ControlNextQuestion:
		return nil
	case ControlKick:
		if c.TargetPlayerID <= 0 {
			return fmt.Errorf("kick target %d: %w", c.TargetPlayerID, game.ErrMalformedCommand)
		}
		return nil
	case ControlRestart:
		if c.Topic == "" {
			return fmt.Errorf("restart needs a topic: %w", game.ErrMalformedCommand)
		}
		for _, d := range Difficulties {
			if d == c.Difficulty {
				return nil
			}
		}
		return fmt.Errorf("restart difficulty %q: %w", c.Difficulty, game.ErrMalformedCommand)
	default:
		return fmt.Errorf("unknown control action %q: %w", c.Control, game.ErrMalformedCommand)
	}
}

func validateOption(idx int, active *game.Question) error {
	if active == nil {
		return fmt.Errorf("no active question: %w", game.ErrMalformedCommand)
	}
	if idx < 1 || idx > len(active.Options) {
		return fmt.Errorf("option %d out of range 1..%d: %w", idx, len(active.Options), game.ErrMalformedCommand)
	}
	return nil
}
