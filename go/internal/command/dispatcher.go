package command

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/quizbattle/go/internal/game"
)

// Envelope is the outbound message written to the transport
type Envelope struct {
	Action         Kind          `json:"action"`
	Choice         string        `json:"choice,omitempty"`
	OptionIndex    int           `json:"option_index,omitempty"`
	ToPlayerID     int           `json:"to_player_id,omitempty"`
	ControlAction  ControlAction `json:"control_action,omitempty"`
	TargetPlayerID *int          `json:"target_player_id,omitempty"`
	Topic          string        `json:"topic,omitempty"`
	Difficulty     string        `json:"difficulty,omitempty"`
}

// Transport is the live connection commands are written to
type Transport interface {
	Connected() bool
	Send(ctx context.Context, payload []byte) error
}

// Starter issues the start request. Start is not a websocket command.
type Starter interface {
	StartGame(ctx context.Context, pin string, hostPlayerID int) error
}

// Dispatcher serializes validated commands and hands them to the transport
type Dispatcher struct {
	transport Transport
	starter   Starter
	identity  game.Identity
}

// NewDispatcher creates a dispatcher for one session view
func NewDispatcher(transport Transport, starter Starter, identity game.Identity) *Dispatcher {
	return &Dispatcher{
		transport: transport,
		starter:   starter,
		identity:  identity,
	}
}

// Encode builds the wire envelope for a websocket command
func Encode(c Command) ([]byte, error) {
	env := Envelope{Action: c.Kind}
	switch c.Kind {
	case KindVote:
		env.Choice = c.Choice
	case KindAnswer:
		env.OptionIndex = c.OptionIndex
	case KindSkip:
	case KindTransferCaptain:
		env.ToPlayerID = c.ToPlayerID
	case KindHostControl:
		env.ControlAction = c.Control
		switch c.Control {
		case ControlKick:
			target := c.TargetPlayerID
			env.TargetPlayerID = &target
		case ControlRestart:
			env.Topic = c.Topic
			env.Difficulty = c.Difficulty
		}
	default:
		return nil, fmt.Errorf("%q is not a websocket command: %w", c.Kind, game.ErrMalformedCommand)
	}
	return json.Marshal(env)
}

// Send validates the payload against the active question and forwards it.
// Permission checks are the caller's job.
func (d *Dispatcher) Send(ctx context.Context, c Command, active *game.Question) error {
	if err := c.Validate(active); err != nil {
		return err
	}

	if c.Kind == KindStart {
		return d.start(ctx)
	}

	payload, err := Encode(c)
	if err != nil {
		return err
	}

	if d.transport == nil || !d.transport.Connected() {
		return fmt.Errorf("send %s: %w", c.Name(), game.ErrTransportUnavailable)
	}
	if err := d.transport.Send(ctx, payload); err != nil {
		if errors.Is(err, game.ErrTransportUnavailable) {
			return err
		}
		return fmt.Errorf("send %s: %v: %w", c.Name(), err, game.ErrTransportUnavailable)
	}

	log.Debug().
		Str("pin", d.identity.Pin).
		Int("player_id", d.identity.PlayerID).
		Str("command", c.Name()).
		RawJSON("payload", payload).
		Msg("command sent")
	return nil
}

func (d *Dispatcher) start(ctx context.Context) error {
	if d.starter == nil {
		return fmt.Errorf("no start endpoint configured: %w", game.ErrStartRequestFailed)
	}
	if err := d.starter.StartGame(ctx, d.identity.Pin, d.identity.PlayerID); err != nil {
		if errors.Is(err, game.ErrStartRequestFailed) {
			return err
		}
		return fmt.Errorf("%v: %w", err, game.ErrStartRequestFailed)
	}
	log.Info().Str("pin", d.identity.Pin).Int("player_id", d.identity.PlayerID).Msg("start requested")
	return nil
}
