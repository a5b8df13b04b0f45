// Package gate derives which commands the local participant may issue
// from the latest snapshot, and checks attempted commands against that set.
package gate

import (
	"fmt"

	"github.com/mcdev12/quizbattle/go/internal/command"
	"github.com/mcdev12/quizbattle/go/internal/game"
)

// Permissions is the per-snapshot permission set for the local participant
type Permissions struct {
	CanStart           bool `json:"can_start"`
	CanVote            bool `json:"can_vote"`
	CanAnswer          bool `json:"can_answer"`
	CanSkipVote        bool `json:"can_skip_vote"`
	CanPause           bool `json:"can_pause"`
	CanResume          bool `json:"can_resume"`
	CanAdvance         bool `json:"can_advance"`
	CanKick            bool `json:"can_kick"`
	CanTransferCaptain bool `json:"can_transfer_captain"`
	CanRestart         bool `json:"can_restart"`

	EligibleCaptainTransferTargets []game.Player `json:"eligible_captain_transfer_targets"`
	EligibleKickTargets            []game.Player `json:"eligible_kick_targets"`
}

// PermissionsFor computes the permission set. Every rule is evaluated
// independently. A participant missing from the roster gets nothing.
func PermissionsFor(s *game.Snapshot, id game.Identity) Permissions {
	var p Permissions
	if s == nil {
		return p
	}
	me, ok := s.FindPlayer(id.PlayerID)
	if !ok {
		return p
	}

	phase := s.ActivePhase()
	inProgress := s.Status == game.StatusInProgress

	p.CanStart = me.IsHost && s.Status == game.StatusWaiting
	p.CanVote = me.Team != game.TeamNone && me.Team == s.CurrentTeam && phase == game.PhaseQuestion
	p.CanAnswer = p.CanVote && me.IsCaptain
	p.CanSkipVote = p.CanVote
	p.CanPause = me.IsHost && inProgress && phase != game.PhasePaused
	p.CanResume = me.IsHost && phase == game.PhasePaused
	p.CanAdvance = me.IsHost && phase == game.PhaseQuestion
	p.CanKick = me.IsHost && inProgress
	p.CanTransferCaptain = me.IsCaptain && me.Team != game.TeamNone && inProgress
	p.CanRestart = me.IsHost && s.Status == game.StatusFinished

	if p.CanKick {
		for _, other := range s.Players {
			if other.ID != me.ID {
				p.EligibleKickTargets = append(p.EligibleKickTargets, other)
			}
		}
	}
	if p.CanTransferCaptain {
		for _, other := range s.Players {
			if other.ID != me.ID && other.Team == me.Team && !other.IsCaptain {
				p.EligibleCaptainTransferTargets = append(p.EligibleCaptainTransferTargets, other)
			}
		}
	}
	return p
}

// Equal reports whether two permission sets grant the same commands to the same targets
func (p Permissions) Equal(o Permissions) bool {
	return p.CanStart == o.CanStart &&
		p.CanVote == o.CanVote &&
		p.CanAnswer == o.CanAnswer &&
		p.CanSkipVote == o.CanSkipVote &&
		p.CanPause == o.CanPause &&
		p.CanResume == o.CanResume &&
		p.CanAdvance == o.CanAdvance &&
		p.CanKick == o.CanKick &&
		p.CanTransferCaptain == o.CanTransferCaptain &&
		p.CanRestart == o.CanRestart &&
		samePlayers(p.EligibleCaptainTransferTargets, o.EligibleCaptainTransferTargets) &&
		samePlayers(p.EligibleKickTargets, o.EligibleKickTargets)
}

// Any reports whether at least one command is permitted
func (p Permissions) Any() bool {
	return p.CanStart || p.CanVote || p.CanAnswer || p.CanSkipVote || p.CanPause ||
		p.CanResume || p.CanAdvance || p.CanKick || p.CanTransferCaptain || p.CanRestart
}

// Check rejects a command whose permission is false. Local only: the server
// still authorizes every command it receives.
func (p Permissions) Check(c command.Command) error {
	allowed := false
	switch c.Kind {
	case command.KindStart:
		allowed = p.CanStart
	case command.KindVote:
		if c.Choice == game.SkipChoice {
			allowed = p.CanSkipVote
		} else {
			allowed = p.CanVote
		}
	case command.KindAnswer, command.KindSkip:
		allowed = p.CanAnswer
	case command.KindTransferCaptain:
		allowed = p.CanTransferCaptain && containsPlayer(p.EligibleCaptainTransferTargets, c.ToPlayerID)
	case command.KindHostControl:
		switch c.Control {
		case command.ControlPause:
			allowed = p.CanPause
		case command.ControlResume:
			allowed = p.CanResume
		case command.ControlNextQuestion:
			allowed = p.CanAdvance
		case command.ControlKick:
			allowed = p.CanKick && containsPlayer(p.EligibleKickTargets, c.TargetPlayerID)
		case command.ControlRestart:
			allowed = p.CanRestart
		}
	}
	if !allowed {
		return fmt.Errorf("%s: %w", c.Name(), game.ErrPermissionDenied)
	}
	return nil
}

func containsPlayer(players []game.Player, id int) bool {
	for _, p := range players {
		if p.ID == id {
			return true
		}
	}
	return false
}

func samePlayers(a, b []game.Player) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
