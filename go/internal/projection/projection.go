// Package projection turns snapshot fields into display-ready values.
// Everything here is pure: no mutation of inputs, no I/O.
package projection

import (
	"fmt"
	"strconv"

	"github.com/mcdev12/quizbattle/go/internal/game"
)

// PercentFor returns the server-reported percentage for a choice, clamped to 0..100.
// A missing key is 0.
func PercentFor(votePercentages map[string]int, choice string) int {
	v, ok := votePercentages[choice]
	if !ok || v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// VoteShare is one displayed vote bar
type VoteShare struct {
	Choice  string `json:"choice"`
	Label   string `json:"label"`
	Percent int    `json:"percent"`
}

// VoteSummary lists the vote shares valid for a question with optionCount
// options, in order 1..N then skip. Keys outside that set are stale and
// dropped; zero shares are omitted.
func VoteSummary(votePercentages map[string]int, optionCount int) []VoteShare {
	var out []VoteShare
	for i := 1; i <= optionCount; i++ {
		choice := strconv.Itoa(i)
		if pct := PercentFor(votePercentages, choice); pct > 0 {
			out = append(out, VoteShare{Choice: choice, Label: ChoiceLabel(choice), Percent: pct})
		}
	}
	if pct := PercentFor(votePercentages, game.SkipChoice); pct > 0 {
		out = append(out, VoteShare{Choice: game.SkipChoice, Label: ChoiceLabel(game.SkipChoice), Percent: pct})
	}
	return out
}

// ChoiceLabel names a vote choice for display
func ChoiceLabel(choice string) string {
	if choice == game.SkipChoice {
		return "Skip"
	}
	return "Option " + choice
}

// FormatTeamStats renders team counters on one line
func FormatTeamStats(stats game.TeamStats) string {
	return fmt.Sprintf("Correct: %d, Incorrect: %d, Timeout: %d, Speed bonus: +%d",
		stats.Correct, stats.Incorrect, stats.Timeout, stats.SpeedBonus)
}

// TeamLabel names a team for display
func TeamLabel(team game.Team) string {
	switch team {
	case game.TeamA:
		return "Red team"
	case game.TeamB:
		return "Blue team"
	default:
		return "No team"
	}
}

// WinnerLabel names the winner of a finished game
func WinnerLabel(w game.Winner) string {
	switch w {
	case game.WinnerA:
		return TeamLabel(game.TeamA)
	case game.WinnerB:
		return TeamLabel(game.TeamB)
	case game.WinnerDraw:
		return "Draw"
	default:
		return "Undecided"
	}
}

// RosterEntry is a player line with role markers
type RosterEntry struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	IsHost    bool   `json:"is_host"`
	IsCaptain bool   `json:"is_captain"`
	IsSelf    bool   `json:"is_self"`
}

// Roster groups players for display, preserving server order
type Roster struct {
	Lobby []RosterEntry `json:"lobby"`
	TeamA []RosterEntry `json:"team_a"`
	TeamB []RosterEntry `json:"team_b"`
}

// BuildRoster groups the snapshot's players. Every player appears in Lobby;
// assigned players also appear under their team.
func BuildRoster(s *game.Snapshot, selfID int) Roster {
	var r Roster
	if s == nil {
		return r
	}
	for _, p := range s.Players {
		e := RosterEntry{ID: p.ID, Name: p.Name, IsHost: p.IsHost, IsCaptain: p.IsCaptain, IsSelf: p.ID == selfID}
		r.Lobby = append(r.Lobby, e)
		switch p.Team {
		case game.TeamA:
			r.TeamA = append(r.TeamA, e)
		case game.TeamB:
			r.TeamB = append(r.TeamB, e)
		}
	}
	return r
}

// Label renders a roster entry with host and captain markers
func (e RosterEntry) Label() string {
	label := e.Name
	if e.IsHost {
		label += " (host)"
	}
	if e.IsCaptain {
		label += " [captain]"
	}
	return label
}
