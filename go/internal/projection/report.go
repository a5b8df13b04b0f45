package projection

import (
	"fmt"
	"strings"

	"github.com/mcdev12/quizbattle/go/internal/game"
)

const reportRule = "==========================================="

// Report is the exportable summary of a finished game
type Report struct {
	Pin        string         `json:"pin" yaml:"pin"`
	Topic      string         `json:"topic" yaml:"topic"`
	Difficulty string         `json:"difficulty" yaml:"difficulty"`
	ScoreA     int            `json:"score_a" yaml:"score_a"`
	ScoreB     int            `json:"score_b" yaml:"score_b"`
	Winner     game.Winner    `json:"winner" yaml:"winner"`
	StatsA     game.TeamStats `json:"stats_a" yaml:"stats_a"`
	StatsB     game.TeamStats `json:"stats_b" yaml:"stats_b"`
}

// BuildResultReport extracts the report fields from a final snapshot.
// pin is used when the snapshot does not carry one.
func BuildResultReport(final *game.Snapshot, pin string) Report {
	if final == nil {
		return Report{Pin: pin}
	}
	if final.Pin != "" {
		pin = final.Pin
	}
	return Report{
		Pin:        pin,
		Topic:      final.Topic,
		Difficulty: final.Difficulty,
		ScoreA:     final.ScoreA,
		ScoreB:     final.ScoreB,
		Winner:     final.Winner,
		StatsA:     final.StatsFor(game.TeamA),
		StatsB:     final.StatsFor(game.TeamB),
	}
}

// Text renders the report as framed plain text
func (r Report) Text() string {
	rows := []string{
		reportRule,
		"             QUIZBATTLE REPORT             ",
		reportRule,
		fmt.Sprintf("Room: %s", r.Pin),
		fmt.Sprintf("Topic: %s", r.Topic),
		fmt.Sprintf("Difficulty: %s", r.Difficulty),
		fmt.Sprintf("Final score: Red %d : Blue %d", r.ScoreA, r.ScoreB),
		fmt.Sprintf("Winner: %s", WinnerLabel(r.Winner)),
		"",
		"Team stats:",
		fmt.Sprintf("  Red: %s", FormatTeamStats(r.StatsA)),
		fmt.Sprintf("  Blue: %s", FormatTeamStats(r.StatsB)),
		reportRule,
	}
	return strings.Join(rows, "\n")
}

// FileName is the suggested artifact name
func (r Report) FileName() string {
	return fmt.Sprintf("quizbattle-result-%s.txt", r.Pin)
}
