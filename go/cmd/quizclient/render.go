package main

import (
	"fmt"
	"strings"

	"github.com/mcdev12/quizbattle/go/internal/game"
	"github.com/mcdev12/quizbattle/go/internal/gate"
	"github.com/mcdev12/quizbattle/go/internal/projection"
	"github.com/mcdev12/quizbattle/go/internal/session"
	"github.com/mcdev12/quizbattle/go/internal/timer"
)

// render draws the view state as plain text
func render(vs session.ViewState) string {
	var b strings.Builder
	st := vs.State
	s := st.Snapshot

	conn := "online"
	if !vs.Connected {
		conn = "offline"
	}
	fmt.Fprintf(&b, "[%s] room %s\n", conn, st.Identity.Pin)
	if s == nil {
		b.WriteString("waiting for the first state...\n")
		return b.String()
	}

	fmt.Fprintf(&b, "topic: %s (%s)   score: %s %d : %d %s\n",
		s.Topic, s.Difficulty,
		projection.TeamLabel(game.TeamA), s.ScoreA, s.ScoreB, projection.TeamLabel(game.TeamB))

	switch s.Status {
	case game.StatusWaiting:
		b.WriteString("lobby:\n")
		for _, e := range vs.Roster.Lobby {
			fmt.Fprintf(&b, "  %s\n", markSelf(e))
		}
	case game.StatusInProgress:
		writeTeams(&b, vs.Roster)
		writeRound(&b, st.Timer, s)
		for _, v := range st.Votes {
			fmt.Fprintf(&b, "  %s: %d%%\n", v.Label, v.Percent)
		}
	case game.StatusFinished:
		if vs.Report != nil {
			b.WriteString(vs.Report.Text())
			b.WriteString("\n")
		}
	}

	if st.Feedback != nil {
		fmt.Fprintf(&b, "> %s\n", st.Feedback.Text())
	} else if st.LastOutcome != nil && s.Status != game.StatusWaiting {
		fmt.Fprintf(&b, "last question: %s\n", st.LastOutcome.Text())
	}
	if st.Notice != "" {
		fmt.Fprintf(&b, "! %s\n", st.Notice)
	}
	if actions := available(st.Permissions, st.StartInFlight); len(actions) > 0 {
		fmt.Fprintf(&b, "you can: %s\n", strings.Join(actions, ", "))
	}
	return b.String()
}

func writeTeams(b *strings.Builder, r projection.Roster) {
	for _, team := range []struct {
		label   string
		entries []projection.RosterEntry
	}{
		{projection.TeamLabel(game.TeamA), r.TeamA},
		{projection.TeamLabel(game.TeamB), r.TeamB},
	} {
		names := make([]string, 0, len(team.entries))
		for _, e := range team.entries {
			names = append(names, markSelf(e))
		}
		fmt.Fprintf(b, "%s: %s\n", team.label, strings.Join(names, ", "))
	}
}

func writeRound(b *strings.Builder, t timer.Display, s *game.Snapshot) {
	switch s.Phase {
	case game.PhaseCountdown:
		fmt.Fprintf(b, "get ready: %s\n", clock(t))
	case game.PhasePaused:
		b.WriteString("paused\n")
	case game.PhaseQuestion:
		if s.CurrentQuestion == nil {
			return
		}
		fmt.Fprintf(b, "%s to answer, %s\n", projection.TeamLabel(s.CurrentTeam), clock(t))
		fmt.Fprintf(b, "Q%d: %s\n", s.CurrentQuestion.OrderIndex+1, s.CurrentQuestion.Text)
		for i, opt := range s.CurrentQuestion.Options {
			fmt.Fprintf(b, "  %d) %s\n", i+1, opt)
		}
	}
}

func clock(t timer.Display) string {
	switch {
	case !t.Armed:
		return "-"
	case t.Expired:
		return "time is up"
	default:
		return fmt.Sprintf("%ds", t.Remaining)
	}
}

func markSelf(e projection.RosterEntry) string {
	if e.IsSelf {
		return e.Label() + " (you)"
	}
	return e.Label()
}

func available(p gate.Permissions, startInFlight bool) []string {
	var out []string
	add := func(ok bool, name string) {
		if ok {
			out = append(out, name)
		}
	}
	add(p.CanStart && !startInFlight, "start")
	add(p.CanAnswer, "answer")
	add(p.CanVote && !p.CanAnswer, "vote")
	add(p.CanSkipVote || p.CanAnswer, "skip")
	add(p.CanPause, "pause")
	add(p.CanResume, "resume")
	add(p.CanAdvance, "next")
	add(p.CanKick, "kick")
	add(p.CanTransferCaptain, "captain")
	add(p.CanRestart, "restart")
	return out
}
