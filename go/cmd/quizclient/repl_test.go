package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/quizbattle/go/internal/command"
	"github.com/mcdev12/quizbattle/go/internal/session"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		line string
		want session.Intent
	}{
		{"2", session.Choose(2)},
		{"skip", session.SkipQuestion()},
		{"vote SKIP", session.Send(command.Vote("skip"))},
		{"vote 3", session.Send(command.Vote("3"))},
		{"answer 1", session.Send(command.Answer(1))},
		{"start", session.Send(command.Start())},
		{"pause", session.Send(command.Pause())},
		{"resume", session.Send(command.Resume())},
		{"next", session.Send(command.NextQuestion())},
		{"kick 4", session.Send(command.Kick(4))},
		{"captain 3", session.Send(command.TransferCaptain(3))},
		{"restart world history hard", session.Send(command.Restart("world history", "hard"))},
		{"restart cats", session.Send(command.Restart("cats", ""))},
		{"export", session.ExportReport()},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, err := parseLine(tt.line)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseLineErrors(t *testing.T) {
	_, err := parseLine("quit")
	assert.ErrorIs(t, err, errQuit)
	_, err = parseLine("help")
	assert.ErrorIs(t, err, errHelp)
	_, err = parseLine("   ")
	assert.ErrorIs(t, err, errShow)

	for _, line := range []string{"kick", "kick bob", "answer", "vote", "dance"} {
		_, err := parseLine(line)
		assert.Error(t, err, line)
	}
}

func TestSplitRestart(t *testing.T) {
	topic, difficulty := splitRestart([]string{"hard"})
	assert.Equal(t, "hard", topic)
	assert.Empty(t, difficulty)

	topic, difficulty = splitRestart([]string{"space", "Easy"})
	assert.Equal(t, "space", topic)
	assert.Equal(t, "easy", difficulty)
}
