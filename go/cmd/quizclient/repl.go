package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/mcdev12/quizbattle/go/internal/command"
	"github.com/mcdev12/quizbattle/go/internal/session"
)

var errQuit = errors.New("quit")

// errHelp and errShow are handled by the REPL itself and never reach the view
var (
	errHelp = errors.New("help")
	errShow = errors.New("show")
)

const helpText = `commands:
  <n>                     answer option n if you are captain, vote for it otherwise
  skip                    skip (captain) or vote to skip
  vote <n|skip>           vote explicitly
  answer <n>              answer explicitly
  start                   start the game (host)
  pause | resume | next   host controls
  kick <player id>        remove a player (host)
  captain <player id>     hand the captain role to a teammate
  restart <topic> [easy|medium|hard]
  export                  save the result report again
  state                   redraw the view
  quit`

// parseLine turns one line of input into an intent
func parseLine(line string) (session.Intent, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return session.Intent{}, errShow
	}
	verb := strings.ToLower(fields[0])
	args := fields[1:]

	if n, err := strconv.Atoi(verb); err == nil && len(args) == 0 {
		return session.Choose(n), nil
	}

	switch verb {
	case "quit", "exit", "q":
		return session.Intent{}, errQuit
	case "help", "?":
		return session.Intent{}, errHelp
	case "state", "s":
		return session.Intent{}, errShow
	case "skip":
		return session.SkipQuestion(), nil
	case "start":
		return session.Send(command.Start()), nil
	case "pause":
		return session.Send(command.Pause()), nil
	case "resume":
		return session.Send(command.Resume()), nil
	case "next":
		return session.Send(command.NextQuestion()), nil
	case "export", "save":
		return session.ExportReport(), nil
	case "vote":
		if len(args) != 1 {
			return session.Intent{}, fmt.Errorf("usage: vote <n|skip>")
		}
		return session.Send(command.Vote(strings.ToLower(args[0]))), nil
	case "answer":
		n, err := intArg(args, "answer <n>")
		if err != nil {
			return session.Intent{}, err
		}
		return session.Send(command.Answer(n)), nil
	case "kick":
		n, err := intArg(args, "kick <player id>")
		if err != nil {
			return session.Intent{}, err
		}
		return session.Send(command.Kick(n)), nil
	case "captain":
		n, err := intArg(args, "captain <player id>")
		if err != nil {
			return session.Intent{}, err
		}
		return session.Send(command.TransferCaptain(n)), nil
	case "restart":
		topic, difficulty := splitRestart(args)
		return session.Send(command.Restart(topic, difficulty)), nil
	}
	return session.Intent{}, fmt.Errorf("unknown command %q, type help", verb)
}

func intArg(args []string, usage string) (int, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("usage: %s", usage)
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, fmt.Errorf("usage: %s", usage)
	}
	return n, nil
}

// splitRestart takes a trailing difficulty word off a multi-word topic
func splitRestart(args []string) (string, string) {
	if len(args) > 1 {
		last := strings.ToLower(args[len(args)-1])
		for _, d := range command.Difficulties {
			if last == d {
				return strings.Join(args[:len(args)-1], " "), last
			}
		}
	}
	return strings.Join(args, " "), ""
}
