package reconcile

import (
	"fmt"

	"github.com/mcdev12/quizbattle/go/internal/game"
	"github.com/mcdev12/quizbattle/go/internal/gate"
	"github.com/mcdev12/quizbattle/go/internal/projection"
	"github.com/mcdev12/quizbattle/go/internal/timer"
)

// FeedbackKind is the outcome class of a resolved question
type FeedbackKind string

const (
	FeedbackCorrect   FeedbackKind = "correct"
	FeedbackIncorrect FeedbackKind = "incorrect"
	FeedbackTimeout   FeedbackKind = "timeout"
	FeedbackSkipped   FeedbackKind = "skipped"
)

// Feedback is the transient per-question answer outcome
type Feedback struct {
	Kind          FeedbackKind `json:"kind"`
	CorrectOption string       `json:"correct_option,omitempty"`
	QuestionID    int          `json:"question_id,omitempty"`
}

// FeedbackFrom classifies an answer_result message
func FeedbackFrom(r game.AnswerResult) Feedback {
	f := Feedback{CorrectOption: r.CorrectOption, QuestionID: r.QuestionID}
	switch {
	case r.Timeout:
		f.Kind = FeedbackTimeout
	case r.Skip:
		f.Kind = FeedbackSkipped
	case r.Correct:
		f.Kind = FeedbackCorrect
	default:
		f.Kind = FeedbackIncorrect
	}
	return f
}

// Text renders the inline feedback line
func (f Feedback) Text() string {
	switch f.Kind {
	case FeedbackCorrect:
		return "correct"
	case FeedbackTimeout:
		return "time is up"
	case FeedbackSkipped:
		return "question skipped"
	default:
		if f.CorrectOption == "" {
			return "incorrect"
		}
		return fmt.Sprintf("incorrect, correct answer: %s", f.CorrectOption)
	}
}

// Notices surfaced to the participant outside the feedback line
const (
	NoticeRestartReady = "new match ready, press start"
	NoticeRemoved      = "you are no longer in this session"
)

// ClientSessionState is everything the UI layer needs for one session view.
// It is owned by the Reconciler; callers get copies.
//
// Feedback is reset whenever the active question changes. The server sends
// answer_result just before the snapshot carrying the next question, so
// LastOutcome keeps the most recent result until the lobby is shown again.
type ClientSessionState struct {
	Identity       game.Identity          `json:"identity"`
	Snapshot       *game.Snapshot         `json:"snapshot,omitempty"`
	Permissions    gate.Permissions       `json:"permissions"`
	Timer          timer.Display          `json:"timer"`
	Feedback       *Feedback              `json:"feedback,omitempty"`
	LastOutcome    *Feedback              `json:"last_outcome,omitempty"`
	Votes          []projection.VoteShare `json:"votes,omitempty"`
	RestartPending bool                   `json:"restart_pending"`
	StartInFlight  bool                   `json:"start_in_flight"`
	Notice         string                 `json:"notice,omitempty"`
}

// Self returns the local participant's record in the latest snapshot
func (s ClientSessionState) Self() (game.Player, bool) {
	return s.Snapshot.FindPlayer(s.Identity.PlayerID)
}

// Result tells the UI layer what to redraw after a snapshot was applied
type Result struct {
	Duplicate          bool `json:"duplicate"`
	StatusChanged      bool `json:"status_changed"`
	PhaseChanged       bool `json:"phase_changed"`
	QuestionChanged    bool `json:"question_changed"`
	RoleChanged        bool `json:"role_changed"`
	VotesChanged       bool `json:"votes_changed"`
	RosterChanged      bool `json:"roster_changed"`
	ScoreChanged       bool `json:"score_changed"`
	PermissionsChanged bool `json:"permissions_changed"`
	TimerRearmed       bool `json:"timer_rearmed"`
	TimerDisarmed      bool `json:"timer_disarmed"`
	SelfRemoved        bool `json:"self_removed"`

	Status      game.Status      `json:"status"`
	Phase       game.Phase       `json:"phase"`
	Permissions gate.Permissions `json:"permissions"`
	Timer       timer.Display    `json:"timer"`
}
