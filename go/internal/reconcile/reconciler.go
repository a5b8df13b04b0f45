package reconcile

import (
	"reflect"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/quizbattle/go/internal/game"
	"github.com/mcdev12/quizbattle/go/internal/gate"
	"github.com/mcdev12/quizbattle/go/internal/projection"
	"github.com/mcdev12/quizbattle/go/internal/timer"
)

// Reconciler folds server snapshots into the client session state.
// It is not safe for concurrent use: snapshots, ticks and intent must be
// delivered from one goroutine.
type Reconciler struct {
	identity game.Identity
	timer    *timer.Engine

	previous      *game.Snapshot
	previousPhase game.Phase
	questionID    int
	hasQuestion   bool

	state ClientSessionState
}

// New creates a reconciler for one session view
func New(identity game.Identity, engine *timer.Engine) *Reconciler {
	if engine == nil {
		engine = timer.NewEngine()
	}
	return &Reconciler{
		identity:      identity,
		timer:         engine,
		previousPhase: game.PhaseNone,
		state:         ClientSessionState{Identity: identity},
	}
}

// Timer exposes the engine so the host can align its tick source
func (r *Reconciler) Timer() *timer.Engine {
	return r.timer
}

// Apply reconciles a newly arrived snapshot against the previous one.
// Re-applying an identical snapshot has no effect.
func (r *Reconciler) Apply(s *game.Snapshot) Result {
	if s == nil {
		return r.currentResult(Result{Duplicate: true})
	}
	if r.previous != nil && reflect.DeepEqual(r.previous, s) {
		log.Debug().Str("pin", r.identity.Pin).Msg("duplicate snapshot ignored")
		return r.currentResult(Result{Duplicate: true})
	}

	prev := r.previous
	phase := s.ActivePhase()
	prevPhase := r.previousPhase
	qid, hasQ := s.QuestionID()

	res := Result{
		PhaseChanged:    phase != prevPhase,
		QuestionChanged: hasQ != r.hasQuestion || qid != r.questionID,
	}
	gen := r.timer.Generation()
	wasArmed := r.timer.Armed()

	switch s.Status {
	case game.StatusWaiting:
		r.timer.Disarm()
		r.clearQuestion()
		r.state.LastOutcome = nil
		r.state.Notice = ""
		if r.state.RestartPending && r.isHost(s) {
			r.state.Notice = NoticeRestartReady
		}
		r.state.RestartPending = false

	case game.StatusInProgress:
		r.state.RestartPending = false
		r.state.Notice = ""
		switch phase {
		case game.PhaseCountdown:
			if res.PhaseChanged || r.timer.Kind() != timer.KindCountdown {
				r.timer.Arm(timer.KindCountdown, secondsOr(s.CountdownSeconds, game.DefaultCountdownSeconds))
			}
		case game.PhasePaused:
			r.timer.Disarm()
			if hasQ {
				r.setQuestion(qid)
			}
		case game.PhaseQuestion:
			r.applyQuestion(s, prevPhase, res.QuestionChanged)
		default:
			log.Warn().Str("pin", r.identity.Pin).Str("phase", string(s.Phase)).Msg("unknown phase, timer left untouched")
		}

	case game.StatusFinished:
		r.timer.Disarm()
		r.clearQuestion()
		r.state.Notice = ""

	default:
		log.Warn().Str("pin", r.identity.Pin).Str("status", string(s.Status)).Msg("unknown status, timer left untouched")
	}

	if s.Status != game.StatusWaiting {
		r.state.StartInFlight = false
	}

	perms := gate.PermissionsFor(s, r.identity)

	res.Status = s.Status
	res.Phase = phase
	res.TimerRearmed = r.timer.Generation() != gen
	res.TimerDisarmed = wasArmed && !r.timer.Armed()
	res.PermissionsChanged = prev == nil || !perms.Equal(r.state.Permissions)
	if prev != nil {
		res.StatusChanged = prev.Status != s.Status
		res.VotesChanged = !reflect.DeepEqual(prev.VotePercentages, s.VotePercentages)
		res.RosterChanged = !reflect.DeepEqual(prev.Players, s.Players)
		res.ScoreChanged = prev.ScoreA != s.ScoreA || prev.ScoreB != s.ScoreB ||
			!reflect.DeepEqual(prev.TeamStats, s.TeamStats)

		before, wasIn := prev.FindPlayer(r.identity.PlayerID)
		after, isIn := s.FindPlayer(r.identity.PlayerID)
		res.RoleChanged = wasIn != isIn || before.IsHost != after.IsHost ||
			before.IsCaptain != after.IsCaptain || before.Team != after.Team
		res.SelfRemoved = wasIn && !isIn
	} else {
		res.StatusChanged = true
		res.VotesChanged = len(s.VotePercentages) > 0
		res.RosterChanged = true
		res.ScoreChanged = true
		res.RoleChanged = true
	}
	if res.SelfRemoved {
		r.state.Notice = NoticeRemoved
		log.Warn().Str("pin", r.identity.Pin).Int("player_id", r.identity.PlayerID).Msg("local player missing from roster")
	}

	r.state.Snapshot = s
	r.state.Permissions = perms
	r.state.Timer = r.timer.Display()
	r.state.Votes = visibleVotes(s, phase)

	r.previous = s
	r.previousPhase = phase

	if res.PhaseChanged || res.QuestionChanged {
		log.Debug().
			Str("pin", r.identity.Pin).
			Str("status", string(s.Status)).
			Str("phase", string(phase)).
			Str("previous_phase", string(prevPhase)).
			Int("question_id", qid).
			Bool("timer_rearmed", res.TimerRearmed).
			Msg("snapshot reconciled")
	}

	res.Permissions = perms
	res.Timer = r.state.Timer
	return res
}

// applyQuestion drives the timer for a question-phase snapshot. The server
// value is taken when the question is new, when the local timer is not
// running (disarmed, expired, or coming out of pause), and otherwise the
// locally ticking timer is left alone so jitter does not make it jump.
func (r *Reconciler) applyQuestion(s *game.Snapshot, prevPhase game.Phase, questionChanged bool) {
	qid, hasQ := s.QuestionID()
	if !hasQ {
		log.Warn().Str("pin", r.identity.Pin).Msg("question phase without a question")
		return
	}

	if questionChanged {
		r.state.Feedback = nil
		r.timer.Arm(timer.KindQuestion, secondsOr(s.QuestionSecondsLeft, game.DefaultQuestionSeconds))
		r.setQuestion(qid)
		return
	}

	r.setQuestion(qid)
	if s.QuestionSecondsLeft == nil {
		return
	}
	needsResync := !r.timer.Armed() ||
		r.timer.Expired() ||
		r.timer.Kind() != timer.KindQuestion ||
		prevPhase == game.PhasePaused
	if !needsResync {
		return
	}
	left := *s.QuestionSecondsLeft
	if r.timer.Armed() && r.timer.Kind() == timer.KindQuestion && r.timer.Remaining() == left {
		return
	}
	r.timer.Arm(timer.KindQuestion, left)
}

// ApplyAnswerResult records feedback for the just-resolved question. Timer,
// votes and permissions are not touched.
func (r *Reconciler) ApplyAnswerResult(result game.AnswerResult) Feedback {
	f := FeedbackFrom(result)
	last := f
	r.state.Feedback = &f
	r.state.LastOutcome = &last
	log.Debug().Str("pin", r.identity.Pin).Str("feedback", string(f.Kind)).Msg("answer result")
	return f
}

// Tick advances the local timer by one interval. It reports whether the
// display changed.
func (r *Reconciler) Tick() bool {
	changed := r.timer.Tick()
	r.state.Timer = r.timer.Display()
	return changed
}

// MarkRestartPending records that a restart was sent
func (r *Reconciler) MarkRestartPending() {
	r.state.RestartPending = true
}

// SetStartInFlight records whether a start request is outstanding
func (r *Reconciler) SetStartInFlight(inFlight bool) {
	r.state.StartInFlight = inFlight
}

// SetNotice replaces the inline notice line
func (r *Reconciler) SetNotice(notice string) {
	r.state.Notice = notice
}

// Permissions returns the permission set computed for the latest snapshot
func (r *Reconciler) Permissions() gate.Permissions {
	return r.state.Permissions
}

// Snapshot returns the latest applied snapshot
func (r *Reconciler) Snapshot() *game.Snapshot {
	return r.state.Snapshot
}

// State returns a copy of the client session state
func (r *Reconciler) State() ClientSessionState {
	st := r.state
	if r.state.Feedback != nil {
		f := *r.state.Feedback
		st.Feedback = &f
	}
	if r.state.LastOutcome != nil {
		f := *r.state.LastOutcome
		st.LastOutcome = &f
	}
	st.Votes = append([]projection.VoteShare(nil), r.state.Votes...)
	return st
}

func (r *Reconciler) currentResult(res Result) Result {
	if r.state.Snapshot != nil {
		res.Status = r.state.Snapshot.Status
	}
	res.Phase = r.previousPhase
	res.Permissions = r.state.Permissions
	res.Timer = r.timer.Display()
	return res
}

func (r *Reconciler) setQuestion(id int) {
	r.questionID = id
	r.hasQuestion = true
}

func (r *Reconciler) clearQuestion() {
	r.questionID = 0
	r.hasQuestion = false
	r.state.Feedback = nil
}

func (r *Reconciler) isHost(s *game.Snapshot) bool {
	me, ok := s.FindPlayer(r.identity.PlayerID)
	return ok && me.IsHost
}

func visibleVotes(s *game.Snapshot, phase game.Phase) []projection.VoteShare {
	if phase != game.PhaseQuestion || s.CurrentQuestion == nil {
		return nil
	}
	return projection.VoteSummary(s.VotePercentages, len(s.CurrentQuestion.Options))
}

func secondsOr(v *int, fallback int) int {
	if v == nil {
		return fallback
	}
	return *v
}
