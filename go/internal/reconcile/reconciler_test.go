package reconcile

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/quizbattle/go/internal/game"
	"github.com/mcdev12/quizbattle/go/internal/timer"
)

const (
	hostID    = 1
	captainA  = 2
	memberA   = 3
	memberB   = 4
	captainB  = 5
	testPin   = "AB12"
	questionA = 7
)

func intPtr(v int) *int { return &v }

func players() []game.Player {
	return []game.Player{
		{ID: hostID, Name: "host", IsHost: true},
		{ID: captainA, Name: "cap-a", Team: game.TeamA, IsCaptain: true},
		{ID: memberA, Name: "a1", Team: game.TeamA},
		{ID: memberB, Name: "b1", Team: game.TeamB},
		{ID: captainB, Name: "cap-b", Team: game.TeamB, IsCaptain: true},
	}
}

func waiting() *game.Snapshot {
	return &game.Snapshot{
		Pin:             testPin,
		Status:          game.StatusWaiting,
		Phase:           game.PhaseNone,
		Topic:           "Space",
		Difficulty:      "medium",
		VotePercentages: map[string]int{},
		Players:         players(),
	}
}

func countdown(seconds *int) *game.Snapshot {
	s := waiting()
	s.Status = game.StatusInProgress
	s.Phase = game.PhaseCountdown
	s.CurrentTeam = game.TeamA
	s.CountdownSeconds = seconds
	return s
}

func question(id int, left *int) *game.Snapshot {
	s := waiting()
	s.Status = game.StatusInProgress
	s.Phase = game.PhaseQuestion
	s.CurrentTeam = game.TeamA
	s.CurrentQuestion = &game.Question{ID: id, OrderIndex: 0, Text: "2+2?", Options: []string{"3", "4", "5", "22"}}
	s.QuestionSecondsLeft = left
	return s
}

func paused(id int) *game.Snapshot {
	s := question(id, nil)
	s.Phase = game.PhasePaused
	return s
}

func finished(w game.Winner) *game.Snapshot {
	s := waiting()
	s.Status = game.StatusFinished
	s.Phase = game.PhaseNone
	s.Winner = w
	s.ScoreA, s.ScoreB = 3, 1
	s.TeamStats = map[game.Team]game.TeamStats{
		game.TeamA: {Correct: 3},
		game.TeamB: {Correct: 1, Timeout: 2},
	}
	return s
}

func newReconciler(playerID int) *Reconciler {
	return New(game.Identity{Pin: testPin, PlayerID: playerID, PlayerToken: "t"}, timer.NewEngine())
}

func tick(r *Reconciler, n int) {
	for i := 0; i < n; i++ {
		r.Tick()
	}
}

// roundTrip decodes the JSON encoding of s, giving a fresh value equal in content
func roundTrip(t *testing.T, s *game.Snapshot) *game.Snapshot {
	t.Helper()
	raw, err := json.Marshal(s)
	require.NoError(t, err)
	var out game.Snapshot
	require.NoError(t, json.Unmarshal(raw, &out))
	return &out
}

func TestIdempotentUnderRedelivery(t *testing.T) {
	snapshots := map[string]*game.Snapshot{
		"waiting":   waiting(),
		"countdown": countdown(intPtr(3)),
		"question":  question(questionA, intPtr(30)),
		"paused":    paused(questionA),
		"finished":  finished(game.WinnerA),
	}

	for name, s := range snapshots {
		t.Run(name, func(t *testing.T) {
			r := newReconciler(captainA)
			first := r.Apply(roundTrip(t, s))
			require.False(t, first.Duplicate)
			tick(r, 1)
			gen := r.Timer().Generation()
			before := r.State()

			again := r.Apply(roundTrip(t, s))
			assert.True(t, again.Duplicate)
			assert.False(t, again.TimerRearmed)
			assert.False(t, again.PermissionsChanged)
			assert.Equal(t, gen, r.Timer().Generation())
			assert.Equal(t, before.Timer, r.State().Timer)
			assert.True(t, before.Permissions.Equal(r.State().Permissions))
		})
	}
}

func TestPauseResumeUsesServerRemaining(t *testing.T) {
	r := newReconciler(captainA)
	r.Apply(question(questionA, intPtr(30)))
	tick(r, 12)
	require.Equal(t, 18, r.State().Timer.Remaining)

	res := r.Apply(paused(questionA))
	assert.True(t, res.TimerDisarmed)
	assert.False(t, res.QuestionChanged)
	assert.False(t, r.State().Timer.Armed)
	assert.False(t, r.Tick(), "no ticks while paused")

	res = r.Apply(question(questionA, intPtr(17)))
	assert.False(t, res.QuestionChanged, "unpausing onto the same question is not a question change")
	assert.True(t, res.TimerRearmed)
	assert.Equal(t, 17, r.State().Timer.Remaining)
	assert.Equal(t, timer.KindQuestion, r.State().Timer.Kind)
}

func TestResumeWithoutRemainingLeavesTimerDisarmed(t *testing.T) {
	r := newReconciler(captainA)
	r.Apply(question(questionA, intPtr(30)))
	r.Apply(paused(questionA))

	res := r.Apply(question(questionA, nil))
	assert.False(t, res.TimerRearmed)
	assert.False(t, r.State().Timer.Armed)
}

func TestSameQuestionJitterDoesNotRearm(t *testing.T) {
	r := newReconciler(memberA)
	r.Apply(question(questionA, intPtr(30)))
	tick(r, 5)

	// server reports 24 while local shows 25: keep ticking locally
	s := question(questionA, intPtr(24))
	s.VotePercentages = map[string]int{"2": 100}
	res := r.Apply(s)

	assert.False(t, res.TimerRearmed)
	assert.Equal(t, 25, r.State().Timer.Remaining)
}

func TestExpiredLocalTimerTakesServerValue(t *testing.T) {
	r := newReconciler(memberA)
	r.Apply(question(questionA, intPtr(2)))
	tick(r, 2)
	require.True(t, r.State().Timer.Expired)

	res := r.Apply(question(questionA, intPtr(1)))
	assert.True(t, res.TimerRearmed)
	assert.Equal(t, 1, r.State().Timer.Remaining)
	assert.False(t, r.State().Timer.Expired)
}

func TestExpiredLocalTimerAgreesWithServerZero(t *testing.T) {
	r := newReconciler(memberA)
	r.Apply(question(questionA, intPtr(1)))
	tick(r, 1)

	s := question(questionA, intPtr(0))
	s.VotePercentages = map[string]int{"skip": 100}
	res := r.Apply(s)
	assert.False(t, res.TimerRearmed)
	assert.True(t, r.State().Timer.Expired)
}

func TestNewQuestionResetsFeedbackAndArms(t *testing.T) {
	r := newReconciler(captainA)
	r.Apply(question(questionA, intPtr(30)))
	tick(r, 3)

	r.ApplyAnswerResult(game.AnswerResult{Correct: true, QuestionID: questionA})
	require.NotNil(t, r.State().Feedback)

	next := question(8, nil)
	next.CurrentTeam = game.TeamB
	res := r.Apply(next)

	assert.True(t, res.QuestionChanged)
	assert.True(t, res.TimerRearmed)
	assert.Equal(t, game.DefaultQuestionSeconds, r.State().Timer.Remaining)
	assert.Nil(t, r.State().Feedback)
	require.NotNil(t, r.State().LastOutcome)
	assert.Equal(t, FeedbackCorrect, r.State().LastOutcome.Kind)
	assert.False(t, res.Permissions.CanVote, "team B's turn")
}

func TestQuestionIdentityIsIDNotOrder(t *testing.T) {
	r := newReconciler(memberA)
	r.Apply(question(questionA, intPtr(30)))

	// same order index, different id (restart reset ordering)
	res := r.Apply(question(42, intPtr(30)))
	assert.True(t, res.QuestionChanged)
	assert.True(t, res.TimerRearmed)
}

func TestVoteOnlySnapshotTouchesNothingElse(t *testing.T) {
	r := newReconciler(memberA)
	r.Apply(question(questionA, intPtr(30)))
	tick(r, 4)
	r.ApplyAnswerResult(game.AnswerResult{Skip: true})
	gen := r.Timer().Generation()

	s := question(questionA, intPtr(26))
	s.VotePercentages = map[string]int{"1": 50, "skip": 50}
	res := r.Apply(s)

	assert.True(t, res.VotesChanged)
	assert.False(t, res.QuestionChanged)
	assert.False(t, res.TimerRearmed)
	assert.Equal(t, gen, r.Timer().Generation())
	assert.Equal(t, 26, r.State().Timer.Remaining)
	require.NotNil(t, r.State().Feedback)
	assert.Equal(t, FeedbackSkipped, r.State().Feedback.Kind)
	assert.Len(t, r.State().Votes, 2)
}

func TestStaleVoteKeysAreNotDisplayed(t *testing.T) {
	r := newReconciler(memberA)
	s := question(questionA, intPtr(30))
	s.CurrentQuestion.Options = []string{"yes", "no"}
	s.VotePercentages = map[string]int{"1": 30, "4": 70}
	r.Apply(s)

	votes := r.State().Votes
	require.Len(t, votes, 1)
	assert.Equal(t, "1", votes[0].Choice)
}

func TestCountdownArmsOnEntry(t *testing.T) {
	r := newReconciler(hostID)
	r.Apply(waiting())

	res := r.Apply(countdown(nil))
	assert.True(t, res.PhaseChanged)
	assert.True(t, res.TimerRearmed)
	assert.Equal(t, game.DefaultCountdownSeconds, r.State().Timer.Remaining)
	assert.Equal(t, timer.KindCountdown, r.State().Timer.Kind)

	var seen []int
	for r.Timer().Ticking() {
		r.Tick()
		seen = append(seen, r.State().Timer.Remaining)
	}
	assert.Equal(t, []int{2, 1, 0}, seen)
	assert.True(t, r.State().Timer.Expired)
}

func TestQuestionAfterCountdownArmsQuestionTimer(t *testing.T) {
	r := newReconciler(memberA)
	r.Apply(countdown(intPtr(3)))
	tick(r, 1)

	res := r.Apply(question(questionA, intPtr(30)))
	assert.True(t, res.TimerRearmed)
	assert.Equal(t, timer.KindQuestion, r.State().Timer.Kind)
	assert.Equal(t, 30, r.State().Timer.Remaining)
}

func TestWaitingResetsQuestionIdentity(t *testing.T) {
	r := newReconciler(memberA)
	r.Apply(question(questionA, intPtr(30)))
	r.ApplyAnswerResult(game.AnswerResult{Timeout: true})

	res := r.Apply(waiting())
	assert.True(t, res.QuestionChanged)
	assert.True(t, res.TimerDisarmed)
	assert.Nil(t, r.State().Feedback)
	assert.Nil(t, r.State().LastOutcome)

	// the same question id after a restart counts as new
	res = r.Apply(question(questionA, intPtr(30)))
	assert.True(t, res.QuestionChanged)
	assert.True(t, res.TimerRearmed)
}

func TestRestartPendingNotice(t *testing.T) {
	r := newReconciler(hostID)
	r.Apply(finished(game.WinnerDraw))
	r.MarkRestartPending()
	assert.True(t, r.State().RestartPending)

	r.Apply(waiting())
	assert.False(t, r.State().RestartPending)
	assert.Equal(t, NoticeRestartReady, r.State().Notice)
}

func TestStartInFlightClearedOnceGameLeavesLobby(t *testing.T) {
	r := newReconciler(hostID)
	r.Apply(waiting())
	r.SetStartInFlight(true)

	s := waiting()
	s.Players = append(s.Players, game.Player{ID: 9, Name: "late"})
	r.Apply(s)
	assert.True(t, r.State().StartInFlight)

	r.Apply(countdown(intPtr(3)))
	assert.False(t, r.State().StartInFlight)
}

func TestRoleChangeAndRemoval(t *testing.T) {
	r := newReconciler(memberA)
	r.Apply(question(questionA, intPtr(30)))
	assert.False(t, r.Permissions().CanAnswer)

	promoted := question(questionA, intPtr(30))
	promoted.Players[1].IsCaptain = false
	promoted.Players[2].IsCaptain = true
	res := r.Apply(promoted)
	assert.True(t, res.RoleChanged)
	assert.True(t, res.PermissionsChanged)
	assert.True(t, res.Permissions.CanAnswer)
	assert.False(t, res.TimerRearmed)

	kicked := question(questionA, intPtr(30))
	kicked.Players = append(kicked.Players[:2], kicked.Players[3:]...)
	res = r.Apply(kicked)
	assert.True(t, res.SelfRemoved)
	assert.False(t, res.Permissions.Any())
	assert.Equal(t, NoticeRemoved, r.State().Notice)
}

func TestFullMatchScenario(t *testing.T) {
	host := newReconciler(hostID)
	captain := newReconciler(captainA)
	other := newReconciler(memberB)
	all := []*Reconciler{host, captain, other}

	apply := func(s *game.Snapshot) {
		for _, r := range all {
			r.Apply(roundTrip(t, s))
		}
	}

	apply(waiting())
	assert.True(t, host.Permissions().CanStart)
	assert.False(t, captain.Permissions().CanStart)
	assert.False(t, other.Permissions().CanStart)

	apply(countdown(intPtr(3)))
	var shown []int
	shown = append(shown, host.State().Timer.Remaining)
	for host.Timer().Ticking() {
		host.Tick()
		shown = append(shown, host.State().Timer.Remaining)
	}
	assert.Equal(t, []int{3, 2, 1, 0}, shown)
	assert.True(t, host.State().Timer.Expired)

	apply(question(questionA, intPtr(30)))
	assert.False(t, other.Permissions().CanVote)
	assert.False(t, host.Permissions().CanVote)
	assert.True(t, captain.Permissions().CanAnswer)
	assert.True(t, host.Permissions().CanAdvance)

	tick(captain, 4)
	timerBefore := captain.State().Timer
	votesBefore := captain.State().Votes
	f := captain.ApplyAnswerResult(game.AnswerResult{Correct: true, QuestionID: questionA})
	assert.Equal(t, "correct", f.Text())
	assert.Equal(t, timerBefore, captain.State().Timer)
	assert.Equal(t, votesBefore, captain.State().Votes)

	apply(finished(game.WinnerA))
	for _, r := range all {
		p := r.Permissions()
		assert.False(t, p.CanStart)
		assert.False(t, p.CanVote)
		assert.False(t, p.CanAnswer)
		assert.False(t, p.CanSkipVote)
		assert.False(t, p.CanPause)
		assert.False(t, p.CanResume)
		assert.False(t, p.CanAdvance)
		assert.False(t, p.CanKick)
		assert.False(t, p.CanTransferCaptain)
		assert.False(t, r.State().Timer.Armed)
	}
	assert.True(t, host.Permissions().CanRestart)
	assert.False(t, captain.Permissions().CanRestart)
	assert.False(t, other.Permissions().CanRestart)
}

func TestFeedbackText(t *testing.T) {
	tests := []struct {
		result game.AnswerResult
		want   string
	}{
		{game.AnswerResult{Correct: true}, "correct"},
		{game.AnswerResult{Correct: false, CorrectOption: "2"}, "incorrect, correct answer: 2"},
		{game.AnswerResult{Timeout: true, Correct: false}, "time is up"},
		{game.AnswerResult{Skip: true}, "question skipped"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FeedbackFrom(tt.result).Text())
	}
}
