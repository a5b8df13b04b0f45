package game

import "strings"

// Status is the lifecycle state of a game session
type Status string

const (
	StatusWaiting    Status = "waiting"
	StatusInProgress Status = "in_progress"
	StatusFinished   Status = "finished"
)

// Phase is the sub-state of an in-progress session
type Phase string

const (
	PhaseNone      Phase = "none"
	PhaseCountdown Phase = "countdown"
	PhaseQuestion  Phase = "question"
	PhasePaused    Phase = "paused"
)

// Team identifies one of the two competing teams. The zero value means "no team".
type Team string

const (
	TeamNone Team = ""
	TeamA    Team = "A"
	TeamB    Team = "B"
)

// Winner is the outcome reported on a finished snapshot
type Winner string

const (
	WinnerNone Winner = ""
	WinnerA    Winner = "A"
	WinnerB    Winner = "B"
	WinnerDraw Winner = "draw"
)

// SkipChoice is the vote choice that means "skip this question"
const SkipChoice = "skip"

// Default timer values used when a snapshot omits the remaining time
const (
	DefaultCountdownSeconds = 3
	DefaultQuestionSeconds  = 30
)

// Player is a participant as reported by the server
type Player struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Team      Team   `json:"team"`
	IsHost    bool   `json:"is_host"`
	IsCaptain bool   `json:"is_captain"`
}

// Question is the active question embedded in a snapshot.
// Identity is ID, never OrderIndex.
type Question struct {
	ID         int      `json:"id"`
	OrderIndex int      `json:"order_index"`
	Text       string   `json:"text"`
	Options    []string `json:"options"`
}

// TeamStats holds per-team answer counters
type TeamStats struct {
	Correct    int `json:"correct"`
	Incorrect  int `json:"incorrect"`
	Timeout    int `json:"timeout"`
	SpeedBonus int `json:"speed_bonus"`
}

// Snapshot is a full authoritative description of session state.
// Each arrival replaces the previous one wholesale.
type Snapshot struct {
	Pin                 string             `json:"pin"`
	Status              Status             `json:"status"`
	Phase               Phase              `json:"phase"`
	Topic               string             `json:"topic"`
	Difficulty          string             `json:"difficulty"`
	QuestionsPerTeam    int                `json:"questions_per_team,omitempty"`
	ScoreA              int                `json:"score_a"`
	ScoreB              int                `json:"score_b"`
	CurrentTeam         Team               `json:"current_team"`
	CurrentQuestion     *Question          `json:"current_question,omitempty"`
	QuestionSecondsLeft *int               `json:"question_seconds_left,omitempty"`
	CountdownSeconds    *int               `json:"countdown_seconds,omitempty"`
	VotePercentages     map[string]int     `json:"vote_percentages"`
	TeamStats           map[Team]TeamStats `json:"team_stats"`
	Winner              Winner             `json:"winner,omitempty"`
	Players             []Player           `json:"players"`
}

// ActivePhase returns the phase only while the session is in progress.
// Outside in_progress the phase carries no meaning and PhaseNone is returned.
func (s *Snapshot) ActivePhase() Phase {
	if s == nil || s.Status != StatusInProgress || s.Phase == "" {
		return PhaseNone
	}
	return s.Phase
}

// QuestionID returns the active question id, or 0 and false when no question is embedded
func (s *Snapshot) QuestionID() (int, bool) {
	if s == nil || s.CurrentQuestion == nil {
		return 0, false
	}
	return s.CurrentQuestion.ID, true
}

// FindPlayer returns the player with the given id
func (s *Snapshot) FindPlayer(id int) (Player, bool) {
	if s == nil {
		return Player{}, false
	}
	for _, p := range s.Players {
		if p.ID == id {
			return p, true
		}
	}
	return Player{}, false
}

// StatsFor returns the stats for a team, zero-valued when absent
func (s *Snapshot) StatsFor(team Team) TeamStats {
	if s == nil || s.TeamStats == nil {
		return TeamStats{}
	}
	return s.TeamStats[team]
}

// Identity is the local participant record supplied by the identity store
type Identity struct {
	Pin         string `yaml:"pin" json:"pin"`
	PlayerID    int    `yaml:"player_id" json:"player_id"`
	PlayerToken string `yaml:"player_token,omitempty" json:"player_token,omitempty"`
}

// SamePin compares session pins the way the server does (upper-cased)
func SamePin(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
