package domain

import (
	"encoding/json"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a game session.
type Status string

const (
	StatusWaiting  Status = "waiting"
	StatusActive   Status = "active"
	StatusPaused   Status = "paused"
	StatusFinished Status = "finished"
)

// Player is one participant in a session. Connected mirrors realtime channel
// presence and is not authoritative; Eliminated is one-way.
type Player struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Score          int       `json:"score"`
	CorrectAnswers int       `json:"correct_answers"`
	Eliminated     bool      `json:"eliminated"`
	Connected      bool      `json:"connected"`
	IsBot          bool      `json:"is_bot,omitempty"`
	JoinedAt       time.Time `json:"joined_at"`
}

// Session is the authoritative game document. Content stays raw in storage;
// DecodeContent interprets it through the format tag.
type Session struct {
	ID                   string          `json:"id"`
	Code                 string          `json:"code"`
	Name                 string          `json:"name"`
	Host                 string          `json:"host"`
	Venue                string          `json:"venue"`
	Format               Format          `json:"format"`
	Status               Status          `json:"status"`
	CurrentQuestionIndex int             `json:"current_question_index"`
	CurrentRound         int             `json:"current_round"`
	Content              json.RawMessage `json:"content,omitempty"`
	Players              []Player        `json:"players"`
	CreatedAt            time.Time       `json:"created_at"`
	StartedAt            *time.Time      `json:"started_at,omitempty"`
	FinishedAt           *time.Time      `json:"finished_at,omitempty"`
}

// NewSession creates a waiting session with a fresh id and join code.
func NewSession(name, host, venue string, format Format, now time.Time) Session {
	if venue == "" {
		venue = "PKWY Tavern"
	}
	return Session{
		ID:           uuid.NewString(),
		Code:         NewJoinCode(),
		Name:         name,
		Host:         host,
		Venue:        venue,
		Format:       format,
		Status:       StatusWaiting,
		CurrentRound: 1,
		Players:      []Player{},
		CreatedAt:    now,
	}
}

// DecodeContent parses the session's content tree through its format tag.
func (s Session) DecodeContent() (Content, error) {
	if len(s.Content) == 0 {
		return nil, ErrContentNotLoaded
	}
	return DecodeContent(s.Format, s.Content)
}

// FindPlayer returns the index of the player with the given id, or -1.
func (s Session) FindPlayer(playerID string) int {
	for i := range s.Players {
		if s.Players[i].ID == playerID {
			return i
		}
	}
	return -1
}

// HasPlayerName reports whether a display name is already taken,
// case-insensitively.
func (s Session) HasPlayerName(name string) bool {
	for i := range s.Players {
		if strings.EqualFold(s.Players[i].Name, name) {
			return true
		}
	}
	return false
}

// NewPlayer creates a joined player with a fresh id.
func NewPlayer(name string, now time.Time) Player {
	return Player{
		ID:        uuid.NewString(),
		Name:      name,
		Connected: true,
		JoinedAt:  now,
	}
}

const joinCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// NewJoinCode returns a 6-character uppercase alphanumeric game code.
func NewJoinCode() string {
	var b [6]byte
	for i := range b {
		b[i] = joinCodeAlphabet[rand.Intn(len(joinCodeAlphabet))]
	}
	return string(b[:])
}

// LeaderboardEntry is a rank-ordered view of a player.
type LeaderboardEntry struct {
	Rank           int    `json:"rank"`
	PlayerID       string `json:"player_id"`
	Name           string `json:"name"`
	Score          int    `json:"score"`
	CorrectAnswers int    `json:"correct_answers"`
}

// AnswerSubmission is the grading-boundary request.
type AnswerSubmission struct {
	PlayerID      string  `json:"player_id"`
	GameID        string  `json:"game_id"`
	QuestionIndex int     `json:"question_index"`
	Answer        any     `json:"answer"`
	TimeTaken     float64 `json:"time_taken"`
}

// AnswerResult is the grading-boundary response.
type AnswerResult struct {
	Correct       bool `json:"correct"`
	PointsEarned  int  `json:"points_earned"`
	NewScore      int  `json:"new_score"`
	CorrectAnswer any  `json:"correct_answer"`
}

// Pack is an importable bundle of content for one format.
type Pack struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Format      Format          `json:"format"`
	Content     json.RawMessage `json:"content"`
	Tags        []string        `json:"tags"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}
