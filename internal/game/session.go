package game

import (
	"encoding/json"
	"sort"
	"time"

	"pubgame-service/internal/domain"
)

// The session state machine: waiting -> active <-> paused, and any state ->
// finished. Finished is terminal; every operation below is a no-op or an
// error once a session has finished.

// Start moves a waiting or paused session to active. The start time is
// stamped once; starting an already-active session is a no-op.
func Start(s *domain.Session, now time.Time) error {
	switch s.Status {
	case domain.StatusActive:
		return nil
	case domain.StatusFinished:
		return domain.ErrSessionFinished
	}
	s.Status = domain.StatusActive
	if s.StartedAt == nil {
		t := now
		s.StartedAt = &t
	}
	return nil
}

// Pause suspends an active session.
func Pause(s *domain.Session) error {
	if s.Status == domain.StatusFinished {
		return domain.ErrSessionFinished
	}
	if s.Status != domain.StatusActive {
		return domain.ErrInvalidTransition
	}
	s.Status = domain.StatusPaused
	return nil
}

// Resume reactivates a paused session.
func Resume(s *domain.Session) error {
	if s.Status == domain.StatusFinished {
		return domain.ErrSessionFinished
	}
	if s.Status != domain.StatusPaused {
		return domain.ErrInvalidTransition
	}
	s.Status = domain.StatusActive
	return nil
}

// Finish terminates the session and returns the final leaderboard. The
// finish time is stamped once; finishing again neither re-stamps nor
// re-opens.
func Finish(s *domain.Session, now time.Time) []domain.LeaderboardEntry {
	if s.Status != domain.StatusFinished {
		s.Status = domain.StatusFinished
		t := now
		s.FinishedAt = &t
	}
	return Leaderboard(*s)
}

// Advance moves the question index by delta, clamping at zero. The upper
// bound is the caller's concern; content length is not consulted here.
func Advance(s *domain.Session, delta int) int {
	next := s.CurrentQuestionIndex + delta
	if next < 0 {
		next = 0
	}
	s.CurrentQuestionIndex = next
	return next
}

// Goto sets the question index without bounds checking.
func Goto(s *domain.Session, index int) {
	s.CurrentQuestionIndex = index
}

// LoadContent replaces the session's content tree. Format validation is the
// caller's responsibility (the HTTP surface decodes before installing).
func LoadContent(s *domain.Session, raw json.RawMessage) {
	s.Content = raw
}

// Leaderboard returns players ranked by score, highest first.
func Leaderboard(s domain.Session) []domain.LeaderboardEntry {
	players := make([]domain.Player, len(s.Players))
	copy(players, s.Players)
	sort.SliceStable(players, func(i, j int) bool {
		return players[i].Score > players[j].Score
	})
	entries := make([]domain.LeaderboardEntry, len(players))
	for i, p := range players {
		entries[i] = domain.LeaderboardEntry{
			Rank:           i + 1,
			PlayerID:       p.ID,
			Name:           p.Name,
			Score:          p.Score,
			CorrectAnswers: p.CorrectAnswers,
		}
	}
	return entries
}
