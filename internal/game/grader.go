package game

import (
	"context"
	"fmt"
	"time"

	"pubgame-service/internal/domain"
)

// SessionStore abstracts the external session document store (in-memory,
// Redis, etc). Reads return a copy of the document; Save writes it back
// whole. The store itself offers no concurrency control; see KeyedMutex.
type SessionStore interface {
	GetByID(ctx context.Context, id string) (domain.Session, error)
	GetByCode(ctx context.Context, code string) (domain.Session, error)
	Save(ctx context.Context, s domain.Session) error
}

// Grader runs the locate -> evaluate -> score pipeline for the synchronous
// grading boundary and persists the resulting player score.
type Grader struct {
	store SessionStore
	locks *KeyedMutex
	now   func() time.Time
}

func NewGrader(store SessionStore, locks *KeyedMutex) *Grader {
	return &Grader{store: store, locks: locks, now: time.Now}
}

// SubmitAnswer grades a submission against the session's current content and
// applies the earned points to the player document.
func (g *Grader) SubmitAnswer(ctx context.Context, sub domain.AnswerSubmission) (domain.AnswerResult, error) {
	// Resolve the code first so the lock covers the full read-modify-write.
	session, err := g.store.GetByID(ctx, sub.GameID)
	if err != nil {
		return domain.AnswerResult{}, err
	}
	unlock := g.locks.Lock(session.Code)
	defer unlock()

	session, err = g.store.GetByID(ctx, sub.GameID)
	if err != nil {
		return domain.AnswerResult{}, err
	}
	idx := session.FindPlayer(sub.PlayerID)
	if idx < 0 {
		return domain.AnswerResult{}, domain.ErrPlayerNotFound
	}

	content, err := session.DecodeContent()
	if err != nil {
		return domain.AnswerResult{}, fmt.Errorf("decode content for %s: %w", session.ID, err)
	}
	unit, ok := Locate(content, sub.QuestionIndex)
	if !ok {
		return domain.AnswerResult{}, domain.ErrQuestionNotFound
	}

	correct, canonical := Evaluate(unit, sub.Answer)
	points := Score(unit, sub.Answer, sub.TimeTaken, correct)

	session.Players[idx].Score += points
	if correct {
		session.Players[idx].CorrectAnswers++
	}
	if err := g.store.Save(ctx, session); err != nil {
		return domain.AnswerResult{}, err
	}

	return domain.AnswerResult{
		Correct:       correct,
		PointsEarned:  points,
		NewScore:      session.Players[idx].Score,
		CorrectAnswer: canonical,
	}, nil
}

// AdjustScore applies a manual score override to a player, bypassing the
// evaluation engine. The correct flag controls the correct-answer counter.
func (g *Grader) AdjustScore(ctx context.Context, code, playerID string, points int, correct bool) (int, error) {
	unlock := g.locks.Lock(code)
	defer unlock()

	session, err := g.store.GetByCode(ctx, code)
	if err != nil {
		return 0, err
	}
	idx := session.FindPlayer(playerID)
	if idx < 0 {
		return 0, domain.ErrPlayerNotFound
	}
	session.Players[idx].Score += points
	if correct {
		session.Players[idx].CorrectAnswers++
	}
	if err := g.store.Save(ctx, session); err != nil {
		return 0, err
	}
	return session.Players[idx].Score, nil
}
