package game

import "pubgame-service/internal/domain"

// defaultBasePoints applies to unit kinds without a format-specific value.
const defaultBasePoints = 100

// Score computes points for a graded submission: a format-specific base plus
// a speed bonus of up to 50% of base, floored, for answers inside the time
// window. Incorrect submissions always score zero.
func Score(unit domain.Unit, submitted any, elapsed float64, correct bool) int {
	if !correct {
		return 0
	}
	base := basePoints(unit, submitted)
	limit := float64(unit.AnswerWindow())
	if elapsed < limit {
		base += int(float64(base) * 0.5 * (1 - elapsed/limit))
	}
	return base
}

func basePoints(unit domain.Unit, submitted any) int {
	switch u := unit.(type) {
	case domain.PerilClue:
		if u.Value > 0 {
			return u.Value
		}
		return defaultBasePoints
	case domain.FinalAnswerQuestion:
		if u.PointValue > 0 {
			return u.PointValue
		}
		return defaultBasePoints
	case domain.SurveyQuestion:
		// The matched answer's popularity percentage is the base.
		guess := normalize(submitted)
		for _, a := range u.Answers {
			if normalize(a.Answer) == guess {
				return a.Percent
			}
		}
		return 0
	case domain.LastCallQuestion:
		return 100 * maxInt(u.Difficulty, 1)
	case domain.PickOrPassCase:
		if u.CaseValue > 0 {
			return u.CaseValue
		}
		return defaultBasePoints
	case domain.LinkQuestion:
		return 100 * maxInt(u.ChainValue, 1)
	case domain.EstimateQuestion:
		return 500
	case domain.SpinQuestion:
		return 200
	case domain.SchoolQuestion:
		return 50 * maxInt(u.GradeLevel, 1)
	case domain.QuizChaseQuestion:
		return 100 * maxInt(u.Difficulty, 1)
	case domain.LiveQuestion:
		return defaultBasePoints
	default:
		// Spin puzzles, word chains, and anything unrecognized score the
		// flat baseline.
		return defaultBasePoints
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
