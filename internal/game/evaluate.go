package game

import (
	"fmt"
	"strconv"
	"strings"

	"pubgame-service/internal/domain"
)

// Evaluate grades a submitted value against a unit and returns the canonical
// correct answer to reveal. Unknown unit kinds are incorrect with a nil
// canonical answer.
func Evaluate(unit domain.Unit, submitted any) (bool, any) {
	switch u := unit.(type) {
	case domain.PerilClue:
		return matchChoice(submitted, u.CorrectAnswer)
	case domain.FinalAnswerQuestion:
		return matchChoice(submitted, u.CorrectAnswer)
	case domain.LastCallQuestion:
		return matchChoice(submitted, u.CorrectAnswer)
	case domain.PickOrPassCase:
		return matchChoice(submitted, u.CorrectAnswer)
	case domain.SpinQuestion:
		return matchChoice(submitted, u.CorrectAnswer)
	case domain.SchoolQuestion:
		return matchChoice(submitted, u.CorrectAnswer)
	case domain.QuizChaseQuestion:
		return matchChoice(submitted, u.CorrectAnswer)
	case domain.LiveQuestion:
		return matchChoice(submitted, u.CorrectAnswer)

	case domain.SurveyQuestion:
		// Canonical is always the first-ranked answer, whichever entry matched.
		canonical := ""
		if len(u.Answers) > 0 {
			canonical = u.Answers[0].Answer
		}
		guess := normalize(submitted)
		for _, a := range u.Answers {
			if normalize(a.Answer) == guess {
				return true, canonical
			}
		}
		return false, canonical

	case domain.LinkQuestion:
		return normalize(submitted) == normalize(u.CorrectAnswer), u.CorrectAnswer

	case domain.SpinPuzzle:
		guess := normalize(submitted)
		full := normalize(u.FullAnswer)
		if len(guess) > 1 {
			return guess == full, u.FullAnswer
		}
		// Single letter: substring test against the whole answer.
		return guess != "" && strings.Contains(full, guess), u.FullAnswer

	case domain.EstimateQuestion:
		n, ok := parseNumber(submitted)
		if !ok {
			return false, u.CorrectNumber
		}
		if u.OverRule && n > u.CorrectNumber {
			return false, u.CorrectNumber
		}
		diff := n - u.CorrectNumber
		if diff < 0 {
			diff = -diff
		}
		return diff <= u.AcceptableRange, u.CorrectNumber

	case domain.WordChain:
		// Canonical is the whole chain so callers can reveal it in full.
		guess := normalize(submitted)
		for _, w := range u.Words {
			if normalize(w) == guess {
				return true, u.Words
			}
		}
		return false, u.Words
	}
	return false, nil
}

func matchChoice(submitted any, correct string) (bool, any) {
	return normalize(submitted) == normalize(correct), correct
}

func normalize(v any) string {
	return strings.ToLower(strings.TrimSpace(stringify(v)))
}

func stringify(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func parseNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
