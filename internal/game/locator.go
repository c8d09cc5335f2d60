// Package game holds the format-aware core: locating questions inside a
// content tree, grading submissions, computing points, and driving the
// session lifecycle.
package game

import "pubgame-service/internal/domain"

// Locate returns the unit at the given flat index of a content tree. The two
// category-nested formats are flattened in category-declaration order on
// every call, so content edits are reflected immediately.
func Locate(content domain.Content, index int) (domain.Unit, bool) {
	if content == nil || index < 0 {
		return nil, false
	}
	switch c := content.(type) {
	case domain.PerilContent:
		var clues []domain.PerilClue
		for _, cat := range c.Categories {
			clues = append(clues, cat.Clues...)
		}
		if index >= len(clues) {
			return nil, false
		}
		return clues[index], true
	case domain.QuizChaseContent:
		var questions []domain.QuizChaseQuestion
		for _, cat := range c.Categories {
			questions = append(questions, cat.Questions...)
		}
		if index >= len(questions) {
			return nil, false
		}
		return questions[index], true
	case domain.SurveySaysContent:
		return pick(c.SurveyQuestions, index)
	case domain.FinalAnswerContent:
		return pick(c.Questions, index)
	case domain.LastCallContent:
		return pick(c.Questions, index)
	case domain.PickOrPassContent:
		return pick(c.Cases, index)
	case domain.LinkReactionContent:
		return pick(c.Questions, index)
	case domain.SpinToWinContent:
		return pick(c.Puzzles, index)
	case domain.ClosestWinsContent:
		return pick(c.Numbers, index)
	case domain.ChainedUpContent:
		return pick(c.Chains, index)
	case domain.NoWhammyContent:
		return pick(c.SpinQuestions, index)
	case domain.BackToSchoolContent:
		return pick(c.Questions, index)
	case domain.LiveShowContent:
		return pick(c.Questions, index)
	}
	return nil, false
}

func pick[U domain.Unit](units []U, index int) (domain.Unit, bool) {
	if index >= len(units) {
		return nil, false
	}
	return units[index], true
}
