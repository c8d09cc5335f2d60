package domain

import "encoding/json"

// Format tags one of the 13 supported game formats. The tag is immutable on
// a session and fully determines the shape of its content tree.
type Format string

const (
	FormatPeril        Format = "peril"
	FormatSurveySays   Format = "survey_says"
	FormatFinalAnswer  Format = "ur_final_answer"
	FormatLastCall     Format = "last_call_standing"
	FormatPickOrPass   Format = "pick_or_pass"
	FormatLinkReaction Format = "link_reaction"
	FormatSpinToWin    Format = "spin_to_win"
	FormatClosestWins  Format = "closest_wins"
	FormatChainedUp    Format = "chained_up"
	FormatNoWhammy     Format = "no_whammy"
	FormatBackToSchool Format = "back_to_school"
	FormatQuizChase    Format = "quiz_chase"
	FormatLiveShow     Format = "pkwy_live"
)

// Known reports whether f is one of the supported format tags.
func (f Format) Known() bool {
	switch f {
	case FormatPeril, FormatSurveySays, FormatFinalAnswer, FormatLastCall,
		FormatPickOrPass, FormatLinkReaction, FormatSpinToWin, FormatClosestWins,
		FormatChainedUp, FormatNoWhammy, FormatBackToSchool, FormatQuizChase,
		FormatLiveShow:
		return true
	}
	return false
}

// Content is the tagged union over the 13 format-specific content trees.
type Content interface {
	ContentFormat() Format
}

// Unit is one gradable record inside a content tree: a clue, question, case,
// puzzle, chain, panel question, or numeric estimate. AnswerWindow reports
// the answer time allowance in seconds.
type Unit interface {
	AnswerWindow() int
}

// Timed carries the optional per-unit answer window shared by every unit.
type Timed struct {
	TimeLimit int `json:"time_limit,omitempty"`
}

// AnswerWindow returns the configured time limit, defaulting to 30 seconds.
func (t Timed) AnswerWindow() int {
	if t.TimeLimit > 0 {
		return t.TimeLimit
	}
	return 30
}

// PerilClue is one board clue (Jeopardy style).
type PerilClue struct {
	Timed
	Value         int      `json:"value"`
	Difficulty    int      `json:"difficulty"`
	ClueText      string   `json:"clue_text"`
	CorrectAnswer string   `json:"correct_answer"`
	WrongAnswers  []string `json:"wrong_answers"`
	Revealed      bool     `json:"revealed"`
	Answered      bool     `json:"answered"`
}

type PerilCategory struct {
	CategoryTitle string      `json:"category_title"`
	Clues         []PerilClue `json:"clues"`
}

type PerilContent struct {
	GameName   string          `json:"game_name"`
	Categories []PerilCategory `json:"categories"`
}

func (PerilContent) ContentFormat() Format { return FormatPeril }

// SurveyAnswer is one ranked survey response with its popularity percentage.
type SurveyAnswer struct {
	Answer   string `json:"answer"`
	Percent  int    `json:"percent"`
	Revealed bool   `json:"revealed"`
}

type SurveyQuestion struct {
	Timed
	Question   string         `json:"question"`
	Answers    []SurveyAnswer `json:"answers"`
	Strikes    int            `json:"strikes"`
	MaxStrikes int            `json:"max_strikes"`
}

type SurveySaysContent struct {
	GameName        string           `json:"game_name"`
	SurveyQuestions []SurveyQuestion `json:"survey_questions"`
}

func (SurveySaysContent) ContentFormat() Format { return FormatSurveySays }

// FinalAnswerQuestion is a tiered multiple-choice question (Millionaire style).
type FinalAnswerQuestion struct {
	Timed
	PointValue    int               `json:"point_value"`
	Difficulty    int               `json:"difficulty"`
	QuestionText  string            `json:"question_text"`
	Choices       map[string]string `json:"choices"`
	CorrectAnswer string            `json:"correct_answer"`
	LifelinesUsed []string          `json:"lifelines_used,omitempty"`
}

type FinalAnswerContent struct {
	GameName           string                `json:"game_name"`
	Questions          []FinalAnswerQuestion `json:"questions"`
	AvailableLifelines []string              `json:"available_lifelines,omitempty"`
}

func (FinalAnswerContent) ContentFormat() Format { return FormatFinalAnswer }

// LastCallQuestion is an elimination-round multiple-choice question.
type LastCallQuestion struct {
	Timed
	Difficulty    int               `json:"difficulty"`
	QuestionText  string            `json:"question_text"`
	Choices       map[string]string `json:"choices"`
	CorrectAnswer string            `json:"correct_answer"`
}

type LastCallContent struct {
	GameName  string             `json:"game_name"`
	Questions []LastCallQuestion `json:"questions"`
}

func (LastCallContent) ContentFormat() Format { return FormatLastCall }

// PickOrPassCase is a briefcase question with a dollar value attached.
type PickOrPassCase struct {
	Timed
	CaseNumber    int               `json:"case_number"`
	CaseValue     int               `json:"case_value"`
	QuestionText  string            `json:"question_text"`
	Choices       map[string]string `json:"choices"`
	CorrectAnswer string            `json:"correct_answer"`
	WrongAnswers  []string          `json:"wrong_answers,omitempty"`
	TensionMeter  int               `json:"tension_meter"`
	Opened        bool              `json:"opened"`
}

type PickOrPassContent struct {
	GameName string           `json:"game_name"`
	Cases    []PickOrPassCase `json:"cases"`
}

func (PickOrPassContent) ContentFormat() Format { return FormatPickOrPass }

// LinkQuestion is a chain question graded by exact free-text match.
type LinkQuestion struct {
	Timed
	ChainValue    int      `json:"chain_value"`
	PenaltyValue  int      `json:"penalty_value"`
	QuestionText  string   `json:"question_text"`
	CorrectAnswer string   `json:"correct_answer"`
	WrongAnswers  []string `json:"wrong_answers,omitempty"`
}

type LinkReactionContent struct {
	GameName  string         `json:"game_name"`
	Questions []LinkQuestion `json:"questions"`
}

func (LinkReactionContent) ContentFormat() Format { return FormatLinkReaction }

// SpinPuzzle is a letter-reveal puzzle (Wheel of Fortune style).
type SpinPuzzle struct {
	Timed
	Category         string   `json:"category"`
	PuzzleWithBlanks string   `json:"puzzle_with_blanks"`
	FullAnswer       string   `json:"full_answer"`
	BonusLetter      string   `json:"bonus_letter,omitempty"`
	RevealedLetters  []string `json:"revealed_letters,omitempty"`
	Solved           bool     `json:"solved"`
}

type SpinToWinContent struct {
	GameName string       `json:"game_name"`
	Puzzles  []SpinPuzzle `json:"puzzles"`
}

func (SpinToWinContent) ContentFormat() Format { return FormatSpinToWin }

// EstimateQuestion is a numeric guess graded against an acceptable range.
// OverRule disqualifies any guess above the correct number.
type EstimateQuestion struct {
	Timed
	QuestionText    string  `json:"question_text"`
	CorrectNumber   float64 `json:"correct_number"`
	AcceptableRange float64 `json:"acceptable_range"`
	OverRule        bool    `json:"over_rule"`
}

type ClosestWinsContent struct {
	GameName string             `json:"game_name"`
	Numbers  []EstimateQuestion `json:"numbers"`
}

func (ClosestWinsContent) ContentFormat() Format { return FormatClosestWins }

// WordChain is a linked word list; any member word is a correct guess.
type WordChain struct {
	Timed
	ChainTitle      string   `json:"chain_title"`
	Words           []string `json:"words"`
	Explanation     string   `json:"explanation,omitempty"`
	CurrentPosition int      `json:"current_position"`
}

type ChainedUpContent struct {
	GameName string      `json:"game_name"`
	Chains   []WordChain `json:"chains"`
}

func (ChainedUpContent) ContentFormat() Format { return FormatChainedUp }

// BoardPanel is a prize-board cell: "WHAMMY!" or a point value.
type BoardPanel struct {
	Panel   int             `json:"panel"`
	Content json.RawMessage `json:"content"`
}

type SpinQuestion struct {
	Timed
	QuestionText  string            `json:"question_text"`
	Choices       map[string]string `json:"choices"`
	CorrectAnswer string            `json:"correct_answer"`
}

type NoWhammyContent struct {
	GameName      string         `json:"game_name"`
	Board         []BoardPanel   `json:"board,omitempty"`
	SpinQuestions []SpinQuestion `json:"spin_questions"`
}

func (NoWhammyContent) ContentFormat() Format { return FormatNoWhammy }

// SchoolQuestion is graded-curriculum trivia scored by grade level.
type SchoolQuestion struct {
	Timed
	Subject       string            `json:"subject"`
	GradeLevel    int               `json:"grade_level"`
	QuestionText  string            `json:"question_text"`
	Choices       map[string]string `json:"choices"`
	CorrectAnswer string            `json:"correct_answer"`
}

type BackToSchoolContent struct {
	GameName  string           `json:"game_name"`
	Questions []SchoolQuestion `json:"questions"`
}

func (BackToSchoolContent) ContentFormat() Format { return FormatBackToSchool }

// QuizChaseQuestion lives inside a category and is scored by difficulty.
type QuizChaseQuestion struct {
	Timed
	Difficulty    int               `json:"difficulty"`
	QuestionText  string            `json:"question_text"`
	Choices       map[string]string `json:"choices"`
	CorrectAnswer string            `json:"correct_answer"`
}

type QuizChaseCategory struct {
	CategoryTitle string              `json:"category_title"`
	Questions     []QuizChaseQuestion `json:"questions"`
}

type QuizChaseContent struct {
	GameName   string              `json:"game_name"`
	Categories []QuizChaseCategory `json:"categories"`
}

func (QuizChaseContent) ContentFormat() Format { return FormatQuizChase }

// LiveQuestion is fast-paced broadcast trivia with a flat point baseline.
type LiveQuestion struct {
	Timed
	Difficulty    int               `json:"difficulty"`
	QuestionText  string            `json:"question_text"`
	Choices       map[string]string `json:"choices"`
	CorrectAnswer string            `json:"correct_answer"`
}

type LiveShowContent struct {
	GameName  string         `json:"game_name"`
	Questions []LiveQuestion `json:"questions"`
}

func (LiveShowContent) ContentFormat() Format { return FormatLiveShow }

// DecodeContent parses raw content into the tree for the given format. A
// payload whose principal collection is missing fails with ErrFormatMismatch
// rather than decoding into an empty board.
func DecodeContent(format Format, raw []byte) (Content, error) {
	switch format {
	case FormatPeril:
		var c PerilContent
		return decodeInto(raw, &c, func() bool { return c.Categories != nil })
	case FormatSurveySays:
		var c SurveySaysContent
		return decodeInto(raw, &c, func() bool { return c.SurveyQuestions != nil })
	case FormatFinalAnswer:
		var c FinalAnswerContent
		return decodeInto(raw, &c, func() bool { return c.Questions != nil })
	case FormatLastCall:
		var c LastCallContent
		return decodeInto(raw, &c, func() bool { return c.Questions != nil })
	case FormatPickOrPass:
		var c PickOrPassContent
		return decodeInto(raw, &c, func() bool { return c.Cases != nil })
	case FormatLinkReaction:
		var c LinkReactionContent
		return decodeInto(raw, &c, func() bool { return c.Questions != nil })
	case FormatSpinToWin:
		var c SpinToWinContent
		return decodeInto(raw, &c, func() bool { return c.Puzzles != nil })
	case FormatClosestWins:
		var c ClosestWinsContent
		return decodeInto(raw, &c, func() bool { return c.Numbers != nil })
	case FormatChainedUp:
		var c ChainedUpContent
		return decodeInto(raw, &c, func() bool { return c.Chains != nil })
	case FormatNoWhammy:
		var c NoWhammyContent
		return decodeInto(raw, &c, func() bool { return c.SpinQuestions != nil })
	case FormatBackToSchool:
		var c BackToSchoolContent
		return decodeInto(raw, &c, func() bool { return c.Questions != nil })
	case FormatQuizChase:
		var c QuizChaseContent
		return decodeInto(raw, &c, func() bool { return c.Categories != nil })
	case FormatLiveShow:
		var c LiveShowContent
		return decodeInto(raw, &c, func() bool { return c.Questions != nil })
	default:
		return nil, ErrUnknownFormat
	}
}

func decodeInto[C Content](raw []byte, c *C, present func() bool) (Content, error) {
	if err := json.Unmarshal(raw, c); err != nil {
		return nil, err
	}
	if !present() {
		return nil, ErrFormatMismatch
	}
	return *c, nil
}
