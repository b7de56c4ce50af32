package profile

import "sort"

// AnswerSet maps a question index to the selected option text. Unanswered
// questions are absent from the map.
type AnswerSet map[int]string

// Scores are the accumulated per-label weights.
type Scores struct {
	Designer int `json:"designer"`
	Consumer int `json:"consumer"`
}

// Result is the outcome of a classification run.
type Result struct {
	Type   Label  `json:"type"`
	Scores Scores `json:"scores"`
}

// Integrity warning reasons.
const (
	ReasonUnknownOption = "unknown_option"
	ReasonOutOfRange    = "index_out_of_range"
)

// IntegrityWarning reports an answer that could not be scored.
type IntegrityWarning struct {
	QuestionIndex int    `json:"question_index"`
	Answer        string `json:"answer"`
	Reason        string `json:"reason"`
}

// Assessment wraps a classification with completion progress.
type Assessment struct {
	Result   Result             `json:"result"`
	Warnings []IntegrityWarning `json:"warnings,omitempty"`
	Answered int                `json:"answered"`
	Total    int                `json:"total"`
	Complete bool               `json:"complete"`
	Progress float64            `json:"progress"`
}

// Classify scores the answers against the bank. Answers that do not resolve to
// an option of their question are skipped and reported as warnings.
func Classify(bank *Bank, answers AnswerSet) (Result, []IntegrityWarning) {
	var (
		scores   Scores
		warnings []IntegrityWarning
	)

	for _, idx := range sortedIndexes(answers) {
		answer := answers[idx]
		if idx < 0 || idx >= bank.Len() {
			warnings = append(warnings, IntegrityWarning{QuestionIndex: idx, Answer: answer, Reason: ReasonOutOfRange})
			continue
		}
		q := bank.Questions[idx]
		opt := q.optionIndex(answer)
		if opt < 0 {
			warnings = append(warnings, IntegrityWarning{QuestionIndex: idx, Answer: answer, Reason: ReasonUnknownOption})
			continue
		}
		scores.Designer += q.Weights.Designer[opt]
		scores.Consumer += q.Weights.Consumer[opt]
	}

	return Result{Type: Decide(scores), Scores: scores}, warnings
}

// Decide picks the label with the strictly greater score. Every tie, including
// the empty questionnaire, resolves to LabelConsumer.
func Decide(scores Scores) Label {
	if scores.Designer > scores.Consumer {
		return LabelDesigner
	}
	return LabelConsumer
}

// Assess classifies the answers and reports how much of the bank is validly
// answered. Complete is the gate callers use before persisting a profile.
func Assess(bank *Bank, answers AnswerSet) Assessment {
	result, warnings := Classify(bank, answers)
	total := bank.Len()

	invalid := make(map[int]struct{}, len(warnings))
	for _, w := range warnings {
		invalid[w.QuestionIndex] = struct{}{}
	}
	answered := 0
	for idx := range answers {
		if idx < 0 || idx >= total {
			continue
		}
		if _, bad := invalid[idx]; bad {
			continue
		}
		answered++
	}

	var progress float64
	if total > 0 {
		progress = float64(answered) / float64(total)
	}

	return Assessment{
		Result:   result,
		Warnings: warnings,
		Answered: answered,
		Total:    total,
		Complete: total > 0 && answered == total,
		Progress: progress,
	}
}

func sortedIndexes(answers AnswerSet) []int {
	keys := make([]int, 0, len(answers))
	for k := range answers {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

// Resolved returns the subset of answers that resolve to an option of their
// question. Out-of-range indexes and unknown options are dropped.
func Resolved(bank *Bank, answers AnswerSet) AnswerSet {
	out := make(AnswerSet, len(answers))
	for idx, answer := range answers {
		if idx < 0 || idx >= bank.Len() {
			continue
		}
		if bank.Questions[idx].optionIndex(answer) < 0 {
			continue
		}
		out[idx] = answer
	}
	return out
}
