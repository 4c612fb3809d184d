package app

import (
	"fmt"

	"formbuilder-service/internal/domain"
)

// User-facing validation messages, one per failure mode.
const (
	MsgAnswerRequired     = "Please answer all questions."
	MsgInvalidAlternative = "Selected alternative is not valid."
)

// ValidationError reports per-question failures keyed by question id so the
// caller can redisplay the form with the messages attached.
type ValidationError struct {
	Fields map[int64]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("answers failed validation for %d question(s)", len(e.Fields))
}

// AnswerRule constrains the submitted answer for one question: an answer is
// required and must be one of the question's own alternatives. Restricting the
// lookup to the owning question keeps an alternative id from another question
// from sneaking through.
type AnswerRule struct {
	QuestionID   int64
	Alternatives map[int64]struct{}
}

// AnswerRules maps question ids to their constraint.
type AnswerRules map[int64]AnswerRule

// IsFormAvailable reports whether the form accepts submissions. Checked on
// display and re-checked at submission time; the status can flip in between.
func IsFormAvailable(form domain.Form) bool {
	return form.IsActive()
}

// BuildAnswerRules derives the per-question constraints from a fully loaded
// form aggregate.
func BuildAnswerRules(form domain.Form) AnswerRules {
	rules := make(AnswerRules, len(form.Questions))
	for _, question := range form.Questions {
		valid := make(map[int64]struct{}, len(question.Alternatives))
		for _, alternative := range question.Alternatives {
			valid[alternative.ID] = struct{}{}
		}
		rules[question.ID] = AnswerRule{QuestionID: question.ID, Alternatives: valid}
	}
	return rules
}

// Validate checks a submitted question->alternative mapping against the rules.
// Keys without a rule are ignored; they are dropped before persistence. Returns
// nil when every rule is satisfied, otherwise a *ValidationError.
func (rules AnswerRules) Validate(answers map[int64]int64) error {
	fields := make(map[int64]string)
	for questionID, rule := range rules {
		alternativeID, ok := answers[questionID]
		if !ok {
			fields[questionID] = MsgAnswerRequired
			continue
		}
		if _, ok := rule.Alternatives[alternativeID]; !ok {
			fields[questionID] = MsgInvalidAlternative
		}
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}
