package domain

import "time"

// Form status values. Only active forms can be listed or answered.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// TypeMultipleChoice is the only question type currently supported.
const TypeMultipleChoice = "multiple_choice"

// Form is a named quiz composed of questions. Soft-deletable: removed forms
// stay in storage so historical responses keep a valid reference.
type Form struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	UserID      int64      `json:"userId"`
	Questions   []Question `json:"questions,omitempty"`
}

// IsActive reports whether the form can be shown and answered.
func (f Form) IsActive() bool {
	return f.Status == StatusActive
}

// Question is a single multiple-choice prompt belonging to one form.
type Question struct {
	ID           int64         `json:"id"`
	FormID       int64         `json:"formId"`
	Text         string        `json:"text"`
	Type         string        `json:"type"`
	Alternatives []Alternative `json:"alternatives,omitempty"`
}

// Alternative is one selectable option of a question.
type Alternative struct {
	ID         int64  `json:"id"`
	QuestionID int64  `json:"questionId"`
	Text       string `json:"text"`
	IsCorrect  bool   `json:"isCorrect"`
}

// FormSnapshot freezes the form's display fields at submission time so later
// edits or deletion of the form do not corrupt historical responses. Stored as
// a json column on the response row.
type FormSnapshot struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// FormResponse is one user's completed submission for a form. It references
// the form by id only; the snapshot is what historical display relies on.
// Immutable after creation.
type FormResponse struct {
	ID          int64            `json:"id"`
	FormID      int64            `json:"formId"`
	UserID      int64            `json:"userId"`
	SubmittedAt time.Time        `json:"submittedAt"`
	FormData    FormSnapshot     `json:"formData"`
	Answers     []ResponseAnswer `json:"answers,omitempty"`
}

// Score derives the correct/total summary from the response's answers.
func (r FormResponse) Score() (Score, error) {
	correct := 0
	for _, answer := range r.Answers {
		if answer.IsCorrect {
			correct++
		}
	}
	return NewScore(correct, len(r.Answers))
}

// ResponseAnswer records one answered question inside a response. Question and
// alternative are copied as text, not referenced, so the row stays meaningful
// after the originals are edited or deleted.
type ResponseAnswer struct {
	ID              int64  `json:"id"`
	FormResponseID  int64  `json:"formResponseId"`
	QuestionText    string `json:"questionText"`
	AlternativeText string `json:"alternativeText"`
	IsCorrect       bool   `json:"isCorrect"`
}

// ResponseEvent is the feed notification emitted after a submission commits.
type ResponseEvent struct {
	FormID      int64     `json:"formId"`
	ResponseID  int64     `json:"responseId"`
	UserID      int64     `json:"userId"`
	SubmittedAt time.Time `json:"submittedAt"`
	Correct     int       `json:"correct"`
	Total       int       `json:"total"`
}

// User is a registered account. Password is stored as a bcrypt hash.
type User struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
}

// ValidateFormDefinition checks the authoring invariants before a form is
// persisted: every question needs at least two alternatives and exactly one of
// them marked correct.
func ValidateFormDefinition(form Form) error {
	for _, question := range form.Questions {
		if len(question.Alternatives) < 2 {
			return ErrTooFewAlternatives
		}
		correct := 0
		for _, alternative := range question.Alternatives {
			if alternative.IsCorrect {
				correct++
			}
		}
		if correct != 1 {
			return ErrAmbiguousCorrectAlternative
		}
	}
	return nil
}
