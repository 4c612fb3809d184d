package app

import (
	"context"
	"fmt"
	"time"

	"formbuilder-service/internal/domain"
)

// FormRepository abstracts form and response storage (in-memory, Postgres).
type FormRepository interface {
	// ListActiveForms returns all active forms with questions and
	// alternatives eagerly loaded.
	ListActiveForms(ctx context.Context) ([]domain.Form, error)
	// FindFormWithQuestions loads one form aggregate, questions and
	// alternatives included. Soft-deleted forms are not found.
	FindFormWithQuestions(ctx context.Context, formID int64) (domain.Form, error)
	// CreateForm persists a whole form aggregate (authoring/seed path).
	CreateForm(ctx context.Context, form *domain.Form) error
	// CreateResponse persists the response and all its answers atomically.
	// Either every row is written or none is.
	CreateResponse(ctx context.Context, response *domain.FormResponse) error
	// FindResponse loads one response with its answers.
	FindResponse(ctx context.Context, responseID int64) (domain.FormResponse, error)
}

// FormService contains the form display and response submission use cases.
type FormService struct {
	forms FormRepository
	feed  *ResponseFeed
	now   func() time.Time
}

func NewFormService(forms FormRepository, feed *ResponseFeed) *FormService {
	return NewFormServiceWithClock(forms, feed, time.Now)
}

// NewFormServiceWithClock is test-only for deterministic submission timestamps.
func NewFormServiceWithClock(forms FormRepository, feed *ResponseFeed, now func() time.Time) *FormService {
	return &FormService{forms: forms, feed: feed, now: now}
}

// ListActiveForms returns the forms currently open for answering.
func (s *FormService) ListActiveForms(ctx context.Context) ([]domain.Form, error) {
	return s.forms.ListActiveForms(ctx)
}

// GetForm loads a form for answering. Inactive forms are reported as not
// available so the boundary can render them as not found.
func (s *FormService) GetForm(ctx context.Context, formID int64) (domain.Form, error) {
	form, err := s.forms.FindFormWithQuestions(ctx, formID)
	if err != nil {
		return domain.Form{}, err
	}
	if !IsFormAvailable(form) {
		return domain.Form{}, domain.ErrFormNotAvailable
	}
	return form, nil
}

// SubmitResponse runs the submission workflow: re-check availability, validate
// the answer mapping, then persist the snapshot and one answer row per
// question in a single transaction. Each call creates a new response;
// submissions are deliberately not idempotent.
func (s *FormService) SubmitResponse(ctx context.Context, formID int64, answers map[int64]int64, userID int64) (domain.FormResponse, error) {
	form, err := s.forms.FindFormWithQuestions(ctx, formID)
	if err != nil {
		return domain.FormResponse{}, err
	}
	if !IsFormAvailable(form) {
		return domain.FormResponse{}, domain.ErrFormNotAvailable
	}
	if err := BuildAnswerRules(form).Validate(answers); err != nil {
		return domain.FormResponse{}, err
	}
	if userID <= 0 {
		return domain.FormResponse{}, domain.ErrUnauthenticated
	}

	response := domain.FormResponse{
		FormID:      form.ID,
		UserID:      userID,
		SubmittedAt: s.now(),
		FormData: domain.FormSnapshot{
			Title:       form.Title,
			Description: form.Description,
		},
	}
	response.Answers, err = buildAnswerRows(form, answers)
	if err != nil {
		return domain.FormResponse{}, err
	}

	if err := s.forms.CreateResponse(ctx, &response); err != nil {
		return domain.FormResponse{}, fmt.Errorf("create response: %w", err)
	}

	s.publishSubmitted(response)
	return response, nil
}

// GetOwnedForm loads a form for its owner regardless of status, so owners can
// inspect inactive forms too. Non-owners see it as not found.
func (s *FormService) GetOwnedForm(ctx context.Context, formID, ownerID int64) (domain.Form, error) {
	form, err := s.forms.FindFormWithQuestions(ctx, formID)
	if err != nil {
		return domain.Form{}, err
	}
	if form.UserID != ownerID {
		return domain.Form{}, domain.ErrFormNotFound
	}
	return form, nil
}

// GetResponse loads a stored response with its answers.
func (s *FormService) GetResponse(ctx context.Context, responseID int64) (domain.FormResponse, error) {
	return s.forms.FindResponse(ctx, responseID)
}

// ResponseScore derives the score of a stored response from its answer rows.
func (s *FormService) ResponseScore(ctx context.Context, responseID int64) (domain.Score, error) {
	response, err := s.forms.FindResponse(ctx, responseID)
	if err != nil {
		return domain.Score{}, err
	}
	return response.Score()
}

// buildAnswerRows materializes the answer rows in the form's question order.
// Validation already guaranteed every question is answered with one of its own
// alternatives; the lookups here guard the invariant anyway since breaking it
// would mean corrupting stored data.
func buildAnswerRows(form domain.Form, answers map[int64]int64) ([]domain.ResponseAnswer, error) {
	rows := make([]domain.ResponseAnswer, 0, len(form.Questions))
	for i := range form.Questions {
		question := &form.Questions[i]
		alternativeID, ok := answers[question.ID]
		if !ok {
			return nil, fmt.Errorf("question %d: %w", question.ID, domain.ErrQuestionNotFound)
		}
		alternative := findAlternative(question, alternativeID)
		if alternative == nil {
			return nil, fmt.Errorf("alternative %d in question %d: %w", alternativeID, question.ID, domain.ErrAlternativeNotFound)
		}
		rows = append(rows, domain.ResponseAnswer{
			QuestionText:    question.Text,
			AlternativeText: alternative.Text,
			IsCorrect:       alternative.IsCorrect,
		})
	}
	return rows, nil
}

func findAlternative(question *domain.Question, alternativeID int64) *domain.Alternative {
	for i := range question.Alternatives {
		if question.Alternatives[i].ID == alternativeID {
			return &question.Alternatives[i]
		}
	}
	return nil
}

func (s *FormService) publishSubmitted(response domain.FormResponse) {
	if s.feed == nil {
		return
	}
	correct := 0
	for _, answer := range response.Answers {
		if answer.IsCorrect {
			correct++
		}
	}
	s.feed.Publish(domain.ResponseEvent{
		FormID:      response.FormID,
		ResponseID:  response.ID,
		UserID:      response.UserID,
		SubmittedAt: response.SubmittedAt,
		Correct:     correct,
		Total:       len(response.Answers),
	})
}
