package memory

import (
	"context"
	"sort"
	"sync"

	"formbuilder-service/internal/domain"
)

// FormStore is an in-memory implementation of app.FormRepository, used by
// tests and as the fallback when no Postgres is configured.
type FormStore struct {
	mu        sync.RWMutex
	forms     map[int64]domain.Form
	deleted   map[int64]bool
	responses map[int64]domain.FormResponse
	nextID    map[string]int64
}

func NewFormStore() *FormStore {
	return &FormStore{
		forms:     make(map[int64]domain.Form),
		deleted:   make(map[int64]bool),
		responses: make(map[int64]domain.FormResponse),
		nextID:    make(map[string]int64),
	}
}

func (s *FormStore) nextSequence(name string) int64 {
	s.nextID[name]++
	return s.nextID[name]
}

// CreateForm stores a form aggregate, assigning ids throughout. The authoring
// invariants are checked before anything is written.
func (s *FormStore) CreateForm(_ context.Context, form *domain.Form) error {
	if err := domain.ValidateFormDefinition(*form); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	form.ID = s.nextSequence("forms")
	for i := range form.Questions {
		question := &form.Questions[i]
		question.ID = s.nextSequence("questions")
		question.FormID = form.ID
		if question.Type == "" {
			question.Type = domain.TypeMultipleChoice
		}
		for j := range question.Alternatives {
			alternative := &question.Alternatives[j]
			alternative.ID = s.nextSequence("alternatives")
			alternative.QuestionID = question.ID
		}
	}
	s.forms[form.ID] = copyForm(*form)
	return nil
}

// ListActiveForms returns active, non-deleted forms in insertion order with
// their nested questions and alternatives.
func (s *FormStore) ListActiveForms(_ context.Context) ([]domain.Form, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	forms := make([]domain.Form, 0, len(s.forms))
	for id, form := range s.forms {
		if s.deleted[id] || form.Status != domain.StatusActive {
			continue
		}
		forms = append(forms, copyForm(form))
	}
	sort.Slice(forms, func(i, j int) bool { return forms[i].ID < forms[j].ID })
	return forms, nil
}

func (s *FormStore) FindFormWithQuestions(_ context.Context, formID int64) (domain.Form, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	form, ok := s.forms[formID]
	if !ok || s.deleted[formID] {
		return domain.Form{}, domain.ErrFormNotFound
	}
	return copyForm(form), nil
}

// CreateResponse stores the response and its answers as one unit. The map
// swap under the lock gives the same all-or-nothing visibility the SQL store
// gets from its transaction.
func (s *FormStore) CreateResponse(_ context.Context, response *domain.FormResponse) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	response.ID = s.nextSequence("responses")
	for i := range response.Answers {
		answer := &response.Answers[i]
		answer.ID = s.nextSequence("answers")
		answer.FormResponseID = response.ID
	}
	s.responses[response.ID] = copyResponse(*response)
	return nil
}

func (s *FormStore) FindResponse(_ context.Context, responseID int64) (domain.FormResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	response, ok := s.responses[responseID]
	if !ok {
		return domain.FormResponse{}, domain.ErrResponseNotFound
	}
	return copyResponse(response), nil
}

// ResponseCount reports how many responses exist for a form. Test helper for
// the no-partial-write property.
func (s *FormStore) ResponseCount(formID int64) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, response := range s.responses {
		if response.FormID == formID {
			count++
		}
	}
	return count
}

// SoftDeleteForm hides a form from queries while keeping it in storage, the
// in-memory equivalent of the SQL deleted_at column. Responses survive.
func (s *FormStore) SoftDeleteForm(_ context.Context, formID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.forms[formID]; !ok {
		return domain.ErrFormNotFound
	}
	s.deleted[formID] = true
	return nil
}

func copyForm(form domain.Form) domain.Form {
	out := form
	out.Questions = make([]domain.Question, len(form.Questions))
	for i, question := range form.Questions {
		q := question
		q.Alternatives = append([]domain.Alternative(nil), question.Alternatives...)
		out.Questions[i] = q
	}
	return out
}

func copyResponse(response domain.FormResponse) domain.FormResponse {
	out := response
	out.Answers = append([]domain.ResponseAnswer(nil), response.Answers...)
	return out
}
