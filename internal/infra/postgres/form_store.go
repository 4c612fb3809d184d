package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"formbuilder-service/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// FormStore is the Postgres implementation of app.FormRepository. Soft-deleted
// rows are filtered with deleted_at IS NULL on every default query.
type FormStore struct {
	pool *pgxpool.Pool
}

func NewFormStore(pool *pgxpool.Pool) *FormStore {
	return &FormStore{pool: pool}
}

// ListActiveForms loads all active forms and prefetches their questions and
// alternatives in two batched queries, so callers get a fully materialized
// aggregate.
func (s *FormStore) ListActiveForms(ctx context.Context) ([]domain.Form, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, title, description, status, user_id
		   FROM forms
		  WHERE status = $1 AND deleted_at IS NULL
		  ORDER BY id`, domain.StatusActive)
	if err != nil {
		return nil, fmt.Errorf("list active forms: %w", err)
	}
	defer rows.Close()

	var forms []domain.Form
	for rows.Next() {
		var form domain.Form
		if err := rows.Scan(&form.ID, &form.Title, &form.Description, &form.Status, &form.UserID); err != nil {
			return nil, fmt.Errorf("scan form: %w", err)
		}
		forms = append(forms, form)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list active forms: %w", err)
	}

	if err := s.loadQuestions(ctx, forms); err != nil {
		return nil, err
	}
	return forms, nil
}

// FindFormWithQuestions loads one form aggregate for display or submission.
func (s *FormStore) FindFormWithQuestions(ctx context.Context, formID int64) (domain.Form, error) {
	var form domain.Form
	err := s.pool.QueryRow(ctx,
		`SELECT id, title, description, status, user_id
		   FROM forms
		  WHERE id = $1 AND deleted_at IS NULL`, formID).
		Scan(&form.ID, &form.Title, &form.Description, &form.Status, &form.UserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Form{}, domain.ErrFormNotFound
		}
		return domain.Form{}, fmt.Errorf("find form %d: %w", formID, err)
	}

	forms := []domain.Form{form}
	if err := s.loadQuestions(ctx, forms); err != nil {
		return domain.Form{}, err
	}
	return forms[0], nil
}

// loadQuestions attaches questions and alternatives to the given forms with
// one ANY($1) query per level.
func (s *FormStore) loadQuestions(ctx context.Context, forms []domain.Form) error {
	if len(forms) == 0 {
		return nil
	}

	formIDs := make([]int64, len(forms))
	formIndex := make(map[int64]*domain.Form, len(forms))
	for i := range forms {
		formIDs[i] = forms[i].ID
		formIndex[forms[i].ID] = &forms[i]
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, form_id, text, type
		   FROM questions
		  WHERE form_id = ANY($1) AND deleted_at IS NULL
		  ORDER BY id`, formIDs)
	if err != nil {
		return fmt.Errorf("load questions: %w", err)
	}
	defer rows.Close()

	var questionIDs []int64
	for rows.Next() {
		var question domain.Question
		if err := rows.Scan(&question.ID, &question.FormID, &question.Text, &question.Type); err != nil {
			return fmt.Errorf("scan question: %w", err)
		}
		form := formIndex[question.FormID]
		form.Questions = append(form.Questions, question)
		questionIDs = append(questionIDs, question.ID)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("load questions: %w", err)
	}
	if len(questionIDs) == 0 {
		return nil
	}

	// Index only after all questions are attached; appending above may move
	// the slices' backing arrays.
	questionIndex := make(map[int64]*domain.Question, len(questionIDs))
	for i := range forms {
		for j := range forms[i].Questions {
			question := &forms[i].Questions[j]
			questionIndex[question.ID] = question
		}
	}

	altRows, err := s.pool.Query(ctx,
		`SELECT id, question_id, text, is_correct
		   FROM alternatives
		  WHERE question_id = ANY($1) AND deleted_at IS NULL
		  ORDER BY id`, questionIDs)
	if err != nil {
		return fmt.Errorf("load alternatives: %w", err)
	}
	defer altRows.Close()

	for altRows.Next() {
		var alternative domain.Alternative
		if err := altRows.Scan(&alternative.ID, &alternative.QuestionID, &alternative.Text, &alternative.IsCorrect); err != nil {
			return fmt.Errorf("scan alternative: %w", err)
		}
		question := questionIndex[alternative.QuestionID]
		question.Alternatives = append(question.Alternatives, alternative)
	}
	return altRows.Err()
}

// CreateForm persists an authored form aggregate in one transaction.
func (s *FormStore) CreateForm(ctx context.Context, form *domain.Form) error {
	if err := domain.ValidateFormDefinition(*form); err != nil {
		return err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin create form: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO forms (title, description, status, user_id)
		 VALUES ($1, $2, $3, $4) RETURNING id`,
		form.Title, form.Description, form.Status, form.UserID).Scan(&form.ID)
	if err != nil {
		return fmt.Errorf("insert form: %w", err)
	}

	for i := range form.Questions {
		question := &form.Questions[i]
		question.FormID = form.ID
		if question.Type == "" {
			question.Type = domain.TypeMultipleChoice
		}
		err = tx.QueryRow(ctx,
			`INSERT INTO questions (form_id, text, type)
			 VALUES ($1, $2, $3) RETURNING id`,
			question.FormID, question.Text, question.Type).Scan(&question.ID)
		if err != nil {
			return fmt.Errorf("insert question: %w", err)
		}

		for j := range question.Alternatives {
			alternative := &question.Alternatives[j]
			alternative.QuestionID = question.ID
			err = tx.QueryRow(ctx,
				`INSERT INTO alternatives (question_id, text, is_correct)
				 VALUES ($1, $2, $3) RETURNING id`,
				alternative.QuestionID, alternative.Text, alternative.IsCorrect).Scan(&alternative.ID)
			if err != nil {
				return fmt.Errorf("insert alternative: %w", err)
			}
		}
	}

	return tx.Commit(ctx)
}

// CreateResponse writes the response row and all its answer rows inside one
// transaction. A failure anywhere rolls the whole submission back; readers
// never see a partially answered response.
func (s *FormStore) CreateResponse(ctx context.Context, response *domain.FormResponse) error {
	formData, err := json.Marshal(response.FormData)
	if err != nil {
		return fmt.Errorf("marshal form snapshot: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin submit: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO form_responses (form_id, user_id, submitted_at, form_data)
		 VALUES ($1, $2, $3, $4) RETURNING id`,
		response.FormID, response.UserID, response.SubmittedAt, formData).Scan(&response.ID)
	if err != nil {
		return fmt.Errorf("insert response: %w", err)
	}

	for i := range response.Answers {
		answer := &response.Answers[i]
		answer.FormResponseID = response.ID
		err = tx.QueryRow(ctx,
			`INSERT INTO response_answers (form_response_id, question_text, alternative_text, is_correct)
			 VALUES ($1, $2, $3, $4) RETURNING id`,
			answer.FormResponseID, answer.QuestionText, answer.AlternativeText, answer.IsCorrect).Scan(&answer.ID)
		if err != nil {
			return fmt.Errorf("insert answer: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// FindResponse loads one response with its answers.
func (s *FormStore) FindResponse(ctx context.Context, responseID int64) (domain.FormResponse, error) {
	var response domain.FormResponse
	var formData []byte
	err := s.pool.QueryRow(ctx,
		`SELECT id, form_id, user_id, submitted_at, form_data
		   FROM form_responses
		  WHERE id = $1`, responseID).
		Scan(&response.ID, &response.FormID, &response.UserID, &response.SubmittedAt, &formData)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.FormResponse{}, domain.ErrResponseNotFound
		}
		return domain.FormResponse{}, fmt.Errorf("find response %d: %w", responseID, err)
	}
	if err := json.Unmarshal(formData, &response.FormData); err != nil {
		return domain.FormResponse{}, fmt.Errorf("unmarshal form snapshot: %w", err)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, form_response_id, question_text, alternative_text, is_correct
		   FROM response_answers
		  WHERE form_response_id = $1
		  ORDER BY id`, responseID)
	if err != nil {
		return domain.FormResponse{}, fmt.Errorf("load answers: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var answer domain.ResponseAnswer
		if err := rows.Scan(&answer.ID, &answer.FormResponseID, &answer.QuestionText, &answer.AlternativeText, &answer.IsCorrect); err != nil {
			return domain.FormResponse{}, fmt.Errorf("scan answer: %w", err)
		}
		response.Answers = append(response.Answers, answer)
	}
	if err := rows.Err(); err != nil {
		return domain.FormResponse{}, fmt.Errorf("load answers: %w", err)
	}
	return response, nil
}

// ResponseCount counts stored responses for a form.
func (s *FormStore) ResponseCount(ctx context.Context, formID int64) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM form_responses WHERE form_id = $1`, formID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count responses: %w", err)
	}
	return count, nil
}

// SoftDeleteForm marks a form deleted without removing it; historical
// responses keep working off their snapshots.
func (s *FormStore) SoftDeleteForm(ctx context.Context, formID int64) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE forms SET deleted_at = now() WHERE id = $1 AND deleted_at IS NULL`, formID)
	if err != nil {
		return fmt.Errorf("soft delete form %d: %w", formID, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrFormNotFound
	}
	return nil
}
