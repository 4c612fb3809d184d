package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"formbuilder-service/internal/app"
	"formbuilder-service/internal/domain"
	"formbuilder-service/internal/infra/memory"
)

var testClock = func() time.Time {
	return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
}

func TestSubmitResponseCreatesSnapshotAndAnswers(t *testing.T) {
	ctx := context.Background()
	service, store, formID := newTestService(t, domain.StatusActive)

	form, err := service.GetForm(ctx, formID)
	if err != nil {
		t.Fatalf("get form: %v", err)
	}

	response, err := service.SubmitResponse(ctx, formID, correctAnswers(form), 7)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if response.ID == 0 {
		t.Fatalf("expected stored response to get an id")
	}
	if response.UserID != 7 {
		t.Fatalf("expected submitting user recorded, got %d", response.UserID)
	}
	if !response.SubmittedAt.Equal(testClock()) {
		t.Fatalf("expected clock timestamp, got %v", response.SubmittedAt)
	}
	if response.FormData.Title != form.Title || response.FormData.Description != form.Description {
		t.Fatalf("expected snapshot of form, got %+v", response.FormData)
	}
	if len(response.Answers) != len(form.Questions) {
		t.Fatalf("expected %d answers, got %d", len(form.Questions), len(response.Answers))
	}
	for _, answer := range response.Answers {
		if !answer.IsCorrect {
			t.Fatalf("expected all chosen alternatives correct, got %+v", answer)
		}
	}
	if store.ResponseCount(formID) != 1 {
		t.Fatalf("expected exactly one stored response")
	}
}

func TestSubmitResponseIsNotIdempotent(t *testing.T) {
	ctx := context.Background()
	service, store, formID := newTestService(t, domain.StatusActive)

	form, _ := service.GetForm(ctx, formID)
	answers := correctAnswers(form)

	first, err := service.SubmitResponse(ctx, formID, answers, 7)
	if err != nil {
		t.Fatalf("first submit: %v", err)
	}
	second, err := service.SubmitResponse(ctx, formID, answers, 7)
	if err != nil {
		t.Fatalf("second submit: %v", err)
	}
	if first.ID == second.ID {
		t.Fatalf("expected two independent responses, both got id %d", first.ID)
	}
	if store.ResponseCount(formID) != 2 {
		t.Fatalf("expected two stored responses, got %d", store.ResponseCount(formID))
	}
}

func TestSubmitResponseInactiveForm(t *testing.T) {
	ctx := context.Background()
	service, store, formID := newTestService(t, domain.StatusInactive)

	_, err := service.SubmitResponse(ctx, formID, map[int64]int64{1: 2}, 7)
	if !errors.Is(err, domain.ErrFormNotAvailable) {
		t.Fatalf("expected ErrFormNotAvailable, got %v", err)
	}
	if store.ResponseCount(formID) != 0 {
		t.Fatalf("expected no response rows for unavailable form")
	}
}

func TestSubmitResponseMissingAnswer(t *testing.T) {
	ctx := context.Background()
	service, store, formID := newTestService(t, domain.StatusActive)

	form, _ := service.GetForm(ctx, formID)
	answers := correctAnswers(form)
	missing := form.Questions[1].ID
	delete(answers, missing)

	_, err := service.SubmitResponse(ctx, formID, answers, 7)
	var validationErr *app.ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if validationErr.Fields[missing] != app.MsgAnswerRequired {
		t.Fatalf("expected required message for question %d, got %+v", missing, validationErr.Fields)
	}
	if store.ResponseCount(formID) != 0 {
		t.Fatalf("expected no partial write after validation failure")
	}
}

func TestSubmitResponseRejectsForeignAlternative(t *testing.T) {
	ctx := context.Background()
	service, _, formID := newTestService(t, domain.StatusActive)

	form, _ := service.GetForm(ctx, formID)
	answers := correctAnswers(form)
	// Answer question 0 with an alternative belonging to question 1.
	q0 := form.Questions[0].ID
	answers[q0] = form.Questions[1].Alternatives[0].ID

	_, err := service.SubmitResponse(ctx, formID, answers, 7)
	var validationErr *app.ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if validationErr.Fields[q0] != app.MsgInvalidAlternative {
		t.Fatalf("expected invalid alternative message, got %+v", validationErr.Fields)
	}
}

func TestSubmitResponseRequiresUser(t *testing.T) {
	ctx := context.Background()
	service, _, formID := newTestService(t, domain.StatusActive)

	form, _ := service.GetForm(ctx, formID)
	_, err := service.SubmitResponse(ctx, formID, correctAnswers(form), 0)
	if !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestSubmitResponseDropsUnknownQuestionKeys(t *testing.T) {
	ctx := context.Background()
	service, _, formID := newTestService(t, domain.StatusActive)

	form, _ := service.GetForm(ctx, formID)
	answers := correctAnswers(form)
	answers[9999] = 12345

	response, err := service.SubmitResponse(ctx, formID, answers, 7)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if len(response.Answers) != len(form.Questions) {
		t.Fatalf("expected unknown keys dropped, got %d answers", len(response.Answers))
	}
}

func TestGetFormHidesUnavailableForms(t *testing.T) {
	ctx := context.Background()
	service, _, formID := newTestService(t, domain.StatusInactive)

	if _, err := service.GetForm(ctx, formID); !errors.Is(err, domain.ErrFormNotAvailable) {
		t.Fatalf("expected ErrFormNotAvailable, got %v", err)
	}
	if _, err := service.GetForm(ctx, 9999); !errors.Is(err, domain.ErrFormNotFound) {
		t.Fatalf("expected ErrFormNotFound, got %v", err)
	}
}

func TestListActiveFormsExcludesInactive(t *testing.T) {
	ctx := context.Background()
	store := memory.NewFormStore()
	seedForm(t, store, domain.StatusActive)
	seedForm(t, store, domain.StatusInactive)
	service := app.NewFormServiceWithClock(store, nil, testClock)

	forms, err := service.ListActiveForms(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(forms) != 1 {
		t.Fatalf("expected one active form, got %d", len(forms))
	}
	if len(forms[0].Questions) == 0 || len(forms[0].Questions[0].Alternatives) == 0 {
		t.Fatalf("expected nested questions and alternatives loaded")
	}
}

func TestResponseScoreFromStoredAnswers(t *testing.T) {
	ctx := context.Background()
	service, _, formID := newTestService(t, domain.StatusActive)

	form, _ := service.GetForm(ctx, formID)
	answers := correctAnswers(form)
	// Flip the first question to a wrong alternative.
	for _, alternative := range form.Questions[0].Alternatives {
		if !alternative.IsCorrect {
			answers[form.Questions[0].ID] = alternative.ID
			break
		}
	}

	response, err := service.SubmitResponse(ctx, formID, answers, 7)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	score, err := service.ResponseScore(ctx, response.ID)
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if score.CorrectAnswers() != 1 || score.TotalAnswers() != 2 {
		t.Fatalf("expected 1/2, got %s", score)
	}
}

func TestSnapshotSurvivesFormDeletion(t *testing.T) {
	ctx := context.Background()
	service, store, formID := newTestService(t, domain.StatusActive)

	form, _ := service.GetForm(ctx, formID)
	response, err := service.SubmitResponse(ctx, formID, correctAnswers(form), 7)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	if err := store.SoftDeleteForm(ctx, formID); err != nil {
		t.Fatalf("delete form: %v", err)
	}
	if _, err := service.GetForm(ctx, formID); !errors.Is(err, domain.ErrFormNotFound) {
		t.Fatalf("expected deleted form hidden, got %v", err)
	}

	stored, err := service.GetResponse(ctx, response.ID)
	if err != nil {
		t.Fatalf("expected response to survive form deletion: %v", err)
	}
	if stored.FormData.Title != form.Title {
		t.Fatalf("expected snapshot title %q, got %q", form.Title, stored.FormData.Title)
	}
}

func TestSubmitResponsePublishesFeedEvent(t *testing.T) {
	ctx := context.Background()
	store := memory.NewFormStore()
	formID := seedForm(t, store, domain.StatusActive)
	feed := app.NewResponseFeed()
	service := app.NewFormServiceWithClock(store, feed, testClock)

	events, cancel := feed.Subscribe(formID)
	defer cancel()

	form, _ := service.GetForm(ctx, formID)
	response, err := service.SubmitResponse(ctx, formID, correctAnswers(form), 7)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	select {
	case event := <-events:
		if event.ResponseID != response.ID || event.Correct != 2 || event.Total != 2 {
			t.Fatalf("unexpected event %+v", event)
		}
	case <-time.After(time.Second):
		t.Fatalf("expected a feed event")
	}
}

func newTestService(t *testing.T, status string) (*app.FormService, *memory.FormStore, int64) {
	t.Helper()
	store := memory.NewFormStore()
	formID := seedForm(t, store, status)
	return app.NewFormServiceWithClock(store, nil, testClock), store, formID
}

func seedForm(t *testing.T, store *memory.FormStore, status string) int64 {
	t.Helper()
	form := domain.Form{
		Title:       "Capitals quiz",
		Description: "Two quick questions",
		Status:      status,
		UserID:      1,
		Questions: []domain.Question{
			{
				Text: "Capital of France?",
				Alternatives: []domain.Alternative{
					{Text: "Paris", IsCorrect: true},
					{Text: "Lyon"},
					{Text: "Marseille"},
				},
			},
			{
				Text: "Capital of Japan?",
				Alternatives: []domain.Alternative{
					{Text: "Osaka"},
					{Text: "Tokyo", IsCorrect: true},
				},
			},
		},
	}
	if err := store.CreateForm(context.Background(), &form); err != nil {
		t.Fatalf("seed form: %v", err)
	}
	return form.ID
}

func correctAnswers(form domain.Form) map[int64]int64 {
	answers := make(map[int64]int64, len(form.Questions))
	for _, question := range form.Questions {
		for _, alternative := range question.Alternatives {
			if alternative.IsCorrect {
				answers[question.ID] = alternative.ID
			}
		}
	}
	return answers
}
