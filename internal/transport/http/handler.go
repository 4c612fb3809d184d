package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"formbuilder-service/internal/app"
	"formbuilder-service/internal/domain"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"
)

// Handler exposes the JSON API over net/http.
type Handler struct {
	forms    *app.FormService
	auth     *app.AuthService
	feed     *app.ResponseFeed
	validate *validator.Validate
	upgrader websocket.Upgrader
}

func NewHandler(forms *app.FormService, auth *app.AuthService, feed *app.ResponseFeed) *Handler {
	return &Handler{
		forms:    forms,
		auth:     auth,
		feed:     feed,
		validate: validator.New(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Routes wires all endpoints. Form routes require a session token, like the
// auth middleware group they replace.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("POST /login", h.handleLogin)
	mux.HandleFunc("POST /logout", h.handleLogout)
	mux.HandleFunc("GET /forms", h.requireUser(h.handleListForms))
	mux.HandleFunc("GET /forms/{id}", h.requireUser(h.handleGetForm))
	mux.HandleFunc("POST /forms/{id}/responses", h.requireUser(h.handleSubmit))
	mux.HandleFunc("GET /responses/{id}", h.requireUser(h.handleGetResponse))
	mux.HandleFunc("GET /ws/forms/{id}/responses", h.serveResponseFeed)
	return mux
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token string      `json:"token"`
	User  domain.User `json:"user"`
}

type submitRequest struct {
	Answers map[int64]int64 `json:"answers" validate:"required"`
}

type scorePayload struct {
	Correct    int     `json:"correct"`
	Incorrect  int     `json:"incorrect"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
	Grade      string  `json:"grade"`
	Perfect    bool    `json:"perfect"`
	Failed     bool    `json:"failed"`
	Display    string  `json:"display"`
}

type responsePayload struct {
	domain.FormResponse
	Score scorePayload `json:"score"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type validationResponse struct {
	Error  string           `json:"error"`
	Errors map[int64]string `json:"errors"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !h.decode(w, r, &req) {
		return
	}
	token, user, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{Token: token, User: user})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.Logout(r.Context(), bearerToken(r)); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleListForms(w http.ResponseWriter, r *http.Request, _ int64) {
	forms, err := h.forms.ListActiveForms(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, forms)
}

func (h *Handler) handleGetForm(w http.ResponseWriter, r *http.Request, _ int64) {
	formID, ok := pathID(w, r)
	if !ok {
		return
	}
	form, err := h.forms.GetForm(r.Context(), formID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, form)
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request, userID int64) {
	formID, ok := pathID(w, r)
	if !ok {
		return
	}
	var req submitRequest
	if !h.decode(w, r, &req) {
		return
	}
	response, err := h.forms.SubmitResponse(r.Context(), formID, req.Answers, userID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	payload, err := buildResponsePayload(response)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, payload)
}

func (h *Handler) handleGetResponse(w http.ResponseWriter, r *http.Request, userID int64) {
	responseID, ok := pathID(w, r)
	if !ok {
		return
	}
	response, err := h.forms.GetResponse(r.Context(), responseID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if !h.mayViewResponse(r, response, userID) {
		h.writeError(w, domain.ErrResponseNotFound)
		return
	}
	payload, err := buildResponsePayload(response)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

// mayViewResponse grants access to the submitter and to the form owner. The
// owner check is best-effort since the form may be soft-deleted by now.
func (h *Handler) mayViewResponse(r *http.Request, response domain.FormResponse, userID int64) bool {
	if response.UserID == userID {
		return true
	}
	form, err := h.forms.GetOwnedForm(r.Context(), response.FormID, userID)
	return err == nil && form.UserID == userID
}

func buildResponsePayload(response domain.FormResponse) (responsePayload, error) {
	score, err := response.Score()
	if err != nil {
		return responsePayload{}, err
	}
	return responsePayload{
		FormResponse: response,
		Score: scorePayload{
			Correct:    score.CorrectAnswers(),
			Incorrect:  score.IncorrectAnswers(),
			Total:      score.TotalAnswers(),
			Percentage: score.Percentage(),
			Grade:      score.LetterGrade(),
			Perfect:    score.IsPerfect(),
			Failed:     score.IsFailure(),
			Display:    score.String(),
		},
	}, nil
}

// requireUser resolves the session token and hands the user id to the wrapped
// handler. The core never reads session state itself.
func (h *Handler) requireUser(next func(http.ResponseWriter, *http.Request, int64)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := h.auth.CurrentUser(r.Context(), bearerToken(r))
		if err != nil {
			h.writeError(w, err)
			return
		}
		next(w, r, userID)
	}
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return false
	}
	return true
}

// writeError translates the domain taxonomy into HTTP statuses. Defensive
// resolution failures and invalid scores indicate bugs and surface as 500s.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var validationErr *app.ValidationError
	switch {
	case errors.As(err, &validationErr):
		writeJSON(w, http.StatusUnprocessableEntity, validationResponse{
			Error:  "answers failed validation",
			Errors: validationErr.Fields,
		})
	case errors.Is(err, domain.ErrFormNotFound),
		errors.Is(err, domain.ErrFormNotAvailable),
		errors.Is(err, domain.ErrResponseNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
	case errors.Is(err, domain.ErrUnauthenticated),
		errors.Is(err, domain.ErrInvalidCredentials):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
	default:
		log.Printf("internal error: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return token
	}
	return ""
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("write response: %v", err)
	}
}
