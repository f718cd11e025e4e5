package handler

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/sakif/lingoread/internal/apperror"
	"github.com/sakif/lingoread/internal/model"
	"github.com/sakif/lingoread/internal/service"
)

// QuizHandler serves word-bank quizzes.
type QuizHandler struct {
	quizzes *service.QuizService
	logger  *slog.Logger
}

func NewQuizHandler(quizzes *service.QuizService, logger *slog.Logger) *QuizHandler {
	return &QuizHandler{quizzes: quizzes, logger: logger}
}

// HandleGenerate returns {"questions": [{id, zh, hint}]}.
//
// HTTP: GET /api/quizzes/wordbank?limit=10
//
// A missing or unparsable limit falls back to the default; out-of-range
// values are clamped by the service.
func (h *QuizHandler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	limit, _ := strconv.Atoi(strings.TrimSpace(r.URL.Query().Get("limit")))

	questions, err := h.quizzes.Generate(r.Context(), uid, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"questions": questions})
}

// HandleSubmit grades a quiz.
//
// HTTP: POST /api/quizzes/wordbank/submit
// REQUEST BODY: {"answers": [{"id": 1, "answer": "cat"}, {"id": "2", "answerText": "dog"}]}
// RESPONSE: {"total": 2, "correct": 1, "accuracy": 0.5, "details": [...]}
//
// Clients send ids as numbers or numeric strings and the text under either
// "answer" or "answerText". An entry whose id is not an integer is passed on
// with no id so the grader skips it.
func (h *QuizHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var body struct {
		Answers json.RawMessage `json:"answers"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, err)
		return
	}

	answers, err := parseAnswers(body.Answers)
	if err != nil {
		writeError(w, err)
		return
	}

	report, err := h.quizzes.Grade(r.Context(), uid, answers)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func parseAnswers(raw json.RawMessage) ([]model.QuizAnswer, error) {
	invalid := apperror.ValidationFailed("answers", "answers must be a non-empty list")

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, invalid
	}
	var entries []json.RawMessage
	if err := json.Unmarshal(trimmed, &entries); err != nil || len(entries) == 0 {
		return nil, invalid
	}

	answers := make([]model.QuizAnswer, 0, len(entries))
	for _, e := range entries {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(e, &fields); err != nil {
			answers = append(answers, model.QuizAnswer{})
			continue
		}

		a := model.QuizAnswer{ID: parseAnswerID(fields["id"])}
		if v, ok := fields["answer"]; ok {
			a.Answer = rawString(v)
		} else {
			a.Answer = rawString(fields["answerText"])
		}
		answers = append(answers, a)
	}
	return answers, nil
}

// parseAnswerID accepts 7 and "7". Anything else, 7.5 included, is nil.
func parseAnswerID(raw json.RawMessage) *int64 {
	if len(raw) == 0 {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		s = string(raw)
	}
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return nil
	}
	return &id
}

// rawString returns the JSON string in raw, or "" for null and non-strings.
func rawString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}
