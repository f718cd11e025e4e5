package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/lingoread/internal/service"
)

// WordHandler exposes the caller's word bank.
type WordHandler struct {
	words  *service.WordBankService
	logger *slog.Logger
}

func NewWordHandler(words *service.WordBankService, logger *slog.Logger) *WordHandler {
	return &WordHandler{words: words, logger: logger}
}

type addWordRequest struct {
	Word string `json:"word"`
}

// HandleList returns {"words": [{id, lemma, seen, translation}]} sorted by lemma.
//
// HTTP: GET /api/words
func (h *WordHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	entries, err := h.words.List(r.Context(), uid)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"words": entries})
}

// HandleAdd puts a word in the bank.
//
// HTTP: POST /api/words
// REQUEST BODY: {"word": "Cat"}
// RESPONSE: 201 {"word": {"id": 1, "lemma": "cat", "seen": 0, "translation": "猫"}}
//
// translation is null when the provider could not be reached; the backfill
// job fills it in later.
func (h *WordHandler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req addWordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	entry, err := h.words.AddWord(r.Context(), uid, req.Word)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"word": entry})
}

// HandleRemove takes one word out of the bank.
//
// HTTP: DELETE /api/words/{id}
func (h *WordHandler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.words.RemoveWord(r.Context(), uid, id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "word removed"})
}

// HandleClear empties the bank.
//
// HTTP: DELETE /api/words
func (h *WordHandler) HandleClear(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.words.Clear(r.Context(), uid); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "all words cleared"})
}
