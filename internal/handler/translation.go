package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/sakif/lingoread/internal/service"
)

const (
	defaultSourceLang = "en"
	defaultTargetLang = "zh"
)

// TranslationHandler serves cached translations.
type TranslationHandler struct {
	translations *service.TranslationService
	logger       *slog.Logger
}

func NewTranslationHandler(translations *service.TranslationService, logger *slog.Logger) *TranslationHandler {
	return &TranslationHandler{translations: translations, logger: logger}
}

type translationResponse struct {
	Text        string `json:"text"`
	Translation string `json:"translation"`
	SourceLang  string `json:"source_lang"`
	TargetLang  string `json:"target_lang"`
}

// HandleTranslate has two forms.
//
// HTTP: GET /api/translations?text=hello&source=en&target=zh
// RESPONSE: {"text": "hello", "translation": "你好", "source_lang": "en", "target_lang": "zh"}
//
// HTTP: GET /api/translations?words=cat&words=dog (or words=cat,dog)
// RESPONSE: {"translations": {"cat": "猫"}, "unavailable": ["dog"]}
//
// source and target default to en and zh.
func (h *TranslationHandler) HandleTranslate(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	source := strings.TrimSpace(q.Get("source"))
	if source == "" {
		source = defaultSourceLang
	}
	target := strings.TrimSpace(q.Get("target"))
	if target == "" {
		target = defaultTargetLang
	}

	if raw, ok := q["words"]; ok {
		var words []string
		for _, v := range raw {
			words = append(words, strings.Split(v, ",")...)
		}
		result, err := h.translations.Batch(r.Context(), words, source, target)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, result)
		return
	}

	tr, err := h.translations.GetOrCreate(r.Context(), q.Get("text"), source, target)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, translationResponse{
		Text:        tr.Text,
		Translation: tr.TranslatedText,
		SourceLang:  tr.SourceLang,
		TargetLang:  tr.TargetLang,
	})
}
