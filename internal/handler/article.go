package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/sakif/lingoread/internal/apperror"
	"github.com/sakif/lingoread/internal/service"
)

// ArticleHandler covers articles, the user's library and reading logs.
type ArticleHandler struct {
	articles *service.ArticleService
	logger   *slog.Logger
}

func NewArticleHandler(articles *service.ArticleService, logger *slog.Logger) *ArticleHandler {
	return &ArticleHandler{articles: articles, logger: logger}
}

type createArticleRequest struct {
	Title   string   `json:"title"`
	Content string   `json:"content"`
	URL     string   `json:"url"`
	Authors string   `json:"authors"`
	Tags    []string `json:"tags"`
}

type readingTimeRequest struct {
	ElapsedSeconds *int `json:"elapsed_time_seconds"`
}

type libraryRequest struct {
	TextID int64 `json:"text_id"`
}

// HandleCreate stores a new article.
//
// HTTP: POST /api/articles
// REQUEST BODY: {"title": "...", "content": "...", "url": "...", "authors": "...", "tags": ["news"]}
func (h *ArticleHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createArticleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	text, err := h.articles.Create(r.Context(), service.NewArticle{
		Title:   req.Title,
		Content: req.Content,
		URL:     req.URL,
		Authors: req.Authors,
		Tags:    req.Tags,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, text)
}

// HandleGet returns one article with its tags.
//
// HTTP: GET /api/articles/{id}
func (h *ArticleHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	text, err := h.articles.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, text)
}

// HandleSearch lists articles, newest first.
//
// HTTP: GET /api/articles/search?title=fox&tag=animals&limit=20&offset=0
func (h *ArticleHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	texts, err := h.articles.Search(r.Context(), q.Get("title"), q.Get("tag"), limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, texts)
}

// HandleDelete removes an article.
//
// HTTP: DELETE /api/articles/{id}
func (h *ArticleHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.articles.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "article deleted"})
}

// HandleLogReadingTime records time spent on an article.
//
// HTTP: POST /api/articles/{id}/reading-time
// REQUEST BODY: {"elapsed_time_seconds": 120}
func (h *ArticleHandler) HandleLogReadingTime(w http.ResponseWriter, r *http.Request) {
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

	var req readingTimeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.ElapsedSeconds == nil {
		writeError(w, apperror.ValidationFailed("elapsed_time_seconds", "elapsed_time_seconds is required"))
		return
	}

	log, err := h.articles.LogReadingTime(r.Context(), uid, id, *req.ElapsedSeconds)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, log)
}

// HandleLibrary returns {"library": [...]}.
//
// HTTP: GET /api/users/library
func (h *ArticleHandler) HandleLibrary(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	texts, err := h.articles.Library(r.Context(), uid)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"library": texts})
}

// HandleAddToLibrary saves an article for the caller.
//
// HTTP: POST /api/users/library
// REQUEST BODY: {"text_id": 3}
func (h *ArticleHandler) HandleAddToLibrary(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req libraryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.TextID <= 0 {
		writeError(w, apperror.ValidationFailed("text_id", "text_id must be a positive integer"))
		return
	}

	if err := h.articles.AddToLibrary(r.Context(), uid, req.TextID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "added to library"})
}

// HandleRemoveFromLibrary un-saves an article.
//
// HTTP: DELETE /api/users/library/{id}
func (h *ArticleHandler) HandleRemoveFromLibrary(w http.ResponseWriter, r *http.Request) {
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

	if err := h.articles.RemoveFromLibrary(r.Context(), uid, id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "removed from library"})
}

// HandleLastReading returns {"last": {...}} or {"last": null} when the
// caller has never logged any reading.
//
// HTTP: GET /api/users/last-reading
func (h *ArticleHandler) HandleLastReading(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	last, err := h.articles.LastReading(r.Context(), uid)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"last": last})
}
