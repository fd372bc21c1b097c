package httpadapter

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/kirillkom/counsel-assistant/internal/core/domain"
)

type corpusEntryView struct {
	ID                string         `json:"id"`
	Question          string         `json:"question"`
	Answer            string         `json:"answer"`
	Emotion           domain.Emotion `json:"emotion,omitempty"`
	Category          string         `json:"category,omitempty"`
	EmbeddingProvider string         `json:"embedding_provider,omitempty"`
}

type corpusEntriesRequest struct {
	Entries []struct {
		ID       string `json:"id"`
		Question string `json:"question"`
		Answer   string `json:"answer"`
		Emotion  string `json:"emotion"`
		Category string `json:"category"`
	} `json:"entries"`
}

func (rt *Router) importCorpusFile(w http.ResponseWriter, r *http.Request) {
	if rt.cfg.CorpusUploadMaxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, rt.cfg.CorpusUploadMaxBytes)
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, domain.WrapError(domain.ErrInvalidInput, "import corpus", errors.New("multipart field 'file' is required")))
		return
	}
	defer file.Close()

	result, err := rt.services.Corpus.ImportFile(r.Context(), header.Filename, file)
	if err != nil {
		writeError(w, r, err)
		return
	}
	rt.recordImport(result)
	writeJSON(w, http.StatusOK, result)
}

func (rt *Router) importCorpusEntries(w http.ResponseWriter, r *http.Request) {
	var req corpusEntriesRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	entries := make([]domain.QAEntry, 0, len(req.Entries))
	for _, item := range req.Entries {
		entries = append(entries, domain.QAEntry{
			ID:       item.ID,
			Question: item.Question,
			Answer:   item.Answer,
			Emotion:  domain.ParseEmotion(item.Emotion),
			Category: item.Category,
		})
	}

	result, err := rt.services.Corpus.Import(r.Context(), entries)
	if err != nil {
		writeError(w, r, err)
		return
	}
	rt.recordImport(result)
	writeJSON(w, http.StatusOK, result)
}

func (rt *Router) listCorpus(w http.ResponseWriter, r *http.Request) {
	entries := rt.services.Corpus.Snapshot()
	total := len(entries)
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			writeError(w, r, domain.WrapError(domain.ErrInvalidInput, "list corpus", errors.New("limit must be a positive integer")))
			return
		}
		if limit < len(entries) {
			entries = entries[:limit]
		}
	}

	views := make([]corpusEntryView, 0, len(entries))
	for _, entry := range entries {
		views = append(views, corpusEntryView{
			ID:                entry.ID,
			Question:          entry.Question,
			Answer:            entry.Answer,
			Emotion:           entry.Emotion,
			Category:          entry.Category,
			EmbeddingProvider: entry.Embedding.Provider,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"total": total, "entries": views})
}

func (rt *Router) clearCorpus(w http.ResponseWriter, r *http.Request) {
	removed, err := rt.services.Corpus.Clear(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"removed": removed})
}

func (rt *Router) recordImport(result domain.CorpusImportResult) {
	if rt.services.Metrics != nil {
		rt.services.Metrics.RecordCorpusImport(result)
	}
}
