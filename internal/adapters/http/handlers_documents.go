package httpadapter

import (
	"errors"
	"net/http"
	"strings"

	"github.com/kirillkom/counsel-assistant/internal/core/domain"
)

func (rt *Router) uploadDocument(w http.ResponseWriter, r *http.Request) {
	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, domain.WrapError(domain.ErrInvalidInput, "upload document", errors.New("multipart field 'file' is required")))
		return
	}
	defer file.Close()

	doc, err := rt.services.Ingest.Upload(
		r.Context(),
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
		file,
	)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusAccepted, doc)
}

func (rt *Router) getDocumentByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("document_id"))
	if id == "" {
		writeError(w, r, domain.WrapError(domain.ErrInvalidInput, "get document", errors.New("document id is required")))
		return
	}

	doc, err := rt.services.Documents.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (rt *Router) deleteDocument(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("document_id"))
	if id == "" {
		writeError(w, r, domain.WrapError(domain.ErrInvalidInput, "delete document", errors.New("document id is required")))
		return
	}
	if err := rt.services.Ingest.DeleteDocument(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
