package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/josinaldojr/contract-intel-rag/internal/extract"
	"github.com/josinaldojr/contract-intel-rag/internal/rag"
)

const (
	askTimeout    = 120 * time.Second
	indexTimeout  = 120 * time.Second
	maxUploadSize = 50 << 20 // 50 MB, per file
)

type Handler struct {
	ragService *rag.Service
}

func NewHandler(ragService *rag.Service) *Handler {
	return &Handler{ragService: ragService}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Ask answers a question. JSON body for database-only questions; multipart
// form (question + optional contract/payout files) to upload and ask in the
// same request.
func (h *Handler) Ask(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), askTimeout)
	defer cancel()

	var req rag.AnswerRequest
	var uploadFlags []rag.QualityFlag

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxUploadSize); err != nil {
			http.Error(w, "invalid multipart body", http.StatusBadRequest)
			return
		}
		req.Question = r.FormValue("question")
		req.Partner = r.FormValue("partner")
		req.Lang = r.FormValue("lang")

		for _, field := range []struct {
			name    string
			docType rag.DocType
		}{
			{"contract", rag.DocTypeContract},
			{"payout", rag.DocTypePayoutReport},
			{"file", ""},
		} {
			doc, degraded, err := h.readUpload(r, field.name, field.docType)
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			if doc != nil {
				req.Uploads = append(req.Uploads, *doc)
				if degraded {
					uploadFlags = append(uploadFlags, rag.FlagExtractionDegraded)
				}
			}
		}
	} else {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json body", http.StatusBadRequest)
			return
		}
	}

	resp, err := h.ragService.Answer(ctx, req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	for _, f := range uploadFlags {
		resp.Flags = append(resp.Flags, f)
	}

	writeJSON(w, http.StatusOK, resp)
}

// IndexDocument ingests a single uploaded file without asking a question.
func (h *Handler) IndexDocument(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), indexTimeout)
	defer cancel()

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		http.Error(w, "invalid multipart body", http.StatusBadRequest)
		return
	}

	doc, degraded, err := h.readUpload(r, "file", "")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if doc == nil {
		http.Error(w, "file field is required", http.StatusBadRequest)
		return
	}
	doc.Partner = r.FormValue("partner")

	res, err := h.ragService.IndexDocument(ctx, *doc)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if degraded {
		res.Flags = append(res.Flags, rag.FlagExtractionDegraded)
	}

	writeJSON(w, http.StatusCreated, res)
}

func (h *Handler) Partners(w http.ResponseWriter, r *http.Request) {
	partners, err := h.ragService.Partners(r.Context())
	if err != nil {
		http.Error(w, "failed to list partners", http.StatusInternalServerError)
		return
	}
	if partners == nil {
		partners = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"partners": partners})
}

// readUpload extracts one optional multipart file into a Document. Returns
// nil when the field is absent.
func (h *Handler) readUpload(r *http.Request, field string, docType rag.DocType) (*rag.Document, bool, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, false, nil
		}
		return nil, false, errors.New("invalid file field " + field)
	}
	defer file.Close()

	data, err := readAll(file)
	if err != nil {
		return nil, false, errors.New("failed to read upload " + header.Filename)
	}

	text, degraded, err := extract.Text(data, header.Filename)
	if err != nil {
		return nil, false, errors.New("could not extract text from " + header.Filename)
	}

	return &rag.Document{
		Filename: header.Filename,
		Type:     docType,
		Text:     text,
	}, degraded, nil
}

func readAll(file multipart.File) ([]byte, error) {
	return io.ReadAll(io.LimitReader(file, maxUploadSize))
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, rag.ErrEmptyQuestion), errors.Is(err, rag.ErrEmptyDocument):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, rag.ErrRetrievalUnavailable):
		http.Error(w, "temporarily unable to search documents, try again shortly", http.StatusServiceUnavailable)
	case errors.Is(err, rag.ErrGenerationTimeout):
		http.Error(w, "answer generation timed out", http.StatusGatewayTimeout)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
