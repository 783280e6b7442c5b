// Package handler exposes the ingestion pipeline over HTTP. It is a thin
// layer: multipart decoding and status mapping only, all logic lives in the
// service.
package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/ledgerlift/ledgerlift/internal/domain/ingest/mapper"
	"github.com/ledgerlift/ledgerlift/internal/domain/ingest/service"
	"github.com/ledgerlift/ledgerlift/internal/domain/ingest/sniffer"
	"github.com/ledgerlift/ledgerlift/internal/domain/ingest/tokenizer"
	"github.com/ledgerlift/ledgerlift/pkg/storage"
)

const maxUploadBytes = 10 << 20 // 10 MiB statement uploads

// IngestHandler handles statement upload endpoints.
type IngestHandler struct {
	svc     *service.IngestService
	archive storage.Storage
	logger  *slog.Logger
}

// NewIngestHandler creates a new ingest handler. The archive may be nil, in
// which case uploads are not retained.
func NewIngestHandler(svc *service.IngestService, archive storage.Storage, logger *slog.Logger) *IngestHandler {
	return &IngestHandler{svc: svc, archive: archive, logger: logger}
}

// Register mounts the ingest routes on the router.
func (h *IngestHandler) Register(r *mux.Router) {
	r.HandleFunc("/v1/imports/preview", h.Preview).Methods(http.MethodPost)
	r.HandleFunc("/v1/imports", h.Import).Methods(http.MethodPost)
}

// Preview analyzes an uploaded statement without persisting anything.
func (h *IngestHandler) Preview(w http.ResponseWriter, r *http.Request) {
	upload, ok := h.readUpload(w, r)
	if !ok {
		return
	}

	result, err := h.svc.Preview(r.Context(), upload.text, upload.filename, nil)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

// Import runs the full pipeline and persists the deduplicated batch. The
// column mapping, when the user corrected the guess, arrives as a JSON form
// field; authentication is handled upstream and surfaces as a user id header.
func (h *IngestHandler) Import(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get("X-User-ID")
	if userID == "" {
		http.Error(w, "missing user", http.StatusUnauthorized)
		return
	}
	// User ids become segments of pipe-joined dedup keys and lock keys; the
	// separator must never appear inside a segment.
	if strings.Contains(userID, "|") {
		http.Error(w, "invalid user id", http.StatusBadRequest)
		return
	}

	upload, ok := h.readUpload(w, r)
	if !ok {
		return
	}

	var mapping mapper.Mapping
	if raw := r.FormValue("mapping"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &mapping); err != nil {
			http.Error(w, "invalid mapping payload", http.StatusBadRequest)
			return
		}
	}

	result, err := h.svc.Import(r.Context(), userID, upload.text, upload.filename, mapping, nil)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.archiveUpload(r, userID, upload)
	h.writeJSON(w, http.StatusOK, result)
}

type upload struct {
	raw         []byte
	text        string
	filename    string
	contentType string
}

// readUpload decodes the multipart "file" part. Workbook uploads are
// converted to the same logical-line text the CSV path consumes; the original
// bytes are kept so the archive stores what the user actually sent.
func (h *IngestHandler) readUpload(w http.ResponseWriter, r *http.Request) (*upload, bool) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		http.Error(w, "invalid multipart payload", http.StatusBadRequest)
		return nil, false
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "missing file", http.StatusBadRequest)
		return nil, false
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, "unreadable file", http.StatusBadRequest)
		return nil, false
	}

	text, err := service.ReadStatement(bytes.NewReader(raw), header.Filename)
	if err != nil {
		http.Error(w, "unreadable file", http.StatusBadRequest)
		return nil, false
	}

	return &upload{
		raw:         raw,
		text:        text,
		filename:    header.Filename,
		contentType: header.Header.Get("Content-Type"),
	}, true
}

// archiveUpload retains the raw statement after a successful import. Archive
// failures do not fail the request.
func (h *IngestHandler) archiveUpload(r *http.Request, userID string, up *upload) {
	if h.archive == nil {
		return
	}
	info, err := h.archive.Upload(r.Context(), userID, up.filename, up.contentType, bytes.NewReader(up.raw))
	if err != nil {
		h.logger.Warn("failed to archive statement upload",
			slog.String("filename", up.filename),
			slog.Any("error", err),
		)
		return
	}
	h.logger.Debug("statement archived", slog.String("file_id", info.ID.String()))
}

func (h *IngestHandler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, tokenizer.ErrEmptyFile),
		errors.Is(err, tokenizer.ErrUnterminatedQuote),
		errors.Is(err, sniffer.ErrNoHeader),
		errors.Is(err, mapper.ErrMissingField),
		errors.Is(err, mapper.ErrDuplicateColumn),
		errors.Is(err, mapper.ErrUnknownColumn):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		h.logger.Error("import request failed", slog.Any("error", err))
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func (h *IngestHandler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Warn("failed to encode response", slog.Any("error", err))
	}
}
