package handlers

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/rohits-web03/docvault/internal/api/services"
	"github.com/rohits-web03/docvault/internal/utils"
	"go.uber.org/zap"
)

// multipartMemory is how much of an upload is buffered in memory before
// spilling to temporary files.
const multipartMemory = 32 << 20

type DocumentHandler struct {
	docs          *services.DocumentService
	maxUploadSize int64
	logger        *zap.Logger
}

func NewDocumentHandler(docs *services.DocumentService, maxUploadSize int64, logger *zap.Logger) *DocumentHandler {
	return &DocumentHandler{
		docs:          docs,
		maxUploadSize: maxUploadSize,
		logger:        logger.With(zap.String("handler", "documents")),
	}
}

// List godoc
// @Summary List the caller's documents
// @Tags Documents
// @Produce json
// @Success 200 {object} utils.Payload
// @Failure 401 {object} utils.Payload
// @Router /api/v1/documents [get]
func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	docs, err := h.docs.List(r.Context(), currentUser(r))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	out := make([]documentResponse, 0, len(docs))
	for i := range docs {
		out = append(out, toDocumentResponse(&docs[i]))
	}
	utils.JSONSuccess(w, http.StatusOK, "Documents retrieved successfully", out)
}

// Upload godoc
// @Summary Upload a document
// @Description Stores the file under its own name, or a timestamped variant when that name is taken.
// @Tags Documents
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Document to upload"
// @Success 201 {object} utils.Payload
// @Failure 400 {object} utils.Payload
// @Failure 413 {object} utils.Payload
// @Router /api/v1/documents [post]
func (h *DocumentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			utils.JSONError(w, http.StatusRequestEntityTooLarge, "File exceeds the upload size limit")
			return
		}
		writeError(w, r, h.logger, services.ErrNoFileProvided)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, h.logger, services.ErrNoFileProvided)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	doc, err := h.docs.Upload(r.Context(), currentUser(r), header.Filename, data)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	utils.JSONSuccess(w, http.StatusCreated, "Document uploaded successfully", toDocumentResponse(doc))
}

// Get godoc
// @Summary Show one document
// @Tags Documents
// @Produce json
// @Param id path int true "Document ID"
// @Success 200 {object} utils.Payload
// @Failure 400 {object} utils.Payload
// @Failure 404 {object} utils.Payload
// @Router /api/v1/documents/{id} [get]
func (h *DocumentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseDocumentID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	doc, err := h.docs.Get(r.Context(), currentUser(r), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	utils.JSONSuccess(w, http.StatusOK, "Document retrieved successfully", toDocumentResponse(doc))
}

// Analyze godoc
// @Summary Summarize a document
// @Description Extracts the document text and stores a generated summary.
// @Tags Documents
// @Produce json
// @Param id path int true "Document ID"
// @Success 200 {object} utils.Payload
// @Failure 404 {object} utils.Payload
// @Failure 422 {object} utils.Payload "Text could not be extracted"
// @Failure 502 {object} utils.Payload "Summarizer unavailable"
// @Router /api/v1/documents/{id}/analyze [post]
func (h *DocumentHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	id, err := parseDocumentID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	doc, err := h.docs.Analyze(r.Context(), currentUser(r), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	utils.JSONSuccess(w, http.StatusOK, "Document analyzed successfully", toDocumentResponse(doc))
}

type signInput struct {
	Signature string `json:"signature"`
}

// Sign godoc
// @Summary Sign a document
// @Description Accepts a JSON body or a form field. Signing again replaces the signature.
// @Tags Documents
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Param id path int true "Document ID"
// @Param body body signInput true "Signature payload"
// @Success 200 {object} utils.Payload
// @Failure 400 {object} utils.Payload
// @Failure 404 {object} utils.Payload
// @Router /api/v1/documents/{id}/sign [post]
func (h *DocumentHandler) Sign(w http.ResponseWriter, r *http.Request) {
	id, err := parseDocumentID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	var input signInput
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		if err := decodeJSON(r, &input); err != nil {
			writeError(w, r, h.logger, err)
			return
		}
	} else {
		input.Signature = r.FormValue("signature")
	}

	doc, err := h.docs.Sign(r.Context(), currentUser(r), id, input.Signature)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	utils.JSONSuccess(w, http.StatusOK, "Document signed successfully", toDocumentResponse(doc))
}

// Download godoc
// @Summary Download the stored file
// @Tags Documents
// @Produce octet-stream
// @Param id path int true "Document ID"
// @Success 200 {file} file
// @Failure 404 {object} utils.Payload
// @Router /api/v1/documents/{id}/download [get]
func (h *DocumentHandler) Download(w http.ResponseWriter, r *http.Request) {
	h.serveFile(w, r, "attachment")
}

// ViewFile godoc
// @Summary Show the stored file inline
// @Tags Documents
// @Produce application/pdf
// @Param id path int true "Document ID"
// @Success 200 {file} file
// @Failure 404 {object} utils.Payload
// @Router /api/v1/documents/{id}/file [get]
func (h *DocumentHandler) ViewFile(w http.ResponseWriter, r *http.Request) {
	h.serveFile(w, r, "inline")
}

func (h *DocumentHandler) serveFile(w http.ResponseWriter, r *http.Request, disposition string) {
	id, err := parseDocumentID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	doc, rc, err := h.docs.Open(r.Context(), currentUser(r), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	defer rc.Close()

	contentType := "application/octet-stream"
	if disposition == "inline" {
		if t := mime.TypeByExtension(filepath.Ext(doc.Filename)); t != "" {
			contentType = t
		}
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType(disposition, map[string]string{"filename": doc.Filename}))
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		h.logger.Warn("File transfer interrupted", zap.Uint("document_id", id), zap.Error(err))
	}
}

// Delete godoc
// @Summary Delete a document and its stored file
// @Tags Documents
// @Produce json
// @Param id path int true "Document ID"
// @Success 200 {object} utils.Payload
// @Failure 404 {object} utils.Payload
// @Router /api/v1/documents/{id} [delete]
func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseDocumentID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	if err := h.docs.Delete(r.Context(), currentUser(r), id); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	utils.JSONSuccess(w, http.StatusOK, "Document deleted successfully", nil)
}
