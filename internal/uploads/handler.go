package uploads

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"career-gap-backend/internal/extract"
	"career-gap-backend/internal/shared/server/respond"
	"career-gap-backend/internal/shared/storage/object"
	"career-gap-backend/internal/shared/telemetry"
)

const (
	// MaxPDFSize caps uploaded files at 2MB.
	MaxPDFSize = 2 << 20
	// multipart framing allowance on top of the file itself
	multipartOverhead = 64 << 10
	spoolNamespace    = "pdf-uploads"
	mimePDF           = "application/pdf"
)

// ExtractFunc turns a spooled object into text.
type ExtractFunc func(ctx context.Context, store object.ObjectStore, storageKey string) (string, error)

// Handler accepts PDF uploads and returns their text.
type Handler struct {
	Store   object.ObjectStore
	Extract ExtractFunc
}

// NewHandler constructs a Handler backed by store.
func NewHandler(store object.ObjectStore) *Handler {
	return &Handler{Store: store, Extract: extract.FromStore}
}

// RegisterRoutes attaches upload routes to the router group.
func (h *Handler) RegisterRoutes(rg gin.IRoutes) {
	rg.POST("/extract-pdf", h.extractPDF)
}

func (h *Handler) extractPDF(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxPDFSize+multipartOverhead)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respond.Fail(c, http.StatusBadRequest, "File too large. Maximum size is 2MB", nil, map[string]any{"error": err.Error()})
			return
		}
		respond.Fail(c, http.StatusBadRequest, "No file uploaded", nil, map[string]any{"error": err.Error()})
		return
	}
	if fileHeader.Size > MaxPDFSize {
		respond.Fail(c, http.StatusBadRequest, "File too large. Maximum size is 2MB", nil, map[string]any{"size": fileHeader.Size})
		return
	}
	if !isPDF(fileHeader.Header.Get("Content-Type"), fileHeader.Filename) {
		respond.Fail(c, http.StatusBadRequest, "Only PDF files are allowed", nil, map[string]any{
			"content_type": fileHeader.Header.Get("Content-Type"),
		})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respond.Fail(c, http.StatusBadRequest, "Unable to read uploaded file", nil, map[string]any{"error": err.Error()})
		return
	}
	defer file.Close()

	ctx := c.Request.Context()
	storageKey, size, _, err := h.Store.Save(ctx, spoolNamespace, spoolName(fileHeader.Filename), file)
	if err != nil {
		respond.Fail(c, http.StatusInternalServerError, "Failed to store upload", nil, map[string]any{"error": err.Error()})
		return
	}
	defer func() {
		if err := h.Store.Delete(context.WithoutCancel(ctx), storageKey); err != nil {
			telemetry.Warn("uploads.cleanup_failed", map[string]any{"storage_key": storageKey, "error": err.Error()})
		}
	}()

	text, err := h.Extract(ctx, h.Store, storageKey)
	if err != nil {
		fields := map[string]any{"error": err.Error(), "size": size}
		switch {
		case errors.Is(err, extract.ErrEncrypted):
			respond.Fail(c, http.StatusBadRequest, "PDF is encrypted or password-protected. Please provide an unencrypted PDF.", nil, fields)
		case errors.Is(err, extract.ErrEmpty):
			respond.Fail(c, http.StatusBadRequest, "PDF appears to be empty or contains no readable text.", nil, fields)
		default:
			respond.Fail(c, http.StatusBadRequest, "Invalid PDF file or corrupted data", nil, fields)
		}
		return
	}

	telemetry.Info("uploads.pdf_extracted", map[string]any{
		"request_id": c.GetString("requestId"),
		"size":       size,
		"chars":      len(text),
	})
	respond.Success(c, http.StatusOK, gin.H{"text": text})
}

func isPDF(contentType, fileName string) bool {
	if strings.EqualFold(strings.TrimSpace(strings.Split(contentType, ";")[0]), mimePDF) {
		return true
	}
	return strings.EqualFold(filepath.Ext(fileName), ".pdf")
}

func spoolName(fileName string) string {
	base := filepath.Base(strings.ReplaceAll(fileName, "\\", "/"))
	if base == "" || base == "." || base == "/" || strings.Contains(base, "..") {
		return "upload.pdf"
	}
	return base
}
