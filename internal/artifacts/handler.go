// Package artifacts serves uploads and previews of the files a resume record
// points at (the source document and its preview image).
package artifacts

import (
	"bufio"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/AhmeWagih/resume-analyzer/internal/shared/server/middleware"
	"github.com/AhmeWagih/resume-analyzer/internal/shared/server/respond"
	"github.com/AhmeWagih/resume-analyzer/internal/shared/storage/object"
	"github.com/AhmeWagih/resume-analyzer/internal/shared/telemetry"
	"github.com/AhmeWagih/resume-analyzer/internal/shared/util"
)

const maxUploadSize = 10 << 20 // 10MB

var allowedContentTypes = map[string]struct{}{
	"application/pdf": {},
	"application/zip": {}, // DOCX sniffs as zip
	"image/png":       {},
	"image/jpeg":      {},
	"image/webp":      {},
	"text/plain":      {},
}

// Handler wires artifact routes to an object store.
type Handler struct {
	Store object.ObjectStore
}

// NewHandler constructs a Handler.
func NewHandler(store object.ObjectStore) *Handler {
	return &Handler{Store: store}
}

// RegisterRoutes attaches artifact routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/artifacts", h.upload)
	rg.GET("/artifacts/*path", h.download)
}

func (h *Handler) upload(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "file is required", nil)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}
	defer file.Close()

	ctx := c.Request.Context()
	key, size, mimeType, err := h.Store.Save(ctx, userID, fileHeader.Filename, file)
	if err != nil {
		if errors.Is(err, object.ErrUnavailable) {
			respond.Error(c, http.StatusServiceUnavailable, "store_unavailable", "failed to store file", nil)
			return
		}
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid file", nil)
		return
	}

	if !allowed(mimeType) {
		if delErr := h.Store.Delete(ctx, key); delErr != nil && !errors.Is(delErr, object.ErrNotFound) {
			telemetry.Warn("artifacts.cleanup_failed", map[string]any{"user_id": userID, "path": key, "error": delErr})
		}
		respond.Error(c, http.StatusUnsupportedMediaType, "unsupported_type", "file type is not allowed", gin.H{"mimeType": mimeType})
		return
	}

	telemetry.Info("artifacts.uploaded", map[string]any{"user_id": userID, "path": key, "size_bytes": size, "mime_type": mimeType})
	respond.JSON(c, http.StatusCreated, gin.H{
		"path":      key,
		"sizeBytes": size,
		"mimeType":  mimeType,
	})
}

func (h *Handler) download(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	key := strings.TrimPrefix(c.Param("path"), "/")
	if !util.OwnsKey(userID, key) {
		respond.Error(c, http.StatusNotFound, "not_found", "artifact not found", nil)
		return
	}

	body, err := h.Store.Open(c.Request.Context(), key)
	if err != nil {
		switch {
		case errors.Is(err, object.ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "artifact not found", nil)
		case errors.Is(err, object.ErrUnavailable):
			respond.Error(c, http.StatusServiceUnavailable, "store_unavailable", "failed to read artifact", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to read artifact", nil)
		}
		return
	}
	defer body.Close()

	br := bufio.NewReaderSize(body, 512)
	head, _ := br.Peek(512)
	c.Header("Cache-Control", "private, max-age=300")
	c.DataFromReader(http.StatusOK, -1, http.DetectContentType(head), br, nil)
}

func allowed(mimeType string) bool {
	base := strings.ToLower(strings.TrimSpace(strings.Split(mimeType, ";")[0]))
	_, ok := allowedContentTypes[base]
	return ok
}

