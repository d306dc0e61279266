package resumes

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/AhmeWagih/resume-analyzer/internal/extract"
	"github.com/AhmeWagih/resume-analyzer/internal/shared/server/middleware"
	"github.com/AhmeWagih/resume-analyzer/internal/shared/server/respond"
	"github.com/AhmeWagih/resume-analyzer/internal/shared/storage/kv"
	"github.com/AhmeWagih/resume-analyzer/internal/shared/storage/object"
	"github.com/AhmeWagih/resume-analyzer/internal/shared/util"
)

// Handler exposes a user's Manager over HTTP.
type Handler struct {
	Registry  *Registry
	Artifacts object.ObjectStore
	newID     func() string
}

// NewHandler constructs a Handler.
func NewHandler(registry *Registry, artifacts object.ObjectStore) *Handler {
	return &Handler{Registry: registry, Artifacts: artifacts, newID: uuid.NewString}
}

// RegisterRoutes attaches resume routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/resumes", h.list)
	rg.GET("/resumes/state", h.state)
	rg.POST("/resumes", h.create)
	rg.POST("/resumes/delete-all", h.deleteAll)
	rg.DELETE("/resumes/delete-all", h.disarm)
	rg.DELETE("/resumes/error", h.dismissError)
	rg.GET("/resumes/:id", h.get)
	rg.GET("/resumes/:id/text", h.text)
	rg.PUT("/resumes/:id", h.update)
	rg.DELETE("/resumes/:id", h.delete)
}

func (h *Handler) manager(c *gin.Context) *Manager {
	return h.Registry.For(middleware.UserIDFromContext(c))
}

func (h *Handler) list(c *gin.Context) {
	m := h.manager(c)
	if err := m.LoadAll(c.Request.Context()); err != nil {
		writeError(c, err, "failed to load resumes", m.Snapshot())
		return
	}
	respond.OK(c, m.Snapshot())
}

func (h *Handler) state(c *gin.Context) {
	respond.OK(c, h.manager(c).Snapshot())
}

func (h *Handler) get(c *gin.Context) {
	c.Set(middleware.ResumeIDKey, c.Param("id"))
	r, err := h.manager(c).Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err, "failed to fetch resume", nil)
		return
	}
	respond.OK(c, r)
}

func (h *Handler) text(c *gin.Context) {
	c.Set(middleware.ResumeIDKey, c.Param("id"))
	m := h.manager(c)
	r, err := m.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err, "failed to fetch resume", nil)
		return
	}
	if r.ResumePath == "" {
		respond.Error(c, http.StatusNotFound, "not_found", "resume has no source document", nil)
		return
	}

	text, err := extract.Text(c.Request.Context(), h.Artifacts, r.ResumePath)
	if err != nil {
		switch {
		case errors.Is(err, extract.ErrUnsupported):
			respond.Error(c, http.StatusUnsupportedMediaType, "unsupported_document", "document type cannot be read as text", nil)
		default:
			writeError(c, err, "failed to extract text", nil)
		}
		return
	}
	respond.OK(c, gin.H{"resumeId": r.ID, "text": text})
}

func (h *Handler) create(c *gin.Context) {
	var r Resume
	if err := c.ShouldBindJSON(&r); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	r.ID = h.newID()
	h.save(c, r, http.StatusCreated)
}

func (h *Handler) update(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	c.Set(middleware.ResumeIDKey, id)

	var r Resume
	if err := c.ShouldBindJSON(&r); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	if r.ID != "" && r.ID != id {
		respond.Error(c, http.StatusBadRequest, "validation_error", "id does not match path", nil)
		return
	}
	r.ID = id
	h.save(c, r, http.StatusOK)
}

func (h *Handler) save(c *gin.Context, r Resume, status int) {
	userID := middleware.UserIDFromContext(c)
	for _, p := range []string{r.ImagePath, r.ResumePath} {
		if p != "" && !util.OwnsKey(userID, p) {
			respond.Error(c, http.StatusBadRequest, "validation_error", "artifact path is not owned by the current user", gin.H{"path": p})
			return
		}
	}

	saved, err := h.manager(c).Save(c.Request.Context(), r)
	if err != nil {
		writeError(c, err, "failed to save resume", nil)
		return
	}
	respond.JSON(c, status, saved)
}

func (h *Handler) delete(c *gin.Context) {
	id := c.Param("id")
	c.Set(middleware.ResumeIDKey, id)

	m := h.manager(c)
	out, err := m.DeleteByID(c.Request.Context(), id)
	if err != nil {
		writeError(c, err, "failed to delete resume", gin.H{"outcome": out, "state": m.Snapshot()})
		return
	}
	respond.OK(c, gin.H{"outcome": out, "state": m.Snapshot()})
}

func (h *Handler) deleteAll(c *gin.Context) {
	m := h.manager(c)
	res, err := m.RequestDeleteAll(c.Request.Context())
	if err != nil {
		writeError(c, err, "failed to delete resumes", gin.H{"result": res, "state": m.Snapshot()})
		return
	}
	status := http.StatusOK
	if res.Armed {
		status = http.StatusAccepted
	}
	respond.JSON(c, status, gin.H{"result": res, "state": m.Snapshot()})
}

func (h *Handler) disarm(c *gin.Context) {
	m := h.manager(c)
	m.Disarm()
	respond.OK(c, m.Snapshot())
}

func (h *Handler) dismissError(c *gin.Context) {
	m := h.manager(c)
	m.DismissError()
	respond.OK(c, m.Snapshot())
}

// writeError maps lifecycle errors onto the response envelope.
func writeError(c *gin.Context, err error, fallback string, details interface{}) {
	switch {
	case errors.Is(err, ErrBusy):
		respond.Error(c, http.StatusConflict, "busy", "another resume operation is in progress", details)
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), details)
	case errors.Is(err, ErrNotFound), errors.Is(err, object.ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "resume not found", details)
	case errors.Is(err, ErrDecode):
		respond.Error(c, http.StatusUnprocessableEntity, "decode_failed", "stored resume is not readable", details)
	case errors.Is(err, ErrPartialBatch):
		respond.Error(c, http.StatusBadGateway, "partial_failure", noticeBatchFailed, details)
	case errors.Is(err, kv.ErrUnavailable), errors.Is(err, object.ErrUnavailable):
		respond.Error(c, http.StatusServiceUnavailable, "store_unavailable", fallback, details)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", fallback, details)
	}
}
