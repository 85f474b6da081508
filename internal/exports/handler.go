package exports

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"cv-builder/cv/render"
	"cv-builder/internal/sessions"
	"cv-builder/internal/shared/server/middleware"
	"cv-builder/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches export routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/sessions/:id/exports", h.create)
	rg.GET("/exports/:id", h.get)
	rg.GET("/exports/:id/download", h.download)
}

type createRequest struct {
	Format     string `json:"format" binding:"required"`
	TemplateID string `json:"templateId"`
}

type exportResponse struct {
	ExportID    string    `json:"exportId"`
	CVID        string    `json:"cvId,omitempty"`
	Format      string    `json:"format"`
	TemplateID  string    `json:"templateId"`
	FileName    string    `json:"fileName"`
	ContentType string    `json:"contentType"`
	SizeBytes   int64     `json:"sizeBytes"`
	Version     uint64    `json:"version"`
	CreatedAt   time.Time `json:"createdAt"`
	DownloadURL string    `json:"downloadUrl"`
}

func toResponse(exp Export) exportResponse {
	return exportResponse{
		ExportID:    exp.ID,
		CVID:        exp.CVID,
		Format:      string(exp.Format),
		TemplateID:  exp.TemplateID,
		FileName:    exp.FileName,
		ContentType: exp.ContentType,
		SizeBytes:   exp.SizeBytes,
		Version:     exp.DocVersion,
		CreatedAt:   exp.CreatedAt,
		DownloadURL: "/api/v1/exports/" + exp.ID + "/download",
	}
}

func (h *Handler) create(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	sessionID := c.Param("id")
	middleware.SetSessionID(c, sessionID)

	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "format is required", nil)
		return
	}
	format, err := ParseFormat(req.Format)
	if err != nil {
		writeError(c, err, "failed to export cv")
		return
	}

	exp, err := h.Svc.ExportSession(c.Request.Context(), userID, sessionID, Request{
		Format:     format,
		TemplateID: render.TemplateID(req.TemplateID),
	})
	if err != nil {
		writeError(c, err, "failed to export cv")
		return
	}
	middleware.SetExportID(c, exp.ID)
	if exp.CVID != "" {
		middleware.SetCVID(c, exp.CVID)
	}

	respond.JSON(c, http.StatusCreated, toResponse(exp))
}

func (h *Handler) get(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	exportID := c.Param("id")
	middleware.SetExportID(c, exportID)

	exp, err := h.Svc.Repo.GetByID(c.Request.Context(), userID, exportID)
	if err != nil {
		writeError(c, err, "failed to fetch export")
		return
	}
	respond.OK(c, toResponse(exp))
}

func (h *Handler) download(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	exportID := c.Param("id")
	middleware.SetExportID(c, exportID)

	exp, reader, err := h.Svc.Open(c.Request.Context(), userID, exportID)
	if err != nil {
		writeError(c, err, "failed to load export")
		return
	}
	defer reader.Close()

	c.Header("Content-Type", exp.ContentType)
	c.Header("Content-Disposition", "attachment; filename=\""+exp.FileName+"\"")
	c.Status(http.StatusOK)
	_, _ = io.Copy(c.Writer, reader)
}

func writeError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, ErrInvalidInput), errors.Is(err, render.ErrUnknownTemplate), errors.Is(err, sessions.ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, ErrUnsupported):
		respond.Error(c, http.StatusNotImplemented, "unsupported", "pdf rendering is not configured", nil)
	case errors.Is(err, ErrForbidden):
		respond.Error(c, http.StatusForbidden, "forbidden", "access denied", nil)
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "export not found", nil)
	case errors.Is(err, sessions.ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "session not found", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", fallback, nil)
	}
}
