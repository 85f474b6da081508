package cvs

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"cv-builder/cv/model"
	"cv-builder/cv/render"
	"cv-builder/cv/schema"
	"cv-builder/internal/sessions"
	"cv-builder/internal/shared/server/middleware"
	"cv-builder/internal/shared/server/respond"
)

const maxImportSize = 1 << 20 // 1MB

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches saved CV routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/sessions/:id/save", h.saveSession)
	rg.GET("/cvs", h.list)
	rg.POST("/cvs/import", h.importCV)
	rg.GET("/cvs/:id", h.get)
	rg.DELETE("/cvs/:id", h.remove)
	rg.POST("/cvs/:id/open", h.open)
}

type saveRequest struct {
	Title string `json:"title"`
}

type cvResponse struct {
	CVID       string          `json:"cvId"`
	Title      string          `json:"title"`
	TemplateID string          `json:"templateId"`
	Version    uint64          `json:"version"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
	Document   *model.Document `json:"document,omitempty"`
}

func toResponse(cv SavedCV, withDocument bool) cvResponse {
	resp := cvResponse{
		CVID:       cv.ID,
		Title:      cv.Title,
		TemplateID: cv.TemplateID,
		Version:    cv.Version,
		CreatedAt:  cv.CreatedAt,
		UpdatedAt:  cv.UpdatedAt,
	}
	if withDocument {
		doc := cv.Document
		resp.Document = &doc
	}
	return resp
}

func (h *Handler) saveSession(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	sessionID := c.Param("id")
	middleware.SetSessionID(c, sessionID)

	var req saveRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
			return
		}
	}

	cv, created, err := h.Svc.SaveSession(c.Request.Context(), userID, sessionID, req.Title)
	if err != nil {
		writeError(c, err, "failed to save cv")
		return
	}
	middleware.SetCVID(c, cv.ID)

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	respond.JSON(c, status, toResponse(cv, false))
}

func (h *Handler) list(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	limit := 20
	offset := 0
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}
	if limit < 0 {
		limit = 0
	}
	if limit > 50 {
		limit = 50
	}
	if v := c.Query("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			offset = parsed
		}
	}
	if offset < 0 {
		offset = 0
	}

	items, err := h.Svc.List(c.Request.Context(), userID, limit, offset)
	if err != nil {
		writeError(c, err, "failed to list cvs")
		return
	}

	resp := make([]cvResponse, 0, len(items))
	for _, cv := range items {
		resp = append(resp, toResponse(cv, false))
	}
	respond.OK(c, resp)
}

func (h *Handler) get(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	cvID := c.Param("id")
	middleware.SetCVID(c, cvID)

	cv, err := h.Svc.Get(c.Request.Context(), userID, cvID)
	if err != nil {
		writeError(c, err, "failed to fetch cv")
		return
	}
	respond.OK(c, toResponse(cv, true))
}

func (h *Handler) remove(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	cvID := c.Param("id")
	middleware.SetCVID(c, cvID)

	if err := h.Svc.Delete(c.Request.Context(), userID, cvID); err != nil {
		writeError(c, err, "failed to delete cv")
		return
	}
	respond.NoContent(c)
}

func (h *Handler) open(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	cvID := c.Param("id")
	middleware.SetCVID(c, cvID)

	sessionID, sess, err := h.Svc.Open(c.Request.Context(), userID, cvID)
	if err != nil {
		writeError(c, err, "failed to open cv")
		return
	}
	middleware.SetSessionID(c, sessionID)

	respond.JSON(c, http.StatusCreated, gin.H{
		"sessionId":  sessionID,
		"cvId":       cvID,
		"templateId": sess.Template(),
		"version":    sess.Store().Version(),
	})
}

// importCV accepts either a multipart upload in "file" or the CV JSON as the request body.
func (h *Handler) importCV(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxImportSize)

	var (
		raw   []byte
		err   error
		title = c.Query("title")
		tpl   = c.Query("templateId")
	)
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		fileHeader, ferr := c.FormFile("file")
		if ferr != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "file is required", nil)
			return
		}
		file, ferr := fileHeader.Open()
		if ferr != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
			return
		}
		defer file.Close()
		raw, err = io.ReadAll(file)
		if v := c.PostForm("title"); v != "" {
			title = v
		}
		if v := c.PostForm("templateId"); v != "" {
			tpl = v
		}
	} else {
		raw, err = io.ReadAll(c.Request.Body)
	}
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read upload", nil)
		return
	}

	cv, err := h.Svc.Import(c.Request.Context(), userID, raw, title, tpl)
	if err != nil {
		writeError(c, err, "failed to import cv")
		return
	}
	middleware.SetCVID(c, cv.ID)
	respond.JSON(c, http.StatusCreated, toResponse(cv, true))
}

func writeError(c *gin.Context, err error, fallback string) {
	var verr *schema.ValidationError
	switch {
	case errors.As(err, &verr):
		respond.Error(c, http.StatusBadRequest, "validation_error", "document does not match the CV schema", verr.Problems)
	case errors.Is(err, render.ErrUnknownTemplate):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, ErrInvalidInput), errors.Is(err, sessions.ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrForbidden):
		respond.Error(c, http.StatusNotFound, "not_found", "cv not found", nil)
	case errors.Is(err, sessions.ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "session not found", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", fallback, nil)
	}
}
