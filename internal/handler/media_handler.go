package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"property-portal/internal/apperr"
	"property-portal/internal/media"
	"property-portal/internal/middleware"
	"property-portal/internal/service"
	"property-portal/internal/store"
)

// MediaHandler accepts listing uploads and serves files kept in GridFS.
type MediaHandler struct {
	Service  *service.ListingService
	Files    media.Opener
	MaxBytes int64
}

func (h *MediaHandler) RegisterRoutes(public, protected *gin.RouterGroup) {
	protected.POST("/listings/:id/media", h.Upload)
	public.GET("/media/:id", h.Download)
}

var mediaKinds = map[string]store.MediaColumn{
	"image":    store.MediaImages,
	"document": store.MediaDocuments,
}

// POST /api/listings/:id/media  multipart: file, kind=image|document
func (h *MediaHandler) Upload(c *gin.Context) {
	if h.MaxBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxBytes)
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			middleware.AbortWithError(c, apperr.Validation("file too large",
				apperr.FieldErrors{"file": fmt.Sprintf("must be at most %d bytes", h.MaxBytes)}))
			return
		}
		middleware.AbortWithError(c, apperr.Validation("file is required", apperr.FieldErrors{"file": "is required"}))
		return
	}

	kind := c.DefaultPostForm("kind", "image")
	col, ok := mediaKinds[kind]
	if !ok {
		col = store.MediaColumn(kind)
	}

	file, err := fileHeader.Open()
	if err != nil {
		middleware.AbortWithError(c, apperr.Internal("cannot open upload", err))
		return
	}
	defer file.Close()

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	l, err := h.Service.AttachMedia(c.Request.Context(), middleware.RequesterFrom(c),
		c.Param("id"), col, fileHeader.Filename, contentType, file)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, l)
}

// GET /api/media/:id
func (h *MediaHandler) Download(c *gin.Context) {
	if h.Files == nil {
		middleware.AbortWithError(c, apperr.NotFound("file not found"))
		return
	}
	rc, contentType, err := h.Files.Open(c.Request.Context(), c.Param("id"))
	if errors.Is(err, media.ErrNotFound) {
		middleware.AbortWithError(c, apperr.NotFound("file not found"))
		return
	}
	if err != nil {
		middleware.AbortWithError(c, apperr.Internal("download failed", err))
		return
	}
	defer rc.Close()

	c.Header("Cache-Control", "public, max-age=86400")
	c.DataFromReader(http.StatusOK, -1, contentType, rc, nil)
}
