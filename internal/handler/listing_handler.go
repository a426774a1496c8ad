package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"property-portal/internal/apperr"
	"property-portal/internal/middleware"
	"property-portal/internal/service"
	"property-portal/internal/validation"
	"property-portal/internal/visibility"
)

// ListingHandler exposes listing reads, submissions and reviews.
type ListingHandler struct {
	Service *service.ListingService
}

func (h *ListingHandler) RegisterRoutes(public, protected *gin.RouterGroup) {
	public.GET("/listings", h.List)
	public.GET("/listings/:id", h.Get)
	public.GET("/listings/:id/floors", h.Floors)

	protected.POST("/listings", h.Create)
	protected.POST("/listings/:id/approve", h.Approve)
	protected.POST("/listings/:id/reject", h.Reject)
	protected.POST("/listings/:id/resubmit", h.Resubmit)
	protected.PUT("/listings/:id/floors/:floorId/quadrants/:quadrantId", h.SetQuadrantStatus)
}

// GET /api/listings?city=...&type=...&minPrice=...&sortBy=price&sortOrder=asc&limit=...&offset=...
func (h *ListingHandler) List(c *gin.Context) {
	filters, err := visibility.ParseFilters(c.Request.URL.Query())
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	feed, err := h.Service.List(c.Request.Context(), middleware.RequesterFrom(c), filters)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, feed)
}

// GET /api/listings/:id
func (h *ListingHandler) Get(c *gin.Context) {
	l, err := h.Service.Get(c.Request.Context(), middleware.RequesterFrom(c), c.Param("id"))
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, l)
}

// POST /api/listings
func (h *ListingHandler) Create(c *gin.Context) {
	var d validation.ListingDraft
	if err := c.ShouldBindJSON(&d); err != nil {
		middleware.AbortWithError(c, invalidPayload(err))
		return
	}
	l, err := h.Service.Create(c.Request.Context(), middleware.RequesterFrom(c), d)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, l)
}

// POST /api/listings/:id/approve
func (h *ListingHandler) Approve(c *gin.Context) {
	l, err := h.Service.Approve(c.Request.Context(), middleware.RequesterFrom(c), c.Param("id"))
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, l)
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

// POST /api/listings/:id/reject  {"reason": "..."}
func (h *ListingHandler) Reject(c *gin.Context) {
	var req rejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.AbortWithError(c, invalidPayload(err))
		return
	}
	l, err := h.Service.Reject(c.Request.Context(), middleware.RequesterFrom(c), c.Param("id"), req.Reason)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, l)
}

// POST /api/listings/:id/resubmit with an optional listing body.
func (h *ListingHandler) Resubmit(c *gin.Context) {
	d, err := optionalDraft(c.Request.Body)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	l, err := h.Service.Resubmit(c.Request.Context(), middleware.RequesterFrom(c), c.Param("id"), d)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, l)
}

// GET /api/listings/:id/floors
func (h *ListingHandler) Floors(c *gin.Context) {
	floors, err := h.Service.Floors(c.Request.Context(), middleware.RequesterFrom(c), c.Param("id"))
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"floors": floors})
}

type quadrantStatusRequest struct {
	Status string `json:"status"`
}

// PUT /api/listings/:id/floors/:floorId/quadrants/:quadrantId  {"status": "RESERVED"}
func (h *ListingHandler) SetQuadrantStatus(c *gin.Context) {
	var req quadrantStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.AbortWithError(c, invalidPayload(err))
		return
	}
	err := h.Service.SetQuadrantStatus(c.Request.Context(), middleware.RequesterFrom(c),
		c.Param("id"), c.Param("floorId"), c.Param("quadrantId"), req.Status)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func optionalDraft(body io.Reader) (*validation.ListingDraft, error) {
	if body == nil {
		return nil, nil
	}
	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, invalidPayload(err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}
	var d validation.ListingDraft
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, invalidPayload(err)
	}
	return &d, nil
}

func invalidPayload(err error) error {
	return apperr.Validation("invalid payload", apperr.FieldErrors{"body": err.Error()})
}
